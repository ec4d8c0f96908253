package executor

import (
	"context"
	"errors"
	"sync"

	"github.com/dquery/dqengine/internal/ast"
	"github.com/dquery/dqengine/internal/candidateset"
	"github.com/dquery/dqengine/internal/evaluator"
	"github.com/dquery/dqengine/internal/optimizer"
	"golang.org/x/sync/semaphore"
)

// threadedExecutor implements spec.md §4.5: the same read/write-group
// dependency graph as the prefilter executor, but leaves dispatch onto
// a bounded worker pool and interior connectives combine their
// children's results as those children complete, rather than in a
// fixed left-to-right order.
type threadedExecutor struct {
	stats    ast.Stats
	poolSize int
}

func (e *threadedExecutor) Execute(ctx context.Context, plan ast.Node, ev Evaluators, fainderMode evaluator.FainderMode) (Result, error) {
	tree := optimizer.Optimize(plan, e.stats)
	info := optimizer.AssignGroups(tree)
	f := newFrame(info, func(s *candidateset.Set, from, to space) *candidateset.Set {
		return convertSpace(ev.Meta, s, from, to)
	})
	referenced := referencedReadGroups(tree)
	sem := semaphore.NewWeighted(int64(e.poolSize))
	sink := &scoreSink{scores: map[evaluator.DatasetID]float64{}, snippets: map[evaluator.DatasetID]string{}}

	set, err := evalThreaded(ctx, tree, ev, fainderMode, false, f, sem, referenced, sink)
	if err != nil {
		return Result{}, err
	}

	scores, snippets := sink.drain()
	ids := orderResult(toDatasetIDs(set), scores)
	return Result{IDs: ids, Scores: scores, Snippets: snippets}, nil
}

// scoreSink collects keyword scores and snippets from leaves running
// concurrently on different goroutines; sequential and prefilter write
// straight into a plain map since they never run two leaves at once.
type scoreSink struct {
	mu       sync.Mutex
	scores   map[evaluator.DatasetID]float64
	snippets map[evaluator.DatasetID]string
}

func (s *scoreSink) recordKeywordResult(res evaluator.KeywordResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range res.Hits {
		s.scores[h.Dataset] = h.Score
	}
	for id, snip := range res.Snippets {
		s.snippets[id] = snip
	}
}

func (s *scoreSink) drain() (map[evaluator.DatasetID]float64, map[evaluator.DatasetID]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var scores map[evaluator.DatasetID]float64
	var snippets map[evaluator.DatasetID]string
	if len(s.scores) > 0 {
		scores = s.scores
	}
	if len(s.snippets) > 0 {
		snippets = s.snippets
	}
	return scores, snippets
}

// referencedReadGroups collects every write group that appears in some
// leaf's ReadGroups list other than that leaf's own write group — the
// set of groups at least one leaf is waiting to be finalized. A write
// group outside this set can be abandoned mid-computation without
// stranding a reader.
func referencedReadGroups(n ast.Node) map[int]bool {
	out := make(map[int]bool)
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Keyword:
			markReferenced(out, v.Annotation)
		case *ast.ColumnName:
			markReferenced(out, v.Annotation)
		case *ast.Percentile:
			markReferenced(out, v.Annotation)
		case *ast.Scope:
			walk(v.Child)
		case *ast.Connective:
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

func markReferenced(out map[int]bool, ann ast.Annotation) {
	for _, g := range ann.ReadGroups {
		if g != ann.WriteGroup {
			out[g] = true
		}
	}
}

// subtreeWriteGroups lists every write group a leaf beneath n publishes
// to, used to decide whether abandoning n mid-flight is safe.
func subtreeWriteGroups(n ast.Node) []int {
	var out []int
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Keyword:
			out = append(out, v.WriteGroup)
		case *ast.ColumnName:
			out = append(out, v.WriteGroup)
		case *ast.Percentile:
			out = append(out, v.WriteGroup)
		case *ast.Scope:
			walk(v.Child)
		case *ast.Connective:
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

// cancellable reports whether abandoning n's in-flight computation
// cannot strand any other leaf awaiting one of n's write groups, per
// spec.md §4.5's conservative cancellation rule.
func cancellable(n ast.Node, referenced map[int]bool) bool {
	for _, g := range subtreeWriteGroups(n) {
		if referenced[g] {
			return false
		}
	}
	return true
}

func evalThreaded(ctx context.Context, n ast.Node, ev Evaluators, fainderMode evaluator.FainderMode, inScope bool, f *frame, sem *semaphore.Weighted, referenced map[int]bool, sink *scoreSink) (*candidateset.Set, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	switch v := n.(type) {
	case *ast.Keyword:
		return evalLeafPrefilter(ctx, ev, f, v.Annotation, inScope, func(candidates *candidateset.Set) (*candidateset.Set, error) {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, err
			}
			defer sem.Release(1)
			res, err := ev.Keyword.Search(ctx, v.Pattern, candidates, 0, 0)
			if err != nil {
				return nil, wrapEvaluatorError(evaluator.WhichKeyword, err)
			}
			sink.recordKeywordResult(res)
			return datasetSetFromHits(ev.Meta, res.Hits), nil
		})

	case *ast.ColumnName:
		return evalLeafPrefilter(ctx, ev, f, v.Annotation, inScope, func(candidates *candidateset.Set) (*candidateset.Set, error) {
			_ = candidates
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, err
			}
			defer sem.Release(1)
			cols, err := ev.ColumnName.Search(ctx, v.Name, v.K)
			if err != nil {
				return nil, wrapEvaluatorError(evaluator.WhichColumnName, err)
			}
			return columnSetFromIDs(ev.Meta, cols), nil
		})

	case *ast.Percentile:
		return evalLeafPrefilter(ctx, ev, f, v.Annotation, inScope, func(candidates *candidateset.Set) (*candidateset.Set, error) {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, err
			}
			defer sem.Release(1)
			histCandidates := histogramCandidatesFromColumns(ev.Meta, candidates)
			hists, err := ev.Percentile.Search(ctx, v.P, v.Comparator, v.V, histCandidates, fainderMode)
			if err != nil {
				return nil, wrapEvaluatorError(evaluator.WhichPercentile, err)
			}
			return columnSetFromHistograms(ev.Meta, hists), nil
		})

	case *ast.Scope:
		inner, err := evalThreaded(ctx, v.Child, ev, fainderMode, true, f, sem, referenced, sink)
		if err != nil {
			return nil, err
		}
		return datasetSetFromColumns(ev.Meta, inner), nil

	case *ast.Connective:
		return evalConnectiveThreaded(ctx, v, ev, fainderMode, inScope, f, sem, referenced, sink)

	default:
		return nil, ast.SemanticConstraintError{Kind: "UnknownNode", Message: "unrecognized AST node"}
	}
}

type childOutcome struct {
	index int
	set   *candidateset.Set
	err   error
}

// evalConnectiveThreaded dispatches every child of an AND/OR/XOR
// concurrently and combines their results on return, in the order
// spec.md §4.5 describes as "the interior combinators run on the main
// coordinator as their children complete." NOT has a single child and
// gains nothing from the pool, so it recurses directly.
func evalConnectiveThreaded(ctx context.Context, c *ast.Connective, ev Evaluators, fainderMode evaluator.FainderMode, inScope bool, f *frame, sem *semaphore.Weighted, referenced map[int]bool, sink *scoreSink) (*candidateset.Set, error) {
	if c.Kind() == ast.Not {
		inner, err := evalThreaded(ctx, c.Children[0], ev, fainderMode, inScope, f, sem, referenced, sink)
		if err != nil {
			return nil, err
		}
		universe := scopedUniverse(ev.Meta, inScope, c.Children[0])
		return candidateset.Complement(universe.Universe(), inner), nil
	}

	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan childOutcome, len(c.Children))
	var wg sync.WaitGroup
	wg.Add(len(c.Children))
	for i, child := range c.Children {
		go func(i int, child ast.Node) {
			defer wg.Done()
			set, err := evalThreaded(childCtx, child, ev, fainderMode, inScope, f, sem, referenced, sink)
			outcomes <- childOutcome{index: i, set: set, err: err}
		}(i, child)
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]*candidateset.Set, len(c.Children))
	andEmpty := false
	var firstErr error
	for o := range outcomes {
		if o.err != nil {
			if andEmpty && errors.Is(o.err, context.Canceled) {
				// Expected: this sibling was abandoned once the AND
				// was already known to be empty.
				continue
			}
			if firstErr == nil {
				firstErr = o.err
			}
			cancel()
			continue
		}

		results[o.index] = o.set
		if c.Kind() == ast.And && o.set != nil && o.set.Len() == 0 {
			andEmpty = true
			safe := true
			for i, sibling := range c.Children {
				if i != o.index && !cancellable(sibling, referenced) {
					safe = false
				}
			}
			if safe {
				cancel()
			}
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if andEmpty {
		return emptySetFor(ev.Meta, inScope), nil
	}

	acc := results[0]
	for i := 1; i < len(results); i++ {
		switch c.Kind() {
		case ast.And:
			acc = candidateset.Intersect(acc, results[i])
		case ast.Or:
			acc = candidateset.Union(acc, results[i])
		case ast.Xor:
			acc = candidateset.SymmetricDifference(acc, results[i])
		}
	}
	return acc, nil
}
