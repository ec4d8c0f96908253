package executor

import (
	"context"

	"github.com/dquery/dqengine/internal/ast"
	"github.com/dquery/dqengine/internal/candidateset"
	"github.com/dquery/dqengine/internal/evaluator"
	"github.com/dquery/dqengine/internal/optimizer"
)

// prefilterExecutor implements spec.md §4.4: same traversal order as
// sequential, but every leaf receives the intersection of its
// read-group list as a candidate set, and results are published to
// write groups so later siblings see a tighter candidate set.
type prefilterExecutor struct {
	stats ast.Stats
}

func (e *prefilterExecutor) Execute(ctx context.Context, plan ast.Node, ev Evaluators, fainderMode evaluator.FainderMode) (Result, error) {
	tree := optimizer.Optimize(plan, e.stats)
	info := optimizer.AssignGroups(tree)
	f := newFrame(info, func(s *candidateset.Set, from, to space) *candidateset.Set {
		return convertSpace(ev.Meta, s, from, to)
	})

	scores := map[evaluator.DatasetID]float64{}
	snippets := map[evaluator.DatasetID]string{}

	set, err := evalPrefilter(ctx, tree, ev, fainderMode, false, f, scores, snippets)
	if err != nil {
		return Result{}, err
	}

	if len(scores) == 0 {
		scores = nil
	}
	if len(snippets) == 0 {
		snippets = nil
	}
	ids := orderResult(toDatasetIDs(set), scores)
	return Result{IDs: ids, Scores: scores, Snippets: snippets}, nil
}

func convertSpace(meta evaluator.MetaIndex, s *candidateset.Set, from, to space) *candidateset.Set {
	if from == to {
		return s
	}
	if from == datasetSpace {
		return columnsOfDatasets(meta, s)
	}
	return datasetSetFromColumns(meta, s)
}

func nativeSpace(inScope bool) space {
	if inScope {
		return columnSpace
	}
	return datasetSpace
}

func evalPrefilter(ctx context.Context, n ast.Node, ev Evaluators, fainderMode evaluator.FainderMode, inScope bool, f *frame, scores map[evaluator.DatasetID]float64, snippets map[evaluator.DatasetID]string) (*candidateset.Set, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	switch v := n.(type) {
	case *ast.Keyword:
		return evalLeafPrefilter(ctx, ev, f, v.Annotation, inScope, func(candidates *candidateset.Set) (*candidateset.Set, error) {
			res, err := ev.Keyword.Search(ctx, v.Pattern, candidates, 0, 0)
			if err != nil {
				return nil, wrapEvaluatorError(evaluator.WhichKeyword, err)
			}
			for _, h := range res.Hits {
				scores[h.Dataset] = h.Score
			}
			for id, snip := range res.Snippets {
				snippets[id] = snip
			}
			return datasetSetFromHits(ev.Meta, res.Hits), nil
		})

	case *ast.ColumnName:
		return evalLeafPrefilter(ctx, ev, f, v.Annotation, inScope, func(candidates *candidateset.Set) (*candidateset.Set, error) {
			_ = candidates // spec.md's colname.search table has no candidate-set input
			cols, err := ev.ColumnName.Search(ctx, v.Name, v.K)
			if err != nil {
				return nil, wrapEvaluatorError(evaluator.WhichColumnName, err)
			}
			return columnSetFromIDs(ev.Meta, cols), nil
		})

	case *ast.Percentile:
		return evalLeafPrefilter(ctx, ev, f, v.Annotation, inScope, func(candidates *candidateset.Set) (*candidateset.Set, error) {
			histCandidates := histogramCandidatesFromColumns(ev.Meta, candidates)
			hists, err := ev.Percentile.Search(ctx, v.P, v.Comparator, v.V, histCandidates, fainderMode)
			if err != nil {
				return nil, wrapEvaluatorError(evaluator.WhichPercentile, err)
			}
			return columnSetFromHistograms(ev.Meta, hists), nil
		})

	case *ast.Scope:
		inner, err := evalPrefilter(ctx, v.Child, ev, fainderMode, true, f, scores, snippets)
		if err != nil {
			return nil, err
		}
		return datasetSetFromColumns(ev.Meta, inner), nil

	case *ast.Connective:
		return evalConnectivePrefilter(ctx, v, ev, fainderMode, inScope, f, scores, snippets)

	default:
		return nil, ast.SemanticConstraintError{Kind: "UnknownNode", Message: "unrecognized AST node"}
	}
}

// evalLeafPrefilter computes the candidate set for a leaf (peeking its
// own write group, awaiting its other read groups, intersecting both),
// short-circuits on an empty intersection, and otherwise calls run and
// publishes its result.
//
// A leaf's own write group can itself appear in its ReadGroups list —
// e.g. NOT's rule adds its fresh group to the read list it hands down,
// and that same group is also the write group every AND-descendant of
// that NOT inherits. Waiting on it would deadlock (the group can't
// finalize until this leaf itself publishes), so it is always peeked,
// never awaited, regardless of whether it reached this leaf via the
// implicit "own write group" channel or via an explicit ReadGroups
// entry.
func evalLeafPrefilter(ctx context.Context, ev Evaluators, f *frame, ann ast.Annotation, inScope bool, run func(candidates *candidateset.Set) (*candidateset.Set, error)) (*candidateset.Set, error) {
	own := nativeSpace(inScope)

	var others []int
	for _, g := range ann.ReadGroups {
		if g != ann.WriteGroup {
			others = append(others, g)
		}
	}

	read, err := f.await(ctx, others, own)
	if err != nil {
		return nil, err
	}
	peek := f.peekOwn(ann.WriteGroup, own)
	candidates := candidateset.Intersect(read, peek)

	// Empty-candidate short-circuit, per spec.md §4.4: a leaf whose
	// candidate set is already known empty is skipped entirely.
	if candidates != nil && candidates.Len() == 0 {
		empty := emptySetFor(ev.Meta, inScope)
		f.publish(ann.WriteGroup, own, empty)
		return empty, nil
	}

	result, err := run(candidates)
	if err != nil {
		return nil, err
	}
	f.publish(ann.WriteGroup, own, result)
	return result, nil
}

func emptySetFor(meta evaluator.MetaIndex, inScope bool) *candidateset.Set {
	if inScope {
		return candidateset.NewEmpty(meta.ColumnCount())
	}
	return candidateset.NewEmpty(meta.DatasetCount())
}

// histogramCandidatesFromColumns lifts a column-id candidate set to
// histogram-id space for the percentile evaluator, which speaks
// histogram ids, not column ids. A histogram id belongs to the
// candidate set iff its owning column does.
func histogramCandidatesFromColumns(meta evaluator.MetaIndex, cols *candidateset.Set) *candidateset.Set {
	if cols == nil {
		return nil
	}
	universe := meta.HistogramCount()
	out := candidateset.NewEmpty(universe)
	for h := uint32(0); h < universe; h++ {
		col, ok := meta.HistogramToColumn(evaluator.HistogramID(h))
		if ok && cols.Contains(uint32(col)) {
			out.Add(h)
		}
	}
	return out
}

func evalConnectivePrefilter(ctx context.Context, c *ast.Connective, ev Evaluators, fainderMode evaluator.FainderMode, inScope bool, f *frame, scores map[evaluator.DatasetID]float64, snippets map[evaluator.DatasetID]string) (*candidateset.Set, error) {
	if c.Kind() == ast.Not {
		inner, err := evalPrefilter(ctx, c.Children[0], ev, fainderMode, inScope, f, scores, snippets)
		if err != nil {
			return nil, err
		}
		universe := scopedUniverse(ev.Meta, inScope, c.Children[0])
		return candidateset.Complement(universe.Universe(), inner), nil
	}

	var acc *candidateset.Set
	for i, child := range c.Children {
		childSet, err := evalPrefilter(ctx, child, ev, fainderMode, inScope, f, scores, snippets)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			acc = childSet
			continue
		}
		switch c.Kind() {
		case ast.And:
			acc = candidateset.Intersect(acc, childSet)
			// Per spec.md §8: if any AND-child returns ∅, the AND
			// returns ∅ without invoking later siblings.
			if acc.Len() == 0 {
				return acc, nil
			}
		case ast.Or:
			acc = candidateset.Union(acc, childSet)
		case ast.Xor:
			acc = candidateset.SymmetricDifference(acc, childSet)
		}
	}
	return acc, nil
}
