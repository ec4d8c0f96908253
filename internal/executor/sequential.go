package executor

import (
	"context"
	"errors"
	"net"

	"github.com/dquery/dqengine/internal/ast"
	"github.com/dquery/dqengine/internal/candidateset"
	"github.com/dquery/dqengine/internal/evaluator"
)

// sequentialExecutor implements spec.md §4.3: plain post-order
// traversal, no candidate sets, no concurrency. It is also the
// reference semantics the prefilter and threaded executors must agree
// with (per the cross-executor equivalence testable property).
type sequentialExecutor struct {
	stats ast.Stats
}

func (e *sequentialExecutor) Execute(ctx context.Context, plan ast.Node, ev Evaluators, fainderMode evaluator.FainderMode) (Result, error) {
	scores := map[evaluator.DatasetID]float64{}
	snippets := map[evaluator.DatasetID]string{}

	set, err := evalSequential(ctx, plan, ev, fainderMode, false, scores, snippets)
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

func toDatasetIDs(s *candidateset.Set) []evaluator.DatasetID {
	raw := s.ToSlice()
	out := make([]evaluator.DatasetID, len(raw))
	for i, id := range raw {
		out[i] = evaluator.DatasetID(id)
	}
	return out
}

// evalSequential evaluates n and returns its result set: dataset ids
// outside any column scope, column ids inside one, per spec.md §4.3.
func evalSequential(ctx context.Context, n ast.Node, ev Evaluators, fainderMode evaluator.FainderMode, inScope bool, scores map[evaluator.DatasetID]float64, snippets map[evaluator.DatasetID]string) (*candidateset.Set, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	switch v := n.(type) {
	case *ast.Keyword:
		res, err := ev.Keyword.Search(ctx, v.Pattern, nil, 0, 0)
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

	case *ast.ColumnName:
		cols, err := ev.ColumnName.Search(ctx, v.Name, v.K)
		if err != nil {
			return nil, wrapEvaluatorError(evaluator.WhichColumnName, err)
		}
		return columnSetFromIDs(ev.Meta, cols), nil

	case *ast.Percentile:
		hists, err := ev.Percentile.Search(ctx, v.P, v.Comparator, v.V, nil, fainderMode)
		if err != nil {
			return nil, wrapEvaluatorError(evaluator.WhichPercentile, err)
		}
		return columnSetFromHistograms(ev.Meta, hists), nil

	case *ast.Scope:
		inner, err := evalSequential(ctx, v.Child, ev, fainderMode, true, scores, snippets)
		if err != nil {
			return nil, err
		}
		return datasetSetFromColumns(ev.Meta, inner), nil

	case *ast.Connective:
		return evalConnectiveSequential(ctx, v, ev, fainderMode, inScope, scores, snippets)

	default:
		return nil, ast.SemanticConstraintError{Kind: "UnknownNode", Message: "unrecognized AST node"}
	}
}

func evalConnectiveSequential(ctx context.Context, c *ast.Connective, ev Evaluators, fainderMode evaluator.FainderMode, inScope bool, scores map[evaluator.DatasetID]float64, snippets map[evaluator.DatasetID]string) (*candidateset.Set, error) {
	if c.Kind() == ast.Not {
		inner, err := evalSequential(ctx, c.Children[0], ev, fainderMode, inScope, scores, snippets)
		if err != nil {
			return nil, err
		}
		universe := scopedUniverse(ev.Meta, inScope, c.Children[0])
		return candidateset.Complement(universe.Universe(), inner), nil
	}

	var acc *candidateset.Set
	for i, child := range c.Children {
		childSet, err := evalSequential(ctx, child, ev, fainderMode, inScope, scores, snippets)
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
		case ast.Or:
			acc = candidateset.Union(acc, childSet)
		case ast.Xor:
			acc = candidateset.SymmetricDifference(acc, childSet)
		}
	}
	return acc, nil
}

// scopedUniverse returns the universe NOT/complement operates against:
// the dataset universe outside any column scope; inside one, the full
// column universe if negated subtree contains a column-name leaf
// (NAME can match a column with no histogram), else the
// histogram-bearing column universe (the resolved reading of the
// NOT-under-column-scope open question, see DESIGN.md).
func scopedUniverse(meta evaluator.MetaIndex, inScope bool, negated ast.Node) *candidateset.Set {
	if !inScope {
		return meta.DatasetUniverse()
	}
	if containsColumnNameLeaf(negated) {
		return meta.ColumnUniverse()
	}
	return meta.HistogramColumnUniverse()
}

// containsColumnNameLeaf reports whether n's subtree (evaluated inside
// a column scope) contains a NAME leaf.
func containsColumnNameLeaf(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.ColumnName:
		return true
	case *ast.Scope:
		return containsColumnNameLeaf(v.Child)
	case *ast.Connective:
		for _, c := range v.Children {
			if containsColumnNameLeaf(c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func wrapEvaluatorError(which evaluator.Which, cause error) error {
	return &evaluator.EvaluatorError{Which: which, Kind: classifyEvaluatorErrorKind(cause), Cause: cause}
}

// classifyEvaluatorErrorKind decides whether a collaborator failure was
// never reached at all (transport-down, connection-refused, a
// deadline expiring against the backend) versus reached and rejecting
// the call outright, per spec.md §7's evaluator_unavailable vs
// evaluator_malformed split.
func classifyEvaluatorErrorKind(cause error) evaluator.ErrorKind {
	var netErr net.Error
	if errors.As(cause, &netErr) {
		return evaluator.Unavailable
	}
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		return evaluator.Unavailable
	}
	return evaluator.Malformed
}
