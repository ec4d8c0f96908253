package executor

import (
	"context"

	"github.com/dquery/dqengine/internal/ast"
	"github.com/dquery/dqengine/internal/candidateset"
	"github.com/dquery/dqengine/internal/evaluator"
	"github.com/dquery/dqengine/internal/optimizer"
)

// Mode selects which of the three executor variants runs a query.
type Mode int

const (
	Sequential Mode = iota
	Prefilter
	Threaded
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Prefilter:
		return "prefilter"
	case Threaded:
		return "threaded"
	default:
		return "unknown"
	}
}

// Evaluators bundles the four external collaborators a query needs,
// per spec.md §6.
type Evaluators struct {
	Keyword    evaluator.KeywordEvaluator
	ColumnName evaluator.ColumnNameEvaluator
	Percentile evaluator.PercentileEvaluator
	Meta       evaluator.MetaIndex
}

// Result is the final output of a query: the matching dataset ids,
// their keyword scores when applicable, and any snippets the keyword
// evaluator attached. Per spec.md §9, scores only ever come from the
// keyword evaluator; when no keyword leaf appears in the query, Scores
// is nil and IDs is sorted ascending.
type Result struct {
	IDs      []evaluator.DatasetID
	Scores   map[evaluator.DatasetID]float64
	Snippets map[evaluator.DatasetID]string
}

// Executor is the interface all three executor variants satisfy: same
// semantics, different performance characteristics, per spec.md §4.3-5.
type Executor interface {
	Execute(ctx context.Context, plan ast.Node, ev Evaluators, fainderMode evaluator.FainderMode) (Result, error)
}

// Options configures executor construction; only Threaded consults
// WorkerPoolSize.
type Options struct {
	WorkerPoolSize int
	Stats          ast.Stats
}

// New returns the Executor for mode. Prefilter and Threaded run
// optimizer.AssignGroups on the plan before every query; Sequential
// never needs groups, matching spec.md §4.3's "leaves call their
// evaluators without a candidate set".
func New(mode Mode, opts Options) Executor {
	switch mode {
	case Prefilter:
		return &prefilterExecutor{stats: opts.Stats}
	case Threaded:
		n := opts.WorkerPoolSize
		if n <= 0 {
			n = 1
		}
		return &threadedExecutor{stats: opts.Stats, poolSize: n}
	default:
		return &sequentialExecutor{stats: opts.Stats}
	}
}

// universeOf returns the id-space universe a bare (non-column-scoped)
// Boolean operation ranges over: every known dataset.
func universeOf(meta evaluator.MetaIndex) *candidateset.Set {
	return meta.DatasetUniverse()
}
