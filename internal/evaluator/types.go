// Package evaluator defines the interfaces the executor uses to reach
// the three external indexes (keyword, column-name, percentile/Fainder)
// plus the metadata tables that relate dataset, column, and histogram
// id spaces. Concrete implementations live outside this module — these
// are the boundary the spec treats as external collaborators.
package evaluator

import "github.com/dquery/dqengine/internal/ast"

// DatasetID, ColumnID, and HistogramID are the three dense id domains
// from spec.md §3. Distinct types prevent accidentally mixing them
// across an id-space conversion.
type (
	DatasetID   uint32
	ColumnID    uint32
	HistogramID uint32
)

// Comparator is re-exported from ast so evaluator callers do not need
// to import the ast package just to pass a comparison operator.
type Comparator = ast.Comparator

const (
	CompareGE = ast.CompareGE
	CompareGT = ast.CompareGT
	CompareLE = ast.CompareLE
	CompareLT = ast.CompareLT
)

// FainderMode selects the percentile evaluator's precision/recall
// tradeoff, per spec.md §6.
type FainderMode int

const (
	LowMemory FainderMode = iota
	FullPrecision
	FullRecall
	Exact
)

func (m FainderMode) String() string {
	switch m {
	case LowMemory:
		return "low_memory"
	case FullPrecision:
		return "full_precision"
	case FullRecall:
		return "full_recall"
	case Exact:
		return "exact"
	default:
		return "unknown"
	}
}

// KeywordHit is one (dataset, score) pair from a keyword search.
type KeywordHit struct {
	Dataset DatasetID
	Score   float64
}

// KeywordResult is the full output of a keyword search: ranked hits
// plus an optional per-dataset snippet map.
type KeywordResult struct {
	Hits     []KeywordHit
	Snippets map[DatasetID]string
}
