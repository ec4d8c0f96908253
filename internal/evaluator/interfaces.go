package evaluator

import (
	"context"

	"github.com/dquery/dqengine/internal/candidateset"
)

// KeywordEvaluator searches the external full-text index. candidates,
// when non-nil, restricts the search to that dataset-id subset;
// minScore and maxResults bound the ranked result. The executors in
// this module always pass 0 for both; Config.KeywordMinScore and
// Config.KeywordMaxResults are not forwarded to this call.
type KeywordEvaluator interface {
	Search(ctx context.Context, query string, candidates *candidateset.Set, minScore float64, maxResults int) (KeywordResult, error)
}

// ColumnNameEvaluator resolves a NAME leaf to the k nearest column ids
// by cosine similarity in the external embedding index. k==0 means
// exact match only.
type ColumnNameEvaluator interface {
	Search(ctx context.Context, name string, k int) ([]ColumnID, error)
}

// PercentileEvaluator resolves a PP leaf to the set of histogram ids
// whose p-th percentile satisfies cmp v, restricted to candidates when
// non-nil. Results are monotone in the candidate set: widening
// candidates never removes a histogram id from a narrower call's
// result.
type PercentileEvaluator interface {
	Search(ctx context.Context, p float64, cmp Comparator, v float64, candidates *candidateset.Set, mode FainderMode) (*candidateset.Set, error)
}

// MetaIndex relates the three id spaces and exposes the dataset
// universe NOT needs.
type MetaIndex interface {
	ColumnToDataset(col ColumnID) (DatasetID, bool)
	ColumnsToDatasets(cols []ColumnID) []DatasetID
	HistogramToColumn(hist HistogramID) (ColumnID, bool)
	DatasetUniverse() *candidateset.Set
	// HistogramColumnUniverse returns every column id that has an
	// associated histogram, the universe a bare percentile predicate
	// (or a NOT nested in a column scope whose subtree has no
	// column-name leaf) ranges over.
	HistogramColumnUniverse() *candidateset.Set
	// ColumnUniverse returns every known column id, histogram-bearing
	// or not — the universe a NOT nested in a column scope ranges over
	// when its subtree contains a column-name leaf, since NAME can
	// match a column with no histogram at all.
	ColumnUniverse() *candidateset.Set
	DatasetCount() uint32
	ColumnCount() uint32
	HistogramCount() uint32
}
