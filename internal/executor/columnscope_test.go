package executor

import (
	"context"
	"testing"

	"github.com/dquery/dqengine/internal/candidateset"
	"github.com/dquery/dqengine/internal/evaluator"
)

// Fixture for column-scope-only semantics: 2 datasets, 3 columns, but
// only 2 histograms — column 2 has no histogram at all, so a NOT whose
// subtree contains a NAME leaf (ranges over every column) must differ
// from a NOT whose subtree is histogram-only (ranges over columns 0-1
// only).
//
//	col0 -> ds0, hist0
//	col1 -> ds0, hist1
//	col2 -> ds1, no histogram
var columnscopeColumnDataset = map[evaluator.ColumnID]evaluator.DatasetID{
	0: 0,
	1: 0,
	2: 1,
}

type columnscopeMeta struct{}

func (columnscopeMeta) ColumnToDataset(col evaluator.ColumnID) (evaluator.DatasetID, bool) {
	ds, ok := columnscopeColumnDataset[col]
	return ds, ok
}

func (columnscopeMeta) ColumnsToDatasets(cols []evaluator.ColumnID) []evaluator.DatasetID {
	out := make([]evaluator.DatasetID, 0, len(cols))
	for _, c := range cols {
		if ds, ok := columnscopeColumnDataset[c]; ok {
			out = append(out, ds)
		}
	}
	return out
}

func (columnscopeMeta) HistogramToColumn(hist evaluator.HistogramID) (evaluator.ColumnID, bool) {
	if uint32(hist) >= 2 {
		return 0, false
	}
	return evaluator.ColumnID(hist), true
}

func (columnscopeMeta) DatasetUniverse() *candidateset.Set { return candidateset.NewFull(2) }

// Only columns 0-1 have a histogram.
func (columnscopeMeta) HistogramColumnUniverse() *candidateset.Set {
	return candidateset.NewSparse(3, 0, 1)
}

// Every column, histogram or not.
func (columnscopeMeta) ColumnUniverse() *candidateset.Set { return candidateset.NewFull(3) }

func (columnscopeMeta) DatasetCount() uint32   { return 2 }
func (columnscopeMeta) ColumnCount() uint32    { return 3 }
func (columnscopeMeta) HistogramCount() uint32 { return 2 }

type columnscopeColumnName struct {
	byName map[string][]evaluator.ColumnID
}

func (s *columnscopeColumnName) Search(ctx context.Context, name string, k int) ([]evaluator.ColumnID, error) {
	return s.byName[name], nil
}

type columnscopePercentile struct {
	byKey map[percentileKey][]evaluator.HistogramID
}

func (s *columnscopePercentile) Search(ctx context.Context, p float64, cmp evaluator.Comparator, v float64, candidates *candidateset.Set, mode evaluator.FainderMode) (*candidateset.Set, error) {
	out := candidateset.NewEmpty(2)
	for _, h := range s.byKey[percentileKey{p, cmp, v}] {
		if candidates != nil && !candidates.Contains(uint32(h)) {
			continue
		}
		out.Add(uint32(h))
	}
	return out, nil
}

func columnscopeEvaluators() Evaluators {
	return Evaluators{
		Keyword: &stubKeyword{},
		ColumnName: &columnscopeColumnName{byName: map[string][]evaluator.ColumnID{
			"x": {0},
			"y": {1},
		}},
		Percentile: &columnscopePercentile{byKey: map[percentileKey][]evaluator.HistogramID{
			{0.5, evaluator.CompareGE, 10}: {0},
		}},
		Meta: columnscopeMeta{},
	}
}

// TestColumnScope_XOR exercises XOR under a column scope, per the
// resolved "XOR under column scope" open question: plain column-id-
// space symmetric difference, same as XOR everywhere else.
func TestColumnScope_XOR(t *testing.T) {
	plan := parseOrFatal(t, `COL(NAME("x";0) XOR NAME("y";0))`)
	ev := columnscopeEvaluators()

	for _, mode := range []Mode{Sequential, Prefilter, Threaded} {
		exec := New(mode, Options{WorkerPoolSize: 2})
		res, err := exec.Execute(context.Background(), plan, ev, evaluator.Exact)
		if err != nil {
			t.Fatalf("mode %s: Execute failed: %v", mode, err)
		}
		// NAME("x") -> col 0, NAME("y") -> col 1; both land in
		// dataset 0, so the lifted result is {dataset 0}.
		want := []evaluator.DatasetID{0}
		if !idsEqual(res.IDs, want) {
			t.Errorf("mode %s: IDs = %v, want %v", mode, res.IDs, want)
		}
	}
}

// TestColumnScope_NotWithColumnNameLeaf asserts a NOT whose subtree
// contains a NAME leaf negates against every column, including ones
// with no histogram — the resolved Open Question #1 behavior: NAME
// can match a column a bare percentile predicate could never range
// over in the first place.
func TestColumnScope_NotWithColumnNameLeaf(t *testing.T) {
	plan := parseOrFatal(t, `COL(NOT NAME("y";0))`)
	ev := columnscopeEvaluators()

	for _, mode := range []Mode{Sequential, Prefilter, Threaded} {
		exec := New(mode, Options{WorkerPoolSize: 2})
		res, err := exec.Execute(context.Background(), plan, ev, evaluator.Exact)
		if err != nil {
			t.Fatalf("mode %s: Execute failed: %v", mode, err)
		}
		// NAME("y") -> col 1 -> complement over all 3 columns is
		// {col0, col2} -> datasets {0, 1}. Column 2 (no histogram)
		// must NOT be excluded just because it lacks one.
		want := []evaluator.DatasetID{0, 1}
		if !idsEqual(res.IDs, want) {
			t.Errorf("mode %s: IDs = %v, want %v", mode, res.IDs, want)
		}
	}
}

// TestColumnScope_NotWithoutColumnNameLeaf asserts a NOT whose subtree
// is histogram-only (no NAME leaf) negates against only the
// histogram-bearing columns, per Open Question #1's original resolved
// reading.
func TestColumnScope_NotWithoutColumnNameLeaf(t *testing.T) {
	plan := parseOrFatal(t, `COL(NOT PP(0.5;ge;10))`)
	ev := columnscopeEvaluators()

	for _, mode := range []Mode{Sequential, Prefilter, Threaded} {
		exec := New(mode, Options{WorkerPoolSize: 2})
		res, err := exec.Execute(context.Background(), plan, ev, evaluator.Exact)
		if err != nil {
			t.Fatalf("mode %s: Execute failed: %v", mode, err)
		}
		// PP(...) -> hist 0 -> col 0; complement over the
		// histogram-bearing universe {col0, col1} is {col1} ->
		// dataset {0}. Column 2 has no histogram and must not appear
		// even though it is absent from the PP side too.
		want := []evaluator.DatasetID{0}
		if !idsEqual(res.IDs, want) {
			t.Errorf("mode %s: IDs = %v, want %v", mode, res.IDs, want)
		}
	}
}
