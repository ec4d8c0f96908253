package executor

import (
	"context"

	"github.com/dquery/dqengine/internal/candidateset"
	"github.com/dquery/dqengine/internal/evaluator"
)

// Fixture: 10 datasets, 6 columns, 6 histograms (one per column, all
// columns have a histogram). Columns 0,1 belong to dataset 0; the rest
// are spread across datasets 1, 2, 5, 7 so column-to-dataset lifting is
// exercised non-trivially.
var fixtureColumnDataset = map[evaluator.ColumnID]evaluator.DatasetID{
	0: 0,
	1: 0,
	2: 1,
	3: 2,
	4: 5,
	5: 7,
}

type stubKeyword struct {
	hits map[string][]evaluator.KeywordHit
}

func (s *stubKeyword) Search(ctx context.Context, query string, candidates *candidateset.Set, minScore float64, maxResults int) (evaluator.KeywordResult, error) {
	var out []evaluator.KeywordHit
	for _, h := range s.hits[query] {
		if candidates != nil && !candidates.Contains(uint32(h.Dataset)) {
			continue
		}
		out = append(out, h)
	}
	return evaluator.KeywordResult{Hits: out}, nil
}

type stubColumnName struct {
	cols map[string][]evaluator.ColumnID
}

func (s *stubColumnName) Search(ctx context.Context, name string, k int) ([]evaluator.ColumnID, error) {
	return s.cols[name], nil
}

type percentileKey struct {
	p   float64
	cmp evaluator.Comparator
	v   float64
}

type stubPercentile struct {
	hists map[percentileKey][]evaluator.HistogramID
}

func (s *stubPercentile) Search(ctx context.Context, p float64, cmp evaluator.Comparator, v float64, candidates *candidateset.Set, mode evaluator.FainderMode) (*candidateset.Set, error) {
	out := candidateset.NewEmpty(6)
	for _, h := range s.hists[percentileKey{p, cmp, v}] {
		if candidates != nil && !candidates.Contains(uint32(h)) {
			continue
		}
		out.Add(uint32(h))
	}
	return out, nil
}

type stubMeta struct{}

func (stubMeta) ColumnToDataset(col evaluator.ColumnID) (evaluator.DatasetID, bool) {
	ds, ok := fixtureColumnDataset[col]
	return ds, ok
}

func (stubMeta) ColumnsToDatasets(cols []evaluator.ColumnID) []evaluator.DatasetID {
	out := make([]evaluator.DatasetID, 0, len(cols))
	for _, c := range cols {
		if ds, ok := fixtureColumnDataset[c]; ok {
			out = append(out, ds)
		}
	}
	return out
}

func (stubMeta) HistogramToColumn(hist evaluator.HistogramID) (evaluator.ColumnID, bool) {
	if uint32(hist) >= 6 {
		return 0, false
	}
	return evaluator.ColumnID(hist), true
}

func (stubMeta) DatasetUniverse() *candidateset.Set { return candidateset.NewFull(10) }

func (stubMeta) HistogramColumnUniverse() *candidateset.Set { return candidateset.NewFull(6) }

func (stubMeta) ColumnUniverse() *candidateset.Set { return candidateset.NewFull(6) }

func (stubMeta) DatasetCount() uint32   { return 10 }
func (stubMeta) ColumnCount() uint32    { return 6 }
func (stubMeta) HistogramCount() uint32 { return 6 }

func fixtureEvaluators() Evaluators {
	return Evaluators{
		Keyword: &stubKeyword{hits: map[string][]evaluator.KeywordHit{
			"lung cancer": {{Dataset: 3, Score: 0.9}, {Dataset: 5, Score: 0.5}, {Dataset: 1, Score: 0.2}},
			"a":           {{Dataset: 0, Score: 1.0}, {Dataset: 2, Score: 0.8}, {Dataset: 4, Score: 0.6}, {Dataset: 5, Score: 0.55}, {Dataset: 6, Score: 0.4}, {Dataset: 8, Score: 0.2}},
			"weather":     {{Dataset: 2, Score: 0.9}, {Dataset: 4, Score: 0.7}},
			// "b" and "c" deliberately overlap "a" only partially, so the
			// merge-pass assumption has teeth: the three separate sequential
			// calls intersect down to {0, 4, 5}, and the single merged-
			// pattern lookup below is keyed on the exact "a AND b AND c"
			// string the merge pass must produce. A broken merge (wrong
			// joiner, wrong order, a dropped operand) looks up a key this
			// map doesn't have and comes back empty, diverging from the
			// Sequential reference result and failing the test.
			"b":             {{Dataset: 0, Score: 0.9}, {Dataset: 2, Score: 0.8}, {Dataset: 4, Score: 0.5}, {Dataset: 5, Score: 0.3}},
			"c":             {{Dataset: 0, Score: 0.7}, {Dataset: 4, Score: 0.4}, {Dataset: 5, Score: 0.2}, {Dataset: 6, Score: 0.1}},
			"a AND b AND c": {{Dataset: 0, Score: 1.0}, {Dataset: 4, Score: 0.6}, {Dataset: 5, Score: 0.55}},
		}},
		ColumnName: &stubColumnName{cols: map[string][]evaluator.ColumnID{
			"age": {4, 5},
		}},
		Percentile: &stubPercentile{hists: map[percentileKey][]evaluator.HistogramID{
			{0.7, evaluator.CompareLE, 50}:  {4},
			{0.9, evaluator.CompareGE, 100}: {0, 1},
			{0.1, evaluator.CompareLE, 0}:   {2, 3},
		}},
		Meta: stubMeta{},
	}
}
