package executor

import (
	"github.com/dquery/dqengine/internal/candidateset"
	"github.com/dquery/dqengine/internal/evaluator"
)

func datasetSetFromHits(meta evaluator.MetaIndex, hits []evaluator.KeywordHit) *candidateset.Set {
	s := candidateset.NewEmpty(meta.DatasetCount())
	for _, h := range hits {
		s.Add(uint32(h.Dataset))
	}
	return s
}

func columnSetFromIDs(meta evaluator.MetaIndex, ids []evaluator.ColumnID) *candidateset.Set {
	s := candidateset.NewEmpty(meta.ColumnCount())
	for _, id := range ids {
		s.Add(uint32(id))
	}
	return s
}

// columnSetFromHistograms maps a percentile evaluator's histogram-id
// result set into column-id space, per meta.HistogramToColumn.
func columnSetFromHistograms(meta evaluator.MetaIndex, hists *candidateset.Set) *candidateset.Set {
	s := candidateset.NewEmpty(meta.ColumnCount())
	if hists == nil {
		return s
	}
	for _, id := range hists.ToSlice() {
		if col, ok := meta.HistogramToColumn(evaluator.HistogramID(id)); ok {
			s.Add(uint32(col))
		}
	}
	return s
}

// datasetSetFromColumns collapses a column-id result set to the
// dataset ids those columns belong to, per spec.md §4.3's "Column-scope
// returns {dataset(c) | c ∈ inner_result}".
func datasetSetFromColumns(meta evaluator.MetaIndex, cols *candidateset.Set) *candidateset.Set {
	s := candidateset.NewEmpty(meta.DatasetCount())
	if cols == nil {
		return s
	}
	for _, id := range cols.ToSlice() {
		if ds, ok := meta.ColumnToDataset(evaluator.ColumnID(id)); ok {
			s.Add(uint32(ds))
		}
	}
	return s
}

// columnsOfDatasets expands a dataset-id candidate set to the column
// ids belonging to those datasets — the "lift to column ids" step
// spec.md §4.4 describes for the prefilter executor's column-scope
// boundary. meta has no reverse dataset→columns batch lookup in the
// external interface table, so this walks the full column universe and
// keeps those whose owning dataset is a member; evaluators expose
// ColumnCount as a dense, small domain so this stays linear, not
// quadratic in dataset count.
func columnsOfDatasets(meta evaluator.MetaIndex, datasets *candidateset.Set) *candidateset.Set {
	s := candidateset.NewEmpty(meta.ColumnCount())
	if datasets == nil {
		return nil // unrestricted propagates as unrestricted
	}
	for col := uint32(0); col < meta.ColumnCount(); col++ {
		ds, ok := meta.ColumnToDataset(evaluator.ColumnID(col))
		if ok && datasets.Contains(uint32(ds)) {
			s.Add(col)
		}
	}
	return s
}
