package executor

import (
	"sort"

	"github.com/dquery/dqengine/internal/evaluator"
)

// orderResult sorts ids per spec.md §9: descending by keyword score with
// ties broken by ascending id when the query retained a keyword leaf,
// else ascending by id. ids arrives already ascending (candidateset.Set
// sorts its own ToSlice), so the no-scores path is a no-op.
func orderResult(ids []evaluator.DatasetID, scores map[evaluator.DatasetID]float64) []evaluator.DatasetID {
	if len(scores) == 0 {
		return ids
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		sa, sb := scores[a], scores[b]
		if sa != sb {
			return sa > sb
		}
		return a < b
	})
	return ids
}
