package optimizer

import "github.com/dquery/dqengine/internal/ast"

// Plan is an optimized query ready for execution: the rewritten tree
// plus, when group annotation was requested, the fanout table the
// threaded and prefilter executors need to finalize multi-producer
// write groups.
type Plan struct {
	Tree  ast.Node
	Group *GroupInfo
}

// Optimize runs normalization, keyword merging, and cost-based
// reordering, per spec.md §4.2(a-c). stats may be nil, in which case
// percentile leaves fall back to the +Inf tiebreak.
//
// Group annotation, §4.2(d), is deliberately not part of this pass:
// it is only required by the prefilter and threaded executors and
// mutates the tree's leaves directly, so callers run AssignGroups
// themselves once they have decided which executor mode to use.
func Optimize(n ast.Node, stats ast.Stats) ast.Node {
	n = normalize(n)
	n = mergeKeywords(n)
	n = reorder(n, stats)
	return n
}

// MakePlan optimizes n and, for modes that require it, annotates the
// result with read/write groups in a single call.
func MakePlan(n ast.Node, stats ast.Stats, withGroups bool) Plan {
	tree := Optimize(n, stats)
	var group *GroupInfo
	if withGroups {
		group = AssignGroups(tree)
	}
	return Plan{Tree: tree, Group: group}
}
