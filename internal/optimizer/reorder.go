package optimizer

import (
	"sort"

	"github.com/dquery/dqengine/internal/ast"
)

// reorder sorts each associative node's children ascending by
// estimated cost, per spec.md §4.2(c). XOR and NOT are included for
// recursion but XOR's children are not reordered: under symmetric
// difference there is no "cheaper first" prefiltering benefit, since
// every sibling must be fully evaluated regardless of the others'
// results.
func reorder(n ast.Node, stats ast.Stats) ast.Node {
	switch v := n.(type) {
	case *ast.Scope:
		return &ast.Scope{Child: reorder(v.Child, stats)}

	case *ast.Connective:
		children := make([]ast.Node, len(v.Children))
		for i, child := range v.Children {
			children[i] = reorder(child, stats)
		}
		if v.Kind() == ast.And || v.Kind() == ast.Or {
			sort.SliceStable(children, func(i, j int) bool {
				return ast.Less(ast.EstimateCost(children[i], stats), ast.EstimateCost(children[j], stats))
			})
		}
		return rebuild(v.Kind(), children)

	default:
		return n
	}
}
