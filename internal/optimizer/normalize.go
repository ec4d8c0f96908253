// Package optimizer implements the four-pass AST rewrite pipeline
// between parsing and execution: normalization, keyword merging,
// cost-based sibling reordering, and read/write-group annotation.
package optimizer

import "github.com/dquery/dqengine/internal/ast"

// normalize flattens nested associative connectives of the same kind
// into one n-ary node and collapses double negation, per spec.md
// §4.2(a). It is idempotent: normalize(normalize(n)) == normalize(n).
func normalize(n ast.Node) ast.Node {
	switch v := n.(type) {
	case *ast.Scope:
		return &ast.Scope{Child: normalize(v.Child)}

	case *ast.Connective:
		if v.Kind() == ast.Not {
			child := normalize(v.Children[0])
			if inner, ok := child.(*ast.Connective); ok && inner.Kind() == ast.Not {
				return inner.Children[0]
			}
			return ast.NewNot(child)
		}
		return normalizeAssociative(v)

	default:
		return n
	}
}

func normalizeAssociative(c *ast.Connective) ast.Node {
	kind := c.Kind()
	flattened := make([]ast.Node, 0, len(c.Children))
	for _, child := range c.Children {
		normChild := normalize(child)
		if inner, ok := normChild.(*ast.Connective); ok && inner.Kind() == kind {
			flattened = append(flattened, inner.Children...)
			continue
		}
		flattened = append(flattened, normChild)
	}
	switch kind {
	case ast.And:
		return ast.NewAnd(flattened...)
	case ast.Or:
		return ast.NewOr(flattened...)
	default: // Xor
		return ast.NewXor(flattened...)
	}
}
