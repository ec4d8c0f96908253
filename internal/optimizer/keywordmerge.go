package optimizer

import "github.com/dquery/dqengine/internal/ast"

// mergeKeywords partitions each AND/OR node's keyword-leaf children out
// and replaces them with a single keyword leaf whose pattern is the
// originals joined by the external keyword engine's own Boolean
// syntax, per spec.md §4.2(b). XOR children are left untouched: the
// keyword query language has no symmetric-difference operator to fold
// into.
func mergeKeywords(n ast.Node) ast.Node {
	switch v := n.(type) {
	case *ast.Scope:
		return &ast.Scope{Child: mergeKeywords(v.Child)}

	case *ast.Connective:
		children := make([]ast.Node, len(v.Children))
		for i, child := range v.Children {
			children[i] = mergeKeywords(child)
		}
		if v.Kind() != ast.And && v.Kind() != ast.Or {
			return rebuild(v.Kind(), children)
		}
		return mergeSiblingKeywords(v.Kind(), children)

	default:
		return n
	}
}

func mergeSiblingKeywords(kind ast.Kind, children []ast.Node) ast.Node {
	var kws []*ast.Keyword
	var rest []ast.Node
	for _, child := range children {
		if kw, ok := child.(*ast.Keyword); ok {
			kws = append(kws, kw)
			continue
		}
		rest = append(rest, child)
	}
	if len(kws) <= 1 {
		return rebuild(kind, children)
	}

	joiner := " AND "
	if kind == ast.Or {
		joiner = " OR "
	}
	pattern := kws[0].Pattern
	for _, kw := range kws[1:] {
		pattern += joiner + kw.Pattern
	}
	merged := &ast.Keyword{Pattern: pattern}

	combined := append([]ast.Node{merged}, rest...)
	if len(combined) == 1 {
		return combined[0]
	}
	return rebuild(kind, combined)
}

func rebuild(kind ast.Kind, children []ast.Node) ast.Node {
	if len(children) == 1 && kind != ast.Not {
		return children[0]
	}
	switch kind {
	case ast.And:
		return ast.NewAnd(children...)
	case ast.Or:
		return ast.NewOr(children...)
	case ast.Xor:
		return ast.NewXor(children...)
	default: // Not
		return ast.NewNot(children[0])
	}
}
