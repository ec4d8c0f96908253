package optimizer

import "github.com/dquery/dqengine/internal/ast"

// GroupInfo is the bookkeeping the read/write-group annotation pass
// produces alongside the annotated tree. Fanout records, for each
// write group id, how many leaves publish to it — every AND-descendant
// leaf that inherits the same write group without a connective in
// between allocating a fresh one counts as a contributor. The
// executor's frame uses Fanout to know how many partial results to
// merge before a write group counts as finalized.
type GroupInfo struct {
	NumGroups int
	Fanout    map[int]int
}

// AssignGroups annotates every leaf in n with a write group and a list
// of read groups, per spec.md §4.2(d), and returns the fanout table
// needed to finalize multi-producer write groups. n is mutated in
// place; leaves are pointer types so mutation is visible through every
// reference to the tree built during parsing.
func AssignGroups(n ast.Node) *GroupInfo {
	info := &GroupInfo{Fanout: make(map[int]int)}
	w0 := info.alloc()
	assign(n, w0, nil, info)
	return info
}

func (g *GroupInfo) alloc() int {
	id := g.NumGroups
	g.NumGroups++
	return id
}

func assign(n ast.Node, write int, read []int, info *GroupInfo) {
	switch v := n.(type) {
	case *ast.Keyword:
		v.WriteGroup = write
		v.ReadGroups = read
		info.Fanout[write]++

	case *ast.ColumnName:
		v.WriteGroup = write
		v.ReadGroups = read
		info.Fanout[write]++

	case *ast.Percentile:
		v.WriteGroup = write
		v.ReadGroups = read
		info.Fanout[write]++

	case *ast.Scope:
		assign(v.Child, write, read, info)

	case *ast.Connective:
		switch v.Kind() {
		case ast.And:
			for _, child := range v.Children {
				assign(child, write, read, info)
			}

		case ast.Or:
			for _, child := range v.Children {
				w := info.alloc()
				assign(child, w, appendGroup(read, w), info)
			}

		case ast.Xor:
			for _, child := range v.Children {
				w := info.alloc()
				assign(child, w, read, info)
			}

		case ast.Not:
			w := info.alloc()
			assign(v.Children[0], w, appendGroup(read, w), info)
		}
	}
}

// appendGroup returns read+[w] without aliasing the caller's backing
// array, since sibling branches under OR/NOT each extend the same
// parent read list independently.
func appendGroup(read []int, w int) []int {
	out := make([]int, len(read)+1)
	copy(out, read)
	out[len(read)] = w
	return out
}
