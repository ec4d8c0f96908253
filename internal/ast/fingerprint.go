package ast

import (
	"fmt"
	"hash/fnv"
	"sort"
)

// Fingerprint computes a canonical, sibling-order-insensitive hash of
// n for use as a cache key, per spec.md §4.6. It must be computed
// after optimization (so keyword-merging and normalization are
// already reflected) but before group annotation (group ids are
// per-query arena handles, not part of the query's identity).
//
// AND/OR children are hashed commutatively (their child hashes are
// sorted before being combined) so that sibling reordering — which
// the cost-based pass already performs deterministically, but which
// could in principle vary with updated statistics — never changes the
// fingerprint. XOR and NOT are positional: XOR has no algebraic
// identity under reordering in the target keyword language, and NOT
// is unary.
func Fingerprint(n Node) string {
	h := fnv.New64a()
	writeNode(h, n)
	return fmt.Sprintf("%016x", h.Sum64())
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

func writeNode(h hashWriter, n Node) {
	switch v := n.(type) {
	case *Keyword:
		fmt.Fprintf(h, "K(%s)", v.Pattern)
	case *ColumnName:
		fmt.Fprintf(h, "N(%s;%d)", v.Name, v.K)
	case *Percentile:
		fmt.Fprintf(h, "P(%g;%s;%g)", v.P, v.Comparator, v.V)
	case *Scope:
		fmt.Fprint(h, "S(")
		writeNode(h, v.Child)
		fmt.Fprint(h, ")")
	case *Connective:
		writeConnective(h, v)
	default:
		fmt.Fprint(h, "?")
	}
}

func writeConnective(h hashWriter, c *Connective) {
	switch c.kind {
	case And, Or:
		hashes := make([]string, len(c.Children))
		for i, child := range c.Children {
			hashes[i] = Fingerprint(child)
		}
		sort.Strings(hashes)
		fmt.Fprintf(h, "%s(", c.kind)
		for _, hh := range hashes {
			fmt.Fprint(h, hh)
		}
		fmt.Fprint(h, ")")
	default: // Xor, Not: positional
		fmt.Fprintf(h, "%s(", c.kind)
		for _, child := range c.Children {
			writeNode(h, child)
			fmt.Fprint(h, ",")
		}
		fmt.Fprint(h, ")")
	}
}
