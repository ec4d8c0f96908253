package ast

import "math"

// Stats supplies the global histogram statistics the cost estimator
// needs to guess a percentile leaf's selectivity, per spec.md §4.2c.
// The concrete implementation lives outside this module (it is backed
// by whatever index-build subsystem maintains global histogram
// summaries); tests use a stub.
type Stats interface {
	// PercentileCardinality estimates how many histogram ids would
	// satisfy p/cmp/v, given v's position against global histogram
	// statistics. ok is false when no estimate is available.
	PercentileCardinality(p float64, cmp Comparator, v float64) (estimate float64, ok bool)
}

// Cost is the (class, tiebreak) tuple used to sort associative-node
// children cheapest-first. Lower class sorts first; within a class,
// lower tiebreak sorts first.
type Cost struct {
	Class    int
	Tiebreak float64
}

func (c Cost) less(other Cost) bool {
	if c.Class != other.Class {
		return c.Class < other.Class
	}
	return c.Tiebreak < other.Tiebreak
}

// Less reports whether the node rooted at a should be evaluated before b.
func Less(a, b Cost) bool { return a.less(b) }

// EstimateCost computes the cost tuple for n, per spec.md §4.2c:
//
//	keyword leaf       -> class 0
//	column-name leaf   -> class 1, tiebreak = k
//	column-scope       -> class max(child classes), tiebreak propagated
//	percentile leaf    -> class 2, tiebreak = estimated cardinality (or +Inf)
//	not(x)             -> same class as x, tiebreak inverted toward the complement
func EstimateCost(n Node, stats Stats) Cost {
	switch v := n.(type) {
	case *Keyword:
		return Cost{Class: 0}

	case *ColumnName:
		return Cost{Class: 1, Tiebreak: float64(v.K)}

	case *Percentile:
		if stats != nil {
			if est, ok := stats.PercentileCardinality(v.P, v.Comparator, v.V); ok {
				return Cost{Class: 2, Tiebreak: est}
			}
		}
		return Cost{Class: 2, Tiebreak: math.Inf(1)}

	case *Scope:
		return EstimateCost(v.Child, stats)

	case *Connective:
		if v.kind == Not {
			inner := EstimateCost(v.Children[0], stats)
			return Cost{Class: inner.Class, Tiebreak: -inner.Tiebreak}
		}
		// And/Or/Xor have no cost of their own in spec.md §4.2c; when one
		// is itself a sibling under another associative node, it sorts by
		// its cheapest child (evaluating that child first is what a
		// reordering of its own children would already exploit).
		var best Cost
		for i, c := range v.Children {
			cc := EstimateCost(c, stats)
			if i == 0 || cc.less(best) {
				best = cc
			}
		}
		return best

	default:
		return Cost{Class: math.MaxInt32, Tiebreak: math.Inf(1)}
	}
}
