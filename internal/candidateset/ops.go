package candidateset

// Union, Intersect, Difference, and Complement treat a nil *Set as
// "unrestricted" per the package doc, with one exception: a nil
// subtrahend in Difference removes nothing. They never mutate their
// arguments, returning a freshly built Set instead, and they are
// representation-agnostic: a sparse set and a dense set over the same
// universe combine freely and the result chooses its own
// representation via Add's promotion rule.

// Union returns the members of a or b. A nil argument makes the whole
// expression unrestricted, since "everything" unioned with anything is
// still everything.
func Union(a, b *Set) *Set {
	if a == nil || b == nil {
		return nil
	}
	out := NewEmpty(a.universe)
	for _, id := range a.ToSlice() {
		out.Add(id)
	}
	for _, id := range b.ToSlice() {
		out.Add(id)
	}
	return out
}

// Intersect returns the members present in both a and b. A nil
// argument is the identity: intersecting with "everything" leaves the
// other operand unchanged.
func Intersect(a, b *Set) *Set {
	if a == nil {
		return b.Clone()
	}
	if b == nil {
		return a.Clone()
	}
	small, large := a, b
	if small.Len() > large.Len() {
		small, large = large, small
	}
	out := NewEmpty(a.universe)
	for _, id := range small.ToSlice() {
		if large.Contains(id) {
			out.Add(id)
		}
	}
	return out
}

// Difference returns the members of a that are not in b. A nil b
// removes nothing: Difference(a, nil) is a copy of a.
func Difference(a, b *Set) *Set {
	if a == nil {
		return nil // unrestricted minus anything is still unbounded
	}
	out := NewEmpty(a.universe)
	for _, id := range a.ToSlice() {
		if b != nil && b.Contains(id) {
			continue
		}
		out.Add(id)
	}
	return out
}

// SymmetricDifference returns the members in exactly one of a or b.
// Executors never call this with both operands nil, since XOR always
// combines two already-evaluated children.
func SymmetricDifference(a, b *Set) *Set {
	if a == nil {
		return b.Clone()
	}
	if b == nil {
		return a.Clone()
	}
	return Union(Difference(a, b), Difference(b, a))
}

// Complement returns the members of [0, universe) not in s. A nil s
// (unrestricted) complements to the empty set.
func Complement(universe uint32, s *Set) *Set {
	if s == nil {
		return NewEmpty(universe)
	}
	out := NewEmpty(universe)
	for id := uint32(0); id < universe; id++ {
		if !s.Contains(id) {
			out.Add(id)
		}
	}
	return out
}
