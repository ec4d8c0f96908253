package executor

import (
	"context"
	"sync"

	"github.com/dquery/dqengine/internal/candidateset"
	"github.com/dquery/dqengine/internal/optimizer"
)

// space tags which id domain a write group's published value is
// expressed in. A group crosses domains when an AND connects a leaf
// outside a column scope to one inside it and both inherit the same
// write group (spec.md §8 seed scenario 3) — the group's domain is
// whichever contributor publishes first, and every later contributor
// or reader converts across the scope boundary via meta, trading exact
// precision for the soundness invariant's superset guarantee.
type space int

const (
	datasetSpace space = iota
	columnSpace
)

// frame is the per-query arena that tracks write-group publication, per
// spec.md §4.2(d)/§4.4/§4.5. It is never shared across queries. A
// write group may have more than one producer — every AND-sibling leaf
// that inherited the same write group contributes to it — so a group's
// published value is the running intersection of its contributions,
// and the group only finalizes once every contributor named in
// optimizer.GroupInfo.Fanout has reported.
type frame struct {
	mu        sync.Mutex
	value     map[int]*candidateset.Set
	space     map[int]space
	remaining map[int]int
	done      map[int]chan struct{}
	convert   func(s *candidateset.Set, from, to space) *candidateset.Set
}

func newFrame(info *optimizer.GroupInfo, convert func(s *candidateset.Set, from, to space) *candidateset.Set) *frame {
	f := &frame{
		value:     make(map[int]*candidateset.Set),
		space:     make(map[int]space),
		remaining: make(map[int]int, len(info.Fanout)),
		done:      make(map[int]chan struct{}, len(info.Fanout)),
		convert:   convert,
	}
	for group, n := range info.Fanout {
		f.remaining[group] = n
		f.done[group] = make(chan struct{})
	}
	return f
}

// peekOwn returns a write group's current partial value, converted
// into wantSpace, without blocking: a leaf about to contribute to its
// own write group cannot wait on that group's finalization, but
// earlier AND-siblings' partial results still narrow its candidate
// set. Returns nil if nothing has published to the group yet.
func (f *frame) peekOwn(group int, wantSpace space) *candidateset.Set {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.value[group]
	if !ok {
		return nil
	}
	if f.space[group] != wantSpace {
		return f.convert(v, f.space[group], wantSpace)
	}
	return v
}

// publish merges result (expressed in fromSpace) into group's running
// value and decrements its contributor count, closing the group's done
// channel once every expected contributor has reported. The first
// publish to a group fixes that group's canonical space.
func (f *frame) publish(group int, fromSpace space, result *candidateset.Set) {
	f.mu.Lock()
	defer f.mu.Unlock()

	established, ok := f.space[group]
	if !ok {
		f.space[group] = fromSpace
		established = fromSpace
	}
	converted := result
	if established != fromSpace {
		converted = f.convert(result, fromSpace, established)
	}

	if existing, ok := f.value[group]; ok {
		f.value[group] = candidateset.Intersect(existing, converted)
	} else {
		f.value[group] = converted
	}

	f.remaining[group]--
	if f.remaining[group] <= 0 {
		if ch, ok := f.done[group]; ok {
			close(ch)
		}
	}
}

// await blocks until every group in groups has been finalized, then
// returns the intersection of their published values converted into
// wantSpace — the candidate set a leaf with this read list must pass
// to its evaluator. An empty groups list means "unrestricted": the
// leaf runs with no candidate set at all.
func (f *frame) await(ctx context.Context, groups []int, wantSpace space) (*candidateset.Set, error) {
	for _, g := range groups {
		f.mu.Lock()
		ch := f.done[g]
		f.mu.Unlock()
		if ch == nil {
			continue
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var out *candidateset.Set
	first := true
	for _, g := range groups {
		f.mu.Lock()
		v, sp := f.value[g], f.space[g]
		f.mu.Unlock()
		if sp != wantSpace {
			v = f.convert(v, sp, wantSpace)
		}
		if first {
			out = v
			first = false
			continue
		}
		out = candidateset.Intersect(out, v)
	}
	return out, nil
}
