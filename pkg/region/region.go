// Package region implements the DDM geometric primitives of spec.md
// §3: ranges, extents, and the overlap predicate used by the interest
// manager's region-filtered matching (§4.6). No teacher precedent;
// geometry beyond range overlap is an explicit Non-goal, so these are
// minimal value types plus the one predicate the spec requires.
package region

import "github.com/gletthereblight/portico/pkg/handle"

// Range is one dimension's half-open interval [Lower, Upper).
type Range struct {
	Dimension handle.Dimension
	Lower     int64
	Upper     int64
}

// overlaps reports whether a and b overlap on the same dimension, per
// spec §3: "¬(a.lower >= b.upper || a.upper <= b.lower); equal lower
// bounds count as overlap."
func (a Range) overlaps(b Range) bool {
	return !(a.Lower >= b.Upper || a.Upper <= b.Lower)
}

// Extent owns one Range per dimension it spans.
type Extent struct {
	Ranges []Range
}

// Overlap reports whether a and b overlap: for every dimension shared
// between the two extents, their ranges must overlap (spec §3 and §8
// invariant 9: symmetric, and an extent overlaps itself when it has
// at least one range). Extents that share no dimension, or where
// either has no ranges, do not overlap.
func Overlap(a, b Extent) bool {
	if len(a.Ranges) == 0 || len(b.Ranges) == 0 {
		return false
	}
	byDim := make(map[handle.Dimension]Range, len(b.Ranges))
	for _, r := range b.Ranges {
		byDim[r.Dimension] = r
	}

	shared := false
	for _, ar := range a.Ranges {
		br, ok := byDim[ar.Dimension]
		if !ok {
			continue
		}
		shared = true
		if !ar.overlaps(br) {
			return false
		}
	}
	return shared
}

// Region is a named, handle-addressable Extent registered in a
// RegionStore, scoped to a routing space (spec §3 "Region/Extent").
type Region struct {
	Handle handle.Region
	Space  handle.Dimension // the routing space this region was created against
	Extent Extent
}

// Store is the per-federation region table (spec §4.6 "RegionStore").
// Mutating methods are not internally synchronized: per spec §4.9
// "Shared-resource policy", callers serialize access under the owning
// Federation's single write-lock.
type Store struct {
	regions map[handle.Region]*Region
	counter *handle.Counter
}

// NewStore constructs an empty region store.
func NewStore() *Store {
	return &Store{
		regions: make(map[handle.Region]*Region),
		counter: handle.NewCounter(),
	}
}

// Create registers a new region with the given routing space and
// extent, returning its handle.
func (s *Store) Create(space handle.Dimension, extent Extent) handle.Region {
	h := handle.Region(s.counter.Next())
	s.regions[h] = &Region{Handle: h, Space: space, Extent: extent}
	return h
}

// Modify replaces an existing region's extent in place.
func (s *Store) Modify(h handle.Region, extent Extent) error {
	r, ok := s.regions[h]
	if !ok {
		return ErrRegionNotKnown
	}
	r.Extent = extent
	return nil
}

// Delete removes a region from the store.
func (s *Store) Delete(h handle.Region) error {
	if _, ok := s.regions[h]; !ok {
		return ErrRegionNotKnown
	}
	delete(s.regions, h)
	return nil
}

// Get looks up a region by handle.
func (s *Store) Get(h handle.Region) (*Region, bool) {
	r, ok := s.regions[h]
	return r, ok
}

// Matches reports whether an update carrying updateRegion (possibly
// nil, meaning "no region") should be delivered to a
// subscription region (possibly absent). An absent region on either
// side means "match unconditionally" (spec §4.6 "Region filtering").
func Matches(subscriptionRegion *Region, updateRegion *Region) bool {
	if subscriptionRegion == nil || updateRegion == nil {
		return true
	}
	return Overlap(subscriptionRegion.Extent, updateRegion.Extent)
}
