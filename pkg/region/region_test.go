package region

import (
	"testing"

	"github.com/gletthereblight/portico/pkg/handle"
)

func TestOverlapBasic(t *testing.T) {
	a := Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 10}}}
	b := Extent{Ranges: []Range{{Dimension: 1, Lower: 5, Upper: 15}}}
	if !Overlap(a, b) {
		t.Fatal("expected overlap")
	}
}

func TestOverlapDisjoint(t *testing.T) {
	a := Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 10}}}
	b := Extent{Ranges: []Range{{Dimension: 1, Lower: 10, Upper: 20}}}
	if Overlap(a, b) {
		t.Fatal("half-open ranges touching at the boundary should not overlap")
	}
}

func TestOverlapEqualLowerBoundsCounts(t *testing.T) {
	a := Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 10}}}
	b := Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 5}}}
	if !Overlap(a, b) {
		t.Fatal("equal lower bounds should count as overlap")
	}
}

func TestOverlapSymmetric(t *testing.T) {
	a := Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 10}, {Dimension: 2, Lower: 3, Upper: 8}}}
	b := Extent{Ranges: []Range{{Dimension: 1, Lower: 5, Upper: 15}, {Dimension: 2, Lower: 0, Upper: 4}}}
	if Overlap(a, b) != Overlap(b, a) {
		t.Fatal("overlap must be symmetric")
	}
}

func TestOverlapSelfWithAtLeastOneRange(t *testing.T) {
	a := Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 10}}}
	if !Overlap(a, a) {
		t.Fatal("an extent with >=1 range must overlap itself")
	}
}

func TestOverlapEmptyExtentNeverOverlaps(t *testing.T) {
	a := Extent{}
	b := Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 10}}}
	if Overlap(a, b) {
		t.Fatal("empty extent should never overlap")
	}
}

func TestOverlapRequiresSharedDimension(t *testing.T) {
	a := Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 10}}}
	b := Extent{Ranges: []Range{{Dimension: 2, Lower: 0, Upper: 10}}}
	if Overlap(a, b) {
		t.Fatal("extents with no shared dimension should not overlap")
	}
}

func TestStoreCreateModifyDelete(t *testing.T) {
	s := NewStore()
	h := s.Create(1, Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 10}}})
	if h == handle.NullHandle {
		t.Fatal("Create returned null handle")
	}
	if err := s.Modify(h, Extent{Ranges: []Range{{Dimension: 1, Lower: 5, Upper: 20}}}); err != nil {
		t.Fatalf("Modify: %v", err)
	}
	r, ok := s.Get(h)
	if !ok || r.Extent.Ranges[0].Lower != 5 {
		t.Fatalf("Modify did not take effect: %+v", r)
	}
	if err := s.Delete(h); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Get(h); ok {
		t.Fatal("region still present after Delete")
	}
}

func TestStoreModifyUnknownHandle(t *testing.T) {
	s := NewStore()
	if err := s.Modify(handle.Region(999), Extent{}); err != ErrRegionNotKnown {
		t.Fatalf("got %v, want ErrRegionNotKnown", err)
	}
}

func TestMatchesAbsentRegionIsUnconditional(t *testing.T) {
	if !Matches(nil, nil) {
		t.Fatal("nil/nil should match")
	}
	r := &Region{Extent: Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 1}}}}
	if !Matches(nil, r) || !Matches(r, nil) {
		t.Fatal("an absent region on either side should match unconditionally")
	}
}
