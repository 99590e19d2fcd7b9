package region

import "testing"

// TestSaveRestoreRoundTrip proves spec §8 invariant 11 for the
// RegionStore: restore(save(S)) is observationally equal to S, and
// the handle counter resumes past the highest restored handle.
func TestSaveRestoreRoundTrip(t *testing.T) {
	s := NewStore()
	extent := Extent{Ranges: []Range{{Dimension: 1, Lower: 0, Upper: 10}}}
	h1 := s.Create(1, extent)
	h2 := s.Create(1, Extent{Ranges: []Range{{Dimension: 1, Lower: 20, Upper: 30}}})

	data := s.Save()

	restored := NewStore()
	if err := restored.Restore(data); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	r1, ok := restored.Get(h1)
	if !ok {
		t.Fatal("expected h1 to survive restore")
	}
	if !Overlap(r1.Extent, extent) {
		t.Fatal("restored extent for h1 should overlap its original extent")
	}
	if _, ok := restored.Get(h2); !ok {
		t.Fatal("expected h2 to survive restore")
	}

	// The handle counter must resume past the highest restored handle
	// so a newly created region never collides with one that was
	// persisted.
	h3 := restored.Create(1, extent)
	if h3 <= h2 {
		t.Fatalf("new handle %v should be greater than restored max handle %v", h3, h2)
	}
}

func TestRestoreRejectsCorruptStream(t *testing.T) {
	s := NewStore()
	if err := s.Restore([]byte{0x01, 0x02}); err == nil {
		t.Fatal("expected Restore to reject a corrupt stream")
	}
}
