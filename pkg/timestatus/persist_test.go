package timestatus

import "testing"

// TestSaveRestoreRoundTrip proves spec §8 invariant 11 for TimeStatus:
// restore(save(S)) is observationally equal to S, mid-advance.
func TestSaveRestoreRoundTrip(t *testing.T) {
	s := New()
	s.SetRegulating(ModeOn)
	s.SetConstrained(ModeOn)
	s.SetLookahead(1.0)
	s.SetAsynchronous(true)
	if err := s.TimeAdvanceRequested(5.0, true); err != nil {
		t.Fatalf("TimeAdvanceRequested: %v", err)
	}
	s.AdvanceFederate(5.0)

	data := s.Save()

	restored := New()
	if err := restored.Restore(data); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	want := s.Snapshot()
	got := restored.Snapshot()
	if got != want {
		t.Fatalf("Snapshot after restore = %+v, want %+v", got, want)
	}
}

func TestRestoreRejectsCorruptStream(t *testing.T) {
	s := New()
	if err := s.Restore(nil); err == nil {
		t.Fatal("expected Restore to reject an empty/corrupt stream")
	}
}
