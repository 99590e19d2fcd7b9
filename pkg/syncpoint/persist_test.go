package syncpoint

import (
	"testing"

	"github.com/gletthereblight/portico/pkg/handle"
)

// TestSaveRestoreRoundTrip proves spec §8 invariant 11 for the
// SyncPointManager: restore(save(S)) is observationally equal to S,
// covering a restricted point mid-achievement and an already
// SYNCHRONIZED federation-wide point.
func TestSaveRestoreRoundTrip(t *testing.T) {
	m := New()
	all := []handle.Federate{f1, f2, f3}

	if err := m.Register("mid", []byte("tag"), []handle.Federate{f1, f2}, f1); err != nil {
		t.Fatalf("Register mid: %v", err)
	}
	if err := m.Achieve("mid", f1, all); err != nil {
		t.Fatalf("Achieve mid/f1: %v", err)
	}

	if err := m.Register("wide", nil, nil, f2); err != nil {
		t.Fatalf("Register wide: %v", err)
	}
	if err := m.Achieve("wide", f1, all); err != nil {
		t.Fatalf("Achieve wide/f1: %v", err)
	}
	if err := m.Achieve("wide", f2, all); err != nil {
		t.Fatalf("Achieve wide/f2: %v", err)
	}
	if err := m.Achieve("wide", f3, all); err != nil {
		t.Fatalf("Achieve wide/f3: %v", err)
	}
	if !m.IsSynchronized("wide") {
		t.Fatal("expected wide synchronized before save")
	}

	data := m.Save()

	restored := New()
	if err := restored.Restore(data); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restored.IsSynchronized("mid") {
		t.Fatal("mid should still be un-synchronized after restore")
	}
	if !restored.IsSynchronized("wide") {
		t.Fatal("wide should still be synchronized after restore")
	}

	if err := restored.Achieve("mid", f2, all); err != nil {
		t.Fatalf("Achieve mid/f2 after restore: %v", err)
	}
	if !restored.IsSynchronized("mid") {
		t.Fatal("expected mid to reach SYNCHRONIZED after the second subset member achieves post-restore")
	}

	unsynced := restored.GetAllUnsynchronizedLabels()
	if len(unsynced) != 0 {
		t.Fatalf("expected no unsynchronized labels left, got %v", unsynced)
	}
}

func TestRestoreRejectsCorruptStream(t *testing.T) {
	m := New()
	if err := m.Restore([]byte{0xFF}); err == nil {
		t.Fatal("expected Restore to reject a corrupt stream")
	}
}
