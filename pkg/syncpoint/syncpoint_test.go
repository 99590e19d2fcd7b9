package syncpoint

import (
	"testing"

	"github.com/gletthereblight/portico/pkg/handle"
)

const (
	f1 handle.Federate = 1
	f2 handle.Federate = 2
	f3 handle.Federate = 3
)

// TestScenarioS3RestrictedSyncPoint mirrors spec.md §8 scenario S3:
// federation {f1,f2,f3}, restricted point over {f1,f2}.
func TestScenarioS3RestrictedSyncPoint(t *testing.T) {
	m := New()
	all := []handle.Federate{f1, f2, f3}

	if err := m.Register("mid", []byte("tag"), []handle.Federate{f1, f2}, f1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if m.IsSynchronized("mid") {
		t.Fatal("should not be synchronized immediately after register")
	}

	if err := m.Achieve("mid", f1, all); err != nil {
		t.Fatalf("Achieve f1: %v", err)
	}
	if m.IsSynchronized("mid") {
		t.Fatal("should still be ANNOUNCED/ACHIEVED after only f1 achieves")
	}

	if err := m.Achieve("mid", f2, all); err != nil {
		t.Fatalf("Achieve f2: %v", err)
	}
	if !m.IsSynchronized("mid") {
		t.Fatal("expected SYNCHRONIZED once both subset members achieve")
	}

	// f3 is outside the subset; achieving is accepted but a no-op on status.
	if err := m.Achieve("mid", f3, all); err != nil {
		t.Fatalf("Achieve f3: %v", err)
	}
	if !m.IsSynchronized("mid") {
		t.Fatal("status must remain SYNCHRONIZED")
	}
}

func TestFederationWideRequiresEveryCurrentFederate(t *testing.T) {
	m := New()
	all := []handle.Federate{f1, f2, f3}

	if err := m.Register("wide", nil, nil, f1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Achieve("wide", f1, all); err != nil {
		t.Fatalf("Achieve f1: %v", err)
	}
	if err := m.Achieve("wide", f2, all); err != nil {
		t.Fatalf("Achieve f2: %v", err)
	}
	if m.IsSynchronized("wide") {
		t.Fatal("should not synchronize until f3 also achieves")
	}
	if err := m.Achieve("wide", f3, all); err != nil {
		t.Fatalf("Achieve f3: %v", err)
	}
	if !m.IsSynchronized("wide") {
		t.Fatal("expected SYNCHRONIZED once every current federate achieves")
	}
}

func TestAchieveTwiceIsIdempotent(t *testing.T) {
	m := New()
	all := []handle.Federate{f1}
	if err := m.Register("solo", nil, nil, f1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Achieve("solo", f1, all); err != nil {
		t.Fatalf("first achieve: %v", err)
	}
	if !m.IsSynchronized("solo") {
		t.Fatal("expected SYNCHRONIZED")
	}
	if err := m.Achieve("solo", f1, all); err != nil {
		t.Fatalf("second achieve: %v", err)
	}
	if !m.IsSynchronized("solo") {
		t.Fatal("once SYNCHRONIZED, status must never leave it")
	}
}

func TestRegisterDuplicateLabelRejected(t *testing.T) {
	m := New()
	if err := m.Register("dup", nil, nil, f1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Register("dup", nil, nil, f2); err != ErrAlreadyExists {
		t.Fatalf("got %v, want ErrAlreadyExists", err)
	}
}

func TestAchieveUnknownLabelErrors(t *testing.T) {
	m := New()
	if err := m.Achieve("ghost", f1, nil); err != ErrNotAnnounced {
		t.Fatalf("got %v, want ErrNotAnnounced", err)
	}
}

func TestResignRemovesFederateFromRestrictedSubset(t *testing.T) {
	m := New()
	if err := m.Register("mid", nil, []handle.Federate{f1, f2}, f1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Achieve("mid", f1, nil); err != nil {
		t.Fatalf("Achieve f1: %v", err)
	}

	m.Resign(f2)

	if !m.IsSynchronized("mid") {
		t.Fatal("expected point to synchronize once the unachieved subset member resigns")
	}
}

func TestGetAllUnsynchronizedLabels(t *testing.T) {
	m := New()
	if err := m.Register("a", nil, []handle.Federate{f1}, f1); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	if err := m.Register("b", nil, []handle.Federate{f1}, f1); err != nil {
		t.Fatalf("Register b: %v", err)
	}
	if err := m.Achieve("a", f1, nil); err != nil {
		t.Fatalf("Achieve: %v", err)
	}

	labels := m.GetAllUnsynchronizedLabels()
	if len(labels) != 1 || labels[0] != "b" {
		t.Fatalf("unsynchronized labels = %v, want [b]", labels)
	}
}

func TestRemoveUnknownLabelErrors(t *testing.T) {
	m := New()
	if err := m.Remove("ghost"); err != ErrNotAnnounced {
		t.Fatalf("got %v, want ErrNotAnnounced", err)
	}
}
