// Package syncpoint implements the per-federation synchronization
// point manager (spec.md §4.7, component C7): a labeled barrier state
// machine federates announce, achieve, and observe synchronizing on.
//
// Grounded on backkem-matter/pkg/securechannel/manager.go's shape: a
// named table (there, handshakes keyed by exchange ID; here, points
// keyed by label) guarded by one sync.RWMutex, each entry carrying its
// own status enum and advancing that status via a locked "recompute"
// step triggered by an incoming event. The handshake-lifecycle
// concerns (PASE/CASE, callbacks) don't transfer — this is a much
// simpler two-transition machine — but the table-plus-status-enum
// structure under a single manager lock is carried over directly.
package syncpoint

import (
	"sync"

	"github.com/gletthereblight/portico/pkg/handle"
)

// Status is a sync point's place in the ANNOUNCED → ACHIEVED →
// SYNCHRONIZED state machine (spec §4.7).
type Status int

const (
	Announced Status = iota
	Achieved
	Synchronized
)

func (s Status) String() string {
	switch s {
	case Achieved:
		return "ACHIEVED"
	case Synchronized:
		return "SYNCHRONIZED"
	default:
		return "ANNOUNCED"
	}
}

// Point is one registered synchronization barrier.
type Point struct {
	Label      string
	Tag        []byte
	Subset     []handle.Federate // empty/nil means federation-wide
	Registrant handle.Federate
	Achieved   map[handle.Federate]struct{}
	Status     Status
}

// restricted reports whether p is scoped to an explicit federate
// subset rather than the whole federation.
func (p *Point) restricted() bool { return len(p.Subset) > 0 }

// Manager owns the sync point table for a single federation.
// Mutating methods are safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	points map[string]*Point
}

// New constructs an empty sync point manager.
func New() *Manager {
	return &Manager{points: make(map[string]*Point)}
}

// Register announces a new point. It fails with ErrAlreadyExists if
// label is already registered.
func (m *Manager) Register(label string, tag []byte, subset []handle.Federate, registrant handle.Federate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.points[label]; exists {
		return ErrAlreadyExists
	}
	m.points[label] = &Point{
		Label:      label,
		Tag:        tag,
		Subset:     append([]handle.Federate(nil), subset...),
		Registrant: registrant,
		Achieved:   make(map[handle.Federate]struct{}),
		Status:     Announced,
	}
	return nil
}

// Achieve records f as having achieved label, then recomputes
// synchronization. currentFederates supplies the federation's live
// handle set, consulted only for federation-wide (unrestricted)
// points; restricted points check against their registered subset
// instead (Open Question (c): spec.md §4.7 and §9(c) both point at the
// subset being the intended behavior for restricted points).
//
// Achieving twice, or achieving after the point is already
// SYNCHRONIZED, is idempotent (spec §8 invariant 8: monotonicity).
func (m *Manager) Achieve(label string, f handle.Federate, currentFederates []handle.Federate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.points[label]
	if !ok {
		return ErrNotAnnounced
	}
	if p.Status == Synchronized {
		return nil
	}

	p.Achieved[f] = struct{}{}
	if p.Status == Announced {
		p.Status = Achieved
	}

	var required []handle.Federate
	if p.restricted() {
		required = p.Subset
	} else {
		required = currentFederates
	}

	for _, rf := range required {
		if _, ok := p.Achieved[rf]; !ok {
			return nil
		}
	}
	p.Status = Synchronized
	return nil
}

// Resign removes f from every point's achieved set and required
// subset, so a resigning federate no longer blocks synchronization of
// points it was part of (spec §4.7 "federate resignation").
func (m *Manager) Resign(f handle.Federate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.points {
		if p.Status == Synchronized {
			continue
		}
		delete(p.Achieved, f)
		if p.restricted() {
			p.Subset = removeFederate(p.Subset, f)
		}
		m.recompute(p)
	}
}

// recompute re-evaluates p's synchronization predicate in place.
// Caller must hold m.mu. currentFederates isn't available here since
// Resign only needs to re-check restricted points (the caller handles
// removing f from the live federate set itself); federation-wide
// points are re-evaluated lazily the next time Achieve observes them.
func (m *Manager) recompute(p *Point) {
	if !p.restricted() {
		return
	}
	if len(p.Subset) == 0 {
		p.Status = Synchronized
		return
	}
	for _, rf := range p.Subset {
		if _, ok := p.Achieved[rf]; !ok {
			return
		}
	}
	p.Status = Synchronized
}

func removeFederate(subset []handle.Federate, f handle.Federate) []handle.Federate {
	out := subset[:0]
	for _, h := range subset {
		if h != f {
			out = append(out, h)
		}
	}
	return out
}

// IsSynchronized reports whether label has reached SYNCHRONIZED.
// Returns false if label isn't known.
func (m *Manager) IsSynchronized(label string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.points[label]
	return ok && p.Status == Synchronized
}

// Remove deletes a point from the table regardless of its status.
func (m *Manager) Remove(label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.points[label]; !ok {
		return ErrNotAnnounced
	}
	delete(m.points, label)
	return nil
}

// GetAll returns a snapshot copy of every registered point.
func (m *Manager) GetAll() []Point {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Point, 0, len(m.points))
	for _, p := range m.points {
		out = append(out, clonePoint(p))
	}
	return out
}

// GetAllUnsynchronizedLabels returns the labels of every point that
// has not yet reached SYNCHRONIZED.
func (m *Manager) GetAllUnsynchronizedLabels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for label, p := range m.points {
		if p.Status != Synchronized {
			out = append(out, label)
		}
	}
	return out
}

func clonePoint(p *Point) Point {
	achieved := make(map[handle.Federate]struct{}, len(p.Achieved))
	for f := range p.Achieved {
		achieved[f] = struct{}{}
	}
	return Point{
		Label:      p.Label,
		Tag:        append([]byte(nil), p.Tag...),
		Subset:     append([]handle.Federate(nil), p.Subset...),
		Registrant: p.Registrant,
		Achieved:   achieved,
		Status:     p.Status,
	}
}
