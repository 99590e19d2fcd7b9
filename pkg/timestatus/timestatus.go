// Package timestatus implements the per-federate time-management state
// machine (spec.md §4.8, component C8): constrained/regulating mode
// flags, the advancing state machine, and the LBTS (lower bound on
// timestamp) bookkeeping that flows from it.
//
// Grounded on backkem-matter/pkg/session/table.go's shape: a table
// keyed by a small integer ID, guarded by one sync.RWMutex, whose
// entries carry derived fields that must be recomputed whenever a
// mutator runs (there, next-ID bookkeeping; here, lbts). The
// federation-wide LBTS aggregate mirrors that same
// recompute-on-mutation idiom, lifted one level up: it is computed by
// FederationLBTS by scanning every regulating federate's own lbts
// rather than cached, because the authoritative trigger ("recomputed
// whenever any regulating federate changes lookahead or
// requestedTime", spec §4.8) is naturally satisfied by reading fresh
// state on every call instead of trying to push invalidation through a
// cache.
package timestatus

import (
	"math"
	"sync"
)

// Constrained/regulating tri-state, per spec §3 "TimeStatus".
type Mode int

const (
	ModeOff Mode = iota
	ModePending
	ModeOn
)

// Advancing is the time-advance request state machine.
type Advancing int

const (
	AdvancingNone Advancing = iota
	AdvancingRequested
	AdvancingAvailable
	AdvancingProvisional
)

// Status holds one federate's time-management state (spec §3
// "TimeStatus"). Zero value is the documented initial state:
// constrained=OFF, regulating=OFF, advancing=NONE, everything else 0.
type Status struct {
	mu sync.RWMutex

	constrained   Mode
	regulating    Mode
	advancing     Advancing
	currentTime   float64
	requestedTime float64
	lookahead     float64
	lbts          float64
	asynchronous  bool
}

// New constructs a Status in its initial state.
func New() *Status {
	return &Status{}
}

func (s *Status) recomputeLBTS() {
	s.lbts = s.requestedTime + s.lookahead
}

// SetConstrained sets the constrained mode.
func (s *Status) SetConstrained(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constrained = m
}

// SetRegulating sets the regulating mode.
func (s *Status) SetRegulating(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regulating = m
}

// SetLookahead updates lookahead, recomputing lbts (spec §3 invariant:
// "whenever lookahead or requestedTime changes, lbts is recomputed").
func (s *Status) SetLookahead(lookahead float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookahead = lookahead
	s.recomputeLBTS()
}

// SetAsynchronous sets the asynchronous delivery flag.
func (s *Status) SetAsynchronous(async bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asynchronous = async
}

// TimeAdvanceRequested implements the TAR/TARA transition: requires
// advancing=NONE, sets requestedTime=t and advancing=REQUESTED (or
// AVAILABLE when tara is true, for the TARA variant), recomputing lbts.
func (s *Status) TimeAdvanceRequested(t float64, tara bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.advancing != AdvancingNone {
		return ErrAdvanceInProgress
	}
	s.requestedTime = t
	if tara {
		s.advancing = AdvancingAvailable
	} else {
		s.advancing = AdvancingRequested
	}
	s.recomputeLBTS()
	return nil
}

// CanAdvance reports whether this federate may advance given the
// federation-wide LBTS: advancing must be REQUESTED or AVAILABLE, and
// if constrained, requestedTime must be strictly less than
// federationLBTS for REQUESTED or less-than-or-equal for AVAILABLE
// (spec §4.8).
func (s *Status) CanAdvance(federationLBTS float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.advancing {
	case AdvancingRequested:
		if s.constrained == ModeOn {
			return s.requestedTime < federationLBTS
		}
		return true
	case AdvancingAvailable:
		if s.constrained == ModeOn {
			return s.requestedTime <= federationLBTS
		}
		return true
	default:
		return false
	}
}

// AdvanceFederate moves advancing to PROVISIONAL and sets
// currentTime/lbts to newTime(+lookahead). Callers must only invoke
// this once CanAdvance holds.
func (s *Status) AdvanceFederate(newTime float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentTime = newTime
	s.requestedTime = newTime
	s.recomputeLBTS()
	s.advancing = AdvancingProvisional
}

// AdvanceGrantCallbackProcessed completes the advance: advancing=NONE,
// currentTime=requestedTime=newTime.
func (s *Status) AdvanceGrantCallbackProcessed(newTime float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.advancing = AdvancingNone
	s.currentTime = newTime
	s.requestedTime = newTime
	s.recomputeLBTS()
}

// Snapshot is a consistent, read-only copy of a Status for callers
// that need to inspect several fields atomically (e.g. the
// federation-wide LBTS aggregate).
type Snapshot struct {
	Constrained   Mode
	Regulating    Mode
	Advancing     Advancing
	CurrentTime   float64
	RequestedTime float64
	Lookahead     float64
	LBTS          float64
	Asynchronous  bool
}

// Snapshot returns a consistent read of every field.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Constrained:   s.constrained,
		Regulating:    s.regulating,
		Advancing:     s.advancing,
		CurrentTime:   s.currentTime,
		RequestedTime: s.requestedTime,
		Lookahead:     s.lookahead,
		LBTS:          s.lbts,
		Asynchronous:  s.asynchronous,
	}
}

// FederationLBTS computes the minimum lbts over every regulating
// federate's status, or +Inf if none are regulating (spec §4.8:
// "computed externally as the minimum over all regulating federates
// of their lbts").
func FederationLBTS(statuses []*Status) float64 {
	min := math.Inf(1)
	for _, s := range statuses {
		snap := s.Snapshot()
		if snap.Regulating != ModeOn {
			continue
		}
		if snap.LBTS < min {
			min = snap.LBTS
		}
	}
	return min
}
