package federation

import (
	"sync"

	"github.com/gletthereblight/portico/pkg/handle"
)

// RtiContext is the single explicit holder of the process-wide
// federation registry and federation-handle counter (spec §9 "Global
// mutable state": "encapsulate in a single RtiContext value passed
// explicitly; forbid ambient singletons"). Grounded on the
// orbas1-Synnergy idiom of a process registry guarded by one struct
// rather than package-level state.
type RtiContext struct {
	mu            sync.RWMutex
	federations   map[handle.Federation]*Federation
	byName        map[string]handle.Federation
	handleCounter *handle.Counter
}

// NewRtiContext constructs an empty registry.
func NewRtiContext() *RtiContext {
	return &RtiContext{
		federations:   make(map[handle.Federation]*Federation),
		byName:        make(map[string]handle.Federation),
		handleCounter: handle.NewCounter(),
	}
}

// CreateFederation allocates a handle, constructs a Federation, starts
// its outgoing processor, and registers it. Fails with
// ErrFederationExists if name is already taken.
func (rc *RtiContext) CreateFederation(name, hlaVersion string, foms []string, cfg Config) (*Federation, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, exists := rc.byName[name]; exists {
		return nil, ErrFederationExists
	}

	h := handle.Federation(rc.handleCounter.Next())
	f := New(h, name, hlaVersion, foms, cfg)
	rc.federations[h] = f
	rc.byName[name] = h
	return f, nil
}

// DestroyFederation closes a federation's outgoing processor (5s join
// timeout, spec §4.9) and removes it from the registry.
func (rc *RtiContext) DestroyFederation(h handle.Federation) error {
	rc.mu.Lock()
	f, exists := rc.federations[h]
	if !exists {
		rc.mu.Unlock()
		return ErrFederationNotFound
	}
	delete(rc.federations, h)
	delete(rc.byName, f.Name)
	rc.mu.Unlock()

	f.Close()
	return nil
}

// Lookup returns a registered federation by handle.
func (rc *RtiContext) Lookup(h handle.Federation) (*Federation, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	f, ok := rc.federations[h]
	return f, ok
}

// LookupByName returns a registered federation by name.
func (rc *RtiContext) LookupByName(name string) (*Federation, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	h, ok := rc.byName[name]
	if !ok {
		return nil, false
	}
	f, ok := rc.federations[h]
	return f, ok
}

// All returns a snapshot of every currently registered federation
// handle.
func (rc *RtiContext) All() []handle.Federation {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	out := make([]handle.Federation, 0, len(rc.federations))
	for h := range rc.federations {
		out = append(out, h)
	}
	return out
}
