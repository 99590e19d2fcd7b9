// Package federation implements the federation hub (spec.md §4.9,
// component C9): the per-federation aggregate of state managers, the
// incoming-message local-effects sink, and the outgoing control-queue
// processor that pushes RTI-initiated control requests out to every
// joined federate.
//
// Grounded on backkem-matter/pkg/session/manager.go for the
// "federation-of-state-tables registry under one manager lock" shape,
// and backkem-matter/pkg/exchange/manager.go for the outgoing
// queue/processor: there, Manager drains ack/retransmit tables and
// resends over transport on a timer; here, Federation drains a
// channel and resends each message as a ControlRequest over every
// federate connection, logging but not stopping on a per-connection
// send failure (spec §4.9).
package federation

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gletthereblight/portico/pkg/conn"
	"github.com/gletthereblight/portico/pkg/fom"
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/interest"
	"github.com/gletthereblight/portico/pkg/region"
	"github.com/gletthereblight/portico/pkg/rtimsg"
	"github.com/gletthereblight/portico/pkg/syncpoint"
)

// DefaultOutgoingQueueCapacity bounds the number of control messages
// awaiting delivery before new ones are dropped (spec §6 config
// surface "outgoingQueue.capacity").
const DefaultOutgoingQueueCapacity = 256

// destroyGraceTimeout is how long Close waits for the outgoing
// processor to drain in flight work before abandoning it (spec §4.9
// "interrupt and join (5s timeout)").
const destroyGraceTimeout = 5 * time.Second

// controlSendTimeout bounds a single outgoing ControlRequest attempt.
const controlSendTimeout = 5 * time.Second

// Config configures a Federation.
type Config struct {
	Graph                 fom.Graph
	OutgoingQueueCapacity int
	LoggerFactory         logging.LoggerFactory
	MetricsRegisterer     prometheus.Registerer
}

// Repository is the federation's live object-instance registry. Spec
// §3 lists it as a Federation field but neither §4's component design
// nor the error taxonomy specifies any instance-registration
// operation beyond what UpdateAttributes already carries (object
// updates are addressed by ObjectClass, not by a separate instance
// handle) — ownership transfer policy is an explicit Non-goal. This is
// kept as a minimal named-count placeholder so the field exists and
// compiles against real use, without inventing unspecified API.
type Repository struct {
	mu        sync.Mutex
	instances map[handle.ObjectClass]int
}

func newRepository() *Repository {
	return &Repository{instances: make(map[handle.ObjectClass]int)}
}

// Register records the discovery of one more live instance of c.
func (r *Repository) Register(c handle.ObjectClass) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[c]++
}

// Count returns the number of live instances registered for c.
func (r *Repository) Count(c handle.ObjectClass) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[c]
}

// Federation holds all per-federation state (spec §4.9). Exactly one
// RtiContext-owned instance exists per live federation handle.
type Federation struct {
	mu sync.RWMutex

	Handle     handle.Federation
	Name       string
	HLAVersion string
	Graph      fom.Graph
	FOMModules []string
	Key        string

	federates   map[handle.Federate]*Federate
	connections map[*conn.Connection]struct{}

	Interest   *interest.Manager
	SyncPoints *syncpoint.Manager
	Regions    *region.Store
	Repo       *Repository

	handleCounter *handle.Counter

	outgoing chan rtimsg.PorticoMessage
	done     chan struct{}
	stopped  chan struct{}

	log     logging.LeveledLogger
	metrics *metricsSet
}

// New constructs a Federation and starts its outgoing processor
// (spec §4.9 lifecycle: "start on createdFederation").
func New(h handle.Federation, name, hlaVersion string, foms []string, cfg Config) *Federation {
	capacity := cfg.OutgoingQueueCapacity
	if capacity <= 0 {
		capacity = DefaultOutgoingQueueCapacity
	}

	f := &Federation{
		Handle:        h,
		Name:          name,
		HLAVersion:    hlaVersion,
		Graph:         cfg.Graph,
		FOMModules:    append([]string(nil), foms...),
		Key:           uuid.NewString(),
		federates:     make(map[handle.Federate]*Federate),
		connections:   make(map[*conn.Connection]struct{}),
		Interest:      interest.New(cfg.Graph, interest.Config{LoggerFactory: cfg.LoggerFactory}),
		SyncPoints:    syncpoint.New(),
		Regions:       region.NewStore(),
		Repo:          newRepository(),
		handleCounter: handle.NewCounter(),
		outgoing:      make(chan rtimsg.PorticoMessage, capacity),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	if cfg.LoggerFactory != nil {
		f.log = cfg.LoggerFactory.NewLogger("rti-federation")
	}
	f.metrics = newMetricsSet(cfg.MetricsRegisterer)

	go f.runOutgoingProcessor()
	return f
}

// Join adds a federate to the federation, updating the connection set
// invariant (spec §3: "the connection set equals {f.connection : f ∈
// federates}").
func (f *Federation) Join(fed *Federate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.federates[fed.Handle]; exists {
		return ErrFederateAlreadyJoined
	}
	f.federates[fed.Handle] = fed
	if fed.Connection != nil {
		f.connections[fed.Connection] = struct{}{}
	}
	return nil
}

// Resign removes a federate, recomputes the connection set, and
// informs the sync-point manager so federation-wide barriers no
// longer wait on the departed federate (spec §4.7).
func (f *Federation) Resign(fh handle.Federate) error {
	f.mu.Lock()
	if _, exists := f.federates[fh]; !exists {
		f.mu.Unlock()
		return ErrFederateNotFound
	}
	delete(f.federates, fh)
	f.recomputeConnectionsLocked()
	f.mu.Unlock()

	f.SyncPoints.Resign(fh)
	return nil
}

// recomputeConnectionsLocked rebuilds the connection set from the
// current federate map. Caller must hold f.mu.
func (f *Federation) recomputeConnectionsLocked() {
	f.connections = make(map[*conn.Connection]struct{}, len(f.federates))
	for _, fed := range f.federates {
		if fed.Connection != nil {
			f.connections[fed.Connection] = struct{}{}
		}
	}
}

// AllocateFederateHandle hands out the next federate handle for this
// federation.
func (f *Federation) AllocateFederateHandle() handle.Federate {
	return handle.Federate(f.handleCounter.Next())
}

// Federates returns a snapshot of the currently joined federate
// handles, used by federation-wide sync-point and time-advance
// predicates.
func (f *Federation) Federates() []handle.Federate {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]handle.Federate, 0, len(f.federates))
	for h := range f.federates {
		out = append(out, h)
	}
	return out
}

// Federate looks up a joined federate by handle.
func (f *Federation) Federate(fh handle.Federate) (*Federate, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fed, ok := f.federates[fh]
	return fed, ok
}

// QueueControlMessage stamps m as RTI-originated and offers it to the
// bounded outgoing queue, dropping (with a warning) if full (spec
// §4.9).
func (f *Federation) QueueControlMessage(m rtimsg.PorticoMessage) error {
	base := m.Base()
	base.FromRTI = true
	if base.SourceFederate == 0 {
		base.SourceFederate = handle.RTIHandle
	}
	base.TargetFederation = f.Handle

	select {
	case f.outgoing <- m:
		f.metrics.observeQueueDepth(len(f.outgoing))
		return nil
	default:
		f.metrics.observeDropped()
		if f.log != nil {
			f.log.Warnf("outgoing control queue full, dropping message type %v", m.MessageType())
		}
		return ErrOutgoingQueueFull
	}
}

// QueueDataMessage records an UpdateAttributes message's object class
// in the federation's Repository, then
// fans it out to every federate connection except senderConn. No
// loopback; a connection multiplexing several federates is
// responsible for fanning out to them internally (spec §4.9).
func (f *Federation) QueueDataMessage(m rtimsg.PorticoMessage, senderConn *conn.Connection) error {
	if uc, ok := m.(*rtimsg.UpdateAttributes); ok {
		f.Repo.Register(uc.ObjectClass)
	}

	f.mu.RLock()
	targets := make([]*conn.Connection, 0, len(f.connections))
	for c := range f.connections {
		if c == senderConn {
			continue
		}
		targets = append(targets, c)
	}
	f.mu.RUnlock()

	for _, c := range targets {
		if err := c.SendDataMessage(m); err != nil && f.log != nil {
			f.log.Warnf("fan-out send failed: %v", err)
		}
	}
	return nil
}

// runOutgoingProcessor drains the outgoing queue and pushes each
// message out as a ControlRequest over every federate connection,
// retrying transient send failures with bounded exponential backoff
// (cenkalti/backoff) before logging and moving on — a single
// connection's trouble must never stall the others (spec §4.9: "error
// responses are logged but do not stop processing").
func (f *Federation) runOutgoingProcessor() {
	defer close(f.stopped)

	for {
		select {
		case <-f.done:
			return
		case m, ok := <-f.outgoing:
			if !ok {
				return
			}
			f.metrics.observeQueueDepth(len(f.outgoing))
			f.dispatchControlMessage(m)
		}
	}
}

func (f *Federation) dispatchControlMessage(m rtimsg.PorticoMessage) {
	f.mu.RLock()
	targets := make([]*conn.Connection, 0, len(f.connections))
	for c := range f.connections {
		targets = append(targets, c)
	}
	f.mu.RUnlock()

	for _, c := range targets {
		f.sendWithRetry(c, m)
	}
}

func (f *Federation) sendWithRetry(c *conn.Connection, m rtimsg.PorticoMessage) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = controlSendTimeout

	err := backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), controlSendTimeout)
		defer cancel()
		_, sendErr := c.SendControlRequest(ctx, m.Clone(), time.Now().Add(controlSendTimeout))
		return sendErr
	}, b)

	if err != nil {
		f.metrics.observeSendError()
		if f.log != nil {
			f.log.Warnf("control request delivery failed after retry: %v", err)
		}
	}
}

// Close interrupts the outgoing processor and waits up to 5s for it
// to drain (spec §4.9 lifecycle: "interrupt and join (5s timeout) on
// destroyedFederation").
func (f *Federation) Close() {
	close(f.done)
	select {
	case <-f.stopped:
	case <-time.After(destroyGraceTimeout):
		if f.log != nil {
			f.log.Warn("outgoing processor did not stop within grace period")
		}
	}
}
