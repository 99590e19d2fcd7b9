// Package stack implements the protocol stack (spec §4.3): a doubly-
// linked chain of pluggable Protocols between an implicit application
// connector (head) and the Transport (tail). Modeled as arena+indices
// per spec §9's guidance on cyclic references — each link knows its
// neighbors by index into a slice rather than by a raw pointer cycle,
// so Close cannot observe a partially torn-down neighbor.
package stack

import (
	"sync"

	"github.com/gletthereblight/portico/pkg/wire"
	"github.com/pion/logging"
)

// Protocol is one link in the chain. A protocol may drop a message by
// not calling PassDown/PassUp, or synthesize new messages (e.g. an
// auth challenge) by calling them with different bytes.
type Protocol interface {
	Name() string
	Open() error
	Close() error
	// HandleDown is invoked as a message travels from the application
	// toward the transport. Call ctx.PassDown to continue the chain.
	HandleDown(ctx *Context, frame []byte, callType wire.CallType) error
	// HandleUp is invoked as a message travels from the transport
	// toward the application. Call ctx.PassUp to continue the chain.
	HandleUp(ctx *Context, frame []byte)
}

// Context is handed to a Protocol's HandleDown/HandleUp so it can
// continue the chain without holding a raw pointer to its neighbor.
type Context struct {
	s   *Stack
	idx int
}

// PassDown forwards frame to the next link toward the transport.
func (c *Context) PassDown(frame []byte, callType wire.CallType) error {
	return c.s.passDown(c.idx+1, frame, callType)
}

// PassUp forwards frame to the next link toward the application.
func (c *Context) PassUp(frame []byte) {
	c.s.passUp(c.idx-1, frame)
}

// ApplicationUpHandler receives a frame once it has traveled all the
// way up through every protocol (spec §4.3 "head = implicit
// ApplicationConnector, routes up(m) back into the Connection's
// receive").
type ApplicationUpHandler func(frame []byte)

// TransportDown is satisfied by pkg/transport.Transport's Down method.
type TransportDown func(frame []byte, callType wire.CallType) error

// Config constructs a Stack.
type Config struct {
	// ApplicationUp is called once an inbound frame reaches the head.
	// Required.
	ApplicationUp ApplicationUpHandler
	// TransportDown is called once an outbound frame reaches the tail.
	// Required.
	TransportDown TransportDown
	// LoggerFactory builds the stack's leveled logger. Nil disables
	// logging.
	LoggerFactory logging.LoggerFactory
}

const (
	applicationConnectorName = "$application"
	transportName            = "$transport"
)

// Stack is the ordered protocol chain (spec §4.3). Index 0 is always
// the implicit application connector and the last index is always the
// implicit transport link; middle protocols are inserted immediately
// before the transport.
type Stack struct {
	mu        sync.RWMutex
	protocols []Protocol // protocols[0] and protocols[len-1] are the implicit head/tail
	names     map[string]bool
	log       logging.LeveledLogger
	opened    bool
}

// New constructs a Stack with just the implicit head and tail links.
func New(cfg Config) *Stack {
	if cfg.ApplicationUp == nil {
		cfg.ApplicationUp = func([]byte) {}
	}
	if cfg.TransportDown == nil {
		cfg.TransportDown = func([]byte, wire.CallType) error { return nil }
	}
	s := &Stack{
		names: map[string]bool{
			applicationConnectorName: true,
			transportName:            true,
		},
	}
	if cfg.LoggerFactory != nil {
		s.log = cfg.LoggerFactory.NewLogger("rti-stack")
	}
	s.protocols = []Protocol{
		&applicationConnector{up: cfg.ApplicationUp},
		&transportTail{down: cfg.TransportDown},
	}
	return s
}

// AddProtocol inserts p immediately before the transport (spec §4.3:
// "addProtocol inserts immediately before the transport and, if the
// transport is already open, calls open() on the new protocol").
func (s *Stack) AddProtocol(p Protocol) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Name() == applicationConnectorName || p.Name() == transportName {
		return ErrReservedName
	}
	if s.names[p.Name()] {
		return ErrDuplicateName
	}

	insertAt := len(s.protocols) - 1 // immediately before the transport
	s.protocols = append(s.protocols, nil)
	copy(s.protocols[insertAt+1:], s.protocols[insertAt:])
	s.protocols[insertAt] = p
	s.names[p.Name()] = true

	if s.opened {
		return p.Open()
	}
	return nil
}

// Open opens every protocol head-to-tail, skipping the transport
// (spec §4.3: "the transport is opened separately by the Connection
// after the stack is open").
func (s *Stack) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.protocols[:len(s.protocols)-1] {
		if err := p.Open(); err != nil {
			return err
		}
	}
	s.opened = true
	return nil
}

// Close closes every protocol head-to-tail, skipping the transport;
// errors are logged and swallowed so every protocol is given a chance
// to close (spec §4.3).
func (s *Stack) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.protocols[:len(s.protocols)-1] {
		if err := p.Close(); err != nil && s.log != nil {
			s.log.Warnf("protocol %s close error: %v", p.Name(), err)
		}
	}
	s.opened = false
}

// Down sends frame down the full chain, starting at index 1 (the
// first real protocol after the application connector).
func (s *Stack) Down(frame []byte, callType wire.CallType) error {
	return s.passDown(1, frame, callType)
}

// Up injects frame at the transport end and lets it travel up the
// full chain to the application connector.
func (s *Stack) Up(frame []byte) {
	s.passUp(len(s.protocolsSnapshot())-2, frame)
}

func (s *Stack) protocolsSnapshot() []Protocol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.protocols
}

func (s *Stack) passDown(idx int, frame []byte, callType wire.CallType) error {
	protocols := s.protocolsSnapshot()
	if idx >= len(protocols) {
		return nil
	}
	ctx := &Context{s: s, idx: idx}
	return protocols[idx].HandleDown(ctx, frame, callType)
}

func (s *Stack) passUp(idx int, frame []byte) {
	protocols := s.protocolsSnapshot()
	if idx < 0 {
		return
	}
	ctx := &Context{s: s, idx: idx}
	protocols[idx].HandleUp(ctx, frame)
}

// applicationConnector is the implicit head (spec §4.3).
type applicationConnector struct {
	up ApplicationUpHandler
}

func (a *applicationConnector) Name() string  { return applicationConnectorName }
func (a *applicationConnector) Open() error   { return nil }
func (a *applicationConnector) Close() error  { return nil }
func (a *applicationConnector) HandleDown(ctx *Context, frame []byte, callType wire.CallType) error {
	return ctx.PassDown(frame, callType)
}
func (a *applicationConnector) HandleUp(ctx *Context, frame []byte) {
	a.up(frame)
}

// transportTail is the implicit tail (spec §4.3). Its Open/Close are
// no-ops because the Connection opens/closes the real Transport
// separately.
type transportTail struct {
	down TransportDown
}

func (t *transportTail) Name() string { return transportName }
func (t *transportTail) Open() error  { return nil }
func (t *transportTail) Close() error { return nil }
func (t *transportTail) HandleDown(ctx *Context, frame []byte, callType wire.CallType) error {
	return t.down(frame, callType)
}
func (t *transportTail) HandleUp(ctx *Context, frame []byte) {
	ctx.PassUp(frame)
}
