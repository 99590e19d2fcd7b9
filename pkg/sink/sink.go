// Package sink implements the message sink described in spec.md §4.5
// (C5): a MessageType -> handler registry with three registration
// modes (single, chain, exclusive) and a Veto escape. Grounded on
// backkem-matter/pkg/exchange.Manager's protocol-ID -> ProtocolHandler
// map, generalized from one-handler-per-key to the three modes spec.md
// calls for.
package sink

import (
	"fmt"
	"sync"

	"github.com/gletthereblight/portico/pkg/rtimsg"
	"github.com/gletthereblight/portico/pkg/wire"
	"github.com/pion/logging"
)

// Context is handed to a Handler. The handler populates Response (and
// may return Veto to stop a chain early without error).
type Context struct {
	Request  rtimsg.PorticoMessage
	Response rtimsg.PorticoMessage
}

// Handler processes one message and optionally populates a response.
type Handler func(ctx *Context) error

type registration int

const (
	regNone registration = iota
	regSingle
	regChain
	regExclusive
)

// Config constructs a Sink.
type Config struct {
	// LoggerFactory builds the sink's leveled logger. Nil disables
	// logging.
	LoggerFactory logging.LoggerFactory
}

// Sink maps MessageType to one or more Handlers (spec §4.5).
type Sink struct {
	mu    sync.RWMutex
	mode  map[wire.MessageType]registration
	single map[wire.MessageType]Handler
	chain  map[wire.MessageType][]Handler
	log    logging.LeveledLogger
}

// New constructs an empty Sink.
func New(cfg Config) *Sink {
	s := &Sink{
		mode:   make(map[wire.MessageType]registration),
		single: make(map[wire.MessageType]Handler),
		chain:  make(map[wire.MessageType][]Handler),
	}
	if cfg.LoggerFactory != nil {
		s.log = cfg.LoggerFactory.NewLogger("rti-sink")
	}
	return s
}

// RegisterSingle registers the one handler for t. Fails if t already
// has any registration.
func (s *Sink) RegisterSingle(t wire.MessageType, h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFree(t); err != nil {
		return err
	}
	s.mode[t] = regSingle
	s.single[t] = h
	return nil
}

// RegisterChain appends h to t's handler chain. t must not already be
// registered as single or exclusive.
func (s *Sink) RegisterChain(t wire.MessageType, h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.mode[t] {
	case regNone, regChain:
		s.mode[t] = regChain
		s.chain[t] = append(s.chain[t], h)
		return nil
	case regExclusive:
		return ErrExclusive
	default:
		return ErrChainConflict
	}
}

// RegisterExclusive registers h as t's only handler and forbids any
// further registration for t (spec §4.5 "exclusive: no further
// handlers may register for that type").
func (s *Sink) RegisterExclusive(t wire.MessageType, h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFree(t); err != nil {
		return err
	}
	s.mode[t] = regExclusive
	s.single[t] = h
	return nil
}

func (s *Sink) checkFree(t wire.MessageType) error {
	switch s.mode[t] {
	case regNone:
		return nil
	case regExclusive:
		return ErrExclusive
	case regChain:
		return ErrChainConflict
	default:
		return ErrAlreadyRegistered
	}
}

// Dispatch routes ctx.Request to its registered handler(s) by
// MessageType. Chain handlers run in registration order; a Veto stops
// the chain and, if Response is still unset, is treated as success
// (spec §4.5). Any other error is wrapped with the message type and
// returned to the caller. An unregistered type is logged and dropped.
func (s *Sink) Dispatch(ctx *Context) error {
	t := ctx.Request.MessageType()

	s.mu.RLock()
	mode := s.mode[t]
	var single Handler
	var chain []Handler
	switch mode {
	case regSingle, regExclusive:
		single = s.single[t]
	case regChain:
		chain = append([]Handler(nil), s.chain[t]...)
	}
	s.mu.RUnlock()

	switch mode {
	case regSingle, regExclusive:
		if err := single(ctx); err != nil {
			if err == Veto {
				return nil
			}
			return fmt.Errorf("sink: handler for %v: %w", t, err)
		}
		return nil
	case regChain:
		for _, h := range chain {
			if err := h(ctx); err != nil {
				if err == Veto {
					return nil
				}
				return fmt.Errorf("sink: chain handler for %v: %w", t, err)
			}
		}
		return nil
	default:
		if s.log != nil {
			s.log.Debugf("sink: dropping unregistered message type %v", t)
		}
		return nil
	}
}
