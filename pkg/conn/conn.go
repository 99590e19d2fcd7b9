// Package conn implements the Connection façade and response
// correlator wiring described in spec.md §4.4 (C4): one endpoint
// relationship (federate<->RTI or RTI<->federate), three outbound
// sending primitives, and CallType-dispatched inbound delivery.
// Grounded on backkem-matter/pkg/exchange.Manager's
// dispatch-by-header-flags shape, re-expressed here as
// dispatch-by-CallType.
package conn

import (
	"context"
	"time"

	"github.com/gletthereblight/portico/pkg/correlator"
	"github.com/gletthereblight/portico/pkg/rtimsg"
	"github.com/gletthereblight/portico/pkg/stack"
	"github.com/gletthereblight/portico/pkg/wire"
	"github.com/pion/logging"
)

// ControlContext carries one inbound ControlRequest through
// AppReceiver.ReceiveControlRequest. The handler must populate
// Response (spec §4.4: "require a populated response") and may set
// Failed to route the reply as ControlResponseErr instead of Ok.
type ControlContext struct {
	Header   wire.Header
	Request  rtimsg.PorticoMessage
	Response rtimsg.PorticoMessage
	Failed   bool
}

// AppReceiver is the application-level sink a Connection delivers
// inbound messages to (spec §4.4 "receive(m)").
type AppReceiver interface {
	// IsReceivable pre-filters an inbound ControlRequest on its
	// target handle before a context is built.
	IsReceivable(h wire.Header) bool
	ReceiveDataMessage(m rtimsg.PorticoMessage)
	ReceiveNotification(m rtimsg.PorticoMessage)
	ReceiveControlRequest(ctx *ControlContext)
}

// Config constructs a Connection.
type Config struct {
	// TransportDown is wired to the stack's transport tail.
	TransportDown stack.TransportDown
	// FederationID is stamped into every outbound header's
	// federation-ID nibble.
	FederationID uint8
	// AppReceiver is required.
	AppReceiver AppReceiver
	// DefaultTimeout is used by SendControlRequest when the caller
	// doesn't supply an explicit deadline.
	DefaultTimeout time.Duration
	// LoggerFactory builds the connection's leveled logger. Nil
	// disables logging.
	LoggerFactory logging.LoggerFactory
}

const defaultControlTimeout = 5 * time.Second

// Connection is one endpoint relationship: it owns a protocol Stack
// and a response Correlator (spec §4.4).
type Connection struct {
	stack          *stack.Stack
	corr           *correlator.Correlator
	app            AppReceiver
	federationID   uint8
	defaultTimeout time.Duration
	log            logging.LeveledLogger
}

// New constructs a Connection. Callers add protocols via
// conn.Stack().AddProtocol before calling Open.
func New(cfg Config) (*Connection, error) {
	if cfg.AppReceiver == nil {
		return nil, ErrNoAppReceiver
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultControlTimeout
	}

	c := &Connection{
		corr:           correlator.New(),
		app:            cfg.AppReceiver,
		federationID:   cfg.FederationID,
		defaultTimeout: cfg.DefaultTimeout,
	}
	if cfg.LoggerFactory != nil {
		c.log = cfg.LoggerFactory.NewLogger("rti-connection")
	}
	c.stack = stack.New(stack.Config{
		ApplicationUp: c.receive,
		TransportDown: cfg.TransportDown,
		LoggerFactory: cfg.LoggerFactory,
	})
	return c, nil
}

// Stack exposes the protocol stack so callers can AddProtocol before
// Open.
func (c *Connection) Stack() *stack.Stack { return c.stack }

// Open opens the protocol stack. The Transport itself is opened
// separately by the caller (spec §4.3).
func (c *Connection) Open() error { return c.stack.Open() }

// Close closes the protocol stack and unblocks any in-flight
// sendControlRequest with ErrClosed.
func (c *Connection) Close() {
	c.stack.Close()
	c.corr.Close()
}

// SendDataMessage wraps m as CallType=DataMessage, requestId=0 and
// pushes it down the stack. Non-blocking.
func (c *Connection) SendDataMessage(m rtimsg.PorticoMessage) error {
	frame, err := buildFrame(m, wire.CallTypeDataMessage, c.federationID, 0)
	if err != nil {
		return err
	}
	return c.stack.Down(frame, wire.CallTypeDataMessage)
}

// SendNotification wraps m as CallType=Notification, requestId=0 and
// pushes it down the stack. Non-blocking.
func (c *Connection) SendNotification(m rtimsg.PorticoMessage) error {
	frame, err := buildFrame(m, wire.CallTypeNotification, c.federationID, 0)
	if err != nil {
		return err
	}
	return c.stack.Down(frame, wire.CallTypeNotification)
}

// SendControlRequest obtains a fresh request ID, pushes m down the
// stack as a ControlRequest, then blocks until a matching
// ControlResponseOK/Err arrives, ctx is cancelled, or deadline
// passes (spec §4.4). A zero deadline uses DefaultTimeout.
func (c *Connection) SendControlRequest(ctx context.Context, m rtimsg.PorticoMessage, deadline time.Time) (rtimsg.PorticoMessage, error) {
	if deadline.IsZero() {
		deadline = time.Now().Add(c.defaultTimeout)
	}

	id, err := c.corr.Register()
	if err != nil {
		return nil, err
	}

	frame, err := buildFrame(m, wire.CallTypeControlRequest, c.federationID, id)
	if err != nil {
		return nil, err
	}
	if err := c.stack.Down(frame, wire.CallTypeControlRequest); err != nil {
		return nil, err
	}

	resp, err := c.corr.WaitFor(ctx, id, deadline)
	if err != nil {
		return nil, err
	}
	pm, ok := resp.(rtimsg.PorticoMessage)
	if !ok {
		return nil, ErrUnexpectedResponseType
	}
	return pm, nil
}

// receive is wired as the stack's ApplicationUp handler: every frame
// that makes it all the way up the protocol chain lands here.
func (c *Connection) receive(frame []byte) {
	h, m, err := inflate(frame)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("dropping unparseable inbound frame: %v", err)
		}
		return
	}

	switch h.CallType() {
	case wire.CallTypeDataMessage:
		c.app.ReceiveDataMessage(m)
	case wire.CallTypeNotification:
		c.app.ReceiveNotification(m)
	case wire.CallTypeControlRequest:
		c.receiveControlRequest(h, m)
	case wire.CallTypeControlResponseOK, wire.CallTypeControlResponseErr:
		if err := c.corr.Offer(h.RequestOrFilteringID(), m); err != nil && c.log != nil {
			c.log.Warnf("control response for unknown request id %d: %v", h.RequestOrFilteringID(), err)
		}
	default:
		if c.log != nil {
			c.log.Warnf("dropping frame with unknown call type %v", h.CallType())
		}
	}
}

func (c *Connection) receiveControlRequest(h wire.Header, m rtimsg.PorticoMessage) {
	if !c.app.IsReceivable(h) {
		if c.log != nil {
			c.log.Debugf("control request not receivable: target=%d", h.TargetHandle())
		}
		return
	}

	ctx := &ControlContext{Header: h, Request: m}
	c.app.ReceiveControlRequest(ctx)

	if isAsync(m) {
		return
	}
	if ctx.Response == nil {
		if c.log != nil {
			c.log.Error(ErrUnpopulatedResponse.Error())
		}
		return
	}

	respCallType := wire.CallTypeControlResponseOK
	if ctx.Failed {
		respCallType = wire.CallTypeControlResponseErr
	}
	respFrame, err := buildResponseFrame(ctx, respCallType)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("failed to encode control response: %v", err)
		}
		return
	}
	if err := c.stack.Down(respFrame, respCallType); err != nil && c.log != nil {
		c.log.Warnf("failed to send control response: %v", err)
	}
}
