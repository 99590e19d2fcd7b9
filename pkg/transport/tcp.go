package transport

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/gletthereblight/portico/pkg/bundler"
	"github.com/gletthereblight/portico/pkg/wire"
	"github.com/pion/logging"
)

// TCPConfig configures a TCP transport for one Connection. Unlike a
// multi-peer server transport, a Portico Transport owns exactly one
// net.Conn — the teacher's per-peer tcpConn becomes the whole of this
// type (spec §4.2: "the transport is an abstract component" scoped to
// a single connection; fan-out across federates happens above it, in
// the federation hub).
type TCPConfig struct {
	// Conn is the already-dialed or already-accepted connection.
	// Required.
	Conn net.Conn

	// UpHandler receives each demultiplexed message frame read off the
	// wire. Required.
	UpHandler UpHandler

	// BundlerEnabled, BundlerSizeLimit, BundlerTimeLimit configure the
	// outgoing Bundler (spec §6 configuration surface); zero values
	// take the Bundler's own defaults.
	BundlerEnabled   *bool
	BundlerSizeLimit int
	BundlerTimeLimit time.Duration

	// LoggerFactory builds this transport's and its bundler's leveled
	// loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// TCP is the bundled-stream transport (spec §4.2, §6): outgoing frames
// pass through a Bundler before hitting the wire; incoming bytes are
// read as 0xCAFE-framed bundles and split back into individual message
// frames for the UpHandler.
type TCP struct {
	conn      net.Conn
	upHandler UpHandler
	b         *bundler.Bundler
	log       logging.LeveledLogger

	mu    sync.Mutex
	state State

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewTCP constructs a TCP transport over an already-connected conn.
// Call Open to start reading.
func NewTCP(cfg TCPConfig) (*TCP, error) {
	if cfg.Conn == nil {
		return nil, ErrNoConn
	}
	if cfg.UpHandler == nil {
		return nil, ErrNoHandler
	}

	t := &TCP{
		conn:      cfg.Conn,
		upHandler: cfg.UpHandler,
		closeCh:   make(chan struct{}),
	}
	if cfg.LoggerFactory != nil {
		t.log = cfg.LoggerFactory.NewLogger("rti-transport-tcp")
	}
	t.b = bundler.New(bundler.Config{
		Enabled:       cfg.BundlerEnabled,
		SizeLimit:     cfg.BundlerSizeLimit,
		TimeLimit:     cfg.BundlerTimeLimit,
		Writer:        cfg.Conn,
		LoggerFactory: cfg.LoggerFactory,
	})
	return t, nil
}

// Open starts the read loop.
func (t *TCP) Open() error {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return ErrAlreadyOpen
	}
	t.state = StateOpen
	t.mu.Unlock()

	if t.log != nil {
		t.log.Infof("opening TCP transport to %s", t.conn.RemoteAddr())
	}

	t.wg.Add(1)
	go t.readLoop()
	return nil
}

// Close stops the read loop, the bundler, and the underlying conn.
// Callers outside the read loop should always use Close; the read
// loop itself uses teardown on a fatal read error, since Close would
// otherwise wait on the very goroutine it is called from.
func (t *TCP) Close() error {
	t.teardown()
	t.wg.Wait()
	return nil
}

// teardown performs the idempotent shutdown steps without waiting for
// the read loop to exit.
func (t *TCP) teardown() {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return
	}
	t.state = StateClosed
	t.mu.Unlock()

	if t.log != nil {
		t.log.Info("closing TCP transport")
	}

	close(t.closeCh)
	t.conn.Close()
	t.b.Close()
}

// State reports the transport's lifecycle state.
func (t *TCP) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Down submits frame to the outgoing bundler.
func (t *TCP) Down(frame []byte, callType wire.CallType) error {
	t.mu.Lock()
	open := t.state == StateOpen
	t.mu.Unlock()
	if !open {
		return ErrClosed
	}
	return t.b.Submit(frame, callType)
}

// readLoop reads 0xCAFE-framed bundles off the wire and demultiplexes
// each into its constituent message frames (spec §4.2 "receiver
// invariant"). A bad magic or a closed connection ends the loop and,
// per spec §6, is connection-fatal.
func (t *TCP) readLoop() {
	defer t.wg.Done()

	for {
		payload, err := wire.ReadBundle(t.conn)
		if err != nil {
			select {
			case <-t.closeCh:
				return
			default:
			}
			if err != io.EOF && t.log != nil {
				t.log.Warnf("bundle read failed, closing connection: %v", err)
			}
			t.teardown()
			return
		}

		if splitErr := wire.SplitBundle(payload, func(msg []byte) error {
			t.upHandler(msg)
			return nil
		}); splitErr != nil {
			if t.log != nil {
				t.log.Warnf("malformed bundle, closing connection: %v", splitErr)
			}
			t.teardown()
			return
		}
	}
}
