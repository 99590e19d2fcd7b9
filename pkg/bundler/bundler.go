// Package bundler implements the outgoing TCP bundler (spec §4.2): it
// coalesces small outgoing frames into 0xCAFE-framed bundles, governed
// by a size threshold and a time threshold, and flushes eagerly for
// any non-DataMessage traffic.
package bundler

import (
	"bytes"
	"io"
	"time"

	"github.com/gletthereblight/portico/pkg/wire"
	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultSizeLimit is the default buffered-bytes threshold (64 KiB).
const DefaultSizeLimit = 64 * 1024

// DefaultTimeLimit is the default maximum buffer age.
const DefaultTimeLimit = 20 * time.Millisecond

// Config configures a Bundler.
type Config struct {
	// Enabled toggles bundling; when false every Submit flushes
	// immediately. Default true.
	Enabled *bool

	// SizeLimit is the buffered-bytes threshold that forces a flush.
	// Default DefaultSizeLimit.
	SizeLimit int

	// TimeLimit is the maximum age of the oldest buffered frame before
	// a flush is forced. Default DefaultTimeLimit.
	TimeLimit time.Duration

	// Writer receives encoded bundles (0xCAFE ‖ N ‖ bytes). Required.
	Writer io.Writer

	// LoggerFactory builds the bundler's leveled logger. Nil disables
	// logging.
	LoggerFactory logging.LoggerFactory

	// Registerer optionally registers flush-count/bytes-in-flight
	// metrics. Nil disables metrics.
	Registerer prometheus.Registerer
}

func boolPtr(b bool) *bool { return &b }

// submitReq is one Submit call handed to the actor goroutine.
type submitReq struct {
	frame    []byte
	callType wire.CallType
	ackCh    chan error
}

// Bundler owns a single outgoing byte buffer for one Transport and
// drains it on a dedicated goroutine (spec §4.2 "Flusher"), the sole
// mutator of the buffer — matching the teacher's one-writer-per-
// resource concurrency policy (spec §5) but expressed as message
// passing rather than a locked buffer, per spec §9's preference for
// explicit channels over condition variables.
type Bundler struct {
	enabled   bool
	sizeLimit int
	timeLimit time.Duration
	writer    io.Writer
	log       logging.LeveledLogger
	metrics   *metricsSet

	submitCh chan submitReq
	closeCh  chan struct{}
	closedCh chan struct{}
}

// New constructs and starts a Bundler's actor goroutine.
func New(cfg Config) *Bundler {
	enabled := true
	if cfg.Enabled != nil {
		enabled = *cfg.Enabled
	}
	sizeLimit := cfg.SizeLimit
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	timeLimit := cfg.TimeLimit
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	b := &Bundler{
		enabled:   enabled,
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		writer:    cfg.Writer,
		submitCh:  make(chan submitReq),
		closeCh:   make(chan struct{}),
		closedCh:  make(chan struct{}),
		metrics:   newMetricsSet(cfg.Registerer),
	}
	if cfg.LoggerFactory != nil {
		b.log = cfg.LoggerFactory.NewLogger("rti-bundler")
	}

	go b.run()
	return b
}

// Submit appends an already-encoded frame (header+payload) to the
// bundler. DataMessage frames are coalesced subject to the size/time
// triggers; every other CallType forces an immediate flush before
// Submit returns (spec §4.2 step 2).
func (b *Bundler) Submit(frame []byte, callType wire.CallType) error {
	req := submitReq{frame: frame, callType: callType, ackCh: make(chan error, 1)}
	select {
	case b.submitCh <- req:
	case <-b.closedCh:
		return ErrClosed
	}
	select {
	case err := <-req.ackCh:
		return err
	case <-b.closedCh:
		return ErrClosed
	}
}

// Close stops the flusher. Any residual buffered bytes are dropped
// with a warning (spec §5 "Cancellation & timeouts").
func (b *Bundler) Close() error {
	select {
	case <-b.closedCh:
		return nil
	default:
	}
	close(b.closeCh)
	<-b.closedCh
	return nil
}

func (b *Bundler) run() {
	defer close(b.closedCh)

	var buf bytes.Buffer
	queued := 0
	var timer *time.Timer
	var timerC <-chan time.Time
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}
	defer stopTimer()

	flush := func() error {
		if buf.Len() == 0 {
			return nil
		}
		n := buf.Len()
		err := writeBundle(b.writer, buf.Bytes())
		buf.Reset()
		queued = 0
		stopTimer()
		if err != nil {
			if b.log != nil {
				b.log.Warnf("bundle flush failed: %v", err)
			}
		} else if b.metrics != nil {
			b.metrics.observeFlush(n)
		}
		return err
	}

	for {
		select {
		case <-b.closeCh:
			if buf.Len() > 0 && b.log != nil {
				b.log.Warnf("dropping %d buffered bytes on close", buf.Len())
			}
			return

		case <-timerC:
			flush()

		case req := <-b.submitCh:
			buf.Write(req.frame)
			queued++
			if b.metrics != nil {
				b.metrics.observeQueued(queued)
			}

			eager := !b.enabled || req.callType != wire.CallTypeDataMessage
			if eager {
				err := flush()
				req.ackCh <- err
				continue
			}

			if queued == 1 {
				timer = time.NewTimer(b.timeLimit)
				timerC = timer.C
			}
			if buf.Len() > b.sizeLimit {
				err := flush()
				req.ackCh <- err
				continue
			}
			req.ackCh <- nil
		}
	}
}

// writeBundle writes the 0xCAFE-framed bundle (spec §4.2, §6) to w.
func writeBundle(w io.Writer, payload []byte) error {
	_, err := w.Write(wire.EncodeBundle(payload))
	return err
}
