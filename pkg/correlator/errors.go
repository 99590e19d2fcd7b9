package correlator

import "errors"

var (
	// ErrTimeout is returned by WaitFor when deadline elapses before a
	// response is offered.
	ErrTimeout = errors.New("correlator: timed out waiting for response")

	// ErrClosed is returned by Register/WaitFor once the correlator has
	// been shut down (its owning Connection closed).
	ErrClosed = errors.New("correlator: closed")

	// ErrUnknownRequestID is returned by Offer when no waiter is
	// registered for the given id (already answered, timed out, or
	// never registered).
	ErrUnknownRequestID = errors.New("correlator: no waiter for request id")
)
