package conn

import "errors"

var (
	// ErrNoAppReceiver is returned by New when no AppReceiver is
	// configured; a Connection with nowhere to deliver inbound
	// messages is a configuration mistake, not a runtime condition.
	ErrNoAppReceiver = errors.New("conn: AppReceiver is required")

	// ErrUnpopulatedResponse is the internal error logged when a
	// ControlRequest handler returns without setting ctx.Response
	// (spec §4.4: "require a populated response").
	ErrUnpopulatedResponse = errors.New("conn: control request handler did not populate a response")

	// ErrNotReceivable names the case where isReceivable rejects an
	// inbound ControlRequest. Nothing in this package returns it: such a
	// request is dropped without a reply and never reaches the
	// AppReceiver.
	ErrNotReceivable = errors.New("conn: control request not receivable by this endpoint")

	// ErrUnexpectedResponseType is returned by sendControlRequest if
	// the correlator's delivered value isn't a PorticoMessage (would
	// indicate a bug in the receive dispatch, never a wire condition).
	ErrUnexpectedResponseType = errors.New("conn: correlator delivered a non-message response")
)
