package transport

import "github.com/gletthereblight/portico/pkg/wire"

// Transport is the abstract component the protocol stack's tail sits
// on (spec §4.2, §4.3): it owns connection lifetime and frames
// individual wire messages, handing each up-frame (a 12-byte header
// plus payload) to the configured UpHandler as it is demultiplexed
// out of a bundle.
type Transport interface {
	// Open starts the transport's read loop.
	Open() error
	// Close stops the transport and releases its connection.
	Close() error
	// Down submits an already-encoded frame for delivery. callType
	// governs bundling eagerness (spec §4.2 step 2).
	Down(frame []byte, callType wire.CallType) error
	// State reports the transport's current lifecycle state.
	State() State
}

// UpHandler receives one demultiplexed message frame (header+payload)
// read off the wire, in arrival order.
type UpHandler func(frame []byte)
