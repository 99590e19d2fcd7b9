package sink

import "errors"

var (
	// Veto is returned by a chain handler to stop further invocation
	// for this message type without raising a hard error (spec §4.5:
	// "a special Veto escape stops further invocation and, if no
	// response has been set, marks success").
	Veto = errors.New("sink: veto")

	// ErrAlreadyRegistered is returned when a single or exclusive
	// handler is registered for a type that already has one.
	ErrAlreadyRegistered = errors.New("sink: handler already registered for this message type")

	// ErrExclusive is returned when registering any handler (single,
	// chain, or exclusive) for a type already claimed exclusively.
	ErrExclusive = errors.New("sink: message type is exclusively claimed")

	// ErrChainConflict is returned when registering a single handler
	// for a type that already has chain handlers, or vice versa.
	ErrChainConflict = errors.New("sink: message type already registered under a different mode")
)
