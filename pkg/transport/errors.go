package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrNoHandler is returned when no up-handler is configured.
	ErrNoHandler = errors.New("transport: no up handler configured")

	// ErrNoConn is returned when NewTCP is called without a connection.
	ErrNoConn = errors.New("transport: no connection provided")

	// ErrAlreadyOpen is returned when Open is called twice.
	ErrAlreadyOpen = errors.New("transport: already open")
)
