package bundler

import "errors"

var (
	// ErrClosed is returned by Submit once the bundler has been closed.
	ErrClosed = errors.New("bundler: closed")
)
