package stack

import "errors"

var (
	// ErrDuplicateName is returned when adding a protocol whose name is
	// already present in the stack (spec §4.3 invariant 1).
	ErrDuplicateName = errors.New("stack: duplicate protocol name")

	// ErrReservedName is returned when a caller tries to add a protocol
	// using a name reserved for the application connector or transport.
	ErrReservedName = errors.New("stack: reserved protocol name")
)
