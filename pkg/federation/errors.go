package federation

import "errors"

var (
	ErrFederateAlreadyJoined = errors.New("federation: federate handle already joined")
	ErrFederateNotFound      = errors.New("federation: federate not found")
	ErrFederationExists      = errors.New("federation: federation name already registered")
	ErrFederationNotFound    = errors.New("federation: federation not found")
	ErrOutgoingQueueFull     = errors.New("federation: outgoing control queue full")
)
