package syncpoint

import "errors"

var (
	ErrAlreadyExists = errors.New("syncpoint: label already registered")
	ErrNotAnnounced  = errors.New("syncpoint: label not known")
)
