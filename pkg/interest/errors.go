package interest

import "errors"

// Sentinel errors per spec.md §4.6's error taxonomy. Manager methods
// wrap these in an *rtierr.Error carrying the matching Kind so callers
// can classify with rtierr.Is while still reaching the sentinel via
// errors.Is/errors.Unwrap.
var (
	ErrObjectClassNotDefined      = errors.New("interest: object class not defined")
	ErrAttributeNotDefined        = errors.New("interest: attribute not defined on class")
	ErrInteractionClassNotDefined = errors.New("interest: interaction class not defined")
	ErrInvalidRegionContext       = errors.New("interest: region routing space does not match attribute/interaction space")
	ErrObjectClassNotPublished    = errors.New("interest: object class not published by federate")
	ErrObjectClassNotSubscribed   = errors.New("interest: object class not subscribed by federate")
	ErrInteractionNotPublished    = errors.New("interest: interaction class not published by federate")
	ErrInteractionNotSubscribed   = errors.New("interest: interaction class not subscribed by federate")
	ErrMalformedIdentifier        = errors.New("interest: FOM identifier malformed")
)
