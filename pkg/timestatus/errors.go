package timestatus

import "errors"

// ErrAdvanceInProgress is returned by TimeAdvanceRequested when a time
// advance is already outstanding (spec §4.8: the transition requires
// advancing=NONE).
var ErrAdvanceInProgress = errors.New("timestatus: time advance already requested")
