package region

import "errors"

// ErrRegionNotKnown is returned by Store.Modify/Delete for a handle
// the store never issued or already removed (spec §4.6 error taxonomy
// "RegionNotKnown").
var ErrRegionNotKnown = errors.New("region: region handle not known")
