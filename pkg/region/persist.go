package region

import (
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/rtierr"
	"github.com/gletthereblight/portico/pkg/wire"
)

// Save serializes the store's regions to an ordered byte stream using
// the generic wire codec (spec §6 "Persisted state"). Format is
// implementation-defined; only Restore needs to agree with it.
func (s *Store) Save() []byte {
	e := wire.NewEncoder()
	e.StartArray(len(s.regions))
	for _, r := range s.regions {
		e.StartStruct()
		e.PutInt32(int32(r.Handle))
		e.PutInt32(int32(r.Space))
		e.StartArray(len(r.Extent.Ranges))
		for _, rg := range r.Extent.Ranges {
			e.PutInt32(int32(rg.Dimension))
			e.PutInt64(rg.Lower)
			e.PutInt64(rg.Upper)
		}
		e.EndArray()
		e.EndStruct()
	}
	e.EndArray()
	return e.Bytes()
}

// Restore replaces the store's contents with the regions encoded in
// data by a prior Save, and fast-forwards the handle counter past the
// highest restored handle so newly created regions never collide with
// one that was persisted (spec §8 invariant 11: restore(save(S)) is
// observationally equal to S).
func (s *Store) Restore(data []byte) error {
	d := wire.NewDecoder(data)

	n, err := d.StartArray()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
	}

	regions := make(map[handle.Region]*Region, n)
	var high int32
	for i := 0; i < n; i++ {
		if err := d.StartStruct(); err != nil {
			return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
		}
		h, err := d.Int32()
		if err != nil {
			return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
		}
		space, err := d.Int32()
		if err != nil {
			return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
		}
		rangeCount, err := d.StartArray()
		if err != nil {
			return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
		}
		ranges := make([]Range, 0, rangeCount)
		for j := 0; j < rangeCount; j++ {
			dim, err := d.Int32()
			if err != nil {
				return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
			}
			lower, err := d.Int64()
			if err != nil {
				return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
			}
			upper, err := d.Int64()
			if err != nil {
				return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
			}
			ranges = append(ranges, Range{Dimension: handle.Dimension(dim), Lower: lower, Upper: upper})
		}
		if err := d.EndArray(); err != nil {
			return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
		}
		if err := d.EndStruct(); err != nil {
			return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
		}

		rh := handle.Region(h)
		regions[rh] = &Region{Handle: rh, Space: handle.Dimension(space), Extent: Extent{Ranges: ranges}}
		if h > high {
			high = h
		}
	}
	if err := d.EndArray(); err != nil {
		return rtierr.New(rtierr.KindProtocol, "region.Restore", err)
	}

	s.regions = regions
	s.counter.Restore(high)
	return nil
}
