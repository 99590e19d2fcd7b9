package interest

import (
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/region"
	"github.com/gletthereblight/portico/pkg/rtierr"
	"github.com/gletthereblight/portico/pkg/wire"
)

// Save serializes every publish/subscribe table to an ordered byte
// stream using the generic wire codec (spec §6 "Persisted state").
// Format is implementation-defined; only Restore needs to agree with
// it.
func (m *Manager) Save() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e := wire.NewEncoder()
	writeObjectTable(e, m.publishedObjects)
	writeObjectTable(e, m.subscribedObjects)
	writeInteractionTable(e, m.publishedInteractions)
	writeInteractionTable(e, m.subscribedInteractions)
	return e.Bytes()
}

// Restore replaces the manager's tables with the state encoded in
// data by a prior Save (spec §8 invariant 11: restore(save(S)) is
// observationally equal to S). The graph supplied to New is left
// untouched; only the publish/subscribe tables are restored.
func (m *Manager) Restore(data []byte) error {
	d := wire.NewDecoder(data)

	published, err := readObjectTable(d)
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "interest.Restore", err)
	}
	subscribed, err := readObjectTable(d)
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "interest.Restore", err)
	}
	publishedI, err := readInteractionTable(d)
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "interest.Restore", err)
	}
	subscribedI, err := readInteractionTable(d)
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "interest.Restore", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedObjects = published
	m.subscribedObjects = subscribed
	m.publishedInteractions = publishedI
	m.subscribedInteractions = subscribedI
	return nil
}

func writeObjectTable(e *wire.Encoder, table map[handle.ObjectClass]map[handle.Federate]*objectEntry) {
	e.StartArray(len(table))
	for c, byFederate := range table {
		e.StartStruct()
		e.PutInt32(int32(c))
		e.StartArray(len(byFederate))
		for f, entry := range byFederate {
			e.StartStruct()
			e.PutInt32(int32(f))
			e.StartArray(len(entry.attrs))
			for a := range entry.attrs {
				e.PutInt32(int32(a))
			}
			e.EndArray()
			writeRegion(e, entry.region)
			e.EndStruct()
		}
		e.EndArray()
		e.EndStruct()
	}
	e.EndArray()
}

func readObjectTable(d *wire.Decoder) (map[handle.ObjectClass]map[handle.Federate]*objectEntry, error) {
	n, err := d.StartArray()
	if err != nil {
		return nil, err
	}
	table := make(map[handle.ObjectClass]map[handle.Federate]*objectEntry, n)
	for i := 0; i < n; i++ {
		if err := d.StartStruct(); err != nil {
			return nil, err
		}
		c, err := d.Int32()
		if err != nil {
			return nil, err
		}
		fn, err := d.StartArray()
		if err != nil {
			return nil, err
		}
		byFederate := make(map[handle.Federate]*objectEntry, fn)
		for j := 0; j < fn; j++ {
			if err := d.StartStruct(); err != nil {
				return nil, err
			}
			f, err := d.Int32()
			if err != nil {
				return nil, err
			}
			an, err := d.StartArray()
			if err != nil {
				return nil, err
			}
			attrs := make(map[handle.Attribute]struct{}, an)
			for k := 0; k < an; k++ {
				a, err := d.Int32()
				if err != nil {
					return nil, err
				}
				attrs[handle.Attribute(a)] = struct{}{}
			}
			if err := d.EndArray(); err != nil {
				return nil, err
			}
			reg, err := readRegion(d)
			if err != nil {
				return nil, err
			}
			if err := d.EndStruct(); err != nil {
				return nil, err
			}
			byFederate[handle.Federate(f)] = &objectEntry{attrs: attrs, region: reg}
		}
		if err := d.EndArray(); err != nil {
			return nil, err
		}
		if err := d.EndStruct(); err != nil {
			return nil, err
		}
		table[handle.ObjectClass(c)] = byFederate
	}
	if err := d.EndArray(); err != nil {
		return nil, err
	}
	return table, nil
}

func writeInteractionTable(e *wire.Encoder, table map[handle.InteractionClass]map[handle.Federate]*interactionEntry) {
	e.StartArray(len(table))
	for i, byFederate := range table {
		e.StartStruct()
		e.PutInt32(int32(i))
		e.StartArray(len(byFederate))
		for f, entry := range byFederate {
			e.StartStruct()
			e.PutInt32(int32(f))
			writeRegion(e, entry.region)
			e.EndStruct()
		}
		e.EndArray()
		e.EndStruct()
	}
	e.EndArray()
}

func readInteractionTable(d *wire.Decoder) (map[handle.InteractionClass]map[handle.Federate]*interactionEntry, error) {
	n, err := d.StartArray()
	if err != nil {
		return nil, err
	}
	table := make(map[handle.InteractionClass]map[handle.Federate]*interactionEntry, n)
	for i := 0; i < n; i++ {
		if err := d.StartStruct(); err != nil {
			return nil, err
		}
		ic, err := d.Int32()
		if err != nil {
			return nil, err
		}
		fn, err := d.StartArray()
		if err != nil {
			return nil, err
		}
		byFederate := make(map[handle.Federate]*interactionEntry, fn)
		for j := 0; j < fn; j++ {
			if err := d.StartStruct(); err != nil {
				return nil, err
			}
			f, err := d.Int32()
			if err != nil {
				return nil, err
			}
			reg, err := readRegion(d)
			if err != nil {
				return nil, err
			}
			if err := d.EndStruct(); err != nil {
				return nil, err
			}
			byFederate[handle.Federate(f)] = &interactionEntry{region: reg}
		}
		if err := d.EndArray(); err != nil {
			return nil, err
		}
		if err := d.EndStruct(); err != nil {
			return nil, err
		}
		table[handle.InteractionClass(ic)] = byFederate
	}
	if err := d.EndArray(); err != nil {
		return nil, err
	}
	return table, nil
}

// writeRegion encodes r inline, or a null marker when r is nil.
func writeRegion(e *wire.Encoder, r *region.Region) {
	if r == nil {
		e.PutNull()
		return
	}
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

func readRegion(d *wire.Decoder) (*region.Region, error) {
	if d.PeekIsNull() {
		return nil, nil
	}
	if err := d.StartStruct(); err != nil {
		return nil, err
	}
	h, err := d.Int32()
	if err != nil {
		return nil, err
	}
	space, err := d.Int32()
	if err != nil {
		return nil, err
	}
	n, err := d.StartArray()
	if err != nil {
		return nil, err
	}
	ranges := make([]region.Range, 0, n)
	for i := 0; i < n; i++ {
		dim, err := d.Int32()
		if err != nil {
			return nil, err
		}
		lower, err := d.Int64()
		if err != nil {
			return nil, err
		}
		upper, err := d.Int64()
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, region.Range{Dimension: handle.Dimension(dim), Lower: lower, Upper: upper})
	}
	if err := d.EndArray(); err != nil {
		return nil, err
	}
	if err := d.EndStruct(); err != nil {
		return nil, err
	}
	return &region.Region{Handle: handle.Region(h), Space: handle.Dimension(space), Extent: region.Extent{Ranges: ranges}}, nil
}
