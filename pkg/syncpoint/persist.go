package syncpoint

import (
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/rtierr"
	"github.com/gletthereblight/portico/pkg/wire"
)

// Save serializes every registered point to an ordered byte stream
// using the generic wire codec (spec §6 "Persisted state"). Format is
// implementation-defined; only Restore needs to agree with it.
func (m *Manager) Save() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e := wire.NewEncoder()
	e.StartArray(len(m.points))
	for _, p := range m.points {
		e.StartStruct()
		e.PutString(p.Label)
		e.PutBytes(p.Tag)
		e.StartArray(len(p.Subset))
		for _, f := range p.Subset {
			e.PutInt32(int32(f))
		}
		e.EndArray()
		e.PutInt32(int32(p.Registrant))
		e.StartArray(len(p.Achieved))
		for f := range p.Achieved {
			e.PutInt32(int32(f))
		}
		e.EndArray()
		e.PutInt32(int32(p.Status))
		e.EndStruct()
	}
	e.EndArray()
	return e.Bytes()
}

// Restore replaces the manager's point table with the state encoded
// in data by a prior Save (spec §8 invariant 11: restore(save(S)) is
// observationally equal to S).
func (m *Manager) Restore(data []byte) error {
	d := wire.NewDecoder(data)

	n, err := d.StartArray()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
	}
	points := make(map[string]*Point, n)
	for i := 0; i < n; i++ {
		if err := d.StartStruct(); err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}
		label, err := d.String()
		if err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}
		tag, err := d.Bytes()
		if err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}
		sn, err := d.StartArray()
		if err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}
		subset := make([]handle.Federate, 0, sn)
		for j := 0; j < sn; j++ {
			f, err := d.Int32()
			if err != nil {
				return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
			}
			subset = append(subset, handle.Federate(f))
		}
		if err := d.EndArray(); err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}
		registrant, err := d.Int32()
		if err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}
		an, err := d.StartArray()
		if err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}
		achieved := make(map[handle.Federate]struct{}, an)
		for j := 0; j < an; j++ {
			f, err := d.Int32()
			if err != nil {
				return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
			}
			achieved[handle.Federate(f)] = struct{}{}
		}
		if err := d.EndArray(); err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}
		status, err := d.Int32()
		if err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}
		if err := d.EndStruct(); err != nil {
			return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
		}

		points[label] = &Point{
			Label:      label,
			Tag:        tag,
			Subset:     subset,
			Registrant: handle.Federate(registrant),
			Achieved:   achieved,
			Status:     Status(status),
		}
	}
	if err := d.EndArray(); err != nil {
		return rtierr.New(rtierr.KindProtocol, "syncpoint.Restore", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = points
	return nil
}
