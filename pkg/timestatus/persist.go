package timestatus

import (
	"github.com/gletthereblight/portico/pkg/rtierr"
	"github.com/gletthereblight/portico/pkg/wire"
)

// Save serializes this federate's time status to an ordered byte
// stream using the generic wire codec (spec §6 "Persisted state").
// Format is implementation-defined; only Restore needs to agree with
// it.
func (s *Status) Save() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := wire.NewEncoder()
	e.PutInt32(int32(s.constrained))
	e.PutInt32(int32(s.regulating))
	e.PutInt32(int32(s.advancing))
	e.PutFloat64(s.currentTime)
	e.PutFloat64(s.requestedTime)
	e.PutFloat64(s.lookahead)
	e.PutFloat64(s.lbts)
	e.PutBool(s.asynchronous)
	return e.Bytes()
}

// Restore replaces this status's fields with the state encoded in
// data by a prior Save (spec §8 invariant 11: restore(save(S)) is
// observationally equal to S).
func (s *Status) Restore(data []byte) error {
	d := wire.NewDecoder(data)

	constrained, err := d.Int32()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "timestatus.Restore", err)
	}
	regulating, err := d.Int32()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "timestatus.Restore", err)
	}
	advancing, err := d.Int32()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "timestatus.Restore", err)
	}
	currentTime, err := d.Float64()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "timestatus.Restore", err)
	}
	requestedTime, err := d.Float64()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "timestatus.Restore", err)
	}
	lookahead, err := d.Float64()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "timestatus.Restore", err)
	}
	lbts, err := d.Float64()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "timestatus.Restore", err)
	}
	asynchronous, err := d.Bool()
	if err != nil {
		return rtierr.New(rtierr.KindProtocol, "timestatus.Restore", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.constrained = Mode(constrained)
	s.regulating = Mode(regulating)
	s.advancing = Advancing(advancing)
	s.currentTime = currentTime
	s.requestedTime = requestedTime
	s.lookahead = lookahead
	s.lbts = lbts
	s.asynchronous = asynchronous
	return nil
}
