package main

import (
	"sync"

	"github.com/gletthereblight/portico/pkg/conn"
	"github.com/gletthereblight/portico/pkg/federation"
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/region"
	"github.com/gletthereblight/portico/pkg/rtimsg"
	"github.com/gletthereblight/portico/pkg/sink"
	"github.com/gletthereblight/portico/pkg/timestatus"
	"github.com/gletthereblight/portico/pkg/wire"
	"github.com/pion/logging"
)

// session is the AppReceiver for one accepted connection: it owns a
// Sink wired with handlers for every control message type, and tracks
// which federation/federate this connection has joined, if any.
// Grounded on backkem-matter/pkg/exchange.Manager's per-peer handler
// registry, generalized here from one ProtocolHandler per exchange to
// one Sink per Connection.
type session struct {
	mu  sync.Mutex
	srv *Server
	c   *conn.Connection
	log logging.LeveledLogger

	fed    *federation.Federation
	fh     handle.Federate
	joined bool

	sink *sink.Sink
}

func newSession(srv *Server) *session {
	s := &session{srv: srv}
	if srv.loggerFactory != nil {
		s.log = srv.loggerFactory.NewLogger("rti-session")
	}
	s.sink = sink.New(sink.Config{LoggerFactory: srv.loggerFactory})
	s.registerHandlers()
	return s
}

func (s *session) IsReceivable(wire.Header) bool { return true }

func (s *session) ReceiveDataMessage(m rtimsg.PorticoMessage) {
	s.mu.Lock()
	fed, fh := s.fed, s.fh
	s.mu.Unlock()
	if fed == nil {
		return
	}
	m.Base().SourceFederate = fh
	if err := fed.QueueDataMessage(m, s.c); err != nil && s.log != nil {
		s.log.Warnf("data message fan-out failed: %v", err)
	}
}

func (s *session) ReceiveNotification(rtimsg.PorticoMessage) {}

func (s *session) ReceiveControlRequest(ctx *conn.ControlContext) {
	c := &sink.Context{Request: ctx.Request}
	if err := s.sink.Dispatch(c); err != nil {
		ctx.Failed = true
		ctx.Response = ctx.Request
		if s.log != nil {
			s.log.Warnf("control request failed: %v", err)
		}
		return
	}
	if c.Response == nil {
		c.Response = ctx.Request
	}
	ctx.Response = c.Response
}

// registerHandlers wires one sink.Handler per control message type
// this demo RTI process understands. Each handler is single-mode: a
// given connection addresses exactly one federate relationship, so
// there is never a need for chained handlers here.
func (s *session) registerHandlers() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(s.sink.RegisterSingle(wire.MessageTypeRtiProbe, s.handleProbe))
	must(s.sink.RegisterSingle(wire.MessageTypeCreateFederation, s.handleCreateFederation))
	must(s.sink.RegisterSingle(wire.MessageTypeDestroyFederation, s.handleDestroyFederation))
	must(s.sink.RegisterSingle(wire.MessageTypeJoinFederation, s.handleJoinFederation))
	must(s.sink.RegisterSingle(wire.MessageTypeResignFederation, s.handleResignFederation))
	must(s.sink.RegisterSingle(wire.MessageTypePublishObjectClass, s.handlePublishObjectClass))
	must(s.sink.RegisterSingle(wire.MessageTypeUnpublishObjectClass, s.handleUnpublishObjectClass))
	must(s.sink.RegisterSingle(wire.MessageTypeSubscribeObjectClass, s.handleSubscribeObjectClass))
	must(s.sink.RegisterSingle(wire.MessageTypeUnsubscribeObjectClass, s.handleUnsubscribeObjectClass))
	must(s.sink.RegisterSingle(wire.MessageTypePublishInteractionClass, s.handlePublishInteractionClass))
	must(s.sink.RegisterSingle(wire.MessageTypeUnpublishInteractionClass, s.handleUnpublishInteractionClass))
	must(s.sink.RegisterSingle(wire.MessageTypeSubscribeInteractionClass, s.handleSubscribeInteractionClass))
	must(s.sink.RegisterSingle(wire.MessageTypeUnsubscribeInteractionClass, s.handleUnsubscribeInteractionClass))
	must(s.sink.RegisterSingle(wire.MessageTypeRegisterFederationSynchronizationPoint, s.handleRegisterSyncPoint))
	must(s.sink.RegisterSingle(wire.MessageTypeSynchronizationPointAchieved, s.handleSyncPointAchieved))
	must(s.sink.RegisterSingle(wire.MessageTypeTimeAdvanceRequest, s.handleTimeAdvanceRequest))
	must(s.sink.RegisterSingle(wire.MessageTypeTimeAdvanceRequestAvailable, s.handleTimeAdvanceRequestAvailable))
	must(s.sink.RegisterSingle(wire.MessageTypeEnableTimeConstrained, s.handleEnableTimeConstrained))
	must(s.sink.RegisterSingle(wire.MessageTypeEnableTimeRegulation, s.handleEnableTimeRegulation))
}

func (s *session) handleProbe(ctx *sink.Context) error {
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleCreateFederation(ctx *sink.Context) error {
	req := ctx.Request.(*rtimsg.CreateFederation)
	_, err := s.srv.rc.CreateFederation(req.FederationName, "1516-2010", req.FomModules, s.srv.federationConfig())
	if err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleDestroyFederation(ctx *sink.Context) error {
	req := ctx.Request.(*rtimsg.DestroyFederation)
	fed, ok := s.srv.rc.LookupByName(req.FederationName)
	if !ok {
		return federation.ErrFederationNotFound
	}
	if err := s.srv.rc.DestroyFederation(fed.Handle); err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleJoinFederation(ctx *sink.Context) error {
	req := ctx.Request.(*rtimsg.JoinFederation)
	fed, ok := s.srv.rc.LookupByName(req.FederationName)
	if !ok {
		return federation.ErrFederationNotFound
	}

	fh := fed.AllocateFederateHandle()
	newFed := federation.NewFederate(fh, req.FederateName, req.FederateType, req.HLAVersion, s.c, req.AdditionalFoms)
	if err := fed.Join(newFed); err != nil {
		return err
	}

	s.mu.Lock()
	s.fed = fed
	s.fh = fh
	s.joined = true
	s.mu.Unlock()

	resp := req.Clone().(*rtimsg.JoinFederation)
	resp.Base().SourceFederate = fh
	ctx.Response = resp
	return nil
}

func (s *session) handleResignFederation(ctx *sink.Context) error {
	s.mu.Lock()
	fed, fh := s.fed, s.fh
	s.mu.Unlock()
	if fed == nil {
		return federation.ErrFederateNotFound
	}
	if err := fed.Resign(fh); err != nil {
		return err
	}
	s.mu.Lock()
	s.fed, s.joined = nil, false
	s.mu.Unlock()
	ctx.Response = ctx.Request
	return nil
}

func (s *session) currentFederation() (*federation.Federation, handle.Federate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fed, s.fh, s.joined
}

func (s *session) handlePublishObjectClass(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.PublishObjectClass)
	if err := fed.Interest.PublishObjectClass(fh, req.ObjectClass, req.Attributes); err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleUnpublishObjectClass(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.UnpublishObjectClass)
	if err := fed.Interest.UnpublishObjectClass(fh, req.ObjectClass, req.Attributes); err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) regionFor(fed *federation.Federation, h handle.Region) (*region.Region, error) {
	if h == handle.NullHandle {
		return nil, nil
	}
	r, ok := fed.Regions.Get(h)
	if !ok {
		return nil, federation.ErrFederateNotFound
	}
	return r, nil
}

func (s *session) handleSubscribeObjectClass(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.SubscribeObjectClass)
	reg, err := s.regionFor(fed, req.Region)
	if err != nil {
		return err
	}
	if err := fed.Interest.SubscribeObjectClass(fh, req.ObjectClass, req.Attributes, reg); err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleUnsubscribeObjectClass(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.UnsubscribeObjectClass)
	if err := fed.Interest.UnsubscribeObjectClass(fh, req.ObjectClass, req.Attributes); err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handlePublishInteractionClass(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.PublishInteractionClass)
	if err := fed.Interest.PublishInteractionClass(fh, req.InteractionClass); err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleUnpublishInteractionClass(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.UnpublishInteractionClass)
	if err := fed.Interest.UnpublishInteractionClass(fh, req.InteractionClass); err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleSubscribeInteractionClass(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.SubscribeInteractionClass)
	reg, err := s.regionFor(fed, req.Region)
	if err != nil {
		return err
	}
	if err := fed.Interest.SubscribeInteractionClass(fh, req.InteractionClass, reg); err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleUnsubscribeInteractionClass(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.UnsubscribeInteractionClass)
	if err := fed.Interest.UnsubscribeInteractionClass(fh, req.InteractionClass); err != nil {
		return err
	}
	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleRegisterSyncPoint(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.RegisterFederationSynchronizationPoint)
	if err := fed.SyncPoints.Register(req.Label, req.Tag, req.Subset, fh); err != nil {
		return err
	}

	announce := &rtimsg.AnnounceSynchronizationPoint{Label: req.Label, Tag: req.Tag}
	if err := fed.QueueControlMessage(announce); err != nil && s.log != nil {
		s.log.Warnf("failed to queue sync point announcement: %v", err)
	}

	ctx.Response = ctx.Request
	return nil
}

func (s *session) handleSyncPointAchieved(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.SynchronizationPointAchieved)
	if err := fed.SyncPoints.Achieve(req.Label, fh, fed.Federates()); err != nil {
		return err
	}
	if fed.SyncPoints.IsSynchronized(req.Label) {
		synced := &rtimsg.FederationSynchronized{Label: req.Label}
		if err := fed.QueueControlMessage(synced); err != nil && s.log != nil {
			s.log.Warnf("failed to queue synchronized notice: %v", err)
		}
	}
	ctx.Response = ctx.Request
	return nil
}

// sweepTimeAdvance recomputes the federation-wide LBTS and grants any
// pending time-advance request that has become satisfiable, pushing
// TimeAdvanceGrant directly to the owning federate's connection (spec
// §4.8: the grant is an RTI-initiated push, not a reply to the
// original request).
func (s *session) sweepTimeAdvance(fed *federation.Federation) {
	statuses := make([]*timestatus.Status, 0)
	feds := fed.Federates()
	byHandle := make(map[handle.Federate]*federation.Federate, len(feds))
	for _, h := range feds {
		f, ok := fed.Federate(h)
		if !ok {
			continue
		}
		byHandle[h] = f
		statuses = append(statuses, f.Time)
	}
	lbts := timestatus.FederationLBTS(statuses)

	for h, f := range byHandle {
		snap := f.Time.Snapshot()
		if snap.Advancing == timestatus.AdvancingNone {
			continue
		}
		if !f.Time.CanAdvance(lbts) {
			continue
		}
		grantTime := snap.RequestedTime
		f.Time.AdvanceFederate(grantTime)
		f.Time.AdvanceGrantCallbackProcessed(grantTime)
		if f.Connection == nil {
			continue
		}
		grant := &rtimsg.TimeAdvanceGrant{Time: grantTime}
		grant.Base().TargetFederate = h
		grant.Base().FromRTI = true
		if err := f.Connection.SendNotification(grant); err != nil && s.log != nil {
			s.log.Warnf("failed to deliver time advance grant to federate %d: %v", h, err)
		}
	}
}

func (s *session) handleTimeAdvanceRequest(ctx *sink.Context) error {
	return s.handleTimeAdvance(ctx, false)
}

func (s *session) handleTimeAdvanceRequestAvailable(ctx *sink.Context) error {
	return s.handleTimeAdvance(ctx, true)
}

func (s *session) handleTimeAdvance(ctx *sink.Context, tara bool) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	f, ok := fed.Federate(fh)
	if !ok {
		return federation.ErrFederateNotFound
	}

	var t float64
	if tara {
		t = ctx.Request.(*rtimsg.TimeAdvanceRequestAvailable).Time
	} else {
		t = ctx.Request.(*rtimsg.TimeAdvanceRequest).Time
	}
	if err := f.Time.TimeAdvanceRequested(t, tara); err != nil {
		return err
	}

	ctx.Response = ctx.Request
	s.sweepTimeAdvance(fed)
	return nil
}

func (s *session) handleEnableTimeConstrained(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	f, ok := fed.Federate(fh)
	if !ok {
		return federation.ErrFederateNotFound
	}
	f.Time.SetConstrained(timestatus.ModeOn)
	ctx.Response = ctx.Request
	s.sweepTimeAdvance(fed)
	return nil
}

func (s *session) handleEnableTimeRegulation(ctx *sink.Context) error {
	fed, fh, ok := s.currentFederation()
	if !ok {
		return federation.ErrFederateNotFound
	}
	f, ok := fed.Federate(fh)
	if !ok {
		return federation.ErrFederateNotFound
	}
	req := ctx.Request.(*rtimsg.EnableTimeRegulation)
	f.Time.SetLookahead(req.Lookahead)
	f.Time.SetRegulating(timestatus.ModeOn)
	ctx.Response = ctx.Request
	s.sweepTimeAdvance(fed)
	return nil
}
