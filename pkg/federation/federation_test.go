package federation

import (
	"sync"
	"testing"
	"time"

	"github.com/gletthereblight/portico/pkg/conn"
	"github.com/gletthereblight/portico/pkg/fom"
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/rtimsg"
	"github.com/gletthereblight/portico/pkg/wire"
)

// echoReceiver is a minimal conn.AppReceiver that accepts everything
// and echoes control requests back as a successful response.
type echoReceiver struct {
	mu           sync.Mutex
	dataMessages []rtimsg.PorticoMessage
	controlReqs  []rtimsg.PorticoMessage
}

func (r *echoReceiver) IsReceivable(wire.Header) bool { return true }

func (r *echoReceiver) ReceiveDataMessage(m rtimsg.PorticoMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dataMessages = append(r.dataMessages, m)
}

func (r *echoReceiver) ReceiveNotification(rtimsg.PorticoMessage) {}

func (r *echoReceiver) ReceiveControlRequest(ctx *conn.ControlContext) {
	r.mu.Lock()
	r.controlReqs = append(r.controlReqs, ctx.Request)
	r.mu.Unlock()
	ctx.Response = ctx.Request
}

func (r *echoReceiver) count() (data, control int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dataMessages), len(r.controlReqs)
}

// loopbackPair wires two Connections back-to-back so frames pushed
// down one stack arrive as inbound frames on the other, mirroring
// pkg/conn's own test helper.
func loopbackPair(t *testing.T, recvA, recvB conn.AppReceiver) (a, b *conn.Connection) {
	t.Helper()
	var connA, connB *conn.Connection
	var err error

	connA, err = conn.New(conn.Config{
		AppReceiver: recvA,
		TransportDown: func(frame []byte, ct wire.CallType) error {
			connB.Stack().Up(frame)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New(a): %v", err)
	}
	connB, err = conn.New(conn.Config{
		AppReceiver: recvB,
		TransportDown: func(frame []byte, ct wire.CallType) error {
			connA.Stack().Up(frame)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New(b): %v", err)
	}
	if err := connA.Open(); err != nil {
		t.Fatalf("Open(a): %v", err)
	}
	if err := connB.Open(); err != nil {
		t.Fatalf("Open(b): %v", err)
	}
	return connA, connB
}

func probe(source, target handle.Federate) *rtimsg.RtiProbe {
	return &rtimsg.RtiProbe{BaseMessage: rtimsg.BaseMessage{
		SourceFederate: source,
		TargetFederate: target,
		Timestamp:      rtimsg.NullTime,
	}}
}

func testGraph() *fom.StaticGraph {
	return &fom.StaticGraph{
		Objects:      map[handle.ObjectClass]fom.ObjectClassDef{},
		Interactions: map[handle.InteractionClass]fom.InteractionClassDef{},
	}
}

func TestJoinAndResignMaintainConnectionSetInvariant(t *testing.T) {
	f := New(1, "Test", "1516-2010", nil, Config{Graph: testGraph()})
	defer f.Close()

	recvA := &echoReceiver{}
	connA, _ := loopbackPair(t, recvA, &echoReceiver{})

	fed := NewFederate(f.AllocateFederateHandle(), "f1", "sim", "1516-2010", connA, nil)
	if err := f.Join(fed); err != nil {
		t.Fatalf("Join: %v", err)
	}

	f.mu.RLock()
	_, hasConn := f.connections[connA]
	f.mu.RUnlock()
	if !hasConn {
		t.Fatal("expected connection set to include the joined federate's connection")
	}

	if err := f.Resign(fed.Handle); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	f.mu.RLock()
	_, hasConn = f.connections[connA]
	f.mu.RUnlock()
	if hasConn {
		t.Fatal("expected connection removed from the set after the last federate using it resigns")
	}
}

func TestJoinDuplicateHandleRejected(t *testing.T) {
	f := New(1, "Test", "1516-2010", nil, Config{Graph: testGraph()})
	defer f.Close()

	fed := NewFederate(1, "f1", "sim", "1516-2010", nil, nil)
	if err := f.Join(fed); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := f.Join(fed); err != ErrFederateAlreadyJoined {
		t.Fatalf("got %v, want ErrFederateAlreadyJoined", err)
	}
}

func TestResignUnknownFederateErrors(t *testing.T) {
	f := New(1, "Test", "1516-2010", nil, Config{Graph: testGraph()})
	defer f.Close()

	if err := f.Resign(99); err != ErrFederateNotFound {
		t.Fatalf("got %v, want ErrFederateNotFound", err)
	}
}

func TestQueueControlMessageStampsFromRTIAndDelivers(t *testing.T) {
	f := New(1, "Test", "1516-2010", nil, Config{Graph: testGraph()})
	defer f.Close()

	recv := &echoReceiver{}
	connA, _ := loopbackPair(t, recv, &echoReceiver{})
	fed := NewFederate(f.AllocateFederateHandle(), "f1", "sim", "1516-2010", connA, nil)
	if err := f.Join(fed); err != nil {
		t.Fatalf("Join: %v", err)
	}

	m := probe(0, 0)
	if err := f.QueueControlMessage(m); err != nil {
		t.Fatalf("QueueControlMessage: %v", err)
	}
	if !m.Base().FromRTI {
		t.Fatal("expected FromRTI to be stamped true")
	}
	if m.Base().SourceFederate != handle.RTIHandle {
		t.Fatalf("source = %v, want RTIHandle", m.Base().SourceFederate)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, control := recv.count(); control > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for outgoing processor to deliver the queued control message")
}

func TestQueueControlMessageDropsWhenQueueFull(t *testing.T) {
	f := New(1, "Test", "1516-2010", nil, Config{Graph: testGraph(), OutgoingQueueCapacity: 1})
	defer f.Close()

	// No federates joined, so the outgoing processor has nothing to
	// deliver to and messages accumulate until the queue is full.
	if err := f.QueueControlMessage(probe(0, 0)); err != nil {
		t.Fatalf("first queue: %v", err)
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	var lastErr error
	for time.Now().Before(deadline) {
		lastErr = f.QueueControlMessage(probe(0, 0))
		if lastErr == ErrOutgoingQueueFull {
			return
		}
	}
	t.Fatalf("expected ErrOutgoingQueueFull eventually, last error: %v", lastErr)
}

func TestQueueDataMessageExcludesSenderConnection(t *testing.T) {
	f := New(1, "Test", "1516-2010", nil, Config{Graph: testGraph()})
	defer f.Close()

	recvA := &echoReceiver{}
	recvB := &echoReceiver{}
	connA, _ := loopbackPair(t, recvA, &echoReceiver{})
	connB, _ := loopbackPair(t, recvB, &echoReceiver{})

	if err := f.Join(NewFederate(f.AllocateFederateHandle(), "f1", "sim", "1516-2010", connA, nil)); err != nil {
		t.Fatalf("Join a: %v", err)
	}
	if err := f.Join(NewFederate(f.AllocateFederateHandle(), "f2", "sim", "1516-2010", connB, nil)); err != nil {
		t.Fatalf("Join b: %v", err)
	}

	if err := f.QueueDataMessage(probe(1, -2), connA); err != nil {
		t.Fatalf("QueueDataMessage: %v", err)
	}

	dataA, _ := recvA.count()
	dataB, _ := recvB.count()
	if dataA != 0 {
		t.Fatal("sender's own connection must not receive its own data message (no loopback)")
	}
	if dataB != 1 {
		t.Fatalf("other connection received %d data messages, want 1", dataB)
	}
}

func TestRtiContextCreateDuplicateNameRejected(t *testing.T) {
	rc := NewRtiContext()
	cfg := Config{Graph: testGraph()}
	f, err := rc.CreateFederation("Alpha", "1516-2010", nil, cfg)
	if err != nil {
		t.Fatalf("CreateFederation: %v", err)
	}
	defer rc.DestroyFederation(f.Handle)

	if _, err := rc.CreateFederation("Alpha", "1516-2010", nil, cfg); err != ErrFederationExists {
		t.Fatalf("got %v, want ErrFederationExists", err)
	}
}

func TestRtiContextDestroyUnknownFederationErrors(t *testing.T) {
	rc := NewRtiContext()
	if err := rc.DestroyFederation(999); err != ErrFederationNotFound {
		t.Fatalf("got %v, want ErrFederationNotFound", err)
	}
}

func TestRtiContextLookupAfterDestroy(t *testing.T) {
	rc := NewRtiContext()
	f, err := rc.CreateFederation("Beta", "1516-2010", nil, Config{Graph: testGraph()})
	if err != nil {
		t.Fatalf("CreateFederation: %v", err)
	}
	if err := rc.DestroyFederation(f.Handle); err != nil {
		t.Fatalf("DestroyFederation: %v", err)
	}
	if _, ok := rc.Lookup(f.Handle); ok {
		t.Fatal("expected federation to be gone after destroy")
	}
}
