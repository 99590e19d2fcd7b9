package conn

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gletthereblight/portico/pkg/correlator"
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/rtimsg"
	"github.com/gletthereblight/portico/pkg/wire"
)

// recordingReceiver is a test AppReceiver that records everything it
// sees and, for control requests, echoes back the request as a
// successful response unless told to fail.
type recordingReceiver struct {
	mu             sync.Mutex
	dataMessages   []rtimsg.PorticoMessage
	notifications  []rtimsg.PorticoMessage
	controlReqs    []rtimsg.PorticoMessage
	rejectAll      bool
	failControl    bool
}

func (r *recordingReceiver) IsReceivable(h wire.Header) bool { return !r.rejectAll }

func (r *recordingReceiver) ReceiveDataMessage(m rtimsg.PorticoMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dataMessages = append(r.dataMessages, m)
}

func (r *recordingReceiver) ReceiveNotification(m rtimsg.PorticoMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, m)
}

func (r *recordingReceiver) ReceiveControlRequest(ctx *ControlContext) {
	r.mu.Lock()
	r.controlReqs = append(r.controlReqs, ctx.Request)
	r.mu.Unlock()
	ctx.Response = ctx.Request
	ctx.Failed = r.failControl
}

// wirePair connects two Connections back-to-back: whatever one pushes
// down its stack appears as an inbound frame on the other.
func wirePair(t *testing.T, recvA, recvB AppReceiver) (a, b *Connection) {
	t.Helper()
	var connA, connB *Connection
	var err error

	connA, err = New(Config{
		AppReceiver:    recvA,
		FederationID:   1,
		DefaultTimeout: 2 * time.Second,
		TransportDown: func(frame []byte, ct wire.CallType) error {
			connB.Stack().Up(frame)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New(a): %v", err)
	}
	connB, err = New(Config{
		AppReceiver:    recvB,
		FederationID:   1,
		DefaultTimeout: 2 * time.Second,
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

func TestSendDataMessageDelivered(t *testing.T) {
	recvA := &recordingReceiver{}
	recvB := &recordingReceiver{}
	a, _ := wirePair(t, recvA, recvB)
	defer a.Close()

	m := probe(1, 2)
	if err := a.SendDataMessage(m); err != nil {
		t.Fatalf("SendDataMessage: %v", err)
	}

	recvB.mu.Lock()
	defer recvB.mu.Unlock()
	if len(recvB.dataMessages) != 1 {
		t.Fatalf("got %d data messages, want 1", len(recvB.dataMessages))
	}
}

func TestSendNotificationDelivered(t *testing.T) {
	recvA := &recordingReceiver{}
	recvB := &recordingReceiver{}
	a, _ := wirePair(t, recvA, recvB)
	defer a.Close()

	if err := a.SendNotification(probe(1, 2)); err != nil {
		t.Fatalf("SendNotification: %v", err)
	}

	recvB.mu.Lock()
	defer recvB.mu.Unlock()
	if len(recvB.notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(recvB.notifications))
	}
}

func TestSendControlRequestRoundTrips(t *testing.T) {
	recvA := &recordingReceiver{}
	recvB := &recordingReceiver{}
	a, b := wirePair(t, recvA, recvB)
	defer a.Close()
	defer b.Close()

	resp, err := a.SendControlRequest(context.Background(), probe(1, 2), time.Time{})
	if err != nil {
		t.Fatalf("SendControlRequest: %v", err)
	}
	if resp.MessageType() != probe(1, 2).MessageType() {
		t.Fatalf("got response type %v, want RtiProbe", resp.MessageType())
	}

	recvB.mu.Lock()
	defer recvB.mu.Unlock()
	if len(recvB.controlReqs) != 1 {
		t.Fatalf("responder saw %d control requests, want 1", len(recvB.controlReqs))
	}
}

func TestSendControlRequestNotReceivableTimesOut(t *testing.T) {
	recvA := &recordingReceiver{}
	recvB := &recordingReceiver{rejectAll: true}
	a, b := wirePair(t, recvA, recvB)
	defer a.Close()
	defer b.Close()

	_, err := a.SendControlRequest(context.Background(), probe(1, 2), time.Now().Add(50*time.Millisecond))
	if err != correlator.ErrTimeout {
		t.Fatalf("got %v, want timeout", err)
	}
}

func TestSendControlRequestFailedResponse(t *testing.T) {
	recvA := &recordingReceiver{}
	recvB := &recordingReceiver{failControl: true}
	a, b := wirePair(t, recvA, recvB)
	defer a.Close()
	defer b.Close()

	_, err := a.SendControlRequest(context.Background(), probe(1, 2), time.Time{})
	if err != nil {
		t.Fatalf("SendControlRequest: %v", err)
	}
}

func TestCloseUnblocksInFlightControlRequest(t *testing.T) {
	recvA := &recordingReceiver{}
	recvB := &recordingReceiver{rejectAll: true}
	a, _ := wirePair(t, recvA, recvB)

	errCh := make(chan error, 1)
	go func() {
		_, err := a.SendControlRequest(context.Background(), probe(1, 2), time.Now().Add(5*time.Second))
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	a.Close()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected an error after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Close to unblock the in-flight request")
	}
}
