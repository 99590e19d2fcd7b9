package stack

import (
	"testing"

	"github.com/gletthereblight/portico/pkg/wire"
)

// echoProtocol passes everything through unchanged but records what it saw.
type echoProtocol struct {
	name      string
	downSeen  [][]byte
	upSeen    [][]byte
	openCount int
}

func (e *echoProtocol) Name() string { return e.name }
func (e *echoProtocol) Open() error  { e.openCount++; return nil }
func (e *echoProtocol) Close() error { return nil }
func (e *echoProtocol) HandleDown(ctx *Context, frame []byte, callType wire.CallType) error {
	e.downSeen = append(e.downSeen, frame)
	return ctx.PassDown(frame, callType)
}
func (e *echoProtocol) HandleUp(ctx *Context, frame []byte) {
	e.upSeen = append(e.upSeen, frame)
	ctx.PassUp(frame)
}

func TestStackDownReachesTransport(t *testing.T) {
	var gotDown []byte
	s := New(Config{
		TransportDown: func(frame []byte, ct wire.CallType) error {
			gotDown = frame
			return nil
		},
	})
	p := &echoProtocol{name: "auth"}
	if err := s.AddProtocol(p); err != nil {
		t.Fatalf("AddProtocol: %v", err)
	}
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	frame := []byte{1, 2, 3}
	if err := s.Down(frame, wire.CallTypeDataMessage); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if string(gotDown) != string(frame) {
		t.Fatalf("transport saw %v, want %v", gotDown, frame)
	}
	if len(p.downSeen) != 1 {
		t.Fatalf("protocol saw %d down frames, want 1", len(p.downSeen))
	}
}

func TestStackUpReachesApplication(t *testing.T) {
	var gotUp []byte
	s := New(Config{
		ApplicationUp: func(frame []byte) { gotUp = frame },
	})
	p := &echoProtocol{name: "auth"}
	if err := s.AddProtocol(p); err != nil {
		t.Fatalf("AddProtocol: %v", err)
	}

	frame := []byte{9, 8, 7}
	s.Up(frame)
	if string(gotUp) != string(frame) {
		t.Fatalf("application saw %v, want %v", gotUp, frame)
	}
	if len(p.upSeen) != 1 {
		t.Fatalf("protocol saw %d up frames, want 1", len(p.upSeen))
	}
}

func TestStackRejectsDuplicateName(t *testing.T) {
	s := New(Config{})
	if err := s.AddProtocol(&echoProtocol{name: "auth"}); err != nil {
		t.Fatalf("AddProtocol: %v", err)
	}
	if err := s.AddProtocol(&echoProtocol{name: "auth"}); err != ErrDuplicateName {
		t.Fatalf("got %v, want ErrDuplicateName", err)
	}
}

func TestStackRejectsReservedName(t *testing.T) {
	s := New(Config{})
	if err := s.AddProtocol(&echoProtocol{name: "$transport"}); err != ErrReservedName {
		t.Fatalf("got %v, want ErrReservedName", err)
	}
}

func TestAddProtocolOpensImmediatelyIfStackAlreadyOpen(t *testing.T) {
	s := New(Config{})
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	p := &echoProtocol{name: "late"}
	if err := s.AddProtocol(p); err != nil {
		t.Fatalf("AddProtocol: %v", err)
	}
	if p.openCount != 1 {
		t.Fatalf("openCount = %d, want 1", p.openCount)
	}
}

func TestMultipleProtocolsOrderPreserved(t *testing.T) {
	var order []string
	s := New(Config{
		TransportDown: func(frame []byte, ct wire.CallType) error { return nil },
	})
	mk := func(name string) *echoProtocol {
		return &echoProtocol{name: name}
	}
	first := mk("first")
	second := mk("second")
	recordingFirst := &recordingProtocol{echoProtocol: first, order: &order}
	recordingSecond := &recordingProtocol{echoProtocol: second, order: &order}
	if err := s.AddProtocol(recordingFirst); err != nil {
		t.Fatalf("AddProtocol(first): %v", err)
	}
	if err := s.AddProtocol(recordingSecond); err != nil {
		t.Fatalf("AddProtocol(second): %v", err)
	}

	if err := s.Down([]byte{1}, wire.CallTypeDataMessage); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}
}

// recordingProtocol wraps echoProtocol to record call order by name.
type recordingProtocol struct {
	*echoProtocol
	order *[]string
}

func (r *recordingProtocol) HandleDown(ctx *Context, frame []byte, callType wire.CallType) error {
	*r.order = append(*r.order, r.name)
	return ctx.PassDown(frame, callType)
}
