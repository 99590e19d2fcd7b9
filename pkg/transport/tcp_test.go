package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/gletthereblight/portico/pkg/wire"
)

func newTestPair(t *testing.T) (*TCP, *TCP, *[][]byte, *[][]byte) {
	t.Helper()
	connA, connB := NewLoopbackPair()

	var muA, muB sync.Mutex
	var gotA, gotB [][]byte

	a, err := NewTCP(TCPConfig{
		Conn: connA,
		UpHandler: func(frame []byte) {
			muA.Lock()
			gotA = append(gotA, append([]byte(nil), frame...))
			muA.Unlock()
		},
		BundlerTimeLimit: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewTCP(a): %v", err)
	}
	b, err := NewTCP(TCPConfig{
		Conn: connB,
		UpHandler: func(frame []byte) {
			muB.Lock()
			gotB = append(gotB, append([]byte(nil), frame...))
			muB.Unlock()
		},
		BundlerTimeLimit: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewTCP(b): %v", err)
	}
	if err := a.Open(); err != nil {
		t.Fatalf("Open(a): %v", err)
	}
	if err := b.Open(); err != nil {
		t.Fatalf("Open(b): %v", err)
	}
	return a, b, &gotA, &gotB
}

func waitFor(t *testing.T, mu *sync.Mutex, got *[][]byte, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		l := len(*got)
		mu.Unlock()
		if l >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames", n)
}

func TestTCPTransportRoundTrip(t *testing.T) {
	a, b, _, gotB := newTestPair(t)
	defer a.Close()
	defer b.Close()

	var mu sync.Mutex
	frame := []byte{0x01, 0x02, 0x03}
	if err := a.Down(frame, wire.CallTypeNotification); err != nil {
		t.Fatalf("Down: %v", err)
	}
	waitFor(t, &mu, gotB, 1)

	if len(*gotB) != 1 || string((*gotB)[0]) != string(frame) {
		t.Fatalf("got %v, want [%v]", *gotB, frame)
	}
}

func TestTCPTransportDownAfterCloseFails(t *testing.T) {
	a, b, _, _ := newTestPair(t)
	defer b.Close()
	a.Close()

	if err := a.Down([]byte{0x01}, wire.CallTypeDataMessage); err != ErrClosed {
		t.Fatalf("Down after close = %v, want ErrClosed", err)
	}
}
