package bundler

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/gletthereblight/portico/pkg/wire"
)

func readBundles(t *testing.T, buf *syncBuffer, want int, timeout time.Duration) [][]byte {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var out [][]byte
	for len(out) < want && time.Now().Before(deadline) {
		r := bytes.NewReader(buf.Snapshot())
		out = out[:0]
		for {
			b, err := wire.ReadBundle(r)
			if err != nil {
				break
			}
			out = append(out, b)
		}
		if len(out) < want {
			time.Sleep(time.Millisecond)
		}
	}
	return out
}

// syncBuffer is a concurrency-safe io.Writer wrapper so tests can poll
// the bundler's output from another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out
}

func TestBundlerSizeTrigger(t *testing.T) {
	out := &syncBuffer{}
	b := New(Config{SizeLimit: 1024, TimeLimit: 10 * time.Second, Writer: out})
	defer b.Close()

	frame := bytes.Repeat([]byte{0xAB}, 60)
	var submitted int
	for i := 0; i < 20; i++ {
		if err := b.Submit(frame, wire.CallTypeDataMessage); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		submitted += len(frame)
		if submitted > 1024 {
			break
		}
	}

	bundles := readBundles(t, out, 1, time.Second)
	if len(bundles) != 1 {
		t.Fatalf("got %d bundles, want 1", len(bundles))
	}
	if len(bundles[0]) != submitted {
		t.Fatalf("bundle payload = %d bytes, want %d", len(bundles[0]), submitted)
	}
}

func TestBundlerTimeTrigger(t *testing.T) {
	out := &syncBuffer{}
	b := New(Config{SizeLimit: 1 << 20, TimeLimit: 20 * time.Millisecond, Writer: out})
	defer b.Close()

	frame := bytes.Repeat([]byte{0x01}, 100)
	if err := b.Submit(frame, wire.CallTypeDataMessage); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	bundles := readBundles(t, out, 1, time.Second)
	if len(bundles) != 1 {
		t.Fatalf("got %d bundles, want 1", len(bundles))
	}
	if len(bundles[0]) != 100 {
		t.Fatalf("bundle payload = %d bytes, want 100", len(bundles[0]))
	}
}

func TestBundlerEagerFlushOnNotification(t *testing.T) {
	out := &syncBuffer{}
	b := New(Config{SizeLimit: 1 << 20, TimeLimit: 10 * time.Second, Writer: out})
	defer b.Close()

	frame := []byte{0x01, 0x02, 0x03}
	if err := b.Submit(frame, wire.CallTypeNotification); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Submit blocks until the eager flush completes, so the bundle must
	// already be on the wire.
	snap := out.Snapshot()
	if len(snap) == 0 {
		t.Fatalf("expected immediate flush, wire is empty")
	}
}

func TestBundlerDisabledFlushesEverySubmit(t *testing.T) {
	out := &syncBuffer{}
	disabled := false
	b := New(Config{Enabled: &disabled, SizeLimit: 1 << 20, TimeLimit: 10 * time.Second, Writer: out})
	defer b.Close()

	for i := 0; i < 3; i++ {
		if err := b.Submit([]byte{byte(i)}, wire.CallTypeDataMessage); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	bundles := readBundles(t, out, 3, time.Second)
	if len(bundles) != 3 {
		t.Fatalf("got %d bundles, want 3", len(bundles))
	}
}

func TestBundlerConservation(t *testing.T) {
	out := &syncBuffer{}
	b := New(Config{SizeLimit: 200, TimeLimit: 10 * time.Second, Writer: out})
	defer b.Close()

	var totalFrameBytes int
	for i := 0; i < 50; i++ {
		frame := bytes.Repeat([]byte{byte(i)}, 13)
		totalFrameBytes += len(frame)
		if err := b.Submit(frame, wire.CallTypeDataMessage); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	// Force a final flush of any remainder still buffered (Close would
	// otherwise drop it per spec §5's shutdown semantics).
	if err := b.Submit(nil, wire.CallTypeNotification); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	r := bytes.NewReader(out.Snapshot())
	var numBundles, bundleBytes int
	for {
		bb, err := wire.ReadBundle(r)
		if err != nil {
			break
		}
		numBundles++
		bundleBytes += len(bb)
	}
	if bundleBytes != totalFrameBytes {
		t.Fatalf("conservation violated: wire payload bytes = %d, submitted = %d", bundleBytes, totalFrameBytes)
	}
	wireBytes := len(out.Snapshot())
	if wireBytes != bundleBytes+wire.BundleFrameOverhead*numBundles {
		t.Fatalf("wire bytes = %d, want %d", wireBytes, bundleBytes+wire.BundleFrameOverhead*numBundles)
	}
}
