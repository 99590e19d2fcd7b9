package transport

import "net"

// NewLoopbackPair returns two in-memory net.Conn endpoints wired
// together with net.Pipe, the same deterministic loopback idiom the
// teacher uses in its transport tests. Callers wrap each end in its
// own TCP transport to exercise the bundler/framing stack without a
// real socket.
func NewLoopbackPair() (a, b net.Conn) {
	return net.Pipe()
}
