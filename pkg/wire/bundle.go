package wire

import (
	"encoding/binary"
	"io"
)

// BundleMagic is the 32-bit magic value that opens every bundle frame
// written by the TCP bundled-stream transport (spec §6).
const BundleMagic uint32 = 0xCAFE

// BundleFrameOverhead is the magic (4) plus length (4) prefix every
// bundle carries on the wire, used by the conservation property
// (spec §8 invariant 3: "+ 8·numBundles").
const BundleFrameOverhead = 8

// EncodeBundle frames payload (the concatenation of one or more
// already-header-encoded messages) as 0xCAFE ‖ N ‖ payload.
func EncodeBundle(payload []byte) []byte {
	buf := make([]byte, BundleFrameOverhead+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], BundleMagic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[8:], payload)
	return buf
}

// ReadBundle reads one framed bundle from r and returns its inner
// bytes. A magic mismatch is a connection-level fatal error per
// spec §6.
func ReadBundle(r io.Reader) ([]byte, error) {
	var prefix [BundleFrameOverhead]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	magic := binary.BigEndian.Uint32(prefix[0:4])
	if magic != BundleMagic {
		return nil, ErrBadMagic
	}
	n := binary.BigEndian.Uint32(prefix[4:8])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// SplitBundle iterates the individual header-framed messages inside a
// decoded bundle payload, invoking fn with each message's full byte
// range (header + payload, excluding any trailing auth/nonce which is
// accounted for by Header.TotalSize). Receiver invariant (spec §4.2):
// every bundle's byte count equals the sum of each inner message's
// TotalSize.
func SplitBundle(payload []byte, fn func(msg []byte) error) error {
	off := 0
	for off < len(payload) {
		h, err := DecodeHeader(payload[off:])
		if err != nil {
			return err
		}
		total := h.TotalSize()
		if off+total > len(payload) {
			return ErrMessageTooShort
		}
		if err := fn(payload[off : off+total]); err != nil {
			return err
		}
		off += total
	}
	return nil
}
