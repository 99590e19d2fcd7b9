package wire

import (
	"encoding/binary"
)

// HeaderSize is the fixed size, in bytes, of the wire header (spec §3).
const HeaderSize = 12

// AuthTokenSize is the size of the optional trailing authentication
// token, present when the authenticated flag is set.
const AuthTokenSize = 4

// EncryptionNonceSize is the size of the optional trailing encryption
// nonce, present when the encrypted flag is set.
const EncryptionNonceSize = 16

// MaxPayloadLen is the largest payload length the 24-bit length field
// can carry.
const MaxPayloadLen = 1<<24 - 1

// Flag bit positions within the header's Flags byte (offset 0).
const (
	flagBundle                 = 1 << 0
	flagEncrypted              = 1 << 1
	flagAuthenticated          = 1 << 2
	flagManuallyMarshalled     = 1 << 3
	flagFiltering              = 1 << 4
	flagFilteringIsObjectClass = 1 << 5
)

// Header is a zero-copy view over a 12-byte (or longer, for the
// optional trailing auth/nonce) wire buffer. Accessors read directly
// from the underlying buffer on every call so that header inspection
// for routing or filtering is free of decode-then-store overhead
// (spec §4.1: "never store decoded values inside the Header wrapper").
type Header struct {
	buf []byte
}

// NewHeader wraps an existing buffer of at least HeaderSize bytes.
// The buffer is not copied; mutating it mutates the header.
func NewHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrMessageTooShort
	}
	return Header{buf: buf}, nil
}

// Bytes returns the underlying buffer.
func (h Header) Bytes() []byte { return h.buf }

func (h Header) flags() uint8 { return h.buf[0] }

func (h Header) Bundle() bool { return h.flags()&flagBundle != 0 }

func (h Header) Encrypted() bool { return h.flags()&flagEncrypted != 0 }

func (h Header) Authenticated() bool { return h.flags()&flagAuthenticated != 0 }

func (h Header) ManuallyMarshalled() bool { return h.flags()&flagManuallyMarshalled != 0 }

func (h Header) Filtering() bool { return h.flags()&flagFiltering != 0 }

func (h Header) FilteringIsObjectClass() bool { return h.flags()&flagFilteringIsObjectClass != 0 }

// PayloadLen returns the 24-bit payload length field (offsets 1-3).
func (h Header) PayloadLen() uint32 {
	return uint32(h.buf[1])<<16 | uint32(h.buf[2])<<8 | uint32(h.buf[3])
}

// CallType returns the upper nibble of offset 4.
func (h Header) CallType() CallType {
	return CallType(h.buf[4] >> 4)
}

// FederationID returns the lower nibble of offset 4 (0-15).
func (h Header) FederationID() uint8 {
	return h.buf[4] & 0x0F
}

// MessageType returns the message type ID at offset 5.
func (h Header) MessageType() MessageType {
	return MessageType(h.buf[5])
}

// RequestOrFilteringID returns the 16-bit field at offsets 6-7: a
// correlator request ID for control traffic, or a filtering ID for
// data messages (spec §3).
func (h Header) RequestOrFilteringID() uint16 {
	return binary.BigEndian.Uint16(h.buf[6:8])
}

// SourceHandle returns the 16-bit source federate handle at offsets 8-9.
func (h Header) SourceHandle() int16 {
	return int16(binary.BigEndian.Uint16(h.buf[8:10]))
}

// TargetHandle returns the 16-bit target federate handle at offsets 10-11.
func (h Header) TargetHandle() int16 {
	return int16(binary.BigEndian.Uint16(h.buf[10:12]))
}

// TotalSize returns HeaderSize plus the payload length plus any
// trailing auth token / encryption nonce indicated by the flags.
func (h Header) TotalSize() int {
	size := HeaderSize + int(h.PayloadLen())
	if h.Authenticated() {
		size += AuthTokenSize
	}
	if h.Encrypted() {
		size += EncryptionNonceSize
	}
	return size
}

// HeaderFields holds the values needed to encode a header; used by
// EncodeHeader when building an outgoing message.
type HeaderFields struct {
	Bundle                 bool
	Encrypted               bool
	Authenticated           bool
	ManuallyMarshalled      bool
	Filtering               bool
	FilteringIsObjectClass  bool
	PayloadLen              uint32
	CallType                CallType
	FederationID            uint8
	MessageType             MessageType
	RequestOrFilteringID    uint16
	SourceHandle            int16
	TargetHandle            int16
}

// EncodeHeader writes the 12-byte header described by f into buf[0:12].
// buf must be at least HeaderSize bytes long.
func EncodeHeader(buf []byte, f HeaderFields) error {
	if len(buf) < HeaderSize {
		return ErrMessageTooShort
	}
	if f.PayloadLen > MaxPayloadLen {
		return ErrPayloadTooLarge
	}
	if !f.CallType.IsValid() {
		return ErrUnknownCallType
	}
	if f.FederationID > 0x0F {
		return ErrInvalidFederationID
	}

	var flags uint8
	if f.Bundle {
		flags |= flagBundle
	}
	if f.Encrypted {
		flags |= flagEncrypted
	}
	if f.Authenticated {
		flags |= flagAuthenticated
	}
	if f.ManuallyMarshalled {
		flags |= flagManuallyMarshalled
	}
	if f.Filtering {
		flags |= flagFiltering
	}
	if f.FilteringIsObjectClass {
		flags |= flagFilteringIsObjectClass
	}
	buf[0] = flags

	buf[1] = byte(f.PayloadLen >> 16)
	buf[2] = byte(f.PayloadLen >> 8)
	buf[3] = byte(f.PayloadLen)

	buf[4] = uint8(f.CallType)<<4 | (f.FederationID & 0x0F)
	buf[5] = byte(f.MessageType)

	binary.BigEndian.PutUint16(buf[6:8], f.RequestOrFilteringID)
	binary.BigEndian.PutUint16(buf[8:10], uint16(f.SourceHandle))
	binary.BigEndian.PutUint16(buf[10:12], uint16(f.TargetHandle))

	return nil
}

// DecodeHeader validates buf as a header and returns the zero-copy view.
// It additionally checks that CallType is a known value and that the
// declared payload length does not exceed MaxPayloadLen, per spec §4.1
// edge cases.
func DecodeHeader(buf []byte) (Header, error) {
	h, err := NewHeader(buf)
	if err != nil {
		return Header{}, err
	}
	if !h.CallType().IsValid() {
		return Header{}, ErrUnknownCallType
	}
	if h.PayloadLen() > MaxPayloadLen {
		return Header{}, ErrPayloadTooLarge
	}
	return h, nil
}

// Flip returns a HeaderFields copy of f with source/target swapped,
// as required when turning a ControlRequest into its response
// (spec §4.1: "Response encoding flips source↔target").
func (f HeaderFields) Flip() HeaderFields {
	f.SourceHandle, f.TargetHandle = f.TargetHandle, f.SourceHandle
	return f
}
