package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Generic is the fallback field codec used for every PorticoMessage
// that doesn't opt into manual marshalling (spec §4.1, §6 "generic
// serializer"). It is a tag-length-value scheme: each field is
// preceded by a one-byte element-type tag and, for variable-length
// types, a 4-byte length. Multi-byte values are big-endian so that the
// same bytes round-trip on any platform (spec §6).
//
// This trims the teacher's multi-profile TLV tag namespace (context /
// common-profile / implicit-profile / fully-qualified, each with 1/2/4/6/8-
// byte tags) down to a single context-tag-free element stream: every
// PorticoMessage field is locally scoped to its own Encode/Decode pair,
// so there is never a need to address a field from another profile.

// ElementType identifies the shape of the value that follows.
type ElementType uint8

const (
	ElementBool ElementType = iota
	ElementUint8
	ElementUint16
	ElementUint32
	ElementUint64
	ElementInt32
	ElementInt64
	ElementFloat64
	ElementString
	ElementBytes
	ElementStructStart
	ElementStructEnd
	ElementArrayStart
	ElementArrayEnd
	ElementNull
)

// ErrUnexpectedElement is returned when the decoder encounters an
// element type it wasn't asked to read.
var ErrUnexpectedElement = errors.New("wire: unexpected element type")

// Encoder builds a generic-serializer byte stream.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated encoded stream.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

func (e *Encoder) putTag(t ElementType) { e.buf.WriteByte(byte(t)) }

func (e *Encoder) PutBool(v bool) {
	e.putTag(ElementBool)
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *Encoder) PutUint8(v uint8) {
	e.putTag(ElementUint8)
	e.buf.WriteByte(v)
}

func (e *Encoder) PutUint16(v uint16) {
	e.putTag(ElementUint16)
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) PutUint32(v uint32) {
	e.putTag(ElementUint32)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) PutUint64(v uint64) {
	e.putTag(ElementUint64)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) PutInt32(v int32) {
	e.putTag(ElementInt32)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	e.buf.Write(b[:])
}

func (e *Encoder) PutInt64(v int64) {
	e.putTag(ElementInt64)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	e.buf.Write(b[:])
}

func (e *Encoder) PutFloat64(v float64) {
	e.putTag(ElementFloat64)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	e.buf.Write(b[:])
}

func (e *Encoder) PutString(s string) {
	e.putTag(ElementString)
	e.putLenPrefixed([]byte(s))
}

func (e *Encoder) PutBytes(b []byte) {
	e.putTag(ElementBytes)
	e.putLenPrefixed(b)
}

func (e *Encoder) putLenPrefixed(b []byte) {
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(len(b)))
	e.buf.Write(lb[:])
	e.buf.Write(b)
}

// PutNull encodes an explicit absence marker, used for optional fields
// such as PorticoMessage.Timestamp when it carries NULL_TIME.
func (e *Encoder) PutNull() { e.putTag(ElementNull) }

// StartStruct/EndStruct bracket a nested field group (e.g. one
// attribute-value pair inside UpdateAttributes' generic fallback, or a
// Federate record inside a roll-call response).
func (e *Encoder) StartStruct() { e.putTag(ElementStructStart) }
func (e *Encoder) EndStruct()   { e.putTag(ElementStructEnd) }

// StartArray/EndArray bracket a repeated field of known length n,
// written so the decoder can preallocate.
func (e *Encoder) StartArray(n int) {
	e.putTag(ElementArrayStart)
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(n))
	e.buf.Write(lb[:])
}
func (e *Encoder) EndArray() { e.putTag(ElementArrayEnd) }

// Decoder reads a generic-serializer byte stream produced by Encoder.
type Decoder struct {
	r *bytes.Reader
}

// NewDecoder wraps buf for sequential decoding.
func NewDecoder(buf []byte) *Decoder { return &Decoder{r: bytes.NewReader(buf)} }

func (d *Decoder) expect(want ElementType) error {
	b, err := d.r.ReadByte()
	if err != nil {
		return err
	}
	if ElementType(b) != want {
		return ErrUnexpectedElement
	}
	return nil
}

// PeekIsNull reports whether the next element is a null marker,
// consuming it if so.
func (d *Decoder) PeekIsNull() bool {
	b, err := d.r.ReadByte()
	if err != nil {
		return false
	}
	if ElementType(b) == ElementNull {
		return true
	}
	d.r.UnreadByte()
	return false
}

func (d *Decoder) Bool() (bool, error) {
	if err := d.expect(ElementBool); err != nil {
		return false, err
	}
	b, err := d.r.ReadByte()
	return b != 0, err
}

func (d *Decoder) Uint8() (uint8, error) {
	if err := d.expect(ElementUint8); err != nil {
		return 0, err
	}
	return d.r.ReadByte()
}

func (d *Decoder) Uint16() (uint16, error) {
	if err := d.expect(ElementUint16); err != nil {
		return 0, err
	}
	var b [2]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (d *Decoder) Uint32() (uint32, error) {
	if err := d.expect(ElementUint32); err != nil {
		return 0, err
	}
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (d *Decoder) Uint64() (uint64, error) {
	if err := d.expect(ElementUint64); err != nil {
		return 0, err
	}
	var b [8]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func (d *Decoder) Int32() (int32, error) {
	if err := d.expect(ElementInt32); err != nil {
		return 0, err
	}
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (d *Decoder) Int64() (int64, error) {
	if err := d.expect(ElementInt64); err != nil {
		return 0, err
	}
	var b [8]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func (d *Decoder) Float64() (float64, error) {
	if err := d.expect(ElementFloat64); err != nil {
		return 0, err
	}
	var b [8]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}

func (d *Decoder) String() (string, error) {
	if err := d.expect(ElementString); err != nil {
		return "", err
	}
	b, err := d.readLenPrefixed()
	return string(b), err
}

func (d *Decoder) Bytes() ([]byte, error) {
	if err := d.expect(ElementBytes); err != nil {
		return nil, err
	}
	return d.readLenPrefixed()
}

func (d *Decoder) readLenPrefixed() ([]byte, error) {
	var lb [4]byte
	if _, err := io.ReadFull(d.r, lb[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lb[:])
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (d *Decoder) StartStruct() error { return d.expect(ElementStructStart) }
func (d *Decoder) EndStruct() error   { return d.expect(ElementStructEnd) }

// StartArray returns the element count written by Encoder.StartArray.
func (d *Decoder) StartArray() (int, error) {
	if err := d.expect(ElementArrayStart); err != nil {
		return 0, err
	}
	var lb [4]byte
	if _, err := io.ReadFull(d.r, lb[:]); err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint32(lb[:])), nil
}
func (d *Decoder) EndArray() error { return d.expect(ElementArrayEnd) }
