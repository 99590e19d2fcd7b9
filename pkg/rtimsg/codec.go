package rtimsg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/wire"
)

// ErrUnknownMessageType mirrors wire.ErrUnknownMessageType for the
// payload codec layer (spec §4.1 edge case: "unknown MessageType ID
// for manualMarshal → WireFormatError").
var ErrUnknownMessageType = errors.New("rtimsg: unknown message type")

// manualFlagTrue is the single byte every manually-marshalled payload
// starts with (spec §6).
const manualFlagTrue = 1

// EncodePayload serializes m's payload bytes (excluding the 12-byte
// wire header). UpdateAttributes and SendInteraction use the manual
// marshal format; everything else goes through the generic codec.
func EncodePayload(m PorticoMessage) ([]byte, error) {
	switch v := m.(type) {
	case *UpdateAttributes:
		return encodeManualUpdateAttributes(v), nil
	case *SendInteraction:
		return encodeManualSendInteraction(v), nil
	default:
		return encodeGeneric(m)
	}
}

// DecodePayload reconstructs a PorticoMessage of type t from payload.
// manuallyMarshalled tells the decoder which branch of spec §4.1 to
// take; it must match the buffer's leading manual-flag byte when true.
func DecodePayload(t wire.MessageType, manuallyMarshalled bool, payload []byte) (PorticoMessage, error) {
	if manuallyMarshalled {
		if len(payload) < 3 {
			return nil, wire.ErrMessageTooShort
		}
		switch t {
		case wire.MessageTypeUpdateAttributes:
			return decodeManualUpdateAttributes(payload)
		case wire.MessageTypeSendInteraction:
			return decodeManualSendInteraction(payload)
		default:
			return nil, ErrUnknownMessageType
		}
	}
	return decodeGeneric(t, payload)
}

// --- manual marshal: UpdateAttributes ---------------------------------

func encodeManualUpdateAttributes(m *UpdateAttributes) []byte {
	var buf bytes.Buffer
	buf.WriteByte(manualFlagTrue)
	writeUint16(&buf, uint16(wire.MessageTypeUpdateAttributes))
	writeBaseFields(&buf, &m.BaseMessage)
	writeInt32(&buf, m.ObjectID)
	writeInt32(&buf, int32(m.ObjectClass))
	writeInt32(&buf, int32(m.Region))
	writeUint32(&buf, uint32(len(m.Values)))
	for attr, val := range m.Values {
		writeInt32(&buf, int32(attr))
		writeUint32(&buf, uint32(len(val)))
		buf.Write(val)
	}
	return buf.Bytes()
}

func decodeManualUpdateAttributes(payload []byte) (*UpdateAttributes, error) {
	r := bytes.NewReader(payload)
	if err := expectManualHeader(r, wire.MessageTypeUpdateAttributes); err != nil {
		return nil, err
	}
	m := &UpdateAttributes{}
	if err := readBaseFields(r, &m.BaseMessage); err != nil {
		return nil, err
	}
	var err error
	if m.ObjectID, err = readInt32(r); err != nil {
		return nil, err
	}
	var oc int32
	if oc, err = readInt32(r); err != nil {
		return nil, err
	}
	m.ObjectClass = handle.ObjectClass(oc)
	var reg int32
	if reg, err = readInt32(r); err != nil {
		return nil, err
	}
	m.Region = handle.Region(reg)
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	m.Values = make(map[handle.Attribute][]byte, count)
	for i := uint32(0); i < count; i++ {
		attr, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		val, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		m.Values[handle.Attribute(attr)] = val
	}
	return m, nil
}

// --- manual marshal: SendInteraction -----------------------------------

func encodeManualSendInteraction(m *SendInteraction) []byte {
	var buf bytes.Buffer
	buf.WriteByte(manualFlagTrue)
	writeUint16(&buf, uint16(wire.MessageTypeSendInteraction))
	writeBaseFields(&buf, &m.BaseMessage)
	writeInt32(&buf, int32(m.InteractionClass))
	writeInt32(&buf, int32(m.Region))
	writeUint32(&buf, uint32(len(m.Parameters)))
	for param, val := range m.Parameters {
		writeInt32(&buf, param)
		writeUint32(&buf, uint32(len(val)))
		buf.Write(val)
	}
	return buf.Bytes()
}

func decodeManualSendInteraction(payload []byte) (*SendInteraction, error) {
	r := bytes.NewReader(payload)
	if err := expectManualHeader(r, wire.MessageTypeSendInteraction); err != nil {
		return nil, err
	}
	m := &SendInteraction{}
	if err := readBaseFields(r, &m.BaseMessage); err != nil {
		return nil, err
	}
	ic, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	m.InteractionClass = handle.InteractionClass(ic)
	reg, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	m.Region = handle.Region(reg)
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	m.Parameters = make(map[int32][]byte, count)
	for i := uint32(0); i < count; i++ {
		param, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		val, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		m.Parameters[param] = val
	}
	return m, nil
}

func expectManualHeader(r *bytes.Reader, want wire.MessageType) error {
	flag, err := r.ReadByte()
	if err != nil {
		return err
	}
	if flag != manualFlagTrue {
		return wire.ErrUnknownMessageType
	}
	gotType, err := readUint16(r)
	if err != nil {
		return err
	}
	if wire.MessageType(gotType) != want {
		return ErrUnknownMessageType
	}
	return nil
}

// --- shared fixed-width helpers (manual marshal only) ------------------

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeInt32(buf *bytes.Buffer, v int32) { writeUint32(buf, uint32(v)) }

func readUint16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readInt32(r *bytes.Reader) (int32, error) {
	v, err := readUint32(r)
	return int32(v), err
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// writeBaseFields/readBaseFields carry the fields the wire header
// cannot (FromRTI/Immediate/Timestamp/MultiTargets) for the
// manual-marshal path; the generic path carries the same fields through
// genericWriteBase/genericReadBase. SourceFederate, TargetFederate and
// TargetFederation are not written by either.
func writeBaseFields(buf *bytes.Buffer, b *BaseMessage) {
	var flags byte
	if b.FromRTI {
		flags |= 1
	}
	if b.Immediate {
		flags |= 2
	}
	buf.WriteByte(flags)

	if b.Timestamp == NullTime {
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
		var tb [8]byte
		binary.BigEndian.PutUint64(tb[:], math.Float64bits(b.Timestamp))
		buf.Write(tb[:])
	}

	writeUint16(buf, uint16(len(b.MultiTargets)))
	for _, f := range b.MultiTargets {
		writeInt32(buf, int32(f))
	}
}

func readBaseFields(r *bytes.Reader, b *BaseMessage) error {
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	b.FromRTI = flags&1 != 0
	b.Immediate = flags&2 != 0

	hasTime, err := r.ReadByte()
	if err != nil {
		return err
	}
	if hasTime == 0 {
		b.Timestamp = NullTime
	} else {
		var tb [8]byte
		if _, err := io.ReadFull(r, tb[:]); err != nil {
			return err
		}
		b.Timestamp = math.Float64frombits(binary.BigEndian.Uint64(tb[:]))
	}

	n, err := readUint16(r)
	if err != nil {
		return err
	}
	b.MultiTargets = make([]handle.Federate, n)
	for i := range b.MultiTargets {
		v, err := readInt32(r)
		if err != nil {
			return err
		}
		b.MultiTargets[i] = handle.Federate(v)
	}
	return nil
}
