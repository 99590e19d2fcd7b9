package conn

import (
	"github.com/gletthereblight/portico/pkg/rtimsg"
	"github.com/gletthereblight/portico/pkg/wire"
)

// buildFrame encodes m into a full wire frame (12-byte header plus
// payload, no bundle framing — that's the Bundler's job) addressed
// per m's own BaseMessage source/target fields.
func buildFrame(m rtimsg.PorticoMessage, callType wire.CallType, federationID uint8, requestID uint16) ([]byte, error) {
	payload, err := rtimsg.EncodePayload(m)
	if err != nil {
		return nil, err
	}

	base := m.Base()
	fields := wire.HeaderFields{
		ManuallyMarshalled:   wire.UsesManualMarshal(m.MessageType()),
		PayloadLen:           uint32(len(payload)),
		CallType:             callType,
		FederationID:         federationID,
		MessageType:          m.MessageType(),
		RequestOrFilteringID: requestID,
		SourceHandle:         int16(base.SourceFederate),
		TargetHandle:         int16(base.TargetFederate),
	}

	buf := make([]byte, wire.HeaderSize+len(payload))
	if err := wire.EncodeHeader(buf, fields); err != nil {
		return nil, err
	}
	copy(buf[wire.HeaderSize:], payload)
	return buf, nil
}

// headerFieldsFromHeader reconstructs an editable HeaderFields from a
// decoded, zero-copy Header view.
func headerFieldsFromHeader(h wire.Header) wire.HeaderFields {
	return wire.HeaderFields{
		Bundle:                 h.Bundle(),
		Encrypted:              h.Encrypted(),
		Authenticated:          h.Authenticated(),
		ManuallyMarshalled:     h.ManuallyMarshalled(),
		Filtering:              h.Filtering(),
		FilteringIsObjectClass: h.FilteringIsObjectClass(),
		PayloadLen:             h.PayloadLen(),
		CallType:               h.CallType(),
		FederationID:           h.FederationID(),
		MessageType:            h.MessageType(),
		RequestOrFilteringID:   h.RequestOrFilteringID(),
		SourceHandle:           h.SourceHandle(),
		TargetHandle:           h.TargetHandle(),
	}
}

// buildResponseFrame re-encodes ctx's response into a fresh frame
// addressed back at the requester: same header fields as the request
// with source/target flipped and the call type set to the outcome
// (spec §4.4: "re-encode into the same buffer flipping source/target").
func buildResponseFrame(ctx *ControlContext, respCallType wire.CallType) ([]byte, error) {
	payload, err := rtimsg.EncodePayload(ctx.Response)
	if err != nil {
		return nil, err
	}

	fields := headerFieldsFromHeader(ctx.Header).Flip()
	fields.CallType = respCallType
	fields.ManuallyMarshalled = wire.UsesManualMarshal(ctx.Response.MessageType())
	fields.MessageType = ctx.Response.MessageType()
	fields.PayloadLen = uint32(len(payload))

	buf := make([]byte, wire.HeaderSize+len(payload))
	if err := wire.EncodeHeader(buf, fields); err != nil {
		return nil, err
	}
	copy(buf[wire.HeaderSize:], payload)
	return buf, nil
}

// inflate decodes a full wire frame (header + payload) back into its
// PorticoMessage.
func inflate(frame []byte) (wire.Header, rtimsg.PorticoMessage, error) {
	h, err := wire.DecodeHeader(frame)
	if err != nil {
		return wire.Header{}, nil, err
	}
	payload := frame[wire.HeaderSize : wire.HeaderSize+int(h.PayloadLen())]
	m, err := rtimsg.DecodePayload(h.MessageType(), h.ManuallyMarshalled(), payload)
	if err != nil {
		return wire.Header{}, nil, err
	}
	return h, m, nil
}

// isAsync reports whether m expects no reply even when sent as a
// ControlRequest — true only for RTI-originated requests (spec §4.4:
// "If m.isAsync() (only RTI-originated), no reply is sent").
func isAsync(m rtimsg.PorticoMessage) bool {
	return m.Base().FromRTI
}
