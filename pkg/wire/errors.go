package wire

import "errors"

// Errors returned by the wire package. A ProtocolError per spec §7 is
// any of these; they are fatal for the connection that produced them.
var (
	// ErrMessageTooShort is returned when a buffer is shorter than the
	// fixed header or than the length its header declares.
	ErrMessageTooShort = errors.New("wire: message too short")

	// ErrPayloadTooLarge is returned when a payload length exceeds the
	// 24-bit field (16 MiB), per spec §4.1.
	ErrPayloadTooLarge = errors.New("wire: payload length exceeds 16 MiB")

	// ErrUnknownCallType is returned for a header carrying an
	// undefined CallType ID.
	ErrUnknownCallType = errors.New("wire: unknown call type")

	// ErrInvalidFederationID is returned when the federation ID
	// nibble doesn't fit the reserved 4 bits.
	ErrInvalidFederationID = errors.New("wire: federation id out of range")

	// ErrUnknownMessageType is returned when manual marshalling is
	// requested for an unrecognized message type ID.
	ErrUnknownMessageType = errors.New("wire: unknown message type for manual marshal")

	// ErrBadMagic is returned when a bundle's leading magic number
	// doesn't match 0xCAFE.
	ErrBadMagic = errors.New("wire: bad bundle magic")
)
