// Package wire implements the RTI message fabric's 12-byte binary
// header (spec §3 "Header layout") and the CallType/MessageType
// discriminators carried in it. All multi-byte fields are big-endian
// on the wire.
package wire

// CallType classifies how a message is routed and whether it needs
// correlation (spec §3, §4.4).
type CallType uint8

const (
	// CallTypeDataMessage is fanned out to every connection except the
	// sender; never correlated.
	CallTypeDataMessage CallType = 0
	// CallTypeNotification is a one-way control message; never
	// correlated, but latency-sensitive (bypasses the bundler).
	CallTypeNotification CallType = 1
	// CallTypeControlRequest expects a matching ControlResponseOK or
	// ControlResponseErr, correlated by request ID.
	CallTypeControlRequest CallType = 2
	// CallTypeControlResponseOK is a successful reply to a
	// ControlRequest.
	CallTypeControlResponseOK CallType = 3
	// CallTypeControlResponseErr is a failed reply to a ControlRequest.
	CallTypeControlResponseErr CallType = 4
)

// IsValid reports whether c is one of the defined CallType values.
func (c CallType) IsValid() bool {
	return c <= CallTypeControlResponseErr
}

// String returns a human-readable name for the call type.
func (c CallType) String() string {
	switch c {
	case CallTypeDataMessage:
		return "DataMessage"
	case CallTypeNotification:
		return "Notification"
	case CallTypeControlRequest:
		return "ControlRequest"
	case CallTypeControlResponseOK:
		return "ControlResponseOK"
	case CallTypeControlResponseErr:
		return "ControlResponseErr"
	default:
		return "Unknown"
	}
}

// IsControlResponse reports whether c is either response variant.
func (c CallType) IsControlResponse() bool {
	return c == CallTypeControlResponseOK || c == CallTypeControlResponseErr
}

// MessageType is the application-level discriminator for a
// PorticoMessage (spec §3 "PorticoMessage"). Values listed in
// manualMarshalTypes opt into manual marshalling in the header's
// manuallyMarshalled flag; the rest use the generic codec.
type MessageType uint8

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeRtiProbe
	MessageTypeCreateFederation
	MessageTypeDestroyFederation
	MessageTypeJoinFederation
	MessageTypeResignFederation
	MessageTypePublishObjectClass
	MessageTypeUnpublishObjectClass
	MessageTypeSubscribeObjectClass
	MessageTypeUnsubscribeObjectClass
	MessageTypePublishInteractionClass
	MessageTypeUnpublishInteractionClass
	MessageTypeSubscribeInteractionClass
	MessageTypeUnsubscribeInteractionClass
	MessageTypeUpdateAttributes
	MessageTypeSendInteraction
	MessageTypeRegisterFederationSynchronizationPoint
	MessageTypeSynchronizationPointAchieved
	MessageTypeAnnounceSynchronizationPoint
	MessageTypeFederationSynchronized
	MessageTypeTimeAdvanceRequest
	MessageTypeTimeAdvanceRequestAvailable
	MessageTypeTimeAdvanceGrant
	MessageTypeEnableTimeConstrained
	MessageTypeEnableTimeRegulation
	MessageTypeRoleCall
)

// IsValid reports whether m is a defined MessageType.
func (m MessageType) IsValid() bool {
	return m > MessageTypeUnknown && m <= MessageTypeRoleCall
}

// manualMarshalTypes holds the MessageType values that opt into the
// hand-written wire encoding instead of the generic field codec
// (spec §4.1: UpdateAttributes and SendInteraction dominate volume).
var manualMarshalTypes = map[MessageType]bool{
	MessageTypeUpdateAttributes: true,
	MessageTypeSendInteraction:  true,
}

// UsesManualMarshal reports whether m is hand-marshalled rather than
// passed through the generic serializer.
func UsesManualMarshal(m MessageType) bool {
	return manualMarshalTypes[m]
}
