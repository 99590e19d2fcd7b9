package rtimsg

import (
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/wire"
)

// RtiProbe carries no payload; a successful reply proves an RTI is
// reachable at the other end of a Connection (spec §4.4, scenario S1).
type RtiProbe struct{ BaseMessage }

func (m *RtiProbe) MessageType() wire.MessageType { return wire.MessageTypeRtiProbe }
func (m *RtiProbe) Clone() PorticoMessage          { c := *m; c.BaseMessage = cloneBase(m.BaseMessage); return &c }

// CreateFederation requests a new federation be created from the
// named FOM modules.
type CreateFederation struct {
	BaseMessage
	FederationName string
	FomModules     []string
}

func (m *CreateFederation) MessageType() wire.MessageType { return wire.MessageTypeCreateFederation }
func (m *CreateFederation) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.FomModules = append([]string(nil), m.FomModules...)
	return &c
}

// DestroyFederation requests that a federation be torn down.
type DestroyFederation struct {
	BaseMessage
	FederationName string
}

func (m *DestroyFederation) MessageType() wire.MessageType { return wire.MessageTypeDestroyFederation }
func (m *DestroyFederation) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// JoinFederation requests a federate join an existing federation.
type JoinFederation struct {
	BaseMessage
	FederationName  string
	FederateName    string
	FederateType    string
	HLAVersion      string
	AdditionalFoms  []string
}

func (m *JoinFederation) MessageType() wire.MessageType { return wire.MessageTypeJoinFederation }
func (m *JoinFederation) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.AdditionalFoms = append([]string(nil), m.AdditionalFoms...)
	return &c
}

// ResignFederation requests a federate leave its federation.
type ResignFederation struct{ BaseMessage }

func (m *ResignFederation) MessageType() wire.MessageType { return wire.MessageTypeResignFederation }
func (m *ResignFederation) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// PublishObjectClass declares a federate's intent to update instances
// of an object class's named attributes (spec §4.6).
type PublishObjectClass struct {
	BaseMessage
	ObjectClass handle.ObjectClass
	Attributes  []handle.Attribute
}

func (m *PublishObjectClass) MessageType() wire.MessageType { return wire.MessageTypePublishObjectClass }
func (m *PublishObjectClass) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.Attributes = append([]handle.Attribute(nil), m.Attributes...)
	return &c
}

// UnpublishObjectClass withdraws a publication, all or in part (an
// empty Attributes slice means "remove all", per spec §4.6).
type UnpublishObjectClass struct {
	BaseMessage
	ObjectClass handle.ObjectClass
	Attributes  []handle.Attribute
}

func (m *UnpublishObjectClass) MessageType() wire.MessageType {
	return wire.MessageTypeUnpublishObjectClass
}
func (m *UnpublishObjectClass) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.Attributes = append([]handle.Attribute(nil), m.Attributes...)
	return &c
}

// SubscribeObjectClass declares interest in instances of an object
// class's named attributes, optionally filtered by a DDM region.
type SubscribeObjectClass struct {
	BaseMessage
	ObjectClass handle.ObjectClass
	Attributes  []handle.Attribute
	Region      handle.Region // handle.NullHandle when unfiltered
}

func (m *SubscribeObjectClass) MessageType() wire.MessageType {
	return wire.MessageTypeSubscribeObjectClass
}
func (m *SubscribeObjectClass) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.Attributes = append([]handle.Attribute(nil), m.Attributes...)
	return &c
}

// UnsubscribeObjectClass withdraws a subscription, all or in part.
type UnsubscribeObjectClass struct {
	BaseMessage
	ObjectClass handle.ObjectClass
	Attributes  []handle.Attribute
}

func (m *UnsubscribeObjectClass) MessageType() wire.MessageType {
	return wire.MessageTypeUnsubscribeObjectClass
}
func (m *UnsubscribeObjectClass) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.Attributes = append([]handle.Attribute(nil), m.Attributes...)
	return &c
}

// PublishInteractionClass declares a federate's intent to send
// interactions of this class.
type PublishInteractionClass struct {
	BaseMessage
	InteractionClass handle.InteractionClass
}

func (m *PublishInteractionClass) MessageType() wire.MessageType {
	return wire.MessageTypePublishInteractionClass
}
func (m *PublishInteractionClass) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// UnpublishInteractionClass withdraws a publication.
type UnpublishInteractionClass struct {
	BaseMessage
	InteractionClass handle.InteractionClass
}

func (m *UnpublishInteractionClass) MessageType() wire.MessageType {
	return wire.MessageTypeUnpublishInteractionClass
}
func (m *UnpublishInteractionClass) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// SubscribeInteractionClass declares interest in interactions of this
// class, optionally filtered by a DDM region.
type SubscribeInteractionClass struct {
	BaseMessage
	InteractionClass handle.InteractionClass
	Region           handle.Region
}

func (m *SubscribeInteractionClass) MessageType() wire.MessageType {
	return wire.MessageTypeSubscribeInteractionClass
}
func (m *SubscribeInteractionClass) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// UnsubscribeInteractionClass withdraws a subscription.
type UnsubscribeInteractionClass struct {
	BaseMessage
	InteractionClass handle.InteractionClass
}

func (m *UnsubscribeInteractionClass) MessageType() wire.MessageType {
	return wire.MessageTypeUnsubscribeInteractionClass
}
func (m *UnsubscribeInteractionClass) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// UpdateAttributes carries new attribute values for an object
// instance. It dominates message volume and so opts into manual
// marshalling (spec §4.1).
type UpdateAttributes struct {
	BaseMessage
	ObjectID   int32
	ObjectClass handle.ObjectClass
	Values      map[handle.Attribute][]byte
	Region      handle.Region
}

func (m *UpdateAttributes) MessageType() wire.MessageType { return wire.MessageTypeUpdateAttributes }
func (m *UpdateAttributes) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.Values = make(map[handle.Attribute][]byte, len(m.Values))
	for k, v := range m.Values {
		c.Values[k] = append([]byte(nil), v...)
	}
	return &c
}

// SendInteraction carries parameter values for an interaction. Like
// UpdateAttributes, it opts into manual marshalling.
type SendInteraction struct {
	BaseMessage
	InteractionClass handle.InteractionClass
	Parameters       map[int32][]byte
	Region           handle.Region
}

func (m *SendInteraction) MessageType() wire.MessageType { return wire.MessageTypeSendInteraction }
func (m *SendInteraction) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.Parameters = make(map[int32][]byte, len(m.Parameters))
	for k, v := range m.Parameters {
		c.Parameters[k] = append([]byte(nil), v...)
	}
	return &c
}

// RegisterFederationSynchronizationPoint registers a new named sync
// point, optionally restricted to a federate subset.
type RegisterFederationSynchronizationPoint struct {
	BaseMessage
	Label  string
	Tag    []byte
	Subset []handle.Federate // empty/nil => federation-wide
}

func (m *RegisterFederationSynchronizationPoint) MessageType() wire.MessageType {
	return wire.MessageTypeRegisterFederationSynchronizationPoint
}
func (m *RegisterFederationSynchronizationPoint) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.Tag = append([]byte(nil), m.Tag...)
	c.Subset = append([]handle.Federate(nil), m.Subset...)
	return &c
}

// SynchronizationPointAchieved reports that the sending federate has
// reached a previously announced sync point.
type SynchronizationPointAchieved struct {
	BaseMessage
	Label string
}

func (m *SynchronizationPointAchieved) MessageType() wire.MessageType {
	return wire.MessageTypeSynchronizationPointAchieved
}
func (m *SynchronizationPointAchieved) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// AnnounceSynchronizationPoint is sent by the RTI to every federate in
// scope when a sync point is first registered.
type AnnounceSynchronizationPoint struct {
	BaseMessage
	Label string
	Tag   []byte
}

func (m *AnnounceSynchronizationPoint) MessageType() wire.MessageType {
	return wire.MessageTypeAnnounceSynchronizationPoint
}
func (m *AnnounceSynchronizationPoint) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	c.Tag = append([]byte(nil), m.Tag...)
	return &c
}

// FederationSynchronized is sent by the RTI once every required
// federate has achieved a sync point.
type FederationSynchronized struct {
	BaseMessage
	Label string
}

func (m *FederationSynchronized) MessageType() wire.MessageType {
	return wire.MessageTypeFederationSynchronized
}
func (m *FederationSynchronized) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// TimeAdvanceRequest asks to advance to Time once the RTI grants it.
type TimeAdvanceRequest struct {
	BaseMessage
	Time float64
}

func (m *TimeAdvanceRequest) MessageType() wire.MessageType { return wire.MessageTypeTimeAdvanceRequest }
func (m *TimeAdvanceRequest) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// TimeAdvanceRequestAvailable is the TARA variant: advance is granted
// as soon as the requested time is reachable, without waiting for it
// to become strictly exceeded.
type TimeAdvanceRequestAvailable struct {
	BaseMessage
	Time float64
}

func (m *TimeAdvanceRequestAvailable) MessageType() wire.MessageType {
	return wire.MessageTypeTimeAdvanceRequestAvailable
}
func (m *TimeAdvanceRequestAvailable) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// TimeAdvanceGrant notifies a federate that it may advance to Time.
type TimeAdvanceGrant struct {
	BaseMessage
	Time float64
}

func (m *TimeAdvanceGrant) MessageType() wire.MessageType { return wire.MessageTypeTimeAdvanceGrant }
func (m *TimeAdvanceGrant) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// EnableTimeConstrained requests that the sending federate become
// time-constrained.
type EnableTimeConstrained struct{ BaseMessage }

func (m *EnableTimeConstrained) MessageType() wire.MessageType {
	return wire.MessageTypeEnableTimeConstrained
}
func (m *EnableTimeConstrained) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// EnableTimeRegulation requests that the sending federate become
// time-regulating with the given lookahead.
type EnableTimeRegulation struct {
	BaseMessage
	Lookahead float64
}

func (m *EnableTimeRegulation) MessageType() wire.MessageType {
	return wire.MessageTypeEnableTimeRegulation
}
func (m *EnableTimeRegulation) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// RoleCall is a deprecated roll-call message (spec §9 open question b).
// GetType deliberately reports an error rather than panicking, so a
// reimplementation preserves the wire-compatible deprecation signal
// without exceptions-as-control-flow.
type RoleCall struct{ BaseMessage }

func (m *RoleCall) MessageType() wire.MessageType { return wire.MessageTypeRoleCall }
func (m *RoleCall) Clone() PorticoMessage {
	c := *m
	c.BaseMessage = cloneBase(m.BaseMessage)
	return &c
}

// ErrRoleCallDeprecated is returned by GetType in place of the
// original implementation's thrown exception.
var ErrRoleCallDeprecated = roleCallDeprecatedError{}

type roleCallDeprecatedError struct{}

func (roleCallDeprecatedError) Error() string { return "rtimsg: RoleCall.GetType is deprecated" }

// GetType preserves the original (deprecated) accessor's wire-visible
// name; callers should use MessageType instead.
func (m *RoleCall) GetType() (wire.MessageType, error) {
	return wire.MessageTypeUnknown, ErrRoleCallDeprecated
}
