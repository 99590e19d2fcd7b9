package rtimsg

import (
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/wire"
)

// encodeGeneric and decodeGeneric implement the fallback payload codec
// (spec §4.1, §6 "generic serializer") for every PorticoMessage other
// than UpdateAttributes/SendInteraction. Every concrete type writes its
// shared BaseMessage fields first via genericWriteBase/genericReadBase,
// then its own fields, so the decode side only needs the wire
// MessageType to pick the right branch.

func encodeGeneric(m PorticoMessage) ([]byte, error) {
	e := wire.NewEncoder()
	genericWriteBase(e, m.Base())

	switch v := m.(type) {
	case *RtiProbe:
	case *CreateFederation:
		e.PutString(v.FederationName)
		putStrings(e, v.FomModules)
	case *DestroyFederation:
		e.PutString(v.FederationName)
	case *JoinFederation:
		e.PutString(v.FederationName)
		e.PutString(v.FederateName)
		e.PutString(v.FederateType)
		e.PutString(v.HLAVersion)
		putStrings(e, v.AdditionalFoms)
	case *ResignFederation:
	case *PublishObjectClass:
		e.PutInt32(int32(v.ObjectClass))
		putAttributes(e, v.Attributes)
	case *UnpublishObjectClass:
		e.PutInt32(int32(v.ObjectClass))
		putAttributes(e, v.Attributes)
	case *SubscribeObjectClass:
		e.PutInt32(int32(v.ObjectClass))
		putAttributes(e, v.Attributes)
		e.PutInt32(int32(v.Region))
	case *UnsubscribeObjectClass:
		e.PutInt32(int32(v.ObjectClass))
		putAttributes(e, v.Attributes)
	case *PublishInteractionClass:
		e.PutInt32(int32(v.InteractionClass))
	case *UnpublishInteractionClass:
		e.PutInt32(int32(v.InteractionClass))
	case *SubscribeInteractionClass:
		e.PutInt32(int32(v.InteractionClass))
		e.PutInt32(int32(v.Region))
	case *UnsubscribeInteractionClass:
		e.PutInt32(int32(v.InteractionClass))
	case *RegisterFederationSynchronizationPoint:
		e.PutString(v.Label)
		e.PutBytes(v.Tag)
		e.StartArray(len(v.Subset))
		for _, f := range v.Subset {
			e.PutInt32(int32(f))
		}
		e.EndArray()
	case *SynchronizationPointAchieved:
		e.PutString(v.Label)
	case *AnnounceSynchronizationPoint:
		e.PutString(v.Label)
		e.PutBytes(v.Tag)
	case *FederationSynchronized:
		e.PutString(v.Label)
	case *TimeAdvanceRequest:
		e.PutFloat64(v.Time)
	case *TimeAdvanceRequestAvailable:
		e.PutFloat64(v.Time)
	case *TimeAdvanceGrant:
		e.PutFloat64(v.Time)
	case *EnableTimeConstrained:
	case *EnableTimeRegulation:
		e.PutFloat64(v.Lookahead)
	case *RoleCall:
	default:
		return nil, ErrUnknownMessageType
	}
	return e.Bytes(), nil
}

func decodeGeneric(t wire.MessageType, payload []byte) (PorticoMessage, error) {
	d := wire.NewDecoder(payload)
	var base BaseMessage
	if err := genericReadBase(d, &base); err != nil {
		return nil, err
	}

	switch t {
	case wire.MessageTypeRtiProbe:
		return &RtiProbe{BaseMessage: base}, nil
	case wire.MessageTypeCreateFederation:
		name, err := d.String()
		if err != nil {
			return nil, err
		}
		foms, err := getStrings(d)
		if err != nil {
			return nil, err
		}
		return &CreateFederation{BaseMessage: base, FederationName: name, FomModules: foms}, nil
	case wire.MessageTypeDestroyFederation:
		name, err := d.String()
		if err != nil {
			return nil, err
		}
		return &DestroyFederation{BaseMessage: base, FederationName: name}, nil
	case wire.MessageTypeJoinFederation:
		fed, err := d.String()
		if err != nil {
			return nil, err
		}
		fname, err := d.String()
		if err != nil {
			return nil, err
		}
		ftype, err := d.String()
		if err != nil {
			return nil, err
		}
		hla, err := d.String()
		if err != nil {
			return nil, err
		}
		foms, err := getStrings(d)
		if err != nil {
			return nil, err
		}
		return &JoinFederation{
			BaseMessage:    base,
			FederationName: fed,
			FederateName:   fname,
			FederateType:   ftype,
			HLAVersion:     hla,
			AdditionalFoms: foms,
		}, nil
	case wire.MessageTypeResignFederation:
		return &ResignFederation{BaseMessage: base}, nil
	case wire.MessageTypePublishObjectClass:
		oc, attrs, err := getObjectClassAttrs(d)
		if err != nil {
			return nil, err
		}
		return &PublishObjectClass{BaseMessage: base, ObjectClass: oc, Attributes: attrs}, nil
	case wire.MessageTypeUnpublishObjectClass:
		oc, attrs, err := getObjectClassAttrs(d)
		if err != nil {
			return nil, err
		}
		return &UnpublishObjectClass{BaseMessage: base, ObjectClass: oc, Attributes: attrs}, nil
	case wire.MessageTypeSubscribeObjectClass:
		oc, attrs, err := getObjectClassAttrs(d)
		if err != nil {
			return nil, err
		}
		region, err := d.Int32()
		if err != nil {
			return nil, err
		}
		return &SubscribeObjectClass{BaseMessage: base, ObjectClass: oc, Attributes: attrs, Region: handle.Region(region)}, nil
	case wire.MessageTypeUnsubscribeObjectClass:
		oc, attrs, err := getObjectClassAttrs(d)
		if err != nil {
			return nil, err
		}
		return &UnsubscribeObjectClass{BaseMessage: base, ObjectClass: oc, Attributes: attrs}, nil
	case wire.MessageTypePublishInteractionClass:
		ic, err := d.Int32()
		if err != nil {
			return nil, err
		}
		return &PublishInteractionClass{BaseMessage: base, InteractionClass: handle.InteractionClass(ic)}, nil
	case wire.MessageTypeUnpublishInteractionClass:
		ic, err := d.Int32()
		if err != nil {
			return nil, err
		}
		return &UnpublishInteractionClass{BaseMessage: base, InteractionClass: handle.InteractionClass(ic)}, nil
	case wire.MessageTypeSubscribeInteractionClass:
		ic, err := d.Int32()
		if err != nil {
			return nil, err
		}
		region, err := d.Int32()
		if err != nil {
			return nil, err
		}
		return &SubscribeInteractionClass{BaseMessage: base, InteractionClass: handle.InteractionClass(ic), Region: handle.Region(region)}, nil
	case wire.MessageTypeUnsubscribeInteractionClass:
		ic, err := d.Int32()
		if err != nil {
			return nil, err
		}
		return &UnsubscribeInteractionClass{BaseMessage: base, InteractionClass: handle.InteractionClass(ic)}, nil
	case wire.MessageTypeRegisterFederationSynchronizationPoint:
		label, err := d.String()
		if err != nil {
			return nil, err
		}
		tag, err := d.Bytes()
		if err != nil {
			return nil, err
		}
		n, err := d.StartArray()
		if err != nil {
			return nil, err
		}
		subset := make([]handle.Federate, n)
		for i := range subset {
			v, err := d.Int32()
			if err != nil {
				return nil, err
			}
			subset[i] = handle.Federate(v)
		}
		if err := d.EndArray(); err != nil {
			return nil, err
		}
		return &RegisterFederationSynchronizationPoint{BaseMessage: base, Label: label, Tag: tag, Subset: subset}, nil
	case wire.MessageTypeSynchronizationPointAchieved:
		label, err := d.String()
		if err != nil {
			return nil, err
		}
		return &SynchronizationPointAchieved{BaseMessage: base, Label: label}, nil
	case wire.MessageTypeAnnounceSynchronizationPoint:
		label, err := d.String()
		if err != nil {
			return nil, err
		}
		tag, err := d.Bytes()
		if err != nil {
			return nil, err
		}
		return &AnnounceSynchronizationPoint{BaseMessage: base, Label: label, Tag: tag}, nil
	case wire.MessageTypeFederationSynchronized:
		label, err := d.String()
		if err != nil {
			return nil, err
		}
		return &FederationSynchronized{BaseMessage: base, Label: label}, nil
	case wire.MessageTypeTimeAdvanceRequest:
		tm, err := d.Float64()
		if err != nil {
			return nil, err
		}
		return &TimeAdvanceRequest{BaseMessage: base, Time: tm}, nil
	case wire.MessageTypeTimeAdvanceRequestAvailable:
		tm, err := d.Float64()
		if err != nil {
			return nil, err
		}
		return &TimeAdvanceRequestAvailable{BaseMessage: base, Time: tm}, nil
	case wire.MessageTypeTimeAdvanceGrant:
		tm, err := d.Float64()
		if err != nil {
			return nil, err
		}
		return &TimeAdvanceGrant{BaseMessage: base, Time: tm}, nil
	case wire.MessageTypeEnableTimeConstrained:
		return &EnableTimeConstrained{BaseMessage: base}, nil
	case wire.MessageTypeEnableTimeRegulation:
		lookahead, err := d.Float64()
		if err != nil {
			return nil, err
		}
		return &EnableTimeRegulation{BaseMessage: base, Lookahead: lookahead}, nil
	case wire.MessageTypeRoleCall:
		return &RoleCall{BaseMessage: base}, nil
	default:
		return nil, ErrUnknownMessageType
	}
}

func putStrings(e *wire.Encoder, ss []string) {
	e.StartArray(len(ss))
	for _, s := range ss {
		e.PutString(s)
	}
	e.EndArray()
}

func getStrings(d *wire.Decoder) ([]string, error) {
	n, err := d.StartArray()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := d.String()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	if err := d.EndArray(); err != nil {
		return nil, err
	}
	return out, nil
}

func putAttributes(e *wire.Encoder, attrs []handle.Attribute) {
	e.StartArray(len(attrs))
	for _, a := range attrs {
		e.PutInt32(int32(a))
	}
	e.EndArray()
}

func getAttributes(d *wire.Decoder) ([]handle.Attribute, error) {
	n, err := d.StartArray()
	if err != nil {
		return nil, err
	}
	out := make([]handle.Attribute, n)
	for i := range out {
		v, err := d.Int32()
		if err != nil {
			return nil, err
		}
		out[i] = handle.Attribute(v)
	}
	if err := d.EndArray(); err != nil {
		return nil, err
	}
	return out, nil
}

func getObjectClassAttrs(d *wire.Decoder) (handle.ObjectClass, []handle.Attribute, error) {
	oc, err := d.Int32()
	if err != nil {
		return 0, nil, err
	}
	attrs, err := getAttributes(d)
	if err != nil {
		return 0, nil, err
	}
	return handle.ObjectClass(oc), attrs, nil
}

// genericWriteBase/genericReadBase carry the BaseMessage fields on the
// generic codec path, mirroring writeBaseFields/readBaseFields's manual
// marshal equivalent but against a wire.Encoder/Decoder stream.
func genericWriteBase(e *wire.Encoder, b *BaseMessage) {
	e.PutBool(b.FromRTI)
	e.PutBool(b.Immediate)
	if b.Timestamp == NullTime {
		e.PutNull()
	} else {
		e.PutFloat64(b.Timestamp)
	}
	e.StartArray(len(b.MultiTargets))
	for _, f := range b.MultiTargets {
		e.PutInt32(int32(f))
	}
	e.EndArray()
}

func genericReadBase(d *wire.Decoder, b *BaseMessage) error {
	fromRTI, err := d.Bool()
	if err != nil {
		return err
	}
	b.FromRTI = fromRTI

	immediate, err := d.Bool()
	if err != nil {
		return err
	}
	b.Immediate = immediate

	if d.PeekIsNull() {
		b.Timestamp = NullTime
	} else {
		ts, err := d.Float64()
		if err != nil {
			return err
		}
		b.Timestamp = ts
	}

	n, err := d.StartArray()
	if err != nil {
		return err
	}
	b.MultiTargets = make([]handle.Federate, n)
	for i := range b.MultiTargets {
		v, err := d.Int32()
		if err != nil {
			return err
		}
		b.MultiTargets[i] = handle.Federate(v)
	}
	if err := d.EndArray(); err != nil {
		return err
	}
	return nil
}
