package rtimsg

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/wire"
)

func baseFor(t handle.Federate) BaseMessage {
	return BaseMessage{
		SourceFederate:   t,
		TargetFederate:   handle.TargetAllHandle,
		MultiTargets:     []handle.Federate{},
		TargetFederation: handle.Federation(1),
		FromRTI:          true,
		Immediate:        false,
		Timestamp:        NullTime,
	}
}

// roundTrip encodes m, decodes it back through DecodePayload using m's
// own MessageType, and returns the decoded message for comparison.
func roundTrip(t *testing.T, m PorticoMessage) PorticoMessage {
	t.Helper()
	payload, err := EncodePayload(m)
	if err != nil {
		t.Fatalf("EncodePayload(%T): %v", m, err)
	}
	manual := wire.UsesManualMarshal(m.MessageType())
	got, err := DecodePayload(m.MessageType(), manual, payload)
	if err != nil {
		t.Fatalf("DecodePayload(%T): %v", m, err)
	}
	return got
}

func TestMessageRoundTripEveryType(t *testing.T) {
	cases := []PorticoMessage{
		&RtiProbe{BaseMessage: baseFor(1)},
		&CreateFederation{BaseMessage: baseFor(1), FederationName: "F1", FomModules: []string{"a.fed", "b.fed"}},
		&DestroyFederation{BaseMessage: baseFor(1), FederationName: "F1"},
		&JoinFederation{
			BaseMessage: baseFor(1), FederationName: "F1", FederateName: "Fed1",
			FederateType: "fom-type", HLAVersion: "1516e2", AdditionalFoms: []string{"extra.fed"},
		},
		&ResignFederation{BaseMessage: baseFor(1)},
		&PublishObjectClass{BaseMessage: baseFor(1), ObjectClass: 5, Attributes: []handle.Attribute{1, 2, 3}},
		&UnpublishObjectClass{BaseMessage: baseFor(1), ObjectClass: 5, Attributes: []handle.Attribute{}},
		&SubscribeObjectClass{BaseMessage: baseFor(1), ObjectClass: 5, Attributes: []handle.Attribute{1}, Region: handle.NullHandle},
		&UnsubscribeObjectClass{BaseMessage: baseFor(1), ObjectClass: 5, Attributes: []handle.Attribute{1, 2}},
		&PublishInteractionClass{BaseMessage: baseFor(1), InteractionClass: 9},
		&UnpublishInteractionClass{BaseMessage: baseFor(1), InteractionClass: 9},
		&SubscribeInteractionClass{BaseMessage: baseFor(1), InteractionClass: 9, Region: 4},
		&UnsubscribeInteractionClass{BaseMessage: baseFor(1), InteractionClass: 9},
		&RegisterFederationSynchronizationPoint{BaseMessage: baseFor(1), Label: "sync1", Tag: []byte("tag"), Subset: []handle.Federate{1, 2}},
		&SynchronizationPointAchieved{BaseMessage: baseFor(1), Label: "sync1"},
		&AnnounceSynchronizationPoint{BaseMessage: baseFor(1), Label: "sync1", Tag: []byte("tag")},
		&FederationSynchronized{BaseMessage: baseFor(1), Label: "sync1"},
		&TimeAdvanceRequest{BaseMessage: baseFor(1), Time: 12.5},
		&TimeAdvanceRequestAvailable{BaseMessage: baseFor(1), Time: 12.5},
		&TimeAdvanceGrant{BaseMessage: baseFor(1), Time: 12.5},
		&EnableTimeConstrained{BaseMessage: baseFor(1)},
		&EnableTimeRegulation{BaseMessage: baseFor(1), Lookahead: 0.1},
		&RoleCall{BaseMessage: baseFor(1)},
	}

	for _, want := range cases {
		got := roundTrip(t, want)
		if !reflect.DeepEqual(want, got) {
			t.Errorf("%T round trip mismatch:\n  want %+v\n  got  %+v", want, want, got)
		}
	}
}

func TestUpdateAttributesRoundTripVaryingAttributeCount(t *testing.T) {
	for n := 0; n <= 4; n++ {
		values := make(map[handle.Attribute][]byte, n)
		for i := 0; i < n; i++ {
			values[handle.Attribute(i)] = bytes.Repeat([]byte{byte(i)}, i+1)
		}
		want := &UpdateAttributes{
			BaseMessage: baseFor(2),
			ObjectID:    42,
			ObjectClass: 7,
			Values:      values,
			Region:      handle.NullHandle,
		}
		got := roundTrip(t, want)
		if !reflect.DeepEqual(want, got) {
			t.Errorf("UpdateAttributes n=%d round trip mismatch:\n  want %+v\n  got  %+v", n, want, got)
		}
	}
}

func TestSendInteractionRoundTripVaryingParameterCount(t *testing.T) {
	for n := 0; n <= 4; n++ {
		params := make(map[int32][]byte, n)
		for i := 0; i < n; i++ {
			params[int32(i)] = bytes.Repeat([]byte{byte(i + 1)}, i+1)
		}
		want := &SendInteraction{
			BaseMessage:      baseFor(3),
			InteractionClass: 11,
			Parameters:       params,
			Region:           handle.NullHandle,
		}
		got := roundTrip(t, want)
		if !reflect.DeepEqual(want, got) {
			t.Errorf("SendInteraction n=%d round trip mismatch:\n  want %+v\n  got  %+v", n, want, got)
		}
	}
}

func TestMessageRoundTripWithTimestampAndMultiTargets(t *testing.T) {
	base := baseFor(1)
	base.Timestamp = 3.25
	base.MultiTargets = []handle.Federate{1, 2, 3}
	base.TargetFederate = handle.TargetManyHandle

	want := &TimeAdvanceGrant{BaseMessage: base, Time: 10}
	got := roundTrip(t, want)
	if !reflect.DeepEqual(want, got) {
		t.Errorf("round trip mismatch:\n  want %+v\n  got  %+v", want, got)
	}
}

func TestDecodePayloadUnknownManualType(t *testing.T) {
	if _, err := DecodePayload(wire.MessageTypeCreateFederation, true, []byte{manualFlagTrue, 0, 0}); err != ErrUnknownMessageType {
		t.Fatalf("got %v, want ErrUnknownMessageType", err)
	}
}

func TestRoleCallGetTypeDeprecated(t *testing.T) {
	m := &RoleCall{BaseMessage: baseFor(1)}
	if _, err := m.GetType(); err != ErrRoleCallDeprecated {
		t.Fatalf("GetType() error = %v, want ErrRoleCallDeprecated", err)
	}
}

func TestCloneIsDeepCopy(t *testing.T) {
	m := &CreateFederation{BaseMessage: baseFor(1), FederationName: "F1", FomModules: []string{"a.fed"}}
	c := m.Clone().(*CreateFederation)
	c.FomModules[0] = "mutated"
	if m.FomModules[0] == "mutated" {
		t.Fatalf("Clone did not deep-copy FomModules")
	}
}
