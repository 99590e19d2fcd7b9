// Package rtimsg defines PorticoMessage: the typed, cloneable
// application-level payloads carried after every wire header
// (spec §3 "PorticoMessage"). Concrete subtypes are value objects;
// once constructed and handed to a Connection they must not be
// mutated by the producer (spec §3 ownership model).
package rtimsg

import (
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/wire"
)

// NullTime is the sentinel timestamp meaning "untimestamped".
const NullTime = -1.0

// PorticoMessage is the common contract every concrete message
// satisfies: source/target addressing, federation scoping, the
// fromRti/immediate flags, and an optional logical timestamp.
type PorticoMessage interface {
	MessageType() wire.MessageType
	Base() *BaseMessage
	Clone() PorticoMessage
}

// BaseMessage carries the fields every PorticoMessage shares
// (spec §3). Concrete message types embed it.
type BaseMessage struct {
	SourceFederate    handle.Federate
	TargetFederate    handle.Federate
	MultiTargets      []handle.Federate // populated only when TargetFederate == TargetManyHandle
	TargetFederation  handle.Federation
	FromRTI           bool
	Immediate         bool
	Timestamp         float64
}

// Base returns a pointer to the embedded BaseMessage so generic code
// can read/write the shared fields without a type switch.
func (b *BaseMessage) Base() *BaseMessage { return b }

// IsTimestamped reports whether Timestamp carries a real value rather
// than the NullTime sentinel.
func (b *BaseMessage) IsTimestamped() bool { return b.Timestamp != NullTime }

func cloneBase(b BaseMessage) BaseMessage {
	out := b
	if b.MultiTargets != nil {
		out.MultiTargets = append([]handle.Federate(nil), b.MultiTargets...)
	}
	return out
}
