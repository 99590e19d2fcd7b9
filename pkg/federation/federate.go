package federation

import (
	"github.com/gletthereblight/portico/pkg/conn"
	"github.com/gletthereblight/portico/pkg/handle"
	"github.com/gletthereblight/portico/pkg/timestatus"
)

// Federate is one participant within a Federation (spec §3 "Federate").
type Federate struct {
	Handle     handle.Federate
	Name       string
	Type       string
	HLAVersion string

	// Connection is the RtiConnection this federate joined through.
	// Spec §3 ownership model: a Connection may be shared by several
	// federates living in the same process; Federation holds only a
	// set-membership reference to it, never destroying it.
	Connection *conn.Connection

	Time *timestatus.Status

	// FOMModules lists the additional FOM modules this federate
	// contributed at join time, beyond the federation's base FOM.
	FOMModules []string
}

// NewFederate constructs a Federate with a fresh TimeStatus in its
// initial state.
func NewFederate(h handle.Federate, name, typ, hlaVersion string, c *conn.Connection, foms []string) *Federate {
	return &Federate{
		Handle:     h,
		Name:       name,
		Type:       typ,
		HLAVersion: hlaVersion,
		Connection: c,
		Time:       timestatus.New(),
		FOMModules: append([]string(nil), foms...),
	}
}
