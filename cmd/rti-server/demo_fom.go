package main

import (
	"github.com/gletthereblight/portico/pkg/fom"
	"github.com/gletthereblight/portico/pkg/handle"
)

// Demo FOM handles. A real deployment loads these from a FOM module
// file; parsing one is out of this repo's scope (spec.md §1), so the
// demo process wires a small fixed graph instead.
const (
	objClassEntity  handle.ObjectClass = 1
	objClassVehicle handle.ObjectClass = 2

	attrEntityName     handle.Attribute = 1
	attrVehicleSpeed   handle.Attribute = 2
	attrVehicleHeading handle.Attribute = 3

	interactionPing handle.InteractionClass = 1
)

// buildDemoGraph returns the fixed object/interaction class tree this
// demo RTI process publishes and subscribes against: Entity (root,
// attribute Name) <- Vehicle (adds Speed, Heading), plus an
// unrelated Ping interaction.
func buildDemoGraph() *fom.StaticGraph {
	return &fom.StaticGraph{
		Objects: map[handle.ObjectClass]fom.ObjectClassDef{
			objClassEntity: {
				Handle: objClassEntity,
				Name:   "Entity",
				Parent: handle.NullHandle,
				Attributes: map[handle.Attribute]fom.AttributeDef{
					attrEntityName: {Handle: attrEntityName, Name: "Name", Space: handle.NullHandle},
				},
			},
			objClassVehicle: {
				Handle: objClassVehicle,
				Name:   "Vehicle",
				Parent: objClassEntity,
				Attributes: map[handle.Attribute]fom.AttributeDef{
					attrVehicleSpeed:   {Handle: attrVehicleSpeed, Name: "Speed", Space: handle.NullHandle},
					attrVehicleHeading: {Handle: attrVehicleHeading, Name: "Heading", Space: handle.NullHandle},
				},
			},
		},
		Interactions: map[handle.InteractionClass]fom.InteractionClassDef{
			interactionPing: {
				Handle: interactionPing,
				Name:   "Ping",
				Parent: handle.NullHandle,
				Space:  handle.NullHandle,
			},
		},
	}
}
