// Package fom defines the read-only FOM (Federation Object Model)
// metadata contract consumed by pkg/interest for class-existence and
// inheritance-chain lookups. Parsing a FOM module into this shape is
// explicitly out of scope (spec.md §1 Non-goals); callers construct a
// Graph however they like (tests use StaticGraph) and hand it to the
// interest manager.
package fom

import "github.com/gletthereblight/portico/pkg/handle"

// AttributeDef describes one attribute of an object class.
type AttributeDef struct {
	Handle handle.Attribute
	Name   string
	// Space is the attribute's declared DDM routing space, or
	// handle.NullHandle if the attribute isn't DDM-aware.
	Space handle.Dimension
}

// ObjectClassDef describes one object class node in the inheritance
// tree.
type ObjectClassDef struct {
	Handle     handle.ObjectClass
	Name       string
	Parent     handle.ObjectClass // handle.NullHandle at the root
	Attributes map[handle.Attribute]AttributeDef
}

// InteractionClassDef describes one interaction class node.
type InteractionClassDef struct {
	Handle handle.InteractionClass
	Name   string
	Parent handle.InteractionClass // handle.NullHandle at the root
	// Space is the interaction's declared DDM routing space, or
	// handle.NullHandle.
	Space handle.Dimension
}

// Graph is the read-only metadata surface the interest manager walks
// for class existence, attribute membership, and inheritance-chain
// discovery resolution (spec §4.6).
type Graph interface {
	ObjectClass(h handle.ObjectClass) (ObjectClassDef, bool)
	InteractionClass(h handle.InteractionClass) (InteractionClassDef, bool)
}

// StaticGraph is an in-memory Graph built from fixed maps, sufficient
// for tests and for a demo process wired up in cmd/rti-server. A real
// deployment's FOM ingestion path is out of this repo's scope.
type StaticGraph struct {
	Objects      map[handle.ObjectClass]ObjectClassDef
	Interactions map[handle.InteractionClass]InteractionClassDef
}

func (g *StaticGraph) ObjectClass(h handle.ObjectClass) (ObjectClassDef, bool) {
	d, ok := g.Objects[h]
	return d, ok
}

func (g *StaticGraph) InteractionClass(h handle.InteractionClass) (InteractionClassDef, bool) {
	d, ok := g.Interactions[h]
	return d, ok
}
