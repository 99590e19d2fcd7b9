package fom

import (
	"testing"

	"github.com/gletthereblight/portico/pkg/handle"
)

func buildGraph() *StaticGraph {
	return &StaticGraph{
		Objects: map[handle.ObjectClass]ObjectClassDef{
			1: {Handle: 1, Name: "A", Parent: handle.NullHandle, Attributes: map[handle.Attribute]AttributeDef{
				1: {Handle: 1, Name: "a1"},
			}},
			2: {Handle: 2, Name: "B", Parent: 1, Attributes: map[handle.Attribute]AttributeDef{
				1: {Handle: 1, Name: "a1"},
				2: {Handle: 2, Name: "a2"},
			}},
		},
	}
}

func TestStaticGraphObjectClassLookup(t *testing.T) {
	g := buildGraph()
	def, ok := g.ObjectClass(2)
	if !ok {
		t.Fatal("expected class B to be found")
	}
	if def.Parent != 1 {
		t.Fatalf("parent = %v, want 1", def.Parent)
	}
	if _, ok := g.ObjectClass(99); ok {
		t.Fatal("class 99 should not exist")
	}
}

func TestValidateIdentifier(t *testing.T) {
	if err := ValidateIdentifier("ObjectRoot.A"); err != nil {
		t.Fatalf("valid identifier rejected: %v", err)
	}
	if err := ValidateIdentifier(""); err == nil {
		t.Fatal("empty identifier should be rejected")
	}
	if err := ValidateIdentifier("has space"); err == nil {
		t.Fatal("identifier with whitespace should be rejected")
	}
}
