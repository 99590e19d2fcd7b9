package fom

import "github.com/go-playground/validator/v10"

// identifier wraps a FOM name string so it can be run through a
// validator.v10 struct validation instead of a hand-rolled character
// check. We never parse a FOM module; we only ever validate names
// already attached to handles the caller handed us (spec §1 Non-goal:
// "The HLA Object Model (FOM) parser").
type identifier struct {
	Name string `validate:"required,max=256,excludesall= \t\n"`
}

var validate = validator.New()

// ValidateIdentifier reports whether name is a well-formed FOM class
// or attribute identifier: non-empty, bounded length, no whitespace.
func ValidateIdentifier(name string) error {
	return validate.Struct(identifier{Name: name})
}
