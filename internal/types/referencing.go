package types

import "strings"

// ReferencingKind is the pointer, reference or mutability qualifier of a type.
type ReferencingKind int

const (
	NoReferencing ReferencingKind = iota
	Reference
	Dereference
	Mutable
)

// Referencing qualifies a type. Dimensions counts the indirection depth
// and is only meaningful for Reference and Dereference.
type Referencing struct {
	Kind       ReferencingKind
	Dimensions int
}

// None returns the empty referencing.
func None() Referencing { return Referencing{} }

// Ref returns a reference referencing of the given depth.
func Ref(dims int) Referencing { return Referencing{Kind: Reference, Dimensions: dims} }

// Deref returns a dereference referencing of the given depth.
func Deref(dims int) Referencing { return Referencing{Kind: Dereference, Dimensions: dims} }

// Mut returns the mutable referencing.
func Mut() Referencing { return Referencing{Kind: Mutable} }

// Depth returns the indirection depth, zero unless r is a reference or
// dereference.
func (r Referencing) Depth() int {
	if r.Kind == Reference || r.Kind == Dereference {
		return r.Dimensions
	}
	return 0
}

// String renders r as a prefix, including a trailing space when non-empty.
func (r Referencing) String() string {
	switch r.Kind {
	case Reference:
		return "ref" + strings.Repeat("*", max(r.Dimensions-1, 0)) + " "
	case Dereference:
		return "deref" + strings.Repeat("*", max(r.Dimensions-1, 0)) + " "
	case Mutable:
		return "mut "
	}
	return ""
}

// AddReference returns s with one more reference dimension.
func AddReference(s *Scalar) *Scalar {
	return s.WithReferencing(Ref(s.Referencing.Depth() + 1))
}

// RemoveReference returns s with one reference dimension less. It
// reports false when s is not a reference.
func RemoveReference(s *Scalar) (*Scalar, bool) {
	if s.Referencing.Kind != Reference {
		return nil, false
	}
	if s.Referencing.Dimensions > 1 {
		return s.WithReferencing(Ref(s.Referencing.Dimensions - 1)), true
	}
	return s.WithReferencing(None()), true
}
