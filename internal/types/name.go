package types

import (
	"strings"

	"github.com/you-not-fish/voidc/internal/token"
)

// QualifiedName is an ordered list of dotted name segments, such as
// "int", "Foo" or "lang.Foo".
type QualifiedName struct {
	Segments []string

	// primitive is set when the single segment was a type keyword token.
	primitive bool
}

// NewQualifiedName builds a name from parsed tokens. A single type
// keyword token makes a primitive name.
func NewQualifiedName(toks ...token.Token) QualifiedName {
	q := QualifiedName{Segments: make([]string, len(toks))}
	for i, t := range toks {
		q.Segments[i] = t.Text
	}
	q.primitive = len(toks) == 1 && toks[0].Kind == token.Type
	return q
}

// PrimitiveName returns the name of a built-in type keyword.
func PrimitiveName(keyword string) QualifiedName {
	return QualifiedName{Segments: []string{keyword}, primitive: token.IsTypeKeyword(keyword)}
}

// Named returns a non-primitive name of the given segments.
func Named(segments ...string) QualifiedName {
	return QualifiedName{Segments: segments}
}

// IsPrimitive reports whether the name is exactly one built-in type keyword.
func (q QualifiedName) IsPrimitive() bool {
	return q.primitive && len(q.Segments) == 1
}

// Primitive returns the type keyword of a primitive name, or "".
func (q QualifiedName) Primitive() string {
	if !q.IsPrimitive() {
		return ""
	}
	return q.Segments[0]
}

// IsLet reports whether the name is the inferred-type keyword let.
func (q QualifiedName) IsLet() bool {
	return q.IsPrimitive() && q.Segments[0] == "let"
}

// Direct returns the first segment, which names the local, parameter
// or type that a dotted access path starts from.
func (q QualifiedName) Direct() string {
	if len(q.Segments) == 0 {
		return ""
	}
	return q.Segments[0]
}

// IsFieldAccess reports whether q is a dotted access path.
func (q QualifiedName) IsFieldAccess() bool {
	return len(q.Segments) > 1
}

// FieldName returns the last segment of a dotted access path.
func (q QualifiedName) FieldName() string {
	if len(q.Segments) == 0 {
		return ""
	}
	return q.Segments[len(q.Segments)-1]
}

// Equal reports whether q and p have the same segments.
func (q QualifiedName) Equal(p QualifiedName) bool {
	if len(q.Segments) != len(p.Segments) {
		return false
	}
	for i := range q.Segments {
		if q.Segments[i] != p.Segments[i] {
			return false
		}
	}
	return true
}

func (q QualifiedName) String() string {
	return strings.Join(q.Segments, ".")
}

// Name is a binding name in a parameter or local declaration. It mirrors
// the Type shape: a scalar identifier or a compound for destructuring.
type Name interface {
	String() string
	aName()
}

// ScalarName is a single identifier.
type ScalarName struct {
	Value string
}

func (*ScalarName) aName() {}

func (n *ScalarName) String() string { return n.Value }

// CompoundName is a parenthesized list of names, as in let (a, b) = t.
type CompoundName struct {
	Members []Name
}

func (*CompoundName) aName() {}

func (n *CompoundName) String() string {
	return "(" + join(len(n.Members), func(i int) string { return n.Members[i].String() }) + ")"
}

// Flatten returns every scalar name of n in source order.
func Flatten(n Name) []string {
	switch n := n.(type) {
	case *ScalarName:
		return []string{n.Value}
	case *CompoundName:
		var names []string
		for _, m := range n.Members {
			names = append(names, Flatten(m)...)
		}
		return names
	}
	return nil
}
