// Package types implements the type and name model of the Void language.
// Types are produced by the parser and shared, read-only, with the
// compiler passes.
package types

// Type is the interface implemented by all types.
type Type interface {
	// String returns a human-readable representation of the type.
	String() string

	// aType is a marker method to restrict implementations to this package.
	aType()
}

// typ is a base struct for all type implementations.
type typ struct{}

func (typ) aType() {}

// Scalar is a type with no nested member types: a possibly qualified
// name with generic arguments, array dimensions and a referencing.
type Scalar struct {
	typ
	Referencing Referencing
	Name        QualifiedName
	Generics    GenericArgumentList
	Array       Array
}

// NewScalar returns a scalar type.
func NewScalar(ref Referencing, name QualifiedName, generics GenericArgumentList, array Array) *Scalar {
	return &Scalar{Referencing: ref, Name: name, Generics: generics, Array: array}
}

// IsArray reports whether s has at least one array dimension.
func (s *Scalar) IsArray() bool {
	return len(s.Array.Dims) > 0
}

// WithReferencing returns a copy of s with a different referencing.
func (s *Scalar) WithReferencing(ref Referencing) *Scalar {
	c := *s
	c.Referencing = ref
	return &c
}

func (s *Scalar) String() string {
	return s.Referencing.String() + s.Name.String() + s.Generics.String() + s.Array.String()
}

// Compound is a tuple type.
type Compound struct {
	typ
	Referencing Referencing
	Members     []Type
}

// NewCompound returns a tuple type of the given members.
func NewCompound(members ...Type) *Compound {
	return &Compound{Members: members}
}

func (c *Compound) String() string {
	return "(" + join(len(c.Members), func(i int) string { return c.Members[i].String() }) + ")"
}

// Lambda is a function type: a result type and a parameter list.
type Lambda struct {
	typ
	Result Type
	Params []*LambdaParam
}

func (l *Lambda) String() string {
	return l.Result.String() + " |" + join(len(l.Params), func(i int) string { return l.Params[i].String() }) + "|"
}

// LambdaParam is a parameter of a lambda type. The name is optional;
// Named distinguishes "(int)" from "(int x)".
type LambdaParam struct {
	Referencing Referencing
	Type        Type
	Variadic    bool
	Name        Name
	Named       bool
}

func (p *LambdaParam) String() string {
	s := p.Referencing.String() + p.Type.String()
	if p.Variadic {
		s += "..."
	}
	if p.Named && p.Name != nil {
		s += " " + p.Name.String()
	}
	return s
}

func join(n int, f func(i int) string) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ", "
		}
		s += f(i)
	}
	return s
}
