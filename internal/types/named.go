package types

// NamedType is a type in signature position, where each leaf may carry
// a binding name, as in the result type (bool ok, string msg).
type NamedType interface {
	Type
	// Unnamed returns the type with all binding names removed.
	Unnamed() Type
	aNamed()
}

// NamedScalar is a scalar with an optional binding name.
type NamedScalar struct {
	typ
	Scalar *Scalar
	Name   string
	Named  bool
}

// NewNamedScalar returns a named scalar. An empty name makes it unnamed.
func NewNamedScalar(s *Scalar, name string) *NamedScalar {
	return &NamedScalar{Scalar: s, Name: name, Named: name != ""}
}

func (*NamedScalar) aNamed() {}

func (n *NamedScalar) Unnamed() Type { return n.Scalar }

func (n *NamedScalar) String() string {
	if n.Named {
		return n.Scalar.String() + " " + n.Name
	}
	return n.Scalar.String()
}

// NamedGroup is a tuple of named types.
type NamedGroup struct {
	typ
	Referencing Referencing
	Members     []NamedType
}

func (*NamedGroup) aNamed() {}

func (g *NamedGroup) Unnamed() Type {
	c := &Compound{Referencing: g.Referencing, Members: make([]Type, len(g.Members))}
	for i, m := range g.Members {
		c.Members[i] = m.Unnamed()
	}
	return c
}

func (g *NamedGroup) String() string {
	return "(" + join(len(g.Members), func(i int) string { return g.Members[i].String() }) + ")"
}

// NamedLambda is a lambda in signature position.
type NamedLambda struct {
	typ
	Result NamedType
	Params []*NamedScalar
	Name   string
	Named  bool
}

func (*NamedLambda) aNamed() {}

func (l *NamedLambda) Unnamed() Type {
	lam := &Lambda{Result: l.Result.Unnamed(), Params: make([]*LambdaParam, len(l.Params))}
	for i, p := range l.Params {
		lam.Params[i] = &LambdaParam{Type: p.Scalar}
		if p.Named {
			lam.Params[i].Name = &ScalarName{Value: p.Name}
			lam.Params[i].Named = true
		}
	}
	return lam
}

func (l *NamedLambda) String() string {
	s := l.Result.String() + " |" + join(len(l.Params), func(i int) string { return l.Params[i].String() }) + "|"
	if l.Named {
		s += " " + l.Name
	}
	return s
}

// Unwrap strips binding names from a named type and returns other
// types unchanged.
func Unwrap(t Type) Type {
	if n, ok := t.(NamedType); ok {
		return n.Unnamed()
	}
	return t
}
