package types

// Identical reports whether x and y are identical types. Referencing
// never participates: ref int and int are identical.
func Identical(x, y Type) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	return identical(Unwrap(x), Unwrap(y))
}

func identical(x, y Type) bool {
	switch x := x.(type) {
	case *Scalar:
		if y, ok := y.(*Scalar); ok {
			return x.Name.Equal(y.Name) && x.Generics.Equal(y.Generics) && x.Array.Equal(y.Array)
		}
	case *Compound:
		if y, ok := y.(*Compound); ok {
			return identicalLists(x.Members, y.Members)
		}
	case *Lambda:
		if y, ok := y.(*Lambda); ok {
			return identicalLambdas(x, y)
		}
	}
	return false
}

func identicalLists(x, y []Type) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !Identical(x[i], y[i]) {
			return false
		}
	}
	return true
}

func identicalLambdas(x, y *Lambda) bool {
	if !Identical(x.Result, y.Result) || len(x.Params) != len(y.Params) {
		return false
	}
	for i := range x.Params {
		if x.Params[i].Variadic != y.Params[i].Variadic {
			return false
		}
		if !Identical(x.Params[i].Type, y.Params[i].Type) {
			return false
		}
	}
	return true
}

// IdenticalParams reports whether two parameter type lists match
// pairwise.
func IdenticalParams(x, y []Type) bool {
	return identicalLists(x, y)
}

// IsVoid reports whether t is the void type.
func IsVoid(t Type) bool {
	p := PrimitiveOf(t)
	return p != nil && p.kind == Void
}

// IsClassType reports whether t is a non-primitive scalar, i.e. names a
// declared class.
func IsClassType(t Type) bool {
	s, ok := Unwrap(t).(*Scalar)
	return ok && !s.Name.IsPrimitive() && !s.IsArray()
}
