package types

// GenericArgumentList is the list of type arguments applied to a type,
// as in Map<string, List<int>>. An explicit empty list is the diamond
// form <>, which requests inference.
type GenericArgumentList struct {
	Args     []GenericArgument
	Explicit bool
}

// NoGenerics returns the implicit, empty argument list.
func NoGenerics() GenericArgumentList { return GenericArgumentList{} }

// Diamond returns the explicit, empty argument list.
func Diamond() GenericArgumentList { return GenericArgumentList{Explicit: true} }

// IsDiamond reports whether the list is the diamond form.
func (l GenericArgumentList) IsDiamond() bool {
	return l.Explicit && len(l.Args) == 0
}

// Equal reports whether l and m are the same argument list.
func (l GenericArgumentList) Equal(m GenericArgumentList) bool {
	if l.Explicit != m.Explicit || len(l.Args) != len(m.Args) {
		return false
	}
	for i := range l.Args {
		if !l.Args[i].Equal(m.Args[i]) {
			return false
		}
	}
	return true
}

func (l GenericArgumentList) String() string {
	if !l.Explicit {
		return ""
	}
	return "<" + join(len(l.Args), func(i int) string { return l.Args[i].String() }) + ">"
}

// GenericArgument is one type argument. A nil Type stands for the
// default of the corresponding type parameter.
type GenericArgument struct {
	Type Type
	Args GenericArgumentList
}

// Equal reports whether a and b are the same argument.
func (a GenericArgument) Equal(b GenericArgument) bool {
	if (a.Type == nil) != (b.Type == nil) {
		return false
	}
	if a.Type != nil && !Identical(a.Type, b.Type) {
		return false
	}
	return a.Args.Equal(b.Args)
}

func (a GenericArgument) String() string {
	if a.Type == nil {
		return "default" + a.Args.String()
	}
	return a.Type.String() + a.Args.String()
}

// GenericTypeList is the type parameter list of a declaration, as in
// <K, V = int>.
type GenericTypeList struct {
	Types    []GenericType
	Explicit bool
}

// NoTypeParams returns the empty, implicit type parameter list.
func NoTypeParams() GenericTypeList { return GenericTypeList{} }

// Names returns the parameter names in order.
func (l GenericTypeList) Names() []string {
	names := make([]string, len(l.Types))
	for i, t := range l.Types {
		names[i] = t.Name
	}
	return names
}

func (l GenericTypeList) String() string {
	if !l.Explicit {
		return ""
	}
	return "<" + join(len(l.Types), func(i int) string { return l.Types[i].String() }) + ">"
}

// GenericType is one type parameter with an optional default.
type GenericType struct {
	Name    string
	Default Type
	Args    GenericTypeList
}

func (g GenericType) String() string {
	s := g.Name + g.Args.String()
	if g.Default != nil {
		s += " = " + g.Default.String()
	}
	return s
}
