package types

// Universe constructors for frequently used scalar types.

// Basic returns the unqualified scalar of a primitive keyword.
func Basic(keyword string) *Scalar {
	return NewScalar(None(), PrimitiveName(keyword), NoGenerics(), NoArray())
}

// ArrayOf returns the scalar of elem with the given dimensions appended.
func ArrayOf(elem *Scalar, dims ...Dimension) *Scalar {
	c := *elem
	c.Array = Array{Dims: append(append([]Dimension(nil), elem.Array.Dims...), dims...)}
	return &c
}

// ClassType returns the scalar naming a declared class.
func ClassType(name string) *Scalar {
	return NewScalar(None(), Named(name), NoGenerics(), NoArray())
}

var (
	BoolType   = Basic("bool")
	IntType    = Basic("int")
	LongType   = Basic("long")
	DoubleType = Basic("double")
	StringType = Basic("string")
	VoidType   = Basic("void")
)
