package types

import (
	"strconv"

	"github.com/you-not-fish/voidc/internal/token"
)

// Array is the ordered list of array dimensions of a scalar type.
// Dimension 0 is the leftmost bracket in source.
type Array struct {
	Dims []Dimension
}

// NoArray returns the empty dimension list.
func NoArray() Array { return Array{} }

// Implicit returns n dimensions without sizes.
func Implicit(n int) Array {
	a := Array{Dims: make([]Dimension, n)}
	for i := range a.Dims {
		a.Dims[i] = ImplicitDimension()
	}
	return a
}

// Explicit returns one constant dimension per size.
func Explicit(sizes ...int) Array {
	a := Array{Dims: make([]Dimension, len(sizes))}
	for i, n := range sizes {
		a.Dims[i] = ConstantDimension(n)
	}
	return a
}

// Equal reports whether a and b have pairwise equal dimensions.
func (a Array) Equal(b Array) bool {
	if len(a.Dims) != len(b.Dims) {
		return false
	}
	for i := range a.Dims {
		if !a.Dims[i].Equal(b.Dims[i]) {
			return false
		}
	}
	return true
}

func (a Array) String() string {
	s := ""
	for _, d := range a.Dims {
		s += d.String()
	}
	return s
}

// Dimension is one array dimension. Size is an Integer literal for a
// constant dimension, an Identifier for a symbolic one, or None.
type Dimension struct {
	Size     token.Token
	Explicit bool
}

// ImplicitDimension returns a dimension without a size, as in int[].
func ImplicitDimension() Dimension {
	return Dimension{Size: token.Of(token.None, "")}
}

// ConstantDimension returns a dimension of the given constant size.
func ConstantDimension(n int) Dimension {
	return Dimension{Size: token.Of(token.Integer, strconv.Itoa(n)), Explicit: true}
}

// SymbolicDimension returns a dimension sized by a named constant.
func SymbolicDimension(name string) Dimension {
	return Dimension{Size: token.Of(token.Identifier, name), Explicit: true}
}

// IsConstant reports whether the size is an integer literal.
func (d Dimension) IsConstant() bool {
	return d.Size.Kind == token.Integer
}

// SizeConstant returns the constant size. It reports false for a
// non-constant dimension.
func (d Dimension) SizeConstant() (int, bool) {
	if !d.IsConstant() {
		return 0, false
	}
	n, err := strconv.Atoi(d.Size.Text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Equal reports whether d and e have the same explicitness and size token.
func (d Dimension) Equal(e Dimension) bool {
	return d.Explicit == e.Explicit && d.Size.Same(e.Size)
}

func (d Dimension) String() string {
	if d.Explicit {
		return "[" + d.Size.Text + "]"
	}
	return "[]"
}

// ElementType returns the type produced by indexing s once: the first
// dimension is dropped while referencing and generics are kept. It
// reports false when s is not an array.
func ElementType(s *Scalar) (*Scalar, bool) {
	if !s.IsArray() {
		return nil, false
	}
	elem := *s
	if len(s.Array.Dims) == 1 {
		elem.Array = NoArray()
	} else {
		elem.Array = Array{Dims: append([]Dimension(nil), s.Array.Dims[1:]...)}
	}
	return &elem, true
}
