package ssa

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/rtabi"
)

// Type is the backend type used by SSA values. Types are interned by their
// Context, so two types are identical exactly when their pointers are equal.
type Type struct {
	kind     ir.TypeKind
	bits     int
	elem     *Type
	len      int
	fields   []*Type
	result   *Type
	params   []*Type
	variadic bool
	str      string
}

var _ ir.Type = (*Type)(nil)

func (t *Type) Kind() ir.TypeKind { return t.kind }
func (t *Type) Bits() int         { return t.bits }
func (t *Type) Len() int          { return t.len }
func (t *Type) NumFields() int    { return len(t.fields) }
func (t *Type) Variadic() bool    { return t.variadic }
func (t *Type) String() string    { return t.str }

func (t *Type) Elem() ir.Type {
	if t.elem == nil {
		return nil
	}
	return t.elem
}

func (t *Type) Field(i int) ir.Type { return t.fields[i] }

// ElemType is Elem with a concrete result.
func (t *Type) ElemType() *Type { return t.elem }

// IsScalar reports whether values of t fit in a register: integers,
// floats and pointers.
func (t *Type) IsScalar() bool {
	switch t.kind {
	case ir.IntKind, ir.FloatKind, ir.PointerKind:
		return true
	}
	return false
}

func (t *Type) Result() ir.Type {
	if t.result == nil {
		return nil
	}
	return t.result
}

func (t *Type) Params() []ir.Type {
	out := make([]ir.Type, len(t.params))
	for i, p := range t.params {
		out[i] = p
	}
	return out
}

// IsVoid reports whether t is the void type.
func (t *Type) IsVoid() bool { return t.kind == ir.VoidKind }

// typeString renders t in LLVM's typed-pointer syntax.
func typeString(t *Type) string {
	switch t.kind {
	case ir.VoidKind:
		return "void"
	case ir.IntKind:
		return fmt.Sprintf("i%d", t.bits)
	case ir.FloatKind:
		if t.bits == 32 {
			return "float"
		}
		return "double"
	case ir.PointerKind:
		return t.elem.str + "*"
	case ir.ArrayKind:
		return fmt.Sprintf("[%d x %s]", t.len, t.elem.str)
	case ir.StructKind:
		if len(t.fields) == 0 {
			return "{}"
		}
		parts := make([]string, len(t.fields))
		for i, f := range t.fields {
			parts[i] = f.str
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case ir.FuncKind:
		parts := make([]string, 0, len(t.params)+1)
		for _, p := range t.params {
			parts = append(parts, p.str)
		}
		if t.variadic {
			parts = append(parts, "...")
		}
		return fmt.Sprintf("%s (%s)", t.result.str, strings.Join(parts, ", "))
	}
	return "?"
}

// ----------------------------------------------------------------------------
// Layout

// Sizeof returns the allocation size of t in bytes, including trailing
// padding for structs.
func Sizeof(t ir.Type) int64 {
	switch t.Kind() {
	case ir.IntKind:
		return int64((t.Bits() + 7) / 8)
	case ir.FloatKind:
		return int64(t.Bits() / 8)
	case ir.PointerKind, ir.FuncKind:
		return rtabi.SizePtr
	case ir.ArrayKind:
		return int64(t.Len()) * Sizeof(t.Elem())
	case ir.StructKind:
		var off int64
		for i := 0; i < t.NumFields(); i++ {
			f := t.Field(i)
			off = align(off, Alignof(f)) + Sizeof(f)
		}
		return align(off, Alignof(t))
	}
	return 0
}

// Alignof returns the ABI alignment of t in bytes.
func Alignof(t ir.Type) int64 {
	switch t.Kind() {
	case ir.ArrayKind:
		return Alignof(t.Elem())
	case ir.StructKind:
		a := int64(1)
		for i := 0; i < t.NumFields(); i++ {
			a = max(a, Alignof(t.Field(i)))
		}
		return a
	case ir.VoidKind:
		return 1
	}
	return max(Sizeof(t), 1)
}

// Offsetof returns the byte offset of field i within struct type t.
func Offsetof(t ir.Type, i int) int64 {
	var off int64
	for j := 0; j <= i; j++ {
		f := t.Field(j)
		off = align(off, Alignof(f))
		if j < i {
			off += Sizeof(f)
		}
	}
	return off
}

func align(x, a int64) int64 {
	return (x + a - 1) / a * a
}
