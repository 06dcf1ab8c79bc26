package ssa

import (
	"fmt"

	"github.com/you-not-fish/voidc/internal/ir"
)

// Context interns types and creates modules and builders. A Context is
// owned by one compilation unit and is not safe for concurrent use.
type Context struct {
	types map[string]*Type
	void  *Type
}

var _ ir.Context = (*Context)(nil)

// NewContext returns an empty context.
func NewContext() *Context {
	c := &Context{types: make(map[string]*Type)}
	c.void = c.intern(&Type{kind: ir.VoidKind})
	return c
}

func (c *Context) intern(t *Type) *Type {
	t.str = typeString(t)
	if old, ok := c.types[t.str]; ok {
		return old
	}
	c.types[t.str] = t
	return t
}

// typ converts an ir.Type produced by this package back to *Type.
func typ(t ir.Type) *Type {
	if t == nil {
		return nil
	}
	st, ok := t.(*Type)
	if !ok {
		panic(fmt.Sprintf("ssa: foreign type %T", t))
	}
	return st
}

func (c *Context) Void() ir.Type { return c.void }

func (c *Context) Int(bits int) ir.Type { return c.IntType(bits) }

// IntType is Int with a concrete result.
func (c *Context) IntType(bits int) *Type {
	return c.intern(&Type{kind: ir.IntKind, bits: bits})
}

func (c *Context) Float() ir.Type  { return c.intern(&Type{kind: ir.FloatKind, bits: 32}) }
func (c *Context) Double() ir.Type { return c.intern(&Type{kind: ir.FloatKind, bits: 64}) }

func (c *Context) PointerTo(elem ir.Type) ir.Type { return c.Pointer(typ(elem)) }

// Pointer is PointerTo with a concrete result.
func (c *Context) Pointer(elem *Type) *Type {
	return c.intern(&Type{kind: ir.PointerKind, elem: elem})
}

func (c *Context) ArrayOf(elem ir.Type, n int) ir.Type {
	return c.intern(&Type{kind: ir.ArrayKind, elem: typ(elem), len: n})
}

func (c *Context) StructOf(fields ...ir.Type) ir.Type {
	fs := make([]*Type, len(fields))
	for i, f := range fields {
		fs[i] = typ(f)
	}
	return c.intern(&Type{kind: ir.StructKind, fields: fs})
}

func (c *Context) FuncOf(result ir.Type, params []ir.Type, variadic bool) ir.Type {
	ps := make([]*Type, len(params))
	for i, p := range params {
		ps[i] = typ(p)
	}
	return c.intern(&Type{kind: ir.FuncKind, result: typ(result), params: ps, variadic: variadic})
}

func (c *Context) SizeOf(t ir.Type) int64 { return Sizeof(t) }

func (c *Context) ConstInt(t ir.Type, v int64) ir.Value {
	return &Value{ID: -1, Op: OpConstInt, Typ: typ(t), AuxInt: v}
}

func (c *Context) ConstFloat(t ir.Type, v float64) ir.Value {
	return &Value{ID: -1, Op: OpConstFloat, Typ: typ(t), AuxFloat: v}
}

func (c *Context) Null(t ir.Type) ir.Value {
	return &Value{ID: -1, Op: OpConstNull, Typ: typ(t)}
}

func (c *Context) NewModule(name string) ir.Module { return NewModule(c, name) }

func (c *Context) NewBuilder() ir.Builder { return &Builder{ctx: c} }
