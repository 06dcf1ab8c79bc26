package ssa

import (
	"fmt"

	"github.com/you-not-fish/voidc/internal/ir"
)

// Module holds the functions and globals of one compilation unit in
// creation order.
type Module struct {
	Name    string
	Funcs   []*Func
	Globals []*Global

	ctx     *Context
	funcs   map[string]*Func
	globals map[string]*Global
}

var _ ir.Module = (*Module)(nil)

// Global is a private constant string. Data excludes the terminating NUL.
type Global struct {
	Name  string
	Data  string
	Value *Value
}

// NewModule returns an empty module whose types come from ctx.
func NewModule(ctx *Context, name string) *Module {
	return &Module{
		Name:    name,
		ctx:     ctx,
		funcs:   make(map[string]*Func),
		globals: make(map[string]*Global),
	}
}

func (m *Module) Context() ir.Context { return m.ctx }

// Ctx is Context with a concrete result.
func (m *Module) Ctx() *Context { return m.ctx }

func (m *Module) DeclareFunction(name string, sig ir.Type) ir.Function {
	if f, ok := m.funcs[name]; ok {
		return f
	}
	f := &Func{Name: name, Sig: typ(sig), Module: m}
	m.add(f)
	return f
}

func (m *Module) DefineFunction(name string, sig ir.Type, params ...string) ir.Function {
	if old, ok := m.funcs[name]; ok {
		if !old.IsDeclaration() {
			panic(fmt.Sprintf("ssa: function %s defined twice", name))
		}
		old.define(params)
		return old
	}
	f := NewFunc(name, typ(sig), params...)
	f.Module = m
	m.add(f)
	return f
}

func (m *Module) add(f *Func) {
	m.Funcs = append(m.Funcs, f)
	m.funcs[f.Name] = f
}

func (m *Module) Function(name string) (ir.Function, bool) {
	f, ok := m.funcs[name]
	if !ok {
		return nil, false
	}
	return f, true
}

// Func looks up a function by name.
func (m *Module) Func(name string) *Func { return m.funcs[name] }

func (m *Module) GlobalString(name, value string) ir.Value {
	if g, ok := m.globals[name]; ok {
		return g.Value
	}
	g := &Global{Name: name, Data: value}
	g.Value = &Value{ID: -1, Op: OpGlobal, Typ: m.ctx.Pointer(m.ctx.IntType(8)), Aux: g}
	m.Globals = append(m.Globals, g)
	m.globals[name] = g
	return g.Value
}
