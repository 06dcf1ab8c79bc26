package compile

import (
	"fmt"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/types"
)

// declState tracks the backend function of a method.
type declState uint8

const (
	declNone     declState = iota
	declDeclared           // external, no body in this module
	declDefined            // body created, filled by generate
)

type methodDecl struct {
	state declState
	fn    ir.Function
}

// unitContext is the backend state of one unit: its module, the builder
// and the caches of functions, struct layouts and strings.
type unitContext struct {
	ctx ir.Context
	mod ir.Module
	b   ir.Builder

	decls   map[*syntax.Method]*methodDecl
	structs map[*Class]ir.Type
	layouts map[*Class]layoutState
	strs    map[string]ir.Value

	printf     ir.Function
	exit       ir.Function
	checkIndex ir.Function
	pow        ir.Function
	memory     bool
}

func newUnitContext(ctx ir.Context, name string) *unitContext {
	return &unitContext{
		ctx:     ctx,
		mod:     ctx.NewModule(name),
		b:       ctx.NewBuilder(),
		decls:   make(map[*syntax.Method]*methodDecl),
		structs: make(map[*Class]ir.Type),
		layouts: make(map[*Class]layoutState),
		strs:    make(map[string]ir.Value),
	}
}

// function returns the backend function of m, creating it on first use.
// Methods of the unit's own package are defined; imported and extern
// methods are declared.
func (u *unitContext) function(c *compiler, owner *Package, key string, m *syntax.Method) ir.Function {
	if d, ok := u.decls[m]; ok && d.state != declNone {
		return d.fn
	}
	q := c.qualifier(owner)
	params := make([]ir.Type, len(m.Params))
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = c.irType(q(p.Type))
		names[i] = fmt.Sprintf("arg%d", i)
		if n, ok := p.Name.(*types.ScalarName); ok {
			names[i] = n.Value
		}
	}
	result := u.ctx.Void()
	if r := m.Result.Unnamed(); !types.IsVoid(r) {
		result = c.irType(q(r))
	}
	sig := u.ctx.FuncOf(result, params, false)

	d := &methodDecl{}
	switch {
	case isExtern(m):
		d.fn, d.state = u.mod.DeclareFunction(m.Name, sig), declDeclared
	case owner == c.pkg:
		d.fn, d.state = u.mod.DefineFunction(owner.linkName(key, m), sig, names...), declDefined
	default:
		d.fn, d.state = u.mod.DeclareFunction(owner.linkName(key, m), sig), declDeclared
	}
	u.decls[m] = d
	return d.fn
}

// str returns the global holding s.
func (u *unitContext) str(s string) ir.Value {
	if v, ok := u.strs[s]; ok {
		return v
	}
	v := u.mod.GlobalString(fmt.Sprintf("str.%d", len(u.strs)), s)
	u.strs[s] = v
	return v
}

func (u *unitContext) bytePtr() ir.Type { return u.ctx.PointerTo(u.ctx.Int(8)) }

func (u *unitContext) printfFn() ir.Function {
	if u.printf == nil {
		sig := u.ctx.FuncOf(u.ctx.Int(32), []ir.Type{u.bytePtr()}, true)
		u.printf = u.mod.DeclareFunction(rtabi.FnPrintf, sig)
	}
	return u.printf
}

func (u *unitContext) exitFn() ir.Function {
	if u.exit == nil {
		sig := u.ctx.FuncOf(u.ctx.Void(), []ir.Type{u.ctx.Int(32)}, false)
		u.exit = u.mod.DeclareFunction(rtabi.FnExit, sig)
	}
	return u.exit
}

// declareMemory declares the C allocator the first time the unit
// allocates or frees heap memory.
func (u *unitContext) declareMemory() {
	if u.memory {
		return
	}
	u.memory = true
	u.mod.DeclareFunction(rtabi.FnMalloc, u.ctx.FuncOf(u.bytePtr(), []ir.Type{u.ctx.Int(64)}, false))
	u.mod.DeclareFunction(rtabi.FnFree, u.ctx.FuncOf(u.ctx.Void(), []ir.Type{u.bytePtr()}, false))
}

// checkIndexFn returns the bounds-check helper. It prints the index
// message and exits with ExitIndexOutOfBounds when index is outside
// [0, length). Both operands are compared as i64 so that wide indexes
// are not truncated into range.
func (u *unitContext) checkIndexFn() ir.Function {
	if u.checkIndex != nil {
		return u.checkIndex
	}
	ctx := u.ctx
	i32, i64 := ctx.Int(32), ctx.Int(64)
	f := u.mod.DefineFunction(rtabi.FnCheckIndex, ctx.FuncOf(ctx.Void(), []ir.Type{i64, i64}, false), "index", "length")
	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	fail, ok := f.AddBlock("fail"), f.AddBlock("ok")
	index, length := f.Param(0), f.Param(1)
	bad := b.Or(b.ICmp(ir.IntSLT, index, ctx.ConstInt(i64, 0)), b.ICmp(ir.IntSGE, index, length))
	b.CondBr(bad, fail, ok)

	b.SetInsertPoint(fail)
	msg := u.mod.GlobalString(rtabi.GlobalIndexMessage, rtabi.IndexMessage)
	b.Call(u.printfFn(), msg, index, length)
	b.Call(u.exitFn(), ctx.ConstInt(i32, rtabi.ExitIndexOutOfBounds))
	b.RetVoid()

	b.SetInsertPoint(ok)
	b.RetVoid()
	u.checkIndex = f
	return f
}

// powFn returns the integer power helper. Exponents below one yield 1.
func (u *unitContext) powFn() ir.Function {
	if u.pow != nil {
		return u.pow
	}
	ctx := u.ctx
	i64 := ctx.Int(64)
	one := ctx.ConstInt(i64, 1)
	f := u.mod.DefineFunction(rtabi.FnPowInt, ctx.FuncOf(i64, []ir.Type{i64, i64}, false), "base", "exp")
	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	result := b.Alloca(i64, nil, "result")
	exp := b.Alloca(i64, nil, "n")
	b.Store(one, result)
	b.Store(f.Param(1), exp)
	cond, body, done := f.AddBlock("cond"), f.AddBlock("body"), f.AddBlock("done")
	b.Br(cond)

	b.SetInsertPoint(cond)
	b.CondBr(b.ICmp(ir.IntSGT, b.Load(exp), ctx.ConstInt(i64, 0)), body, done)

	b.SetInsertPoint(body)
	b.Store(b.Mul(b.Load(result), f.Param(0)), result)
	b.Store(b.Sub(b.Load(exp), one), exp)
	b.Br(cond)

	b.SetInsertPoint(done)
	b.Ret(b.Load(result))
	u.pow = f
	return f
}
