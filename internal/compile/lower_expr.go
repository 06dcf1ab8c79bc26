package compile

import (
	"strings"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/token"
	"github.com/you-not-fish/voidc/internal/types"
)

// lowerExpr emits e and returns its value.
func (c *compiler) lowerExpr(e syntax.Expr) ir.Value {
	b := c.u.b
	ctx := c.u.ctx
	switch e := e.(type) {
	case *syntax.Literal:
		return c.lowerLiteral(e)

	case *syntax.Accessor:
		if !e.Name.IsFieldAccess() {
			return c.readVar(c.uses[e])
		}
		fields := c.paths[e]
		ptr := c.fieldAddr(c.uses[e], fields)
		if fields[len(fields)-1].Type.IsArray() {
			return ptr
		}
		return b.Load(ptr)

	case *syntax.Call:
		return c.lowerCall(e)

	case *syntax.New, *syntax.Malloc:
		if c.isCell(c.typeOf(e)) {
			return b.Load(c.lowerAddr(e))
		}
		return c.lowerAddr(e)

	case *syntax.SizeofType:
		return ctx.ConstInt(ctx.Int(64), ctx.SizeOf(c.sizeType(e.Type)))

	case *syntax.SizeofValue:
		return ctx.ConstInt(ctx.Int(64), ctx.SizeOf(c.sizeType(c.typeOf(e.Value))))

	case *syntax.Tuple:
		ct, _ := compoundOf(c.typeOf(e))
		p := b.Alloca(c.tupleStruct(ct), nil, "tuple")
		for i, m := range e.Members {
			b.Store(c.lowerExpr(m), b.FieldPtr(p, i))
		}
		return p

	case *syntax.Group:
		return c.lowerExpr(e.X)

	case *syntax.Cast:
		return c.castPrim(c.lowerExpr(e.X), types.PrimitiveOf(c.typeOf(e.X)), types.PrimitiveOf(e.Type))

	case *syntax.Unary:
		return c.lowerUnary(e)

	case *syntax.Binary:
		return c.lowerBinary(e)

	case *syntax.RefAccess:
		return c.uses[e].addr

	case *syntax.DerefAccess:
		return b.Load(c.readVar(c.uses[e]))

	case *syntax.Index:
		ptr := c.elementAddr(e)
		if isArray(c.typeOf(e)) {
			return ptr
		}
		return b.Load(ptr)

	case *syntax.ArrayLiteral:
		at, _ := scalarOf(c.typeOf(e))
		elem, _ := types.ElementType(at)
		p := b.Alloca(c.storageType(at), nil, "array")
		i32 := ctx.Int(32)
		for i, x := range e.Elems {
			v := c.convert(c.lowerExpr(x), c.typeOf(x), elem)
			b.Store(v, b.ElementPtr(p, ctx.ConstInt(i32, int64(i))))
		}
		return p

	case *syntax.ArrayAlloc:
		p, _ := c.lowerArrayAlloc(e)
		return p

	case *syntax.Selection:
		t := c.typeOf(e)
		slot := b.Alloca(c.irType(t), nil, "sel")
		then, els, end := c.fn.AddBlock("sel.then"), c.fn.AddBlock("sel.else"), c.fn.AddBlock("sel.end")
		b.CondBr(c.lowerExpr(e.Cond), then, els)
		b.SetInsertPoint(then)
		b.Store(c.convert(c.lowerExpr(e.Then), c.typeOf(e.Then), t), slot)
		b.Br(end)
		b.SetInsertPoint(els)
		b.Store(c.convert(c.lowerExpr(e.Else), c.typeOf(e.Else), t), slot)
		b.Br(end)
		b.SetInsertPoint(end)
		return b.Load(slot)
	}
	panic("compile: cannot lower " + e.Kind().String())
}

func (c *compiler) lowerLiteral(e *syntax.Literal) ir.Value {
	ctx := c.u.ctx
	t, i, f, _ := literal(e.Value)
	switch e.Value.Kind {
	case token.String:
		return c.u.str(e.Value.Text)
	case token.Null:
		return ctx.Null(c.u.bytePtr())
	case token.Float, token.Double:
		return ctx.ConstFloat(c.irType(t), f)
	}
	return ctx.ConstInt(c.irType(t), i)
}

// lowerAddr emits an allocation and returns the address of the new
// object: the cell of a primitive or the object of a class.
func (c *compiler) lowerAddr(e syntax.Expr) ir.Value {
	b := c.u.b
	switch e := e.(type) {
	case *syntax.Malloc:
		c.u.declareMemory()
		if cls := c.classOf(e.Type); cls != nil {
			return b.Malloc(c.classStruct(cls))
		}
		return b.Malloc(c.storageType(e.Type))
	case *syntax.New:
		if cls := c.classOf(e.Type); cls != nil {
			return c.newObject(e, cls)
		}
		t := c.irType(e.Type)
		cell := b.Alloca(t, nil, "new")
		init := c.zero(t)
		if len(e.Args) == 1 {
			init = c.convert(c.lowerExpr(e.Args[0]), c.typeOf(e.Args[0]), e.Type)
		}
		b.Store(init, cell)
		return cell
	}
	panic("compile: no address for " + e.Kind().String())
}

// newObject allocates a class instance on the heap. Arguments initialize
// the leading fields in order; the other fields take their defaults.
func (c *compiler) newObject(e *syntax.New, cls *Class) ir.Value {
	b := c.u.b
	c.u.declareMemory()
	obj := b.Malloc(c.classStruct(cls))
	for i, f := range cls.Fields {
		if f.Type.IsArray() {
			continue
		}
		ft := c.fieldType(f)
		var v ir.Value
		switch {
		case i < len(e.Args):
			v = c.convert(c.lowerExpr(e.Args[i]), c.typeOf(e.Args[i]), ft)
		case f.Default != nil && f.class.pkg == c.pkg:
			v = c.convert(c.lowerExpr(f.Default), c.typeOf(f.Default), ft)
		default:
			v = c.zero(c.irType(ft))
		}
		b.Store(v, b.FieldPtr(obj, f.Index))
	}
	return obj
}

// lowerArrayAlloc allocates an array on the stack. The length is nil when
// it is part of the type.
func (c *compiler) lowerArrayAlloc(e *syntax.ArrayAlloc) (ptr, length ir.Value) {
	b := c.u.b
	at, _ := scalarOf(c.typeOf(e))
	if _, ok := at.Array.Dims[0].SizeConstant(); ok {
		return b.Alloca(c.storageType(at), nil, "array"), nil
	}
	size := c.lowerExpr(e.Size)
	elem, _ := types.ElementType(at)
	return b.Alloca(c.storageType(elem), size, "array"), b.IntCast(size, c.u.ctx.Int(32))
}

// fieldAddr returns the address of the last field of a path starting at v.
func (c *compiler) fieldAddr(v *Var, fields []*Field) ir.Value {
	b := c.u.b
	obj := c.readVar(v)
	var ptr ir.Value
	for i, f := range fields {
		ptr = b.FieldPtr(obj, f.Index)
		if i < len(fields)-1 {
			obj = b.Load(ptr)
		}
	}
	return ptr
}

// elementAddr returns the address of an indexed element, emitting a bounds
// check when the index was not checked statically and the length is known.
func (c *compiler) elementAddr(e *syntax.Index) ir.Value {
	b := c.u.b
	base := c.lowerExpr(e.X)
	idx := c.lowerExpr(e.Index)
	if _, checked := c.consts[e]; !checked {
		if n := c.arrayLength(e.X); n != nil {
			i64 := c.u.ctx.Int(64)
			b.Call(c.u.checkIndexFn(), b.IntCast(idx, i64), b.IntCast(n, i64))
		}
	}
	return b.ElementPtr(base, idx)
}

// arrayLength returns the i32 length of the array x, or nil when unknown.
func (c *compiler) arrayLength(x syntax.Expr) ir.Value {
	s, _ := scalarOf(c.typeOf(x))
	if n, ok := s.Array.Dims[0].SizeConstant(); ok {
		return c.u.ctx.ConstInt(c.u.ctx.Int(32), int64(n))
	}
	if acc, ok := unparen(x).(*syntax.Accessor); ok && !acc.Name.IsFieldAccess() {
		return c.uses[acc].length
	}
	return nil
}

func (c *compiler) lowerCall(e *syntax.Call) ir.Value {
	t := c.calls[e]
	if t.builtin == builtinPrintln {
		c.lowerPrintln(e)
		return nil
	}
	fn := c.u.function(c, t.owner, t.key, t.method)
	q := c.qualifier(t.owner)
	args := make([]ir.Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = c.convert(c.lowerExpr(a), c.typeOf(a), q(t.method.Params[i].Type))
	}
	return c.u.b.Call(fn, args...)
}

// lowerPrintln prints its arguments separated by spaces and followed by a
// newline, with one printf call.
func (c *compiler) lowerPrintln(e *syntax.Call) {
	b := c.u.b
	ctx := c.u.ctx
	i32 := ctx.Int(32)
	var format strings.Builder
	args := []ir.Value{nil}
	for i, a := range e.Args {
		if i > 0 {
			format.WriteByte(' ')
		}
		v := c.lowerExpr(a)
		p := types.PrimitiveOf(c.typeOf(a))
		switch {
		case p == nil:
			format.WriteString("%p")
		case p.Kind() == types.String:
			format.WriteString("%s")
		case p.Kind() == types.Bool:
			format.WriteString("%s")
			v = b.Select(v, c.u.str("true"), c.u.str("false"))
		case p.Kind() == types.Char:
			format.WriteString("%c")
			v = b.IntCast(v, i32)
		case p.Kind() == types.Long:
			format.WriteString("%ld")
		case p.Kind() == types.ULong:
			format.WriteString("%lu")
		case p.IsFloat():
			format.WriteString("%f")
			if p.Kind() == types.Float {
				v = b.FPExt(v, ctx.Double())
			}
		case p.Info()&types.IsUnsigned != 0:
			format.WriteString("%u")
			v = b.IntCast(v, i32)
		default:
			format.WriteString("%d")
			v = b.IntCast(v, i32)
		}
		args = append(args, v)
	}
	format.WriteByte('\n')
	args[0] = c.u.str(format.String())
	b.Call(c.u.printfFn(), args...)
}

func (c *compiler) lowerUnary(e *syntax.Unary) ir.Value {
	b := c.u.b
	p := types.PrimitiveOf(c.typeOf(e.X))
	switch e.Op {
	case "-":
		x := c.lowerExpr(e.X)
		if p.IsFloat() {
			return b.FNeg(x)
		}
		return b.Neg(x)
	case "!":
		return b.Not(c.lowerExpr(e.X))
	}
	v := c.uses[unparen(e.X)]
	old := c.readVar(v)
	one := c.u.ctx.ConstInt(old.Type(), 1)
	next := b.Add(old, one)
	if e.Op == "--" {
		next = b.Sub(old, one)
	}
	b.Store(next, v.addr)
	if e.Postfix {
		return old
	}
	return next
}

var intPredicates = map[syntax.Operator]ir.IntPredicate{
	syntax.Eql: ir.IntEQ,
	syntax.Neq: ir.IntNE,
	syntax.Lss: ir.IntSLT,
	syntax.Leq: ir.IntSLE,
	syntax.Gtr: ir.IntSGT,
	syntax.Geq: ir.IntSGE,
}

var floatPredicates = map[syntax.Operator]ir.FloatPredicate{
	syntax.Eql: ir.FloatOEQ,
	syntax.Neq: ir.FloatONE,
	syntax.Lss: ir.FloatOLT,
	syntax.Leq: ir.FloatOLE,
	syntax.Gtr: ir.FloatOGT,
	syntax.Geq: ir.FloatOGE,
}

func (c *compiler) lowerBinary(e *syntax.Binary) ir.Value {
	b := c.u.b
	if e.Op.IsLogical() {
		return c.lowerLogical(e)
	}
	xt, yt := c.typeOf(e.X), c.typeOf(e.Y)
	px, py := types.PrimitiveOf(xt), types.PrimitiveOf(yt)

	if e.Op.IsComparison() && !(px != nil && py != nil && px.IsNumeric() && py.IsNumeric()) {
		// bools and addresses compare by identity
		x, y := c.lowerExpr(e.X), c.lowerExpr(e.Y)
		if xt == nullType {
			x = c.u.ctx.Null(y.Type())
		}
		if yt == nullType {
			y = c.u.ctx.Null(x.Type())
		}
		return b.ICmp(intPredicates[e.Op], x, y)
	}

	p := types.Promote(px, py)
	x := c.castPrim(c.lowerExpr(e.X), px, p)
	y := c.castPrim(c.lowerExpr(e.Y), py, p)
	if e.Op.IsComparison() {
		if p.IsFloat() {
			return b.FCmp(floatPredicates[e.Op], x, y)
		}
		return b.ICmp(intPredicates[e.Op], x, y)
	}

	float := p.IsFloat()
	switch e.Op {
	case syntax.Add:
		if float {
			return b.FAdd(x, y)
		}
		return b.Add(x, y)
	case syntax.Sub:
		if float {
			return b.FSub(x, y)
		}
		return b.Sub(x, y)
	case syntax.Mul:
		if float {
			return b.FMul(x, y)
		}
		return b.Mul(x, y)
	case syntax.Div:
		if float {
			return b.FDiv(x, y)
		}
		return b.Div(x, y)
	case syntax.Mod:
		if float {
			return b.FRem(x, y)
		}
		return b.Rem(x, y)
	case syntax.Pow:
		i64 := c.u.ctx.Int(64)
		r := b.Call(c.u.powFn(), b.IntCast(x, i64), b.IntCast(y, i64))
		return b.IntCast(r, x.Type())
	}
	panic("compile: cannot lower operator " + e.Op.String())
}

// lowerLogical lowers && and || with short-circuit evaluation.
func (c *compiler) lowerLogical(e *syntax.Binary) ir.Value {
	b := c.u.b
	slot := b.Alloca(c.u.ctx.Int(1), nil, "cond")
	x := c.lowerExpr(e.X)
	b.Store(x, slot)
	rhs, end := c.fn.AddBlock("logic.rhs"), c.fn.AddBlock("logic.end")
	if e.Op == syntax.And {
		b.CondBr(x, rhs, end)
	} else {
		b.CondBr(x, end, rhs)
	}
	b.SetInsertPoint(rhs)
	b.Store(c.lowerExpr(e.Y), slot)
	b.Br(end)
	b.SetInsertPoint(end)
	return b.Load(slot)
}

// ----------------------------------------------------------------------------
// Conversions

// convert applies the implicit conversion from a value of type from to
// type to. Resolution has checked that one exists.
func (c *compiler) convert(v ir.Value, from, to types.Type) ir.Value {
	if from == nullType {
		return c.u.ctx.Null(c.irType(to))
	}
	pf, pt := types.PrimitiveOf(from), types.PrimitiveOf(to)
	if pf != nil && pt != nil {
		return c.castPrim(v, pf, pt)
	}
	if isArray(from) && isArray(to) {
		fs, _ := scalarOf(from)
		ts, _ := scalarOf(to)
		if fs.Array.Dims[0].IsConstant() && !ts.Array.Dims[0].IsConstant() {
			return c.u.b.ElementPtr(v, c.u.ctx.ConstInt(c.u.ctx.Int(32), 0))
		}
	}
	return v
}

// castPrim converts between primitive types. Unsigned types convert like
// their signed counterparts.
func (c *compiler) castPrim(v ir.Value, from, to *types.Primitive) ir.Value {
	if from == to {
		return v
	}
	b := c.u.b
	ctx := c.u.ctx
	ft, tt := c.primType(from), c.primType(to)
	switch {
	case to.IsBoolean():
		if from.IsFloat() {
			return b.FCmp(ir.FloatONE, v, ctx.ConstFloat(ft, 0))
		}
		return b.ICmp(ir.IntNE, v, ctx.ConstInt(ft, 0))
	case from.IsFloat() && to.IsFloat():
		if tt.Bits() > ft.Bits() {
			return b.FPExt(v, tt)
		}
		return b.FPTrunc(v, tt)
	case from.IsFloat():
		return b.FPToSI(v, tt)
	case to.IsFloat():
		if from.IsBoolean() {
			v = b.IntCast(v, ctx.Int(32))
		}
		return b.SIToFP(v, tt)
	}
	return b.IntCast(v, tt)
}
