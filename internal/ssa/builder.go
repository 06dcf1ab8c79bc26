package ssa

import (
	"fmt"

	"github.com/you-not-fish/voidc/internal/ir"
)

// Builder appends values to the end of its insert block. Stack slots
// without a count always go to the function's entry block so that
// mem2reg can see them.
type Builder struct {
	ctx *Context
	fn  *Func  // current SSA function
	b   *Block // current block
}

var _ ir.Builder = (*Builder)(nil)

// NewBuilder returns a builder with no insert point.
func NewBuilder(ctx *Context) *Builder { return &Builder{ctx: ctx} }

func (b *Builder) SetInsertPoint(blk ir.Block) {
	b.b = blk.(*Block)
	b.fn = b.b.Func
}

func (b *Builder) InsertBlock() ir.Block {
	if b.b == nil {
		return nil
	}
	return b.b
}

// emit appends a value to the current block.
func (b *Builder) emit(op Op, t *Type, args ...*Value) *Value {
	if b.b == nil {
		panic("ssa: builder has no insert point")
	}
	if b.b.Terminated() {
		panic(fmt.Sprintf("ssa: %s %s: insert into terminated block", b.fn.Name, b.b))
	}
	return b.fn.NewValue(b.b, op, t, args...)
}

// ----------------------------------------------------------------------------
// Memory

func (b *Builder) Alloca(t ir.Type, count ir.Value, name string) ir.Value {
	pt := b.ctx.Pointer(typ(t))
	if count != nil {
		v := b.emit(OpAlloca, pt, val(count))
		v.Aux = name
		return v
	}
	v := b.fn.NewValue(b.fn.Entry, OpAlloca, pt)
	v.Aux = name
	return v
}

func (b *Builder) Malloc(t ir.Type) ir.Value {
	v := b.emit(OpMalloc, b.ctx.Pointer(typ(t)))
	v.AuxInt = Sizeof(t)
	return v
}

func (b *Builder) Free(p ir.Value) {
	b.emit(OpFree, b.ctx.void, val(p))
}

func (b *Builder) Load(p ir.Value) ir.Value {
	ptr := val(p)
	return b.emit(OpLoad, ptr.Typ.elem, ptr)
}

func (b *Builder) Store(v, p ir.Value) {
	b.emit(OpStore, b.ctx.void, val(p), val(v))
}

func (b *Builder) ElementPtr(p, index ir.Value) ir.Value {
	ptr := val(p)
	elem := ptr.Typ.elem
	if elem.kind == ir.ArrayKind {
		elem = elem.elem
	}
	return b.emit(OpElemPtr, b.ctx.Pointer(elem), ptr, val(index))
}

func (b *Builder) FieldPtr(p ir.Value, field int) ir.Value {
	ptr := val(p)
	v := b.emit(OpFieldPtr, b.ctx.Pointer(ptr.Typ.elem.fields[field]), ptr)
	v.AuxInt = int64(field)
	return v
}

// ----------------------------------------------------------------------------
// Conversion

func (b *Builder) convert(op Op, v ir.Value, t ir.Type) ir.Value {
	return b.emit(op, typ(t), val(v))
}

func (b *Builder) Trunc(v ir.Value, t ir.Type) ir.Value   { return b.convert(OpTrunc, v, t) }
func (b *Builder) SExt(v ir.Value, t ir.Type) ir.Value    { return b.convert(OpSExt, v, t) }
func (b *Builder) FPToSI(v ir.Value, t ir.Type) ir.Value  { return b.convert(OpFPToSI, v, t) }
func (b *Builder) SIToFP(v ir.Value, t ir.Type) ir.Value  { return b.convert(OpSIToFP, v, t) }
func (b *Builder) FPTrunc(v ir.Value, t ir.Type) ir.Value { return b.convert(OpFPTrunc, v, t) }
func (b *Builder) FPExt(v ir.Value, t ir.Type) ir.Value   { return b.convert(OpFPExt, v, t) }

func (b *Builder) IntCast(v ir.Value, t ir.Type) ir.Value {
	from, to := v.Type().Bits(), t.Bits()
	switch {
	case from > to:
		return b.Trunc(v, t)
	case from == 1:
		return b.convert(OpZExt, v, t)
	case from < to:
		return b.SExt(v, t)
	}
	return v
}

// ----------------------------------------------------------------------------
// Arithmetic

func (b *Builder) binary(op Op, x, y ir.Value) ir.Value {
	xv := val(x)
	return b.emit(op, xv.Typ, xv, val(y))
}

func (b *Builder) Add(x, y ir.Value) ir.Value  { return b.binary(OpAdd, x, y) }
func (b *Builder) Sub(x, y ir.Value) ir.Value  { return b.binary(OpSub, x, y) }
func (b *Builder) Mul(x, y ir.Value) ir.Value  { return b.binary(OpMul, x, y) }
func (b *Builder) Div(x, y ir.Value) ir.Value  { return b.binary(OpDiv, x, y) }
func (b *Builder) Rem(x, y ir.Value) ir.Value  { return b.binary(OpRem, x, y) }
func (b *Builder) FAdd(x, y ir.Value) ir.Value { return b.binary(OpFAdd, x, y) }
func (b *Builder) FSub(x, y ir.Value) ir.Value { return b.binary(OpFSub, x, y) }
func (b *Builder) FMul(x, y ir.Value) ir.Value { return b.binary(OpFMul, x, y) }
func (b *Builder) FDiv(x, y ir.Value) ir.Value { return b.binary(OpFDiv, x, y) }
func (b *Builder) FRem(x, y ir.Value) ir.Value { return b.binary(OpFRem, x, y) }
func (b *Builder) And(x, y ir.Value) ir.Value  { return b.binary(OpAnd, x, y) }
func (b *Builder) Or(x, y ir.Value) ir.Value   { return b.binary(OpOr, x, y) }

func (b *Builder) Neg(x ir.Value) ir.Value {
	xv := val(x)
	return b.emit(OpNeg, xv.Typ, xv)
}

func (b *Builder) FNeg(x ir.Value) ir.Value {
	xv := val(x)
	return b.emit(OpFNeg, xv.Typ, xv)
}

func (b *Builder) Not(x ir.Value) ir.Value {
	xv := val(x)
	return b.emit(OpNot, xv.Typ, xv)
}

func (b *Builder) ICmp(p ir.IntPredicate, x, y ir.Value) ir.Value {
	v := b.emit(OpICmp, b.ctx.IntType(1), val(x), val(y))
	v.AuxInt = int64(p)
	return v
}

func (b *Builder) FCmp(p ir.FloatPredicate, x, y ir.Value) ir.Value {
	v := b.emit(OpFCmp, b.ctx.IntType(1), val(x), val(y))
	v.AuxInt = int64(p)
	return v
}

func (b *Builder) Select(cond, x, y ir.Value) ir.Value {
	xv := val(x)
	return b.emit(OpSelect, xv.Typ, val(cond), xv, val(y))
}

func (b *Builder) Call(fn ir.Function, args ...ir.Value) ir.Value {
	f := fn.(*Func)
	vs := make([]*Value, len(args))
	for i, a := range args {
		vs[i] = val(a)
	}
	v := b.emit(OpCall, f.Sig.result, vs...)
	v.Aux = f
	return v
}

// ----------------------------------------------------------------------------
// Terminators

func (b *Builder) terminate(kind BlockKind) *Block {
	if b.b.Terminated() {
		panic(fmt.Sprintf("ssa: %s %s: block terminated twice", b.fn.Name, b.b))
	}
	b.b.Kind = kind
	return b.b
}

func (b *Builder) Br(dest ir.Block) {
	b.terminate(BlockPlain).AddSucc(dest.(*Block))
}

func (b *Builder) CondBr(cond ir.Value, then, els ir.Block) {
	blk := b.terminate(BlockIf)
	blk.SetControl(val(cond))
	blk.AddSucc(then.(*Block))
	blk.AddSucc(els.(*Block))
}

func (b *Builder) Ret(v ir.Value) {
	b.terminate(BlockReturn).SetControl(val(v))
}

func (b *Builder) RetVoid() {
	b.terminate(BlockReturn)
}
