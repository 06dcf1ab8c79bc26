package interp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/ssa"
	"github.com/you-not-fish/voidc/internal/ssa/passes"
)

type env struct {
	ctx *ssa.Context
	m   *ssa.Module
	b   ir.Builder
	i32 ir.Type
}

func newEnv() *env {
	ctx := ssa.NewContext()
	return &env{ctx: ctx, m: ssa.NewModule(ctx, "test"), b: ctx.NewBuilder(), i32: ctx.Int(32)}
}

func (e *env) c(v int64) ir.Value { return e.ctx.ConstInt(e.i32, v) }

func (e *env) main() ir.Function {
	f := e.m.DefineFunction("main", e.ctx.FuncOf(e.i32, nil, false))
	e.b.SetInsertPoint(f.EntryBlock())
	return f
}

func (e *env) printf() ir.Function {
	return e.m.DeclareFunction(rtabi.FnPrintf, e.ctx.FuncOf(e.i32, []ir.Type{e.ctx.PointerTo(e.ctx.Int(8))}, true))
}

// buildSum builds main returning 1 + 2 + ... + n through a stack slot loop.
func (e *env) buildSum(n int64) {
	f := e.main()
	cond, body, exit := f.AddBlock("cond"), f.AddBlock("body"), f.AddBlock("exit")
	i := e.b.Alloca(e.i32, nil, "i")
	sum := e.b.Alloca(e.i32, nil, "sum")
	e.b.Store(e.c(1), i)
	e.b.Store(e.c(0), sum)
	e.b.Br(cond)

	e.b.SetInsertPoint(cond)
	e.b.CondBr(e.b.ICmp(ir.IntSLE, e.b.Load(i), e.c(n)), body, exit)

	e.b.SetInsertPoint(body)
	e.b.Store(e.b.Add(e.b.Load(sum), e.b.Load(i)), sum)
	e.b.Store(e.b.Add(e.b.Load(i), e.c(1)), i)
	e.b.Br(cond)

	e.b.SetInsertPoint(exit)
	e.b.Ret(e.b.Load(sum))
}

func TestRunLoop(t *testing.T) {
	e := newEnv()
	e.buildSum(10)
	code, err := Run(e.m)
	require.NoError(t, err)
	assert.Equal(t, 55, code)
}

func TestRunAfterMem2Reg(t *testing.T) {
	e := newEnv()
	e.buildSum(10)
	require.NoError(t, passes.RunModule(e.m, passes.Default(), passes.Config{Verify: true}))
	code, err := Run(e.m)
	require.NoError(t, err)
	assert.Equal(t, 55, code)
}

func TestRunRecursion(t *testing.T) {
	// fib(n) = n < 2 ? n : fib(n-1) + fib(n-2)
	e := newEnv()
	fib := e.m.DefineFunction("fib", e.ctx.FuncOf(e.i32, []ir.Type{e.i32}, false), "n")
	base, rec := fib.AddBlock("base"), fib.AddBlock("rec")
	e.b.SetInsertPoint(fib.EntryBlock())
	n := fib.Param(0)
	e.b.CondBr(e.b.ICmp(ir.IntSLT, n, e.c(2)), base, rec)
	e.b.SetInsertPoint(base)
	e.b.Ret(n)
	e.b.SetInsertPoint(rec)
	a := e.b.Call(fib, e.b.Sub(n, e.c(1)))
	b := e.b.Call(fib, e.b.Sub(n, e.c(2)))
	e.b.Ret(e.b.Add(a, b))

	e.main()
	e.b.Ret(e.b.Call(fib, e.c(10)))

	code, err := Run(e.m)
	require.NoError(t, err)
	assert.Equal(t, 55, code)

	r, err := New(e.m).Call("fib", 20)
	require.NoError(t, err)
	assert.EqualValues(t, 6765, r)
}

func TestParamsAreNotExecuted(t *testing.T) {
	// sub(a, b) = a - b; the Arg values in the entry block are seeded by the call
	e := newEnv()
	sub := e.m.DefineFunction("sub", e.ctx.FuncOf(e.i32, []ir.Type{e.i32, e.i32}, false), "a", "b")
	e.b.SetInsertPoint(sub.EntryBlock())
	e.b.Ret(e.b.Sub(sub.Param(0), sub.Param(1)))

	e.main()
	e.b.Ret(e.b.Call(sub, e.c(10), e.c(3)))

	// main: call, ret; sub: sub, ret
	code, err := Run(e.m, WithStepLimit(2))
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestPrintf(t *testing.T) {
	e := newEnv()
	printf := e.printf()
	f64 := e.ctx.Double()
	i64 := e.ctx.Int(64)
	format := e.m.GlobalString("fmt", "%d %ld %s %c %x %u %.2f %5d|%%\n")
	word := e.m.GlobalString("word", "void")

	e.main()
	e.b.Call(printf, format,
		e.c(-7),
		e.ctx.ConstInt(i64, 1<<40),
		word,
		e.ctx.ConstInt(e.ctx.Int(8), 'A'),
		e.c(255),
		e.c(-1),
		e.ctx.ConstFloat(f64, 3.14159),
		e.c(42),
	)
	e.b.Ret(e.c(0))

	var out bytes.Buffer
	code, err := Run(e.m, WithStdout(&out))
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "-7 1099511627776 void A ff 4294967295 3.14    42|%\n", out.String())
}

func TestExit(t *testing.T) {
	e := newEnv()
	exit := e.m.DeclareFunction(rtabi.FnExit, e.ctx.FuncOf(e.ctx.Void(), []ir.Type{e.i32}, false))
	helper := e.m.DefineFunction("fail", e.ctx.FuncOf(e.ctx.Void(), nil, false))
	e.b.SetInsertPoint(helper.EntryBlock())
	e.b.Call(exit, e.c(rtabi.ExitIndexOutOfBounds))
	e.b.RetVoid()

	e.main()
	e.b.Call(helper)
	e.b.Ret(e.c(0))

	code, err := Run(e.m)
	require.NoError(t, err)
	assert.Equal(t, rtabi.ExitIndexOutOfBounds, code)
}

func TestHeapMemory(t *testing.T) {
	e := newEnv()
	i64 := e.ctx.Int(64)
	pair := e.ctx.StructOf(e.ctx.Int(8), i64)

	e.main()
	p := e.b.Malloc(pair)
	e.b.Store(e.ctx.ConstInt(e.ctx.Int(8), 3), e.b.FieldPtr(p, 0))
	e.b.Store(e.ctx.ConstInt(i64, 97), e.b.FieldPtr(p, 1))
	x := e.b.Load(e.b.FieldPtr(p, 0))
	y := e.b.Load(e.b.FieldPtr(p, 1))
	sum := e.b.Add(e.b.IntCast(x, i64), y)
	e.b.Free(p)
	e.b.Ret(e.b.Trunc(sum, e.i32))

	code, err := Run(e.m)
	require.NoError(t, err)
	assert.Equal(t, 100, code)
}

func TestUseAfterFree(t *testing.T) {
	e := newEnv()
	e.main()
	p := e.b.Malloc(e.i32)
	e.b.Free(p)
	e.b.Ret(e.b.Load(p))

	_, err := Run(e.m)
	var rt *RuntimeError
	require.True(t, errors.As(err, &rt), "err = %v", err)
	assert.Contains(t, rt.Msg, "released heap memory")
}

func TestArrayOutOfRange(t *testing.T) {
	e := newEnv()
	e.main()
	arr := e.b.Alloca(e.ctx.ArrayOf(e.i32, 3), nil, "arr")
	e.b.Store(e.c(1), e.b.ElementPtr(arr, e.c(3)))
	e.b.Ret(e.c(0))

	_, err := Run(e.m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestDynamicStackArray(t *testing.T) {
	e := newEnv()
	f := e.m.DefineFunction("fill", e.ctx.FuncOf(e.i32, []ir.Type{e.i32}, false), "n")
	e.b.SetInsertPoint(f.EntryBlock())
	n := f.Param(0)
	buf := e.b.Alloca(e.i32, n, "buf")
	last := e.b.ElementPtr(buf, e.b.Sub(n, e.c(1)))
	e.b.Store(e.c(9), last)
	e.b.Ret(e.b.Load(last))

	r, err := New(e.m).Call("fill", 4)
	require.NoError(t, err)
	assert.EqualValues(t, 9, r)
}

func TestIntegerWrapping(t *testing.T) {
	e := newEnv()
	i8 := e.ctx.Int(8)
	f := e.m.DefineFunction("wrap", e.ctx.FuncOf(i8, nil, false))
	e.b.SetInsertPoint(f.EntryBlock())
	e.b.Ret(e.b.Add(e.ctx.ConstInt(i8, 127), e.ctx.ConstInt(i8, 1)))

	r, err := New(e.m).Call("wrap")
	require.NoError(t, err)
	assert.EqualValues(t, -128, int64(r))
}

func TestDivideByZero(t *testing.T) {
	e := newEnv()
	f := e.m.DefineFunction("div", e.ctx.FuncOf(e.i32, []ir.Type{e.i32}, false), "d")
	e.b.SetInsertPoint(f.EntryBlock())
	e.b.Ret(e.b.Div(e.c(1), f.Param(0)))

	_, err := New(e.m).Call("div", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "divide by zero")
}

func TestStepLimit(t *testing.T) {
	e := newEnv()
	f := e.main()
	loop := f.AddBlock("loop")
	e.b.Br(loop)
	e.b.SetInsertPoint(loop)
	x := e.b.Alloca(e.i32, nil, "x")
	e.b.Store(e.c(1), x)
	e.b.Br(loop)

	_, err := Run(e.m, WithStepLimit(1000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step limit")
}

func TestMissingMain(t *testing.T) {
	e := newEnv()
	_, err := Run(e.m)
	require.Error(t, err)
}
