package passes

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/ssa"
)

// voidFunc returns a function "f" whose entry block returns.
func voidFunc() *ssa.Func {
	ctx := ssa.NewContext()
	m := ssa.NewModule(ctx, "test")
	f := m.DefineFunction("f", ctx.FuncOf(ctx.Void(), nil, false)).(*ssa.Func)
	f.Entry.Kind = ssa.BlockReturn
	return f
}

func TestRunEmpty(t *testing.T) {
	if err := Run(voidFunc(), nil, Config{}); err != nil {
		t.Fatalf("Run with no passes: %v", err)
	}
}

func TestRunSkipsDeclarations(t *testing.T) {
	ctx := ssa.NewContext()
	m := ssa.NewModule(ctx, "test")
	decl := m.DeclareFunction("ext", ctx.FuncOf(ctx.Void(), nil, false)).(*ssa.Func)

	called := false
	passes := []Pass{{Name: "test", Fn: func(*ssa.Func) { called = true }}}
	if err := Run(decl, passes, Config{Verify: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if called {
		t.Error("pass ran on a declaration")
	}
}

func TestRunSinglePass(t *testing.T) {
	called := false
	passes := []Pass{
		{Name: "test", Fn: func(fn *ssa.Func) { called = true }},
	}

	if err := Run(voidFunc(), passes, Config{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !called {
		t.Error("pass was not called")
	}
}

func TestRunWithVerify(t *testing.T) {
	passes := []Pass{
		{Name: "noop", Fn: func(fn *ssa.Func) {}},
	}

	if err := Run(voidFunc(), passes, Config{Verify: true}); err != nil {
		t.Fatalf("Run with verify: %v", err)
	}
}

func TestRunVerifyCatchesBrokenPass(t *testing.T) {
	passes := []Pass{
		{Name: "breaker", Fn: func(fn *ssa.Func) { fn.Entry.Kind = ssa.BlockInvalid }},
	}

	err := Run(voidFunc(), passes, Config{Verify: true})
	if err == nil || !strings.Contains(err.Error(), "verify after breaker") {
		t.Fatalf("Run = %v, want verify after breaker error", err)
	}
}

func TestRunMultiplePasses(t *testing.T) {
	var order []string
	passes := []Pass{
		{Name: "first", Fn: func(fn *ssa.Func) { order = append(order, "first") }},
		{Name: "second", Fn: func(fn *ssa.Func) { order = append(order, "second") }},
	}

	if err := Run(voidFunc(), passes, Config{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("pass order = %v, want [first second]", order)
	}
}

func TestRunDumpAndLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	var out bytes.Buffer
	passes := []Pass{{Name: "noop", Fn: func(*ssa.Func) {}}}

	err := Run(voidFunc(), passes, Config{DumpAfter: "*", Out: &out, Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "--- after noop (f) ---") {
		t.Errorf("dump output = %q", out.String())
	}
	if n := logs.FilterField(zap.String("pass", "noop")).Len(); n != 1 {
		t.Errorf("logged %d pass entries, want 1", n)
	}
}

func TestRunModuleCombinesErrors(t *testing.T) {
	ctx := ssa.NewContext()
	m := ssa.NewModule(ctx, "test")
	for _, name := range []string{"a", "b"} {
		f := m.DefineFunction(name, ctx.FuncOf(ctx.Void(), nil, false)).(*ssa.Func)
		f.Entry.Kind = ssa.BlockInvalid
	}

	err := RunModule(m, []Pass{{Name: "noop", Fn: func(*ssa.Func) {}}}, Config{Verify: true})
	if err == nil {
		t.Fatal("RunModule succeeded on invalid functions")
	}
	msg := err.Error()
	if !strings.Contains(msg, "func a") || !strings.Contains(msg, "func b") {
		t.Errorf("RunModule error does not name both functions: %v", msg)
	}
}

func TestRemoveUnreachable(t *testing.T) {
	ctx := ssa.NewContext()
	i32 := ctx.Int(32)
	m := ssa.NewModule(ctx, "test")
	f := m.DefineFunction("f", ctx.FuncOf(i32, nil, false)).(*ssa.Func)
	dead := f.AddBlock("dead")
	join := f.AddBlock("join")

	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	b.Br(join)
	b.SetInsertPoint(dead)
	b.Br(join)
	b.SetInsertPoint(join)
	b.Ret(ctx.ConstInt(i32, 0))

	RemoveUnreachable(f)

	if f.NumBlocks() != 2 {
		t.Fatalf("NumBlocks = %d, want 2:\n%s", f.NumBlocks(), ssa.Sprint(f))
	}
	if j := join.(*ssa.Block); len(j.Preds) != 1 || j.Preds[0] != f.Entry {
		t.Errorf("join preds = %v, want [b0]", j.Preds)
	}
	if err := ssa.Verify(f); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestRemoveDeadValues(t *testing.T) {
	ctx := ssa.NewContext()
	i32 := ctx.Int(32)
	m := ssa.NewModule(ctx, "test")
	f := m.DefineFunction("f", ctx.FuncOf(i32, []ir.Type{i32}, false), "x").(*ssa.Func)
	g := m.DeclareFunction("g", ctx.FuncOf(ctx.Void(), nil, false))

	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	x := f.Param(0)
	sum := b.Add(x, x)
	b.Mul(sum, sum) // dead, and makes sum dead once removed
	b.Call(g)       // impure, kept
	b.Div(x, x)     // may trap, kept
	b.Ret(x)

	RemoveDeadValues(f)

	var ops []ssa.Op
	for _, v := range f.Entry.Values {
		ops = append(ops, v.Op)
	}
	want := []ssa.Op{ssa.OpArg, ssa.OpCall, ssa.OpDiv}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %v, want %v", i, ops[i], want[i])
		}
	}
}
