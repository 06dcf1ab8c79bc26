package ssa

import (
	"strings"
	"testing"

	"github.com/you-not-fish/voidc/internal/ir"
)

// testCtx is shared by tests that only need types.
var testCtx = NewContext()

// makeAddFunc builds: i32 add(i32 a, i32 b) { return a + b }
func makeAddFunc() *Func {
	ctx := testCtx
	i32 := ctx.Int(32)
	m := NewModule(ctx, "test")
	f := m.DefineFunction("add", ctx.FuncOf(i32, []ir.Type{i32, i32}, false), "a", "b")

	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	b.Ret(b.Add(f.Param(0), f.Param(1)))
	return f.(*Func)
}

func TestManualConstruct(t *testing.T) {
	f := makeAddFunc()

	if f.Name != "add" {
		t.Errorf("Name = %q, want %q", f.Name, "add")
	}
	if f.NumBlocks() != 1 {
		t.Errorf("NumBlocks = %d, want 1", f.NumBlocks())
	}
	if f.NumValues() != 3 {
		t.Errorf("NumValues = %d, want 3", f.NumValues())
	}
	if f.Entry.Kind != BlockReturn {
		t.Errorf("entry Kind = %v, want BlockReturn", f.Entry.Kind)
	}

	addVal := f.Entry.Values[2]
	if addVal.Op != OpAdd {
		t.Errorf("value[2].Op = %v, want OpAdd", addVal.Op)
	}
	if addVal.Uses != 1 {
		t.Errorf("add Uses = %d, want 1", addVal.Uses)
	}

	if err := Verify(f); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestPrintFormat(t *testing.T) {
	f := makeAddFunc()
	got := Sprint(f)
	want := `func add(i32 %a, i32 %b) i32:
  b0: (entry)
    v0 = Arg <i32> {a}
    v1 = Arg <i32> [1] {b}
    v2 = Add <i32> v0 v1
    Return v2
`
	if got != want {
		t.Errorf("Sprint mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintIfBlock(t *testing.T) {
	// Build: i32 abs(i32 n) { if (n < 0) return -n; return n }
	ctx := testCtx
	i32 := ctx.Int(32)
	m := NewModule(ctx, "test")
	f := m.DefineFunction("abs", ctx.FuncOf(i32, []ir.Type{i32}, false), "n")
	neg := f.AddBlock("neg")
	pos := f.AddBlock("pos")

	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	n := f.Param(0)
	b.CondBr(b.ICmp(ir.IntSLT, n, ctx.ConstInt(i32, 0)), neg, pos)
	b.SetInsertPoint(neg)
	b.Ret(b.Neg(n))
	b.SetInsertPoint(pos)
	b.Ret(n)

	got := Sprint(f.(*Func))
	for _, line := range []string{
		"v1 = ICmp <i1> [slt] v0 0",
		"If v1 -> b1 b2",
		"b1: (neg) <- b0",
		"v2 = Neg <i32> v0",
		"Return v2",
		"b2: (pos) <- b0",
		"Return v0",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("output missing %q:\n%s", line, got)
		}
	}
	if err := Verify(f.(*Func)); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestPrintModule(t *testing.T) {
	ctx := NewContext()
	m := NewModule(ctx, "hello")
	i32 := ctx.Int(32)
	printf := m.DeclareFunction("printf", ctx.FuncOf(i32, []ir.Type{ctx.PointerTo(ctx.Int(8))}, true))
	f := m.DefineFunction("main", ctx.FuncOf(i32, nil, false))
	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	b.Call(printf, m.GlobalString("str.0", "hi\n"))
	b.Ret(ctx.ConstInt(i32, 0))

	var sb strings.Builder
	FprintModule(&sb, m)
	want := `module hello
global @str.0 = "hi\n"

declare printf(i8*, ...) i32

func main() i32:
  b0: (entry)
    v0 = Call <i32> {printf} @str.0
    Return 0
`
	if got := sb.String(); got != want {
		t.Errorf("FprintModule mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

// ----------------------------------------------------------------------------
// Verify

func TestVerifyNilType(t *testing.T) {
	f := NewFunc("f", makeSig())
	f.NewValue(f.Entry, OpAdd, nil)
	f.Entry.Kind = BlockReturn

	err := Verify(f)
	if err == nil || !strings.Contains(err.Error(), "nil Type") {
		t.Errorf("Verify = %v, want nil Type error", err)
	}
}

func TestVerifyNoTerminator(t *testing.T) {
	f := NewFunc("f", makeSig())

	err := Verify(f)
	if err == nil || !strings.Contains(err.Error(), "plain block has 0 succs") {
		t.Errorf("Verify = %v, want missing successor error", err)
	}
}

func TestVerifyPhiArgCount(t *testing.T) {
	f := NewFunc("f", makeSig())
	b1 := f.NewBlock(BlockReturn)
	f.Entry.AddSucc(b1)
	x := f.NewValue(f.Entry, OpConstInt, testCtx.IntType(32))
	f.NewValue(b1, OpPhi, testCtx.IntType(32), x, x)

	err := Verify(f)
	if err == nil || !strings.Contains(err.Error(), "phi has 2 args but block has 1 preds") {
		t.Errorf("Verify = %v, want phi arg count error", err)
	}
}

func TestVerifyInconsistentEdges(t *testing.T) {
	f := NewFunc("f", makeSig())
	b1 := f.NewBlock(BlockReturn)
	f.Entry.Succs = append(f.Entry.Succs, b1) // no matching pred

	err := Verify(f)
	if err == nil || !strings.Contains(err.Error(), "does not have b0 as predecessor") {
		t.Errorf("Verify = %v, want edge consistency error", err)
	}
}

func TestVerifyEntryNoPreds(t *testing.T) {
	f := NewFunc("f", makeSig())
	b1 := f.NewBlock(BlockPlain)
	f.Entry.AddSucc(b1)
	b1.AddSucc(f.Entry)

	err := Verify(f)
	if err == nil || !strings.Contains(err.Error(), "entry block b0 has 1 predecessors") {
		t.Errorf("Verify = %v, want entry predecessor error", err)
	}
}

func TestVerifyBlockInvalidKind(t *testing.T) {
	f := NewFunc("f", makeSig())
	f.Entry.Kind = BlockInvalid

	err := Verify(f)
	if err == nil || !strings.Contains(err.Error(), "invalid kind") {
		t.Errorf("Verify = %v, want invalid kind error", err)
	}
}

func TestVerifyValueBlockMismatch(t *testing.T) {
	f := NewFunc("f", makeSig())
	b1 := f.NewBlock(BlockReturn)
	f.Entry.AddSucc(b1)
	v := f.NewValue(f.Entry, OpConstInt, testCtx.IntType(32))
	v.Block = b1

	err := Verify(f)
	if err == nil || !strings.Contains(err.Error(), "value Block pointer is b1, want b0") {
		t.Errorf("Verify = %v, want block pointer error", err)
	}
}

func TestVerifyNilArg(t *testing.T) {
	f := NewFunc("f", makeSig())
	v := f.NewValue(f.Entry, OpNeg, testCtx.IntType(32))
	v.Args = []*Value{nil}
	f.Entry.Kind = BlockReturn

	err := Verify(f)
	if err == nil || !strings.Contains(err.Error(), "arg[0] is nil") {
		t.Errorf("Verify = %v, want nil arg error", err)
	}
}

func TestVerifyOperandTypes(t *testing.T) {
	ctx := testCtx
	i32, i64 := ctx.Int(32), ctx.Int(64)

	tests := []struct {
		name  string
		build func(m *Module, b ir.Builder, f ir.Function)
		want  string
	}{
		{
			name: "store",
			build: func(m *Module, b ir.Builder, f ir.Function) {
				p := b.Alloca(i32, nil, "x")
				b.Store(ctx.ConstInt(i64, 1), p)
				b.RetVoid()
			},
			want: "store of i64 to i32*",
		},
		{
			name: "add",
			build: func(m *Module, b ir.Builder, f ir.Function) {
				b.Add(ctx.ConstInt(i32, 1), ctx.ConstInt(i64, 2))
				b.RetVoid()
			},
			want: "operands i32, i64 for result i32",
		},
		{
			name: "call",
			build: func(m *Module, b ir.Builder, f ir.Function) {
				g := m.DeclareFunction("g", ctx.FuncOf(ctx.Void(), []ir.Type{i32}, false))
				b.Call(g, ctx.ConstInt(i64, 1))
				b.RetVoid()
			},
			want: "arg 0 has type i64, want i32",
		},
		{
			name: "return",
			build: func(m *Module, b ir.Builder, f ir.Function) {
				b.Ret(ctx.ConstInt(i32, 1))
			},
			want: "return value has type i32, want void",
		},
		{
			name: "condition",
			build: func(m *Module, b ir.Builder, f ir.Function) {
				x, y := f.AddBlock("x"), f.AddBlock("y")
				b.CondBr(ctx.ConstInt(i32, 1), x, y)
				b.SetInsertPoint(x)
				b.RetVoid()
				b.SetInsertPoint(y)
				b.RetVoid()
			},
			want: "has type i32, want i1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule(ctx, "test")
			f := m.DefineFunction("f", ctx.FuncOf(ctx.Void(), nil, false))
			b := ctx.NewBuilder()
			b.SetInsertPoint(f.EntryBlock())
			tt.build(m, b, f)

			err := Verify(f.(*Func))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Verify = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestVerifyValid(t *testing.T) {
	if err := Verify(makeAddFunc()); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

// ----------------------------------------------------------------------------
// Builder

func TestAllocaGoesToEntry(t *testing.T) {
	ctx := testCtx
	m := NewModule(ctx, "test")
	f := m.DefineFunction("f", ctx.FuncOf(ctx.Void(), nil, false)).(*Func)
	body := f.AddBlock("body")

	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	b.Br(body)
	b.SetInsertPoint(body)
	slot := b.Alloca(ctx.Int(32), nil, "x").(*Value)
	dyn := b.Alloca(ctx.Int(32), ctx.ConstInt(ctx.Int(32), 4), "xs").(*Value)
	b.RetVoid()

	if slot.Block != f.Entry {
		t.Errorf("alloca block = %s, want %s", slot.Block, f.Entry)
	}
	if dyn.Block != body {
		t.Errorf("counted alloca block = %s, want %s", dyn.Block, body)
	}
	if err := Verify(f); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestInsertIntoTerminatedBlockPanics(t *testing.T) {
	ctx := testCtx
	m := NewModule(ctx, "test")
	f := m.DefineFunction("f", ctx.FuncOf(ctx.Void(), nil, false))
	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	b.RetVoid()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	b.Neg(ctx.ConstInt(ctx.Int(32), 1))
}

func TestIntCast(t *testing.T) {
	ctx := testCtx
	tests := []struct {
		from, to int
		op       Op
	}{
		{64, 32, OpTrunc},
		{8, 32, OpSExt},
		{1, 32, OpZExt},
		{32, 32, OpInvalid},
	}
	for _, tt := range tests {
		m := NewModule(ctx, "test")
		f := m.DefineFunction("f", ctx.FuncOf(ctx.Void(), []ir.Type{ctx.Int(tt.from)}, false))
		b := ctx.NewBuilder()
		b.SetInsertPoint(f.EntryBlock())
		got := b.IntCast(f.Param(0), ctx.Int(tt.to)).(*Value)
		if tt.op == OpInvalid {
			if got != f.Param(0) {
				t.Errorf("IntCast i%d -> i%d = %s, want the operand", tt.from, tt.to, got.LongString())
			}
			continue
		}
		if got.Op != tt.op {
			t.Errorf("IntCast i%d -> i%d op = %v, want %v", tt.from, tt.to, got.Op, tt.op)
		}
	}
}

func TestElementAndFieldPtr(t *testing.T) {
	ctx := testCtx
	i32 := ctx.Int(32)
	arr := ctx.ArrayOf(i32, 4)
	st := ctx.StructOf(ctx.Int(8), ctx.Double())

	m := NewModule(ctx, "test")
	f := m.DefineFunction("f", ctx.FuncOf(ctx.Void(), nil, false))
	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	zero := ctx.ConstInt(i32, 0)

	if got := b.ElementPtr(b.Alloca(arr, nil, "a"), zero).Type(); got != ctx.PointerTo(i32) {
		t.Errorf("array ElementPtr type = %s, want i32*", got)
	}
	if got := b.ElementPtr(b.Alloca(i32, zero, "p"), zero).Type(); got != ctx.PointerTo(i32) {
		t.Errorf("pointer ElementPtr type = %s, want i32*", got)
	}
	if got := b.FieldPtr(b.Alloca(st, nil, "s"), 1).Type(); got != ctx.PointerTo(ctx.Double()) {
		t.Errorf("FieldPtr type = %s, want double*", got)
	}
}

// ----------------------------------------------------------------------------
// Types and layout

func TestTypeInterning(t *testing.T) {
	ctx := NewContext()
	if ctx.Int(32) != ctx.Int(32) {
		t.Error("Int(32) not interned")
	}
	if ctx.StructOf(ctx.Int(8), ctx.Int(32)) != ctx.StructOf(ctx.Int(8), ctx.Int(32)) {
		t.Error("StructOf not interned")
	}
	if ctx.Float() == ctx.Double() {
		t.Error("float and double share a type")
	}
}

func TestTypeString(t *testing.T) {
	ctx := testCtx
	tests := []struct {
		typ  ir.Type
		want string
	}{
		{ctx.Void(), "void"},
		{ctx.Int(1), "i1"},
		{ctx.Float(), "float"},
		{ctx.PointerTo(ctx.Int(8)), "i8*"},
		{ctx.ArrayOf(ctx.Int(64), 3), "[3 x i64]"},
		{ctx.StructOf(ctx.Int(32), ctx.Double()), "{ i32, double }"},
		{ctx.StructOf(), "{}"},
		{ctx.FuncOf(ctx.Int(32), []ir.Type{ctx.PointerTo(ctx.Int(8))}, true), "i32 (i8*, ...)"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestLayout(t *testing.T) {
	ctx := testCtx
	st := ctx.StructOf(ctx.Int(8), ctx.Int(32), ctx.Int(16))

	tests := []struct {
		typ  ir.Type
		size int64
	}{
		{ctx.Int(1), 1},
		{ctx.Int(8), 1},
		{ctx.Int(16), 2},
		{ctx.Int(32), 4},
		{ctx.Int(64), 8},
		{ctx.Float(), 4},
		{ctx.Double(), 8},
		{ctx.PointerTo(ctx.Int(8)), 8},
		{ctx.ArrayOf(ctx.Int(32), 5), 20},
		{st, 12},
	}
	for _, tt := range tests {
		if got := ctx.SizeOf(tt.typ); got != tt.size {
			t.Errorf("SizeOf(%s) = %d, want %d", tt.typ, got, tt.size)
		}
	}

	for i, want := range []int64{0, 4, 8} {
		if got := Offsetof(st, i); got != want {
			t.Errorf("Offsetof(%s, %d) = %d, want %d", st, i, got, want)
		}
	}
}

// ----------------------------------------------------------------------------
// Module

func TestModuleFunctions(t *testing.T) {
	ctx := NewContext()
	m := NewModule(ctx, "test")
	sig := ctx.FuncOf(ctx.Void(), []ir.Type{ctx.Int(32)}, false)

	decl := m.DeclareFunction("f", sig)
	if !decl.IsDeclaration() {
		t.Error("declared function has a body")
	}
	if again := m.DeclareFunction("f", sig); again != decl {
		t.Error("DeclareFunction did not return the existing function")
	}

	def := m.DefineFunction("f", sig, "x")
	if def != decl {
		t.Error("DefineFunction replaced the declaration instead of defining it")
	}
	if def.IsDeclaration() || def.NumParams() != 1 {
		t.Errorf("defined function: declaration=%v params=%d", def.IsDeclaration(), def.NumParams())
	}

	if _, ok := m.Function("missing"); ok {
		t.Error("Function(missing) found something")
	}

	s1 := m.GlobalString("s", "a")
	s2 := m.GlobalString("s", "b")
	if s1 != s2 || len(m.Globals) != 1 {
		t.Errorf("GlobalString did not reuse the existing global")
	}
}

// ----------------------------------------------------------------------------
// Op metadata

func TestOpIsPure(t *testing.T) {
	pure := []Op{OpConstInt, OpAdd, OpICmp, OpElemPtr, OpPhi, OpSelect}
	for _, op := range pure {
		if !op.IsPure() {
			t.Errorf("%v.IsPure() = false, want true", op)
		}
	}
	impure := []Op{OpLoad, OpStore, OpCall, OpMalloc, OpFree, OpDiv}
	for _, op := range impure {
		if op.IsPure() {
			t.Errorf("%v.IsPure() = true, want false", op)
		}
	}
}

func TestOpIsVoid(t *testing.T) {
	for _, op := range []Op{OpStore, OpFree} {
		if !op.IsVoid() {
			t.Errorf("%v.IsVoid() = false, want true", op)
		}
	}
	for _, op := range []Op{OpLoad, OpAdd, OpCall} {
		if op.IsVoid() {
			t.Errorf("%v.IsVoid() = true, want false", op)
		}
	}
}

func TestOpString(t *testing.T) {
	for op := OpInvalid; op < opCount; op++ {
		if op.String() == "" {
			t.Errorf("Op(%d) has no name", op)
		}
	}
	if got := Op(999).String(); got != "unknown" {
		t.Errorf("Op(999).String() = %q, want unknown", got)
	}
}

func TestBlockKindString(t *testing.T) {
	tests := []struct {
		kind BlockKind
		want string
	}{
		{BlockInvalid, "invalid"},
		{BlockPlain, "plain"},
		{BlockIf, "if"},
		{BlockReturn, "ret"},
		{BlockKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	ctx := testCtx
	tests := []struct {
		v    ir.Value
		want string
	}{
		{ctx.ConstInt(ctx.Int(32), -7), "-7"},
		{ctx.ConstInt(ctx.Int(1), 1), "true"},
		{ctx.ConstFloat(ctx.Double(), 2.5), "2.5"},
		{ctx.Null(ctx.PointerTo(ctx.Int(8))), "null"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValueUseCount(t *testing.T) {
	f := NewFunc("f", makeSig())
	i32 := testCtx.IntType(32)
	a := f.NewValue(f.Entry, OpConstInt, i32)
	b := f.NewValue(f.Entry, OpConstInt, i32)
	sum := f.NewValue(f.Entry, OpAdd, i32, a, a)

	if a.Uses != 2 {
		t.Errorf("a.Uses = %d, want 2", a.Uses)
	}
	sum.ReplaceArg(1, b)
	if a.Uses != 1 || b.Uses != 1 {
		t.Errorf("after ReplaceArg: a.Uses = %d, b.Uses = %d, want 1, 1", a.Uses, b.Uses)
	}
	f.ReplaceUses(a, b)
	if a.Uses != 0 || b.Uses != 2 {
		t.Errorf("after ReplaceUses: a.Uses = %d, b.Uses = %d, want 0, 2", a.Uses, b.Uses)
	}
}

func TestRemovePred(t *testing.T) {
	f := NewFunc("f", makeSig())
	i32 := testCtx.IntType(32)
	b1 := f.NewBlock(BlockPlain)
	b2 := f.NewBlock(BlockReturn)
	f.Entry.Kind = BlockIf
	f.Entry.AddSucc(b1)
	f.Entry.AddSucc(b2)
	b1.AddSucc(b2)

	x := f.NewValue(f.Entry, OpConstInt, i32)
	y := f.NewValue(b1, OpConstInt, i32)
	phi := f.NewValue(b2, OpPhi, i32, x, y)

	b2.RemovePred(b1)
	if len(b2.Preds) != 1 || len(phi.Args) != 1 || phi.Args[0] != x {
		t.Errorf("RemovePred: preds=%v phi args=%v", b2.Preds, phi.Args)
	}
	if y.Uses != 0 {
		t.Errorf("y.Uses = %d, want 0", y.Uses)
	}
}
