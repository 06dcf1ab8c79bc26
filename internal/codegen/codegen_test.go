package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/ssa"
	"github.com/you-not-fish/voidc/internal/ssa/passes"
)

var fixedOpts = Options{BuildID: "test", Target: "t", DataLayout: "d"}

func generate(t *testing.T, m *ssa.Module, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, m, opts))
	return buf.String()
}

// assertGolden fails with a unified diff when got differs from want.
func assertGolden(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	t.Errorf("output mismatch:\n%s", diff)
}

func TestGenerateModule(t *testing.T) {
	ctx := ssa.NewContext()
	m := ssa.NewModule(ctx, "prog")
	i32 := ctx.Int(32)
	printf := m.DeclareFunction("printf", ctx.FuncOf(i32, []ir.Type{ctx.PointerTo(ctx.Int(8))}, true))
	format := m.GlobalString("fmt", "%d\n")

	b := ctx.NewBuilder()
	add := m.DefineFunction("add", ctx.FuncOf(i32, []ir.Type{i32, i32}, false), "a", "b")
	b.SetInsertPoint(add.EntryBlock())
	b.Ret(b.Add(add.Param(0), add.Param(1)))

	main := m.DefineFunction("main", ctx.FuncOf(i32, nil, false))
	b.SetInsertPoint(main.EntryBlock())
	r := b.Call(add, ctx.ConstInt(i32, 2), ctx.ConstInt(i32, 3))
	b.Call(printf, format, r)
	b.Ret(ctx.ConstInt(i32, 0))

	want := `; ModuleID = 'prog'
; build-id: test
source_filename = "prog"
target datalayout = "d"
target triple = "t"

@fmt = private unnamed_addr constant [4 x i8] c"%d\0A\00"

declare i32 @printf(ptr, ...)

define i32 @add(i32 %arg0, i32 %arg1) {
entry:
  %v2 = add i32 %arg0, %arg1
  ret i32 %v2
}

define i32 @main() {
entry:
  %v0 = call i32 @add(i32 2, i32 3)
  %v1 = call i32 (ptr, ...) @printf(ptr @fmt, i32 %v0)
  ret i32 0
}
`
	assertGolden(t, want, generate(t, m, fixedOpts))
}

func TestGeneratePhi(t *testing.T) {
	ctx := ssa.NewContext()
	m := ssa.NewModule(ctx, "phi")
	i32 := ctx.Int(32)
	f := m.DefineFunction("pick", ctx.FuncOf(i32, []ir.Type{ctx.Int(1)}, false), "c")
	then, els, join := f.AddBlock("then"), f.AddBlock("else"), f.AddBlock("join")

	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	x := b.Alloca(i32, nil, "x")
	b.CondBr(f.Param(0), then, els)
	b.SetInsertPoint(then)
	b.Store(ctx.ConstInt(i32, 1), x)
	b.Br(join)
	b.SetInsertPoint(els)
	b.Store(ctx.ConstInt(i32, 2), x)
	b.Br(join)
	b.SetInsertPoint(join)
	b.Ret(b.Load(x))

	require.NoError(t, passes.RunModule(m, passes.Default(), passes.Config{Verify: true}))
	out := generate(t, m, fixedOpts)

	assert.Contains(t, out, "br i1 %arg0, label %b1, label %b2")
	assert.Regexp(t, `%v\d+ = phi i32 \[ 1, %b1 \], \[ 2, %b2 \]`, out)
	assert.NotContains(t, out, "alloca")
}

func TestGenerateMemory(t *testing.T) {
	ctx := ssa.NewContext()
	m := ssa.NewModule(ctx, "mem")
	i32, i64 := ctx.Int(32), ctx.Int(64)
	pair := ctx.StructOf(i32, i64)
	arr := ctx.ArrayOf(i32, 4)

	f := m.DefineFunction("main", ctx.FuncOf(i32, []ir.Type{i32}, false), "n")
	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	p := b.Malloc(pair)
	b.Store(ctx.ConstInt(i64, 7), b.FieldPtr(p, 1))
	a := b.Alloca(arr, nil, "a")
	b.Store(ctx.ConstInt(i32, 3), b.ElementPtr(a, f.Param(0)))
	dyn := b.Alloca(i32, f.Param(0), "dyn")
	b.Store(ctx.ConstInt(i32, 1), b.ElementPtr(dyn, ctx.ConstInt(i32, 0)))
	b.Free(p)
	wide := b.SExt(f.Param(0), i64)
	b.Ret(b.Trunc(wide, i32))

	out := generate(t, m, fixedOpts)
	for _, want := range []string{
		"declare ptr @malloc(i64)",
		"declare void @free(ptr)",
		"= call ptr @malloc(i64 16)",
		"= getelementptr { i32, i64 }, ptr %v1, i32 0, i32 1",
		"store i64 7, ptr",
		"= alloca [4 x i32]",
		"= getelementptr [4 x i32], ptr %v",
		", i64 0, i32 %arg0",
		"= alloca i32, i32 %arg0",
		"= getelementptr i32, ptr %v",
		"call void @free(ptr %v1)",
		"= sext i32 %arg0 to i64",
		"= trunc i64 %v",
	} {
		assert.Contains(t, out, want)
	}
}

func TestGenerateOperators(t *testing.T) {
	ctx := ssa.NewContext()
	m := ssa.NewModule(ctx, "ops")
	i1, i32, f64 := ctx.Int(1), ctx.Int(32), ctx.Double()
	f := m.DefineFunction("ops", ctx.FuncOf(ctx.Void(), []ir.Type{i32, f64}, false), "x", "y")

	b := ctx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	x, y := f.Param(0), f.Param(1)
	b.Rem(x, x)
	b.Neg(x)
	b.FNeg(y)
	b.FMul(y, ctx.ConstFloat(f64, 1.5))
	c := b.ICmp(ir.IntSGE, x, ctx.ConstInt(i32, 0))
	d := b.FCmp(ir.FloatOLT, y, ctx.ConstFloat(f64, 0))
	b.Not(b.And(c, d))
	b.Select(c, x, ctx.ConstInt(i32, 9))
	b.SIToFP(x, f64)
	b.IntCast(ctx.ConstInt(i1, 1), i32)
	b.RetVoid()

	out := generate(t, m, fixedOpts)
	for _, want := range []string{
		"define void @ops(i32 %arg0, double %arg1)",
		"= srem i32 %arg0, %arg0",
		"= sub i32 0, %arg0",
		"= fneg double %arg1",
		"= fmul double %arg1, 0x3FF8000000000000",
		"= icmp sge i32 %arg0, 0",
		"= fcmp olt double %arg1, 0x0000000000000000",
		"= xor i1 %v",
		", true",
		"= select i1 %v",
		"i32 %arg0, i32 9",
		"= sitofp i32 %arg0 to double",
		"= zext i1 true to i32",
		"ret void",
	} {
		assert.Contains(t, out, want)
	}
}

func TestGenerateBuildID(t *testing.T) {
	ctx := ssa.NewContext()
	m := ssa.NewModule(ctx, "id")
	out := generate(t, m, Options{})

	var id string
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "; build-id: "); ok {
			id = rest
		}
	}
	_, err := ksuid.Parse(id)
	assert.NoError(t, err, "build id %q", id)
	assert.Contains(t, out, `source_filename = "id"`)
}

func TestEscapeString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"a\nb", `a\0Ab`},
		{`q"\`, `q\22\5C`},
		{"\t", `\09`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, llvmEscapeString(tt.in), "escape %q", tt.in)
	}
}
