package compile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/ssa"
	"github.com/you-not-fish/voidc/internal/ssa/interp"
	"github.com/you-not-fish/voidc/internal/ssa/passes"
	"github.com/you-not-fish/voidc/internal/syntax"
)

func compileSource(t *testing.T, src string, conf *Config) (*ssa.Module, error) {
	t.Helper()
	unit, err := ParseUnit("test.vs", src)
	require.NoError(t, err)
	m, err := Compile(ssa.NewContext(), unit, conf, nil)
	if err != nil {
		return nil, err
	}
	mod := m.(*ssa.Module)
	require.NoError(t, passes.RunModule(mod, passes.Default(), passes.Config{Verify: true}))
	return mod, nil
}

// run compiles src, runs it and returns its exit code and output.
func run(t *testing.T, src string) (int, string) {
	t.Helper()
	mod, err := compileSource(t, src, nil)
	require.NoError(t, err)
	var out bytes.Buffer
	code, err := interp.Run(mod, interp.WithStdout(&out), interp.WithStepLimit(1_000_000))
	require.NoError(t, err)
	return code, out.String()
}

// compileError compiles src and returns the error that aborted it.
func compileError(t *testing.T, src string) *Error {
	t.Helper()
	_, err := compileSource(t, src, nil)
	require.Error(t, err)
	var cerr *Error
	require.True(t, errors.As(err, &cerr), "got %T: %v", err, err)
	return cerr
}

// ----------------------------------------------------------------------------
// Programs

func TestRunPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"loop", `int main() {
    mut i = 1
    mut sum = 0
    while (i <= 10) {
        sum = sum + i
        i++
    }
    return sum
}
`, 55},
		{"recursion", `int fib(int n) {
    if (n <= 1) {
        return n
    }
    return fib(n - 1) + fib(n - 2)
}

int main() {
    return fib(10)
}
`, 55},
		{"if chain", `int classify(int n) {
    if (n < 0) {
        return -1
    } else if (n == 0) {
        return 0
    } else {
        return 1
    }
}

int main() {
    return classify(-5) + classify(0) * 10 + classify(7) * 100
}
`, 99},
		{"heap cell", `int main() {
    mut p = malloc int;
    p = 100
    let r = p
    free p
    return r
}
`, 100},
		{"reference params", `void split(int total, ref int low, ref int high) {
    low = total / 3
    high = total - deref low
}

int main() {
    mut a = 0
    mut b = 0
    split(30, ref a, ref b)
    return a * 100 + b
}
`, 1020},
		{"tuple result", `(int, int) divmod(int a, int b) {
    return (a / b, a % b)
}

int main() {
    let (q, r) = divmod(17, 5)
    return q * 10 + r
}
`, 32},
		{"class", `class Point {
    int x
    int y = 5
}

int main() {
    Point p = new Point(3)
    p.x = p.x + 4
    return p.x * p.y
}
`, 35},
		{"overloads", `int pick(int a) {
    return 1
}

int pick(long a) {
    return 2
}

int pick(double a) {
    return 3
}

int main() {
    return pick(1) * 100 + pick(1L) * 10 + pick(1.5)
}
`, 123},
		{"sizeof", `int main() {
    return (int) sizeof(long) * 10 + (int) sizeof(int)
}
`, 84},
		{"array", `int main() {
    int[4] xs = [1, 2, 3, 4]
    mut i = 0
    mut sum = 0
    while (i < 4) {
        sum = sum + xs[i]
        i++
    }
    return sum
}
`, 10},
		{"power", `int main() {
    return 2 ^ 3 ^ 2 - 500
}
`, 12},
		{"short circuit", `bool fail() {
    let z = 0
    return (1 / z) == 0
}

int main() {
    if (false && fail()) {
        return 1
    }
    return 7
}
`, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := run(t, tt.src)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestPrintln(t *testing.T) {
	code, out := run(t, `int main() {
    println("sum", 1 + 2, true, 'x', 2.5)
    println(7L)
    return 0
}
`)
	assert.Equal(t, rtabi.ExitOK, code)
	assert.Equal(t, "sum 3 true x 2.500000\n7\n", out)
}

func TestRuntimeIndexCheck(t *testing.T) {
	code, out := run(t, `int main() {
    let n = 3
    int[n] xs
    xs[5] = 1
    return 0
}
`)
	assert.Equal(t, rtabi.ExitIndexOutOfBounds, code)
	assert.Equal(t, "index out of bounds: index=5, length=3\n", out)
}

func TestRuntimeIndexCheckWideIndex(t *testing.T) {
	// 1<<32 would pass a 32-bit check as 0
	code, out := run(t, `int main() {
    int[5] xs = [1, 2, 3, 4, 5]
    mut i = 4294967296L
    return xs[i]
}
`)
	assert.Equal(t, rtabi.ExitIndexOutOfBounds, code)
	assert.Equal(t, rtabi.FormatIndexError(1<<32, 5), out)
}

func TestRuntimeIndexInBounds(t *testing.T) {
	code, _ := run(t, `int main() {
    let n = 3
    int[n] xs
    mut i = 0
    while (i < n) {
        xs[i] = i * 2
        i++
    }
    return xs[2]
}
`)
	assert.Equal(t, 4, code)
}

// ----------------------------------------------------------------------------
// Errors

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind ErrorKind
		msg  string
	}{
		{"constant index", "int[3] xs = [1, 2, 3]\nreturn xs[3]", IndexOutOfBounds, "index 3 out of bounds for array of length 3"},
		{"immutable", "let x = 1\nx = 2\nreturn x", NotMutable, "cannot assign to immutable x"},
		{"free slot", "let x = 1\nfree x\nreturn 0", NotPointerOwner, "does not own heap memory"},
		{"did you mean", "int total = 1\nreturn totl", UnresolvedName, `undefined: totl (did you mean "total"?)`},
		{"mismatch", "int x = 1.5\nreturn x", TypeMismatch, "initialization"},
		{"no overload", "return f(true)", UnresolvedMethod, "no overload of f matches (bool)"},
		{"undefined method", "return g(1)", UnresolvedMethod, "undefined method: g"},
		{"deref value", "let x = 1\nreturn deref x", NotReference, "cannot dereference x"},
		{"null inference", "let p = null\nreturn 0", InvalidOperation, "from null"},
		{"non-bool condition", "if (1) {\n}\nreturn 0", TypeMismatch, "used as condition"},
		{"float power", "let d = 2.0 ^ 2\nreturn 0", InvalidOperation, "integer operands"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "int f(int a) {\n    return a\n}\n\nint main() {\n" + tt.body + "\n}\n"
			err := compileError(t, src)
			assert.Equal(t, tt.kind, err.Kind, "%v", err)
			assert.Contains(t, err.Msg, tt.msg)
		})
	}
}

func TestDeclarationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
		msg  string
	}{
		{"missing return", "int f() {\n    let x = 1\n}\n", InvalidOperation, "missing return at end of f"},
		{"duplicate overload", "int f(int a) {\n    return a\n}\nint f(int b) {\n    return b\n}\n", InvalidOperation, "redeclared"},
		{"reserved name", "void printf() {\n}\n", InvalidOperation, "cannot define runtime function printf"},
		{"unknown type", "void f(Pointt p) {\n}\nclass Point {\n    int x\n}\n", UnresolvedType, `did you mean "Point"`},
		{"recursive layout", "class Node {\n    Node next\n}\nint main() {\n    return (int) sizeof(Node)\n}\n", InvalidOperation, "recursive layout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileError(t, tt.src)
			assert.Equal(t, tt.kind, err.Kind, "%v", err)
			assert.Contains(t, err.Msg, tt.msg)
		})
	}
}

func TestErrorHandlerSeesFirstError(t *testing.T) {
	var got []*Error
	conf := &Config{Error: func(err *Error) { got = append(got, err) }}
	_, err := compileSource(t, "int main() {\n    return missing\n}\n", conf)
	require.Error(t, err)
	require.Len(t, got, 1)
	assert.Same(t, got[0], err)
	assert.Equal(t, 2, got[0].Pos.Line())
}

// ----------------------------------------------------------------------------
// Phases and side tables

type phaseRecorder struct {
	events []string
}

func (r *phaseRecorder) Enter(p Phase, n syntax.Node) {
	r.events = append(r.events, "enter "+p.String()+" "+n.Kind().String())
}

func (r *phaseRecorder) Leave(p Phase, n syntax.Node) {
	r.events = append(r.events, "leave "+p.String()+" "+n.Kind().String())
}

func TestObserverPhaseOrder(t *testing.T) {
	rec := &phaseRecorder{}
	_, err := compileSource(t, "class A {\n    int x\n}\nint main() {\n    return 0\n}\n", &Config{Observer: rec})
	require.NoError(t, err)

	var want []string
	for _, p := range []Phase{PreProcess, PostProcessType, PostProcessMember, PostProcessUse, Generate} {
		for _, k := range []string{"Class", "Method"} {
			want = append(want, "enter "+p.String()+" "+k, "leave "+p.String()+" "+k)
		}
	}
	assert.Equal(t, want, rec.events)
}

func TestObserverSeesClassMethods(t *testing.T) {
	rec := &phaseRecorder{}
	src := "class A {\n    int twice(int a) {\n        return a * 2\n    }\n}\nint main() {\n    return 0\n}\n"
	_, err := compileSource(t, src, &Config{Observer: rec})
	require.NoError(t, err)

	var want []string
	for _, p := range []Phase{PreProcess, PostProcessType} {
		want = append(want,
			"enter "+p.String()+" Class", "leave "+p.String()+" Class",
			"enter "+p.String()+" Method", "leave "+p.String()+" Method")
	}
	for _, p := range []Phase{PostProcessMember, PostProcessUse, Generate} {
		want = append(want,
			"enter "+p.String()+" Class",
			"enter "+p.String()+" Method", "leave "+p.String()+" Method",
			"leave "+p.String()+" Class",
			"enter "+p.String()+" Method", "leave "+p.String()+" Method")
	}
	assert.Equal(t, want, rec.events)
}

func TestDeclarationPhasesRepeat(t *testing.T) {
	src := `int f(int a) {
    return a
}

class A {
    int x

    int twice(int a) {
        return a * 2
    }
}

int main() {
    return f(3)
}
`
	unit, err := ParseUnit("test.vs", src)
	require.NoError(t, err)
	c := newCompiler(unit, nil, nil)
	c.u = newUnitContext(ssa.NewContext(), c.moduleName())
	require.NoError(t, c.run(PreProcess, PostProcessType, PostProcessMember, PostProcessType, PostProcessMember))
	assert.Len(t, c.pkg.Overloads("f"), 1)
	assert.Len(t, c.pkg.Overloads("A.twice"), 1)
	assert.Len(t, c.pkg.Classes(), 1)

	require.NoError(t, c.run(PostProcessUse, Generate))
	mod := c.u.mod.(*ssa.Module)
	require.NoError(t, passes.RunModule(mod, passes.Default(), passes.Config{Verify: true}))
	code, err := interp.Run(mod)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestObserverStopsAtError(t *testing.T) {
	rec := &phaseRecorder{}
	_, err := compileSource(t, "int main() {\n    return x\n}\n", &Config{Observer: rec})
	require.Error(t, err)
	require.NotEmpty(t, rec.events)
	assert.Equal(t, "enter postProcessUse Method", rec.events[len(rec.events)-1])
}

func TestInfo(t *testing.T) {
	src := "int twice(int a) {\n    return a * 2\n}\n\nint main() {\n    let v = twice(4)\n    return v\n}\n"
	unit, err := ParseUnit("test.vs", src)
	require.NoError(t, err)
	info := &Info{}
	_, err = Compile(ssa.NewContext(), unit, nil, info)
	require.NoError(t, err)

	require.NotNil(t, info.Package)
	assert.Equal(t, "main", info.Package.Name)
	require.Len(t, info.Calls, 1)
	for call, m := range info.Calls {
		assert.Equal(t, "twice", call.Name.String())
		assert.Equal(t, "twice", m.Name)
	}

	main := unit.Decls[1].(*syntax.Method)
	let := main.Body[0].(*syntax.ImmutableLocal)
	require.Len(t, info.Vars[let], 1)
	v := info.Vars[let][0]
	assert.Equal(t, "v", v.Name)
	assert.Equal(t, "int", v.Type.String())
	assert.Equal(t, AllocSlot, v.Alloc)
	assert.False(t, v.Mutable)

	ret := main.Body[1].(*syntax.Return)
	assert.Same(t, v, info.Uses[ret.Value])
	assert.Equal(t, "int", info.Types[ret.Value].String())
}

func TestAllocationChoice(t *testing.T) {
	src := `class Box {
    int v
}

(int, int) pair() {
    return (1, 2)
}

int main() {
    let a = new Box(1)
    let b = malloc int;
    let c = [1, 2]
    let d = (1, 2)
    let e = 5
    return 0
}
`
	unit, err := ParseUnit("test.vs", src)
	require.NoError(t, err)
	info := &Info{}
	_, err = Compile(ssa.NewContext(), unit, nil, info)
	require.NoError(t, err)

	main := unit.Decls[2].(*syntax.Method)
	want := []Allocation{AllocHeap, AllocHeap, AllocStack, AllocTuple, AllocSlot}
	for i, w := range want {
		vs := info.Vars[main.Body[i]]
		require.Len(t, vs, 1)
		assert.Equal(t, w, vs[0].Alloc, vs[0].Name)
	}
}

func TestModuleNames(t *testing.T) {
	src := "int id(int a) {\n    return a\n}\n\nint id(long a) {\n    return 2\n}\n\nint main() {\n    return id(1) + id(1L)\n}\n"
	mod, err := compileSource(t, src, nil)
	require.NoError(t, err)
	assert.NotNil(t, mod.Func("id"))
	assert.NotNil(t, mod.Func("id.1"))
	assert.NotNil(t, mod.Func("main"))
	assert.Nil(t, mod.Func(rtabi.FnCheckIndex), "no helper without a dynamic index")
}
