package compile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/voidc/internal/ssa"
	"github.com/you-not-fish/voidc/internal/ssa/interp"
	"github.com/you-not-fish/voidc/internal/ssa/passes"
	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/types"
)

const utilSource = `package "util"

class Box {
    int v
}

int add(int a, int b) {
    return a + b
}

int unbox(Box b) {
    return b.v
}
`

func parseUnit(t *testing.T, filename, src string) *Unit {
	t.Helper()
	unit, err := ParseUnit(filename, src)
	require.NoError(t, err)
	return unit
}

func compileUnit(t *testing.T, unit *Unit, conf *Config) *ssa.Module {
	t.Helper()
	m, err := Compile(ssa.NewContext(), unit, conf, nil)
	require.NoError(t, err)
	mod := m.(*ssa.Module)
	require.NoError(t, passes.RunModule(mod, passes.Default(), passes.Config{Verify: true}))
	return mod
}

func TestDeclare(t *testing.T) {
	pkg, err := Declare(parseUnit(t, "util.vs", utilSource), nil)
	require.NoError(t, err)
	assert.Equal(t, "util", pkg.Name)
	assert.Len(t, pkg.Overloads("add"), 1)
	require.Len(t, pkg.Classes(), 1)
	box := pkg.Classes()[0]
	assert.Equal(t, "Box", box.Name)
	require.NotNil(t, box.Field("v"))
	assert.Nil(t, box.Field("w"))
}

func TestImportedPackage(t *testing.T) {
	util := parseUnit(t, "util.vs", utilSource)
	pkg, err := Declare(util, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		src  string
	}{
		{"import", `import "util"

int main() {
    let b = new util.Box(40)
    return util.add(util.unbox(b), 2)
}
`},
		{"using", `using "util"

int main() {
    let b = new Box(40)
    return add(unbox(b), 2)
}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Config{Packages: map[string]*Package{"util": pkg}}
			main := compileUnit(t, parseUnit(t, "main.vs", tt.src), conf)
			lib := compileUnit(t, util, nil)

			assert.NotNil(t, lib.Func("util.add"))
			f := main.Func("util.add")
			require.NotNil(t, f)
			assert.True(t, f.IsDeclaration())

			var out bytes.Buffer
			code, err := interp.Run(main, interp.WithModules(lib), interp.WithStdout(&out))
			require.NoError(t, err)
			assert.Equal(t, 42, code)
		})
	}
}

func TestImportErrors(t *testing.T) {
	pkg, err := Declare(parseUnit(t, "util.vs", utilSource), nil)
	require.NoError(t, err)
	conf := &Config{Packages: map[string]*Package{"util": pkg}}

	tests := []struct {
		name string
		src  string
		kind ErrorKind
		msg  string
	}{
		{"missing package", "import \"utl\"\nint main() {\n    return 0\n}\n", UnresolvedName, `package "utl" not found (did you mean "util"?)`},
		{"unqualified", "import \"util\"\nint main() {\n    return add(1, 2)\n}\n", UnresolvedMethod, "undefined method: add"},
		{"wrong overload", "import \"util\"\nint main() {\n    return util.add(1, true)\n}\n", UnresolvedMethod, "no overload of util.add matches (int, bool)"},
		{"wrong overload through using", "using \"util\"\nint main() {\n    return add(1, true)\n}\n", UnresolvedMethod, "no overload of add matches (int, bool)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(ssa.NewContext(), parseUnit(t, "main.vs", tt.src), conf, nil)
			require.Error(t, err)
			cerr, ok := err.(*Error)
			require.True(t, ok, "got %T", err)
			assert.Equal(t, tt.kind, cerr.Kind, "%v", err)
			assert.Contains(t, cerr.Msg, tt.msg)
		})
	}
}

func TestResolveMethod(t *testing.T) {
	decls, err := syntax.ParseSource("test.vs", "int f(int a) {\n}\nint f(long a) {\n}\n")
	require.NoError(t, err)
	p := NewPackage("main")
	for _, d := range decls {
		p.DefineMethod(d.(*syntax.Method))
	}

	m := p.ResolveMethod("f", []types.Type{types.LongType})
	require.NotNil(t, m)
	assert.Same(t, decls[1], m)
	assert.Equal(t, "f.1", p.linkName("f", m))
	assert.Equal(t, "f", p.linkName("f", decls[0].(*syntax.Method)))

	assert.Nil(t, p.ResolveMethod("f", []types.Type{types.DoubleType}), "no implicit conversion")
	assert.Nil(t, p.ResolveMethod("g", nil))
}

func TestQualify(t *testing.T) {
	pkg, err := Declare(parseUnit(t, "util.vs", utilSource), nil)
	require.NoError(t, err)

	box := types.Basic("Box")
	assert.Equal(t, "util.Box", pkg.Qualify(box).String())
	assert.Equal(t, "int", pkg.Qualify(types.IntType).String())
	assert.Equal(t, "Other", pkg.Qualify(types.Basic("Other")).String())
	assert.Equal(t, "(util.Box, int)", pkg.Qualify(types.NewCompound(box, types.IntType)).String())
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
		ok         bool
	}{
		{"lenght", []string{"length", "width"}, "length", true},
		{"x", []string{"y"}, "", false},
		{"count", []string{"total", "size"}, "", false},
		{"same", []string{"same"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := suggest(tt.name, tt.candidates)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
