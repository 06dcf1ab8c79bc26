package project

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/you-not-fish/voidc/internal/compile"
	"github.com/you-not-fish/voidc/internal/config"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	manifest := "package:\n  name: demo\n  version: 1.0.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(manifest), 0o644))
	for name, src := range files {
		path := filepath.Join(dir, SourceDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestInitBuildRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	p, err := Init(dir, "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Manifest.Package.Name)
	require.Len(t, p.Files, 1)
	assert.Equal(t, "main.vs", filepath.Base(p.Files[0]))

	b, err := p.Build(context.Background(), Options{Verify: true})
	require.NoError(t, err)
	var out bytes.Buffer
	code, err := b.Run(&out, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "demo: 30\n", out.String())

	_, err = Init(dir, "demo")
	assert.ErrorContains(t, err, "already exists")
}

func TestInitRejectsBadName(t *testing.T) {
	_, err := Init(t.TempDir(), "no spaces")
	assert.ErrorContains(t, err, "invalid package.name")
}

func TestMultiUnitProject(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.vs": `import "geo"

int main() {
    let r = new geo.Rect(3, 4)
    println(geo.area(r))
    return geo.area(r) - 2
}
`,
		"geo/rect.vs": `package "geo"

class Rect {
    int w
    int h
}

int area(Rect r) {
    return r.w * r.h
}
`,
	})
	p, err := Open(dir)
	require.NoError(t, err)
	require.Len(t, p.Files, 2)

	b, err := p.Build(context.Background(), Options{Verify: true, Parallel: 2})
	require.NoError(t, err)
	require.NotNil(t, b.Main())
	assert.Equal(t, "main", b.Main().Package.Name)

	var out bytes.Buffer
	code, err := b.Run(&out, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, code)
	assert.Equal(t, "12\n", out.String())

	paths, err := b.Emit(p.OutputDir(), config.TargetLL, "test-build")
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "test-build")
	}
}

func TestBuildCollectsErrors(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.vs": "package \"a\"\nint f() {\n    return x\n}\n",
		"b.vs": "package \"b\"\nint g() {\n    return y\n}\n",
	})
	p, err := Open(dir)
	require.NoError(t, err)
	_, err = p.Build(context.Background(), Options{})
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	for _, e := range errs {
		var cerr *compile.Error
		require.ErrorAs(t, e, &cerr)
		assert.Equal(t, compile.UnresolvedName, cerr.Kind)
	}
	assert.True(t, strings.Contains(err.Error(), "undefined: x"))
	assert.True(t, strings.Contains(err.Error(), "undefined: y"))
}

func TestDuplicatePackage(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.vs": "package \"util\"\n",
		"b.vs": "package \"util\"\n",
	})
	p, err := Open(dir)
	require.NoError(t, err)
	_, err = p.Build(context.Background(), Options{})
	assert.ErrorContains(t, err, "package util already declared")
}

func TestBuildCancelled(t *testing.T) {
	dir := writeProject(t, map[string]string{"main.vs": "int main() {\n    return 0\n}\n"})
	p, err := Open(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Build(ctx, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenWithoutSources(t *testing.T) {
	dir := writeProject(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, SourceDir), 0o755))
	_, err := Open(dir)
	assert.ErrorContains(t, err, "no .vs files")
}
