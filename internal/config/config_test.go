package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	src := `package:
  name: hello
  version: 1.2.3
  authors: [ada]
build:
  target: run
  output: out
`
	p, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Package.Name)
	assert.Equal(t, "1.2.3", p.Package.Version)
	assert.Equal(t, []string{"ada"}, p.Package.Authors)
	assert.Equal(t, TargetRun, p.Build.Target)
	assert.Equal(t, "out", p.Build.Output)
}

func TestDecodeDefaults(t *testing.T) {
	p, err := Decode(strings.NewReader("package:\n  name: hello\n  version: 0.1.0\n"))
	require.NoError(t, err)
	assert.Equal(t, TargetLL, p.Build.Target)
	assert.Equal(t, "build", p.Build.Output)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", "empty manifest"},
		{"unknown key", "package:\n  name: a\n  version: 1.0.0\n  license: mit\n", "field license not found"},
		{"missing name", "package:\n  version: 1.0.0\n", "package.name is required"},
		{"bad name", "package:\n  name: \"1up\"\n  version: 1.0.0\n", "invalid package.name"},
		{"bad version", "package:\n  name: a\n  version: \"1.0\"\n", "want x.y.z"},
		{"bad target", "package:\n  name: a\n  version: 1.0.0\nbuild:\n  target: exe\n", "unknown build.target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	want := Default("demo")
	data, err := want.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: demo")

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("package:\n  name: a\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
