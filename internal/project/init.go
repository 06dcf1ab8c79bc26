package project

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/you-not-fish/voidc/internal/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// scaffold maps template names to the files they produce.
var scaffold = []struct {
	tmpl string
	path string
}{
	{"main.vs.tmpl", filepath.Join(SourceDir, "main"+SourceExt)},
	{"gitignore.tmpl", ".gitignore"},
}

// Init creates a project called name in dir. It fails if dir already
// holds a manifest.
func Init(dir, name string) (*Project, error) {
	m := config.Default(name)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	manifest := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(manifest); err == nil {
		return nil, fmt.Errorf("%s already exists", manifest)
	}
	if err := os.MkdirAll(filepath.Join(dir, SourceDir), 0o755); err != nil {
		return nil, err
	}
	data, err := m.Encode()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(manifest, data, 0o644); err != nil {
		return nil, err
	}

	vars := struct {
		Name, Version, Output string
	}{m.Package.Name, m.Package.Version, m.Build.Output}
	for _, s := range scaffold {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, s.tmpl, vars); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, s.path), buf.Bytes(), 0o644); err != nil {
			return nil, err
		}
	}
	return Open(dir)
}
