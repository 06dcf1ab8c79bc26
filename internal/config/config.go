// Package config loads the project.yaml manifest of a Void project.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest file at the root of a project.
const FileName = "project.yaml"

// Build targets.
const (
	TargetLL  = "ll"  // LLVM text
	TargetSSA = "ssa" // SSA dump
	TargetRun = "run" // interpret main
)

// Project is a decoded manifest.
type Project struct {
	Package Package `yaml:"package"`
	Build   Build   `yaml:"build"`
}

// Package describes the project. Only diagnostics, output naming and the
// module header use it.
type Package struct {
	Name    string   `yaml:"name"`
	Version string   `yaml:"version"`
	Authors []string `yaml:"authors,omitempty"`
}

// Build selects what a build produces.
type Build struct {
	Target string `yaml:"target"`
	Output string `yaml:"output"`
}

var (
	namePattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// Default returns the manifest used for a new project called name.
func Default(name string) *Project {
	return &Project{
		Package: Package{Name: name, Version: "0.1.0"},
		Build:   Build{Target: TargetLL, Output: "build"},
	}
}

// Load reads and validates the manifest at path.
func Load(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Decode reads a manifest from r. Unknown keys are errors. Missing build
// settings get their defaults.
func Decode(r io.Reader) (*Project, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var p Project
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty manifest")
		}
		return nil, err
	}
	if p.Build.Target == "" {
		p.Build.Target = TargetLL
	}
	if p.Build.Output == "" {
		p.Build.Output = "build"
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the package name, the x.y.z version and the target.
func (p *Project) Validate() error {
	switch {
	case p.Package.Name == "":
		return errors.New("package.name is required")
	case !namePattern.MatchString(p.Package.Name):
		return fmt.Errorf("invalid package.name %q", p.Package.Name)
	case !versionPattern.MatchString(p.Package.Version):
		return fmt.Errorf("invalid package.version %q, want x.y.z", p.Package.Version)
	}
	switch p.Build.Target {
	case TargetLL, TargetSSA, TargetRun:
	default:
		return fmt.Errorf("unknown build.target %q (want %s, %s or %s)", p.Build.Target, TargetLL, TargetSSA, TargetRun)
	}
	return nil
}

// Encode returns the YAML form of p.
func (p *Project) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
