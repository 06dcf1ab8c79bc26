// Package project builds Void projects: a directory holding a
// project.yaml manifest and the .vs units under src/.
//
// A build runs in three stages. Units are parsed concurrently, then each
// unit's declarations are collected into a package, and finally every
// unit is compiled concurrently against the packages of the others, each
// with its own backend context. Errors of independent units are reported
// together.
package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/you-not-fish/voidc/internal/compile"
	"github.com/you-not-fish/voidc/internal/config"
	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/ssa"
	"github.com/you-not-fish/voidc/internal/ssa/passes"
)

// SourceDir holds the units of a project.
const SourceDir = "src"

// SourceExt is the extension of Void source files.
const SourceExt = ".vs"

// Project is an opened project directory.
type Project struct {
	Dir      string
	Manifest *config.Project
	Files    []string // sorted source paths
}

// Open loads the manifest of dir and lists its sources.
func Open(dir string) (*Project, error) {
	m, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, err
	}
	var files []string
	root := filepath.Join(dir, SourceDir)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == SourceExt {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no %s files", root, SourceExt)
	}
	sort.Strings(files)
	return &Project{Dir: dir, Manifest: m, Files: files}, nil
}

// OutputDir is where build products are written.
func (p *Project) OutputDir() string {
	return filepath.Join(p.Dir, p.Manifest.Build.Output)
}

// Build compiles the project's sources.
func (p *Project) Build(ctx context.Context, opts Options) (*Build, error) {
	opts.Logger = opts.logger().With(zap.String("project", p.Manifest.Package.Name))
	return BuildFiles(ctx, p.Files, opts)
}

// Options configures a build.
type Options struct {
	Logger   *zap.Logger
	Metrics  *compile.Metrics
	Observer compile.Observer

	// NoOpt runs only the cleanup passes instead of the default pipeline.
	NoOpt bool

	// Verify checks the SSA before and after every pass.
	Verify bool

	// Parallel bounds concurrent units; GOMAXPROCS when zero.
	Parallel int
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Unit is one compiled source file.
type Unit struct {
	File    string
	Source  *compile.Unit
	Package *compile.Package
	Module  *ssa.Module
}

// Build is the result of compiling a set of units.
type Build struct {
	Units []*Unit
}

// Main returns the unit defining the entry point, or nil.
func (b *Build) Main() *Unit {
	for _, u := range b.Units {
		if f := u.Module.Func(rtabi.EntryPoint); f != nil && !f.IsDeclaration() {
			return u
		}
	}
	return nil
}

// Modules returns the modules of all units but u.
func (b *Build) Modules(except *Unit) []*ssa.Module {
	var mods []*ssa.Module
	for _, u := range b.Units {
		if u != except {
			mods = append(mods, u.Module)
		}
	}
	return mods
}

// BuildFiles compiles files as the units of one program.
func BuildFiles(ctx context.Context, files []string, opts Options) (*Build, error) {
	log := opts.logger()
	start := time.Now()
	units := make([]*Unit, len(files))
	for i, f := range files {
		units[i] = &Unit{File: f}
	}

	if err := eachUnit(ctx, units, opts, func(u *Unit) error {
		src, err := os.ReadFile(u.File)
		if err != nil {
			return err
		}
		u.Source, err = compile.ParseUnit(u.File, string(src))
		return err
	}); err != nil {
		return nil, err
	}

	packages := make(map[string]*compile.Package)
	var errs error
	for _, u := range units {
		pkg, err := compile.Declare(u.Source, &compile.Config{Logger: log})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if other, ok := packages[pkg.Name]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: package %s already declared by %s", u.File, pkg.Name, unitOf(units, other).File))
			continue
		}
		u.Package = pkg
		packages[pkg.Name] = pkg
	}
	if errs != nil {
		return nil, errs
	}

	pipeline := passes.Default()
	if opts.NoOpt {
		pipeline = passes.Cleanup()
	}
	if err := eachUnit(ctx, units, opts, func(u *Unit) error {
		conf := &compile.Config{
			Logger:   log,
			Metrics:  opts.Metrics,
			Observer: opts.Observer,
			Packages: packages,
		}
		m, err := compile.Compile(ssa.NewContext(), u.Source, conf, nil)
		if err != nil {
			return err
		}
		u.Module = m.(*ssa.Module)
		if err := passes.RunModule(u.Module, pipeline, passes.Config{Verify: opts.Verify}); err != nil {
			return fmt.Errorf("%s: %w", u.File, err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debug("build",
		zap.Int("units", len(units)),
		zap.Duration("elapsed", time.Since(start)))
	return &Build{Units: units}, nil
}

// eachUnit runs fn for every unit concurrently. All failures are
// returned together; cancellation of ctx stops units not yet started.
func eachUnit(ctx context.Context, units []*Unit, opts Options, fn func(*Unit) error) error {
	errs := make([]error, len(units))
	g, ctx := errgroup.WithContext(ctx)
	limit := opts.Parallel
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, u := range units {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return multierr.Combine(errs...)
}

func unitOf(units []*Unit, pkg *compile.Package) *Unit {
	for _, u := range units {
		if u.Package == pkg {
			return u
		}
	}
	return nil
}
