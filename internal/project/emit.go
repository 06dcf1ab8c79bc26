package project

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/you-not-fish/voidc/internal/codegen"
	"github.com/you-not-fish/voidc/internal/config"
	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/ssa"
	"github.com/you-not-fish/voidc/internal/ssa/interp"
)

// ErrNoMain is returned by Run when no unit defines the entry point.
var ErrNoMain = errors.New("no unit defines " + rtabi.EntryPoint)

// Write emits one unit in the format of target.
func Write(w io.Writer, u *Unit, target, buildID string) error {
	switch target {
	case config.TargetLL:
		return codegen.Generate(w, u.Module, codegen.Options{BuildID: buildID, Source: u.File})
	case config.TargetSSA:
		ssa.FprintModule(w, u.Module)
		return nil
	}
	return fmt.Errorf("cannot write target %q", target)
}

// Emit writes every unit of b into dir, one <package>.<target> file per
// unit, and returns the paths written.
func (b *Build) Emit(dir, target, buildID string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, u := range b.Units {
		path := filepath.Join(dir, u.Package.Name+"."+target)
		if err := writeFile(path, u, target, buildID); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, u *Unit, target, buildID string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	w := bufio.NewWriter(f)
	if err := Write(w, u, target, buildID); err != nil {
		return err
	}
	return w.Flush()
}

// Run interprets the entry point with the other units linked and returns
// the program's exit code.
func (b *Build) Run(stdout io.Writer, log *zap.Logger) (int, error) {
	main := b.Main()
	if main == nil {
		return 0, ErrNoMain
	}
	opts := []interp.Option{interp.WithStdout(stdout), interp.WithModules(b.Modules(main)...)}
	if log != nil {
		opts = append(opts, interp.WithLogger(log))
	}
	return interp.Run(main.Module, opts...)
}
