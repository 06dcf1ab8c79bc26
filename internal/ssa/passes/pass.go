// Package passes holds the cleanup and optimization passes run over lowered
// SSA functions.
package passes

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/you-not-fish/voidc/internal/ssa"
)

// Pass describes a single SSA optimization pass.
type Pass struct {
	Name string
	Fn   func(f *ssa.Func)
}

// Config controls pass execution behavior.
type Config struct {
	DumpBefore string      // dump SSA before this pass ("*" for all)
	DumpAfter  string      // dump SSA after this pass ("*" for all)
	Verify     bool        // verify SSA before/after each pass
	DumpFunc   string      // restrict dumps to this function name
	Out        io.Writer   // dump destination; os.Stderr when nil
	Logger     *zap.Logger // per-pass timing at debug level; nil for none
}

// Default is the standard pipeline. Unreachable blocks go first because
// mem2reg walks the dominator tree.
func Default() []Pass {
	return []Pass{
		{Name: "deadblocks", Fn: RemoveUnreachable},
		{Name: "mem2reg", Fn: Mem2Reg},
		{Name: "deadvalues", Fn: RemoveDeadValues},
	}
}

// Cleanup is the pipeline used when optimizations are off.
func Cleanup() []Pass {
	return []Pass{
		{Name: "deadblocks", Fn: RemoveUnreachable},
	}
}

// Run executes the given passes on f in order.
func Run(f *ssa.Func, passes []Pass, cfg Config) error {
	if f.IsDeclaration() {
		return nil
	}
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	for _, p := range passes {
		if shouldDump(cfg.DumpBefore, p.Name) && matchFunc(cfg.DumpFunc, f.Name) {
			fmt.Fprintf(out, "--- before %s (%s) ---\n", p.Name, f.Name)
			ssa.Fprint(out, f)
			fmt.Fprintln(out)
		}

		if cfg.Verify {
			if err := ssa.Verify(f); err != nil {
				return fmt.Errorf("verify before %s: %w", p.Name, err)
			}
		}

		start := time.Now()
		p.Fn(f)
		log.Debug("pass",
			zap.String("pass", p.Name),
			zap.String("func", f.Name),
			zap.Int("values", f.NumValues()),
			zap.Duration("elapsed", time.Since(start)))

		if cfg.Verify {
			if err := ssa.Verify(f); err != nil {
				return fmt.Errorf("verify after %s: %w", p.Name, err)
			}
		}

		if shouldDump(cfg.DumpAfter, p.Name) && matchFunc(cfg.DumpFunc, f.Name) {
			fmt.Fprintf(out, "--- after %s (%s) ---\n", p.Name, f.Name)
			ssa.Fprint(out, f)
			fmt.Fprintln(out)
		}
	}
	return nil
}

// RunModule runs passes on every defined function of m and returns the
// combined errors.
func RunModule(m *ssa.Module, passes []Pass, cfg Config) error {
	var err error
	for _, f := range m.Funcs {
		err = multierr.Append(err, Run(f, passes, cfg))
	}
	return err
}

func shouldDump(pattern, name string) bool {
	return pattern == "*" || pattern == name
}

func matchFunc(filter, name string) bool {
	return filter == "" || filter == name
}
