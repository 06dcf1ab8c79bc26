// Package codegen emits LLVM textual IR from a lowered SSA module.
package codegen

import (
	"io"

	"github.com/segmentio/ksuid"

	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/ssa"
)

// Options configures the module header.
type Options struct {
	// BuildID is stamped into the header; a fresh KSUID when empty.
	BuildID string

	// Source is the source file name; the module name when empty.
	Source string

	// Target and DataLayout override the rtabi defaults.
	Target     string
	DataLayout string
}

// generator holds the state of one Generate call.
type generator struct {
	e    *emitter
	m    *ssa.Module
	opts Options
}

// Generate writes m as LLVM IR text to w. Functions without blocks become
// declarations. malloc and free are declared when the module allocates
// on the heap without declaring them itself.
func Generate(w io.Writer, m *ssa.Module, opts Options) error {
	if opts.BuildID == "" {
		opts.BuildID = ksuid.New().String()
	}
	if opts.Source == "" {
		opts.Source = m.Name
	}
	if opts.Target == "" {
		opts.Target = rtabi.TargetTriple
	}
	if opts.DataLayout == "" {
		opts.DataLayout = rtabi.DataLayout
	}

	g := &generator{e: &emitter{w: w}, m: m, opts: opts}
	g.header()
	g.globals()
	g.declarations()
	for _, fn := range m.Funcs {
		if fn.IsDeclaration() {
			continue
		}
		g.e.emitLine()
		g.lowerFunc(fn)
	}
	return g.e.err
}

func (g *generator) header() {
	g.e.emit("; ModuleID = '%s'", g.m.Name)
	g.e.emitComment("build-id: " + g.opts.BuildID)
	g.e.emit("source_filename = \"%s\"", llvmEscapeString(g.opts.Source))
	g.e.emit("target datalayout = \"%s\"", g.opts.DataLayout)
	g.e.emit("target triple = \"%s\"", g.opts.Target)
}

func (g *generator) globals() {
	if len(g.m.Globals) == 0 {
		return
	}
	g.e.emitLine()
	for _, gl := range g.m.Globals {
		g.e.emit("@%s = private unnamed_addr constant [%d x i8] c\"%s\\00\"",
			gl.Name, len(gl.Data)+1, llvmEscapeString(gl.Data))
	}
}

func (g *generator) declarations() {
	declared := make(map[string]bool)
	var decls []*ssa.Func
	for _, fn := range g.m.Funcs {
		declared[fn.Name] = true
		if fn.IsDeclaration() {
			decls = append(decls, fn)
		}
	}

	var implicit []string
	for _, op := range []struct {
		op   ssa.Op
		name string
	}{{ssa.OpMalloc, rtabi.FnMalloc}, {ssa.OpFree, rtabi.FnFree}} {
		if !declared[op.name] && g.uses(op.op) {
			implicit = append(implicit, op.name)
		}
	}

	if len(decls) == 0 && len(implicit) == 0 {
		return
	}
	g.e.emitLine()
	for _, fn := range decls {
		g.lowerDecl(fn)
	}
	for _, name := range implicit {
		sig, _ := rtabi.LookupRuntime(name)
		g.e.emit("%s", sig.String())
	}
}

// uses reports whether any defined function contains op.
func (g *generator) uses(op ssa.Op) bool {
	for _, fn := range g.m.Funcs {
		for _, b := range fn.Blocks {
			for _, v := range b.Values {
				if v.Op == op {
					return true
				}
			}
		}
	}
	return false
}
