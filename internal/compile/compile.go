// Package compile resolves the declarations of a Void compilation unit and
// lowers them to the backend contract of package ir.
//
// A unit goes through five phases, each over the entire declaration list
// before the next one starts:
//
//	preProcess         parent links, package name, imports
//	postProcessType    class declarations
//	postProcessMember  field layouts, method tables, backend functions
//	postProcessUse     names, types, overloads, allocation choices
//	generate           lowering through ir.Builder
//
// Resolution happens only in the post-process phases; generate consumes
// their side tables and performs no lookups of its own.
package compile

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/types"
)

// Phase is a step of the compile pipeline.
type Phase uint8

const (
	PreProcess Phase = iota
	PostProcessType
	PostProcessMember
	PostProcessUse
	Generate
)

var phaseNames = [...]string{
	PreProcess:        "preProcess",
	PostProcessType:   "postProcessType",
	PostProcessMember: "postProcessMember",
	PostProcessUse:    "postProcessUse",
	Generate:          "generate",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", p)
}

// Observer is notified around each top-level declaration of each phase.
// Methods declared inside a class are reported nested within their class
// in the member, use and generate phases, the phases that visit them one
// by one.
type Observer interface {
	Enter(p Phase, n syntax.Node)
	Leave(p Phase, n syntax.Node)
}

// Unit is one parsed source file.
type Unit struct {
	Filename string
	Decls    []syntax.Decl
}

// ParseUnit tokenizes and parses src into a unit.
func ParseUnit(filename, src string) (*Unit, error) {
	decls, err := syntax.ParseSource(filename, src)
	if err != nil {
		return nil, err
	}
	return &Unit{Filename: filename, Decls: decls}, nil
}

// Config specifies how a unit is compiled.
type Config struct {
	// Error is called with the error that aborts the unit.
	Error ErrorHandler

	// Observer, if set, sees every phase of every declaration.
	Observer Observer

	// Logger receives phase timings at debug level. Nil disables logging.
	Logger *zap.Logger

	// Metrics, if set, records phase durations and unit results.
	Metrics *Metrics

	// Packages are the packages that import and using directives may
	// name, as returned by Declare.
	Packages map[string]*Package
}

// Info holds the results of resolution. Maps that are nil are allocated
// by Compile.
type Info struct {
	// Package is the package declared by the unit.
	Package *Package

	// Types maps every resolved expression to its type.
	Types map[syntax.Expr]types.Type

	// Vars maps declaring nodes to the variables they introduce: locals,
	// destructured names, and the parameters of a method.
	Vars map[syntax.Node][]*Var

	// Uses maps accessors, assignments and frees to the variable they
	// refer to.
	Uses map[syntax.Node]*Var

	// Calls maps each call to the overload it resolved to. Builtin calls
	// are absent.
	Calls map[*syntax.Call]*syntax.Method
}

// Compile runs all phases over unit and returns the lowered module. The
// first error aborts the unit; no module is returned then.
func Compile(ctx ir.Context, unit *Unit, conf *Config, info *Info) (ir.Module, error) {
	c := newCompiler(unit, conf, info)
	c.u = newUnitContext(ctx, c.moduleName())
	err := c.run(PreProcess, PostProcessType, PostProcessMember, PostProcessUse, Generate)
	c.conf.Metrics.countUnit(err)
	if err != nil {
		return nil, err
	}
	return c.u.mod, nil
}

// Declare runs the declaration phases over unit and returns its package
// for other units to import. Method bodies are not resolved.
func Declare(unit *Unit, conf *Config) (*Package, error) {
	c := newCompiler(unit, conf, nil)
	if err := c.run(PreProcess, PostProcessType, PostProcessMember); err != nil {
		return nil, err
	}
	return c.pkg, nil
}

// compiler holds the state of one unit. It is not safe for concurrent use;
// units compile concurrently with one compiler each.
type compiler struct {
	conf *Config
	info *Info
	unit *Unit
	pkg  *Package
	log  *zap.Logger

	// side tables filled by the post-process phases
	types  map[syntax.Expr]types.Type
	vars   map[syntax.Node][]*Var
	uses   map[syntax.Node]*Var
	calls  map[*syntax.Call]*callTarget
	paths  map[syntax.Node][]*Field // field access chains
	consts map[*syntax.Index]int64  // compile-time checked indices

	// backend state; nil when only declaring
	u *unitContext

	// current method
	method *syntax.Method
	scope  *scope
	fn     ir.Function

	first *Error
}

func newCompiler(unit *Unit, conf *Config, info *Info) *compiler {
	if conf == nil {
		conf = &Config{}
	}
	log := conf.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := &compiler{
		conf:   conf,
		info:   info,
		unit:   unit,
		pkg:    NewPackage("main"),
		log:    log.With(zap.String("unit", unit.Filename)),
		types:  make(map[syntax.Expr]types.Type),
		vars:   make(map[syntax.Node][]*Var),
		uses:   make(map[syntax.Node]*Var),
		calls:  make(map[*syntax.Call]*callTarget),
		paths:  make(map[syntax.Node][]*Field),
		consts: make(map[*syntax.Index]int64),
	}
	if info != nil {
		info.Package = c.pkg
		if info.Types == nil {
			info.Types = make(map[syntax.Expr]types.Type)
		}
		if info.Vars == nil {
			info.Vars = make(map[syntax.Node][]*Var)
		}
		if info.Uses == nil {
			info.Uses = make(map[syntax.Node]*Var)
		}
		if info.Calls == nil {
			info.Calls = make(map[*syntax.Call]*syntax.Method)
		}
	}
	return c
}

// moduleName names the backend module after the unit's package
// declaration, or its file.
func (c *compiler) moduleName() string {
	for _, d := range c.unit.Decls {
		if p, ok := d.(*syntax.Package); ok {
			return p.Name
		}
	}
	if c.unit.Filename != "" {
		return c.unit.Filename
	}
	return "main"
}

// run executes the given phases in order. It returns the first error.
func (c *compiler) run(phases ...Phase) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			err = c.first
		}
	}()

	for _, p := range phases {
		start := time.Now()
		for _, d := range c.unit.Decls {
			c.observe(p, d, func() { c.dispatch(p, d) })
		}
		elapsed := time.Since(start)
		c.conf.Metrics.observePhase(p, elapsed)
		c.log.Debug("phase",
			zap.String("phase", p.String()),
			zap.Int("nodes", len(c.unit.Decls)),
			zap.Duration("elapsed", elapsed))
	}
	return nil
}

// observe runs f between the observer's Enter and Leave for n. Member
// methods are observed nested inside their class. Leave is not reported
// when f aborts the unit.
func (c *compiler) observe(p Phase, n syntax.Node, f func()) {
	obs := c.conf.Observer
	if obs == nil {
		f()
		return
	}
	obs.Enter(p, n)
	f()
	obs.Leave(p, n)
}

func (c *compiler) dispatch(p Phase, d syntax.Decl) {
	switch p {
	case PreProcess:
		c.preProcess(d, nil)
	case PostProcessType:
		c.postProcessType(d)
	case PostProcessMember:
		c.postProcessMember(d)
	case PostProcessUse:
		c.postProcessUse(d)
	case Generate:
		c.generate(d)
	}
}

// ----------------------------------------------------------------------------
// Recording

func (c *compiler) recordType(e syntax.Expr, t types.Type) types.Type {
	c.types[e] = t
	if c.info != nil {
		c.info.Types[e] = t
	}
	return t
}

func (c *compiler) recordVars(n syntax.Node, vs ...*Var) {
	c.vars[n] = append(c.vars[n], vs...)
	if c.info != nil {
		c.info.Vars[n] = append(c.info.Vars[n], vs...)
	}
}

func (c *compiler) recordUse(n syntax.Node, v *Var) {
	c.uses[n] = v
	if c.info != nil {
		c.info.Uses[n] = v
	}
}

func (c *compiler) recordCall(n *syntax.Call, t *callTarget) {
	c.calls[n] = t
	if c.info != nil && t.method != nil {
		c.info.Calls[n] = t.method
	}
}

// typeOf returns the recorded type of a resolved expression.
func (c *compiler) typeOf(e syntax.Expr) types.Type {
	t, ok := c.types[e]
	if !ok {
		panic(fmt.Sprintf("compile: %s %s has no recorded type", e.Pos(), e.Kind()))
	}
	return t
}
