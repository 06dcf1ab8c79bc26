// Package interp executes lowered SSA modules directly. It provides the
// C runtime functions a lowered program calls (printf, exit, malloc and
// free) and reports memory faults as errors instead of crashing.
package interp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/ssa"
)

// DefaultStepLimit bounds the number of executed values per run.
const DefaultStepLimit = 50_000_000

// RuntimeError is a fault raised while executing a function.
type RuntimeError struct {
	Func  string
	Block string
	Msg   string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s, %s: %s", e.Func, e.Block, e.Msg)
}

// exitError unwinds the interpreter when the program calls exit.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Interpreter runs the functions of one module. It is not safe for
// concurrent use.
type Interpreter struct {
	m       *ssa.Module
	linked  []*ssa.Module
	mem     *memory
	globals map[*ssa.Global]uint64
	out     io.Writer
	log     *zap.Logger
	limit   int64
	steps   int64
	depth   int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout sets the destination of printf output.
func WithStdout(w io.Writer) Option { return func(in *Interpreter) { in.out = w } }

// WithLogger logs calls at debug level.
func WithLogger(l *zap.Logger) Option { return func(in *Interpreter) { in.log = l } }

// WithStepLimit overrides DefaultStepLimit.
func WithStepLimit(n int64) Option { return func(in *Interpreter) { in.limit = n } }

// WithModules links further modules: calls to functions that m only
// declares run the definition found in mods.
func WithModules(mods ...*ssa.Module) Option {
	return func(in *Interpreter) { in.linked = append(in.linked, mods...) }
}

// New returns an interpreter for m.
func New(m *ssa.Module, opts ...Option) *Interpreter {
	in := &Interpreter{
		m:       m,
		mem:     newMemory(),
		globals: make(map[*ssa.Global]uint64),
		out:     os.Stdout,
		log:     zap.NewNop(),
		limit:   DefaultStepLimit,
	}
	for _, o := range opts {
		o(in)
	}
	return in
}

// Run executes the module's main function and returns the process exit
// code: main's result, or the argument passed to exit.
func Run(m *ssa.Module, opts ...Option) (int, error) {
	return New(m, opts...).Run()
}

// Run executes main.
func (in *Interpreter) Run() (int, error) {
	main := in.m.Func(rtabi.EntryPoint)
	if main == nil || main.IsDeclaration() {
		return 0, fmt.Errorf("module %s has no %s function", in.m.Name, rtabi.EntryPoint)
	}
	if main.NumParams() != 0 {
		return 0, fmt.Errorf("%s must not take parameters", rtabi.EntryPoint)
	}
	r, err := in.Call(rtabi.EntryPoint)
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code, nil
	}
	if err != nil {
		return 0, err
	}
	if main.Sig.Result().Kind() == ir.VoidKind {
		return rtabi.ExitOK, nil
	}
	return int(int32(r)), nil
}

// Call invokes the named function with integer arguments and returns its
// result in register form.
func (in *Interpreter) Call(name string, args ...int64) (uint64, error) {
	f := in.m.Func(name)
	if f == nil {
		return 0, fmt.Errorf("no function %s", name)
	}
	regs := make([]uint64, len(args))
	for i, a := range args {
		regs[i] = uint64(a)
	}
	return in.call(f, regs)
}

// resolve returns the linked definition of a declared function, or f.
func (in *Interpreter) resolve(f *ssa.Func) *ssa.Func {
	if !f.IsDeclaration() {
		return f
	}
	for _, m := range in.linked {
		if d := m.Func(f.Name); d != nil && !d.IsDeclaration() {
			return d
		}
	}
	return f
}

func (in *Interpreter) call(f *ssa.Func, args []uint64) (uint64, error) {
	f = in.resolve(f)
	if f.IsDeclaration() {
		return in.external(f, args)
	}
	if len(args) != f.NumParams() {
		return 0, fmt.Errorf("%s: got %d arguments, want %d", f.Name, len(args), f.NumParams())
	}
	in.depth++
	defer func() { in.depth-- }()
	if in.depth > 10_000 {
		return 0, &RuntimeError{Func: f.Name, Block: f.Entry.String(), Msg: "stack overflow"}
	}
	in.log.Debug("call", zap.String("func", f.Name), zap.Int("depth", in.depth))

	fr := &frame{in: in, f: f, regs: make(map[*ssa.Value]uint64)}
	defer func() { in.mem.release(fr.stack) }()
	for i, p := range f.Params {
		if p.Typ.Kind() == ir.IntKind {
			fr.regs[p] = wrapBits(args[i], p.Typ.Bits())
		} else {
			fr.regs[p] = args[i]
		}
	}
	return fr.run()
}

// frame is one function activation.
type frame struct {
	in    *Interpreter
	f     *ssa.Func
	regs  map[*ssa.Value]uint64
	stack []uint64
	b     *ssa.Block
}

func (fr *frame) fault(format string, args ...interface{}) error {
	return &RuntimeError{Func: fr.f.Name, Block: fr.b.String(), Msg: fmt.Sprintf(format, args...)}
}

func (fr *frame) run() (uint64, error) {
	var prev *ssa.Block
	fr.b = fr.f.Entry
	for {
		b := fr.b
		if err := fr.phis(prev); err != nil {
			return 0, err
		}
		for _, v := range b.Values {
			if v.Op == ssa.OpPhi || v.Op == ssa.OpArg {
				// phis are assigned on entry, args by call
				continue
			}
			fr.in.steps++
			if fr.in.steps > fr.in.limit {
				return 0, fr.fault("step limit %d exceeded", fr.in.limit)
			}
			if err := fr.exec(v); err != nil {
				var exit *exitError
				if errors.As(err, &exit) {
					return 0, err
				}
				var rt *RuntimeError
				if errors.As(err, &rt) {
					return 0, err
				}
				return 0, fr.fault("%s: %v", v.LongString(), err)
			}
		}

		switch b.Kind {
		case ssa.BlockReturn:
			if len(b.Controls) == 0 || b.Controls[0] == nil {
				return 0, nil
			}
			return fr.get(b.Controls[0]), nil
		case ssa.BlockIf:
			prev = b
			if fr.get(b.Controls[0]) != 0 {
				fr.b = b.Succs[0]
			} else {
				fr.b = b.Succs[1]
			}
		case ssa.BlockPlain:
			if len(b.Succs) == 0 {
				return 0, fr.fault("fell off the end of the function")
			}
			prev = b
			fr.b = b.Succs[0]
		default:
			return 0, fr.fault("invalid block kind %s", b.Kind)
		}
	}
}

// phis assigns every phi of the current block at once, reading the values
// that flowed in from prev.
func (fr *frame) phis(prev *ssa.Block) error {
	b := fr.b
	var vals []uint64
	var phis []*ssa.Value
	for _, v := range b.Values {
		if v.Op != ssa.OpPhi {
			continue
		}
		idx := -1
		for i, p := range b.Preds {
			if p == prev {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fr.fault("phi %s entered from non-predecessor", v)
		}
		phis = append(phis, v)
		vals = append(vals, fr.get(v.Args[idx]))
	}
	for i, v := range phis {
		fr.regs[v] = vals[i]
	}
	return nil
}

// get returns the register form of v.
func (fr *frame) get(v *ssa.Value) uint64 {
	switch v.Op {
	case ssa.OpConstInt:
		return wrapBits(uint64(v.AuxInt), v.Typ.Bits())
	case ssa.OpConstFloat:
		return fromFloat(v.AuxFloat, v.Typ.Bits())
	case ssa.OpConstNull:
		return 0
	case ssa.OpGlobal:
		return fr.in.global(v.Aux.(*ssa.Global))
	}
	return fr.regs[v]
}

func (in *Interpreter) global(g *ssa.Global) uint64 {
	if a, ok := in.globals[g]; ok {
		return a
	}
	a, _ := in.mem.alloc(int64(len(g.Data))+1, segGlobal)
	b, _ := in.mem.bytes(a, int64(len(g.Data)))
	copy(b, g.Data)
	in.globals[g] = a
	return a
}

func (fr *frame) exec(v *ssa.Value) error {
	mem := fr.in.mem
	arg := func(i int) uint64 { return fr.get(v.Args[i]) }
	set := func(x uint64) { fr.regs[v] = x }

	switch v.Op {
	// Memory
	case ssa.OpAlloca:
		n := int64(1)
		if len(v.Args) > 0 {
			n = signed(arg(0))
			if n < 0 {
				return fmt.Errorf("negative stack allocation count %d", n)
			}
		}
		a, err := mem.alloc(n*ssa.Sizeof(v.Typ.ElemType()), segStack)
		if err != nil {
			return err
		}
		fr.stack = append(fr.stack, a)
		set(a)
	case ssa.OpMalloc:
		a, err := mem.alloc(v.AuxInt, segHeap)
		if err != nil {
			return err
		}
		set(a)
	case ssa.OpFree:
		return mem.free(arg(0))
	case ssa.OpLoad:
		x, err := mem.load(arg(0), v.Typ)
		if err != nil {
			return err
		}
		set(x)
	case ssa.OpStore:
		return mem.store(arg(0), v.Args[1].Typ, arg(1))
	case ssa.OpElemPtr:
		set(arg(0) + uint64(signed(arg(1))*ssa.Sizeof(v.Typ.ElemType())))
	case ssa.OpFieldPtr:
		set(arg(0) + uint64(ssa.Offsetof(v.Args[0].Typ.ElemType(), int(v.AuxInt))))

	// Conversion
	case ssa.OpTrunc, ssa.OpSExt:
		set(wrapBits(arg(0), v.Typ.Bits()))
	case ssa.OpZExt:
		set(zextBits(arg(0), v.Args[0].Typ.Bits()))
	case ssa.OpFPToSI:
		f := toFloat(arg(0))
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("float %v out of integer range", f)
		}
		set(wrapBits(uint64(int64(f)), v.Typ.Bits()))
	case ssa.OpSIToFP:
		set(fromFloat(float64(signed(arg(0))), v.Typ.Bits()))
	case ssa.OpFPTrunc, ssa.OpFPExt:
		set(fromFloat(toFloat(arg(0)), v.Typ.Bits()))

	// Integer arithmetic
	case ssa.OpAdd:
		set(wrapBits(arg(0)+arg(1), v.Typ.Bits()))
	case ssa.OpSub:
		set(wrapBits(arg(0)-arg(1), v.Typ.Bits()))
	case ssa.OpMul:
		set(wrapBits(arg(0)*arg(1), v.Typ.Bits()))
	case ssa.OpDiv, ssa.OpRem:
		x, y := signed(arg(0)), signed(arg(1))
		if y == 0 {
			return fmt.Errorf("integer divide by zero")
		}
		if v.Op == ssa.OpDiv {
			set(wrapBits(uint64(x/y), v.Typ.Bits()))
		} else {
			set(wrapBits(uint64(x%y), v.Typ.Bits()))
		}
	case ssa.OpNeg:
		set(wrapBits(-arg(0), v.Typ.Bits()))
	case ssa.OpNot:
		set(wrapBits(^arg(0), v.Typ.Bits()))
	case ssa.OpAnd:
		set(arg(0) & arg(1))
	case ssa.OpOr:
		set(arg(0) | arg(1))

	// Float arithmetic
	case ssa.OpFAdd:
		set(fromFloat(toFloat(arg(0))+toFloat(arg(1)), v.Typ.Bits()))
	case ssa.OpFSub:
		set(fromFloat(toFloat(arg(0))-toFloat(arg(1)), v.Typ.Bits()))
	case ssa.OpFMul:
		set(fromFloat(toFloat(arg(0))*toFloat(arg(1)), v.Typ.Bits()))
	case ssa.OpFDiv:
		set(fromFloat(toFloat(arg(0))/toFloat(arg(1)), v.Typ.Bits()))
	case ssa.OpFRem:
		set(fromFloat(math.Mod(toFloat(arg(0)), toFloat(arg(1))), v.Typ.Bits()))
	case ssa.OpFNeg:
		set(fromFloat(-toFloat(arg(0)), v.Typ.Bits()))

	// Comparison
	case ssa.OpICmp:
		set(boolBit(icmp(ir.IntPredicate(v.AuxInt), signed(arg(0)), signed(arg(1)))))
	case ssa.OpFCmp:
		set(boolBit(fcmp(ir.FloatPredicate(v.AuxInt), toFloat(arg(0)), toFloat(arg(1)))))

	case ssa.OpSelect:
		if arg(0) != 0 {
			set(arg(1))
		} else {
			set(arg(2))
		}

	case ssa.OpCall:
		args := make([]uint64, len(v.Args))
		for i := range v.Args {
			args[i] = arg(i)
		}
		callee := fr.in.resolve(v.Aux.(*ssa.Func))
		var r uint64
		var err error
		if callee.IsDeclaration() {
			r, err = fr.in.external(callee, args, argTypes(v)...)
		} else {
			r, err = fr.in.call(callee, args)
		}
		if err != nil {
			return err
		}
		set(r)

	default:
		return fmt.Errorf("unsupported op %s", v.Op)
	}
	return nil
}

func argTypes(v *ssa.Value) []*ssa.Type {
	ts := make([]*ssa.Type, len(v.Args))
	for i, a := range v.Args {
		ts[i] = a.Typ
	}
	return ts
}

func icmp(p ir.IntPredicate, x, y int64) bool {
	switch p {
	case ir.IntEQ:
		return x == y
	case ir.IntNE:
		return x != y
	case ir.IntSLT:
		return x < y
	case ir.IntSLE:
		return x <= y
	case ir.IntSGT:
		return x > y
	case ir.IntSGE:
		return x >= y
	}
	return false
}

// fcmp implements the ordered predicates: any NaN operand yields false.
func fcmp(p ir.FloatPredicate, x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	switch p {
	case ir.FloatOEQ:
		return x == y
	case ir.FloatONE:
		return x != y
	case ir.FloatOLT:
		return x < y
	case ir.FloatOLE:
		return x <= y
	case ir.FloatOGT:
		return x > y
	case ir.FloatOGE:
		return x >= y
	}
	return false
}
