package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/ssa"
)

// lowerDecl emits the declaration of an external function.
func (g *generator) lowerDecl(fn *ssa.Func) {
	params := llvmParamTypes(fn.Sig)
	if fn.Sig.Variadic() {
		params = append(params, "...")
	}
	decl := fmt.Sprintf("declare %s @%s(%s)", llvmReturnType(fn.Sig), fn.Name, strings.Join(params, ", "))
	if sig, ok := rtabi.LookupRuntime(fn.Name); ok && sig.NoReturn {
		decl += " noreturn"
	}
	g.e.emit("%s", decl)
}

// lowerFunc emits the LLVM IR for a single SSA function.
func (g *generator) lowerFunc(fn *ssa.Func) {
	params := llvmParamTypes(fn.Sig)
	for i := range params {
		params[i] += " " + argName(int64(i))
	}
	if fn.Sig.Variadic() {
		params = append(params, "...")
	}

	g.e.emit("define %s @%s(%s) {", llvmReturnType(fn.Sig), fn.Name, strings.Join(params, ", "))
	for i, b := range fn.Blocks {
		if i > 0 {
			g.e.emitLine()
		}
		g.lowerBlock(b)
	}
	g.e.emit("}")
}

// lowerBlock emits the LLVM IR for a single basic block.
func (g *generator) lowerBlock(b *ssa.Block) {
	g.e.emitLabel(b)
	for _, v := range b.Values {
		g.lowerValue(v)
	}
	g.lowerTerminator(b)
}

// lowerValue emits the LLVM IR for a single SSA value.
func (g *generator) lowerValue(v *ssa.Value) {
	switch v.Op {
	// Parameters are referenced by name; no instruction emitted.
	case ssa.OpArg:
		return

	// Memory
	case ssa.OpAlloca:
		if len(v.Args) > 0 {
			n := v.Args[0]
			g.e.emitInst("%s = alloca %s, %s %s", valueName(v), llvmType(pointee(v)), llvmType(n.Typ), g.operand(n))
		} else {
			g.e.emitInst("%s = alloca %s", valueName(v), llvmType(pointee(v)))
		}
	case ssa.OpMalloc:
		g.e.emitInst("%s = call ptr @%s(%s %d)", valueName(v), rtabi.FnMalloc, rtabi.LLVMTypeSize, v.AuxInt)
	case ssa.OpFree:
		g.e.emitInst("call void @%s(ptr %s)", rtabi.FnFree, g.operand(v.Args[0]))
	case ssa.OpLoad:
		g.e.emitInst("%s = load %s, ptr %s", valueName(v), llvmType(v.Typ), g.operand(v.Args[0]))
	case ssa.OpStore:
		val := v.Args[1]
		g.e.emitInst("store %s %s, ptr %s", llvmType(val.Typ), g.operand(val), g.operand(v.Args[0]))
	case ssa.OpElemPtr:
		g.lowerElemPtr(v)
	case ssa.OpFieldPtr:
		g.e.emitInst("%s = getelementptr %s, ptr %s, i32 0, i32 %d",
			valueName(v), llvmType(pointee(v.Args[0])), g.operand(v.Args[0]), v.AuxInt)

	// Conversion
	case ssa.OpTrunc:
		g.emitConv("trunc", v)
	case ssa.OpSExt:
		g.emitConv("sext", v)
	case ssa.OpZExt:
		g.emitConv("zext", v)
	case ssa.OpFPToSI:
		g.emitConv("fptosi", v)
	case ssa.OpSIToFP:
		g.emitConv("sitofp", v)
	case ssa.OpFPTrunc:
		g.emitConv("fptrunc", v)
	case ssa.OpFPExt:
		g.emitConv("fpext", v)

	// Integer arithmetic
	case ssa.OpAdd:
		g.emitBinOp("add", v)
	case ssa.OpSub:
		g.emitBinOp("sub", v)
	case ssa.OpMul:
		g.emitBinOp("mul", v)
	case ssa.OpDiv:
		g.emitBinOp("sdiv", v)
	case ssa.OpRem:
		g.emitBinOp("srem", v)
	case ssa.OpNeg:
		g.e.emitInst("%s = sub %s 0, %s", valueName(v), llvmType(v.Typ), g.operand(v.Args[0]))

	// Float arithmetic
	case ssa.OpFAdd:
		g.emitBinOp("fadd", v)
	case ssa.OpFSub:
		g.emitBinOp("fsub", v)
	case ssa.OpFMul:
		g.emitBinOp("fmul", v)
	case ssa.OpFDiv:
		g.emitBinOp("fdiv", v)
	case ssa.OpFRem:
		g.emitBinOp("frem", v)
	case ssa.OpFNeg:
		g.e.emitInst("%s = fneg %s %s", valueName(v), llvmType(v.Typ), g.operand(v.Args[0]))

	// Bitwise / boolean
	case ssa.OpNot:
		ones := "-1"
		if v.Typ.Bits() == 1 {
			ones = "true"
		}
		g.e.emitInst("%s = xor %s %s, %s", valueName(v), llvmType(v.Typ), g.operand(v.Args[0]), ones)
	case ssa.OpAnd:
		g.emitBinOp("and", v)
	case ssa.OpOr:
		g.emitBinOp("or", v)

	// Comparison
	case ssa.OpICmp:
		g.emitCmp("icmp", ir.IntPredicate(v.AuxInt).String(), v)
	case ssa.OpFCmp:
		g.emitCmp("fcmp", ir.FloatPredicate(v.AuxInt).String(), v)

	case ssa.OpSelect:
		t := llvmType(v.Typ)
		g.e.emitInst("%s = select i1 %s, %s %s, %s %s", valueName(v),
			g.operand(v.Args[0]), t, g.operand(v.Args[1]), t, g.operand(v.Args[2]))

	// SSA
	case ssa.OpPhi:
		g.lowerPhi(v)

	// Calls
	case ssa.OpCall:
		g.lowerCall(v)

	default:
		g.e.emitInst("; unhandled op %s", v.Op)
	}
}

// lowerTerminator emits the block terminator instruction.
func (g *generator) lowerTerminator(b *ssa.Block) {
	switch b.Kind {
	case ssa.BlockPlain:
		if len(b.Succs) > 0 {
			g.e.emitInst("br label %%%s", blockName(b.Succs[0]))
		} else {
			g.e.emitInst("unreachable")
		}
	case ssa.BlockIf:
		g.e.emitInst("br i1 %s, label %%%s, label %%%s",
			g.operand(b.Controls[0]), blockName(b.Succs[0]), blockName(b.Succs[1]))
	case ssa.BlockReturn:
		if len(b.Controls) > 0 && b.Controls[0] != nil {
			ret := b.Controls[0]
			g.e.emitInst("ret %s %s", llvmType(ret.Typ), g.operand(ret))
		} else {
			g.e.emitInst("ret void")
		}
	default:
		g.e.emitInst("; unknown block kind")
		g.e.emitInst("unreachable")
	}
}

// operand returns the LLVM IR operand string for an SSA value.
// Constants are inlined, others use their %vN name.
func (g *generator) operand(v *ssa.Value) string {
	switch v.Op {
	case ssa.OpConstInt:
		if v.Typ.Bits() == 1 {
			return strconv.FormatBool(v.AuxInt != 0)
		}
		return strconv.FormatInt(v.AuxInt, 10)
	case ssa.OpConstFloat:
		if v.Typ.Bits() == 32 {
			return formatFloat(float64(float32(v.AuxFloat)))
		}
		return formatFloat(v.AuxFloat)
	case ssa.OpConstNull:
		return "null"
	case ssa.OpGlobal:
		return "@" + v.Aux.(*ssa.Global).Name
	case ssa.OpArg:
		return argName(v.AuxInt)
	}
	return valueName(v)
}

// emitBinOp emits a binary operation instruction.
func (g *generator) emitBinOp(inst string, v *ssa.Value) {
	g.e.emitInst("%s = %s %s %s, %s", valueName(v), inst, llvmType(v.Typ), g.operand(v.Args[0]), g.operand(v.Args[1]))
}

// emitCmp emits an integer or floating-point comparison. The operand
// type, not the i1 result, names the instruction type.
func (g *generator) emitCmp(inst, pred string, v *ssa.Value) {
	g.e.emitInst("%s = %s %s %s %s, %s", valueName(v), inst, pred,
		llvmType(v.Args[0].Typ), g.operand(v.Args[0]), g.operand(v.Args[1]))
}

// emitConv emits a conversion instruction.
func (g *generator) emitConv(inst string, v *ssa.Value) {
	x := v.Args[0]
	g.e.emitInst("%s = %s %s %s to %s", valueName(v), inst, llvmType(x.Typ), g.operand(x), llvmType(v.Typ))
}

// lowerElemPtr indexes either into an array object ([n x T]*) or from a
// pointer to its first element (T*).
func (g *generator) lowerElemPtr(v *ssa.Value) {
	base, idx := v.Args[0], v.Args[1]
	elem := pointee(base)
	if elem.Kind() == ir.ArrayKind {
		g.e.emitInst("%s = getelementptr %s, ptr %s, i64 0, %s %s",
			valueName(v), llvmType(elem), g.operand(base), llvmType(idx.Typ), g.operand(idx))
		return
	}
	g.e.emitInst("%s = getelementptr %s, ptr %s, %s %s",
		valueName(v), llvmType(elem), g.operand(base), llvmType(idx.Typ), g.operand(idx))
}

// lowerPhi emits a phi node.
func (g *generator) lowerPhi(v *ssa.Value) {
	parts := make([]string, len(v.Args))
	for i, arg := range v.Args {
		pred := v.Block.Preds[i]
		parts[i] = fmt.Sprintf("[ %s, %%%s ]", g.operand(arg), blockName(pred))
	}
	g.e.emitInst("%s = phi %s %s", valueName(v), llvmType(v.Typ), strings.Join(parts, ", "))
}

// lowerCall emits a direct function call.
func (g *generator) lowerCall(v *ssa.Value) {
	callee := v.Aux.(*ssa.Func)
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = llvmType(a.Typ) + " " + g.operand(a)
	}

	// Variadic callees need the full function type at the call site.
	calleeType := llvmReturnType(callee.Sig)
	if callee.Sig.Variadic() {
		calleeType = llvmFuncType(callee.Sig)
	}

	if v.Typ.IsVoid() {
		g.e.emitInst("call %s @%s(%s)", calleeType, callee.Name, strings.Join(args, ", "))
		return
	}
	g.e.emitInst("%s = call %s @%s(%s)", valueName(v), calleeType, callee.Name, strings.Join(args, ", "))
}

// formatFloat formats a float64 as an LLVM IR floating-point literal.
// The hex form is exact for every value, including non-finite ones.
func formatFloat(f float64) string {
	return fmt.Sprintf("0x%016X", math.Float64bits(f))
}

// llvmEscapeString returns an LLVM IR escaped string literal.
// Non-printable characters and backslash are escaped as \HH.
func llvmEscapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '"' || c < 0x20 || c >= 0x7f {
			fmt.Fprintf(&b, "\\%02X", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}
