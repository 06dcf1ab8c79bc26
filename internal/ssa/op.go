// Package ssa implements the in-memory SSA backend behind package ir.
package ssa

// Op represents an SSA operation code.
type Op int

const (
	OpInvalid Op = iota

	// Constants and globals live outside any block.
	OpConstInt   // integer constant; AuxInt = value
	OpConstFloat // float constant; AuxFloat = value
	OpConstNull  // null pointer
	OpGlobal     // address of a module global; Aux = *Global

	OpArg // function parameter; AuxInt = index; Aux = name

	// Memory
	OpAlloca   // stack slot; Type = *T; Aux = name; Args[0] = optional count
	OpMalloc   // heap allocation; Type = *T
	OpFree     // Args[0] = pointer; void
	OpLoad     // Args[0] = pointer
	OpStore    // Args[0] = pointer, Args[1] = value; void
	OpElemPtr  // &p[i]; Args[0] = pointer, Args[1] = index
	OpFieldPtr // &p.field; Args[0] = struct pointer; AuxInt = field index

	// Conversion
	OpTrunc
	OpSExt
	OpZExt // from i1 only
	OpFPToSI
	OpSIToFP
	OpFPTrunc
	OpFPExt

	// Integer arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg

	// Float arithmetic
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFRem
	OpFNeg

	// Bitwise on i1 and integers
	OpNot
	OpAnd
	OpOr

	// Comparison
	OpICmp // AuxInt = ir.IntPredicate
	OpFCmp // AuxInt = ir.FloatPredicate

	OpSelect // Args = cond, then, else
	OpCall   // direct call; Aux = *Func; Args = arguments
	OpPhi    // Args = one per predecessor

	opCount // sentinel; must be last
)

// OpInfo holds metadata about an SSA operation.
type OpInfo struct {
	Name   string // human-readable name
	IsPure bool   // true if the op has no side effects and can be removed when unused
	IsVoid bool   // true if the op produces no value
}

var opInfoTable = [opCount]OpInfo{
	OpInvalid: {Name: "Invalid"},

	OpConstInt:   {Name: "ConstInt", IsPure: true},
	OpConstFloat: {Name: "ConstFloat", IsPure: true},
	OpConstNull:  {Name: "ConstNull", IsPure: true},
	OpGlobal:     {Name: "Global", IsPure: true},

	OpArg: {Name: "Arg", IsPure: true},

	// Allocas are pure: an unused slot can be dropped.
	OpAlloca:   {Name: "Alloca", IsPure: true},
	OpMalloc:   {Name: "Malloc"},
	OpFree:     {Name: "Free", IsVoid: true},
	OpLoad:     {Name: "Load"},
	OpStore:    {Name: "Store", IsVoid: true},
	OpElemPtr:  {Name: "ElemPtr", IsPure: true},
	OpFieldPtr: {Name: "FieldPtr", IsPure: true},

	OpTrunc:   {Name: "Trunc", IsPure: true},
	OpSExt:    {Name: "SExt", IsPure: true},
	OpZExt:    {Name: "ZExt", IsPure: true},
	OpFPToSI:  {Name: "FPToSI", IsPure: true},
	OpSIToFP:  {Name: "SIToFP", IsPure: true},
	OpFPTrunc: {Name: "FPTrunc", IsPure: true},
	OpFPExt:   {Name: "FPExt", IsPure: true},

	OpAdd: {Name: "Add", IsPure: true},
	OpSub: {Name: "Sub", IsPure: true},
	OpMul: {Name: "Mul", IsPure: true},
	// Division may trap, so it is kept even when unused.
	OpDiv: {Name: "Div"},
	OpRem: {Name: "Rem"},
	OpNeg: {Name: "Neg", IsPure: true},

	OpFAdd: {Name: "FAdd", IsPure: true},
	OpFSub: {Name: "FSub", IsPure: true},
	OpFMul: {Name: "FMul", IsPure: true},
	OpFDiv: {Name: "FDiv", IsPure: true},
	OpFRem: {Name: "FRem", IsPure: true},
	OpFNeg: {Name: "FNeg", IsPure: true},

	OpNot: {Name: "Not", IsPure: true},
	OpAnd: {Name: "And", IsPure: true},
	OpOr:  {Name: "Or", IsPure: true},

	OpICmp: {Name: "ICmp", IsPure: true},
	OpFCmp: {Name: "FCmp", IsPure: true},

	OpSelect: {Name: "Select", IsPure: true},
	OpCall:   {Name: "Call"},
	OpPhi:    {Name: "Phi", IsPure: true},
}

// String returns the human-readable name of the op.
func (o Op) String() string {
	return o.Info().Name
}

// Info returns the OpInfo for this op.
func (o Op) Info() OpInfo {
	if o >= 0 && int(o) < len(opInfoTable) {
		return opInfoTable[o]
	}
	return OpInfo{Name: "unknown"}
}

// IsPure returns true if this op has no side effects.
func (o Op) IsPure() bool { return o.Info().IsPure }

// IsVoid returns true if this op produces no value.
func (o Op) IsVoid() bool { return o.Info().IsVoid }

// IsConst reports whether values of this op live outside any block.
func (o Op) IsConst() bool {
	switch o {
	case OpConstInt, OpConstFloat, OpConstNull, OpGlobal:
		return true
	}
	return false
}
