// Package ir defines the backend contract that lowering targets.
//
// The compile package only talks to these interfaces: it asks a Context for
// types and constants, a Module for functions and global strings, and a
// Builder for instructions. The in-memory implementation lives in package
// ssa; other backends can be plugged in without touching lowering.
package ir

// TypeKind classifies a backend type.
type TypeKind uint8

const (
	VoidKind TypeKind = iota
	IntKind
	FloatKind
	PointerKind
	ArrayKind
	StructKind
	FuncKind
)

var typeKindNames = [...]string{
	VoidKind:    "void",
	IntKind:     "int",
	FloatKind:   "float",
	PointerKind: "pointer",
	ArrayKind:   "array",
	StructKind:  "struct",
	FuncKind:    "func",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// Type is a backend type. Accessors that do not apply to a kind return
// zero values.
type Type interface {
	Kind() TypeKind
	// Bits is the width of an integer or floating-point type.
	Bits() int
	// Elem is the pointee of a pointer or the element of an array.
	Elem() Type
	// Len is the element count of an array.
	Len() int
	NumFields() int
	Field(i int) Type
	// Result, Params and Variadic describe a function type.
	Result() Type
	Params() []Type
	Variadic() bool
	String() string
}

// Value is anything an instruction can consume: instruction results,
// constants, parameters, globals and functions.
type Value interface {
	Type() Type
	String() string
}

// Block is a basic block of a defined function.
type Block interface {
	Name() string
	// Terminated reports whether the block already ends in a branch or return.
	Terminated() bool
}

// Function is a declared or defined function. Its Type is the function type.
type Function interface {
	Value
	Signature() Type
	NumParams() int
	Param(i int) Value
	// IsDeclaration reports whether the function has no body.
	IsDeclaration() bool
	EntryBlock() Block
	// AddBlock appends a new empty block; name is a printing hint.
	AddBlock(name string) Block
}

// Module is a compilation unit's container of functions and globals.
type Module interface {
	Context() Context
	// DeclareFunction returns the external function called name, declaring it on
	// first use.
	DeclareFunction(name string, sig Type) Function
	// DefineFunction creates a function with a body and its entry block.
	DefineFunction(name string, sig Type, params ...string) Function
	Function(name string) (Function, bool)
	// GlobalString returns a pointer to a NUL-terminated private constant.
	GlobalString(name, value string) Value
}

// Context owns types and constants and creates modules and builders.
type Context interface {
	Void() Type
	Int(bits int) Type
	Float() Type
	Double() Type
	PointerTo(elem Type) Type
	ArrayOf(elem Type, n int) Type
	StructOf(fields ...Type) Type
	FuncOf(result Type, params []Type, variadic bool) Type
	// SizeOf returns the allocation size of t in bytes.
	SizeOf(t Type) int64

	ConstInt(t Type, v int64) Value
	ConstFloat(t Type, v float64) Value
	Null(t Type) Value

	NewModule(name string) Module
	NewBuilder() Builder
}

// IntPredicate is a signed integer or pointer comparison.
type IntPredicate uint8

const (
	IntEQ IntPredicate = iota
	IntNE
	IntSLT
	IntSLE
	IntSGT
	IntSGE
)

var intPredicateNames = [...]string{"eq", "ne", "slt", "sle", "sgt", "sge"}

func (p IntPredicate) String() string {
	if int(p) < len(intPredicateNames) {
		return intPredicateNames[p]
	}
	return "unknown"
}

// FloatPredicate is an ordered floating-point comparison.
type FloatPredicate uint8

const (
	FloatOEQ FloatPredicate = iota
	FloatONE
	FloatOLT
	FloatOLE
	FloatOGT
	FloatOGE
)

var floatPredicateNames = [...]string{"oeq", "one", "olt", "ole", "ogt", "oge"}

func (p FloatPredicate) String() string {
	if int(p) < len(floatPredicateNames) {
		return floatPredicateNames[p]
	}
	return "unknown"
}

// Builder appends instructions at the end of its insert block.
type Builder interface {
	SetInsertPoint(b Block)
	InsertBlock() Block

	// Alloca reserves a stack slot for t in the function's entry block.
	// A non-nil count allocates that many consecutive elements.
	Alloca(t Type, count Value, name string) Value
	// Malloc allocates t on the heap and returns a pointer to it.
	Malloc(t Type) Value
	Free(p Value)
	Load(p Value) Value
	Store(v, p Value)
	// ElementPtr indexes an array pointer (*[n x T]) or an element
	// pointer (*T) and returns *T.
	ElementPtr(p, index Value) Value
	FieldPtr(p Value, field int) Value

	Trunc(v Value, t Type) Value
	SExt(v Value, t Type) Value
	// IntCast truncates, sign-extends or returns v unchanged.
	IntCast(v Value, t Type) Value
	FPToSI(v Value, t Type) Value
	SIToFP(v Value, t Type) Value
	FPTrunc(v Value, t Type) Value
	FPExt(v Value, t Type) Value

	Add(x, y Value) Value
	Sub(x, y Value) Value
	Mul(x, y Value) Value
	Div(x, y Value) Value
	Rem(x, y Value) Value
	FAdd(x, y Value) Value
	FSub(x, y Value) Value
	FMul(x, y Value) Value
	FDiv(x, y Value) Value
	FRem(x, y Value) Value
	Neg(x Value) Value
	FNeg(x Value) Value
	Not(x Value) Value
	And(x, y Value) Value
	Or(x, y Value) Value
	ICmp(p IntPredicate, x, y Value) Value
	FCmp(p FloatPredicate, x, y Value) Value

	Br(dest Block)
	CondBr(cond Value, then, els Block)
	Select(cond, x, y Value) Value
	Call(fn Function, args ...Value) Value
	Ret(v Value)
	RetVoid()
}

// IsInt reports whether t is an integer type of the given width, or of any
// width when bits is zero.
func IsInt(t Type, bits int) bool {
	return t.Kind() == IntKind && (bits == 0 || t.Bits() == bits)
}

// IsFloat reports whether t is a float or double.
func IsFloat(t Type) bool { return t.Kind() == FloatKind }

// IsPointer reports whether t is a pointer type.
func IsPointer(t Type) bool { return t.Kind() == PointerKind }
