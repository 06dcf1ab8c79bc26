// Package rtabi defines the names and constants shared between lowered
// programs and the runtime they call into.
package rtabi

import (
	"fmt"
	"strings"
)

// Runtime function names. The C library functions are linked from libc;
// the helpers prefixed with __void_ are generated into each module.
const (
	// I/O
	FnPrintf = "printf"

	// Process control
	FnExit = "exit"

	// Memory allocation
	FnMalloc = "malloc"
	FnFree   = "free"

	// Bounds checking, generated once per module
	FnCheckIndex = "__void_check_index"

	// Integer exponentiation for the ^ operator, generated once per module
	FnPowInt = "__void_pow"
)

// Global string names.
const (
	// GlobalIndexMessage holds the bounds-check diagnostic format.
	GlobalIndexMessage = "__void_index_message"
)

// EntryPoint is the name of the user's main function.
const EntryPoint = "main"

// IndexMessage is the printf format printed by the bounds-check helper
// before it exits with ExitIndexOutOfBounds. Both operands are i64.
const IndexMessage = "index out of bounds: index=%ld, length=%ld\n"

// Process exit codes.
const (
	ExitOK               = 0
	ExitIndexOutOfBounds = 101
)

// FormatIndexError renders IndexMessage for the given operands.
func FormatIndexError(index, length int64) string {
	return fmt.Sprintf(strings.ReplaceAll(IndexMessage, "%ld", "%d"), index, length)
}

// FuncSignature describes a runtime function's signature for code generation.
type FuncSignature struct {
	Name       string   // Function name
	ReturnType string   // LLVM return type ("void", "ptr", etc.)
	ParamTypes []string // LLVM parameter types
	Variadic   bool     // Whether the function takes trailing varargs
	NoReturn   bool     // Whether function has noreturn attribute
}

// String renders the signature as an LLVM declaration.
func (s FuncSignature) String() string {
	params := ""
	for i, p := range s.ParamTypes {
		if i > 0 {
			params += ", "
		}
		params += p
	}
	if s.Variadic {
		if params != "" {
			params += ", "
		}
		params += "..."
	}
	decl := fmt.Sprintf("declare %s @%s(%s)", s.ReturnType, s.Name, params)
	if s.NoReturn {
		decl += " noreturn"
	}
	return decl
}

// RuntimeFunctions returns the signatures of the external runtime functions.
func RuntimeFunctions() []FuncSignature {
	return []FuncSignature{
		// I/O
		{Name: FnPrintf, ReturnType: LLVMTypeInt, ParamTypes: []string{LLVMTypePtr}, Variadic: true},

		// Process control
		{Name: FnExit, ReturnType: "void", ParamTypes: []string{LLVMTypeInt}, NoReturn: true},

		// Memory allocation
		{Name: FnMalloc, ReturnType: LLVMTypePtr, ParamTypes: []string{LLVMTypeSize}},
		{Name: FnFree, ReturnType: "void", ParamTypes: []string{LLVMTypePtr}},
	}
}

// LookupRuntime returns the signature of the named external runtime function.
func LookupRuntime(name string) (FuncSignature, bool) {
	for _, s := range RuntimeFunctions() {
		if s.Name == name {
			return s, true
		}
	}
	return FuncSignature{}, false
}
