package codegen

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/ssa"
)

// llvmType maps a backend type to its LLVM IR type string. Pointers are
// opaque.
func llvmType(t *ssa.Type) string {
	if t == nil {
		return "void"
	}
	switch t.Kind() {
	case ir.IntKind:
		return fmt.Sprintf("i%d", t.Bits())
	case ir.FloatKind:
		if t.Bits() == 32 {
			return "float"
		}
		return "double"
	case ir.PointerKind, ir.FuncKind:
		return rtabi.LLVMTypePtr
	case ir.ArrayKind:
		return fmt.Sprintf("[%d x %s]", t.Len(), llvmType(t.ElemType()))
	case ir.StructKind:
		return llvmStructType(t)
	}
	return "void"
}

// llvmStructType returns the LLVM literal struct type.
func llvmStructType(t *ssa.Type) string {
	if t.NumFields() == 0 {
		return "{}"
	}
	parts := make([]string, t.NumFields())
	for i := range parts {
		parts[i] = llvmType(t.Field(i).(*ssa.Type))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// llvmReturnType returns the LLVM return type for a function signature.
func llvmReturnType(sig *ssa.Type) string {
	return llvmType(sig.Result().(*ssa.Type))
}

// llvmFuncType returns the function type used at call sites of variadic
// callees, e.g. "i32 (ptr, ...)".
func llvmFuncType(sig *ssa.Type) string {
	params := llvmParamTypes(sig)
	if sig.Variadic() {
		params = append(params, "...")
	}
	return fmt.Sprintf("%s (%s)", llvmReturnType(sig), strings.Join(params, ", "))
}

func llvmParamTypes(sig *ssa.Type) []string {
	ps := sig.Params()
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = llvmType(p.(*ssa.Type))
	}
	return out
}

// pointee returns the type a pointer value points to.
func pointee(v *ssa.Value) *ssa.Type {
	if v.Typ == nil || v.Typ.ElemType() == nil {
		return nil
	}
	return v.Typ.ElemType()
}
