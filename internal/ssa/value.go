package ssa

import (
	"fmt"
	"strconv"

	"github.com/you-not-fish/voidc/internal/ir"
)

// ID is a unique identifier for Values and Blocks within a Func.
type ID int32

// Value represents a single SSA computation.
// Each Value has exactly one definition and may be used by other Values.
type Value struct {
	// ID is a unique identifier within the containing Func; -1 for
	// constants and globals.
	ID ID

	// Op is the operation this value computes.
	Op Op

	// Typ is the result type of this value; void for void operations.
	Typ *Type

	// Args are the input values to this operation.
	Args []*Value

	// Block is the basic block that contains this value; nil for constants
	// and globals.
	Block *Block

	// AuxInt holds an auxiliary integer (constant value, field index, predicate).
	AuxInt int64

	// AuxFloat holds an auxiliary float (for OpConstFloat).
	AuxFloat float64

	// Aux holds arbitrary auxiliary data (name, *Func, *Global).
	Aux interface{}

	// Uses tracks the number of references to this value.
	// Used by dead value elimination.
	Uses int32
}

var _ ir.Value = (*Value)(nil)

// Type returns the result type of v.
func (v *Value) Type() ir.Type { return v.Typ }

// String returns a short operand rendering: constants print their value,
// globals their name, everything else "vN".
func (v *Value) String() string {
	switch v.Op {
	case OpConstInt:
		if v.Typ.bits == 1 {
			return strconv.FormatBool(v.AuxInt != 0)
		}
		return strconv.FormatInt(v.AuxInt, 10)
	case OpConstFloat:
		return strconv.FormatFloat(v.AuxFloat, 'g', -1, 64)
	case OpConstNull:
		return "null"
	case OpGlobal:
		return "@" + v.Aux.(*Global).Name
	}
	return fmt.Sprintf("v%d", v.ID)
}

// LongString returns a detailed string representation including op, type, and args.
func (v *Value) LongString() string {
	return formatValue(v)
}

// AddArg appends a value to the argument list and increments the arg's use count.
func (v *Value) AddArg(arg *Value) {
	v.Args = append(v.Args, arg)
	arg.Uses++
}

// SetArgs replaces the argument list, adjusting use counts.
func (v *Value) SetArgs(args []*Value) {
	for _, old := range v.Args {
		if old != nil {
			old.Uses--
		}
	}
	v.Args = args
	for _, arg := range args {
		if arg != nil {
			arg.Uses++
		}
	}
}

// ReplaceArg replaces the argument at index i, adjusting use counts.
func (v *Value) ReplaceArg(i int, new *Value) {
	if old := v.Args[i]; old != nil {
		old.Uses--
	}
	v.Args[i] = new
	new.Uses++
}

// IsPure returns true if this value's op has no side effects.
func (v *Value) IsPure() bool {
	return v.Op.IsPure()
}

// Zero returns the zero constant of a scalar type.
func Zero(t *Type) *Value {
	switch t.kind {
	case ir.FloatKind:
		return &Value{ID: -1, Op: OpConstFloat, Typ: t}
	case ir.PointerKind:
		return &Value{ID: -1, Op: OpConstNull, Typ: t}
	}
	return &Value{ID: -1, Op: OpConstInt, Typ: t}
}

// val converts an ir.Value produced by this package back to *Value.
func val(x ir.Value) *Value {
	switch x := x.(type) {
	case *Value:
		return x
	case nil:
		return nil
	}
	panic(fmt.Sprintf("ssa: foreign value %T", x))
}
