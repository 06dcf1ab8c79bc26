package ssa

import (
	"github.com/you-not-fish/voidc/internal/ir"
)

// Func represents an SSA function.
// It contains a control flow graph of Blocks, each containing Values.
// A Func without blocks is an external declaration.
type Func struct {
	// Name is the function name.
	Name string

	// Sig is the function type.
	Sig *Type

	// Params holds one OpArg value per parameter, in the entry block.
	Params []*Value

	// Blocks is the list of basic blocks. Blocks[0] is always the entry block.
	Blocks []*Block

	// Entry is the entry block (same as Blocks[0]); nil for declarations.
	Entry *Block

	// Module is the containing module.
	Module *Module

	// nextValueID is the next available value ID.
	nextValueID ID

	// nextBlockID is the next available block ID.
	nextBlockID ID
}

var _ ir.Function = (*Func)(nil)

// NewFunc creates a new SSA function with the given name and signature.
// An entry block and one OpArg value per parameter are created.
func NewFunc(name string, sig *Type, paramNames ...string) *Func {
	f := &Func{Name: name, Sig: sig}
	f.define(paramNames)
	return f
}

// define gives a declaration its entry block and parameters.
func (f *Func) define(paramNames []string) {
	f.Entry = f.NewBlock(BlockPlain)
	f.Entry.Hint = "entry"
	for i, pt := range f.Sig.params {
		arg := f.NewValue(f.Entry, OpArg, pt)
		arg.AuxInt = int64(i)
		if i < len(paramNames) {
			arg.Aux = paramNames[i]
		}
		f.Params = append(f.Params, arg)
	}
}

// NewBlock creates a new basic block with the given kind and appends it to the function.
func (f *Func) NewBlock(kind BlockKind) *Block {
	b := &Block{
		ID:   f.nextBlockID,
		Kind: kind,
		Func: f,
	}
	f.nextBlockID++
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewValue creates a new Value in the given block.
func (f *Func) NewValue(b *Block, op Op, typ *Type, args ...*Value) *Value {
	v := f.newValue(b, op, typ, args)
	b.Values = append(b.Values, v)
	return v
}

// NewValueAtFront creates a new Value at the start of the given block.
func (f *Func) NewValueAtFront(b *Block, op Op, typ *Type, args ...*Value) *Value {
	v := f.newValue(b, op, typ, args)
	b.Values = append([]*Value{v}, b.Values...)
	return v
}

func (f *Func) newValue(b *Block, op Op, typ *Type, args []*Value) *Value {
	v := &Value{
		ID:    f.nextValueID,
		Op:    op,
		Typ:   typ,
		Block: b,
	}
	f.nextValueID++
	for _, arg := range args {
		v.AddArg(arg)
	}
	return v
}

// ReplaceUses rewrites every use of old (as an argument or a control
// value) to new.
func (f *Func) ReplaceUses(old, new *Value) {
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			for i, a := range v.Args {
				if a == old {
					v.ReplaceArg(i, new)
				}
			}
		}
		for i, c := range b.Controls {
			if c == old {
				old.Uses--
				b.Controls[i] = new
				new.Uses++
			}
		}
	}
}

// NumBlocks returns the number of blocks in the function.
func (f *Func) NumBlocks() int { return len(f.Blocks) }

// NumValues returns the total number of values across all blocks.
func (f *Func) NumValues() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Values)
	}
	return n
}

// ----------------------------------------------------------------------------
// ir.Function

func (f *Func) Type() ir.Type        { return f.Sig }
func (f *Func) String() string       { return "@" + f.Name }
func (f *Func) Signature() ir.Type   { return f.Sig }
func (f *Func) NumParams() int       { return len(f.Sig.params) }
func (f *Func) IsDeclaration() bool  { return f.Entry == nil }
func (f *Func) Param(i int) ir.Value { return f.Params[i] }

func (f *Func) EntryBlock() ir.Block {
	if f.Entry == nil {
		return nil
	}
	return f.Entry
}

func (f *Func) AddBlock(name string) ir.Block {
	b := f.NewBlock(BlockPlain)
	b.Hint = name
	return b
}
