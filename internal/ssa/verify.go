package ssa

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/voidc/internal/ir"
)

// Verify checks the structural integrity of an SSA function.
// It returns an error describing all violations found, or nil if valid.
// Declarations are always valid.
func Verify(f *Func) error {
	if f.IsDeclaration() {
		return nil
	}
	var errs []string

	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if len(f.Blocks) == 0 {
		add("func %s: no blocks", f.Name)
		return combineErrors(errs)
	}

	if f.Blocks[0] != f.Entry {
		add("func %s: Blocks[0] is not the entry block", f.Name)
	}

	// 1. Entry block has no predecessors
	if len(f.Entry.Preds) != 0 {
		add("func %s: entry block %s has %d predecessors, want 0",
			f.Name, f.Entry, len(f.Entry.Preds))
	}

	// Build a set of all blocks for membership checks.
	blockSet := make(map[*Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		blockSet[b] = true
	}

	// Build a set of all values for reference checks.
	valueSet := make(map[*Value]bool)

	for _, b := range f.Blocks {
		// 2. Every block has a valid Kind
		if b.Kind == BlockInvalid {
			add("func %s, %s: block has invalid kind", f.Name, b)
		}

		// 3. Block's Func pointer matches
		if b.Func != f {
			add("func %s, %s: block Func pointer mismatch", f.Name, b)
		}

		for _, v := range b.Values {
			valueSet[v] = true

			// 4. Every Value's Block pointer matches its containing block
			if v.Block != b {
				add("func %s, %s, %s: value Block pointer is %s, want %s",
					f.Name, b, v, v.Block, b)
			}

			// 5. Every value has a type; void only for void ops and calls
			if v.Typ == nil {
				add("func %s, %s, %s (%s): value has nil Type", f.Name, b, v, v.Op)
			} else if v.Typ.IsVoid() && !v.Op.IsVoid() && v.Op != OpCall {
				add("func %s, %s, %s (%s): non-void value has void Type", f.Name, b, v, v.Op)
			}

			// 6. Args are non-nil
			nilArg := false
			for i, arg := range v.Args {
				if arg == nil {
					add("func %s, %s, %s: arg[%d] is nil", f.Name, b, v, i)
					nilArg = true
				}
			}

			// 7. Phi args count == Preds count
			if v.Op == OpPhi && len(v.Args) != len(b.Preds) {
				add("func %s, %s, %s: phi has %d args but block has %d preds",
					f.Name, b, v, len(v.Args), len(b.Preds))
			}

			// 8. Operand types agree with the op
			if !nilArg && v.Typ != nil {
				if msg := checkOperands(v); msg != "" {
					add("func %s, %s, %s (%s): %s", f.Name, b, v, v.Op, msg)
				}
			}
		}

		// 9. Terminator checks based on Kind
		switch b.Kind {
		case BlockPlain:
			if len(b.Succs) != 1 {
				add("func %s, %s: plain block has %d succs, want 1",
					f.Name, b, len(b.Succs))
			}
		case BlockIf:
			if len(b.Controls) != 1 {
				add("func %s, %s: if block has %d controls, want 1",
					f.Name, b, len(b.Controls))
			} else if c := b.Controls[0]; c != nil && !(c.Typ.kind == ir.IntKind && c.Typ.bits == 1) {
				add("func %s, %s: if control %s has type %s, want i1", f.Name, b, c, c.Typ)
			}
			if len(b.Succs) != 2 {
				add("func %s, %s: if block has %d succs, want 2",
					f.Name, b, len(b.Succs))
			}
		case BlockReturn:
			if len(b.Succs) != 0 {
				add("func %s, %s: return block has %d succs, want 0",
					f.Name, b, len(b.Succs))
			}
			var rt *Type
			if len(b.Controls) > 0 && b.Controls[0] != nil {
				rt = b.Controls[0].Typ
			}
			switch {
			case rt == nil && !f.Sig.result.IsVoid():
				add("func %s, %s: missing return value of type %s", f.Name, b, f.Sig.result)
			case rt != nil && rt != f.Sig.result:
				add("func %s, %s: return value has type %s, want %s", f.Name, b, rt, f.Sig.result)
			}
		}

		// 10. Succs/Preds edge consistency
		for _, succ := range b.Succs {
			if !blockSet[succ] {
				add("func %s, %s: successor %s not in function", f.Name, b, succ)
				continue
			}
			if !containsBlock(succ.Preds, b) {
				add("func %s, %s: successor %s does not have %s as predecessor",
					f.Name, b, succ, b)
			}
		}
		for _, pred := range b.Preds {
			if !blockSet[pred] {
				add("func %s, %s: predecessor %s not in function", f.Name, b, pred)
				continue
			}
			if !containsBlock(pred.Succs, b) {
				add("func %s, %s: predecessor %s does not have %s as successor",
					f.Name, b, pred, b)
			}
		}

		// 11. Control values must be non-nil, except for a void return
		for i, c := range b.Controls {
			if c == nil && b.Kind != BlockReturn {
				add("func %s, %s: control[%d] is nil", f.Name, b, i)
			}
		}
	}

	// 12. Verify all value args are in the function or are constants
	inFunc := func(v *Value) bool {
		return valueSet[v] || (v.Block == nil && v.Op.IsConst())
	}
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			for i, arg := range v.Args {
				if arg != nil && !inFunc(arg) {
					add("func %s, %s, %s: arg[%d] (%s) not found in function",
						f.Name, b, v, i, arg)
				}
			}
		}
		for i, c := range b.Controls {
			if c != nil && !inFunc(c) {
				add("func %s, %s: control[%d] (%s) not found in function",
					f.Name, b, i, c)
			}
		}
	}

	return combineErrors(errs)
}

// checkOperands returns a description of the first operand type error of
// v, or "".
func checkOperands(v *Value) string {
	args := v.Args
	want := func(n int) string {
		if len(args) != n {
			return fmt.Sprintf("has %d args, want %d", len(args), n)
		}
		return ""
	}
	switch v.Op {
	case OpLoad:
		if msg := want(1); msg != "" {
			return msg
		}
		if args[0].Typ.kind != ir.PointerKind || args[0].Typ.elem != v.Typ {
			return fmt.Sprintf("load of %s from %s", v.Typ, args[0].Typ)
		}
	case OpStore:
		if msg := want(2); msg != "" {
			return msg
		}
		if args[0].Typ.kind != ir.PointerKind || args[0].Typ.elem != args[1].Typ {
			return fmt.Sprintf("store of %s to %s", args[1].Typ, args[0].Typ)
		}
	case OpFree, OpFieldPtr:
		if msg := want(1); msg != "" {
			return msg
		}
		if args[0].Typ.kind != ir.PointerKind {
			return fmt.Sprintf("operand has type %s, want pointer", args[0].Typ)
		}
	case OpElemPtr:
		if msg := want(2); msg != "" {
			return msg
		}
		if args[0].Typ.kind != ir.PointerKind || args[1].Typ.kind != ir.IntKind {
			return fmt.Sprintf("index %s into %s", args[1].Typ, args[0].Typ)
		}
	case OpAdd, OpSub, OpMul, OpDiv, OpRem, OpAnd, OpOr:
		if msg := want(2); msg != "" {
			return msg
		}
		if args[0].Typ != v.Typ || args[1].Typ != v.Typ || v.Typ.kind != ir.IntKind {
			return fmt.Sprintf("operands %s, %s for result %s", args[0].Typ, args[1].Typ, v.Typ)
		}
	case OpFAdd, OpFSub, OpFMul, OpFDiv, OpFRem:
		if msg := want(2); msg != "" {
			return msg
		}
		if args[0].Typ != v.Typ || args[1].Typ != v.Typ || v.Typ.kind != ir.FloatKind {
			return fmt.Sprintf("operands %s, %s for result %s", args[0].Typ, args[1].Typ, v.Typ)
		}
	case OpICmp, OpFCmp:
		if msg := want(2); msg != "" {
			return msg
		}
		if args[0].Typ != args[1].Typ {
			return fmt.Sprintf("compares %s with %s", args[0].Typ, args[1].Typ)
		}
	case OpSelect:
		if msg := want(3); msg != "" {
			return msg
		}
		if args[1].Typ != args[2].Typ || args[1].Typ != v.Typ {
			return fmt.Sprintf("selects between %s and %s", args[1].Typ, args[2].Typ)
		}
	case OpCall:
		fn, ok := v.Aux.(*Func)
		if !ok {
			return "call without callee"
		}
		params := fn.Sig.params
		if len(args) < len(params) || (!fn.Sig.variadic && len(args) != len(params)) {
			return fmt.Sprintf("call to %s with %d args, want %d", fn.Name, len(args), len(params))
		}
		for i, p := range params {
			if args[i].Typ != p {
				return fmt.Sprintf("call to %s: arg %d has type %s, want %s", fn.Name, i, args[i].Typ, p)
			}
		}
	}
	return ""
}

// containsBlock checks whether bs contains b.
func containsBlock(bs []*Block, b *Block) bool {
	for _, x := range bs {
		if x == b {
			return true
		}
	}
	return false
}

// VerifyDom checks dominance properties of an SSA function.
// ComputeDom must have been called before this.
// It calls Verify first, then checks dominance invariants.
func VerifyDom(f *Func) error {
	if err := Verify(f); err != nil {
		return err
	}
	if f.IsDeclaration() {
		return nil
	}

	var errs []string
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	reachable := Reachable(f)

	// 1. Entry Idom must be nil.
	if f.Entry.Idom != nil {
		add("func %s: entry %s has non-nil Idom %s", f.Name, f.Entry, f.Entry.Idom)
	}

	// 2. All reachable non-entry blocks must have non-nil Idom != self.
	for _, b := range f.Blocks {
		if !reachable[b] || b == f.Entry {
			continue
		}
		if b.Idom == nil {
			add("func %s, %s: reachable block has nil Idom", f.Name, b)
		} else if b.Idom == b {
			add("func %s, %s: block is its own Idom", f.Name, b)
		}
	}

	// Build value-to-index maps for same-block ordering checks.
	valIdx := make(map[*Value]int)
	for _, b := range f.Blocks {
		for i, v := range b.Values {
			valIdx[v] = i
		}
	}

	// 3. For non-phi values: each arg's block must dominate the use block
	// (or if same block, arg must appear before use).
	for _, b := range f.Blocks {
		if !reachable[b] {
			continue
		}
		for _, v := range b.Values {
			if v.Op == OpPhi {
				continue
			}
			for i, arg := range v.Args {
				if arg == nil || arg.Block == nil {
					continue
				}
				defBlock := arg.Block
				if defBlock == b {
					// Same block: arg must appear before use.
					if valIdx[arg] >= valIdx[v] {
						add("func %s, %s, %s: arg[%d] %s defined at index %d, used at index %d (same block)",
							f.Name, b, v, i, arg, valIdx[arg], valIdx[v])
					}
				} else if !Dominates(defBlock, b) {
					add("func %s, %s, %s: arg[%d] %s defined in %s which does not dominate %s",
						f.Name, b, v, i, arg, defBlock, b)
				}
			}
		}
	}

	// 4. For phi values: each arg[i]'s block must dominate Preds[i].
	for _, b := range f.Blocks {
		if !reachable[b] {
			continue
		}
		for _, v := range b.Values {
			if v.Op != OpPhi {
				continue
			}
			for i, arg := range v.Args {
				if arg == nil || arg.Block == nil || i >= len(b.Preds) {
					continue
				}
				pred := b.Preds[i]
				defBlock := arg.Block
				if !Dominates(defBlock, pred) {
					add("func %s, %s, %s: phi arg[%d] %s defined in %s which does not dominate pred %s",
						f.Name, b, v, i, arg, defBlock, pred)
				}
			}
		}
	}

	// 5. Control values must dominate their block.
	for _, b := range f.Blocks {
		if !reachable[b] {
			continue
		}
		for i, c := range b.Controls {
			if c == nil || c.Block == nil {
				continue
			}
			defBlock := c.Block
			if defBlock != b && !Dominates(defBlock, b) {
				add("func %s, %s: control[%d] %s defined in %s which does not dominate %s",
					f.Name, b, i, c, defBlock, b)
			}
		}
	}

	return combineErrors(errs)
}

// combineErrors creates an error from a list of error strings, or returns nil.
func combineErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("SSA verification failed:\n  %s", strings.Join(errs, "\n  "))
}
