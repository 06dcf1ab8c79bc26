package ssa

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/you-not-fish/voidc/internal/ir"
)

// Fprint writes the SSA representation of a function to w.
//
// Format:
//
//	func add(i32 %a, i32 %b) i32:
//	  b0: (entry)
//	    v0 = Arg <i32> {a}
//	    v1 = Arg <i32> [1] {b}
//	    v2 = Add <i32> v0 v1
//	    Return v2
func Fprint(w io.Writer, f *Func) {
	params := make([]string, len(f.Sig.params))
	for i, pt := range f.Sig.params {
		params[i] = pt.String()
		if i < len(f.Params) {
			if name, ok := f.Params[i].Aux.(string); ok && name != "" {
				params[i] += " %" + name
			}
		}
	}
	if f.Sig.variadic {
		params = append(params, "...")
	}
	kw := "func"
	if f.IsDeclaration() {
		kw = "declare"
	}
	fmt.Fprintf(w, "%s %s(%s) %s", kw, f.Name, strings.Join(params, ", "), f.Sig.result)
	if f.IsDeclaration() {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, ":\n")

	for _, b := range f.Blocks {
		fprintBlock(w, b, f)
	}
}

// FprintModule writes every global and function of m to w.
func FprintModule(w io.Writer, m *Module) {
	fmt.Fprintf(w, "module %s\n", m.Name)
	for _, g := range m.Globals {
		fmt.Fprintf(w, "global @%s = %s\n", g.Name, strconv.Quote(g.Data))
	}
	for _, f := range m.Funcs {
		fmt.Fprintln(w)
		Fprint(w, f)
	}
}

// fprintBlock writes a single block to w.
func fprintBlock(w io.Writer, b *Block, f *Func) {
	label := ""
	if b.Hint != "" {
		label = " (" + b.Hint + ")"
	}

	predsStr := ""
	if len(b.Preds) > 0 {
		preds := make([]string, len(b.Preds))
		for i, p := range b.Preds {
			preds[i] = p.String()
		}
		predsStr = " <- " + strings.Join(preds, " ")
	}

	fmt.Fprintf(w, "  %s:%s%s\n", b, label, predsStr)

	for _, v := range b.Values {
		fmt.Fprintf(w, "    %s\n", formatValue(v))
	}

	fmt.Fprintf(w, "    %s\n", formatTerminator(b))
}

// formatValue formats a value as a string.
func formatValue(v *Value) string {
	var sb strings.Builder

	// For void ops, don't print "vN = "
	if v.Op.IsVoid() || (v.Op == OpCall && v.Typ.IsVoid()) {
		sb.WriteString(v.Op.String())
	} else {
		fmt.Fprintf(&sb, "v%d = %s", v.ID, v.Op)
		fmt.Fprintf(&sb, " <%s>", v.Typ)
	}

	switch v.Op {
	case OpICmp:
		fmt.Fprintf(&sb, " [%s]", ir.IntPredicate(v.AuxInt))
	case OpFCmp:
		fmt.Fprintf(&sb, " [%s]", ir.FloatPredicate(v.AuxInt))
	case OpFieldPtr:
		fmt.Fprintf(&sb, " [%d]", v.AuxInt)
	default:
		if v.AuxInt != 0 {
			fmt.Fprintf(&sb, " [%d]", v.AuxInt)
		}
	}

	if v.Aux != nil && v.Aux != "" {
		fmt.Fprintf(&sb, " {%s}", formatAux(v.Aux))
	}

	for _, arg := range v.Args {
		if arg == nil {
			sb.WriteString(" <nil>")
			continue
		}
		sb.WriteString(" " + arg.String())
	}

	return sb.String()
}

// formatTerminator formats a block terminator.
func formatTerminator(b *Block) string {
	switch b.Kind {
	case BlockPlain:
		if len(b.Succs) > 0 {
			return fmt.Sprintf("Plain -> %s", b.Succs[0])
		}
		return "Plain"
	case BlockIf:
		if len(b.Controls) > 0 && len(b.Succs) >= 2 {
			return fmt.Sprintf("If %s -> %s %s", b.Controls[0], b.Succs[0], b.Succs[1])
		}
		return "If (malformed)"
	case BlockReturn:
		if len(b.Controls) > 0 && b.Controls[0] != nil {
			return fmt.Sprintf("Return %s", b.Controls[0])
		}
		return "Return"
	default:
		return "???"
	}
}

// Sprint returns the SSA representation of a function as a string.
func Sprint(f *Func) string {
	var sb strings.Builder
	Fprint(&sb, f)
	return sb.String()
}

// formatAux formats an Aux value for display.
func formatAux(aux interface{}) string {
	switch a := aux.(type) {
	case *Func:
		return a.Name
	case *Global:
		return a.Name
	case string:
		return a
	default:
		return fmt.Sprintf("%v", aux)
	}
}
