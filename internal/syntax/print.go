package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Describe returns a one-line rendering of n without its children.
func Describe(n Node) string {
	switch n := n.(type) {
	case *Finish:
		return "Finish"
	case *Error:
		return "Error " + n.Err.Msg
	case *Package:
		return fmt.Sprintf("Package %q", n.Name)
	case *Import:
		return fmt.Sprintf("Import %q", n.Name)
	case *Using:
		return fmt.Sprintf("Using %q", n.Name)
	case *ModifierBlock:
		return "ModifierBlock " + strings.Join(n.Modifiers, " ") + ":"
	case *ModifierList:
		return "ModifierList " + strings.Join(n.Modifiers, " ")
	case *Class:
		return "Class " + mods(n.Modifiers) + n.Name + n.Generics.String()
	case *Field:
		names := make([]string, len(n.Entries))
		for i, e := range n.Entries {
			names[i] = e.Name
		}
		return "Field " + mods(n.Modifiers) + n.Type.String() + " " + strings.Join(names, ", ")
	case *Method:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = paramString(p)
		}
		return fmt.Sprintf("Method %s%s %s%s(%s)", mods(n.Modifiers), n.Result, n.Name, n.Generics, strings.Join(params, ", "))

	case *ExprStmt:
		return "ExprStmt"
	case *LocalDeclare:
		return "LocalDeclare " + n.Type.String() + " " + n.Name
	case *LocalDeclareAssign:
		return "LocalDeclareAssign " + n.Type.String() + " " + n.Name
	case *ImmutableLocal:
		return "ImmutableLocal " + n.Name
	case *MutableLocal:
		if n.Type != nil {
			return "MutableLocal " + n.Type.String() + " " + n.Name
		}
		return "MutableLocal " + n.Name
	case *ReferenceLocal:
		return "ReferenceLocal " + n.Name
	case *Destructure:
		return "Destructure " + n.Names.String()
	case *LocalAssign:
		return "LocalAssign " + n.Name
	case *FieldAssign:
		return "FieldAssign " + n.Target.String()
	case *IndexAssign:
		return "IndexAssign"
	case *If:
		return "If"
	case *Else:
		return "Else"
	case *While:
		return "While"
	case *Return:
		return "Return"
	case *Free:
		return "Free " + n.Name

	case *Literal:
		return "Literal " + n.Value.String()
	case *Accessor:
		return "Accessor " + n.Name.String()
	case *Call:
		return "Call " + n.Name.String() + n.Generics.String()
	case *New:
		return "New " + n.Type.String()
	case *Malloc:
		return "Malloc " + n.Type.String()
	case *SizeofType:
		return "SizeofType " + n.Type.String()
	case *SizeofValue:
		return "SizeofValue"
	case *Tuple:
		return "Tuple"
	case *Group:
		return "Group"
	case *Cast:
		return "Cast " + n.Type.String()
	case *Unary:
		if n.Postfix {
			return "Unary x" + n.Op
		}
		return "Unary " + n.Op + "x"
	case *Binary:
		return "Binary " + n.Op.String()
	case *RefAccess:
		return "RefAccess " + n.Name
	case *DerefAccess:
		return "DerefAccess " + n.Name
	case *Index:
		return "Index"
	case *ArrayLiteral:
		return fmt.Sprintf("ArrayLiteral [%d]", len(n.Elems))
	case *ArrayAlloc:
		return "ArrayAlloc " + n.Elem.String()
	case *Selection:
		return "Selection"
	}
	return fmt.Sprintf("%T", n)
}

func mods(m []string) string {
	if len(m) == 0 {
		return ""
	}
	return strings.Join(m, " ") + " "
}

func paramString(p *Parameter) string {
	s := ""
	if p.Mutable {
		s = "mut "
	}
	s += p.Type.String()
	if p.Variadic {
		s += "..."
	}
	return s + " " + p.Name.String()
}

// Fprint writes an indented tree of n to w, one Describe line per node.
func Fprint(w io.Writer, n Node) {
	p := &printer{w: w}
	p.print(n)
}

type printer struct {
	w      io.Writer
	indent int
}

func (p *printer) print(n Node) {
	if n == nil {
		return
	}
	fmt.Fprintf(p.w, "%s%s %s\n", strings.Repeat("  ", p.indent), Describe(n), n.Pos())
	p.indent++
	for _, c := range Children(n) {
		p.print(c)
	}
	p.indent--
}
