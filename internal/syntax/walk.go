package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order, visiting children in
// source order. If visitor returns false, children are not visited.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}
	for _, c := range Children(node) {
		Walk(c, v)
	}
}

// Inspect traverses an AST and calls f for each node.
// Convenience wrapper around Walk.
func Inspect(node Node, f func(Node) bool) {
	Walk(node, Visitor(f))
}

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil {
			out = append(out, c)
		}
	}

	switch n := n.(type) {
	case *Class:
		for _, m := range n.Members {
			add(m)
		}
	case *Field:
		for _, e := range n.Entries {
			if e.Value != nil {
				add(e.Value)
			}
		}
	case *Method:
		for _, s := range n.Body {
			add(s)
		}

	case *ExprStmt:
		add(n.X)
	case *LocalDeclareAssign:
		add(n.Value)
	case *ImmutableLocal:
		add(n.Value)
	case *MutableLocal:
		if n.Value != nil {
			add(n.Value)
		}
	case *ReferenceLocal:
		add(n.Value)
	case *Destructure:
		add(n.Value)
	case *LocalAssign:
		add(n.Value)
	case *FieldAssign:
		add(n.Value)
	case *IndexAssign:
		add(n.Target)
		add(n.Value)
	case *If:
		add(n.Cond)
		for _, s := range n.Then {
			add(s)
		}
		if n.Else != nil {
			add(n.Else)
		}
	case *Else:
		for _, s := range n.Body {
			add(s)
		}
	case *While:
		add(n.Cond)
		for _, s := range n.Body {
			add(s)
		}
	case *Return:
		if n.Value != nil {
			add(n.Value)
		}

	case *Call:
		for _, a := range n.Args {
			add(a)
		}
	case *New:
		for _, a := range n.Args {
			add(a)
		}
	case *SizeofValue:
		add(n.Value)
	case *Tuple:
		for _, m := range n.Members {
			add(m)
		}
	case *Group:
		add(n.X)
	case *Cast:
		add(n.X)
	case *Unary:
		add(n.X)
	case *Binary:
		add(n.X)
		add(n.Y)
	case *Index:
		add(n.X)
		add(n.Index)
	case *ArrayLiteral:
		for _, e := range n.Elems {
			add(e)
		}
	case *ArrayAlloc:
		add(n.Size)
	case *Selection:
		add(n.Cond)
		add(n.Then)
		add(n.Else)

	// Leaf nodes: Finish, Error, Package, Import, Using, ModifierBlock,
	// ModifierList, LocalDeclare, Free, Literal, Accessor, Malloc,
	// SizeofType, RefAccess, DerefAccess
	}
	return out
}
