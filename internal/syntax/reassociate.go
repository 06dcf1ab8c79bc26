package syntax

// Reassociate rewrites a chain of Binary nodes into the tree implied by
// operator precedence and associativity. The parser produces operator
// chains in source order without regard to precedence; Group nodes are
// opaque and keep their shape.
//
// The operands and operators of the chain are collected left to right.
// The tree is then rebuilt from the right: each operand x and operator op
// are attached to the tree t built so far by rotating down t's left
// spine while op has precedence over the operator found there.
func Reassociate(x Expr) Expr {
	b, ok := x.(*Binary)
	if !ok {
		return x
	}
	var operands []Expr
	var ops []*Binary
	flatten(b, &operands, &ops)

	t := operands[len(operands)-1]
	for i := len(ops) - 1; i >= 0; i-- {
		t = attach(operands[i], ops[i], t)
	}
	return t
}

// flatten collects the in-order operands and operator nodes of a chain.
func flatten(x Expr, operands *[]Expr, ops *[]*Binary) {
	b, ok := x.(*Binary)
	if !ok {
		*operands = append(*operands, x)
		return
	}
	flatten(b.X, operands, ops)
	*ops = append(*ops, b)
	flatten(b.Y, operands, ops)
}

// attach returns the tree for "x op t". When op has precedence over the
// root operator of t, x binds into t's left operand instead (a left
// rotation); otherwise op becomes the new root.
func attach(x Expr, op *Binary, t Expr) Expr {
	if r, ok := t.(*Binary); ok && HasPrecedence(op.Op, r.Op) {
		r.X = attach(x, op, r.X)
		return r
	}
	op.X = x
	op.Y = t
	return op
}
