package compile

import (
	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/types"
)

// generate lowers the method bodies of a declaration.
func (c *compiler) generate(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.Method:
		c.genMethod(d)
	case *syntax.Class:
		for _, m := range d.Members {
			if m, ok := m.(*syntax.Method); ok {
				c.observe(Generate, m, func() { c.genMethod(m) })
			}
		}
	}
}

func (c *compiler) genMethod(m *syntax.Method) {
	d := c.u.decls[m]
	if d == nil || d.state != declDefined {
		return
	}
	b := c.u.b
	c.method, c.fn = m, d.fn
	b.SetInsertPoint(d.fn.EntryBlock())
	for _, v := range c.vars[m] {
		c.bindParam(v)
	}
	c.lowerStmts(m.Body)
	if !b.InsertBlock().Terminated() {
		if !types.IsVoid(m.Result.Unnamed()) {
			panic("compile: " + m.Name + " falls off its end")
		}
		b.RetVoid()
	}
	c.method, c.fn = nil, nil
}

// ----------------------------------------------------------------------------
// Variables

func (c *compiler) bindParam(v *Var) {
	val := c.fn.Param(v.Index)
	if v.path != nil {
		ct, _ := compoundOf(c.method.Params[v.Index].Type)
		val = c.loadPath(val, ct, v.path)
	}
	if v.dim != nil {
		v.length = c.u.b.IntCast(c.readVar(v.dim), c.u.ctx.Int(32))
	}
	c.bindValue(v, val)
}

// bindValue gives v its value: kept as is when v is direct, otherwise
// stored in a new slot.
func (c *compiler) bindValue(v *Var, val ir.Value) {
	if c.directVar(v) {
		v.bind(val, true)
		return
	}
	slot := c.u.b.Alloca(c.irType(v.Type), nil, v.Name)
	c.u.b.Store(val, slot)
	v.bind(slot, false)
}

// readVar returns the current value of v.
func (c *compiler) readVar(v *Var) ir.Value {
	if !v.Bound() {
		panic("compile: variable " + v.Name + " used before it is bound")
	}
	if v.direct {
		return v.addr
	}
	return c.u.b.Load(v.addr)
}

// loadPath selects a member of a possibly nested tuple.
func (c *compiler) loadPath(tuple ir.Value, t *types.Compound, path []int) ir.Value {
	b := c.u.b
	for i, idx := range path {
		v := b.Load(b.FieldPtr(tuple, idx))
		if i == len(path)-1 {
			return v
		}
		tuple = v
		t, _ = compoundOf(t.Members[idx])
	}
	return tuple
}

// bindDeclared binds a local declared without an initializer.
func (c *compiler) bindDeclared(v *Var) {
	b := c.u.b
	s, _ := scalarOf(v.Type)
	if s.IsArray() {
		if _, ok := s.Array.Dims[0].SizeConstant(); ok {
			v.bind(b.Alloca(c.storageType(s), nil, v.Name), true)
			return
		}
		elem, _ := types.ElementType(s)
		count := c.readVar(v.dim)
		v.length = b.IntCast(count, c.u.ctx.Int(32))
		v.bind(b.Alloca(c.storageType(elem), count, v.Name), true)
		return
	}
	t := c.irType(v.Type)
	slot := b.Alloca(t, nil, v.Name)
	b.Store(c.zero(t), slot)
	v.bind(slot, false)
}

// bindLocal binds a local to its initializer according to its allocation.
func (c *compiler) bindLocal(v *Var, init syntax.Expr) {
	t := c.typeOf(init)
	e := unparen(init)
	switch v.Alloc {
	case AllocHeap, AllocStack:
		if c.isCell(v.Type) {
			v.bind(c.lowerAddr(e), false)
			return
		}
		if aa, ok := e.(*syntax.ArrayAlloc); ok {
			val, length := c.lowerArrayAlloc(aa)
			v.length = length
			c.bindValue(v, c.convert(val, t, v.Type))
			return
		}
	case AllocCall:
		if depth(t) > 0 && depth(v.Type) == 0 {
			v.bind(c.lowerExpr(init), false)
			return
		}
	case AllocAlias:
		var ptr ir.Value
		if depth(t) > 0 {
			ptr = c.lowerExpr(init)
		} else {
			ptr = c.uses[e].addr
		}
		slot := c.u.b.Alloca(c.irType(v.Type), nil, v.Name)
		c.u.b.Store(ptr, slot)
		v.bind(slot, false)
		return
	}
	c.bindValue(v, c.convert(c.lowerExpr(init), t, v.Type))
}

// ----------------------------------------------------------------------------
// Statements

func (c *compiler) lowerStmts(list []syntax.Stmt) {
	for _, s := range list {
		if c.u.b.InsertBlock().Terminated() {
			return
		}
		c.lowerStmt(s)
	}
}

func (c *compiler) lowerStmt(s syntax.Stmt) {
	b := c.u.b
	switch s := s.(type) {
	case *syntax.ExprStmt:
		c.lowerExpr(s.X)

	case *syntax.LocalDeclare:
		c.bindDeclared(c.vars[s][0])

	case *syntax.MutableLocal:
		if s.Value == nil {
			c.bindDeclared(c.vars[s][0])
			return
		}
		c.bindLocal(c.vars[s][0], s.Value)

	case *syntax.LocalDeclareAssign:
		c.bindLocal(c.vars[s][0], s.Value)

	case *syntax.ImmutableLocal:
		c.bindLocal(c.vars[s][0], s.Value)

	case *syntax.ReferenceLocal:
		c.bindLocal(c.vars[s][0], s.Value)

	case *syntax.Destructure:
		root := c.lowerExpr(s.Value)
		ct, _ := compoundOf(c.typeOf(s.Value))
		for _, v := range c.vars[s] {
			c.bindValue(v, c.loadPath(root, ct, v.path))
		}

	case *syntax.LocalAssign:
		v := c.uses[s]
		target := v.Type
		addr := v.addr
		if v.Reference {
			target = removeReference(target)
			addr = b.Load(v.addr)
		}
		b.Store(c.convert(c.lowerExpr(s.Value), c.typeOf(s.Value), target), addr)

	case *syntax.FieldAssign:
		fields := c.paths[s]
		ptr := c.fieldAddr(c.uses[s], fields)
		f := fields[len(fields)-1]
		b.Store(c.convert(c.lowerExpr(s.Value), c.typeOf(s.Value), c.fieldType(f)), ptr)

	case *syntax.IndexAssign:
		ptr := c.elementAddr(s.Target)
		b.Store(c.convert(c.lowerExpr(s.Value), c.typeOf(s.Value), c.typeOf(s.Target)), ptr)

	case *syntax.If:
		c.lowerIf(s)

	case *syntax.While:
		fn := c.fn
		cond, body, end := fn.AddBlock("while.cond"), fn.AddBlock("while.body"), fn.AddBlock("while.end")
		b.Br(cond)
		b.SetInsertPoint(cond)
		b.CondBr(c.lowerExpr(s.Cond), body, end)
		b.SetInsertPoint(body)
		c.lowerStmts(s.Body)
		if !b.InsertBlock().Terminated() {
			b.Br(cond)
		}
		b.SetInsertPoint(end)

	case *syntax.Return:
		c.lowerReturn(s)

	case *syntax.Free:
		v := c.uses[s]
		c.u.declareMemory()
		if v.Alloc == AllocHeap && c.isCell(v.Type) {
			b.Free(v.addr)
			return
		}
		b.Free(c.readVar(v))
	}
}

// lowerIf lowers an if chain. The merge block is only created when some
// branch falls through.
func (c *compiler) lowerIf(s *syntax.If) {
	b := c.u.b
	fn := c.fn
	var end ir.Block
	merge := func() {
		if b.InsertBlock().Terminated() {
			return
		}
		if end == nil {
			end = fn.AddBlock("if.end")
		}
		b.Br(end)
	}

	for {
		then := fn.AddBlock("if.then")
		var els ir.Block
		if s.Else != nil {
			els = fn.AddBlock("if.else")
		} else {
			if end == nil {
				end = fn.AddBlock("if.end")
			}
			els = end
		}
		b.CondBr(c.lowerExpr(s.Cond), then, els)

		b.SetInsertPoint(then)
		c.lowerStmts(s.Then)
		merge()

		if s.Else == nil {
			break
		}
		b.SetInsertPoint(els)
		if next, ok := s.Else.(*syntax.If); ok {
			s = next
			continue
		}
		c.lowerStmts(s.Else.(*syntax.Else).Body)
		merge()
		break
	}
	if end != nil {
		b.SetInsertPoint(end)
	}
}

func (c *compiler) lowerReturn(s *syntax.Return) {
	b := c.u.b
	if s.Value == nil {
		b.RetVoid()
		return
	}
	result := c.method.Result.Unnamed()
	if ct, ok := compoundOf(result); ok && depth(result) == 0 {
		b.Ret(c.heapTuple(s.Value, ct))
		return
	}
	b.Ret(c.convert(c.lowerExpr(s.Value), c.typeOf(s.Value), result))
}

// heapTuple copies a returned tuple to the heap so that it outlives the
// returning frame.
func (c *compiler) heapTuple(e syntax.Expr, t *types.Compound) ir.Value {
	b := c.u.b
	c.u.declareMemory()
	heap := b.Malloc(c.tupleStruct(t))
	if tuple, ok := unparen(e).(*syntax.Tuple); ok {
		for i, m := range tuple.Members {
			b.Store(c.convert(c.lowerExpr(m), c.typeOf(m), t.Members[i]), b.FieldPtr(heap, i))
		}
		return heap
	}
	src := c.lowerExpr(e)
	for i := range t.Members {
		b.Store(b.Load(b.FieldPtr(src, i)), b.FieldPtr(heap, i))
	}
	return heap
}
