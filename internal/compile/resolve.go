package compile

import (
	"sort"
	"strings"

	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/token"
	"github.com/you-not-fish/voidc/internal/types"
)

// builtin identifies calls that are lowered without a method.
type builtin uint8

const (
	notBuiltin builtin = iota
	builtinPrintln
)

// callTarget is what a call resolved to.
type callTarget struct {
	method  *syntax.Method
	owner   *Package // package that defines method
	key     string   // overload key within owner
	builtin builtin
}

// ----------------------------------------------------------------------------
// preProcess

func (c *compiler) preProcess(n, parent syntax.Node) {
	n.SetParent(parent)
	for _, child := range syntax.Children(n) {
		c.preProcess(child, n)
	}
	switch n := n.(type) {
	case *syntax.Package:
		c.pkg.Name = n.Name
	case *syntax.Import:
		if c.u == nil {
			c.pkg.Imports = append(c.pkg.Imports, n.Name)
			return
		}
		c.pkg.Import(c.importPackage(n, n.Name))
	case *syntax.Using:
		if c.u == nil {
			c.pkg.Usings = append(c.pkg.Usings, n.Name)
			return
		}
		c.pkg.Use(c.importPackage(n, n.Name))
	}
}

func (c *compiler) importPackage(n syntax.Node, name string) *Package {
	p, ok := c.conf.Packages[name]
	if !ok {
		c.errorf(n, UnresolvedName, "package %q not found%s", name, didYouMean(name, sortedKeys(c.conf.Packages)))
	}
	return p
}

// ----------------------------------------------------------------------------
// postProcessType

func (c *compiler) postProcessType(d syntax.Decl) {
	cls, ok := d.(*syntax.Class)
	if !ok {
		return
	}
	if len(cls.Generics.Types) > 0 {
		c.errorf(cls, InvalidOperation, "generic class %s is not supported", cls.Name)
	}
	if types.LookupPrimitive(cls.Name) != nil {
		c.errorf(cls, InvalidOperation, "class %s shadows a primitive type", cls.Name)
	}
	if _, ok := c.pkg.DefineClass(cls); !ok {
		c.errorf(cls, InvalidOperation, "class %s redeclared", cls.Name)
	}
}

// ----------------------------------------------------------------------------
// postProcessMember

func (c *compiler) postProcessMember(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.Class:
		cls := c.pkg.classes[d.Name]
		seen := make(map[string]bool)
		for _, f := range cls.Fields {
			if seen[f.Name] {
				c.errorf(d, InvalidOperation, "field %s redeclared in class %s", f.Name, cls.Name)
			}
			seen[f.Name] = true
			if c.u == nil {
				continue
			}
			c.checkType(d, f.Type)
			if types.IsVoid(f.Type) {
				c.errorf(d, InvalidOperation, "field %s has type void", f.Name)
			}
			if f.Type.IsArray() {
				for _, dim := range f.Type.Array.Dims {
					if !dim.IsConstant() {
						c.errorf(d, InvalidOperation, "field %s needs a constant array size", f.Name)
					}
				}
				if f.Default != nil {
					c.errorf(d, InvalidOperation, "array field %s cannot have a default value", f.Name)
				}
			}
		}
		if c.u != nil {
			c.classStruct(cls)
		}
		for _, m := range d.Members {
			if m, ok := m.(*syntax.Method); ok {
				c.observe(PostProcessMember, m, func() { c.defineMethod(d.Name+"."+m.Name, m) })
			}
		}
	case *syntax.Method:
		c.defineMethod(d.Name, d)
	}
}

func (c *compiler) defineMethod(key string, m *syntax.Method) {
	if c.pkg.defines(key, m) {
		return
	}
	if c.u != nil {
		c.checkSignature(m)
	}
	for _, o := range c.pkg.Overloads(key) {
		if types.IdenticalParams(o.ParamTypes(), m.ParamTypes()) {
			c.errorf(m, InvalidOperation, "method %s redeclared with the same parameters", key)
		}
	}
	c.pkg.defineMethod(key, m)
	if c.u != nil {
		c.u.function(c, c.pkg, key, m)
	}
}

func isExtern(m *syntax.Method) bool {
	for _, mod := range m.Modifiers {
		if mod == "extern" || mod == "native" {
			return true
		}
	}
	return false
}

func (c *compiler) checkSignature(m *syntax.Method) {
	if len(m.Generics.Types) > 0 {
		c.errorf(m, InvalidOperation, "generic method %s is not supported", m.Name)
	}
	if isExtern(m) {
		if len(m.Body) > 0 {
			c.errorf(m, InvalidOperation, "extern method %s cannot have a body", m.Name)
		}
	} else if _, ok := rtabi.LookupRuntime(m.Name); ok || strings.HasPrefix(m.Name, "__void_") {
		c.errorf(m, InvalidOperation, "cannot define runtime function %s", m.Name)
	}
	if _, ok := m.Result.(*types.NamedLambda); ok {
		c.errorf(m, InvalidOperation, "lambda types are not supported")
	}
	c.checkType(m, m.Result.Unnamed())
	for i, p := range m.Params {
		if p.Variadic {
			c.errorf(m, InvalidOperation, "variadic parameter %s is not supported", p.Name)
		}
		c.checkType(m, p.Type)
		if types.IsVoid(p.Type) {
			c.errorf(m, InvalidOperation, "parameter %d of %s has type void", i+1, m.Name)
		}
		if cn, ok := p.Name.(*types.CompoundName); ok {
			ct, ok := compoundOf(p.Type)
			if !ok || len(ct.Members) != len(cn.Members) {
				c.errorf(m, TypeMismatch, "cannot destructure parameter of type %s into %s", p.Type, cn)
			}
		}
	}
}

// checkType reports types that cannot be lowered.
func (c *compiler) checkType(n syntax.Node, t types.Type) {
	switch t := types.Unwrap(t).(type) {
	case *types.Compound:
		for _, m := range t.Members {
			c.checkType(n, m)
			if types.IsVoid(m) {
				c.errorf(n, InvalidOperation, "tuple member of type void")
			}
		}
	case *types.Lambda:
		c.errorf(n, InvalidOperation, "lambda types are not supported")
	case *types.Scalar:
		if t.Generics.Explicit {
			c.errorf(n, InvalidOperation, "generic type %s is not supported", t)
		}
		for i, d := range t.Array.Dims {
			if i > 0 && !d.IsConstant() {
				c.errorf(n, InvalidOperation, "only the first dimension of %s may be unsized", t)
			}
		}
		if t.Name.IsLet() {
			c.errorf(n, InvalidOperation, "let is not a type")
		}
		if t.Name.IsPrimitive() {
			if types.LookupPrimitive(t.Name.Primitive()) == nil {
				c.errorf(n, UnresolvedType, "undefined type: %s", t.Name)
			}
			if t.IsArray() && types.IsVoid(types.Basic(t.Name.Primitive())) {
				c.errorf(n, InvalidOperation, "array of void")
			}
			return
		}
		if c.pkg.ResolveType(t.Name) == nil {
			c.errorf(n, UnresolvedType, "undefined type: %s%s", t.Name, didYouMean(t.Name.String(), c.pkg.classNames()))
		}
	}
}

// ----------------------------------------------------------------------------
// postProcessUse

func (c *compiler) postProcessUse(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.Class:
		cls := c.pkg.classes[d.Name]
		for _, f := range cls.Fields {
			if f.Default == nil {
				continue
			}
			c.scope = newScope(nil)
			c.assign(f.Default, "field default", f.Type, c.expr(f.Default))
			c.scope = nil
		}
		for _, m := range d.Members {
			if m, ok := m.(*syntax.Method); ok {
				c.observe(PostProcessUse, m, func() { c.useMethod(m) })
			}
		}
	case *syntax.Method:
		c.useMethod(d)
	}
}

func (c *compiler) useMethod(m *syntax.Method) {
	if isExtern(m) {
		return
	}
	c.method = m
	c.scope = newScope(nil)
	for i, p := range m.Params {
		c.declareParam(m, i, p)
	}
	c.stmts(m.Body)
	if !types.IsVoid(m.Result.Unnamed()) && !terminates(m.Body) {
		c.errorf(m, InvalidOperation, "missing return at end of %s", m.Name)
	}
	c.method, c.scope = nil, nil
}

func (c *compiler) declareParam(m *syntax.Method, i int, p *syntax.Parameter) {
	switch name := p.Name.(type) {
	case *types.ScalarName:
		ref := depth(p.Type) > 0
		v := &Var{Name: name.Value, Type: p.Type, Decl: m, Index: i, Mutable: p.Mutable || ref, Reference: ref, Alloc: AllocParam}
		if s, ok := scalarOf(p.Type); ok && s.IsArray() && s.Array.Dims[0].Size.Kind == token.Identifier {
			v.dim = c.dimension(m, s.Array.Dims[0].Size.Text)
		}
		c.declare(m, v)
	case *types.CompoundName:
		ct, _ := compoundOf(p.Type)
		c.destructure(m, name, ct, nil, i, AllocParam)
	}
}

// dimension resolves the variable sizing a symbolic array dimension.
func (c *compiler) dimension(n syntax.Node, name string) *Var {
	v := c.lookupVar(n, name)
	if p := types.PrimitiveOf(v.Type); p == nil || !p.IsInteger() {
		c.errorf(n, TypeMismatch, "array size %s has type %s, want an integer", name, v.Type)
	}
	return v
}

// destructure declares the names of a tuple pattern. Each variable
// records the member path from the tuple at index.
func (c *compiler) destructure(n syntax.Node, names *types.CompoundName, t *types.Compound, path []int, index int, alloc Allocation) {
	if len(names.Members) != len(t.Members) {
		c.errorf(n, TypeMismatch, "cannot destructure %s into %d names", t, len(names.Members))
	}
	for i, name := range names.Members {
		p := append(path[:len(path):len(path)], i)
		switch name := name.(type) {
		case *types.ScalarName:
			if name.Value == "_" {
				continue
			}
			c.declare(n, &Var{Name: name.Value, Type: t.Members[i], Decl: n, Index: index, Alloc: alloc, path: p})
		case *types.CompoundName:
			inner, ok := compoundOf(t.Members[i])
			if !ok {
				c.errorf(n, TypeMismatch, "cannot destructure %s into %s", t.Members[i], name)
			}
			c.destructure(n, name, inner, p, index, alloc)
		}
	}
}

// terminates reports whether a statement list always returns.
func terminates(list []syntax.Stmt) bool {
	for _, s := range list {
		switch s := s.(type) {
		case *syntax.Return:
			return true
		case *syntax.If:
			if ifTerminates(s) {
				return true
			}
		}
	}
	return false
}

func ifTerminates(s *syntax.If) bool {
	if !terminates(s.Then) {
		return false
	}
	switch e := s.Else.(type) {
	case *syntax.If:
		return ifTerminates(e)
	case *syntax.Else:
		return terminates(e.Body)
	}
	return false
}

// ----------------------------------------------------------------------------
// Statements

func (c *compiler) stmts(list []syntax.Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *compiler) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.ExprStmt:
		c.expr(s.X)

	case *syntax.LocalDeclare:
		if s.Type.Name.IsLet() {
			c.errorf(s, InvalidOperation, "missing initializer for let %s", s.Name)
		}
		c.declareLocal(s, s.Name, s.Type)

	case *syntax.LocalDeclareAssign:
		c.local(s, s.Name, s.Type, s.Value)

	case *syntax.ImmutableLocal:
		c.local(s, s.Name, nil, s.Value)

	case *syntax.MutableLocal:
		if s.Value == nil {
			if s.Type == nil {
				c.errorf(s, InvalidOperation, "missing type or initializer for %s", s.Name)
			}
			c.declareLocal(s, s.Name, s.Type)
			return
		}
		c.local(s, s.Name, s.Type, s.Value)

	case *syntax.ReferenceLocal:
		c.referenceLocal(s)

	case *syntax.Destructure:
		t := c.expr(s.Value)
		ct, ok := compoundOf(t)
		if !ok || depth(t) > 0 {
			c.errorf(s, TypeMismatch, "cannot destructure value of type %s", t)
		}
		c.destructure(s, s.Names, ct, nil, -1, AllocSlot)

	case *syntax.LocalAssign:
		v := c.lookupVar(s, s.Name)
		if !v.Mutable {
			c.errorf(s, NotMutable, "cannot assign to immutable %s", s.Name)
		}
		if isArray(v.Type) {
			c.errorf(s, InvalidOperation, "cannot assign to array %s", s.Name)
		}
		target := v.Type
		if v.Reference {
			target = removeReference(target)
		}
		c.assign(s.Value, "assignment", target, c.expr(s.Value))
		c.recordUse(s, v)

	case *syntax.FieldAssign:
		_, fields := c.fieldPath(s, s.Target)
		f := fields[len(fields)-1]
		if f.Type.IsArray() {
			c.errorf(s, InvalidOperation, "cannot assign to array field %s", f.Name)
		}
		c.assign(s.Value, "field assignment", c.fieldType(f), c.expr(s.Value))

	case *syntax.IndexAssign:
		et := c.expr(s.Target)
		if isArray(et) {
			c.errorf(s, InvalidOperation, "cannot assign to array element of type %s", et)
		}
		if v := c.rootVar(s.Target); v != nil && !v.Mutable {
			c.errorf(s, NotMutable, "cannot assign to element of immutable %s", v.Name)
		}
		c.assign(s.Value, "element assignment", et, c.expr(s.Value))

	case *syntax.If:
		c.cond(s.Cond)
		c.openScope()
		c.stmts(s.Then)
		c.closeScope()
		if s.Else != nil {
			c.stmt(s.Else)
		}

	case *syntax.Else:
		c.openScope()
		c.stmts(s.Body)
		c.closeScope()

	case *syntax.While:
		c.cond(s.Cond)
		c.openScope()
		c.stmts(s.Body)
		c.closeScope()

	case *syntax.Return:
		if c.method == nil {
			c.errorf(s, InvalidOperation, "return outside of a method")
		}
		result := c.method.Result.Unnamed()
		if s.Value == nil {
			if !types.IsVoid(result) {
				c.errorf(s, TypeMismatch, "missing return value, want %s", result)
			}
			return
		}
		if types.IsVoid(result) {
			c.errorf(s, TypeMismatch, "too many return values")
		}
		c.assign(s.Value, "return", result, c.expr(s.Value))

	case *syntax.Free:
		v := c.lookupVar(s, s.Name)
		if isCompound(v.Type) || isArray(v.Type) && v.Alloc != AllocHeap {
			c.errorf(s, NotScalar, "cannot free non-scalar %s of type %s", s.Name, v.Type)
		}
		if v.Alloc != AllocHeap && c.classOf(v.Type) == nil {
			c.errorf(s, NotPointerOwner, "cannot free %s: it does not own heap memory", s.Name)
		}
		c.recordUse(s, v)

	default:
		c.errorf(s, InvalidOperation, "unexpected %s statement", s.Kind())
	}
}

func removeReference(t types.Type) types.Type {
	if s, ok := scalarOf(t); ok {
		if r, ok := types.RemoveReference(s); ok {
			return r
		}
	}
	return t
}

// declareLocal declares a local without an initializer.
func (c *compiler) declareLocal(n syntax.Local, name string, t *types.Scalar) {
	c.checkType(n, t)
	if types.IsVoid(t) {
		c.errorf(n, InvalidOperation, "variable %s has type void", name)
	}
	v := &Var{Name: name, Type: t, Decl: n, Index: -1, Mutable: isMutable(n), Alloc: AllocSlot}
	if t.IsArray() {
		v.Alloc = AllocStack
		switch d := t.Array.Dims[0]; {
		case d.Size.Kind == token.Identifier:
			v.dim = c.dimension(n, d.Size.Text)
		case !d.IsConstant():
			c.errorf(n, InvalidOperation, "array %s needs a size", name)
		}
	}
	c.declare(n, v)
}

// local declares a local with an initializer. The declared type may be
// nil or let, in which case it is inferred.
func (c *compiler) local(n syntax.Local, name string, declared *types.Scalar, init syntax.Expr) {
	t := c.expr(init)
	vt := t
	if declared != nil && !declared.Name.IsLet() {
		c.checkType(n, declared)
		c.assign(init, "initialization", declared, t)
		vt = declared
	} else {
		if t == nullType {
			c.errorf(n, InvalidOperation, "cannot infer the type of %s from null", name)
		}
		if types.IsVoid(t) {
			c.errorf(n, TypeMismatch, "%s has no value", describe(init))
		}
	}
	v := &Var{Name: name, Type: vt, Decl: n, Index: -1, Mutable: isMutable(n), Alloc: c.allocation(init)}
	if v.Alloc == AllocCall && depth(vt) > 0 {
		// the variable lives at the returned address
		vt = removeReference(vt)
		v.Type = vt
	}
	if v.Mutable && isArray(vt) && v.Alloc != AllocStack {
		v.Alloc = AllocSlot
	}
	c.declare(n, v)
}

func isMutable(n syntax.Node) bool {
	_, ok := n.(syntax.Mutable)
	return ok
}

// allocation decides where a variable initialized by init lives.
func (c *compiler) allocation(init syntax.Expr) Allocation {
	e := unparen(init)
	if _, ok := e.(syntax.HeapAllocator); ok {
		if _, ok := e.(*syntax.Malloc); ok {
			return AllocHeap
		}
		if c.classOf(c.typeOf(e)) != nil {
			return AllocHeap
		}
	}
	if _, ok := e.(syntax.StackAllocator); ok {
		return AllocStack
	}
	switch e := e.(type) {
	case *syntax.ArrayLiteral:
		return AllocStack
	case *syntax.Call:
		if t := c.typeOf(e); c.classOf(t) != nil || depth(t) > 0 {
			return AllocCall
		}
	case *syntax.Tuple:
		return AllocTuple
	}
	return AllocSlot
}

func (c *compiler) referenceLocal(s *syntax.ReferenceLocal) {
	t := c.expr(s.Value)
	v := &Var{Name: s.Name, Decl: s, Index: -1, Mutable: true, Reference: true, Alloc: AllocAlias}
	switch {
	case depth(t) > 0:
		v.Type = t
	default:
		acc, ok := unparen(s.Value).(*syntax.Accessor)
		src := c.uses[acc]
		if !ok || acc.Name.IsFieldAccess() || src == nil || c.directVar(src) {
			c.errorf(s, NotPointerOwner, "cannot reference %s", describe(s.Value))
		}
		st, ok := scalarOf(t)
		if !ok {
			c.errorf(s, NotScalar, "cannot reference %s of type %s", src.Name, t)
		}
		v.Type = types.AddReference(st)
	}
	c.declare(s, v)
}

// directVar reports whether the value of v is kept without a slot. Such
// variables have no address of their own.
func (c *compiler) directVar(v *Var) bool {
	if v.Reference {
		return false
	}
	if isArray(v.Type) {
		switch v.Alloc {
		case AllocStack, AllocParam, AllocHeap:
			return true
		}
		return false
	}
	if v.Mutable || c.classOf(v.Type) == nil && !isCompound(v.Type) {
		return false
	}
	switch v.Alloc {
	case AllocHeap, AllocCall, AllocTuple, AllocParam:
		return true
	}
	return false
}

// rootVar returns the local an index expression starts from, or nil.
func (c *compiler) rootVar(e syntax.Expr) *Var {
	for {
		switch x := unparen(e).(type) {
		case *syntax.Index:
			e = x.X
		case *syntax.Accessor:
			return c.uses[x]
		default:
			return nil
		}
	}
}

func (c *compiler) lookupVar(n syntax.Node, name string) *Var {
	v := c.scope.lookup(name)
	if v == nil {
		c.errorf(n, UnresolvedName, "undefined: %s%s", name, didYouMean(name, c.scope.visible()))
	}
	return v
}

// fieldPath resolves a dotted access path to its root variable and the
// chain of fields it selects.
func (c *compiler) fieldPath(n syntax.Node, q types.QualifiedName) (*Var, []*Field) {
	v := c.lookupVar(n, q.Direct())
	c.recordUse(n, v)
	t := v.Type
	if v.Reference {
		c.errorf(n, NotScalar, "cannot select a field of reference %s", v.Name)
	}
	var fields []*Field
	for _, seg := range q.Segments[1:] {
		cls := c.classOf(t)
		if cls == nil {
			c.errorf(n, InvalidOperation, "%s of type %s has no field %s", v.Name, t, seg)
		}
		f := cls.Field(seg)
		if f == nil {
			c.errorf(n, UnresolvedName, "class %s has no field %s%s", cls.Name, seg, didYouMean(seg, cls.fieldNames()))
		}
		fields = append(fields, f)
		t = c.fieldType(f)
	}
	c.paths[n] = fields
	return v, fields
}

// describe names an expression in diagnostics.
func describe(e syntax.Expr) string {
	switch e := unparen(e).(type) {
	case *syntax.Accessor:
		return e.Name.String()
	case *syntax.Call:
		return e.Name.String() + "(...)"
	case *syntax.Literal:
		return e.Value.Text
	}
	return strings.ToLower(e.Kind().String())
}

// ----------------------------------------------------------------------------
// Expressions

func (c *compiler) cond(e syntax.Expr) {
	t := c.expr(e)
	if p := types.PrimitiveOf(t); p == nil || !p.IsBoolean() {
		c.errorf(e, TypeMismatch, "non-bool %s (type %s) used as condition", describe(e), t)
	}
}

// expr resolves e and records its type.
func (c *compiler) expr(e syntax.Expr) types.Type {
	return c.recordType(e, c.exprInternal(e))
}

func (c *compiler) exprInternal(e syntax.Expr) types.Type {
	switch e := e.(type) {
	case *syntax.Literal:
		t, _, _, ok := literal(e.Value)
		if t == nil {
			c.errorf(e, InvalidOperation, "unexpected literal %s", e.Value)
		}
		if !ok {
			c.errorf(e, InvalidOperation, "constant %s overflows %s", e.Value.Text, t)
		}
		return t

	case *syntax.Accessor:
		if !e.Name.IsFieldAccess() {
			v := c.lookupVar(e, e.Name.Direct())
			c.recordUse(e, v)
			return v.Type
		}
		_, fields := c.fieldPath(e, e.Name)
		return c.fieldType(fields[len(fields)-1])

	case *syntax.Call:
		return c.call(e)

	case *syntax.New:
		return c.newExpr(e)

	case *syntax.Malloc:
		c.checkType(e, e.Type)
		if types.IsVoid(e.Type) || depth(e.Type) > 0 {
			c.errorf(e, InvalidOperation, "cannot allocate %s", e.Type)
		}
		if e.Type.IsArray() && !e.Type.Array.Dims[0].IsConstant() {
			c.errorf(e, InvalidOperation, "malloc needs a constant array size")
		}
		return e.Type

	case *syntax.SizeofType:
		c.checkType(e, e.Type)
		c.checkSized(e, e.Type)
		return types.LongType

	case *syntax.SizeofValue:
		c.checkSized(e, c.expr(e.Value))
		return types.LongType

	case *syntax.Tuple:
		members := make([]types.Type, len(e.Members))
		for i, m := range e.Members {
			members[i] = c.expr(m)
			if types.IsVoid(members[i]) || members[i] == nullType {
				c.errorf(m, TypeMismatch, "%s cannot be a tuple member", describe(m))
			}
		}
		return types.NewCompound(members...)

	case *syntax.Group:
		return c.expr(e.X)

	case *syntax.Cast:
		return c.cast(e)

	case *syntax.Unary:
		return c.unary(e)

	case *syntax.Binary:
		return c.binary(e)

	case *syntax.RefAccess:
		v := c.lookupVar(e, e.Name)
		if !v.Mutable {
			c.errorf(e, NotMutable, "cannot reference immutable %s", e.Name)
		}
		if c.directVar(v) {
			c.errorf(e, NotPointerOwner, "cannot reference %s", e.Name)
		}
		s, ok := scalarOf(v.Type)
		if !ok {
			c.errorf(e, NotScalar, "cannot reference %s of type %s", e.Name, v.Type)
		}
		c.recordUse(e, v)
		return types.AddReference(s)

	case *syntax.DerefAccess:
		v := c.lookupVar(e, e.Name)
		s, ok := scalarOf(v.Type)
		if !ok || s.Referencing.Depth() == 0 {
			c.errorf(e, NotReference, "cannot dereference %s of type %s", e.Name, v.Type)
		}
		c.recordUse(e, v)
		r, _ := types.RemoveReference(s)
		return r

	case *syntax.Index:
		return c.index(e)

	case *syntax.ArrayLiteral:
		if len(e.Elems) == 0 {
			c.errorf(e, InvalidOperation, "empty array literal")
		}
		first := c.expr(e.Elems[0])
		elem, ok := scalarOf(first)
		if !ok || elem.IsArray() || types.IsVoid(first) || first == nullType {
			c.errorf(e.Elems[0], InvalidOperation, "%s cannot be an array element", describe(e.Elems[0]))
		}
		for _, x := range e.Elems[1:] {
			if t := c.expr(x); !types.Identical(t, first) || depth(t) != depth(first) {
				c.mismatch(x, "array literal", first, t)
			}
		}
		return arrayOf(elem, types.ConstantDimension(len(e.Elems)))

	case *syntax.ArrayAlloc:
		c.checkType(e, e.Elem)
		if types.IsVoid(e.Elem) {
			c.errorf(e, InvalidOperation, "array of void")
		}
		st := c.expr(e.Size)
		if p := types.PrimitiveOf(st); p == nil || !p.IsInteger() {
			c.errorf(e.Size, TypeMismatch, "array size has type %s, want an integer", st)
		}
		dim := types.ImplicitDimension()
		switch x := unparen(e.Size).(type) {
		case *syntax.Literal:
			if n, ok := constIndex(x); ok {
				if n < 0 {
					c.errorf(e.Size, InvalidOperation, "negative array size %d", n)
				}
				dim = types.ConstantDimension(int(n))
			}
		case *syntax.Accessor:
			if !x.Name.IsFieldAccess() {
				dim = types.SymbolicDimension(x.Name.Direct())
			}
		}
		return arrayOf(e.Elem, dim)

	case *syntax.Selection:
		c.cond(e.Cond)
		x, y := c.expr(e.Then), c.expr(e.Else)
		switch {
		case x == nullType && c.pointerLike(y):
			return y
		case y == nullType && c.pointerLike(x):
			return x
		case types.Identical(x, y) && depth(x) == depth(y) && !types.IsVoid(x):
			return x
		}
		px, py := types.PrimitiveOf(x), types.PrimitiveOf(y)
		if px != nil && py != nil && px.IsNumeric() && py.IsNumeric() {
			return basicOf(types.Promote(px, py))
		}
		c.errorf(e, TypeMismatch, "mismatched types %s and %s in conditional expression", x, y)
	}
	c.errorf(e, InvalidOperation, "unexpected %s expression", e.Kind())
	return nil
}

func (c *compiler) checkSized(n syntax.Node, t types.Type) {
	if types.IsVoid(t) || t == nullType {
		c.errorf(n, InvalidOperation, "sizeof %s", t)
	}
	if isArray(t) {
		s, _ := scalarOf(t)
		if !s.Array.Dims[0].IsConstant() {
			c.errorf(n, InvalidOperation, "sizeof unsized array %s", t)
		}
	}
}

func (c *compiler) call(e *syntax.Call) types.Type {
	args := make([]types.Type, len(e.Args))
	for i, a := range e.Args {
		args[i] = c.expr(a)
	}
	if e.Generics.Explicit {
		c.errorf(e, InvalidOperation, "generic call of %s is not supported", e.Name)
	}
	owner, key, m := c.pkg.lookupMethod(e.Name, args)
	if m == nil {
		name := e.Name.String()
		if name == "println" {
			for i, t := range args {
				if types.IsVoid(t) || isCompound(t) {
					c.errorf(e.Args[i], TypeMismatch, "cannot print %s", describe(e.Args[i]))
				}
			}
			c.recordCall(e, &callTarget{builtin: builtinPrintln})
			return types.VoidType
		}
		if owner != nil && len(owner.Overloads(key)) > 0 {
			c.errorf(e, UnresolvedMethod, "no overload of %s matches (%s)", name, typeList(args))
		}
		if e.Name.IsFieldAccess() {
			if _, ok := c.pkg.imported[e.Name.Direct()]; !ok && c.pkg.classes[e.Name.Direct()] == nil {
				c.errorf(e, UnresolvedName, "undefined: %s", e.Name.Direct())
			}
		}
		c.errorf(e, UnresolvedMethod, "undefined method: %s%s", name, didYouMean(name, c.pkg.methodNames()))
	}
	for i, p := range m.Params {
		if depth(p.Type) != depth(args[i]) {
			c.errorf(e.Args[i], NotReference, "argument %d of %s: cannot use %s as %s", i+1, e.Name, args[i], p.Type)
		}
	}
	c.recordCall(e, &callTarget{method: m, owner: owner, key: key})
	return c.qualifier(owner)(m.Result.Unnamed())
}

func typeList(ts []types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func (c *compiler) newExpr(e *syntax.New) types.Type {
	c.checkType(e, e.Type)
	if depth(e.Type) > 0 || e.Type.IsArray() || types.IsVoid(e.Type) {
		c.errorf(e, InvalidOperation, "cannot allocate %s", e.Type)
	}
	args := make([]types.Type, len(e.Args))
	for i, a := range e.Args {
		args[i] = c.expr(a)
	}
	if p := types.PrimitiveOf(e.Type); p != nil {
		if len(args) > 1 {
			c.errorf(e, InvalidOperation, "too many arguments to new %s", e.Type)
		}
		if len(args) == 1 {
			c.assign(e.Args[0], "new "+e.Type.String(), e.Type, args[0])
		}
		return e.Type.WithReferencing(types.None())
	}
	cls := c.classOf(e.Type)
	if len(args) > len(cls.Fields) {
		c.errorf(e, InvalidOperation, "too many arguments to new %s: have %d, want at most %d", cls.Name, len(args), len(cls.Fields))
	}
	for i, a := range args {
		f := cls.Fields[i]
		if f.Type.IsArray() {
			c.errorf(e.Args[i], InvalidOperation, "cannot initialize array field %s", f.Name)
		}
		c.assign(e.Args[i], "new "+cls.Name, c.fieldType(f), a)
	}
	return e.Type.WithReferencing(types.None())
}

func (c *compiler) cast(e *syntax.Cast) types.Type {
	t := c.expr(e.X)
	c.checkType(e, e.Type)
	from, to := types.PrimitiveOf(t), types.PrimitiveOf(e.Type)
	if from == nil || to == nil {
		c.errorf(e, NotScalar, "cannot cast %s to %s", t, e.Type)
	}
	if from == to {
		c.errorf(e, TypeMismatch, "redundant cast of %s to %s", describe(e.X), e.Type)
	}
	ok := func(p *types.Primitive) bool { return p.IsNumeric() || p.IsBoolean() }
	if !ok(from) || !ok(to) {
		c.errorf(e, InvalidOperation, "cannot cast %s to %s", t, e.Type)
	}
	return basicOf(to)
}

func (c *compiler) unary(e *syntax.Unary) types.Type {
	t := c.expr(e.X)
	p := types.PrimitiveOf(t)
	switch e.Op {
	case "-":
		if p != nil && p.IsNumeric() {
			return basicOf(p)
		}
	case "!":
		if p != nil && p.IsBoolean() {
			return types.BoolType
		}
	case "++", "--":
		acc, ok := unparen(e.X).(*syntax.Accessor)
		if !ok || acc.Name.IsFieldAccess() {
			c.errorf(e, InvalidOperation, "cannot apply %s to %s", e.Op, describe(e.X))
		}
		v := c.uses[acc]
		if !v.Mutable || v.Reference {
			c.errorf(e, NotMutable, "cannot apply %s to immutable %s", e.Op, v.Name)
		}
		if p != nil && p.IsInteger() {
			return basicOf(p)
		}
	}
	c.errorf(e, InvalidOperation, "operator %s not defined on %s (type %s)", e.Op, describe(e.X), t)
	return nil
}

func (c *compiler) binary(e *syntax.Binary) types.Type {
	x, y := c.expr(e.X), c.expr(e.Y)
	px, py := types.PrimitiveOf(x), types.PrimitiveOf(y)
	numeric := px != nil && py != nil && px.IsNumeric() && py.IsNumeric()

	switch op := e.Op; {
	case op.IsLogical():
		if px != nil && py != nil && px.IsBoolean() && py.IsBoolean() {
			return types.BoolType
		}
	case op.IsComparison():
		if numeric {
			return types.BoolType
		}
		if op == syntax.Eql || op == syntax.Neq {
			switch {
			case px != nil && py != nil && px.IsBoolean() && py.IsBoolean():
				return types.BoolType
			case x == nullType && c.pointerLike(y), y == nullType && c.pointerLike(x):
				return types.BoolType
			case c.pointerLike(x) && types.Identical(x, y) && depth(x) == depth(y):
				return types.BoolType
			}
		}
	case op == syntax.Pow:
		if numeric {
			if px.IsFloat() || py.IsFloat() {
				c.errorf(e, InvalidOperation, "operator ^ requires integer operands, have %s and %s", x, y)
			}
			return basicOf(types.Promote(px, py))
		}
	case op == syntax.Add, op == syntax.Sub, op == syntax.Mul, op == syntax.Div, op == syntax.Mod:
		if numeric {
			return basicOf(types.Promote(px, py))
		}
	default:
		c.errorf(e, InvalidOperation, "operator %s is not supported", op)
	}
	c.errorf(e, TypeMismatch, "mismatched types %s and %s for operator %s", x, y, e.Op)
	return nil
}

func (c *compiler) index(e *syntax.Index) types.Type {
	xt := c.expr(e.X)
	it := c.expr(e.Index)
	s, ok := scalarOf(xt)
	if !ok || !s.IsArray() || s.Referencing.Depth() > 0 {
		c.errorf(e, InvalidOperation, "cannot index %s of type %s", describe(e.X), xt)
	}
	if p := types.PrimitiveOf(it); p == nil || !p.IsInteger() {
		c.errorf(e.Index, TypeMismatch, "array index has type %s, want an integer", it)
	}
	if n, ok := s.Array.Dims[0].SizeConstant(); ok {
		if i, ok := constIndex(e.Index); ok {
			if i < 0 || i >= int64(n) {
				c.errorf(e.Index, IndexOutOfBounds, "index %d out of bounds for array of length %d", i, n)
			}
			c.consts[e] = i
		}
	}
	elem, _ := types.ElementType(s)
	return elem
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// qualifier returns how the types of owner's declarations are written
// in this unit. Imported packages are referred to by name.
func (c *compiler) qualifier(owner *Package) func(types.Type) types.Type {
	if owner == nil || owner == c.pkg {
		return func(t types.Type) types.Type { return t }
	}
	for _, u := range c.pkg.using {
		if u == owner {
			return func(t types.Type) types.Type { return t }
		}
	}
	return owner.Qualify
}

// fieldType returns the type of f as seen from this unit.
func (c *compiler) fieldType(f *Field) *types.Scalar {
	if f.class == nil || f.class.pkg == c.pkg {
		return f.Type
	}
	s, _ := c.qualifier(f.class.pkg)(f.Type).(*types.Scalar)
	return s
}
