package compile

import (
	"math"
	"strconv"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/token"
	"github.com/you-not-fish/voidc/internal/types"
)

// nullType is the type of the null literal. It is compared by identity.
var nullType = types.Basic("void").WithReferencing(types.Ref(1))

func scalarOf(t types.Type) (*types.Scalar, bool) {
	s, ok := types.Unwrap(t).(*types.Scalar)
	return s, ok
}

func compoundOf(t types.Type) (*types.Compound, bool) {
	c, ok := types.Unwrap(t).(*types.Compound)
	return c, ok
}

// depth returns the reference depth of t.
func depth(t types.Type) int {
	switch t := types.Unwrap(t).(type) {
	case *types.Scalar:
		return t.Referencing.Depth()
	case *types.Compound:
		return t.Referencing.Depth()
	}
	return 0
}

func isArray(t types.Type) bool {
	s, ok := scalarOf(t)
	return ok && s.IsArray() && s.Referencing.Depth() == 0
}

func isCompound(t types.Type) bool {
	_, ok := compoundOf(t)
	return ok && depth(t) == 0
}

// classOf returns the class t names, or nil.
func (c *compiler) classOf(t types.Type) *Class {
	s, ok := scalarOf(t)
	if !ok || s.IsArray() || s.Referencing.Depth() > 0 || s.Name.IsPrimitive() {
		return nil
	}
	return c.pkg.ResolveType(s.Name)
}

// pointerLike reports whether values of t are addresses.
func (c *compiler) pointerLike(t types.Type) bool {
	if depth(t) > 0 || isArray(t) || isCompound(t) || c.classOf(t) != nil {
		return true
	}
	p := types.PrimitiveOf(t)
	return p != nil && p.Kind() == types.String
}

// isCell reports whether a variable of type t is read by loading from
// its storage, as opposed to aggregates whose value is an address.
func (c *compiler) isCell(t types.Type) bool {
	return !isArray(t) && !isCompound(t) && c.classOf(t) == nil
}

// arrayOf returns the array of elem with dim as its new outermost
// dimension.
func arrayOf(elem *types.Scalar, dim types.Dimension) *types.Scalar {
	s := *elem.WithReferencing(types.None())
	s.Array = types.Array{Dims: append([]types.Dimension{dim}, elem.Array.Dims...)}
	return &s
}

// basicOf returns the unqualified scalar of a primitive.
func basicOf(p *types.Primitive) *types.Scalar {
	return types.Basic(p.Name())
}

// assignable reports whether a value of type src can be stored where dst
// is expected, possibly after an implicit conversion.
func (c *compiler) assignable(dst, src types.Type) bool {
	if src == nullType {
		return c.pointerLike(dst)
	}
	if types.IsVoid(src) || types.IsVoid(dst) {
		return false
	}
	if types.Identical(dst, src) && depth(dst) == depth(src) {
		return true
	}
	pd, ps := types.PrimitiveOf(dst), types.PrimitiveOf(src)
	if pd != nil && ps != nil {
		return pd.IsNumeric() && ps.IsNumeric() && ps.Precedence() <= pd.Precedence()
	}
	// a sized array decays to an unsized or symbolic first dimension
	if isArray(dst) && isArray(src) {
		ds, _ := scalarOf(dst)
		ss, _ := scalarOf(src)
		if ds.Array.Dims[0].IsConstant() {
			return false
		}
		de, _ := types.ElementType(ds)
		se, _ := types.ElementType(ss)
		return types.Identical(de, se)
	}
	return false
}

// assign reports a TypeMismatch unless src is assignable to dst.
func (c *compiler) assign(n syntax.Node, what string, dst, src types.Type) {
	if !c.assignable(dst, src) {
		c.mismatch(n, what, dst, src)
	}
}

// ----------------------------------------------------------------------------
// Literals

// literal returns the type and value of a literal token. Integers are
// returned in i, floating-point values in f.
func literal(t token.Token) (typ *types.Scalar, i int64, f float64, ok bool) {
	switch t.Kind {
	case token.String:
		return types.StringType, 0, 0, true
	case token.Character:
		r := []rune(t.Text)
		if len(r) != 1 || r[0] > math.MaxUint8 {
			return types.Basic("char"), 0, 0, false
		}
		return types.Basic("char"), int64(r[0]), 0, true
	case token.Boolean:
		if t.Text == "true" {
			i = 1
		}
		return types.BoolType, i, 0, true
	case token.Null:
		return nullType, 0, 0, true
	case token.Float, token.Double:
		typ = types.DoubleType
		bits := 64
		if t.Kind == token.Float {
			typ, bits = types.Basic("float"), 32
		}
		v, err := strconv.ParseFloat(t.Text, bits)
		return typ, 0, v, err == nil
	case token.Hexadecimal, token.Binary:
		u, err := strconv.ParseUint(t.Text, 0, 64)
		if u <= math.MaxInt32 {
			return types.IntType, int64(u), 0, err == nil
		}
		return types.LongType, int64(u), 0, err == nil
	}

	kw, ok := integerLiterals[t.Kind]
	if !ok {
		return nil, 0, 0, false
	}
	p := types.LookupPrimitive(kw)
	if t.Kind.IsUnsigned() {
		u, err := strconv.ParseUint(t.Text, 10, p.Bits())
		return basicOf(p), int64(u), 0, err == nil
	}
	v, err := strconv.ParseInt(t.Text, 10, p.Bits())
	return basicOf(p), v, 0, err == nil
}

var integerLiterals = map[token.Kind]string{
	token.Byte:     "byte",
	token.UByte:    "ubyte",
	token.Short:    "short",
	token.UShort:   "ushort",
	token.Integer:  "int",
	token.UInteger: "uint",
	token.Long:     "long",
	token.ULong:    "ulong",
}

// constIndex returns the value of an integer constant index expression.
func constIndex(e syntax.Expr) (int64, bool) {
	switch e := e.(type) {
	case *syntax.Group:
		return constIndex(e.X)
	case *syntax.Unary:
		if e.Op == "-" {
			v, ok := constIndex(e.X)
			return -v, ok
		}
	case *syntax.Literal:
		if !e.Value.Kind.IsNumber() || e.Value.Kind == token.Float || e.Value.Kind == token.Double {
			return 0, false
		}
		_, v, _, ok := literal(e.Value)
		return v, ok
	}
	return 0, false
}

func unparen(e syntax.Expr) syntax.Expr {
	for {
		g, ok := e.(*syntax.Group)
		if !ok {
			return e
		}
		e = g.X
	}
}

// ----------------------------------------------------------------------------
// Backend types

// irType returns the backend type of values of t. Classes, tuples and
// arrays are represented by their address.
func (c *compiler) irType(t types.Type) ir.Type {
	ctx := c.u.ctx
	var base ir.Type
	switch t := types.Unwrap(t).(type) {
	case *types.Compound:
		base = ctx.PointerTo(c.tupleStruct(t))
	case *types.Scalar:
		base = c.valueType(t)
	default:
		panic("compile: no backend type for " + t.String())
	}
	for i := depth(t); i > 0; i-- {
		base = ctx.PointerTo(base)
	}
	return base
}

// valueType is irType of a scalar, ignoring its referencing.
func (c *compiler) valueType(s *types.Scalar) ir.Type {
	ctx := c.u.ctx
	if s.IsArray() {
		elem, _ := types.ElementType(s)
		if n, ok := s.Array.Dims[0].SizeConstant(); ok {
			return ctx.PointerTo(ctx.ArrayOf(c.storageType(elem), n))
		}
		return ctx.PointerTo(c.storageType(elem))
	}
	if p := types.LookupPrimitive(s.Name.Primitive()); p != nil && s.Name.IsPrimitive() {
		return c.primType(p)
	}
	cls := c.pkg.ResolveType(s.Name)
	if cls == nil {
		panic("compile: unresolved class " + s.Name.String())
	}
	return ctx.PointerTo(c.classStruct(cls))
}

// storageType returns the in-memory type of a t stored inline in an
// array element or a field. Sized arrays are stored inline.
func (c *compiler) storageType(s *types.Scalar) ir.Type {
	if s.IsArray() && s.Referencing.Depth() == 0 {
		n, ok := s.Array.Dims[0].SizeConstant()
		if !ok {
			panic("compile: inline storage of unsized array " + s.String())
		}
		elem, _ := types.ElementType(s)
		return c.u.ctx.ArrayOf(c.storageType(elem), n)
	}
	return c.irType(s)
}

// sizeType is the type whose size sizeof reports: the object itself for
// classes and tuples.
func (c *compiler) sizeType(t types.Type) ir.Type {
	if cls := c.classOf(t); cls != nil {
		return c.classStruct(cls)
	}
	if ct, ok := compoundOf(t); ok && depth(t) == 0 {
		return c.tupleStruct(ct)
	}
	if s, ok := scalarOf(t); ok {
		return c.storageType(s)
	}
	return c.irType(t)
}

func (c *compiler) primType(p *types.Primitive) ir.Type {
	ctx := c.u.ctx
	switch p.Kind() {
	case types.Float:
		return ctx.Float()
	case types.Double:
		return ctx.Double()
	case types.String:
		return ctx.PointerTo(ctx.Int(8))
	case types.Void:
		return ctx.Void()
	}
	return ctx.Int(p.Bits())
}

func (c *compiler) tupleStruct(t *types.Compound) ir.Type {
	fields := make([]ir.Type, len(t.Members))
	for i, m := range t.Members {
		fields[i] = c.irType(m)
	}
	return c.u.ctx.StructOf(fields...)
}

// classStruct returns the struct layout of cls, computing it on first use.
func (c *compiler) classStruct(cls *Class) ir.Type {
	if st, ok := c.u.structs[cls]; ok {
		return st
	}
	if c.u.layouts[cls] == layoutActive {
		c.errorf(cls.Decl, InvalidOperation, "class %s has a recursive layout", cls.Name)
	}
	c.u.layouts[cls] = layoutActive
	fields := make([]ir.Type, len(cls.Fields))
	for i, f := range cls.Fields {
		fields[i] = c.storageType(c.fieldType(f))
	}
	st := c.u.ctx.StructOf(fields...)
	c.u.layouts[cls] = layoutDone
	c.u.structs[cls] = st
	return st
}

// zero returns the zero value of a backend type.
func (c *compiler) zero(t ir.Type) ir.Value {
	switch t.Kind() {
	case ir.IntKind:
		return c.u.ctx.ConstInt(t, 0)
	case ir.FloatKind:
		return c.u.ctx.ConstFloat(t, 0)
	}
	return c.u.ctx.Null(t)
}
