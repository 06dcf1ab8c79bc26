package types

// PrimitiveKind describes the kind of a built-in scalar type.
type PrimitiveKind int

const (
	Invalid PrimitiveKind = iota // not a primitive

	Bool
	Char
	Byte
	UByte
	Short
	UShort
	Int
	UInt
	Long
	ULong
	Float
	Double
	String
	Void
)

// PrimitiveInfo describes properties of a primitive type.
type PrimitiveInfo int

const (
	IsBoolean PrimitiveInfo = 1 << iota
	IsInteger
	IsUnsigned
	IsFloat
	IsString
	IsVoidKind
	IsNumeric = IsInteger | IsFloat
)

// Primitive is a built-in scalar type.
type Primitive struct {
	kind PrimitiveKind
	info PrimitiveInfo
	name string
	// prec orders implicit promotion in binary operations.
	prec int
	// bits is the storage width.
	bits int
}

// Kind returns the kind of the primitive.
func (p *Primitive) Kind() PrimitiveKind { return p.kind }

// Info returns information about the primitive.
func (p *Primitive) Info() PrimitiveInfo { return p.info }

// Name returns the keyword of the primitive.
func (p *Primitive) Name() string { return p.name }

// Precedence returns the promotion precedence. The operand with the
// higher precedence determines the type of a binary operation.
func (p *Primitive) Precedence() int { return p.prec }

// Bits returns the storage width in bits.
func (p *Primitive) Bits() int { return p.bits }

// Size returns the storage size in bytes, rounding i1 up to one byte.
func (p *Primitive) Size() int64 {
	if p.bits == 0 {
		return 0
	}
	return int64((p.bits + 7) / 8)
}

func (p *Primitive) IsInteger() bool { return p.info&IsInteger != 0 }
func (p *Primitive) IsFloat() bool   { return p.info&IsFloat != 0 }
func (p *Primitive) IsNumeric() bool { return p.info&IsNumeric != 0 }
func (p *Primitive) IsBoolean() bool { return p.info&IsBoolean != 0 }

func (p *Primitive) String() string { return p.name }

// Prim holds the primitive types, indexed by PrimitiveKind.
// Prim[Invalid] is nil.
var Prim = []*Primitive{
	Invalid: nil,
	Bool:    {kind: Bool, info: IsBoolean, name: "bool", prec: 0, bits: 1},
	Char:    {kind: Char, info: IsInteger, name: "char", prec: 1, bits: 8},
	Byte:    {kind: Byte, info: IsInteger, name: "byte", prec: 2, bits: 8},
	UByte:   {kind: UByte, info: IsInteger | IsUnsigned, name: "ubyte", prec: 2, bits: 8},
	Short:   {kind: Short, info: IsInteger, name: "short", prec: 3, bits: 16},
	UShort:  {kind: UShort, info: IsInteger | IsUnsigned, name: "ushort", prec: 3, bits: 16},
	Int:     {kind: Int, info: IsInteger, name: "int", prec: 4, bits: 32},
	UInt:    {kind: UInt, info: IsInteger | IsUnsigned, name: "uint", prec: 4, bits: 32},
	Long:    {kind: Long, info: IsInteger, name: "long", prec: 5, bits: 64},
	ULong:   {kind: ULong, info: IsInteger | IsUnsigned, name: "ulong", prec: 5, bits: 64},
	Float:   {kind: Float, info: IsFloat, name: "float", prec: 6, bits: 32},
	Double:  {kind: Double, info: IsFloat, name: "double", prec: 7, bits: 64},
	String:  {kind: String, info: IsString, name: "string", prec: -1, bits: 64},
	Void:    {kind: Void, info: IsVoidKind, name: "void", prec: -1, bits: 0},
}

var primByName = func() map[string]*Primitive {
	m := make(map[string]*Primitive, len(Prim))
	for _, p := range Prim {
		if p != nil {
			m[p.name] = p
		}
	}
	return m
}()

// LookupPrimitive returns the primitive named by keyword, or nil.
func LookupPrimitive(keyword string) *Primitive {
	return primByName[keyword]
}

// PrimitiveOf returns the primitive that s denotes. Arrays and
// references of primitives are not primitives; a mut qualifier is
// ignored.
func PrimitiveOf(t Type) *Primitive {
	s, ok := Unwrap(t).(*Scalar)
	if !ok || s.IsArray() || s.Referencing.Depth() > 0 || !s.Name.IsPrimitive() {
		return nil
	}
	return primByName[s.Name.Primitive()]
}

// Promote returns the primitive a binary operation on x and y is
// evaluated in. Ties keep x.
func Promote(x, y *Primitive) *Primitive {
	if y.prec > x.prec {
		return y
	}
	return x
}
