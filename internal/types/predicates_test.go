package types

import "testing"

func TestIdentical(t *testing.T) {
	listOf := func(elem Type) *Scalar {
		return NewScalar(None(), Named("List"), GenericArgumentList{Explicit: true, Args: []GenericArgument{{Type: elem}}}, NoArray())
	}

	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same primitive", Basic("int"), Basic("int"), true},
		{"diff primitive", Basic("int"), Basic("long"), false},
		{"ref ignored", Basic("int").WithReferencing(Ref(1)), Basic("int"), true},
		{"mut ignored", Basic("int").WithReferencing(Mut()), Basic("int"), true},
		{"same array", ArrayOf(Basic("int"), ConstantDimension(4)), ArrayOf(Basic("int"), ConstantDimension(4)), true},
		{"diff array len", ArrayOf(Basic("int"), ConstantDimension(4)), ArrayOf(Basic("int"), ConstantDimension(5)), false},
		{"array vs scalar", ArrayOf(Basic("int"), ImplicitDimension()), Basic("int"), false},
		{"implicit vs explicit", ArrayOf(Basic("int"), ImplicitDimension()), ArrayOf(Basic("int"), ConstantDimension(1)), false},
		{"same generics", listOf(Basic("int")), listOf(Basic("int")), true},
		{"diff generics", listOf(Basic("int")), listOf(Basic("long")), false},
		{"diamond vs none", NewScalar(None(), Named("List"), Diamond(), NoArray()), ClassType("List"), false},
		{"qualified", NewScalar(None(), Named("a", "Foo"), NoGenerics(), NoArray()), ClassType("Foo"), false},
		{"same tuple", NewCompound(Basic("int"), Basic("bool")), NewCompound(Basic("int"), Basic("bool")), true},
		{"diff tuple", NewCompound(Basic("int"), Basic("bool")), NewCompound(Basic("bool"), Basic("int")), false},
		{"tuple arity", NewCompound(Basic("int")), NewCompound(Basic("int"), Basic("int")), false},
		{"named scalar", NewNamedScalar(Basic("int"), "x"), Basic("int"), true},
		{
			"tuple vs named group",
			NewCompound(Basic("bool"), Basic("string")),
			&NamedGroup{Members: []NamedType{NewNamedScalar(Basic("bool"), "ok"), NewNamedScalar(Basic("string"), "msg")}},
			true,
		},
		{
			"same lambda",
			&Lambda{Result: Basic("int"), Params: []*LambdaParam{{Type: Basic("int")}}},
			&Lambda{Result: Basic("int"), Params: []*LambdaParam{{Type: Basic("int"), Name: &ScalarName{Value: "x"}, Named: true}}},
			true,
		},
		{
			"diff lambda result",
			&Lambda{Result: Basic("int"), Params: nil},
			&Lambda{Result: Basic("void"), Params: nil},
			false,
		},
		{"scalar vs tuple", Basic("int"), NewCompound(Basic("int")), false},
		{"nil", Basic("int"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identical(tt.a, tt.b); got != tt.want {
				t.Errorf("Identical(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Identical(tt.b, tt.a); got != tt.want {
				t.Errorf("Identical(%v, %v) = %v, want %v (reversed)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestIsClassType(t *testing.T) {
	if !IsClassType(ClassType("Point")) {
		t.Errorf("IsClassType(Point) = false")
	}
	if IsClassType(Basic("int")) {
		t.Errorf("IsClassType(int) = true")
	}
	if IsClassType(ArrayOf(ClassType("Point"), ConstantDimension(2))) {
		t.Errorf("IsClassType(Point[2]) = true")
	}
	if !IsVoid(VoidType) || IsVoid(IntType) {
		t.Errorf("IsVoid mismatch")
	}
}

func TestVoidPrimitive(t *testing.T) {
	p := PrimitiveOf(VoidType)
	if p == nil {
		t.Fatal("PrimitiveOf(void) = nil")
	}
	if p.Info()&IsVoidKind == 0 {
		t.Errorf("void info = %b, want IsVoidKind set", p.Info())
	}
	if p.IsNumeric() || p.IsBoolean() {
		t.Errorf("void classified as numeric or boolean")
	}
	if q := PrimitiveOf(IntType); q.Info()&IsVoidKind != 0 {
		t.Errorf("int info has IsVoidKind set")
	}
}
