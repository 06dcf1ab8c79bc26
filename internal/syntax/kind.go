package syntax

import "fmt"

// Kind tags the variant of a node.
type Kind uint8

const (
	KindInvalid Kind = iota

	// control
	KindFinish
	KindError

	// declarations
	KindPackage
	KindImport
	KindUsing
	KindModifierBlock
	KindModifierList
	KindClass
	KindField
	KindMethod

	// statements
	KindExprStmt
	KindLocalDeclare
	KindLocalDeclareAssign
	KindImmutableLocal
	KindMutableLocal
	KindReferenceLocal
	KindDestructure
	KindLocalAssign
	KindFieldAssign
	KindIndexAssign
	KindIf
	KindElse
	KindWhile
	KindReturn
	KindFree

	// expressions
	KindLiteral
	KindAccessor
	KindCall
	KindNew
	KindMalloc
	KindSizeofType
	KindSizeofValue
	KindTuple
	KindGroup
	KindCast
	KindUnary
	KindBinary
	KindRefAccess
	KindDerefAccess
	KindIndex
	KindArrayLiteral
	KindArrayAlloc
	KindSelection

	kindCount
)

var kindNames = [...]string{
	KindInvalid:            "Invalid",
	KindFinish:             "Finish",
	KindError:              "Error",
	KindPackage:            "Package",
	KindImport:             "Import",
	KindUsing:              "Using",
	KindModifierBlock:      "ModifierBlock",
	KindModifierList:       "ModifierList",
	KindClass:              "Class",
	KindField:              "Field",
	KindMethod:             "Method",
	KindExprStmt:           "ExprStmt",
	KindLocalDeclare:       "LocalDeclare",
	KindLocalDeclareAssign: "LocalDeclareAssign",
	KindImmutableLocal:     "ImmutableLocal",
	KindMutableLocal:       "MutableLocal",
	KindReferenceLocal:     "ReferenceLocal",
	KindDestructure:        "Destructure",
	KindLocalAssign:        "LocalAssign",
	KindFieldAssign:        "FieldAssign",
	KindIndexAssign:        "IndexAssign",
	KindIf:                 "If",
	KindElse:               "Else",
	KindWhile:              "While",
	KindReturn:             "Return",
	KindFree:               "Free",
	KindLiteral:            "Literal",
	KindAccessor:           "Accessor",
	KindCall:               "Call",
	KindNew:                "New",
	KindMalloc:             "Malloc",
	KindSizeofType:         "SizeofType",
	KindSizeofValue:        "SizeofValue",
	KindTuple:              "Tuple",
	KindGroup:              "Group",
	KindCast:               "Cast",
	KindUnary:              "Unary",
	KindBinary:             "Binary",
	KindRefAccess:          "RefAccess",
	KindDerefAccess:        "DerefAccess",
	KindIndex:              "Index",
	KindArrayLiteral:       "ArrayLiteral",
	KindArrayAlloc:         "ArrayAlloc",
	KindSelection:          "Selection",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (*Finish) Kind() Kind             { return KindFinish }
func (*Error) Kind() Kind              { return KindError }
func (*Package) Kind() Kind            { return KindPackage }
func (*Import) Kind() Kind             { return KindImport }
func (*Using) Kind() Kind              { return KindUsing }
func (*ModifierBlock) Kind() Kind      { return KindModifierBlock }
func (*ModifierList) Kind() Kind       { return KindModifierList }
func (*Class) Kind() Kind              { return KindClass }
func (*Field) Kind() Kind              { return KindField }
func (*Method) Kind() Kind             { return KindMethod }
func (*ExprStmt) Kind() Kind           { return KindExprStmt }
func (*LocalDeclare) Kind() Kind       { return KindLocalDeclare }
func (*LocalDeclareAssign) Kind() Kind { return KindLocalDeclareAssign }
func (*ImmutableLocal) Kind() Kind     { return KindImmutableLocal }
func (*MutableLocal) Kind() Kind       { return KindMutableLocal }
func (*ReferenceLocal) Kind() Kind     { return KindReferenceLocal }
func (*Destructure) Kind() Kind        { return KindDestructure }
func (*LocalAssign) Kind() Kind        { return KindLocalAssign }
func (*FieldAssign) Kind() Kind        { return KindFieldAssign }
func (*IndexAssign) Kind() Kind        { return KindIndexAssign }
func (*If) Kind() Kind                 { return KindIf }
func (*Else) Kind() Kind               { return KindElse }
func (*While) Kind() Kind              { return KindWhile }
func (*Return) Kind() Kind             { return KindReturn }
func (*Free) Kind() Kind               { return KindFree }
func (*Literal) Kind() Kind            { return KindLiteral }
func (*Accessor) Kind() Kind           { return KindAccessor }
func (*Call) Kind() Kind               { return KindCall }
func (*New) Kind() Kind                { return KindNew }
func (*Malloc) Kind() Kind             { return KindMalloc }
func (*SizeofType) Kind() Kind         { return KindSizeofType }
func (*SizeofValue) Kind() Kind        { return KindSizeofValue }
func (*Tuple) Kind() Kind              { return KindTuple }
func (*Group) Kind() Kind              { return KindGroup }
func (*Cast) Kind() Kind               { return KindCast }
func (*Unary) Kind() Kind              { return KindUnary }
func (*Binary) Kind() Kind             { return KindBinary }
func (*RefAccess) Kind() Kind          { return KindRefAccess }
func (*DerefAccess) Kind() Kind        { return KindDerefAccess }
func (*Index) Kind() Kind              { return KindIndex }
func (*ArrayLiteral) Kind() Kind       { return KindArrayLiteral }
func (*ArrayAlloc) Kind() Kind         { return KindArrayAlloc }
func (*Selection) Kind() Kind          { return KindSelection }
