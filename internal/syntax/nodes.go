// Package syntax implements the abstract syntax tree and the parser of
// the Void programming language.
package syntax

import (
	"github.com/you-not-fish/voidc/internal/token"
	"github.com/you-not-fish/voidc/internal/types"
)

// ----------------------------------------------------------------------------
// Interfaces
//
// There are 3 main classes of nodes: Declarations, Statements, and
// Expressions. All nodes implement the Node interface and report their
// variant through Kind. The parent back-reference is a plain observer
// pointer set by the compiler's pre-process phase; children are owned by
// the node holding them.

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() Kind            // variant tag
	Pos() token.Pos        // position of the first token belonging to the node
	Parent() Node          // syntactic parent, nil before pre-processing
	SetParent(parent Node) // records the syntactic parent
	aNode()                // marker method to restrict implementations to this package
}

// Decl is the interface for top-level and class-member declarations.
type Decl interface {
	Node
	aDecl()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	aStmt()
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	aExpr()
}

// ----------------------------------------------------------------------------
// Capabilities
//
// Capabilities are implemented only by the variants that have them. The
// compiler queries them with a type assertion.

// StackAllocator is a value that can materialize itself on the stack.
type StackAllocator interface {
	Node
	stackAllocator()
}

// HeapAllocator is a value that can materialize itself on the heap.
type HeapAllocator interface {
	Node
	heapAllocator()
}

// PointerOwner is a value backed by an address that can be referenced
// or freed.
type PointerOwner interface {
	Node
	pointerOwner()
}

// Loadable is a value read by loading from an address.
type Loadable interface {
	Node
	loadable()
}

// Mutable is a binding that accepts stores after its initialization.
type Mutable interface {
	Node
	mutable()
}

// Local is implemented by every local variable declaration.
type Local interface {
	Stmt
	LocalName() string
	// Initializer returns the initial value, or nil.
	Initializer() Expr
	// DeclaredType returns the written type, or nil when inferred.
	DeclaredType() *types.Scalar
}

// ----------------------------------------------------------------------------
// Base node types

// node is the base struct embedded in all AST nodes.
type node struct {
	pos    token.Pos
	parent Node
}

func (n *node) Pos() token.Pos { return n.pos }
func (n *node) Parent() Node { return n.parent }
func (n *node) SetParent(p Node) { n.parent = p }
func (n *node) aNode() {}
func (n *node) setPos(p token.Pos) { n.pos = p }

type decl struct{ node }

func (*decl) aDecl() {}

type stmt struct{ node }

func (*stmt) aStmt() {}

type expr struct{ node }

func (*expr) aExpr() {}

// ----------------------------------------------------------------------------
// Parser control nodes

// Finish marks the end of input.
type Finish struct{ decl }

// Error is returned by the parser on the first syntax error.
type Error struct {
	decl
	Err *SyntaxError
}

// ----------------------------------------------------------------------------
// Declarations

// Package declares the package of the unit: package "name"
type Package struct {
	decl
	Name string
}

// Import imports a package: import "name"
type Import struct {
	decl
	Name string
}

// Using declares a using directive: using "name"
type Using struct {
	decl
	Name string
}

// ModifierBlock applies its modifiers to every following declaration of
// the enclosing scope, until the next block or the end of the scope.
type ModifierBlock struct {
	decl
	Modifiers []string
}

// ModifierList applies its modifiers to the next declaration only.
type ModifierList struct {
	decl
	Modifiers []string
}

// Class declares a class type.
type Class struct {
	decl
	Modifiers []string
	Name      string
	Generics  types.GenericTypeList
	Members   []Decl // *Field, *Method, *ModifierBlock, *ModifierList
}

// Field declares one or more class fields of the same type:
// int a, b = 1
type Field struct {
	decl
	Modifiers []string
	Type      *types.Scalar
	Entries   []*FieldEntry
}

// FieldEntry is one field name with an optional default value.
type FieldEntry struct {
	Name  string
	Value Expr
}

// Method declares a method.
type Method struct {
	decl
	Modifiers []string
	Result    types.NamedType
	Name      string
	Generics  types.GenericTypeList
	Params    []*Parameter
	Body      []Stmt
}

// Parameter is a method parameter.
type Parameter struct {
	Type     types.Type
	Variadic bool
	Name     types.Name
	Mutable  bool
}

// ParamTypes returns the parameter types in declaration order.
func (m *Method) ParamTypes() []types.Type {
	ts := make([]types.Type, len(m.Params))
	for i, p := range m.Params {
		ts[i] = p.Type
	}
	return ts
}

// ----------------------------------------------------------------------------
// Statements

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	stmt
	X Expr
}

// LocalDeclare declares a local without an initializer: int x
type LocalDeclare struct {
	stmt
	Type *types.Scalar
	Name string
}

// LocalDeclareAssign declares an immutable typed local: int x = e
type LocalDeclareAssign struct {
	stmt
	Type  *types.Scalar
	Name  string
	Value Expr
}

// ImmutableLocal declares an immutable inferred local: let x = e
type ImmutableLocal struct {
	stmt
	Name  string
	Value Expr
}

// MutableLocal declares a mutable local: mut x = e or mut int x = e.
// Type is nil when inferred.
type MutableLocal struct {
	stmt
	Type  *types.Scalar
	Name  string
	Value Expr
}

// ReferenceLocal declares a mutable local holding a reference:
// ref x = e
type ReferenceLocal struct {
	stmt
	Name  string
	Value Expr
}

// Destructure unpacks a tuple into immutable locals: let (a, b) = e
type Destructure struct {
	stmt
	Names *types.CompoundName
	Value Expr
}

// LocalAssign stores into a local: x = e
type LocalAssign struct {
	stmt
	Name  string
	Value Expr
}

// FieldAssign stores into a class field: p.x = e
type FieldAssign struct {
	stmt
	Target types.QualifiedName
	Value  Expr
}

// IndexAssign stores into an array element: a[i] = e
type IndexAssign struct {
	stmt
	Target *Index
	Value  Expr
}

// If is a conditional statement. Else is nil, an *If or an *Else.
type If struct {
	stmt
	Cond Expr
	Then []Stmt
	Else Stmt
}

// Else is the final else branch of an if chain.
type Else struct {
	stmt
	Body []Stmt
}

// While is a pre-checked loop.
type While struct {
	stmt
	Cond Expr
	Body []Stmt
}

// Return returns from the enclosing method. Value is nil for void.
type Return struct {
	stmt
	Value Expr
}

// Free releases the heap memory owned by a local: free p
type Free struct {
	stmt
	Name string
}

// ----------------------------------------------------------------------------
// Expressions

// Literal is a constant value.
type Literal struct {
	expr
	Value token.Token
}

// Accessor reads a local, a parameter or a field access path: a.b.c
type Accessor struct {
	expr
	Name types.QualifiedName
}

// Call invokes a method: f(a, b) or f<int>(a)
type Call struct {
	expr
	Name     types.QualifiedName
	Generics types.GenericArgumentList
	Args     []Expr
}

// New allocates a class or a primitive: new Point(1, 2)
type New struct {
	expr
	Type *types.Scalar
	Args []Expr
}

// Malloc allocates uninitialized heap memory of a type: malloc int
type Malloc struct {
	expr
	Type *types.Scalar
}

// SizeofType is the byte size of a type: sizeof(int)
type SizeofType struct {
	expr
	Type *types.Scalar
}

// SizeofValue is the byte size of the type of a value: sizeof x
type SizeofValue struct {
	expr
	Value Expr
}

// Tuple groups values: (a, b)
type Tuple struct {
	expr
	Members []Expr
}

// Group is a parenthesized expression. It stops re-association.
type Group struct {
	expr
	X Expr
}

// Cast converts between primitive types: (long) x
type Cast struct {
	expr
	Type *types.Scalar
	X    Expr
}

// Unary is a prefix or postfix side operation: -x, !x, ++x, x--
type Unary struct {
	expr
	Op      string
	X       Expr
	Postfix bool
}

// Binary is an infix operation. The parser builds chains right-leaning;
// Reassociate restores precedence.
type Binary struct {
	expr
	Op Operator
	X  Expr
	Y  Expr
}

// RefAccess takes the address of a local: ref x
type RefAccess struct {
	expr
	Name string
}

// DerefAccess loads through a reference: deref p
type DerefAccess struct {
	expr
	Name string
}

// Index reads one dimension of an array: a[i]. Nested dimensions nest
// Index nodes, so a[i][j] is Index{X: Index{X: a, i}, j}.
type Index struct {
	expr
	X     Expr
	Index Expr
}

// ArrayLiteral is an array of values: [1, 2, 3]
type ArrayLiteral struct {
	expr
	Elems []Expr
}

// ArrayAlloc allocates an array: new int[n]
type ArrayAlloc struct {
	expr
	Elem *types.Scalar
	Size Expr
}

// Selection is the conditional expression: c ? a : b
type Selection struct {
	expr
	Cond Expr
	Then Expr
	Else Expr
}

// ----------------------------------------------------------------------------
// Local interface

func (n *LocalDeclare) LocalName() string { return n.Name }
func (n *LocalDeclare) Initializer() Expr { return nil }
func (n *LocalDeclare) DeclaredType() *types.Scalar { return n.Type }
func (n *LocalDeclareAssign) LocalName() string { return n.Name }
func (n *LocalDeclareAssign) Initializer() Expr { return n.Value }
func (n *LocalDeclareAssign) DeclaredType() *types.Scalar { return n.Type }
func (n *ImmutableLocal) LocalName() string { return n.Name }
func (n *ImmutableLocal) Initializer() Expr { return n.Value }
func (n *ImmutableLocal) DeclaredType() *types.Scalar { return nil }
func (n *MutableLocal) LocalName() string { return n.Name }
func (n *MutableLocal) Initializer() Expr { return n.Value }
func (n *MutableLocal) DeclaredType() *types.Scalar { return n.Type }
func (n *ReferenceLocal) LocalName() string { return n.Name }
func (n *ReferenceLocal) Initializer() Expr { return n.Value }
func (n *ReferenceLocal) DeclaredType() *types.Scalar { return nil }

// ----------------------------------------------------------------------------
// Capability markers

func (*New) stackAllocator()        {}
func (*ArrayAlloc) stackAllocator() {}

func (*New) heapAllocator()    {}
func (*Malloc) heapAllocator() {}

func (*LocalDeclare) pointerOwner()       {}
func (*LocalDeclareAssign) pointerOwner() {}
func (*ImmutableLocal) pointerOwner()     {}
func (*MutableLocal) pointerOwner()       {}
func (*ReferenceLocal) pointerOwner()     {}
func (*New) pointerOwner()                {}
func (*Malloc) pointerOwner()             {}
func (*RefAccess) pointerOwner()          {}
func (*DerefAccess) pointerOwner()        {}

func (*LocalDeclare) loadable()       {}
func (*LocalDeclareAssign) loadable() {}
func (*ImmutableLocal) loadable()     {}
func (*MutableLocal) loadable()       {}
func (*ReferenceLocal) loadable()     {}
func (*Accessor) loadable()           {}
func (*SizeofType) loadable()         {}

func (*LocalDeclare) mutable()   {}
func (*MutableLocal) mutable()   {}
func (*ReferenceLocal) mutable() {}
func (*RefAccess) mutable()      {}
