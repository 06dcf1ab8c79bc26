package syntax

import (
	"fmt"

	"github.com/you-not-fish/voidc/internal/token"
	"github.com/you-not-fish/voidc/internal/types"
)

// SyntaxError represents a syntax error.
type SyntaxError struct {
	Pos token.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// bailout unwinds the parser to Next on the first syntax error.
type bailout struct{ err *SyntaxError }

// Parser performs syntax analysis over a transformed token stream. It
// stops at the first error; there is no resynchronization.
type Parser struct {
	filename string
	toks     []token.Token
	cursor   int
	done     bool

	// modifiers of the innermost active modifier block
	block []string
	// one-shot modifiers for the next declaration
	pending []string
	// selection nesting; ':' is not an operator inside c ? a : b
	selection int
}

// NewParser creates a Parser over tokens that have been through
// token.Transform.
func NewParser(filename string, toks []token.Token) *Parser {
	return &Parser{filename: filename, toks: toks}
}

// ParseSource tokenizes, transforms and parses src.
func ParseSource(filename, src string) ([]Decl, error) {
	toks, err := token.Tokenize(filename, src)
	if err != nil {
		return nil, err
	}
	return NewParser(filename, token.Transform(toks)).ParseAll()
}

// ParseAll collects declarations until the end of input. It returns the
// SyntaxError of the first Error node.
func (p *Parser) ParseAll() ([]Decl, error) {
	var decls []Decl
	for {
		switch n := p.Next().(type) {
		case *Finish:
			return decls, nil
		case *Error:
			return decls, n.Err
		default:
			decls = append(decls, n)
		}
	}
}

// Next parses the next top-level declaration. It returns *Finish at the
// end of input and *Error on the first syntax error; both are terminal.
func (p *Parser) Next() (d Decl) {
	if p.done {
		return p.finish()
	}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			p.done = true
			e := &Error{Err: b.err}
			e.setPos(b.err.Pos)
			d = e
		}
	}()

	for p.peek().Is(token.Semicolon) {
		p.get()
	}

	t := p.peek()
	switch {
	case t.IsAny(token.Finish, token.Unexpected):
		if t.Kind == token.Unexpected {
			p.errorf("unexpected token")
		}
		p.done = true
		return p.finish()
	case t.Is(token.Info, "package"):
		return p.packageDecl()
	case t.Is(token.Info, "import"):
		return p.importDecl()
	case t.Is(token.Info, "using"):
		return p.usingDecl()
	case t.Is(token.Modifier):
		return p.modifiers()
	case t.IsAny(token.Type, token.Identifier, token.Open, token.Expression):
		return p.typeOrMethod()
	}
	p.errorf("unexpected %s", t)
	return nil
}

func (p *Parser) finish() *Finish {
	f := &Finish{}
	f.setPos(p.pos())
	return f
}

// ----------------------------------------------------------------------------
// Token navigation
//
// All cursor helpers are total: reading past the end yields a Finish
// token.

func (p *Parser) at(i int) token.Token {
	if i < 0 || i >= len(p.toks) {
		return token.Of(token.Finish, "")
	}
	return p.toks[i]
}

// peek returns the token n positions ahead of the cursor.
func (p *Parser) peek(n ...int) token.Token {
	off := 0
	if len(n) > 0 {
		off = n[0]
	}
	return p.at(p.cursor + off)
}

// get consumes the current token.
func (p *Parser) get() token.Token {
	t := p.peek()
	p.cursor++
	return t
}

// got consumes the current token if it has the given kind and text.
func (p *Parser) got(kind token.Kind, texts ...string) bool {
	if p.peek().Is(kind, texts...) {
		p.cursor++
		return true
	}
	return false
}

// want consumes a required token or fails.
func (p *Parser) want(kind token.Kind, texts ...string) token.Token {
	t := p.peek()
	if !t.Is(kind, texts...) {
		want := kind.String()
		if len(texts) > 0 {
			want = fmt.Sprintf("%s(%s)", kind, texts[0])
		}
		p.errorf("expected %s, got %s", want, t)
	}
	return p.get()
}

// terminator consumes a statement terminator. A closing brace also ends
// a statement.
func (p *Parser) terminator() {
	if p.got(token.Semicolon) || p.peek().IsAny(token.End, token.Finish) {
		return
	}
	p.errorf("expected SEMICOLON, got %s", p.peek())
}

// adjacent reports whether tokens i and i+1 touch in the source.
func (p *Parser) adjacent(i int) bool {
	a, b := p.at(i), p.at(i+1)
	if !a.Meta.IsValid() || !b.Meta.IsValid() {
		return true
	}
	return a.Meta.End == b.Meta.Begin
}

// operatorAt reports whether the tokens at i form the operator text.
func (p *Parser) operatorAt(i int, text string) bool {
	for j, r := range text {
		t := p.at(i + j)
		if !t.Is(token.Operator, string(r)) {
			return false
		}
		if j > 0 && !p.adjacent(i+j-1) {
			return false
		}
	}
	return true
}

// isAssignAt reports whether the token at i is a lone '='.
func (p *Parser) isAssignAt(i int) bool {
	return p.at(i).Is(token.Operator, "=") && !p.operatorAt(i, "==")
}

func (p *Parser) pos() token.Pos {
	return p.peek().Meta.Pos(p.filename)
}

func (p *Parser) errorf(format string, args ...any) {
	panic(bailout{&SyntaxError{Pos: p.pos(), Msg: fmt.Sprintf(format, args...)}})
}

// ----------------------------------------------------------------------------
// Declarations

// packageDecl parses: package "name";
func (p *Parser) packageDecl() Decl {
	d := &Package{}
	d.setPos(p.pos())
	p.want(token.Info, "package")
	d.Name = p.want(token.String).Text
	p.want(token.Semicolon)
	return d
}

// importDecl parses: import "name";
func (p *Parser) importDecl() Decl {
	d := &Import{}
	d.setPos(p.pos())
	p.want(token.Info, "import")
	d.Name = p.want(token.String).Text
	p.want(token.Semicolon)
	return d
}

// usingDecl parses: using "name";
func (p *Parser) usingDecl() Decl {
	d := &Using{}
	d.setPos(p.pos())
	p.want(token.Info, "using")
	d.Name = p.want(token.String).Text
	p.want(token.Semicolon)
	return d
}

// modifiers parses a run of modifier keywords. A trailing ':' makes it
// a block; otherwise the modifiers apply to the next declaration only.
func (p *Parser) modifiers() Decl {
	pos := p.pos()
	var mods []string
	for p.peek().Is(token.Modifier) {
		mods = append(mods, p.get().Text)
	}
	if p.got(token.Colon) {
		b := &ModifierBlock{Modifiers: mods}
		b.setPos(pos)
		p.block = mods
		p.pending = nil
		return b
	}
	l := &ModifierList{Modifiers: mods}
	l.setPos(pos)
	p.pending = mods
	return l
}

// effective returns the modifiers of the declaration being parsed and
// consumes the one-shot list.
func (p *Parser) effective() []string {
	var mods []string
	mods = append(mods, p.block...)
	mods = append(mods, p.pending...)
	p.pending = nil
	return mods
}

// typeOrMethod parses a class or a method declaration.
func (p *Parser) typeOrMethod() Decl {
	if p.peek().Is(token.Expression, "class") {
		return p.classDecl()
	}
	if p.peek().Is(token.Expression) {
		p.errorf("unexpected %s", p.peek())
	}
	pos := p.pos()
	mods := p.effective()
	result := p.namedType()
	name := p.want(token.Identifier).Text
	if p.isAssignAt(p.cursor) || p.peek().Is(token.Semicolon) {
		p.errorf("global variable %s is not supported", name)
	}
	return p.methodRest(pos, mods, result, name)
}

// classDecl parses: class Name<T> { members }
func (p *Parser) classDecl() *Class {
	c := &Class{Modifiers: p.effective()}
	c.setPos(p.pos())
	p.want(token.Expression, "class")
	c.Name = p.want(token.Identifier).Text
	c.Generics = p.genericTypes()
	p.want(token.Begin)

	// modifier blocks are scoped to the class body
	outer := p.block
	p.block = nil
	defer func() { p.block = outer }()

	for !p.got(token.End) {
		if p.peek().Is(token.Semicolon) {
			p.get()
			continue
		}
		if p.peek().IsAny(token.Finish, token.Unexpected) {
			p.errorf("unexpected end of class %s", c.Name)
		}
		c.Members = append(c.Members, p.member())
	}
	return c
}

// member parses a class member: modifiers, a field or a method.
func (p *Parser) member() Decl {
	if p.peek().Is(token.Modifier) {
		return p.modifiers()
	}
	pos := p.pos()
	mods := p.effective()
	result := p.namedType()
	name := p.want(token.Identifier).Text
	if p.peek().Is(token.Open) || p.peek().Is(token.Operator, "<") {
		return p.methodRest(pos, mods, result, name)
	}
	s, ok := result.(*types.NamedScalar)
	if !ok || s.Named {
		p.errorf("invalid field type %s", result)
	}
	return p.fieldRest(pos, mods, s.Scalar, name)
}

// fieldRest parses the rest of: int a, b = 1;
func (p *Parser) fieldRest(pos token.Pos, mods []string, typ *types.Scalar, name string) *Field {
	f := &Field{Modifiers: mods, Type: typ}
	f.setPos(pos)
	for {
		e := &FieldEntry{Name: name}
		if p.isAssignAt(p.cursor) {
			p.get()
			e.Value = p.expr()
		}
		f.Entries = append(f.Entries, e)
		if !p.got(token.Comma) {
			break
		}
		name = p.want(token.Identifier).Text
	}
	p.terminator()
	return f
}

// methodRest parses the rest of: Result name<G>(params) { body }
func (p *Parser) methodRest(pos token.Pos, mods []string, result types.NamedType, name string) *Method {
	m := &Method{Modifiers: mods, Result: result, Name: name}
	m.setPos(pos)
	m.Generics = p.genericTypes()
	m.Params = p.params()
	m.Body = p.body()
	return m
}

// params parses: ( [mut] Type[...] name, ... )
func (p *Parser) params() []*Parameter {
	p.want(token.Open)
	var params []*Parameter
	for !p.got(token.Close) {
		if len(params) > 0 {
			p.want(token.Comma)
		}
		param := &Parameter{}
		if p.peek().Is(token.Type, "mut") {
			p.get()
			param.Mutable = true
		}
		param.Type = p.typ()
		if p.operatorAt(p.cursor, "...") {
			p.cursor += 3
			param.Variadic = true
		}
		param.Name = p.name()
		params = append(params, param)
	}
	return params
}

// name parses a binding name: x or (a, (b, c))
func (p *Parser) name() types.Name {
	if !p.got(token.Open) {
		return &types.ScalarName{Value: p.want(token.Identifier).Text}
	}
	c := &types.CompoundName{}
	for !p.got(token.Close) {
		if len(c.Members) > 0 {
			p.want(token.Comma)
		}
		c.Members = append(c.Members, p.name())
	}
	return c
}

// ----------------------------------------------------------------------------
// Types

// typ parses a scalar type or an unnamed tuple type.
func (p *Parser) typ() types.Type {
	if p.peek().Is(token.Open) {
		p.get()
		c := &types.Compound{}
		for !p.got(token.Close) {
			if len(c.Members) > 0 {
				p.want(token.Comma)
			}
			c.Members = append(c.Members, p.typ())
		}
		return c
	}
	return p.scalar()
}

// scalar parses: [ref|deref|mut] Name[.Name]* [<args>] [[n]]*
func (p *Parser) scalar() *types.Scalar {
	ref := p.referencing()
	var segs []token.Token
	switch t := p.peek(); {
	case t.Is(token.Type) && !isQualifier(t.Text):
		segs = append(segs, p.get())
	case t.Is(token.Identifier):
		segs = append(segs, p.get())
		for p.peek().Is(token.Operator, ".") && p.peek(1).Is(token.Identifier) {
			p.get()
			segs = append(segs, p.get())
		}
	default:
		p.errorf("expected type, got %s", t)
	}
	s := types.NewScalar(ref, types.NewQualifiedName(segs...), p.genericArgs(), p.array())
	return s
}

func isQualifier(word string) bool {
	return word == "ref" || word == "deref" || word == "mut"
}

// referencing parses a ref/deref qualifier with its repeat count, as in
// ref** int, or mut.
func (p *Parser) referencing() types.Referencing {
	t := p.peek()
	if !t.Is(token.Type, "ref", "deref", "mut") {
		return types.None()
	}
	// let the statement parser see "ref x = ..." as a reference local
	if t.Text != "mut" && !p.peek(1).IsAny(token.Type, token.Identifier) && !p.peek(1).Is(token.Operator, "*") {
		return types.None()
	}
	p.get()
	if t.Text == "mut" {
		return types.Mut()
	}
	dims := 1
	for p.peek().Is(token.Operator, "*") && p.adjacent(p.cursor-1) {
		p.get()
		dims++
	}
	if t.Text == "ref" {
		return types.Ref(dims)
	}
	return types.Deref(dims)
}

// genericArgs parses <T, U<V>> or the diamond <>.
func (p *Parser) genericArgs() types.GenericArgumentList {
	if !p.peek().Is(token.Operator, "<") {
		return types.NoGenerics()
	}
	p.get()
	l := types.GenericArgumentList{Explicit: true}
	for !p.got(token.Operator, ">") {
		if len(l.Args) > 0 {
			p.want(token.Comma)
		}
		if p.got(token.Modifier, "default") {
			l.Args = append(l.Args, types.GenericArgument{})
			continue
		}
		s := p.scalar()
		arg := types.GenericArgument{Args: s.Generics}
		s.Generics = types.NoGenerics()
		arg.Type = s
		l.Args = append(l.Args, arg)
	}
	return l
}

// genericTypes parses a type parameter list: <K, V = int>
func (p *Parser) genericTypes() types.GenericTypeList {
	if !p.peek().Is(token.Operator, "<") {
		return types.NoTypeParams()
	}
	p.get()
	l := types.GenericTypeList{Explicit: true}
	for !p.got(token.Operator, ">") {
		if len(l.Types) > 0 {
			p.want(token.Comma)
		}
		g := types.GenericType{Name: p.want(token.Identifier).Text}
		g.Args = p.genericTypes()
		if p.isAssignAt(p.cursor) {
			p.get()
			g.Default = p.scalar()
		}
		l.Types = append(l.Types, g)
	}
	return l
}

// array parses trailing dimensions: [] [4] [N]
func (p *Parser) array() types.Array {
	var a types.Array
	for p.peek().Is(token.Start) {
		p.get()
		switch t := p.peek(); {
		case t.Is(token.Stop):
			a.Dims = append(a.Dims, types.ImplicitDimension())
		case t.IsAny(token.Integer, token.Identifier):
			a.Dims = append(a.Dims, types.Dimension{Size: p.get(), Explicit: true})
		default:
			p.errorf("invalid array dimension %s", t)
		}
		p.want(token.Stop)
	}
	return a
}

// namedType parses a method result type: a scalar, a lambda
// int |int, int| or a group (bool ok, string msg).
func (p *Parser) namedType() types.NamedType {
	var t types.NamedType
	if p.peek().Is(token.Open) {
		p.get()
		g := &types.NamedGroup{}
		for !p.got(token.Close) {
			if len(g.Members) > 0 {
				p.want(token.Comma)
			}
			m := p.namedType()
			if s, ok := m.(*types.NamedScalar); ok && p.peek().Is(token.Identifier) {
				s.Name, s.Named = p.get().Text, true
			}
			g.Members = append(g.Members, m)
		}
		t = g
	} else {
		t = types.NewNamedScalar(p.scalar(), "")
	}
	if p.peek().Is(token.Operator, "|") {
		p.get()
		l := &types.NamedLambda{Result: t}
		for !p.got(token.Operator, "|") {
			if len(l.Params) > 0 {
				p.want(token.Comma)
			}
			param := types.NewNamedScalar(p.scalar(), "")
			if p.peek().Is(token.Identifier) {
				param.Name, param.Named = p.get().Text, true
			}
			l.Params = append(l.Params, param)
		}
		t = l
	}
	return t
}

// ----------------------------------------------------------------------------
// Statements

// body parses: { stmts }
func (p *Parser) body() []Stmt {
	p.want(token.Begin)
	var list []Stmt
	for !p.got(token.End) {
		if p.got(token.Semicolon) {
			continue
		}
		if p.peek().IsAny(token.Finish, token.Unexpected) {
			p.errorf("expected END, got %s", p.peek())
		}
		list = append(list, p.stmt())
	}
	return list
}

func (p *Parser) stmt() Stmt {
	t := p.peek()
	switch {
	case t.Is(token.Expression, "if"):
		return p.ifStmt()
	case t.Is(token.Expression, "while"):
		return p.whileStmt()
	case t.Is(token.Expression, "return"):
		return p.returnStmt()
	case t.Is(token.Expression, "free"):
		return p.freeStmt()
	case t.Is(token.Type, "let"):
		return p.letStmt()
	case t.Is(token.Type, "mut"):
		return p.mutStmt()
	case t.Is(token.Type, "ref") && p.peek(1).Is(token.Identifier) && p.isAssignAt(p.cursor+2):
		return p.refStmt()
	case t.Is(token.Type):
		return p.typedLocal()
	case t.Is(token.Identifier):
		return p.identStmt()
	}
	return p.exprStmt()
}

func (p *Parser) ifStmt() *If {
	s := &If{}
	s.setPos(p.pos())
	p.want(token.Expression, "if")
	s.Cond = p.parenCond()
	s.Then = p.body()
	// an inserted semicolon may separate } and else
	if p.peek().Is(token.Semicolon) && p.peek(1).Is(token.Expression, "else") {
		p.get()
	}
	if p.got(token.Expression, "else") {
		if p.peek().Is(token.Expression, "if") {
			s.Else = p.ifStmt()
		} else {
			e := &Else{}
			e.setPos(p.pos())
			e.Body = p.body()
			s.Else = e
		}
	}
	return s
}

func (p *Parser) whileStmt() *While {
	s := &While{}
	s.setPos(p.pos())
	p.want(token.Expression, "while")
	s.Cond = p.parenCond()
	s.Body = p.body()
	return s
}

func (p *Parser) parenCond() Expr {
	p.want(token.Open)
	x := p.expr()
	p.want(token.Close)
	return x
}

func (p *Parser) returnStmt() *Return {
	s := &Return{}
	s.setPos(p.pos())
	p.want(token.Expression, "return")
	if !p.peek().IsAny(token.Semicolon, token.End) {
		s.Value = p.expr()
	}
	p.terminator()
	return s
}

func (p *Parser) freeStmt() *Free {
	s := &Free{}
	s.setPos(p.pos())
	p.want(token.Expression, "free")
	s.Name = p.want(token.Identifier).Text
	p.terminator()
	return s
}

// letStmt parses: let x = e | let x | let (a, b) = e
func (p *Parser) letStmt() Stmt {
	pos := p.pos()
	let := p.get()
	if p.peek().Is(token.Open) {
		names, ok := p.name().(*types.CompoundName)
		if !ok {
			p.errorf("expected destructuring names")
		}
		d := &Destructure{Names: names}
		d.setPos(pos)
		p.wantAssign()
		d.Value = p.expr()
		p.terminator()
		return d
	}
	name := p.want(token.Identifier).Text
	if !p.isAssignAt(p.cursor) {
		s := &LocalDeclare{Type: types.NewScalar(types.None(), types.NewQualifiedName(let), types.NoGenerics(), types.NoArray()), Name: name}
		s.setPos(pos)
		p.terminator()
		return s
	}
	p.get()
	s := &ImmutableLocal{Name: name, Value: p.expr()}
	s.setPos(pos)
	p.terminator()
	return s
}

// mutStmt parses: mut x = e | mut Type x = e | mut Type x
func (p *Parser) mutStmt() Stmt {
	pos := p.pos()
	p.get()
	s := &MutableLocal{}
	s.setPos(pos)
	if !(p.peek().Is(token.Identifier) && p.isAssignAt(p.cursor+1)) {
		s.Type = p.scalar()
		s.Type.Referencing = types.Mut()
	}
	s.Name = p.want(token.Identifier).Text
	if s.Type == nil || p.isAssignAt(p.cursor) {
		p.wantAssign()
		s.Value = p.expr()
	}
	p.terminator()
	return s
}

// refStmt parses: ref x = e
func (p *Parser) refStmt() Stmt {
	s := &ReferenceLocal{}
	s.setPos(p.pos())
	p.get()
	s.Name = p.want(token.Identifier).Text
	p.wantAssign()
	s.Value = p.expr()
	p.terminator()
	return s
}

// typedLocal parses: Type x = e | Type x
func (p *Parser) typedLocal() Stmt {
	pos := p.pos()
	typ := p.scalar()
	name := p.want(token.Identifier).Text
	if !p.isAssignAt(p.cursor) {
		s := &LocalDeclare{Type: typ, Name: name}
		s.setPos(pos)
		p.terminator()
		return s
	}
	p.get()
	s := &LocalDeclareAssign{Type: typ, Name: name, Value: p.expr()}
	s.setPos(pos)
	p.terminator()
	return s
}

// identStmt parses a statement starting with an identifier: a class
// typed local, an assignment or an expression statement.
func (p *Parser) identStmt() Stmt {
	if p.isDeclaration() {
		return p.typedLocal()
	}
	pos := p.pos()

	// x = e
	if p.isAssignAt(p.cursor + 1) {
		s := &LocalAssign{Name: p.get().Text}
		s.setPos(pos)
		p.get()
		s.Value = p.expr()
		p.terminator()
		return s
	}

	// a.b.c = e
	if p.peek(1).Is(token.Operator, ".") {
		i := p.cursor + 1
		for p.at(i).Is(token.Operator, ".") && p.at(i+1).Is(token.Identifier) {
			i += 2
		}
		if p.isAssignAt(i) {
			var segs []token.Token
			segs = append(segs, p.get())
			for p.got(token.Operator, ".") {
				segs = append(segs, p.get())
			}
			p.get()
			s := &FieldAssign{Target: types.NewQualifiedName(segs...)}
			s.setPos(pos)
			s.Value = p.expr()
			p.terminator()
			return s
		}
	}

	x := p.unaryExpr()
	if idx, ok := x.(*Index); ok && p.isAssignAt(p.cursor) {
		p.get()
		s := &IndexAssign{Target: idx}
		s.setPos(pos)
		s.Value = p.expr()
		p.terminator()
		return s
	}
	return p.finishExprStmt(pos, x)
}

// isDeclaration reports whether the tokens at the cursor form a
// class-typed local declaration such as Point p = ... or List<int> xs.
func (p *Parser) isDeclaration() (ok bool) {
	save := p.cursor
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			ok = false
		}
		p.cursor = save
	}()
	p.scalar()
	return p.peek().Is(token.Identifier) &&
		(p.isAssignAt(p.cursor+1) || p.peek(1).IsAny(token.Semicolon, token.End))
}

func (p *Parser) exprStmt() Stmt {
	pos := p.pos()
	return p.finishExprStmt(pos, p.unaryExpr())
}

// finishExprStmt continues an expression whose first operand has been
// parsed and wraps it as a statement.
func (p *Parser) finishExprStmt(pos token.Pos, x Expr) Stmt {
	x = p.exprRest(x)
	s := &ExprStmt{X: x}
	s.setPos(pos)
	p.terminator()
	return s
}

func (p *Parser) wantAssign() {
	if !p.isAssignAt(p.cursor) {
		p.errorf("expected OPERATOR(=), got %s", p.peek())
	}
	p.get()
}

// ----------------------------------------------------------------------------
// Expressions

// expr parses a full expression.
func (p *Parser) expr() Expr {
	return p.exprRest(p.unaryExpr())
}

// exprRest parses the operator chain and selection following the first
// operand x.
func (p *Parser) exprRest(x Expr) Expr {
	x = Reassociate(p.chain(x))
	if p.peek().Is(token.Operator, "?") {
		s := &Selection{Cond: x}
		s.setPos(x.Pos())
		p.get()
		p.selection++
		s.Then = p.expr()
		p.selection--
		p.want(token.Colon)
		s.Else = p.expr()
		return s
	}
	return x
}

// chain parses "x op y op z ..." into a chain in source order, without
// regard to precedence.
func (p *Parser) chain(x Expr) Expr {
	op, n := p.binaryOp()
	if op == Unknown {
		return x
	}
	b := &Binary{Op: op, X: x}
	b.setPos(x.Pos())
	p.cursor += n
	b.Y = p.chain(p.unaryExpr())
	return b
}

// binaryOp assembles the binary operator at the cursor from adjacent
// operator tokens. It returns Unknown when none starts here.
func (p *Parser) binaryOp() (Operator, int) {
	t := p.peek()
	if t.Is(token.Colon) {
		if p.selection > 0 {
			return Unknown, 0
		}
		if p.peek(1).Is(token.Colon) && p.adjacent(p.cursor) {
			return Lambda, 2
		}
		return Slice, 1
	}
	if !t.Is(token.Operator) {
		return Unknown, 0
	}
	if next := p.peek(1); next.Is(token.Operator) && p.adjacent(p.cursor) {
		two := t.Text + next.Text
		if twoCharOperators[two] {
			if op := LookupOperator(two); op != Unknown {
				return op, 2
			}
			// ++ and -- are postfix operators, not binary ones
			return Unknown, 0
		}
	}
	switch t.Text {
	case "=", "!", "&", "|", "?", ".", "~", "$":
		return Unknown, 0
	}
	return LookupOperator(t.Text), 1
}

// unaryExpr parses a prefix operation or a postfix expression.
func (p *Parser) unaryExpr() Expr {
	pos := p.pos()
	t := p.peek()
	if t.Is(token.Operator, "+", "-") && p.peek(1).Is(token.Operator, t.Text) && p.adjacent(p.cursor) {
		p.cursor += 2
		u := &Unary{Op: t.Text + t.Text, X: p.unaryExpr()}
		u.setPos(pos)
		return u
	}
	if t.Is(token.Operator, "-", "!") {
		p.get()
		u := &Unary{Op: t.Text, X: p.unaryExpr()}
		u.setPos(pos)
		return u
	}
	return p.postfixExpr(p.operand())
}

// postfixExpr parses indexing and postfix ++/-- after an operand.
func (p *Parser) postfixExpr(x Expr) Expr {
	for p.peek().Is(token.Start) {
		p.get()
		idx := &Index{X: x}
		idx.setPos(x.Pos())
		idx.Index = p.expr()
		p.want(token.Stop)
		x = idx
	}
	if t := p.peek(); t.Is(token.Operator, "+", "-") && p.operatorAt(p.cursor, t.Text+t.Text) && !p.startsOperand(p.cursor+2) {
		p.cursor += 2
		u := &Unary{Op: t.Text + t.Text, X: x, Postfix: true}
		u.setPos(x.Pos())
		return u
	}
	return x
}

// startsOperand reports whether the token at i can begin an operand.
func (p *Parser) startsOperand(i int) bool {
	t := p.at(i)
	return t.Kind.IsLiteral() || t.IsAny(token.Identifier, token.Open, token.Start, token.Boolean, token.Null)
}

// operand parses a primary expression.
func (p *Parser) operand() Expr {
	pos := p.pos()
	t := p.peek()
	switch {
	case t.Kind.IsLiteral() || t.IsAny(token.Boolean, token.Null):
		p.get()
		l := &Literal{Value: t}
		l.setPos(pos)
		return l

	case t.Is(token.Identifier):
		return p.nameOrCall()

	case t.Is(token.Expression, "new"):
		return p.newExpr()

	case t.Is(token.Expression, "malloc"):
		p.get()
		m := &Malloc{Type: p.scalar()}
		m.setPos(pos)
		return m

	case t.Is(token.Expression, "sizeof"):
		p.get()
		if p.got(token.Open) {
			s := &SizeofType{Type: p.scalar()}
			s.setPos(pos)
			p.want(token.Close)
			return s
		}
		s := &SizeofValue{Value: p.unaryExpr()}
		s.setPos(pos)
		return s

	case t.Is(token.Type, "ref"):
		p.get()
		r := &RefAccess{Name: p.want(token.Identifier).Text}
		r.setPos(pos)
		return r

	case t.Is(token.Type, "deref"):
		p.get()
		d := &DerefAccess{Name: p.want(token.Identifier).Text}
		d.setPos(pos)
		return d

	case t.Is(token.Open):
		return p.parenExpr()

	case t.Is(token.Start):
		p.get()
		a := &ArrayLiteral{}
		a.setPos(pos)
		for !p.got(token.Stop) {
			if len(a.Elems) > 0 {
				p.want(token.Comma)
			}
			a.Elems = append(a.Elems, p.expr())
		}
		return a
	}
	p.errorf("unexpected %s", t)
	return nil
}

// nameOrCall parses a.b.c, f(args) or f<T>(args).
func (p *Parser) nameOrCall() Expr {
	pos := p.pos()
	segs := []token.Token{p.get()}
	for p.peek().Is(token.Operator, ".") && p.peek(1).Is(token.Identifier) {
		p.get()
		segs = append(segs, p.get())
	}
	name := types.NewQualifiedName(segs...)

	if p.peek().Is(token.Open) || (p.peek().Is(token.Operator, "<") && p.isGenericCall()) {
		c := &Call{Name: name, Generics: p.genericArgs()}
		c.setPos(pos)
		c.Args = p.args()
		return c
	}
	a := &Accessor{Name: name}
	a.setPos(pos)
	return a
}

// isGenericCall reports whether the '<' at the cursor opens a generic
// argument list followed by a call.
func (p *Parser) isGenericCall() (ok bool) {
	save := p.cursor
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			ok = false
		}
		p.cursor = save
	}()
	p.genericArgs()
	return p.peek().Is(token.Open)
}

// args parses: ( e, e, ... )
func (p *Parser) args() []Expr {
	p.want(token.Open)
	var args []Expr
	for !p.got(token.Close) {
		if len(args) > 0 {
			p.want(token.Comma)
		}
		args = append(args, p.expr())
	}
	return args
}

// newExpr parses: new Type(args) | new Type[n]
func (p *Parser) newExpr() Expr {
	pos := p.pos()
	p.want(token.Expression, "new")
	ref := p.referencing()
	var segs []token.Token
	if t := p.peek(); t.Is(token.Type) || t.Is(token.Identifier) {
		segs = append(segs, p.get())
	} else {
		p.errorf("expected type, got %s", t)
	}
	for p.peek().Is(token.Operator, ".") && p.peek(1).Is(token.Identifier) {
		p.get()
		segs = append(segs, p.get())
	}
	typ := types.NewScalar(ref, types.NewQualifiedName(segs...), p.genericArgs(), types.NoArray())

	if p.got(token.Start) {
		a := &ArrayAlloc{Elem: typ}
		a.setPos(pos)
		a.Size = p.expr()
		p.want(token.Stop)
		return a
	}
	n := &New{Type: typ}
	n.setPos(pos)
	if p.peek().Is(token.Open) {
		n.Args = p.args()
	}
	return n
}

// parenExpr parses a cast (int) x, a tuple (a, b) or a group (x).
func (p *Parser) parenExpr() Expr {
	pos := p.pos()
	p.want(token.Open)
	if t := p.peek(); t.Is(token.Type) && !isQualifier(t.Text) {
		c := &Cast{Type: p.scalar()}
		c.setPos(pos)
		p.want(token.Close)
		c.X = p.unaryExpr()
		return c
	}

	outer := p.selection
	p.selection = 0
	x := p.expr()
	p.selection = outer

	if p.peek().Is(token.Comma) {
		tu := &Tuple{Members: []Expr{x}}
		tu.setPos(pos)
		for p.got(token.Comma) {
			tu.Members = append(tu.Members, p.expr())
		}
		p.want(token.Close)
		return tu
	}
	p.want(token.Close)
	g := &Group{X: x}
	g.setPos(pos)
	return g
}
