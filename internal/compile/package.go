package compile

import (
	"sort"
	"strconv"

	"github.com/agnivade/levenshtein"

	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/types"
)

// A Package holds the declarations of one compilation unit: methods with
// their overloads, classes, and the packages it imports.
type Package struct {
	Name    string
	Imports []string
	Usings  []string

	methods map[string][]*syntax.Method // overloads in declaration order
	names   []string                    // method names in first-declaration order
	classes map[string]*Class
	order   []*Class

	imported map[string]*Package
	using    []*Package
}

// NewPackage returns an empty package.
func NewPackage(name string) *Package {
	return &Package{
		Name:     name,
		methods:  make(map[string][]*syntax.Method),
		classes:  make(map[string]*Class),
		imported: make(map[string]*Package),
	}
}

// ----------------------------------------------------------------------------
// Methods

// DefineMethod adds m to the overloads of its name. Earlier definitions
// are never replaced.
func (p *Package) DefineMethod(m *syntax.Method) {
	p.defineMethod(m.Name, m)
}

func (p *Package) defineMethod(key string, m *syntax.Method) {
	if p.defines(key, m) {
		return
	}
	if _, ok := p.methods[key]; !ok {
		p.names = append(p.names, key)
	}
	p.methods[key] = append(p.methods[key], m)
}

// defines reports whether m is already an overload of key.
func (p *Package) defines(key string, m *syntax.Method) bool {
	for _, o := range p.methods[key] {
		if o == m {
			return true
		}
	}
	return false
}

// Overloads returns the methods named name in declaration order.
func (p *Package) Overloads(name string) []*syntax.Method {
	return p.methods[name]
}

// ResolveMethod returns the first overload of name whose parameter types
// are pairwise identical to args, or nil.
func (p *Package) ResolveMethod(name string, args []types.Type) *syntax.Method {
	for _, m := range p.methods[name] {
		if types.IdenticalParams(m.ParamTypes(), args) {
			return m
		}
	}
	return nil
}

// linkName returns the backend function name of m. Methods outside the
// main package are prefixed with the package name. The first overload of
// a name keeps it; later ones get a numeric suffix.
func (p *Package) linkName(key string, m *syntax.Method) string {
	name := key
	if p.Name != "main" {
		name = p.Name + "." + key
	}
	for i, o := range p.methods[key] {
		if o == m && i > 0 {
			return name + "." + strconv.Itoa(i)
		}
	}
	return name
}

// lookupMethod resolves a possibly qualified method name. A plain name is
// searched in p and then in the packages named by using directives;
// pkg.name and Class.name are searched in the imported package or the
// class. It returns the package that owns the method and its overload key;
// when no overload matches, the method is nil and the package is the one
// searched.
func (p *Package) lookupMethod(name types.QualifiedName, args []types.Type) (*Package, string, *syntax.Method) {
	switch len(name.Segments) {
	case 1:
		key := name.Segments[0]
		if m := p.ResolveMethod(key, args); m != nil {
			return p, key, m
		}
		for _, u := range p.using {
			if m := u.ResolveMethod(key, args); m != nil {
				return u, key, m
			}
		}
		// no match; report the package that has overloads of key, if any
		if len(p.Overloads(key)) == 0 {
			for _, u := range p.using {
				if len(u.Overloads(key)) > 0 {
					return u, key, nil
				}
			}
		}
		return p, key, nil
	case 2:
		if imp, ok := p.imported[name.Segments[0]]; ok {
			key := name.Segments[1]
			return imp, key, imp.resolveQualified(key, args)
		}
		key := name.String()
		return p, key, p.ResolveMethod(key, args)
	case 3:
		if imp, ok := p.imported[name.Segments[0]]; ok {
			key := name.Segments[1] + "." + name.Segments[2]
			return imp, key, imp.resolveQualified(key, args)
		}
	}
	return nil, "", nil
}

// resolveQualified is ResolveMethod for callers in an importing package,
// which name the classes of p as p.Name.Class.
func (p *Package) resolveQualified(name string, args []types.Type) *syntax.Method {
	for _, m := range p.methods[name] {
		params := m.ParamTypes()
		for i := range params {
			params[i] = p.Qualify(params[i])
		}
		if types.IdenticalParams(params, args) {
			return m
		}
	}
	return nil
}

// Qualify returns t with the classes declared in p renamed to
// p.Name.Class, the way an importing package refers to them.
func (p *Package) Qualify(t types.Type) types.Type {
	switch u := types.Unwrap(t).(type) {
	case *types.Scalar:
		return p.qualifyScalar(u)
	case *types.Compound:
		members := make([]types.Type, len(u.Members))
		for i, m := range u.Members {
			members[i] = p.Qualify(m)
		}
		return &types.Compound{Referencing: u.Referencing, Members: members}
	}
	return t
}

func (p *Package) qualifyScalar(s *types.Scalar) *types.Scalar {
	if s.Name.IsPrimitive() || len(s.Name.Segments) != 1 {
		return s
	}
	if _, ok := p.classes[s.Name.Segments[0]]; !ok {
		return s
	}
	q := *s
	q.Name = types.Named(p.Name, s.Name.Segments[0])
	return &q
}

// ----------------------------------------------------------------------------
// Classes

// Class is a declared class and its field layout.
type Class struct {
	Decl   *syntax.Class
	Name   string
	Fields []*Field

	pkg *Package
}

// Field is one field of a class. Index is its position in the layout.
type Field struct {
	Name    string
	Type    *types.Scalar
	Default syntax.Expr
	Index   int

	class *Class
}

// layoutState guards the struct layout of a class against cycles.
type layoutState uint8

const (
	layoutNone layoutState = iota
	layoutActive
	layoutDone
)

// Field returns the field called name, or nil.
func (c *Class) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (c *Class) fieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// DefineClass declares the class c. It reports false if a class of the
// same name and a different declaration exists.
func (p *Package) DefineClass(c *syntax.Class) (*Class, bool) {
	if old, ok := p.classes[c.Name]; ok {
		return old, old.Decl == c
	}
	cls := &Class{Decl: c, Name: c.Name, pkg: p}
	for _, m := range c.Members {
		f, ok := m.(*syntax.Field)
		if !ok {
			continue
		}
		for _, e := range f.Entries {
			cls.Fields = append(cls.Fields, &Field{Name: e.Name, Type: f.Type, Default: e.Value, Index: len(cls.Fields), class: cls})
		}
	}
	p.classes[c.Name] = cls
	p.order = append(p.order, cls)
	return cls, true
}

// Classes returns the classes in declaration order.
func (p *Package) Classes() []*Class { return p.order }

// ResolveType returns the class named by name: Class in p, or pkg.Class
// in an imported package.
func (p *Package) ResolveType(name types.QualifiedName) *Class {
	switch len(name.Segments) {
	case 1:
		if c, ok := p.classes[name.Segments[0]]; ok {
			return c
		}
		for _, u := range p.using {
			if c, ok := u.classes[name.Segments[0]]; ok {
				return c
			}
		}
	case 2:
		if imp, ok := p.imported[name.Segments[0]]; ok {
			return imp.classes[name.Segments[1]]
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Imports

// Import makes the declarations of imp visible as imp.name.
func (p *Package) Import(imp *Package) {
	p.Imports = append(p.Imports, imp.Name)
	p.imported[imp.Name] = imp
}

// Use makes the declarations of u visible unqualified, after those of p.
func (p *Package) Use(u *Package) {
	p.Usings = append(p.Usings, u.Name)
	p.using = append(p.using, u)
}

// ----------------------------------------------------------------------------
// Suggestions

// methodNames returns every method name visible from p.
func (p *Package) methodNames() []string {
	names := append([]string(nil), p.names...)
	for _, u := range p.using {
		names = append(names, u.names...)
	}
	for _, imp := range p.imported {
		for _, n := range imp.names {
			names = append(names, imp.Name+"."+n)
		}
	}
	return names
}

func (p *Package) classNames() []string {
	var names []string
	for _, c := range p.order {
		names = append(names, c.Name)
	}
	for _, u := range p.using {
		for _, c := range u.order {
			names = append(names, c.Name)
		}
	}
	return names
}

// suggest returns the candidate closest to name, if it is close enough
// to be a likely typo.
func suggest(name string, candidates []string) (string, bool) {
	best, bestDist := "", len(name)/2+1
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	for _, c := range sorted {
		if c == name {
			continue
		}
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

// didYouMean formats a suggestion suffix for an error message.
func didYouMean(name string, candidates []string) string {
	if s, ok := suggest(name, candidates); ok {
		return " (did you mean " + strconv.Quote(s) + "?)"
	}
	return ""
}
