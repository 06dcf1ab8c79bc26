package compile

import (
	"sort"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/types"
)

// Allocation is where a variable's value lives once it is bound.
type Allocation uint8

const (
	AllocNone  Allocation = iota
	AllocHeap             // heap object from new or malloc
	AllocStack            // stack object from new or an array allocation
	AllocCall             // address returned by a call
	AllocTuple            // tuple aggregate
	AllocSlot             // one stack slot of the declared type
	AllocAlias            // reference to another variable's storage
	AllocParam            // incoming parameter
)

var allocationNames = [...]string{
	AllocNone:  "none",
	AllocHeap:  "heap",
	AllocStack: "stack",
	AllocCall:  "call",
	AllocTuple: "tuple",
	AllocSlot:  "slot",
	AllocAlias: "alias",
	AllocParam: "param",
}

func (a Allocation) String() string {
	if int(a) < len(allocationNames) {
		return allocationNames[a]
	}
	return "unknown"
}

// bindState tracks whether a variable has storage yet.
type bindState uint8

const (
	unbound bindState = iota
	bound
)

// Var is a local variable, a destructured name or a parameter.
type Var struct {
	Name string
	Type types.Type
	// Decl is the declaring statement, or the method of a parameter.
	Decl syntax.Node
	// Index is the parameter index, or -1.
	Index     int
	Mutable   bool
	Reference bool
	Alloc     Allocation

	// dim is the variable sizing a symbolic first array dimension.
	dim *Var
	// path selects a destructured member from the tuple at Index.
	path []int

	state  bindState
	addr   ir.Value // storage, or the value itself when direct
	direct bool
	length ir.Value // element count of a dynamic array
}

// Bound reports whether the variable has been given storage.
func (v *Var) Bound() bool { return v.state == bound }

// bind records the storage of v. It panics on a second binding.
func (v *Var) bind(addr ir.Value, direct bool) {
	if v.state != unbound {
		panic("compile: variable " + v.Name + " bound twice")
	}
	v.state = bound
	v.addr = addr
	v.direct = direct
}

// scope is a lexical block of local names.
type scope struct {
	parent *scope
	names  map[string]*Var
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: make(map[string]*Var)}
}

// lookup finds name in s or its parents.
func (s *scope) lookup(name string) *Var {
	for ; s != nil; s = s.parent {
		if v, ok := s.names[name]; ok {
			return v
		}
	}
	return nil
}

// insert adds v unless the name is taken in s itself, in which case it
// returns the existing variable.
func (s *scope) insert(v *Var) *Var {
	if old, ok := s.names[v.Name]; ok {
		return old
	}
	s.names[v.Name] = v
	return nil
}

// visible returns every name visible from s.
func (s *scope) visible() []string {
	seen := make(map[string]bool)
	var names []string
	for ; s != nil; s = s.parent {
		for n := range s.names {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (c *compiler) openScope()  { c.scope = newScope(c.scope) }
func (c *compiler) closeScope() { c.scope = c.scope.parent }

// declare adds a variable to the current scope.
func (c *compiler) declare(n syntax.Node, v *Var) {
	if c.scope.insert(v) != nil {
		c.errorf(n, InvalidOperation, "%s redeclared in this block", v.Name)
	}
	c.recordVars(v.Decl, v)
}
