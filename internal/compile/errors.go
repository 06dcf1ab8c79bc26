package compile

import (
	"fmt"

	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/token"
)

// ErrorKind classifies a resolution or lowering error.
type ErrorKind uint8

const (
	UnresolvedName ErrorKind = iota + 1
	UnresolvedType
	UnresolvedMethod
	TypeMismatch
	NotPointerOwner
	NotReference
	NotScalar
	NotMutable
	IndexOutOfBounds
	InvalidOperation
)

var errorKindNames = [...]string{
	UnresolvedName:   "unresolved name",
	UnresolvedType:   "unresolved type",
	UnresolvedMethod: "unresolved method",
	TypeMismatch:     "type mismatch",
	NotPointerOwner:  "not a pointer owner",
	NotReference:     "not a reference",
	NotScalar:        "not a scalar",
	NotMutable:       "not mutable",
	IndexOutOfBounds: "index out of bounds",
	InvalidOperation: "invalid operation",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) && errorKindNames[k] != "" {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is a compile error of one unit.
type Error struct {
	Kind ErrorKind
	Pos  token.Pos
	Msg  string
	Node syntax.Node // offending node, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// ErrorHandler is called for the error that aborts a unit.
type ErrorHandler func(err *Error)

// bailout unwinds the compiler to Compile after the first error.
type bailout struct{}

// errorf records the first error of the unit and aborts it.
func (c *compiler) errorf(n syntax.Node, kind ErrorKind, format string, args ...any) {
	err := &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Node: n}
	if n != nil {
		err.Pos = n.Pos()
	}
	if c.first == nil {
		c.first = err
	}
	if c.conf.Error != nil {
		c.conf.Error(err)
	}
	panic(bailout{})
}

// mismatch reports a TypeMismatch between the wanted and the actual type.
func (c *compiler) mismatch(n syntax.Node, what string, want, got fmt.Stringer) {
	c.errorf(n, TypeMismatch, "cannot use %s as %s in %s", got, want, what)
}
