// Package token implements the lexical layer of the Void language: token
// kinds, the tokenizer and the automatic semicolon insertion transform.
package token

import "fmt"

// Kind represents the kind of a lexical token.
type Kind uint

const (
	None Kind = iota

	// Literals
	String      // "text"
	Character   // 'c'
	Byte        // 1B
	UByte       // 1UB
	Short       // 1S
	UShort      // 1US
	Integer     // 1, 1I
	UInteger    // 1U, 1UI
	Long        // 1L
	ULong       // 1UL
	Float       // 1.5F
	Double      // 1.5, 1.5D
	Hexadecimal // 0x1F
	Binary      // 0b101
	Boolean     // true false
	Null        // null nullptr

	// Separators
	Semicolon // ;
	Colon     // :
	Comma     // ,
	Begin     // {
	End       // }
	Open      // (
	Close     // )
	Start     // [
	Stop      // ]

	// Words
	Identifier
	Operator   // single operator character
	Expression // control and expression keywords
	Type       // primitive type keywords
	Modifier   // modifier keywords
	Info       // package import using
	Annotation // @name

	// Stream control
	NewLine
	Finish
	Unexpected

	kindCount
)

var kindNames = [...]string{
	None:        "NONE",
	String:      "STRING",
	Character:   "CHARACTER",
	Byte:        "BYTE",
	UByte:       "UBYTE",
	Short:       "SHORT",
	UShort:      "USHORT",
	Integer:     "INTEGER",
	UInteger:    "UINTEGER",
	Long:        "LONG",
	ULong:       "ULONG",
	Float:       "FLOAT",
	Double:      "DOUBLE",
	Hexadecimal: "HEXADECIMAL",
	Binary:      "BINARY",
	Boolean:     "BOOLEAN",
	Null:        "NULL",
	Semicolon:   "SEMICOLON",
	Colon:       "COLON",
	Comma:       "COMMA",
	Begin:       "BEGIN",
	End:         "END",
	Open:        "OPEN",
	Close:       "CLOSE",
	Start:       "START",
	Stop:        "STOP",
	Identifier:  "IDENTIFIER",
	Operator:    "OPERATOR",
	Expression:  "EXPRESSION",
	Type:        "TYPE",
	Modifier:    "MODIFIER",
	Info:        "INFO",
	Annotation:  "ANNOTATION",
	NewLine:     "NEW_LINE",
	Finish:      "FINISH",
	Unexpected:  "UNEXPECTED",
}

// String returns the upper-case name of the kind.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint(k))
}

// IsLiteral reports whether k is a literal kind.
func (k Kind) IsLiteral() bool {
	return String <= k && k <= Null
}

// IsNumber reports whether k is a numeric literal kind.
func (k Kind) IsNumber() bool {
	return Byte <= k && k <= Binary
}

// IsUnsigned reports whether k is an unsigned integer literal kind.
func (k Kind) IsUnsigned() bool {
	switch k {
	case UByte, UShort, UInteger, ULong:
		return true
	}
	return false
}

// Meta records where a token was found in the source.
// Begin and End are character offsets of the half-open range [Begin,End).
type Meta struct {
	Begin      int
	End        int
	LineIndex  int // character offset of the first character of the line
	LineNumber int // 1-based
}

// Col returns the 1-based column of the token start.
func (m Meta) Col() int {
	return m.Begin - m.LineIndex + 1
}

// IsValid reports whether the meta refers to a source location.
func (m Meta) IsValid() bool {
	return m.LineNumber > 0
}

// Pos returns the source position of m within filename.
func (m Meta) Pos(filename string) Pos {
	return NewPos(filename, m.LineNumber, m.Col())
}

// Token is a single lexical token. Tokens are immutable values.
type Token struct {
	Kind Kind
	Text string
	Meta Meta
}

// Of returns a token without source information.
func Of(kind Kind, text string) Token {
	return Token{Kind: kind, Text: text}
}

// Is reports whether the token has the given kind and, when texts are
// given, one of the given texts.
func (t Token) Is(kind Kind, texts ...string) bool {
	if t.Kind != kind {
		return false
	}
	if len(texts) == 0 {
		return true
	}
	for _, text := range texts {
		if t.Text == text {
			return true
		}
	}
	return false
}

// IsAny reports whether the token has one of the given kinds.
func (t Token) IsAny(kinds ...Kind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// Same reports whether t and u have the same kind and text.
// Source positions are not compared.
func (t Token) Same(u Token) bool {
	return t.Kind == u.Kind && t.Text == u.Text
}

// String returns a debug rendering such as IDENTIFIER(main).
func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Text)
}
