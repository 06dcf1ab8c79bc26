package token

import "fmt"

// ErrorCode identifies a class of lexical error.
type ErrorCode int

const (
	InvalidToken           ErrorCode = 101
	InvalidEscape          ErrorCode = 102
	MissingTerminator      ErrorCode = 103
	InvalidUnsignedLiteral ErrorCode = 104
	MultipleDecimalPoints  ErrorCode = 105
	InvalidSuffix          ErrorCode = 106
)

var codeNames = map[ErrorCode]string{
	InvalidToken:           "invalid token",
	InvalidEscape:          "invalid escape sequence",
	MissingTerminator:      "missing terminator",
	InvalidUnsignedLiteral: "invalid unsigned literal",
	MultipleDecimalPoints:  "multiple decimal points",
	InvalidSuffix:          "invalid literal suffix",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("error %d", int(c))
}

// Error is a lexical error. The token stream carries an Unexpected token
// at the point where it occurred.
type Error struct {
	Pos  Pos
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: E%d %s", e.Pos, int(e.Code), e.Msg)
}
