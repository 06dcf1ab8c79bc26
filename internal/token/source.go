package token

import (
	"unicode"
	"unicode/utf8"
)

// source is a character cursor over an in-memory UTF-8 text.
// Offsets exposed through index are character offsets, not bytes.
type source struct {
	filename string
	buf      string

	ch    rune // current character, -1 at end of input
	offs  int  // byte offset of the character after ch
	index int  // character offset of ch

	lineNumber int // 1-based line of ch
	lineIndex  int // character offset of the first character of the line
}

func (s *source) init(filename, src string) {
	s.filename = filename
	s.buf = src
	s.offs = 0
	s.index = -1
	s.lineNumber = 1
	s.lineIndex = 0
	s.nextch()
}

// nextch advances to the next character. Line counters are not touched;
// the tokenizer advances them when it emits a NewLine token.
func (s *source) nextch() {
	s.index++
	if s.offs >= len(s.buf) {
		s.ch = -1
		return
	}
	r, w := utf8.DecodeRuneInString(s.buf[s.offs:])
	s.ch = r
	s.offs += w
}

// peek returns the character after ch without consuming it.
func (s *source) peek() rune {
	if s.offs >= len(s.buf) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(s.buf[s.offs:])
	return r
}

// newline records that ch was a line feed that has just been consumed.
func (s *source) newline() {
	s.lineNumber++
	s.lineIndex = s.index
}

func (s *source) meta(begin int) Meta {
	return Meta{Begin: begin, End: s.index, LineIndex: s.lineIndex, LineNumber: s.lineNumber}
}

func (s *source) pos() Pos {
	return NewPos(s.filename, s.lineNumber, s.index-s.lineIndex+1)
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || 'a' <= lower(r) && lower(r) <= 'f'
}

func isBinaryDigit(r rune) bool {
	return r == '0' || r == '1'
}

func lower(r rune) rune {
	return ('a' - 'A') | r
}

// isOperator reports whether r is a single-character operator.
func isOperator(r rune) bool {
	switch r {
	case '.', '=', '+', '-', '*', '/', '<', '>', '?', '!', '^', '&', '~', '$', '|', '%':
		return true
	}
	return false
}

var separators = map[rune]Kind{
	';': Semicolon,
	':': Colon,
	',': Comma,
	'{': Begin,
	'}': End,
	'(': Open,
	')': Close,
	'[': Start,
	']': Stop,
}
