package token

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns source text into tokens, one per call to Next.
// It never panics on malformed input: a lexical error yields an
// Unexpected token and is reported through the error handler.
type Tokenizer struct {
	source

	errh func(*Error)
	err  *Error // first error
	done bool   // Finish or Unexpected has been produced

	pending []Token // comment delimiters queued by scanComment

	lit strings.Builder
}

// NewTokenizer creates a tokenizer over src. The errh function is called
// for each lexical error; it may be nil.
func NewTokenizer(filename, src string, errh func(*Error)) *Tokenizer {
	t := &Tokenizer{errh: errh}
	t.source.init(filename, src)
	return t
}

// Tokenize is a convenience wrapper that returns every token up to and
// including the first Finish or Unexpected token.
func Tokenize(filename, src string) ([]Token, error) {
	t := NewTokenizer(filename, src, nil)
	toks := t.All()
	if err := t.Err(); err != nil {
		return toks, err
	}
	return toks, nil
}

// All calls Next until a Finish or Unexpected token is produced.
func (t *Tokenizer) All() []Token {
	var toks []Token
	for {
		tok := t.Next()
		toks = append(toks, tok)
		if tok.Kind == Finish || tok.Kind == Unexpected {
			return toks
		}
	}
}

// Err returns the first lexical error, or nil.
func (t *Tokenizer) Err() error {
	if t.err == nil {
		return nil
	}
	return t.err
}

// Next returns the next token. After Finish or Unexpected it keeps
// returning Finish.
func (t *Tokenizer) Next() Token {
	if len(t.pending) > 0 {
		tok := t.pending[0]
		t.pending = t.pending[1:]
		return tok
	}
	if t.done {
		return Token{Kind: Finish, Meta: t.meta(t.index)}
	}

	for isWhitespace(t.ch) {
		t.nextch()
	}

	begin := t.index
	switch {
	case t.ch < 0:
		t.done = true
		return Token{Kind: Finish, Meta: t.meta(begin)}

	case t.ch == '\n':
		t.nextch()
		t.newline()
		return Token{Kind: NewLine}

	case isIdentStart(t.ch):
		return t.scanIdent()

	case isDigit(t.ch):
		return t.scanNumber()

	case t.ch == '"':
		return t.scanQuoted('"', String)

	case t.ch == '\'':
		return t.scanQuoted('\'', Character)

	case t.ch == '@':
		return t.scanAnnotation()

	case t.ch == '/' && (t.peek() == '/' || t.peek() == '*'):
		return t.scanComment()

	case isOperator(t.ch):
		return t.operator()
	}

	if kind, ok := separators[t.ch]; ok {
		text := string(t.ch)
		t.nextch()
		return Token{Kind: kind, Text: text, Meta: t.meta(begin)}
	}

	ch := t.ch
	t.nextch()
	return t.fail(begin, InvalidToken, fmt.Sprintf("unexpected character %q", ch))
}

// fail records a lexical error and returns the Unexpected token for it.
func (t *Tokenizer) fail(begin int, code ErrorCode, msg string) Token {
	m := t.meta(begin)
	e := &Error{Pos: m.Pos(t.filename), Code: code, Msg: msg}
	if t.err == nil {
		t.err = e
	}
	if t.errh != nil {
		t.errh(e)
	}
	t.done = true
	return Token{Kind: Unexpected, Meta: m}
}

// scanComment emits the opening delimiter of a comment as two operator
// tokens and skips the comment body without scanning it, so that quotes in
// comments are harmless. The closing delimiter of a block comment is
// emitted too. Removing comments is left to Transform.
func (t *Tokenizer) scanComment() Token {
	first := t.operator()
	second := t.operator()
	if second.Text == "/" {
		for t.ch >= 0 && t.ch != '\n' {
			t.nextch()
		}
		t.pending = append(t.pending, second)
		return first
	}
	t.pending = append(t.pending, second)
	for t.ch >= 0 {
		if t.ch == '*' && t.peek() == '/' {
			t.pending = append(t.pending, t.operator(), t.operator())
			return first
		}
		if t.ch == '\n' {
			t.nextch()
			t.newline()
			continue
		}
		t.nextch()
	}
	return first
}

func (t *Tokenizer) operator() Token {
	begin := t.index
	op := string(t.ch)
	t.nextch()
	return Token{Kind: Operator, Text: op, Meta: t.meta(begin)}
}

func (t *Tokenizer) scanIdent() Token {
	begin := t.index
	t.lit.Reset()
	for isIdentPart(t.ch) {
		t.lit.WriteRune(t.ch)
		t.nextch()
	}
	word := norm.NFC.String(t.lit.String())
	return Token{Kind: Classify(word), Text: word, Meta: t.meta(begin)}
}

func (t *Tokenizer) scanAnnotation() Token {
	begin := t.index
	t.nextch() // skip '@'
	if !isIdentStart(t.ch) {
		return t.fail(begin, InvalidToken, "annotation name expected after '@'")
	}
	t.lit.Reset()
	for isIdentPart(t.ch) {
		t.lit.WriteRune(t.ch)
		t.nextch()
	}
	return Token{Kind: Annotation, Text: norm.NFC.String(t.lit.String()), Meta: t.meta(begin)}
}

func (t *Tokenizer) scanNumber() Token {
	begin := t.index
	t.lit.Reset()

	if t.ch == '0' {
		switch next := t.peek(); {
		case next == 'x' || next == 'X':
			return t.scanRadix(begin, "0x", Hexadecimal, isHexDigit)
		case next == 'b':
			return t.scanRadix(begin, "0b", Binary, isBinaryDigit)
		}
	}

	floating := false
loop:
	for {
		switch {
		case isDigit(t.ch):
			t.lit.WriteRune(t.ch)
		case t.ch == '_':
		case t.ch == '.':
			if floating {
				t.nextch()
				return t.fail(begin, MultipleDecimalPoints, "multiple decimal points in number")
			}
			if !isDigit(t.peek()) {
				// member access on an integer literal
				break loop
			}
			floating = true
			t.lit.WriteRune(t.ch)
		default:
			break loop
		}
		t.nextch()
	}

	kind := Integer
	if floating {
		kind = Double
	}

	unsigned := false
	if next := t.peek(); lower(t.ch) == 'u' && (!isIdentPart(next) || isSuffix(next)) {
		unsigned = true
		t.nextch()
	}

	if isSuffix(t.ch) {
		suffix := lower(t.ch)
		t.nextch()
		switch suffix {
		case 'b', 's', 'i', 'l':
			if floating {
				return t.fail(begin, InvalidSuffix, fmt.Sprintf("integer suffix %q on a fractional number", suffix))
			}
			kind = integerSuffixes[suffix]
		case 'f':
			kind = Float
		case 'd':
			kind = Double
		}
	}

	if unsigned {
		if kind == Float || kind == Double {
			return t.fail(begin, InvalidUnsignedLiteral, "unsigned suffix on a floating point number")
		}
		kind = unsignedOf[kind]
	}

	if isIdentPart(t.ch) {
		t.nextch()
		return t.fail(begin, InvalidSuffix, "invalid character after number")
	}

	return Token{Kind: kind, Text: t.lit.String(), Meta: t.meta(begin)}
}

var integerSuffixes = map[rune]Kind{
	'b': Byte,
	's': Short,
	'i': Integer,
	'l': Long,
}

var unsignedOf = map[Kind]Kind{
	Byte:    UByte,
	Short:   UShort,
	Integer: UInteger,
	Long:    ULong,
}

func isSuffix(r rune) bool {
	switch lower(r) {
	case 'b', 's', 'i', 'l', 'f', 'd':
		return true
	}
	return false
}

// scanRadix scans a 0x or 0b literal. The prefix is kept in the text.
func (t *Tokenizer) scanRadix(begin int, prefix string, kind Kind, digit func(rune) bool) Token {
	t.nextch() // '0'
	t.nextch() // 'x' or 'b'
	t.lit.WriteString(prefix)
	n := 0
	for digit(t.ch) || t.ch == '_' {
		if t.ch != '_' {
			t.lit.WriteRune(t.ch)
			n++
		}
		t.nextch()
	}
	if n == 0 || isIdentPart(t.ch) {
		t.nextch()
		return t.fail(begin, InvalidToken, "malformed "+strings.ToLower(kind.String())+" literal")
	}
	return Token{Kind: kind, Text: t.lit.String(), Meta: t.meta(begin)}
}

func (t *Tokenizer) scanQuoted(quote rune, kind Kind) Token {
	begin := t.index
	t.nextch() // opening quote
	t.lit.Reset()
	n := 0
	for {
		switch t.ch {
		case -1, '\n':
			return t.fail(begin, MissingTerminator, fmt.Sprintf("missing terminating %c", quote))
		case quote:
			t.nextch()
			if kind == Character && n != 1 {
				return t.fail(begin, InvalidToken, "character literal must hold exactly one character")
			}
			return Token{Kind: kind, Text: t.lit.String(), Meta: t.meta(begin)}
		case '\\':
			t.nextch()
			r, ok := escapes[t.ch]
			if !ok {
				ch := t.ch
				t.nextch()
				return t.fail(begin, InvalidEscape, fmt.Sprintf("invalid escape sequence \\%c", ch))
			}
			t.lit.WriteRune(r)
		default:
			t.lit.WriteRune(t.ch)
		}
		n++
		t.nextch()
	}
}

var escapes = map[rune]rune{
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
}
