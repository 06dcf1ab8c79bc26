package token

// AutoSemicolon is the text of semicolons inserted by Transform.
const AutoSemicolon = "auto"

// class is a token class used by the semicolon rules. Text is compared
// only for operator and expression keyword kinds.
type class struct {
	kind Kind
	text string
}

func (c class) matches(t Token) bool {
	if t.Kind != c.kind {
		return false
	}
	if c.kind == Operator || c.kind == Expression {
		return t.Text == c.text
	}
	return true
}

// requiredBefore lists tokens that may end a statement.
var requiredBefore = []class{
	{kind: Identifier},
	{kind: String},
	{kind: Character},
	{kind: Byte},
	{kind: UByte},
	{kind: Short},
	{kind: UShort},
	{kind: Integer},
	{kind: UInteger},
	{kind: Long},
	{kind: ULong},
	{kind: Float},
	{kind: Double},
	{kind: Hexadecimal},
	{kind: Binary},
	{kind: Boolean},
	{kind: Null},
	{kind: Expression, text: "break"},
	{kind: Expression, text: "continue"},
	{kind: Expression, text: "return"},
	{kind: Close},
	{kind: Stop},
	{kind: End},
}

// forbiddenAfter lists tokens that continue the previous line.
var forbiddenAfter = []class{
	{kind: Operator, text: "="},
	{kind: Operator, text: "+"},
	{kind: Operator, text: "-"},
	{kind: Operator, text: "*"},
	{kind: Operator, text: "/"},
	{kind: Operator, text: "<"},
	{kind: Operator, text: ">"},
	{kind: Operator, text: "?"},
	{kind: Operator, text: "!"},
	{kind: Operator, text: "^"},
	{kind: Operator, text: "&"},
	{kind: Operator, text: "~"},
	{kind: Operator, text: "$"},
	{kind: Operator, text: "."},
	{kind: Operator, text: "%"},
	{kind: Operator, text: "|"},
	{kind: Expression, text: "where"},
}

func inClass(t Token, classes []class) bool {
	for _, c := range classes {
		if c.matches(t) {
			return true
		}
	}
	return false
}

// Transform strips comments and NewLine tokens from toks and inserts
// semicolons at line ends that terminate a statement. The end of input
// counts as a line end.
func Transform(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	at := func(i int) Token {
		if i < len(toks) {
			return toks[i]
		}
		return Token{Kind: Finish}
	}

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		next := at(i + 1)

		switch {
		case adjacentOperators(tok, next, "/", "/"):
			i = skipLineComment(toks, i+2)
			continue

		case adjacentOperators(tok, next, "/", "*"):
			i = skipBlockComment(toks, i+2)
			continue

		case tok.Kind == NewLine:
			if terminates(out) && !inClass(significant(toks, i+1), forbiddenAfter) {
				out = append(out, autoSemicolon(out))
			}
			continue

		case tok.Kind == Finish:
			if terminates(out) {
				out = append(out, autoSemicolon(out))
			}
		}

		out = append(out, tok)
	}
	return out
}

// terminates reports whether the last emitted token may end a statement.
func terminates(out []Token) bool {
	if len(out) == 0 {
		return false
	}
	last := out[len(out)-1]
	if inClass(last, requiredBefore) {
		return true
	}
	// postfix ++ and --
	if len(out) >= 2 && last.Kind == Operator && (last.Text == "+" || last.Text == "-") {
		prev := out[len(out)-2]
		return adjacentOperators(prev, last, last.Text, last.Text)
	}
	return false
}

// significant returns the first token at or after i that is not a NewLine.
func significant(toks []Token, i int) Token {
	for ; i < len(toks); i++ {
		if toks[i].Kind != NewLine {
			return toks[i]
		}
	}
	return Token{Kind: Finish}
}

func autoSemicolon(out []Token) Token {
	last := out[len(out)-1].Meta
	return Token{
		Kind: Semicolon,
		Text: AutoSemicolon,
		Meta: Meta{Begin: last.End, End: last.End, LineIndex: last.LineIndex, LineNumber: last.LineNumber},
	}
}

// adjacentOperators reports whether a and b are the operators x and y
// with no characters between them.
func adjacentOperators(a, b Token, x, y string) bool {
	if !a.Is(Operator, x) || !b.Is(Operator, y) {
		return false
	}
	if !a.Meta.IsValid() || !b.Meta.IsValid() {
		return true
	}
	return a.Meta.End == b.Meta.Begin
}

// skipLineComment returns the index of the token before the line end, so
// that the NewLine, Finish or Unexpected token is processed next.
func skipLineComment(toks []Token, i int) int {
	for ; i < len(toks); i++ {
		switch toks[i].Kind {
		case NewLine, Finish, Unexpected:
			return i - 1
		}
	}
	return i
}

// skipBlockComment returns the index of the closing '/' of the comment.
func skipBlockComment(toks []Token, i int) int {
	for ; i < len(toks); i++ {
		if toks[i].Kind == Finish || toks[i].Kind == Unexpected {
			return i - 1
		}
		if i+1 < len(toks) && adjacentOperators(toks[i], toks[i+1], "*", "/") {
			return i + 1
		}
	}
	return i
}
