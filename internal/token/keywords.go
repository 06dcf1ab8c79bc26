package token

// Keyword sets. They are disjoint; classify consults them in the order
// expression, type, modifier, boolean, null, info.
var (
	expressionKeywords = set(
		"new", "class", "enum", "union", "struct", "interface", "for", "while",
		"repeat", "do", "if", "else", "switch", "case", "loop", "continue",
		"break", "return", "await", "goto", "is", "in", "as", "where", "defer",
		"assert", "sizeof", "malloc", "free",
	)

	typeKeywords = set(
		"let", "mut", "ref", "deref", "byte", "ubyte", "short", "ushort", "int",
		"uint", "double", "udouble", "float", "ufloat", "long", "ulong", "void",
		"bool", "char", "string",
	)

	modifierKeywords = set(
		"public", "protected", "private", "static", "final", "native", "extern",
		"transient", "synchronized", "async", "const", "unsafe", "weak",
		"strong", "default",
	)

	booleanKeywords = set("true", "false")

	nullKeywords = set("null", "nullptr")

	infoKeywords = set("package", "import", "using")
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Classify returns the token kind of an identifier-shaped word.
func Classify(word string) Kind {
	switch {
	case expressionKeywords[word]:
		return Expression
	case typeKeywords[word]:
		return Type
	case modifierKeywords[word]:
		return Modifier
	case booleanKeywords[word]:
		return Boolean
	case nullKeywords[word]:
		return Null
	case infoKeywords[word]:
		return Info
	}
	return Identifier
}

// IsTypeKeyword reports whether word is a primitive type keyword.
func IsTypeKeyword(word string) bool {
	return typeKeywords[word]
}

// IsModifier reports whether word is a modifier keyword.
func IsModifier(word string) bool {
	return modifierKeywords[word]
}
