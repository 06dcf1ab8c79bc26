package syntax

// Operator is a binary operator of the expression grammar.
type Operator uint8

const (
	Unknown Operator = iota

	And    // &&
	Or     // ||
	Add    // +
	Sub    // -
	Mul    // *
	Div    // /
	Mod    // %
	Pow    // ^
	Eql    // ==
	Neq    // !=
	Gtr    // >
	Geq    // >=
	Lss    // <
	Leq    // <=
	Slice  // :
	Lambda // ::
	Arrow  // ->
	Assign // =
)

// Associativity of equal-precedence operators.
const (
	LeftAssoc  = 0
	RightAssoc = 1
)

type operatorInfo struct {
	text  string
	prec  int
	assoc int
}

var operators = [...]operatorInfo{
	Unknown: {"", -1, LeftAssoc},
	And:     {"&&", 0, LeftAssoc},
	Or:      {"||", 0, LeftAssoc},
	Add:     {"+", 1, LeftAssoc},
	Sub:     {"-", 1, LeftAssoc},
	Mul:     {"*", 2, LeftAssoc},
	Div:     {"/", 2, LeftAssoc},
	Mod:     {"%", 2, LeftAssoc},
	Pow:     {"^", 3, RightAssoc},
	Eql:     {"==", 4, LeftAssoc},
	Neq:     {"!=", 4, LeftAssoc},
	Gtr:     {">", 4, LeftAssoc},
	Geq:     {">=", 4, LeftAssoc},
	Lss:     {"<", 4, LeftAssoc},
	Leq:     {"<=", 4, LeftAssoc},
	Slice:   {":", 5, LeftAssoc},
	Lambda:  {"::", 5, LeftAssoc},
	Arrow:   {"->", 6, LeftAssoc},
	Assign:  {"=", 7, LeftAssoc},
}

var operatorByText = func() map[string]Operator {
	m := make(map[string]Operator, len(operators))
	for op := And; op <= Assign; op++ {
		m[operators[op].text] = op
	}
	return m
}()

// LookupOperator maps operator text to its Operator. Unrecognized text
// maps to Unknown.
func LookupOperator(text string) Operator {
	return operatorByText[text]
}

// Precedence returns the binding strength; higher binds tighter.
// Unknown has precedence -1.
func (op Operator) Precedence() int {
	if int(op) >= len(operators) {
		return -1
	}
	return operators[op].prec
}

// Associativity returns LeftAssoc or RightAssoc.
func (op Operator) Associativity() int {
	if int(op) >= len(operators) {
		return LeftAssoc
	}
	return operators[op].assoc
}

// IsComparison reports whether op yields a bool from two operands.
func (op Operator) IsComparison() bool {
	return op >= Eql && op <= Leq
}

// IsLogical reports whether op is && or ||.
func (op Operator) IsLogical() bool {
	return op == And || op == Or
}

func (op Operator) String() string {
	if op == Unknown || int(op) >= len(operators) {
		return "Unknown"
	}
	return operators[op].text
}

// HasPrecedence reports whether first binds at least as tightly as
// second when first appears to the left: either its precedence is
// higher, or it is equal and first is left-associative.
func HasPrecedence(first, second Operator) bool {
	return first.Precedence() > second.Precedence() ||
		(first.Precedence() == second.Precedence() && first.Associativity() == LeftAssoc)
}

// twoCharOperators may be assembled from two adjacent operator tokens.
var twoCharOperators = map[string]bool{
	"&&": true, "||": true, "==": true, "!=": true, ">=": true, "<=": true,
	"->": true, "++": true, "--": true,
}
