package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	TokenNumber     // 42, 3.14, .5, π, e
	TokenOperator   // + - * / ^ !
	TokenIdentifier // sin, cos, tan, log, ln, sqrt
	TokenParenOpen  // (
	TokenParenClose // )
	TokenPercent    // %
	TokenRoot       // √
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenNumber:
		return "(number)"
	case TokenOperator:
		return "(operator)"
	case TokenIdentifier:
		return "(identifier)"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenPercent:
		return "%"
	case TokenRoot:
		return "√"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Canonical text: the operator symbol, identifier name or numeral
	Number   float64   // Numeric value for TokenNumber
	Constant bool      // TokenNumber produced by a named constant (π, e)
	Position int       // Starting character offset in the input string
}

// substitutions maps display symbols to their canonical operator.
var substitutions = map[rune]rune{
	'×': '*',
	'÷': '/',
	'−': '-',
	'·': '*',
}

// operators holds the canonical single-character operator symbols.
var operators = [...]bool{
	'+': true,
	'-': true,
	'*': true,
	'/': true,
	'^': true,
	'!': true,
}

// isOperator reports whether r is a canonical operator symbol.
func isOperator(r rune) bool {
	return r >= 0 && int(r) < len(operators) && operators[r]
}

// canonical applies display-symbol substitution to r.
func canonical(r rune) rune {
	if s, ok := substitutions[r]; ok {
		return s
	}
	return r
}
