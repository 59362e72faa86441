package parser

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sandrolain/gocalc/pkg/types"
)

const eof = -1

// constants maps the named constants to their values.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// Lexer converts an arithmetic expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
//
// Positions are character (rune) offsets, so display symbols such as × and π
// count as one position each.
type Lexer struct {
	input   []rune // Input being scanned
	start   int    // Start position of current token
	current int    // Current position in input
	err     error  // First error encountered

	// words holds the function names the lexer keeps whole. A nil set
	// means BuiltinFunctions.
	words map[string]struct{}
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: []rune(input),
	}
}

// Tokenize converts input into its full token sequence, excluding the
// trailing TokenEOF. It stops at the first malformed token.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		t := l.Next()
		switch t.Type {
		case TokenEOF:
			return tokens, nil
		case TokenError:
			return nil, l.Error()
		}
		tokens = append(tokens, t)
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	if l.err != nil {
		return Token{Type: TokenError, Position: l.start}
	}

	l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	if isDigit(ch) || ch == '.' {
		l.backup()
		return l.scanNumber()
	}

	if isLetter(ch) {
		l.backup()
		return l.scanWord()
	}

	switch c := canonical(ch); {
	case c == '*':
		// ** is accepted as an alias for ^
		if l.acceptRune('*') {
			return l.newToken(TokenOperator, "^")
		}
		return l.newToken(TokenOperator, "*")
	case isOperator(c):
		return l.newToken(TokenOperator, string(c))
	case c == '%':
		return l.newToken(TokenPercent, "%")
	case c == '(':
		return l.newToken(TokenParenOpen, "(")
	case c == ')':
		return l.newToken(TokenParenClose, ")")
	case c == '√':
		return l.newToken(TokenRoot, "√")
	case c == 'π':
		t := l.newToken(TokenNumber, "π")
		t.Number = math.Pi
		t.Constant = true
		return t
	}

	l.backup()
	return l.error(types.ErrUnknownCharacter, fmt.Sprintf("unknown character %q", ch), string(ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanNumber reads a decimal numeral: digits with at most one decimal point.
// Format: [0-9]*(\.[0-9]*)?
func (l *Lexer) scanNumber() Token {
	digits := l.acceptAll(isDigit)
	if l.acceptRune('.') {
		if l.acceptAll(isDigit) {
			digits = true
		}
		if r := l.peek(); r == '.' {
			l.start = l.current
			return l.error(types.ErrMalformedNumber, "numeral has more than one decimal point", ".")
		}
	}
	if !digits {
		return l.error(types.ErrMalformedNumber, "decimal point without digits", l.text())
	}

	text := l.text()
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(value, 0) {
		return l.error(types.ErrNumberTooLarge, "numeral exceeds the representable range", text)
	}

	t := l.newToken(TokenNumber, text)
	t.Number = value
	return t
}

// scanWord reads a run of ASCII letters. Named constants become number
// tokens and function names become identifiers. A run that is neither but
// starts with a constant, as in "esin" or "pie", yields the constant alone
// so the rest is scanned as a separate word. Any other word is an
// identifier, reported by the parser.
func (l *Lexer) scanWord() Token {
	l.acceptAll(isLetter)
	word := l.text()
	if v, ok := constants[word]; ok {
		return l.constantToken(word, v)
	}
	if l.isFunction(word) {
		return l.newToken(TokenIdentifier, word)
	}
	for _, name := range constantPrefixes {
		if strings.HasPrefix(word, name) {
			l.current = l.start + len(name)
			return l.constantToken(name, constants[name])
		}
	}
	return l.newToken(TokenIdentifier, word)
}

// constantPrefixes lists the named constants longest first.
var constantPrefixes = []string{"pi", "e"}

func (l *Lexer) constantToken(name string, v float64) Token {
	t := l.newToken(TokenNumber, name)
	t.Number = v
	t.Constant = true
	return t
}

func (l *Lexer) isFunction(word string) bool {
	if l.words == nil {
		return slices.Contains(BuiltinFunctions, word)
	}
	_, ok := l.words[word]
	return ok
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: len(l.input),
	}
}

func (l *Lexer) error(code types.ErrorCode, message, token string) Token {
	t := Token{Type: TokenError, Value: token, Position: l.start}
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: l.start,
		Token:    token,
	}
	return t
}

func (l *Lexer) text() string {
	return string(l.input[l.start:l.current])
}

func (l *Lexer) newToken(tt TokenType, value string) Token {
	t := Token{
		Type:     tt,
		Value:    value,
		Position: l.start,
	}
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.current >= len(l.input) {
		l.current = len(l.input) + 1
		return eof
	}
	r := l.input[l.current]
	l.current++
	return r
}

func (l *Lexer) peek() rune {
	if l.current >= len(l.input) {
		return eof
	}
	return l.input[l.current]
}

func (l *Lexer) backup() {
	l.current--
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	l.acceptAll(isWhitespace)
	l.ignore()
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\u00a0':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
