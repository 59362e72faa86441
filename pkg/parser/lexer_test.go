package parser_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

type lexerTestCase struct {
	name      string
	input     string
	expected  []parser.Token
	expectErr types.ErrorCode
	errPos    int
}

func TestLexerWhitespace(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:  "no whitespace",
			input: "12",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "12", Number: 12, Position: 0},
			},
		},
		{
			name:  "leading whitespace",
			input: "   12",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "12", Number: 12, Position: 3},
			},
		},
		{
			name:  "mixed whitespace",
			input: " \t\n\r\v12 ",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "12", Number: 12, Position: 5},
			},
		},
		{
			name:     "only whitespace",
			input:    "   ",
			expected: nil,
		},
	}

	runLexerTests(t, tests)
}

func TestLexerNumbers(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:  "integer",
			input: "42",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "42", Number: 42, Position: 0},
			},
		},
		{
			name:  "decimal",
			input: "3.14",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "3.14", Number: 3.14, Position: 0},
			},
		},
		{
			name:  "leading point",
			input: ".5",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: ".5", Number: 0.5, Position: 0},
			},
		},
		{
			name:  "trailing point",
			input: "5.",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "5.", Number: 5, Position: 0},
			},
		},
		{
			name:      "two decimal points",
			input:     "1.2.3",
			expectErr: types.ErrMalformedNumber,
			errPos:    3,
		},
		{
			name:      "bare point",
			input:     "1 + .",
			expectErr: types.ErrMalformedNumber,
			errPos:    4,
		},
		{
			name:      "numeral too large",
			input:     strings.Repeat("9", 400),
			expectErr: types.ErrNumberTooLarge,
			errPos:    0,
		},
	}

	runLexerTests(t, tests)
}

func TestLexerOperators(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:  "ascii operators",
			input: "1+2-3*4/5^6!",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "1", Number: 1, Position: 0},
				{Type: parser.TokenOperator, Value: "+", Position: 1},
				{Type: parser.TokenNumber, Value: "2", Number: 2, Position: 2},
				{Type: parser.TokenOperator, Value: "-", Position: 3},
				{Type: parser.TokenNumber, Value: "3", Number: 3, Position: 4},
				{Type: parser.TokenOperator, Value: "*", Position: 5},
				{Type: parser.TokenNumber, Value: "4", Number: 4, Position: 6},
				{Type: parser.TokenOperator, Value: "/", Position: 7},
				{Type: parser.TokenNumber, Value: "5", Number: 5, Position: 8},
				{Type: parser.TokenOperator, Value: "^", Position: 9},
				{Type: parser.TokenNumber, Value: "6", Number: 6, Position: 10},
				{Type: parser.TokenOperator, Value: "!", Position: 11},
			},
		},
		{
			name:  "display symbols",
			input: "3×4÷2−1",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "3", Number: 3, Position: 0},
				{Type: parser.TokenOperator, Value: "*", Position: 1},
				{Type: parser.TokenNumber, Value: "4", Number: 4, Position: 2},
				{Type: parser.TokenOperator, Value: "/", Position: 3},
				{Type: parser.TokenNumber, Value: "2", Number: 2, Position: 4},
				{Type: parser.TokenOperator, Value: "-", Position: 5},
				{Type: parser.TokenNumber, Value: "1", Number: 1, Position: 6},
			},
		},
		{
			name:  "double star is power",
			input: "2**3",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "2", Number: 2, Position: 0},
				{Type: parser.TokenOperator, Value: "^", Position: 1},
				{Type: parser.TokenNumber, Value: "3", Number: 3, Position: 3},
			},
		},
		{
			name:  "percent is separate",
			input: "50%",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "50", Number: 50, Position: 0},
				{Type: parser.TokenPercent, Value: "%", Position: 2},
			},
		},
		{
			name:  "root and parens",
			input: "√(9)",
			expected: []parser.Token{
				{Type: parser.TokenRoot, Value: "√", Position: 0},
				{Type: parser.TokenParenOpen, Value: "(", Position: 1},
				{Type: parser.TokenNumber, Value: "9", Number: 9, Position: 2},
				{Type: parser.TokenParenClose, Value: ")", Position: 3},
			},
		},
		{
			name:      "unknown character",
			input:     "2 $ 3",
			expectErr: types.ErrUnknownCharacter,
			errPos:    2,
		},
		{
			name:      "unknown character after symbols",
			input:     "π×2#",
			expectErr: types.ErrUnknownCharacter,
			errPos:    3,
		},
	}

	runLexerTests(t, tests)
}

func TestLexerWords(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:  "function name",
			input: "sin(30)",
			expected: []parser.Token{
				{Type: parser.TokenIdentifier, Value: "sin", Position: 0},
				{Type: parser.TokenParenOpen, Value: "(", Position: 3},
				{Type: parser.TokenNumber, Value: "30", Number: 30, Position: 4},
				{Type: parser.TokenParenClose, Value: ")", Position: 6},
			},
		},
		{
			name:  "constants",
			input: "π e pi",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "π", Number: math.Pi, Constant: true, Position: 0},
				{Type: parser.TokenNumber, Value: "e", Number: math.E, Constant: true, Position: 2},
				{Type: parser.TokenNumber, Value: "pi", Number: math.Pi, Constant: true, Position: 4},
			},
		},
		{
			name:  "e before a function name",
			input: "esin(30)",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "e", Number: math.E, Constant: true, Position: 0},
				{Type: parser.TokenIdentifier, Value: "sin", Position: 1},
				{Type: parser.TokenParenOpen, Value: "(", Position: 4},
				{Type: parser.TokenNumber, Value: "30", Number: 30, Position: 5},
				{Type: parser.TokenParenClose, Value: ")", Position: 7},
			},
		},
		{
			name:  "adjacent constants",
			input: "pie",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "pi", Number: math.Pi, Constant: true, Position: 0},
				{Type: parser.TokenNumber, Value: "e", Number: math.E, Constant: true, Position: 2},
			},
		},
		{
			name:  "repeated e",
			input: "ee",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "e", Number: math.E, Constant: true, Position: 0},
				{Type: parser.TokenNumber, Value: "e", Number: math.E, Constant: true, Position: 1},
			},
		},
		{
			name:  "unknown word is an identifier",
			input: "foo",
			expected: []parser.Token{
				{Type: parser.TokenIdentifier, Value: "foo", Position: 0},
			},
		},
	}

	runLexerTests(t, tests)
}

func TestTokenize(t *testing.T) {
	tokens, err := parser.Tokenize("2 × (3 + 4)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 7 {
		t.Fatalf("got %d tokens, want 7: %v", len(tokens), tokens)
	}

	_, err = parser.Tokenize("2 @ 3")
	if !errors.Is(err, types.ErrSyntax) {
		t.Fatalf("expected a syntax error, got %v", err)
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	l := parser.NewLexer("1")
	l.Next()
	for i := 0; i < 3; i++ {
		if tok := l.Next(); tok.Type != parser.TokenEOF || tok.Position != 1 {
			t.Fatalf("call %d: got %v at %d, want EOF at 1", i, tok.Type, tok.Position)
		}
	}
}

func runLexerTests(t *testing.T, tests []lexerTestCase) {
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lexer := parser.NewLexer(test.input)
			var tokens []parser.Token

			for {
				tok := lexer.Next()
				if tok.Type == parser.TokenEOF {
					break
				}
				if tok.Type == parser.TokenError {
					if test.expectErr == "" {
						t.Errorf("unexpected error: %v", lexer.Error())
						return
					}
					diag, ok := types.AsDiagnostic(lexer.Error())
					if !ok {
						t.Fatalf("expected *types.Error, got %T", lexer.Error())
					}
					if diag.Code != test.expectErr {
						t.Errorf("error code = %s, want %s", diag.Code, test.expectErr)
					}
					if diag.Position != test.errPos {
						t.Errorf("error position = %d, want %d", diag.Position, test.errPos)
					}
					return
				}
				tokens = append(tokens, tok)
			}

			if test.expectErr != "" {
				t.Error("expected error but got none")
				return
			}

			if len(tokens) != len(test.expected) {
				t.Errorf("got %d tokens, want %d\nGot: %v\nWant: %v",
					len(tokens), len(test.expected), tokens, test.expected)
				return
			}

			for i, tok := range tokens {
				exp := test.expected[i]
				if tok.Type != exp.Type {
					t.Errorf("token %d: type = %v, want %v", i, tok.Type, exp.Type)
				}
				if tok.Value != exp.Value {
					t.Errorf("token %d: value = %q, want %q", i, tok.Value, exp.Value)
				}
				if tok.Number != exp.Number {
					t.Errorf("token %d: number = %v, want %v", i, tok.Number, exp.Number)
				}
				if tok.Constant != exp.Constant {
					t.Errorf("token %d: constant = %v, want %v", i, tok.Constant, exp.Constant)
				}
				if tok.Position != exp.Position {
					t.Errorf("token %d: position = %d, want %d", i, tok.Position, exp.Position)
				}
			}
		})
	}
}
