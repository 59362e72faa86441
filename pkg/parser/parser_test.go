package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

// Helper functions

func parseExpr(t *testing.T, input string, opts ...parser.CompileOption) *types.ASTNode {
	t.Helper()
	expr, err := parser.Compile(input, opts...)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", input, err)
	}
	return expr.AST()
}

func checkNode(t *testing.T, node *types.ASTNode, expectedType types.NodeType) {
	t.Helper()
	if node == nil {
		t.Fatal("Node is nil")
	}
	if node.Type != expectedType {
		t.Errorf("Expected node type %s, got %s", expectedType, node.Type)
	}
}

// Literal tests

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value float64
	}{
		{"integer", "42", 42},
		{"decimal", "3.14", 3.14},
		{"leading point", ".25", 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, types.NodeLiteral)
			if node.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, node.Value)
			}
		})
	}
}

// Precedence and associativity, checked through the fully parenthesized
// rendering of the tree.

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "1 + (2 * 3)"},
		{"1 * 2 + 3", "(1 * 2) + 3"},
		{"1 - 2 - 3", "(1 - 2) - 3"},
		{"8 / 4 / 2", "(8 / 4) / 2"},
		{"2 ^ 3 ^ 2", "2 ^ (3 ^ 2)"},
		{"-2 ^ 2", "-(2 ^ 2)"},
		{"-5!", "-(5!)"},
		{"2 * -3", "2 * (-3)"},
		{"2 ^ -1", "2 ^ (-1)"},
		{"--5", "-(-5)"},
		{"+5", "5"},
		{"50%", "50%"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"2 × 3 ÷ 4", "(2 * 3) / 4"},
		{"3!^2", "(3!) ^ 2"},
		{"((7))", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if got := node.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRoot(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"√9", "sqrt(9)"},
		{"√(16)", "sqrt(16)"},
		{"√4^2", "sqrt(4) ^ 2"},
		{"√9!", "sqrt(9)!"},
		{"2√9", "2 * sqrt(9)"},
		{"√-4", "sqrt(-4)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if got := node.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseImplicitMultiplication(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2π", "2 * π"},
		{"3(4)", "3 * 4"},
		{"(2)(3)", "2 * 3"},
		{"(2)3", "2 * 3"},
		{"2sin(30)", "2 * sin(30)"},
		{"sin(30)cos(60)", "sin(30) * cos(60)"},
		{"2π^2", "2 * (π ^ 2)"},
		{"6/2(3)", "(6 / 2) * 3"},
		{"1 + 2e", "1 + (2 * e)"},
		{"5!π", "(5!) * π"},
		{"esin(30)", "e * sin(30)"},
		{"eln(2)", "e * ln(2)"},
		{"ee", "e * e"},
		{"pie", "pi * e"},
		{"2pisqrt(4)", "(2 * pi) * sqrt(4)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if got := node.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFunctions(t *testing.T) {
	for _, name := range parser.BuiltinFunctions {
		t.Run(name, func(t *testing.T) {
			node := parseExpr(t, name+"(1 + 1)")
			checkNode(t, node, types.NodeFunction)
			if node.Name != name {
				t.Errorf("Expected function %s, got %s", name, node.Name)
			}
			checkNode(t, node.Operand, types.NodeBinary)
		})
	}
}

func TestParseCustomFunctions(t *testing.T) {
	if _, err := parser.Parse("half(4)"); err == nil {
		t.Fatal("expected unknown function error without registration")
	}

	node := parseExpr(t, "half(4)", parser.WithFunctions("half"))
	checkNode(t, node, types.NodeFunction)
	if node.Name != "half" {
		t.Errorf("Expected function half, got %s", node.Name)
	}

	// A registered name that starts with a constant stays whole.
	node = parseExpr(t, "exp(1)", parser.WithFunctions("exp"))
	checkNode(t, node, types.NodeFunction)
	if node.Name != "exp" {
		t.Errorf("Expected function exp, got %s", node.Name)
	}
	if got := parseExpr(t, "eexp(1)", parser.WithFunctions("exp")).String(); got != "e * exp(1)" {
		t.Errorf("got %q, want %q", got, "e * exp(1)")
	}
}

// Error tests

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		code     types.ErrorCode
		position int
		expected string
	}{
		{"empty", "", types.ErrEmptyExpression, 0, "number, constant, function or ("},
		{"blank", "   ", types.ErrEmptyExpression, 3, "number, constant, function or ("},
		{"trailing operator", "1 +", types.ErrUnexpectedEnd, 3, "number, constant, function or ("},
		{"unclosed paren", "(1 + 2", types.ErrUnbalancedParens, 6, ")"},
		{"unmatched close", "1 + 2)", types.ErrUnbalancedParens, 5, ""},
		{"bare function", "sin 30", types.ErrMissingArgument, 4, "("},
		{"function at end", "2 * cos", types.ErrMissingArgument, 7, "("},
		{"empty call", "sin()", types.ErrMissingArgument, 4, "number, constant, function or ("},
		{"empty group", "()", types.ErrMissingArgument, 1, "number, constant, function or ("},
		{"unknown function", "foo(2)", types.ErrUnknownFunction, 0, ""},
		{"adjacent numbers", "2 3", types.ErrSyntaxError, 2, "operator"},
		{"leading operator", "*5", types.ErrSyntaxError, 0, "number, constant, function or ("},
		{"double operator", "1 + * 2", types.ErrSyntaxError, 4, "number, constant, function or ("},
		{"lone percent", "%", types.ErrSyntaxError, 0, "number, constant, function or ("},
		{"lexer error", "1 + 2.3.4", types.ErrMalformedNumber, 7, ""},
		{"unknown character", "1 & 2", types.ErrUnknownCharacter, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input)
			if err == nil {
				t.Fatalf("Expected error parsing %q but got none", tt.input)
			}
			if !errors.Is(err, types.ErrSyntax) {
				t.Errorf("expected a syntax diagnostic, got %v", err)
			}
			diag, ok := types.AsDiagnostic(err)
			if !ok {
				t.Fatalf("expected *types.Error, got %T", err)
			}
			if diag.Code != tt.code {
				t.Errorf("code = %s, want %s (%v)", diag.Code, tt.code, err)
			}
			if diag.Position != tt.position {
				t.Errorf("position = %d, want %d", diag.Position, tt.position)
			}
			if diag.Expected != tt.expected {
				t.Errorf("expected = %q, want %q", diag.Expected, tt.expected)
			}
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	input := strings.Repeat("(", 10) + "1" + strings.Repeat(")", 10)

	if _, err := parser.Compile(input, parser.WithMaxDepth(5)); err == nil {
		t.Fatal("expected nesting error")
	} else if diag, ok := types.AsDiagnostic(err); !ok || diag.Code != types.ErrNestingTooDeep {
		t.Fatalf("expected %s, got %v", types.ErrNestingTooDeep, err)
	}

	if _, err := parser.Compile(input, parser.WithMaxDepth(0)); err != nil {
		t.Fatalf("unexpected error with no depth limit: %v", err)
	}
}

func TestParseTreeIsRooted(t *testing.T) {
	expr, err := parser.Parse("1 + 2 * (3 - sin(4)) ^ 5!")
	if err != nil {
		t.Fatal(err)
	}
	if got := expr.AST().Depth(); got != 6 {
		t.Errorf("depth = %d, want 6", got)
	}
	if expr.Source() != "1 + 2 * (3 - sin(4)) ^ 5!" {
		t.Errorf("source not preserved: %q", expr.Source())
	}

	// The rendering re-parses to an identical tree.
	again, err := parser.Parse(expr.Canonical())
	if err != nil {
		t.Fatalf("canonical form does not parse: %v", err)
	}
	if again.Canonical() != expr.Canonical() {
		t.Errorf("got %q, want %q", again.Canonical(), expr.Canonical())
	}
}
