// Package parser implements the arithmetic expression parser.
//
// The parser consists of two components:
//   - Lexer: tokenizes the input into numbers, operators, identifiers,
//     parentheses, percent and root tokens, applying display-symbol
//     substitution (× ÷ − π) on the way
//   - Parser: builds an expression tree with a Pratt parser honoring
//     standard precedence and right-associative exponentiation
//
// # Example
//
//	expr, err := parser.Parse("2 × (3 + 4)^2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
//
// Every failure is a *types.Error of kind KindSyntax carrying the character
// position of the offending token and, when known, the expected token.
package parser

import (
	"github.com/sandrolain/gocalc/pkg/types"
)

// Parse parses an arithmetic expression and returns the compiled Expression.
//
// Example:
//
//	expr, err := parser.Parse("1 + 2 × 3")
//	if err != nil {
//	    fmt.Printf("Parse error: %v\n", err)
//	    return
//	}
func Parse(input string) (*types.Expression, error) {
	p := NewParser(input)
	return p.Parse()
}

// Compile parses input with the given options.
func Compile(input string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(input, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits recursion depth to prevent stack overflow.
	MaxDepth int
	// Functions lists additional function names accepted besides the builtins.
	Functions []string
}

// WithMaxDepth sets the maximum parsing depth. Zero disables the limit.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// WithFunctions makes the parser accept the given function names.
func WithFunctions(names ...string) CompileOption {
	return func(opts *CompileOptions) {
		opts.Functions = append(opts.Functions, names...)
	}
}
