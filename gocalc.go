// Package gocalc provides a calculator expression engine for Go.
//
// Expressions are single-line infix arithmetic over decimal numerals, the
// operators + - × ÷ ^ and the display symbols √ ! % π, plus the functions
// sin, cos, tan, log, ln and sqrt. Every evaluation produces either a finite
// number or a structured diagnostic; Inf and NaN never leave the engine.
//
// # Quick Start
//
//	// Simple evaluation
//	result, err := gocalc.Eval("2 + 3 × 4")
//
//	// Compile once, evaluate many times
//	expr, err := gocalc.Compile("sin(30) + 1")
//	ev := evaluator.New()
//	deg, _ := ev.Eval(ctx, expr, evaluator.NewContext())
//	rad, _ := ev.Eval(ctx, expr, evaluator.NewContextWithMode(evaluator.Radians))
//
//	// Interactive calculator
//	s := gocalc.NewSession()
//	for _, k := range []string{"2", "+", "3", "="} {
//	    _ = s.Press(k)
//	}
//	fmt.Println(s.Display()) // 5
//
// # Diagnostics
//
// Failures are *types.Error values with a code and, for syntax errors, a
// character position. Match the kind with errors.Is:
//
//	if errors.Is(err, types.ErrDomain) { ... }
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/gocalc/pkg/parser
//   - Evaluator: github.com/sandrolain/gocalc/pkg/evaluator
//   - Session: github.com/sandrolain/gocalc/pkg/session
//   - Functions: github.com/sandrolain/gocalc/pkg/functions
//   - Types: github.com/sandrolain/gocalc/pkg/types
package gocalc

import (
	"context"
	"fmt"
	"time"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/session"
	"github.com/sandrolain/gocalc/pkg/types"
)

// Version returns the current version of gocalc.
func Version() string {
	return "v0.1.0-dev"
}

// DefaultTimeout bounds a single Eval call.
const DefaultTimeout = 5 * time.Second

// Compile compiles an expression for repeated evaluation. Only the builtin
// functions are accepted; to compile expressions using custom functions,
// use evaluator.Evaluator.Compile.
//
// The compiled expression is immutable and safe for concurrent use.
func Compile(input string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(input, opts...)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(input string) *types.Expression {
	expr, err := Compile(input)
	if err != nil {
		panic(fmt.Sprintf("gocalc: Compile(%q): %v", input, err))
	}
	return expr
}

// Eval is a convenience function that compiles and evaluates an expression
// in a single call, in degree mode with an empty memory register.
//
// Example:
//
//	result, err := gocalc.Eval("√16 + 2^3")
func Eval(input string, opts ...EvalOption) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	return EvalWithContext(ctx, input, nil, opts...)
}

// EvalWithContext evaluates an expression with a custom context. evalCtx
// supplies the angle mode and receives the result as its last result; nil
// evaluates in degree mode.
func EvalWithContext(ctx context.Context, input string, evalCtx *evaluator.EvalContext, opts ...EvalOption) (float64, error) {
	return evaluator.New(opts...).EvalString(ctx, input, evalCtx)
}

// NewSession creates an idle calculator session.
func NewSession(opts ...session.Option) *session.Session {
	return session.New(opts...)
}
