// Package functions provides types for registering custom calculator functions.
//
// Users of gocalc can define their own unary functions and register them via
// [gocalc.WithCustomFunction], making them callable inside expressions with
// the usual name(argument) syntax.
//
// # Example
//
//	result, err := gocalc.Eval("half(10)",
//	    gocalc.WithCustomFunction("half", func(_ context.Context, x float64) (float64, error) {
//	        return x / 2, nil
//	    }),
//	)
//	// result == 5
package functions

import (
	"context"
	"fmt"
	"sort"
)

// CustomFunc is the signature for user-defined custom functions.
// x is the evaluated argument. Returning an error fails the evaluation with
// a domain diagnostic naming the function.
type CustomFunc func(ctx context.Context, x float64) (float64, error)

// CustomFunctionDef describes a user-defined unary function.
type CustomFunctionDef struct {
	// Name is the function name as it appears inside expressions.
	Name string
	// Description is a short human-readable summary, shown by front ends.
	Description string
	// ReturnsAngle marks inverse trigonometric functions whose result is an
	// angle in radians. In degree mode the evaluator converts the result.
	ReturnsAngle bool
	// Fn is the implementation.
	Fn CustomFunc
}

// Validate reports whether the definition can be registered.
func (d CustomFunctionDef) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("custom function: empty name")
	}
	for _, r := range d.Name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return fmt.Errorf("custom function %q: name must contain only ASCII letters", d.Name)
		}
	}
	if d.Name == "e" || d.Name == "pi" {
		return fmt.Errorf("custom function %q: name is reserved for a constant", d.Name)
	}
	if d.Fn == nil {
		return fmt.Errorf("custom function %q: nil implementation", d.Name)
	}
	return nil
}

// Names returns the sorted names of defs.
func Names(defs []CustomFunctionDef) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	sort.Strings(out)
	return out
}
