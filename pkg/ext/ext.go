// Package ext bundles the optional extension functions for gocalc.
//
// The extension functions live in sub-packages:
//   - extmath – abs, sign, trunc, floor, ceil, round, exp, cbrt, inverse
//     and hyperbolic trigonometry
//   - extwasm – unary functions exported by WebAssembly modules
//
// # Integration
//
//	import "github.com/sandrolain/gocalc/pkg/ext"
//
//	ev := evaluator.New(ext.WithMath())
package ext

import (
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/ext/extmath"
	"github.com/sandrolain/gocalc/pkg/ext/extwasm"
	"github.com/sandrolain/gocalc/pkg/functions"
)

// All returns every statically available extension function definition.
func All() []functions.CustomFunctionDef {
	return extmath.All()
}

// WithAll returns an EvalOption that registers all extension functions.
func WithAll() evaluator.EvalOption {
	return evaluator.WithFunctions(All()...)
}

// WithMath returns an EvalOption for the extended numeric functions.
func WithMath() evaluator.EvalOption {
	return evaluator.WithFunctions(extmath.All()...)
}

// WithWasm returns an EvalOption registering the functions exported by the
// given WebAssembly modules.
func WithWasm(modules ...*extwasm.Module) evaluator.EvalOption {
	var defs []functions.CustomFunctionDef
	for _, m := range modules {
		defs = append(defs, m.Functions()...)
	}
	return evaluator.WithFunctions(defs...)
}
