package gocalc

import (
	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/functions"
)

// EvalOption configures evaluation behavior.
type EvalOption = evaluator.EvalOption

// WithCaching enables or disables expression compilation caching.
func WithCaching(enabled bool) EvalOption {
	return evaluator.WithCaching(enabled)
}

// WithConcurrency enables or disables concurrent evaluation in EvalMany.
func WithConcurrency(enabled bool) EvalOption {
	return evaluator.WithConcurrency(enabled)
}

// WithPrecision sets the number of significant digits results are rounded to.
func WithPrecision(digits int) EvalOption {
	return evaluator.WithPrecision(digits)
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) EvalOption {
	return evaluator.WithLogger(logger)
}

// WithCustomFunction registers a user-defined unary function.
func WithCustomFunction(name string, fn functions.CustomFunc) EvalOption {
	return evaluator.WithCustomFunction(name, fn)
}

// WithFunctions registers multiple custom function definitions at once.
func WithFunctions(defs ...functions.CustomFunctionDef) EvalOption {
	return evaluator.WithFunctions(defs...)
}
