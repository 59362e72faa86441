// Package extmath provides extended numeric functions for gocalc beyond the
// builtin sin, cos, tan, log, ln and sqrt.
package extmath

import (
	"context"
	"math"

	"github.com/sandrolain/gocalc/pkg/functions"
	"github.com/sandrolain/gocalc/pkg/types"
)

// All returns all extended numeric function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Abs(),
		Sign(),
		Trunc(),
		Floor(),
		Ceil(),
		Round(),
		Exp(),
		Cbrt(),
		Asin(),
		Acos(),
		Atan(),
		Sinh(),
		Cosh(),
		Tanh(),
	}
}

// Abs returns the definition for abs(x).
func Abs() functions.CustomFunctionDef {
	return mathFunc1("abs", "absolute value", math.Abs)
}

// Sign returns the definition for sign(x): -1, 0 or 1.
func Sign() functions.CustomFunctionDef {
	return mathFunc1("sign", "sign of x as -1, 0 or 1", func(x float64) float64 {
		switch {
		case x < 0:
			return -1
		case x > 0:
			return 1
		default:
			return 0
		}
	})
}

// Trunc returns the definition for trunc(x), truncating toward zero.
func Trunc() functions.CustomFunctionDef {
	return mathFunc1("trunc", "integer part of x", math.Trunc)
}

// Floor returns the definition for floor(x).
func Floor() functions.CustomFunctionDef {
	return mathFunc1("floor", "largest integer not above x", math.Floor)
}

// Ceil returns the definition for ceil(x).
func Ceil() functions.CustomFunctionDef {
	return mathFunc1("ceil", "smallest integer not below x", math.Ceil)
}

// Round returns the definition for round(x), rounding half away from zero.
func Round() functions.CustomFunctionDef {
	return mathFunc1("round", "nearest integer, halves away from zero", math.Round)
}

// Exp returns the definition for exp(x) = e^x.
func Exp() functions.CustomFunctionDef {
	return mathFunc1("exp", "e raised to x", math.Exp)
}

// Cbrt returns the definition for cbrt(x). Unlike x^(1/3) it accepts
// negative operands.
func Cbrt() functions.CustomFunctionDef {
	return mathFunc1("cbrt", "cube root", math.Cbrt)
}

// Asin returns the definition for asin(x). The result is an angle.
func Asin() functions.CustomFunctionDef {
	return inverseTrig("asin", "inverse sine", math.Asin)
}

// Acos returns the definition for acos(x). The result is an angle.
func Acos() functions.CustomFunctionDef {
	return inverseTrig("acos", "inverse cosine", math.Acos)
}

// Atan returns the definition for atan(x). The result is an angle.
func Atan() functions.CustomFunctionDef {
	d := mathFunc1("atan", "inverse tangent", math.Atan)
	d.ReturnsAngle = true
	return d
}

// Sinh returns the definition for sinh(x).
func Sinh() functions.CustomFunctionDef {
	return mathFunc1("sinh", "hyperbolic sine", math.Sinh)
}

// Cosh returns the definition for cosh(x).
func Cosh() functions.CustomFunctionDef {
	return mathFunc1("cosh", "hyperbolic cosine", math.Cosh)
}

// Tanh returns the definition for tanh(x).
func Tanh() functions.CustomFunctionDef {
	return mathFunc1("tanh", "hyperbolic tangent", math.Tanh)
}

func mathFunc1(name, description string, fn func(float64) float64) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:        name,
		Description: description,
		Fn: func(_ context.Context, x float64) (float64, error) {
			return fn(x), nil
		},
	}
}

// inverseTrig wraps asin and acos, whose operand must lie in [-1, 1].
func inverseTrig(name, description string, fn func(float64) float64) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:         name,
		Description:  description,
		ReturnsAngle: true,
		Fn: func(_ context.Context, x float64) (float64, error) {
			if x < -1 || x > 1 {
				return 0, types.NewDomainError(types.ErrUndefinedResult, name, "operand must lie between -1 and 1")
			}
			return fn(x), nil
		},
	}
}
