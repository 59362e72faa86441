package evaluator

import (
	"math"

	"github.com/sandrolain/gocalc/pkg/types"
)

// builtinFunc is the implementation of a builtin unary function.
type builtinFunc func(x float64, mode AngleMode) (float64, error)

// builtins maps the builtin function names accepted by the parser.
var builtins = map[string]builtinFunc{
	"sin":  fnSin,
	"cos":  fnCos,
	"tan":  fnTan,
	"log":  fnLog,
	"ln":   fnLn,
	"sqrt": fnSqrt,
}

// snapThreshold is the magnitude below which trigonometric results are
// reported as exactly zero.
const snapThreshold = 1e-15

// snap rounds values within snapThreshold of zero to zero, removing residue
// such as sin(π) = 1.2e-16.
func snap(v float64) float64 {
	if math.Abs(v) < snapThreshold {
		return 0
	}
	return v
}

// reduceDegrees maps x into [0, 360).
func reduceDegrees(x float64) float64 {
	r := math.Mod(x, 360)
	if r < 0 {
		r += 360
	}
	return r
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func fnSin(x float64, mode AngleMode) (float64, error) {
	if mode == Radians {
		return snap(math.Sin(x)), nil
	}
	switch r := reduceDegrees(x); r {
	case 0, 180:
		return 0, nil
	case 90:
		return 1, nil
	case 270:
		return -1, nil
	default:
		return snap(math.Sin(toRadians(r))), nil
	}
}

func fnCos(x float64, mode AngleMode) (float64, error) {
	if mode == Radians {
		return snap(math.Cos(x)), nil
	}
	switch r := reduceDegrees(x); r {
	case 90, 270:
		return 0, nil
	case 0:
		return 1, nil
	case 180:
		return -1, nil
	default:
		return snap(math.Cos(toRadians(r))), nil
	}
}

func fnTan(x float64, mode AngleMode) (float64, error) {
	if mode == Radians {
		return snap(math.Tan(x)), nil
	}
	switch r := math.Mod(reduceDegrees(x), 180); r {
	case 0:
		return 0, nil
	case 90:
		return 0, types.NewDomainError(types.ErrTangentUndefined, "tan", "tangent is undefined at odd multiples of 90°")
	default:
		return snap(math.Tan(toRadians(r))), nil
	}
}

func fnLog(x float64, _ AngleMode) (float64, error) {
	if x <= 0 {
		return 0, types.NewDomainError(types.ErrLogDomain, "log", "logarithm of a non-positive number")
	}
	return math.Log10(x), nil
}

func fnLn(x float64, _ AngleMode) (float64, error) {
	if x <= 0 {
		return 0, types.NewDomainError(types.ErrLogDomain, "ln", "logarithm of a non-positive number")
	}
	return math.Log(x), nil
}

func fnSqrt(x float64, _ AngleMode) (float64, error) {
	if x < 0 {
		return 0, types.NewDomainError(types.ErrNegativeRoot, "sqrt", "square root of a negative number")
	}
	return math.Sqrt(x), nil
}
