package extmath_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/ext/extmath"
	"github.com/sandrolain/gocalc/pkg/types"
)

func TestExtMath(t *testing.T) {
	ev := evaluator.New(evaluator.WithFunctions(extmath.All()...))
	deg := evaluator.NewContextWithMode(evaluator.Degrees)
	rad := evaluator.NewContextWithMode(evaluator.Radians)

	tests := []struct {
		input string
		ctx   *evaluator.EvalContext
		want  float64
	}{
		{"abs(-3)", deg, 3},
		{"sign(-0.5)", deg, -1},
		{"sign(0)", deg, 0},
		{"trunc(-2.7)", deg, -2},
		{"floor(-2.5)", deg, -3},
		{"ceil(2.1)", deg, 3},
		{"round(2.5)", deg, 3},
		{"exp(0)", deg, 1},
		{"cbrt(-27)", deg, -3},
		{"asin(1)", deg, 90},
		{"acos(0.5)", deg, 60},
		{"atan(1)", deg, 45},
		{"asin(1)", rad, 1.5707963267949},
		{"sin(asin(0.5))", deg, 0.5},
		{"tanh(0)", deg, 0},
		{"cosh(0)", deg, 1},
	}

	for _, tt := range tests {
		t.Run(tt.ctx.AngleMode().String()+"_"+tt.input, func(t *testing.T) {
			got, err := ev.EvalString(context.Background(), tt.input, tt.ctx)
			if err != nil {
				t.Fatalf("Eval(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtMathDomain(t *testing.T) {
	ev := evaluator.New(evaluator.WithFunctions(extmath.All()...))

	for _, input := range []string{"asin(2)", "acos(-1.5)", "exp(1000)"} {
		_, err := ev.EvalString(context.Background(), input, nil)
		if err == nil {
			t.Errorf("Eval(%q): expected error", input)
			continue
		}
		if !errors.Is(err, types.ErrDomain) && !errors.Is(err, types.ErrOverflow) {
			t.Errorf("Eval(%q): unexpected error %v", input, err)
		}
	}
}

func TestAllNamesAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range extmath.All() {
		if err := d.Validate(); err != nil {
			t.Error(err)
		}
		if seen[d.Name] {
			t.Errorf("duplicate function %q", d.Name)
		}
		seen[d.Name] = true
	}
}
