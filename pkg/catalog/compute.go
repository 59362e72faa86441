package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/formulas"
)

// Result is one computed value with its display metadata.
type Result struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Unit      string `json:"unit,omitempty"`
	Value     any    `json:"value"`
	Formatted string `json:"formatted"`
}

// Computation is the outcome of running a calculator.
type Computation struct {
	Slug    string          `json:"slug"`
	Title   string          `json:"title"`
	Inputs  formulas.Inputs `json:"inputs"`
	Results []Result        `json:"results"`
}

// Values returns the raw results keyed by name.
func (c *Computation) Values() formulas.Results {
	out := make(formulas.Results, len(c.Results))
	for _, r := range c.Results {
		out[r.Key] = r.Value
	}
	return out
}

// Compute runs the calculator identified by slug. Select inputs left empty
// take their declared default. Errors wrap ErrUnknownCalculator,
// formulas.ErrInvalidInput or an expression diagnostic.
func (c *Catalog) Compute(ctx context.Context, slug string, in formulas.Inputs) (*Computation, error) {
	calc, err := c.Get(slug)
	if err != nil {
		return nil, err
	}

	inputs := make(formulas.Inputs, len(calc.Inputs))
	for _, field := range calc.Inputs {
		v := strings.TrimSpace(in[field.Name])
		if v == "" {
			v = field.Default
		}
		if v != "" {
			inputs[field.Name] = v
		}
	}

	var values formulas.Results
	if calc.Formula == ExpressionFormula {
		values, err = c.evalExpression(ctx, inputs)
	} else {
		f, _ := formulas.Lookup(calc.Formula)
		values, err = f(inputs)
	}
	if err != nil {
		c.logger.Debug("computation failed", zap.String("calculator", slug), zap.Error(err))
		return nil, fmt.Errorf("compute %s: %w", slug, err)
	}

	out := &Computation{Slug: calc.Slug, Title: calc.Title, Inputs: inputs}
	for _, label := range calc.Results {
		v, ok := values[label.Key]
		if !ok {
			continue
		}
		out.Results = append(out.Results, Result{
			Key:       label.Key,
			Label:     label.Label,
			Unit:      label.Unit,
			Value:     v,
			Formatted: c.format(v, label),
		})
	}
	return out, nil
}

func (c *Catalog) evalExpression(ctx context.Context, in formulas.Inputs) (formulas.Results, error) {
	expression := in["expression"]
	if expression == "" {
		return nil, &formulas.InputError{Field: "expression", Reason: "is required"}
	}
	mode := evaluator.Degrees
	if raw := in["angle_mode"]; raw != "" {
		m, err := evaluator.ParseAngleMode(raw)
		if err != nil {
			return nil, &formulas.InputError{Field: "angle_mode", Reason: err.Error()}
		}
		mode = m
	}
	v, err := c.ev.EvalString(ctx, expression, evaluator.NewContextWithMode(mode))
	if err != nil {
		return nil, err
	}
	return formulas.Results{"result": v}, nil
}

func (c *Catalog) format(v any, label ResultLabel) string {
	switch x := v.(type) {
	case float64:
		digits := -1
		if label.Precision != nil {
			digits = *label.Precision
		}
		return evaluator.FormatNumber(x, c.locale, digits)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
