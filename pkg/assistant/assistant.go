// Package assistant explains calculator formulas and solves equations in
// natural language using a hosted text-generation model.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotConfigured is returned when no model is configured.
	ErrNotConfigured = errors.New("assistant is not configured")
	// ErrAssistantUnavailable wraps failures of the model call.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	// ErrEmptyInput is returned when there is nothing to explain or solve.
	ErrEmptyInput = errors.New("assistant input is empty")
)

// Model generates text for a prompt. A non-nil schema asks for a JSON
// object matching it.
type Model interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Solution is a worked answer to an equation.
type Solution struct {
	Solution string `json:"solution"`
	Answer   string `json:"answer"`
}

// Assistant runs the explanation and solving prompts against a Model.
type Assistant struct {
	model   Model
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// New creates an assistant. A nil model yields a disabled assistant whose
// calls return ErrNotConfigured.
func New(model Model, opts ...Option) *Assistant {
	a := &Assistant{model: model, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Enabled reports whether a model is configured.
func (a *Assistant) Enabled() bool {
	return a.model != nil
}

var (
	explainPrompt = template.Must(template.New("explain").Parse(
		`You are an expert in explaining mathematical and financial formulas in simple terms.

Provide a clear and concise explanation of the following formula used in the {{.Name}} calculator:

{{.Formula}}

Respond with a JSON object whose "explanation" field holds the explanation.`))

	solvePrompt = template.Must(template.New("solve").Parse(
		`You are a world-class mathematician. Solve the following equation, providing a step-by-step solution and the final answer.

Equation: {{.Equation}}

Respond with a JSON object whose "solution" field holds the steps and whose "answer" field holds the final answer.`))

	explainSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"explanation": {Type: genai.TypeString, Description: "An explanation of the formula."},
		},
		Required: []string{"explanation"},
	}

	solveSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"solution": {Type: genai.TypeString, Description: "The step-by-step solution to the equation."},
			"answer":   {Type: genai.TypeString, Description: "The final answer."},
		},
		Required: []string{"solution", "answer"},
	}
)

// Explain returns a plain-language explanation of a calculator's formula.
func (a *Assistant) Explain(ctx context.Context, calculatorName, formula string) (string, error) {
	if strings.TrimSpace(formula) == "" {
		return "", ErrEmptyInput
	}
	var out struct {
		Explanation string `json:"explanation"`
	}
	err := a.run(ctx, "explain", explainPrompt, map[string]string{
		"Name":    calculatorName,
		"Formula": formula,
	}, explainSchema, &out)
	if err != nil {
		return "", err
	}
	return out.Explanation, nil
}

// Solve works through an equation or word problem.
func (a *Assistant) Solve(ctx context.Context, equation string) (Solution, error) {
	if strings.TrimSpace(equation) == "" {
		return Solution{}, ErrEmptyInput
	}
	var out Solution
	err := a.run(ctx, "solve", solvePrompt, map[string]string{"Equation": equation}, solveSchema, &out)
	return out, err
}

func (a *Assistant) run(ctx context.Context, name string, tmpl *template.Template, data any, schema *genai.Schema, out any) error {
	if a.model == nil {
		return ErrNotConfigured
	}

	var prompt strings.Builder
	if err := tmpl.Execute(&prompt, data); err != nil {
		return fmt.Errorf("render %s prompt: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	text, err := a.model.Generate(ctx, prompt.String(), schema)
	if err != nil {
		a.logger.Warn("assistant call failed", zap.String("prompt", name), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}
	a.logger.Debug("assistant call",
		zap.String("prompt", name),
		zap.Duration("duration", time.Since(start)))

	if err := json.Unmarshal([]byte(stripFence(text)), out); err != nil {
		return fmt.Errorf("%w: malformed %s response: %w", ErrAssistantUnavailable, name, err)
	}
	return nil
}

// stripFence removes a Markdown code fence some models wrap JSON in.
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimPrefix(t, "json")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
