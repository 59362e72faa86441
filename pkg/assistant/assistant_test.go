package assistant_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sandrolain/gocalc/pkg/assistant"
)

type fakeModel struct {
	reply  string
	err    error
	prompt string
	schema *genai.Schema
	wait   bool
}

func (f *fakeModel) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	f.prompt, f.schema = prompt, schema
	if f.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func TestExplain(t *testing.T) {
	m := &fakeModel{reply: `{"explanation":"Divide weight by height squared."}`}
	a := assistant.New(m)

	got, err := a.Explain(context.Background(), "BMI Calculator", "BMI = weight / height^2")
	require.NoError(t, err)
	assert.Equal(t, "Divide weight by height squared.", got)
	assert.Contains(t, m.prompt, "BMI Calculator")
	assert.Contains(t, m.prompt, "BMI = weight / height^2")
	require.NotNil(t, m.schema)
	assert.Contains(t, m.schema.Required, "explanation")
}

func TestSolve(t *testing.T) {
	m := &fakeModel{reply: "```json\n{\"solution\":\"2x = 4, x = 2\",\"answer\":\"x = 2\"}\n```"}
	a := assistant.New(m)

	got, err := a.Solve(context.Background(), "2x = 4")
	require.NoError(t, err)
	assert.Equal(t, "x = 2", got.Answer)
	assert.Equal(t, "2x = 4, x = 2", got.Solution)
	assert.True(t, strings.Contains(m.prompt, "Equation: 2x = 4"))
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	disabled := assistant.New(nil)
	assert.False(t, disabled.Enabled())
	_, err := disabled.Solve(ctx, "1+1")
	assert.ErrorIs(t, err, assistant.ErrNotConfigured)

	a := assistant.New(&fakeModel{})
	_, err = a.Solve(ctx, "   ")
	assert.ErrorIs(t, err, assistant.ErrEmptyInput)

	cause := errors.New("quota exceeded")
	a = assistant.New(&fakeModel{err: cause})
	_, err = a.Explain(ctx, "x", "y = x")
	assert.ErrorIs(t, err, assistant.ErrAssistantUnavailable)
	assert.ErrorIs(t, err, cause)

	a = assistant.New(&fakeModel{reply: "not json"})
	_, err = a.Solve(ctx, "1+1")
	assert.ErrorIs(t, err, assistant.ErrAssistantUnavailable)
}

func TestTimeout(t *testing.T) {
	a := assistant.New(&fakeModel{wait: true}, assistant.WithTimeout(10*time.Millisecond))
	_, err := a.Solve(context.Background(), "1+1")
	assert.ErrorIs(t, err, assistant.ErrAssistantUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewGeminiWithoutKey(t *testing.T) {
	a, err := assistant.NewGemini(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, a.Enabled())

	_, err = assistant.NewGeminiModel(context.Background(), "", "")
	assert.ErrorIs(t, err, assistant.ErrNotConfigured)
}
