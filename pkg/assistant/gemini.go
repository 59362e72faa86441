package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// GeminiModel is a Model backed by the Gemini API.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini client for the given API key.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// Generate implements Model.
func (m *GeminiModel) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = schema
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("response has no text")
	}
	return sb.String(), nil
}

// NewGemini returns an assistant backed by Gemini, or a disabled assistant
// when apiKey is empty.
func NewGemini(ctx context.Context, apiKey, model string, opts ...Option) (*Assistant, error) {
	if apiKey == "" {
		return New(nil, opts...), nil
	}
	m, err := NewGeminiModel(ctx, apiKey, model)
	if err != nil {
		return nil, err
	}
	return New(m, opts...), nil
}
