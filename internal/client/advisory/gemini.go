package advisory

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-3-flash-preview"

var auditSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score": {
			Type:        genai.TypeNumber,
			Description: "Risk score from 1 (safe) to 100 (critical).",
		},
		"vulnerabilities": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"recommendations": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"score", "vulnerabilities", "recommendations"},
}

// GeminiOracle implements Oracle on the Gemini API.
type GeminiOracle struct {
	client *genai.Client
	model  string
}

type GeminiOption func(*genai.ClientConfig)

// WithBaseURL points the client at a different endpoint (tests, proxies).
func WithBaseURL(url string) GeminiOption {
	return func(cfg *genai.ClientConfig) { cfg.HTTPOptions.BaseURL = url }
}

func NewGeminiOracle(ctx context.Context, apiKey, model string, opts ...GeminiOption) (*GeminiOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is not configured", ErrUnavailable)
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiOracle{client: client, model: model}, nil
}

func (g *GeminiOracle) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   auditSchema,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func (g *GeminiOracle) GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if systemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
