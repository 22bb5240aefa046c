package ai

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"

	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/infra/metrics"
)

var _ adapter.ContentGenerator = (*GeminiGenerator)(nil)

// GeminiGenerator implements adapter.ContentGenerator on the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	budget *TokenBudget
}

func NewGeminiGenerator(ctx context.Context, apiKey, baseURL string, budget *TokenBudget) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	if budget == nil {
		budget = NewTokenBudget()
	}
	return &GeminiGenerator{client: c, budget: budget}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) Generate(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
	prompt := buildPrompt(req.Inputs)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if limit := g.budget.OutputTokens(req.Inputs.Settings.TargetWords, req.MaxOutputTokens); limit > 0 {
		cfg.MaxOutputTokens = int32(limit)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(prompt), cfg)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		metrics.ObserveGeneration(g.Name(), req.Model, 0, 0, latency, false)
		return adapter.GenerationResult{}, err
	}

	text := resp.Text()
	if text == "" {
		metrics.ObserveGeneration(g.Name(), req.Model, 0, 0, latency, false)
		return adapter.GenerationResult{}, errors.New("gemini: empty response")
	}

	u := adapter.GenerationUsage{}
	if resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	} else {
		u.PromptTokens = g.budget.Count(req.Model, systemPrompt+prompt)
	}
	metrics.ObserveGeneration(g.Name(), req.Model, u.PromptTokens, u.CompletionTokens, latency, true)
	return adapter.GenerationResult{Content: text, Usage: u}, nil
}
