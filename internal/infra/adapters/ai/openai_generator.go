package ai

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/infra/metrics"
)

var _ adapter.ContentGenerator = (*OpenAIGenerator)(nil)

// OpenAIGenerator implements adapter.ContentGenerator using Chat Completions.
type OpenAIGenerator struct {
	client openai.Client
	budget *TokenBudget
}

// NewOpenAIGenerator builds a generator. baseURL may be empty for the public API.
func NewOpenAIGenerator(apiKey, baseURL string, budget *TokenBudget) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(1)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if budget == nil {
		budget = NewTokenBudget()
	}
	return &OpenAIGenerator{client: openai.NewClient(opts...), budget: budget}, nil
}

func (o *OpenAIGenerator) Name() string { return "openai" }

func (o *OpenAIGenerator) Generate(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
	prompt := buildPrompt(req.Inputs)
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	}
	if limit := o.budget.OutputTokens(req.Inputs.Settings.TargetWords, req.MaxOutputTokens); limit > 0 {
		params.MaxCompletionTokens = openai.Int(int64(limit))
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		metrics.ObserveGeneration(o.Name(), req.Model, 0, 0, latency, false)
		return adapter.GenerationResult{}, err
	}

	content := ""
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			content = c.Message.Content
			break
		}
	}
	if content == "" {
		metrics.ObserveGeneration(o.Name(), req.Model, 0, 0, latency, false)
		return adapter.GenerationResult{}, errors.New("no choice content")
	}

	usage := adapter.GenerationUsage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	if usage.PromptTokens == 0 {
		usage.PromptTokens = o.budget.Count(req.Model, systemPrompt+prompt)
	}
	metrics.ObserveGeneration(o.Name(), req.Model, usage.PromptTokens, usage.CompletionTokens, latency, true)
	return adapter.GenerationResult{Content: content, Usage: usage}, nil
}
