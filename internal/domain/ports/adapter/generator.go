package adapter

import (
	"context"

	"content-payment-service/internal/domain/model"
)

type GenerationRequest struct {
	JobID  string
	Model  string
	Inputs model.GenerationInputs

	// MaxOutputTokens bounds the completion; zero means provider default.
	MaxOutputTokens int
}

type GenerationUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type GenerationResult struct {
	Content string
	Usage   GenerationUsage
}

// ContentGenerator is the port for the LLM that turns job inputs into content.
type ContentGenerator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}
