package ai

import (
	"context"
	"strings"
	"time"

	"content-payment-service/internal/domain/ports/adapter"
)

var _ adapter.ContentGenerator = (*NoopGenerator)(nil)

// NoopGenerator returns placeholder text of the requested length for local/dev runs.
type NoopGenerator struct {
	Delay time.Duration
}

func NewNoopGenerator() *NoopGenerator {
	return &NoopGenerator{Delay: 100 * time.Millisecond}
}

func (n *NoopGenerator) Name() string { return "noop" }

func (n *NoopGenerator) Generate(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
	select {
	case <-time.After(n.Delay):
	case <-ctx.Done():
		return adapter.GenerationResult{}, ctx.Err()
	}
	words := req.Inputs.Settings.TargetWords
	if words <= 0 {
		words = 500
	}
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(req.Inputs.Outline.Title)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(strings.Repeat("lorem ", words)))
	return adapter.GenerationResult{Content: b.String()}, nil
}
