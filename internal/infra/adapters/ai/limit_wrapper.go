package ai

import (
	"context"

	"content-payment-service/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ContentGenerator = (*limitedGenerator)(nil)

type limitedGenerator struct {
	inner adapter.ContentGenerator
	sem   chan struct{}
}

// NewLimitedGenerator caps concurrent in-flight generations across workers.
func NewLimitedGenerator(inner adapter.ContentGenerator, maxConcurrent int) adapter.ContentGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedGenerator{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedGenerator) Name() string { return l.inner.Name() }

func (l *limitedGenerator) Generate(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return adapter.GenerationResult{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, req)
}
