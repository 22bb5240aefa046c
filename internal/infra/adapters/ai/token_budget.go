package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	tokensPerWord    = 1.35 // English prose under BPE tokenizers
	budgetHeadroom   = 1.25 // headings and citations on top of the body
	fallbackEncoding = "cl100k_base"
)

// TokenBudget counts prompt tokens with tiktoken and sizes completion limits.
type TokenBudget struct {
	mu   sync.Mutex
	encs map[string]*tiktoken.Tiktoken

	// encodingFor is swapped in tests to avoid fetching BPE ranks.
	encodingFor func(model string) (*tiktoken.Tiktoken, error)
}

func NewTokenBudget() *TokenBudget {
	return &TokenBudget{
		encs: make(map[string]*tiktoken.Tiktoken),
		encodingFor: func(model string) (*tiktoken.Tiktoken, error) {
			enc, err := tiktoken.EncodingForModel(model)
			if err != nil {
				return tiktoken.GetEncoding(fallbackEncoding)
			}
			return enc, nil
		},
	}
}

func (b *TokenBudget) encoding(model string) *tiktoken.Tiktoken {
	b.mu.Lock()
	defer b.mu.Unlock()
	if enc, ok := b.encs[model]; ok {
		return enc
	}
	enc, err := b.encodingFor(model)
	if err != nil {
		enc = nil
	}
	b.encs[model] = enc
	return enc
}

// Count returns the token count of text for model, estimating from length
// when no encoding is available.
func (b *TokenBudget) Count(model, text string) int {
	if enc := b.encoding(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// OutputTokens sizes the completion limit for targetWords, never above limit.
// A zero target returns limit.
func (b *TokenBudget) OutputTokens(targetWords, limit int) int {
	if targetWords <= 0 {
		return limit
	}
	n := int(float64(targetWords) * tokensPerWord * budgetHeadroom)
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
