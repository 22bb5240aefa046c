//go:build !integration

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/adapter"
)

func sampleInputs(target int) model.GenerationInputs {
	return model.GenerationInputs{
		SourceIDs: []string{"src-a", "src-b"},
		Outline: model.Outline{
			Title: "Urban heat islands",
			Sections: []model.OutlineSection{
				{Heading: "Causes", Description: "surface materials", KeyPoints: []string{"albedo", " "}},
				{Heading: "Mitigation"},
			},
		},
		Settings: model.GenerationSettings{
			DocumentType:      "research paper",
			TargetWords:       target,
			CitationStyle:     "MLA",
			Tone:              "academic",
			IncludeConclusion: true,
		},
	}
}

// offlineBudget never loads BPE ranks, so Count uses the length estimate.
func offlineBudget() *TokenBudget {
	b := NewTokenBudget()
	b.encodingFor = func(string) (*tiktoken.Tiktoken, error) { return nil, errors.New("offline") }
	return b
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt(sampleInputs(1200))
	for _, want := range []string{
		`Write a research paper titled "Urban heat islands"`,
		"about 1200 words",
		"Citation style: MLA",
		"1. Causes - surface materials",
		"   - albedo\n",
		"2. Mitigation",
		"End with a conclusion section",
		"Sources: src-a, src-b",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "abstract") {
		t.Errorf("prompt should not ask for an abstract:\n%s", p)
	}
}

func TestTokenBudget_OutputTokens(t *testing.T) {
	b := offlineBudget()
	tests := []struct {
		target, limit, want int
	}{
		{0, 16000, 16000},
		{1000, 16000, 1687},
		{20000, 16000, 16000},
		{1000, 0, 1687},
	}
	for _, tt := range tests {
		if got := b.OutputTokens(tt.target, tt.limit); got != tt.want {
			t.Errorf("OutputTokens(%d, %d) = %d, want %d", tt.target, tt.limit, got, tt.want)
		}
	}
}

func TestTokenBudget_CountFallsBackWithoutEncoding(t *testing.T) {
	b := offlineBudget()
	if got := b.Count("gpt-4o", "abcdefgh"); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"A finished paper."}}],
			"usage":{"prompt_tokens":120,"completion_tokens":4,"total_tokens":124}}`)
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator("sk-test", srv.URL+"/v1/", offlineBudget())
	if err != nil {
		t.Fatalf("NewOpenAIGenerator() error = %v", err)
	}
	res, err := g.Generate(context.Background(), adapter.GenerationRequest{
		JobID:           "job-1",
		Model:           "gpt-4o",
		Inputs:          sampleInputs(1000),
		MaxOutputTokens: 16000,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Content != "A finished paper." || res.Usage.PromptTokens != 120 || res.Usage.TotalTokens != 124 {
		t.Errorf("unexpected result: %+v", res)
	}
	if body["model"] != "gpt-4o" {
		t.Errorf("request model = %v", body["model"])
	}
	if mct, _ := body["max_completion_tokens"].(float64); int(mct) != 1687 {
		t.Errorf("max_completion_tokens = %v, want 1687", body["max_completion_tokens"])
	}
	if msgs, _ := body["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v", body["messages"])
	}
}

func TestNoopGenerator_HonorsTargetWords(t *testing.T) {
	g := &NoopGenerator{}
	res, err := g.Generate(context.Background(), adapter.GenerationRequest{Inputs: sampleInputs(300)})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if n := len(strings.Fields(res.Content)); n < 300 {
		t.Errorf("word count = %d, want >= 300", n)
	}
}

type slowGenerator struct {
	inFlight, peak int32
}

func (s *slowGenerator) Name() string { return "slow" }

func (s *slowGenerator) Generate(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
	n := atomic.AddInt32(&s.inFlight, 1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if n <= p || atomic.CompareAndSwapInt32(&s.peak, p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(&s.inFlight, -1)
	return adapter.GenerationResult{Content: "ok"}, nil
}

func TestLimitedGenerator_CapsConcurrency(t *testing.T) {
	inner := &slowGenerator{}
	g := NewLimitedGenerator(inner, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.Generate(context.Background(), adapter.GenerationRequest{})
		}()
	}
	wg.Wait()
	if p := atomic.LoadInt32(&inner.peak); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}
