//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"content-payment-service/internal/usecase"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(2, 8, nil)
	p.Start(ctx)

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		if err := p.Submit(func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
			return nil
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()
	p.Stop()

	if ran != 5 {
		t.Fatalf("ran %d tasks, want 5", ran)
	}
}

func TestPool_SubmitWhenFull(t *testing.T) {
	p := NewPool(1, 1, nil) // not started: nothing drains the queue
	noop := func(ctx context.Context) error { return nil }

	if err := p.Submit(noop); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := p.Submit(noop); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.SubmitWait(ctx, noop); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if err := p.Submit(nil); err == nil {
		t.Fatal("expected error for nil task")
	}
}

type fakeQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *fakeQueue) Dispatch(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, jobID)
	return nil
}

func (q *fakeQueue) Pop(ctx context.Context) (string, error) {
	q.mu.Lock()
	if len(q.ids) > 0 {
		id := q.ids[0]
		q.ids = q.ids[1:]
		q.mu.Unlock()
		return id, nil
	}
	q.mu.Unlock()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return "", nil
	}
}

type fakeGeneration struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
	want int
}

func (g *fakeGeneration) Process(ctx context.Context, jobID string) (usecase.GenerationOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = append(g.seen, jobID)
	if len(g.seen) == g.want {
		close(g.done)
	}
	if jobID == "bad" {
		return usecase.OutcomeFailed, errors.New("refund failed")
	}
	return usecase.OutcomeCompleted, nil
}

func TestGenerationConsumer_ProcessesQueuedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := zerolog.Nop()
	q := &fakeQueue{}
	for _, id := range []string{"j1", "bad", "j3"} {
		_ = q.Dispatch(ctx, id)
	}
	gen := &fakeGeneration{done: make(chan struct{}), want: 3}

	pool := NewPool(2, 4, &log)
	pool.Start(ctx)
	c := NewGenerationConsumer(q, gen, pool, &log)

	stopped := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(stopped)
	}()

	select {
	case <-gen.done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not process all jobs")
	}
	cancel()
	<-stopped
	pool.Stop()

	gen.mu.Lock()
	defer gen.mu.Unlock()
	if len(gen.seen) != 3 {
		t.Fatalf("processed %v", gen.seen)
	}
}
