//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/adapter"
	portsuc "content-payment-service/internal/domain/ports/usecase"
	"content-payment-service/internal/usecase"
)

type generationTestDeps struct {
	jobs      *MockJobRepo
	generator *MockGenerator
	refunder  *MockRefunder
	locker    *MockLocker
	uc        usecase.GenerationUseCase
}

func newGenerationDeps() *generationTestDeps {
	d := &generationTestDeps{
		jobs:      NewMockJobRepo(),
		generator: &MockGenerator{},
		refunder:  NewMockRefunder(),
		locker:    NewMockLocker(),
	}
	d.uc = usecase.NewGenerationUseCase(d.jobs, d.generator, d.refunder, d.locker, usecase.GenerationOptions{
		StandardModel: "gpt-4o",
		ProModel:      "gpt-4-turbo",
		Timeout:       time.Second,
	}, newTestLogger())
	return d
}

func processingJob(id string, tier model.Tier, targetWords int) *model.Job {
	in := testInputs()
	in.Settings.TargetWords = targetWords
	return &model.Job{
		ID:              id,
		UserID:          "u1",
		Tier:            tier,
		Inputs:          in,
		PaymentIntentID: "pi_" + id,
		PaymentStatus:   model.JobPaymentPaid,
		Status:          model.JobStatusProcessing,
	}
}

func words(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }

func TestGenerationUseCase_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("completes a job that meets the word target", func(t *testing.T) {
		d := newGenerationDeps()
		d.jobs.Put(processingJob("j1", model.TierPro, 100))
		d.generator.GenerateFunc = func(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
			return adapter.GenerationResult{Content: words(90)}, nil
		}

		out, err := d.uc.Process(ctx, "j1")
		if err != nil || out != usecase.OutcomeCompleted {
			t.Fatalf("Process() = %s, %v", out, err)
		}
		job, _ := d.jobs.FindByID(ctx, nil, "j1")
		if job.Status != model.JobStatusCompleted || job.Progress != 100 || job.CompletedAt == nil {
			t.Errorf("job = %+v", job)
		}
		if d.generator.Requests[0].Model != "gpt-4-turbo" {
			t.Errorf("model = %q, want pro model", d.generator.Requests[0].Model)
		}
		if len(d.refunder.Reasons) != 0 {
			t.Errorf("unexpected refunds: %v", d.refunder.Reasons)
		}
		if d.locker.Held("generation:j1") {
			t.Error("lock not released")
		}
	})

	t.Run("short content fails the quality gate and refunds", func(t *testing.T) {
		d := newGenerationDeps()
		d.jobs.Put(processingJob("j2", model.TierStandard, 1000))
		d.generator.GenerateFunc = func(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
			return adapter.GenerationResult{Content: words(799)}, nil
		}

		out, err := d.uc.Process(ctx, "j2")
		if err != nil || out != usecase.OutcomeFailed {
			t.Fatalf("Process() = %s, %v", out, err)
		}
		if d.refunder.Reasons["j2"] != usecase.ReasonQualityCheck {
			t.Errorf("refund reason = %q", d.refunder.Reasons["j2"])
		}
		job, _ := d.jobs.FindByID(ctx, nil, "j2")
		if job.Status != model.JobStatusFailed || job.LastError == "" {
			t.Errorf("job = %+v", job)
		}
	})

	t.Run("generator error refunds with api_error", func(t *testing.T) {
		d := newGenerationDeps()
		d.jobs.Put(processingJob("j3", model.TierStandard, 0))
		d.generator.GenerateFunc = func(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
			return adapter.GenerationResult{}, errors.New("rate limited")
		}

		out, _ := d.uc.Process(ctx, "j3")
		if out != usecase.OutcomeFailed {
			t.Fatalf("Process() outcome = %s", out)
		}
		if d.refunder.Reasons["j3"] != usecase.ReasonAPIError {
			t.Errorf("refund reason = %q", d.refunder.Reasons["j3"])
		}
	})

	t.Run("generator panic refunds with unexpected_error", func(t *testing.T) {
		d := newGenerationDeps()
		d.jobs.Put(processingJob("j4", model.TierStandard, 0))
		d.generator.GenerateFunc = func(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
			panic("nil map")
		}

		out, _ := d.uc.Process(ctx, "j4")
		if out != usecase.OutcomeFailed {
			t.Fatalf("Process() outcome = %s", out)
		}
		if d.refunder.Reasons["j4"] != usecase.ReasonUnexpectedError {
			t.Errorf("refund reason = %q", d.refunder.Reasons["j4"])
		}
	})

	t.Run("refund failure is reported", func(t *testing.T) {
		d := newGenerationDeps()
		d.jobs.Put(processingJob("j5", model.TierStandard, 0))
		d.generator.GenerateFunc = func(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
			return adapter.GenerationResult{}, errors.New("boom")
		}
		d.refunder.RefundFunc = func(ctx context.Context, jobID, reason string) (*portsuc.RefundResult, error) {
			return nil, errors.New("stripe unavailable")
		}

		if _, err := d.uc.Process(ctx, "j5"); err == nil {
			t.Fatal("Process() expected error when refund fails")
		}
	})

	t.Run("skips jobs that are not processing", func(t *testing.T) {
		d := newGenerationDeps()
		j := processingJob("j6", model.TierStandard, 0)
		j.Status = model.JobStatusCompleted
		d.jobs.Put(j)

		out, err := d.uc.Process(ctx, "j6")
		if err != nil || out != usecase.OutcomeSkipped {
			t.Fatalf("Process() = %s, %v", out, err)
		}
		if len(d.generator.Requests) != 0 {
			t.Error("generator should not be called")
		}
	})

	t.Run("skips jobs locked by another worker", func(t *testing.T) {
		d := newGenerationDeps()
		d.jobs.Put(processingJob("j7", model.TierStandard, 0))
		if _, err := d.locker.TryLock(ctx, "generation:j7", time.Minute); err != nil {
			t.Fatalf("TryLock() error = %v", err)
		}

		out, err := d.uc.Process(ctx, "j7")
		if err != nil || out != usecase.OutcomeSkipped {
			t.Fatalf("Process() = %s, %v", out, err)
		}
		if len(d.generator.Requests) != 0 {
			t.Error("generator should not be called")
		}
	})

	t.Run("unknown job is skipped", func(t *testing.T) {
		d := newGenerationDeps()
		out, err := d.uc.Process(ctx, "ghost")
		if err != nil || out != usecase.OutcomeSkipped {
			t.Fatalf("Process() = %s, %v", out, err)
		}
	})

	t.Run("lookup failure is returned", func(t *testing.T) {
		d := newGenerationDeps()
		d.jobs.FindByIDFunc = func(ctx context.Context, id string) (*model.Job, error) {
			return nil, domain.ErrOperationFailed
		}
		out, err := d.uc.Process(ctx, "j9")
		if out != usecase.OutcomeSkipped || !errors.Is(err, domain.ErrOperationFailed) {
			t.Fatalf("Process() = %s, %v", out, err)
		}
		if d.locker.Held("generation:j9") {
			t.Error("lock not released")
		}
	})
}
