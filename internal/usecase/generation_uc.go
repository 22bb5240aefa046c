// File: internal/usecase/generation_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/domain/ports/repository"
	portsuc "content-payment-service/internal/domain/ports/usecase"
	"content-payment-service/internal/infra/logging"
)

// Refund reasons recorded when generation fails.
const (
	ReasonQualityCheck    = "generation_failed_quality_check"
	ReasonAPIError        = "api_error"
	ReasonUnexpectedError = "unexpected_error"
)

// qualityRatio is the share of target words a document must reach.
const qualityRatio = 0.8

type GenerationOutcome string

const (
	OutcomeCompleted GenerationOutcome = "completed"
	OutcomeFailed    GenerationOutcome = "failed"
	OutcomeSkipped   GenerationOutcome = "skipped"
)

var _ GenerationUseCase = (*generationUC)(nil)

// GenerationUseCase runs one dispatched job to completion or refund.
type GenerationUseCase interface {
	Process(ctx context.Context, jobID string) (GenerationOutcome, error)
}

type GenerationOptions struct {
	StandardModel   string
	ProModel        string
	MaxOutputTokens int
	Timeout         time.Duration
	LockTTL         time.Duration
}

type generationUC struct {
	jobs      repository.JobRepository
	generator adapter.ContentGenerator
	refunder  portsuc.JobRefunder
	locker    adapter.Locker
	opts      GenerationOptions
	log       *zerolog.Logger
}

func NewGenerationUseCase(
	jobs repository.JobRepository,
	generator adapter.ContentGenerator,
	refunder portsuc.JobRefunder,
	locker adapter.Locker,
	opts GenerationOptions,
	logger *zerolog.Logger,
) GenerationUseCase {
	if opts.StandardModel == "" {
		opts.StandardModel = "gpt-4o"
	}
	if opts.ProModel == "" {
		opts.ProModel = "gpt-4-turbo"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &generationUC{
		jobs:      jobs,
		generator: generator,
		refunder:  refunder,
		locker:    locker,
		opts:      opts,
		log:       logger,
	}
}

// generationFailure carries the refund reason for a failed job.
type generationFailure struct {
	reason string
	err    error
}

func (f *generationFailure) Error() string { return f.reason + ": " + f.err.Error() }
func (f *generationFailure) Unwrap() error { return f.err }

func (u *generationUC) Process(ctx context.Context, jobID string) (GenerationOutcome, error) {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, u.log)

	lockKey := "generation:" + jobID
	token, err := u.locker.TryLock(ctx, lockKey, u.opts.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotAcquired) {
			log.Debug().Msg("job is being processed elsewhere")
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, fmt.Errorf("acquire generation lock: %w", err)
	}
	defer func() {
		if uerr := u.locker.Unlock(context.Background(), lockKey, token); uerr != nil {
			log.Warn().Err(uerr).Msg("failed to release generation lock")
		}
	}()

	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			log.Warn().Msg("dispatched job does not exist")
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, err
	}
	if job.Status != model.JobStatusProcessing || job.PaymentStatus != model.JobPaymentPaid {
		log.Debug().Str("status", string(job.Status)).Msg("job not eligible for generation")
		return OutcomeSkipped, nil
	}

	content, genErr := u.generateSafely(ctx, job)
	if genErr == nil {
		if err := u.jobs.MarkCompleted(ctx, jobID, content, time.Now().UTC()); err != nil {
			return OutcomeFailed, fmt.Errorf("mark completed: %w", err)
		}
		log.Info().Int("words", len(strings.Fields(content))).Msg("job completed")
		return OutcomeCompleted, nil
	}

	reason := ReasonUnexpectedError
	var gf *generationFailure
	if errors.As(genErr, &gf) {
		reason = gf.reason
	}
	log.Error().Err(genErr).Str("reason", reason).Msg("generation failed, refunding")

	if err := u.jobs.MarkFailed(ctx, jobID, genErr.Error()); err != nil {
		log.Error().Err(err).Msg("failed to mark job failed")
	}
	res, err := u.refunder.Refund(ctx, jobID, reason)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("auto refund: %w", err)
	}
	log.Info().Str("refund_id", res.RefundID).Bool("already_refunded", res.AlreadyRefunded).Msg("job auto-refunded")
	return OutcomeFailed, nil
}

// generateSafely converts panics from the generator into unexpected failures.
func (u *generationUC) generateSafely(ctx context.Context, job *model.Job) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &generationFailure{reason: ReasonUnexpectedError, err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return u.generate(ctx, job)
}

func (u *generationUC) generate(ctx context.Context, job *model.Job) (string, error) {
	if err := u.jobs.UpdateProgress(ctx, job.ID, 10); err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("progress update failed")
	}

	if u.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.opts.Timeout)
		defer cancel()
	}

	res, err := u.generator.Generate(ctx, adapter.GenerationRequest{
		JobID:           job.ID,
		Model:           u.modelFor(job.Tier),
		Inputs:          job.Inputs,
		MaxOutputTokens: u.opts.MaxOutputTokens,
	})
	if err != nil {
		return "", &generationFailure{reason: ReasonAPIError, err: err}
	}

	if err := u.jobs.UpdateProgress(ctx, job.ID, 90); err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("progress update failed")
	}

	if target := job.Inputs.Settings.TargetWords; target > 0 {
		words := len(strings.Fields(res.Content))
		if float64(words) < float64(target)*qualityRatio {
			return "", &generationFailure{
				reason: ReasonQualityCheck,
				err:    fmt.Errorf("generated %d words, target %d", words, target),
			}
		}
	}
	if strings.TrimSpace(res.Content) == "" {
		return "", &generationFailure{reason: ReasonQualityCheck, err: errors.New("empty content")}
	}
	return res.Content, nil
}

func (u *generationUC) modelFor(t model.Tier) string {
	if t == model.TierPro {
		return u.opts.ProModel
	}
	return u.opts.StandardModel
}
