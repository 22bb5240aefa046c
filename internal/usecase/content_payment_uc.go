// File: internal/usecase/content_payment_uc.go
package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/domain/ports/repository"
	portsuc "content-payment-service/internal/domain/ports/usecase"
	"content-payment-service/internal/infra/logging"
)

const (
	MsgJobCreated      = "Payment verified and job created"
	MsgJobExists       = "Job already exists for this payment"
	MsgAlreadyRefunded = "Job already refunded"

	customerSource = "content_generation"
	refundType     = "generation_failure"
)

// Compile-time check
var _ ContentPaymentUseCase = (*contentPaymentUC)(nil)

// ContentPaymentUseCase gates content generation jobs behind a settled card payment.
type ContentPaymentUseCase interface {
	// Authorize prices the job and opens a payment intent for the client to confirm.
	Authorize(ctx context.Context, in AuthorizeInput) (*AuthorizeResult, error)
	// Commit verifies a settled intent and creates at most one job for it.
	Commit(ctx context.Context, in CommitInput) (*CommitResult, error)
	// Refund returns the full payment for a failed job, at most once.
	Refund(ctx context.Context, jobID, reason string) (*portsuc.RefundResult, error)
	// GetJob returns the job; userID, when non-empty, must own it.
	GetJob(ctx context.Context, jobID, userID string) (*model.Job, error)
}

type AuthorizeInput struct {
	UserID         string
	Tier           string
	EstimatedPages int
	SourceIDs      []string
}

type AuthorizeResult struct {
	ClientSecret    string
	PaymentIntentID string
	Amount          int64
	Currency        string
	EstimatedPages  int
	Tier            model.Tier
}

type CommitInput struct {
	PaymentIntentID string
	UserID          string
	Tier            string
	Inputs          model.GenerationInputs
}

type CommitResult struct {
	JobID    string
	Status   model.JobStatus
	Message  string
	Replayed bool
}

type contentPaymentUC struct {
	users      repository.UserRepository
	jobs       repository.JobRepository
	provider   adapter.PaymentProvider
	dispatcher adapter.JobDispatcher
	pricing    *Pricing
	log        *zerolog.Logger
}

func NewContentPaymentUseCase(
	users repository.UserRepository,
	jobs repository.JobRepository,
	provider adapter.PaymentProvider,
	dispatcher adapter.JobDispatcher,
	pricing *Pricing,
	logger *zerolog.Logger,
) ContentPaymentUseCase {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &contentPaymentUC{
		users:      users,
		jobs:       jobs,
		provider:   provider,
		dispatcher: dispatcher,
		pricing:    pricing,
		log:        logger,
	}
}

func (u *contentPaymentUC) Authorize(ctx context.Context, in AuthorizeInput) (*AuthorizeResult, error) {
	defer logging.TraceDuration(u.log, "ContentPaymentUC.Authorize")()

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidArgument)
	}
	tier, err := model.ParseTier(in.Tier)
	if err != nil {
		return nil, err
	}
	amount, err := u.pricing.Quote(tier, in.EstimatedPages)
	if err != nil {
		return nil, err
	}

	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}

	customerID, err := u.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	pi, err := u.provider.CreatePaymentIntent(ctx, adapter.CreatePaymentIntentParams{
		Amount:       amount,
		Currency:     u.pricing.Currency(),
		CustomerID:   customerID,
		Description:  fmt.Sprintf("Content Generation - %s Tier (%d pages)", tier.Title(), in.EstimatedPages),
		ReceiptEmail: user.Email,
		Metadata: map[string]string{
			model.MetaUserID:         userID,
			model.MetaTier:           string(tier),
			model.MetaEstimatedPages: strconv.Itoa(in.EstimatedPages),
			model.MetaJobType:        model.JobTypeContentGeneration,
			model.MetaSourceCount:    strconv.Itoa(len(in.SourceIDs)),
		},
	})
	if err != nil {
		return nil, err
	}

	logging.With(ctx, u.log).Info().
		Str("payment_intent_id", pi.ID).
		Str("tier", string(tier)).
		Int64("amount", amount).
		Msg("payment intent created")

	return &AuthorizeResult{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
		Amount:          amount,
		Currency:        u.pricing.Currency(),
		EstimatedPages:  in.EstimatedPages,
		Tier:            tier,
	}, nil
}

// ensureCustomer returns the user's provider customer, creating and persisting
// one first if needed.
func (u *contentPaymentUC) ensureCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.HasCustomer() {
		return user.StripeCustomerID, nil
	}
	customerID, err := u.provider.CreateCustomer(ctx, adapter.CreateCustomerParams{
		UserID: user.ID,
		Email:  user.Email,
		Metadata: map[string]string{
			"firebase_uid": user.ID,
			"user_id":      user.ID,
			"source":       customerSource,
		},
		IdempotencyKey: "customer-" + user.ID,
	})
	if err != nil {
		return "", err
	}
	if err := u.users.SetStripeCustomerID(ctx, repository.NoTX, user.ID, customerID); err != nil {
		logging.With(ctx, u.log).Error().Err(err).
			Str("customer_id", customerID).
			Msg("failed to persist stripe customer id")
	} else {
		user.StripeCustomerID = customerID
	}
	return customerID, nil
}

func (u *contentPaymentUC) Commit(ctx context.Context, in CommitInput) (*CommitResult, error) {
	defer logging.TraceDuration(u.log, "ContentPaymentUC.Commit")()

	intentID := strings.TrimSpace(in.PaymentIntentID)
	userID := strings.TrimSpace(in.UserID)
	if intentID == "" {
		return nil, fmt.Errorf("%w: payment_intent_id is required", domain.ErrInvalidArgument)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidArgument)
	}
	if err := in.Inputs.Validate(); err != nil {
		return nil, err
	}
	fallbackTier := model.TierStandard
	if strings.TrimSpace(in.Tier) != "" {
		t, err := model.ParseTier(in.Tier)
		if err != nil {
			return nil, err
		}
		fallbackTier = t
	}

	pi, err := u.provider.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if !pi.Succeeded() {
		return nil, fmt.Errorf("%w: status is %s", domain.ErrPaymentNotComplete, pi.Status)
	}
	if !pi.OwnedBy(userID) {
		return nil, domain.ErrOwnershipMismatch
	}

	candidate := model.NewPaidJob(ulid.Make().String(), userID, fallbackTier, in.Inputs, pi, time.Now().UTC())
	job, created, err := u.jobs.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, err
	}

	log := logging.With(logging.WithJobID(ctx, job.ID), u.log)
	if !created {
		log.Info().Str("payment_intent_id", intentID).Msg("commit replayed for existing job")
		return &CommitResult{JobID: job.ID, Status: job.Status, Message: MsgJobExists, Replayed: true}, nil
	}

	log.Info().
		Str("payment_intent_id", intentID).
		Int64("amount_paid", job.AmountPaid).
		Msg("job created for settled payment")

	if err := u.dispatcher.Dispatch(ctx, job.ID); err != nil {
		// The job is persisted in processing; the stale-job reconciler picks it up.
		log.Error().Err(err).Msg("failed to dispatch job")
	}

	return &CommitResult{JobID: job.ID, Status: job.Status, Message: MsgJobCreated}, nil
}

func (u *contentPaymentUC) Refund(ctx context.Context, jobID, reason string) (*portsuc.RefundResult, error) {
	defer logging.TraceDuration(u.log, "ContentPaymentUC.Refund")()

	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", domain.ErrInvalidArgument)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "generation_failed"
	}

	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsRefunded() {
		return storedRefund(job), nil
	}
	if job.PaymentIntentID == "" {
		return nil, domain.ErrNotPaid
	}

	refund, err := u.provider.CreateRefund(ctx, adapter.CreateRefundParams{
		PaymentIntentID: job.PaymentIntentID,
		Reason:          adapter.RefundReasonRequestedByCustomer,
		Metadata: map[string]string{
			"job_id":      jobID,
			"reason":      reason,
			"auto_refund": "true",
			"refund_type": refundType,
		},
		IdempotencyKey: "refund-" + jobID,
	})
	if err != nil {
		return nil, err
	}

	currency := refund.Currency
	if currency == "" {
		currency = job.Currency
	}
	ok, err := u.jobs.MarkRefunded(ctx, jobID, model.RefundRecord{
		RefundID:   refund.ID,
		Amount:     refund.Amount,
		Currency:   currency,
		Reason:     reason,
		RefundedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	log := logging.With(logging.WithJobID(ctx, jobID), u.log)
	if !ok {
		// Lost the race to a concurrent refund; report what the winner stored.
		current, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
		if err != nil {
			return nil, err
		}
		if !current.IsRefunded() {
			return nil, fmt.Errorf("%w: job %s left paid state without a refund", domain.ErrOperationFailed, jobID)
		}
		log.Warn().Str("refund_id", current.RefundID).Msg("refund already recorded by concurrent caller")
		return storedRefund(current), nil
	}

	log.Info().
		Str("refund_id", refund.ID).
		Int64("amount", refund.Amount).
		Str("reason", reason).
		Msg("job refunded")

	return &portsuc.RefundResult{
		RefundID: refund.ID,
		Amount:   refund.Amount,
		Currency: currency,
	}, nil
}

func storedRefund(job *model.Job) *portsuc.RefundResult {
	return &portsuc.RefundResult{
		RefundID:        job.RefundID,
		Amount:          job.RefundAmount,
		Currency:        job.Currency,
		AlreadyRefunded: true,
	}
}

func (u *contentPaymentUC) GetJob(ctx context.Context, jobID, userID string) (*model.Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", domain.ErrInvalidArgument)
	}
	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}
	if userID != "" && job.UserID != userID {
		return nil, domain.ErrOwnershipMismatch
	}
	return job, nil
}
