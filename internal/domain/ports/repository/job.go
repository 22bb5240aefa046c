package repository

import (
	"context"
	"time"

	"content-payment-service/internal/domain/model"
)

type JobRepository interface {
	// FindByID returns domain.ErrJobNotFound when missing.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)
	FindByPaymentIntentID(ctx context.Context, tx Tx, paymentIntentID string) (*model.Job, error)

	// CreateIfAbsent inserts job unless a job already exists for its payment intent.
	// It returns the stored job and whether it was created by this call. The check
	// and the insert are atomic with respect to concurrent callers.
	CreateIfAbsent(ctx context.Context, job *model.Job) (*model.Job, bool, error)

	// MarkRefunded moves a paid job to refunded/failed_refunded. It returns false
	// (and no error) if the job was no longer in the paid state.
	MarkRefunded(ctx context.Context, jobID string, rec model.RefundRecord) (bool, error)

	UpdateProgress(ctx context.Context, jobID string, progress int) error
	MarkCompleted(ctx context.Context, jobID, content string, at time.Time) error
	MarkFailed(ctx context.Context, jobID, lastError string) error

	// ListStaleProcessing returns processing jobs not updated since olderThan.
	ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*model.Job, error)
}
