package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *jobRepo {
	return &jobRepo{pool: pool, tm: tm}
}

const jobColumns = `
id, user_id, inputs, tier,
COALESCE(payment_intent_id, ''), payment_status, amount_paid, currency,
COALESCE(stripe_customer_id, ''), estimated_pages,
status, progress, COALESCE(content, ''), COALESCE(last_error, ''), completed_at,
COALESCE(refund_id, ''), refund_amount, COALESCE(refund_reason, ''), refunded_at,
created_at, updated_at`

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		j             model.Job
		inputs        []byte
		tier, status  string
		paymentStatus string
	)
	err := row.Scan(
		&j.ID, &j.UserID, &inputs, &tier,
		&j.PaymentIntentID, &paymentStatus, &j.AmountPaid, &j.Currency,
		&j.StripeCustomerID, &j.EstimatedPages,
		&status, &j.Progress, &j.Content, &j.LastError, &j.CompletedAt,
		&j.RefundID, &j.RefundAmount, &j.RefundReason, &j.RefundedAt,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(inputs, &j.Inputs); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	j.Tier = model.Tier(tier)
	j.Status = model.JobStatus(status)
	j.PaymentStatus = model.JobPaymentStatus(paymentStatus)
	return &j, nil
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM content_jobs WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) FindByPaymentIntentID(ctx context.Context, tx repository.Tx, paymentIntentID string) (*model.Job, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM content_jobs WHERE payment_intent_id = $1;`, paymentIntentID)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

// CreateIfAbsent relies on UNIQUE(payment_intent_id): the losing insert of a
// concurrent pair waits for the winner and then reads its row.
func (r *jobRepo) CreateIfAbsent(ctx context.Context, job *model.Job) (*model.Job, bool, error) {
	inputs, err := json.Marshal(job.Inputs)
	if err != nil {
		return nil, false, err
	}

	var (
		stored  *model.Job
		created bool
	)
	err = r.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		const q = `
INSERT INTO content_jobs (
  id, user_id, inputs, tier, payment_intent_id, payment_status, amount_paid, currency,
  stripe_customer_id, estimated_pages, status, progress, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (payment_intent_id) DO NOTHING;`
		tag, err := execSQL(ctx, r.pool, tx, q,
			job.ID, job.UserID, string(inputs), string(job.Tier), nullIfEmpty(job.PaymentIntentID),
			string(job.PaymentStatus), job.AmountPaid, job.Currency,
			nullIfEmpty(job.StripeCustomerID), job.EstimatedPages,
			string(job.Status), job.Progress, job.CreatedAt, job.UpdatedAt)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrOperationFailed, err)
		}
		created = tag.RowsAffected() == 1

		if created {
			stored, err = r.FindByID(ctx, tx, job.ID)
		} else {
			stored, err = r.FindByPaymentIntentID(ctx, tx, job.PaymentIntentID)
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (r *jobRepo) MarkRefunded(ctx context.Context, jobID string, rec model.RefundRecord) (bool, error) {
	const q = `
UPDATE content_jobs SET
  payment_status = 'refunded',
  status = 'failed_refunded',
  refund_id = $2,
  refund_amount = $3,
  refund_reason = $4,
  refunded_at = $5,
  updated_at = NOW()
WHERE id = $1 AND payment_status = 'paid';`
	tag, err := execSQL(ctx, r.pool, nil, q, jobID, rec.RefundID, rec.Amount, rec.Reason, rec.RefundedAt)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, nil, jobID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *jobRepo) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	const q = `UPDATE content_jobs SET progress = $2, updated_at = NOW() WHERE id = $1;`
	return r.expectOne(ctx, q, jobID, progress)
}

func (r *jobRepo) MarkCompleted(ctx context.Context, jobID, content string, at time.Time) error {
	const q = `
UPDATE content_jobs SET status = 'completed', content = $2, progress = 100, completed_at = $3, updated_at = NOW()
WHERE id = $1;`
	return r.expectOne(ctx, q, jobID, content, at)
}

// MarkFailed never downgrades a refunded job.
func (r *jobRepo) MarkFailed(ctx context.Context, jobID, lastError string) error {
	const q = `
UPDATE content_jobs SET
  status = CASE WHEN status = 'processing' THEN 'failed' ELSE status END,
  last_error = $2,
  updated_at = NOW()
WHERE id = $1;`
	return r.expectOne(ctx, q, jobID, lastError)
}

func (r *jobRepo) expectOne(ctx context.Context, q string, args ...interface{}) error {
	tag, err := execSQL(ctx, r.pool, nil, q, args...)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *jobRepo) ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*model.Job, error) {
	const q = `SELECT ` + jobColumns + `
FROM content_jobs
WHERE status = 'processing' AND payment_status = 'paid' AND updated_at < $1
ORDER BY updated_at
LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, nil, q, olderThan, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
