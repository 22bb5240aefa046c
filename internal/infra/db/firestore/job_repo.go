package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*JobRepo)(nil)

// DefaultJobsCollection is the collection web clients list job history from.
const DefaultJobsCollection = "content_generation_jobs"

// JobRepo stores jobs keyed by job id. Uniqueness of payment_intent_id is
// enforced by running the lookup and the create in one transaction.
type JobRepo struct {
	client *firestore.Client
	jobs   *firestore.CollectionRef
	now    func() time.Time
}

func NewJobRepo(c *firestore.Client, collection string) *JobRepo {
	if collection == "" {
		collection = DefaultJobsCollection
	}
	return &JobRepo{client: c, jobs: c.Collection(collection), now: func() time.Time { return time.Now().UTC() }}
}

func (r *JobRepo) snapshotToJob(snap *firestore.DocumentSnapshot) (*model.Job, error) {
	var d jobDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return d.toModel(snap.Ref.ID), nil
}

func (r *JobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	ref := r.jobs.Doc(id)
	var (
		snap *firestore.DocumentSnapshot
		err  error
	)
	if t, ok := txFrom(tx); ok {
		snap, err = t.Get(ref)
	} else {
		snap, err = ref.Get(ctx)
	}
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrJobNotFound
		}
		return nil, domain.ErrOperationFailed
	}
	return r.snapshotToJob(snap)
}

func (r *JobRepo) byIntent(paymentIntentID string) firestore.Query {
	return r.jobs.Where(fieldPaymentIntentID, "==", paymentIntentID).Limit(1)
}

func (r *JobRepo) FindByPaymentIntentID(ctx context.Context, tx repository.Tx, paymentIntentID string) (*model.Job, error) {
	var it *firestore.DocumentIterator
	if t, ok := txFrom(tx); ok {
		it = t.Documents(r.byIntent(paymentIntentID))
	} else {
		it = r.byIntent(paymentIntentID).Documents(ctx)
	}
	defer it.Stop()

	snap, err := it.Next()
	if err == iterator.Done {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	return r.snapshotToJob(snap)
}

func (r *JobRepo) CreateIfAbsent(ctx context.Context, job *model.Job) (*model.Job, bool, error) {
	var (
		stored  *model.Job
		created bool
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// RunTransaction may retry fn; reset outputs on every attempt.
		stored, created = nil, false

		existing, err := r.FindByPaymentIntentID(ctx, tx, job.PaymentIntentID)
		if err == nil {
			stored = existing
			return nil
		}
		if !errors.Is(err, domain.ErrJobNotFound) {
			return err
		}
		if err := tx.Create(r.jobs.Doc(job.ID), toJobDoc(job)); err != nil {
			return err
		}
		cp := *job
		stored, created = &cp, true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrReadDatabaseRow) {
			return nil, false, err
		}
		return nil, false, domain.ErrOperationFailed
	}
	return stored, created, nil
}

func (r *JobRepo) MarkRefunded(ctx context.Context, jobID string, rec model.RefundRecord) (bool, error) {
	var applied bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		applied = false
		job, err := r.FindByID(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job.PaymentStatus != model.JobPaymentPaid {
			return nil
		}
		at := rec.RefundedAt
		err = tx.Update(r.jobs.Doc(jobID), []firestore.Update{
			{Path: fieldPaymentStatus, Value: string(model.JobPaymentRefunded)},
			{Path: fieldStatus, Value: string(model.JobStatusFailedRefunded)},
			{Path: fieldRefundID, Value: rec.RefundID},
			{Path: fieldRefundAmount, Value: toMajor(rec.Amount)},
			{Path: fieldRefundReason, Value: rec.Reason},
			{Path: fieldRefundedAt, Value: at},
			{Path: fieldUpdatedAt, Value: r.now()},
		})
		if err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return applied, nil
}

func (r *JobRepo) update(ctx context.Context, jobID string, updates []firestore.Update) error {
	updates = append(updates, firestore.Update{Path: fieldUpdatedAt, Value: r.now()})
	if _, err := r.jobs.Doc(jobID).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return domain.ErrJobNotFound
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *JobRepo) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	return r.update(ctx, jobID, []firestore.Update{{Path: fieldProgress, Value: progress}})
}

func (r *JobRepo) MarkCompleted(ctx context.Context, jobID, content string, at time.Time) error {
	return r.update(ctx, jobID, []firestore.Update{
		{Path: fieldStatus, Value: string(model.JobStatusCompleted)},
		{Path: fieldContent, Value: content},
		{Path: fieldWordCount, Value: wordCount(content)},
		{Path: fieldProgress, Value: 100},
		{Path: fieldCompletedAt, Value: at},
	})
}

// MarkFailed keeps a refunded job's status and only records the error.
func (r *JobRepo) MarkFailed(ctx context.Context, jobID, lastError string) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		job, err := r.FindByID(ctx, tx, jobID)
		if err != nil {
			return err
		}
		updates := []firestore.Update{
			{Path: fieldError, Value: lastError},
			{Path: fieldUpdatedAt, Value: r.now()},
		}
		if job.Status == model.JobStatusProcessing {
			updates = append(updates, firestore.Update{Path: fieldStatus, Value: string(model.JobStatusFailed)})
		}
		return tx.Update(r.jobs.Doc(jobID), updates)
	})
	if err != nil && !errors.Is(err, domain.ErrJobNotFound) {
		return domain.ErrOperationFailed
	}
	return err
}

// ListStaleProcessing needs a composite index on (status, updatedAt).
func (r *JobRepo) ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*model.Job, error) {
	it := r.jobs.
		Where(fieldStatus, "==", string(model.JobStatusProcessing)).
		Where(fieldUpdatedAt, "<", olderThan).
		OrderBy(fieldUpdatedAt, firestore.Asc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	var out []*model.Job
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, domain.ErrOperationFailed
		}
		j, err := r.snapshotToJob(snap)
		if err != nil {
			return nil, err
		}
		if j.PaymentStatus == model.JobPaymentPaid {
			out = append(out, j)
		}
	}
	return out, nil
}
