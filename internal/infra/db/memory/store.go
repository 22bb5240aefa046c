package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/repository"
)

var (
	_ repository.UserRepository = (*UserStore)(nil)
	_ repository.JobRepository  = (*JobStore)(nil)
)

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// UserStore is an in-process user table for dev mode and tests.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserStore(seed ...model.User) *UserStore {
	s := &UserStore{users: make(map[string]model.User)}
	for _, u := range seed {
		s.users[u.ID] = u
	}
	return s
}

func (s *UserStore) Save(ctx context.Context, u model.User) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *UserStore) SetStripeCustomerID(ctx context.Context, _ repository.Tx, userID, customerID string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.StripeCustomerID = customerID
	s.users[userID] = u
	return nil
}

// JobStore keeps jobs by id plus an index by payment intent.
type JobStore struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	byIntent map[string]string
	now      func() time.Time
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs:     make(map[string]*model.Job),
		byIntent: make(map[string]string),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func clone(j *model.Job) *model.Job {
	cp := *j
	cp.Inputs.SourceIDs = append([]string(nil), j.Inputs.SourceIDs...)
	cp.Inputs.Outline.Sections = append([]model.OutlineSection(nil), j.Inputs.Outline.Sections...)
	for i := range cp.Inputs.Outline.Sections {
		cp.Inputs.Outline.Sections[i].KeyPoints = append([]string(nil), j.Inputs.Outline.Sections[i].KeyPoints...)
	}
	return &cp
}

func (s *JobStore) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Job, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return clone(j), nil
}

func (s *JobStore) FindByPaymentIntentID(ctx context.Context, _ repository.Tx, paymentIntentID string) (*model.Job, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byIntent[paymentIntentID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return clone(s.jobs[id]), nil
}

func (s *JobStore) CreateIfAbsent(ctx context.Context, job *model.Job) (*model.Job, bool, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.PaymentIntentID != "" {
		if id, ok := s.byIntent[job.PaymentIntentID]; ok {
			return clone(s.jobs[id]), false, nil
		}
	}
	if _, ok := s.jobs[job.ID]; ok {
		return nil, false, domain.ErrAlreadyExists
	}
	stored := clone(job)
	s.jobs[job.ID] = stored
	if job.PaymentIntentID != "" {
		s.byIntent[job.PaymentIntentID] = job.ID
	}
	return clone(stored), true, nil
}

func (s *JobStore) MarkRefunded(ctx context.Context, jobID string, rec model.RefundRecord) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return false, domain.ErrJobNotFound
	}
	if j.PaymentStatus != model.JobPaymentPaid {
		return false, nil
	}
	at := rec.RefundedAt
	j.PaymentStatus = model.JobPaymentRefunded
	j.Status = model.JobStatusFailedRefunded
	j.RefundID = rec.RefundID
	j.RefundAmount = rec.Amount
	j.RefundReason = rec.Reason
	j.RefundedAt = &at
	j.UpdatedAt = s.now()
	return true, nil
}

func (s *JobStore) mutate(ctx context.Context, jobID string, fn func(j *model.Job)) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	fn(j)
	j.UpdatedAt = s.now()
	return nil
}

func (s *JobStore) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	return s.mutate(ctx, jobID, func(j *model.Job) { j.Progress = progress })
}

func (s *JobStore) MarkCompleted(ctx context.Context, jobID, content string, at time.Time) error {
	return s.mutate(ctx, jobID, func(j *model.Job) {
		j.Status = model.JobStatusCompleted
		j.Content = content
		j.Progress = 100
		j.CompletedAt = &at
	})
}

func (s *JobStore) MarkFailed(ctx context.Context, jobID, lastError string) error {
	return s.mutate(ctx, jobID, func(j *model.Job) {
		if j.Status == model.JobStatusProcessing {
			j.Status = model.JobStatusFailed
		}
		j.LastError = lastError
	})
}

func (s *JobStore) ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*model.Job, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Job
	for _, j := range s.jobs {
		if j.Status == model.JobStatusProcessing && j.PaymentStatus == model.JobPaymentPaid && j.UpdatedAt.Before(olderThan) {
			out = append(out, clone(j))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UpdatedAt.Before(out[b].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
