//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/domain/ports/repository"
	portsuc "content-payment-service/internal/domain/ports/usecase"
)

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	FindByIDFunc            func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	SetStripeCustomerIDFunc func(ctx context.Context, tx repository.Tx, userID, customerID string) error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo(users ...*model.User) *MockUserRepo {
	m := &MockUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) SetStripeCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) error {
	if m.SetStripeCustomerIDFunc != nil {
		return m.SetStripeCustomerIDFunc(ctx, tx, userID, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.StripeCustomerID = customerID
	return nil
}

func (m *MockUserRepo) Get(id string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

// ---- Mock JobRepository ----

type MockJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job

	FindByIDFunc       func(ctx context.Context, id string) (*model.Job, error)
	CreateIfAbsentFunc func(ctx context.Context, job *model.Job) (*model.Job, bool, error)
	MarkRefundedFunc   func(ctx context.Context, jobID string, rec model.RefundRecord) (bool, error)
	MarkCompletedFunc  func(ctx context.Context, jobID, content string, at time.Time) error
}

var _ repository.JobRepository = (*MockJobRepo)(nil)

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{jobs: map[string]*model.Job{}}
}

func (m *MockJobRepo) Put(j *model.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.ID] = &cp
}

func (m *MockJobRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *MockJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *MockJobRepo) FindByPaymentIntentID(ctx context.Context, tx repository.Tx, paymentIntentID string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.PaymentIntentID == paymentIntentID {
			cp := *j
			return &cp, nil
		}
	}
	return nil, domain.ErrJobNotFound
}

func (m *MockJobRepo) CreateIfAbsent(ctx context.Context, job *model.Job) (*model.Job, bool, error) {
	if m.CreateIfAbsentFunc != nil {
		return m.CreateIfAbsentFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.PaymentIntentID == job.PaymentIntentID {
			cp := *j
			return &cp, false, nil
		}
	}
	cp := *job
	m.jobs[job.ID] = &cp
	out := *job
	return &out, true, nil
}

func (m *MockJobRepo) MarkRefunded(ctx context.Context, jobID string, rec model.RefundRecord) (bool, error) {
	if m.MarkRefundedFunc != nil {
		return m.MarkRefundedFunc(ctx, jobID, rec)
	}
	return m.markRefunded(jobID, rec)
}

func (m *MockJobRepo) markRefunded(jobID string, rec model.RefundRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
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
	return true, nil
}

func (m *MockJobRepo) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.Progress = progress
	return nil
}

func (m *MockJobRepo) MarkCompleted(ctx context.Context, jobID, content string, at time.Time) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, jobID, content, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.Status = model.JobStatusCompleted
	j.Content = content
	j.Progress = 100
	j.CompletedAt = &at
	return nil
}

func (m *MockJobRepo) MarkFailed(ctx context.Context, jobID, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if j.Status == model.JobStatusProcessing {
		j.Status = model.JobStatusFailed
	}
	j.LastError = lastError
	return nil
}

func (m *MockJobRepo) ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Job
	for _, j := range m.jobs {
		if j.Status == model.JobStatusProcessing && j.UpdatedAt.Before(olderThan) {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentProvider ----

type MockPaymentProvider struct {
	mu       sync.Mutex
	intents  map[string]*model.PaymentIntent
	refunds  map[string]*model.Refund // by idempotency key
	seq      int
	Calls    map[string]int
	Refunded []adapter.CreateRefundParams

	CreateCustomerFunc      func(ctx context.Context, p adapter.CreateCustomerParams) (string, error)
	CreatePaymentIntentFunc func(ctx context.Context, p adapter.CreatePaymentIntentParams) (*model.PaymentIntent, error)
	GetPaymentIntentFunc    func(ctx context.Context, id string) (*model.PaymentIntent, error)
	CreateRefundFunc        func(ctx context.Context, p adapter.CreateRefundParams) (*model.Refund, error)
}

var _ adapter.PaymentProvider = (*MockPaymentProvider)(nil)

func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{
		intents: map[string]*model.PaymentIntent{},
		refunds: map[string]*model.Refund{},
		Calls:   map[string]int{},
	}
}

func (m *MockPaymentProvider) Name() string { return "mock" }

func (m *MockPaymentProvider) count(call string) {
	m.mu.Lock()
	m.Calls[call]++
	m.mu.Unlock()
}

func (m *MockPaymentProvider) CallCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[call]
}

func (m *MockPaymentProvider) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		n += c
	}
	return n
}

func (m *MockPaymentProvider) CreateCustomer(ctx context.Context, p adapter.CreateCustomerParams) (string, error) {
	m.count("CreateCustomer")
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, p)
	}
	return "cus_" + p.UserID, nil
}

func (m *MockPaymentProvider) CreatePaymentIntent(ctx context.Context, p adapter.CreatePaymentIntentParams) (*model.PaymentIntent, error) {
	m.count("CreatePaymentIntent")
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("pi_%d", m.seq)
	meta := make(map[string]string, len(p.Metadata))
	for k, v := range p.Metadata {
		meta[k] = v
	}
	pi := &model.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       p.Amount,
		Currency:     p.Currency,
		Status:       model.IntentRequiresPaymentMethod,
		CustomerID:   p.CustomerID,
		Metadata:     meta,
	}
	m.intents[id] = pi
	cp := *pi
	return &cp, nil
}

// Settle simulates the client confirming the intent.
func (m *MockPaymentProvider) Settle(id string, status model.PaymentIntentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pi, ok := m.intents[id]; ok {
		pi.Status = status
	}
}

// AddIntent registers an intent as if created out of band.
func (m *MockPaymentProvider) AddIntent(pi *model.PaymentIntent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pi
	m.intents[pi.ID] = &cp
}

func (m *MockPaymentProvider) GetPaymentIntent(ctx context.Context, id string) (*model.PaymentIntent, error) {
	m.count("GetPaymentIntent")
	if m.GetPaymentIntentFunc != nil {
		return m.GetPaymentIntentFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.intents[id]
	if !ok {
		return nil, domain.NewProviderError("resource_missing", "No such payment_intent: '"+id+"'", nil)
	}
	cp := *pi
	return &cp, nil
}

func (m *MockPaymentProvider) CreateRefund(ctx context.Context, p adapter.CreateRefundParams) (*model.Refund, error) {
	m.count("CreateRefund")
	if m.CreateRefundFunc != nil {
		return m.CreateRefundFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refunded = append(m.Refunded, p)
	if r, ok := m.refunds[p.IdempotencyKey]; ok && p.IdempotencyKey != "" {
		cp := *r
		return &cp, nil
	}
	pi, ok := m.intents[p.PaymentIntentID]
	if !ok {
		return nil, domain.NewProviderError("resource_missing", "No such payment_intent", nil)
	}
	r := &model.Refund{ID: "re_" + uuid.NewString()[:8], Amount: pi.Amount, Currency: pi.Currency, Status: "succeeded"}
	m.refunds[p.IdempotencyKey] = r
	cp := *r
	return &cp, nil
}

// ---- Mock JobDispatcher ----

type MockDispatcher struct {
	mu         sync.Mutex
	Dispatched []string

	DispatchFunc func(ctx context.Context, jobID string) error
}

var _ adapter.JobDispatcher = (*MockDispatcher)(nil)

func (m *MockDispatcher) Dispatch(ctx context.Context, jobID string) error {
	if m.DispatchFunc != nil {
		return m.DispatchFunc(ctx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dispatched = append(m.Dispatched, jobID)
	return nil
}

func (m *MockDispatcher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Dispatched)
}

// ---- Mock ContentGenerator ----

type MockGenerator struct {
	mu       sync.Mutex
	Requests []adapter.GenerationRequest

	GenerateFunc func(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error)
}

var _ adapter.ContentGenerator = (*MockGenerator)(nil)

func (m *MockGenerator) Name() string { return "mock" }

func (m *MockGenerator) Generate(ctx context.Context, req adapter.GenerationRequest) (adapter.GenerationResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return adapter.GenerationResult{Content: "generated content"}, nil
}

// ---- Mock JobRefunder ----

type MockRefunder struct {
	mu      sync.Mutex
	Reasons map[string]string

	RefundFunc func(ctx context.Context, jobID, reason string) (*portsuc.RefundResult, error)
}

var _ portsuc.JobRefunder = (*MockRefunder)(nil)

func NewMockRefunder() *MockRefunder { return &MockRefunder{Reasons: map[string]string{}} }

func (m *MockRefunder) Refund(ctx context.Context, jobID, reason string) (*portsuc.RefundResult, error) {
	m.mu.Lock()
	m.Reasons[jobID] = reason
	m.mu.Unlock()
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, jobID, reason)
	}
	return &portsuc.RefundResult{RefundID: "re_" + jobID}, nil
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrLockNotAcquired
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return fmt.Errorf("unlock token mismatch for %s", key)
}

func (l *MockLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
