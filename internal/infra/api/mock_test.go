//go:build !integration

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"content-payment-service/internal/domain/model"
	portsuc "content-payment-service/internal/domain/ports/usecase"
	"content-payment-service/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type mockContentPaymentUC struct {
	AuthorizeFunc func(ctx context.Context, in usecase.AuthorizeInput) (*usecase.AuthorizeResult, error)
	CommitFunc    func(ctx context.Context, in usecase.CommitInput) (*usecase.CommitResult, error)
	RefundFunc    func(ctx context.Context, jobID, reason string) (*portsuc.RefundResult, error)
	GetJobFunc    func(ctx context.Context, jobID, userID string) (*model.Job, error)
}

var _ usecase.ContentPaymentUseCase = (*mockContentPaymentUC)(nil)

func (m *mockContentPaymentUC) Authorize(ctx context.Context, in usecase.AuthorizeInput) (*usecase.AuthorizeResult, error) {
	return m.AuthorizeFunc(ctx, in)
}
func (m *mockContentPaymentUC) Commit(ctx context.Context, in usecase.CommitInput) (*usecase.CommitResult, error) {
	return m.CommitFunc(ctx, in)
}
func (m *mockContentPaymentUC) Refund(ctx context.Context, jobID, reason string) (*portsuc.RefundResult, error) {
	return m.RefundFunc(ctx, jobID, reason)
}
func (m *mockContentPaymentUC) GetJob(ctx context.Context, jobID, userID string) (*model.Job, error) {
	return m.GetJobFunc(ctx, jobID, userID)
}

type mockLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allow, m.err
}
