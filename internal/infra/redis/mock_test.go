//go:build !integration

package redis

import (
	"context"
	"time"

	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/repository"
)

// mockRedisClient mocks our Redis client wrapper. Set, Del and Ping default to success.
type mockRedisClient struct {
	GetFunc   func(ctx context.Context, key string) (string, error)
	SetFunc   func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc   func(ctx context.Context, keys ...string) error
	LPushFunc func(ctx context.Context, key string, values ...interface{}) error
	BRPopFunc func(ctx context.Context, timeout time.Duration, key string) (string, error)

	IncrWindowFunc func(ctx context.Context, key string, window time.Duration) (int64, error)
	SetNXFunc      func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	DelIfEqualFunc func(ctx context.Context, key, value string) (bool, error)
}

var _ RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) LPush(ctx context.Context, key string, values ...interface{}) error {
	return m.LPushFunc(ctx, key, values...)
}
func (m *mockRedisClient) BRPop(ctx context.Context, timeout time.Duration, key string) (string, error) {
	return m.BRPopFunc(ctx, timeout, key)
}
func (m *mockRedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return m.IncrWindowFunc(ctx, key, window)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return m.SetNXFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) DelIfEqual(ctx context.Context, key, value string) (bool, error) {
	return m.DelIfEqualFunc(ctx, key, value)
}
func (m *mockRedisClient) Close() error { return nil }

// mockInnerUserRepo mocks the store the user decorator wraps.
type mockInnerUserRepo struct {
	FindByIDFunc            func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	SetStripeCustomerIDFunc func(ctx context.Context, tx repository.Tx, userID, customerID string) error
}

func (m *mockInnerUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerUserRepo) SetStripeCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) error {
	return m.SetStripeCustomerIDFunc(ctx, tx, userID, customerID)
}
