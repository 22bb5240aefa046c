package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/ports/adapter"
)

var _ adapter.Locker = (*RedisLocker)(nil)

const (
	lockPrefix   = "lock:"
	lockAttempts = 3
	lockBackoff  = 50 * time.Millisecond
)

// RedisLocker hands out per-key ownership tokens backed by SET NX PX.
type RedisLocker struct {
	client RedisClient
	log    *zerolog.Logger
}

func NewLocker(client RedisClient, logger *zerolog.Logger) *RedisLocker {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &RedisLocker{client: client, log: logger}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < lockAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(lockBackoff):
			}
		}
		ok, err := l.client.SetNX(ctx, lockPrefix+key, token, ttl)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return token, nil
		}
		lastErr = nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrLockNotAcquired
}

// Unlock releases key only if token still owns it. A lock that already
// expired is not an error, only a sign the TTL was too short.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	released, err := l.client.DelIfEqual(ctx, lockPrefix+key, token)
	if err != nil {
		return err
	}
	if !released {
		l.log.Warn().Str("lock", key).Msg("lock expired before release")
	}
	return nil
}
