package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

// NewUserRepoCacheDecorator caches user lookups by id. Writes invalidate the entry.
func NewUserRepoCacheDecorator(inner repository.UserRepository, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &userRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func userKey(id string) string { return fmt.Sprintf("user:id:%s", id) }

type cachedUser struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	StripeCustomerID string    `json:"stripe_customer_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	// Reads inside a transaction must see the transaction's view.
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}

	key := userKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var cu cachedUser
		if json.Unmarshal([]byte(val), &cu) == nil {
			return &model.User{ID: cu.ID, Email: cu.Email, StripeCustomerID: cu.StripeCustomerID, CreatedAt: cu.CreatedAt}, nil
		}
	} else if err != redis.Nil {
		d.log.Warn().Err(err).Str("key", key).Msg("user cache read failed")
	}

	user, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	b, _ := json.Marshal(cachedUser{ID: user.ID, Email: user.Email, StripeCustomerID: user.StripeCustomerID, CreatedAt: user.CreatedAt})
	_ = d.cache.Set(ctx, key, b, d.ttl)
	return user, nil
}

func (d *userRepoCacheDecorator) SetStripeCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) error {
	if err := d.inner.SetStripeCustomerID(ctx, tx, userID, customerID); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, userKey(userID)); err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Msg("user cache invalidation failed")
	}
	return nil
}
