package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

// Save upserts a user. Used by the seeder and tests; the payment flow only
// ever sets the provider customer id.
func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO users (id, email, stripe_customer_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  stripe_customer_id = COALESCE(EXCLUDED.stripe_customer_id, users.stripe_customer_id);`
	if _, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, nullIfEmpty(u.StripeCustomerID), u.CreatedAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `
SELECT id, email, COALESCE(stripe_customer_id, ''), created_at
  FROM users WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.StripeCustomerID, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}

func (r *PostgresUserRepo) SetStripeCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) error {
	const q = `UPDATE users SET stripe_customer_id = $2 WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, customerID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
