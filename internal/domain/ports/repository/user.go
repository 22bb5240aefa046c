package repository

import (
	"context"

	"content-payment-service/internal/domain/model"
)

type UserRepository interface {
	// FindByID returns domain.ErrUserNotFound when the user has no record.
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	SetStripeCustomerID(ctx context.Context, tx Tx, userID, customerID string) error
}
