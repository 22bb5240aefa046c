package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type userDoc struct {
	Email            string    `firestore:"email"`
	StripeCustomerID string    `firestore:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `firestore:"created_at"`
}

// UserRepo keeps users as documents keyed by user id.
type UserRepo struct {
	users *firestore.CollectionRef
}

func NewUserRepo(c *firestore.Client, collection string) *UserRepo {
	if collection == "" {
		collection = "users"
	}
	return &UserRepo{users: c.Collection(collection)}
}

func (r *UserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	ref := r.users.Doc(id)
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
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.ErrOperationFailed
	}
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &model.User{ID: id, Email: d.Email, StripeCustomerID: d.StripeCustomerID, CreatedAt: d.CreatedAt}, nil
}

func (r *UserRepo) SetStripeCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) error {
	ref := r.users.Doc(userID)
	updates := []firestore.Update{{Path: "stripe_customer_id", Value: customerID}}
	var err error
	if t, ok := txFrom(tx); ok {
		err = t.Update(ref, updates)
	} else {
		_, err = ref.Update(ctx, updates)
	}
	if err != nil {
		if isNotFound(err) {
			return domain.ErrUserNotFound
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// Save creates or replaces the user document.
func (r *UserRepo) Save(ctx context.Context, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.users.Doc(u.ID).Set(ctx, userDoc{Email: u.Email, StripeCustomerID: u.StripeCustomerID, CreatedAt: u.CreatedAt})
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
