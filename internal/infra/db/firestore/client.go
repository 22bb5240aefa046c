package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"content-payment-service/internal/config"
)

// NewClient connects to Firestore. With FIRESTORE_EMULATOR_HOST set the SDK
// talks to the emulator and the credentials file is ignored.
func NewClient(ctx context.Context, cfg *config.FirestoreConfig) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	c, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return c, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// txFrom unwraps a repository.Tx that carries a Firestore transaction.
func txFrom(tx interface{}) (*firestore.Transaction, bool) {
	t, ok := tx.(*firestore.Transaction)
	return t, ok && t != nil
}
