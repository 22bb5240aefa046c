package adapter

import (
	"context"

	"content-payment-service/internal/domain/model"
)

// CreateCustomerParams describes a new provider customer.
type CreateCustomerParams struct {
	UserID         string
	Email          string
	Metadata       map[string]string
	IdempotencyKey string
}

// CreatePaymentIntentParams describes an amount to authorize against a customer.
type CreatePaymentIntentParams struct {
	Amount       int64 // minor units
	Currency     string
	CustomerID   string
	Description  string
	ReceiptEmail string
	Metadata     map[string]string
}

// RefundReason is the provider-side refund categorization.
type RefundReason string

const (
	RefundReasonRequestedByCustomer RefundReason = "requested_by_customer"
	RefundReasonDuplicate           RefundReason = "duplicate"
	RefundReasonFraudulent          RefundReason = "fraudulent"
)

// CreateRefundParams refunds a settled payment intent. A zero Amount refunds in full.
type CreateRefundParams struct {
	PaymentIntentID string
	Amount          int64
	Reason          RefundReason
	Metadata        map[string]string
	IdempotencyKey  string
}

// PaymentProvider is the hex port for the card processor.
// Implementations return *domain.ProviderError for provider-side failures.
type PaymentProvider interface {
	Name() string

	CreateCustomer(ctx context.Context, p CreateCustomerParams) (customerID string, err error)
	CreatePaymentIntent(ctx context.Context, p CreatePaymentIntentParams) (*model.PaymentIntent, error)
	// GetPaymentIntent returns the provider's authoritative view of an intent.
	GetPaymentIntent(ctx context.Context, id string) (*model.PaymentIntent, error)
	CreateRefund(ctx context.Context, p CreateRefundParams) (*model.Refund, error)
}
