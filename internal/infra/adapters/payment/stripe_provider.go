// File: internal/infra/adapters/payment/stripe_provider.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/infra/metrics"
)

var _ adapter.PaymentProvider = (*StripeProvider)(nil)

// StripeProvider implements adapter.PaymentProvider on a per-instance Stripe client.
type StripeProvider struct {
	sc *client.API
}

// NewStripeProvider builds a provider for secretKey. backends may be nil (Stripe defaults).
func NewStripeProvider(secretKey string, backends *stripe.Backends) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeProvider{sc: sc}, nil
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) CreateCustomer(ctx context.Context, in adapter.CreateCustomerParams) (string, error) {
	params := &stripe.CustomerParams{}
	if in.Email != "" {
		params.Email = stripe.String(in.Email)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}
	params.Context = ctx

	start := time.Now()
	c, err := p.sc.Customers.New(params)
	observe("create_customer", start, err)
	if err != nil {
		return "", mapStripeError(err)
	}
	return c.ID, nil
}

func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, in adapter.CreatePaymentIntentParams) (*model.PaymentIntent, error) {
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.Amount),
		Currency: stripe.String(in.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	if in.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(in.ReceiptEmail)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	start := time.Now()
	pi, err := p.sc.PaymentIntents.New(params)
	observe("create_payment_intent", start, err)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) GetPaymentIntent(ctx context.Context, id string) (*model.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	start := time.Now()
	pi, err := p.sc.PaymentIntents.Get(id, params)
	observe("get_payment_intent", start, err)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) CreateRefund(ctx context.Context, in adapter.CreateRefundParams) (*model.Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(in.PaymentIntentID),
	}
	if in.Amount > 0 {
		params.Amount = stripe.Int64(in.Amount)
	}
	if in.Reason != "" {
		params.Reason = stripe.String(string(in.Reason))
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}
	params.Context = ctx

	start := time.Now()
	r, err := p.sc.Refunds.New(params)
	observe("create_refund", start, err)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return &model.Refund{
		ID:       r.ID,
		Amount:   r.Amount,
		Currency: string(r.Currency),
		Status:   string(r.Status),
	}, nil
}

func toIntent(pi *stripe.PaymentIntent) *model.PaymentIntent {
	out := &model.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       model.PaymentIntentStatus(pi.Status),
		Metadata:     pi.Metadata,
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

// mapStripeError converts SDK errors into domain.ProviderError so callers never
// import stripe-go.
func mapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		msg := se.Msg
		if msg == "" {
			msg = http.StatusText(se.HTTPStatusCode)
		}
		code := string(se.Code)
		if code == "" {
			code = string(se.Type)
		}
		return domain.NewProviderError(code, msg, err)
	}
	return domain.NewProviderError("", fmt.Sprintf("request failed: %v", err), err)
}

func observe(call string, start time.Time, err error) {
	metrics.ObserveProviderCall("stripe", call, time.Since(start).Milliseconds(), err == nil)
}
