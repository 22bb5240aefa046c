package payment

import (
	"context"
	"fmt"
	"sync"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*NoopProvider)(nil)

// NoopProvider is an in-memory provider for dev mode. Intents are created
// already succeeded so the commit flow can run without a card form.
type NoopProvider struct {
	mu       sync.Mutex
	seq      int64
	intents  map[string]*model.PaymentIntent
	refunds  map[string]*model.Refund // by payment intent
	Customer map[string]string        // idempotency key -> customer id
}

func NewNoopProvider() *NoopProvider {
	return &NoopProvider{
		intents:  make(map[string]*model.PaymentIntent),
		refunds:  make(map[string]*model.Refund),
		Customer: make(map[string]string),
	}
}

func (p *NoopProvider) Name() string { return "noop" }

func (p *NoopProvider) next(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s_noop_%d", prefix, p.seq)
}

func (p *NoopProvider) CreateCustomer(ctx context.Context, in adapter.CreateCustomerParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.Customer[in.IdempotencyKey]; ok && in.IdempotencyKey != "" {
		return id, nil
	}
	id := p.next("cus")
	p.Customer[in.IdempotencyKey] = id
	return id, nil
}

func (p *NoopProvider) CreatePaymentIntent(ctx context.Context, in adapter.CreatePaymentIntentParams) (*model.PaymentIntent, error) {
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next("pi")
	meta := make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		meta[k] = v
	}
	pi := &model.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       in.Amount,
		Currency:     in.Currency,
		Status:       model.IntentSucceeded,
		CustomerID:   in.CustomerID,
		Metadata:     meta,
	}
	p.intents[id] = pi
	cp := *pi
	return &cp, nil
}

func (p *NoopProvider) GetPaymentIntent(ctx context.Context, id string) (*model.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pi, ok := p.intents[id]
	if !ok {
		return nil, domain.NewProviderError("resource_missing", fmt.Sprintf("No such payment_intent: '%s'", id), nil)
	}
	cp := *pi
	return &cp, nil
}

func (p *NoopProvider) CreateRefund(ctx context.Context, in adapter.CreateRefundParams) (*model.Refund, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pi, ok := p.intents[in.PaymentIntentID]
	if !ok {
		return nil, domain.NewProviderError("resource_missing", fmt.Sprintf("No such payment_intent: '%s'", in.PaymentIntentID), nil)
	}
	if r, ok := p.refunds[pi.ID]; ok {
		if in.IdempotencyKey == "" {
			return nil, domain.NewProviderError("charge_already_refunded", "Charge has already been refunded.", nil)
		}
		cp := *r
		return &cp, nil
	}
	amount := in.Amount
	if amount <= 0 {
		amount = pi.Amount
	}
	r := &model.Refund{ID: p.next("re"), Amount: amount, Currency: pi.Currency, Status: "succeeded"}
	p.refunds[pi.ID] = r
	cp := *r
	return &cp, nil
}
