package usecase

import (
	"fmt"
	"strings"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
)

// Pricing is the static per-page price table, in minor currency units.
type Pricing struct {
	rates    map[model.Tier]int64
	currency string
}

// NewPricing builds a price table. Non-positive rates fall back to the defaults.
func NewPricing(standardPerPage, proPerPage int64, currency string) *Pricing {
	if standardPerPage <= 0 {
		standardPerPage = 149
	}
	if proPerPage <= 0 {
		proPerPage = 249
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = model.DefaultCurrency
	}
	return &Pricing{
		rates: map[model.Tier]int64{
			model.TierStandard: standardPerPage,
			model.TierPro:      proPerPage,
		},
		currency: currency,
	}
}

func DefaultPricing() *Pricing { return NewPricing(0, 0, "") }

func (p *Pricing) Currency() string { return p.currency }

// Rate returns the per-page price for tier.
func (p *Pricing) Rate(tier model.Tier) (int64, error) {
	r, ok := p.rates[tier]
	if !ok {
		return 0, fmt.Errorf("%w: unknown tier %q", domain.ErrInvalidArgument, tier)
	}
	return r, nil
}

// Quote returns rate(tier) × pages. Amounts under the provider minimum are
// rejected with domain.ErrInvalidAmount.
func (p *Pricing) Quote(tier model.Tier, pages int) (int64, error) {
	if pages <= 0 || pages > model.MaxEstimatedPages {
		return 0, fmt.Errorf("%w: estimated_pages must be between 1 and %d", domain.ErrInvalidArgument, model.MaxEstimatedPages)
	}
	rate, err := p.Rate(tier)
	if err != nil {
		return 0, err
	}
	amount := rate * int64(pages)
	if amount < model.MinimumChargeMinor {
		return 0, fmt.Errorf("%w: amount %d is below the minimum charge of %d", domain.ErrInvalidAmount, amount, model.MinimumChargeMinor)
	}
	return amount, nil
}
