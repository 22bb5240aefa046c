package model

import (
	"fmt"
	"strings"

	"content-payment-service/internal/domain"
)

type Tier string

const (
	TierStandard Tier = "standard"
	TierPro      Tier = "pro"
)

const (
	// MinimumChargeMinor is the smallest amount the card provider accepts (USD cents).
	MinimumChargeMinor int64 = 50
	DefaultCurrency          = "usd"
)

// ParseTier normalizes s and returns ErrInvalidArgument for unknown tiers.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierStandard, TierPro:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown tier %q", domain.ErrInvalidArgument, s)
	}
}

func (t Tier) Valid() bool { return t == TierStandard || t == TierPro }

// Title is the human readable tier name used in provider descriptions.
func (t Tier) Title() string {
	switch t {
	case TierStandard:
		return "Standard"
	case TierPro:
		return "Pro"
	default:
		return string(t)
	}
}
