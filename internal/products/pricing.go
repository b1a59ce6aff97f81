package product

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultUSDRate converts PLN list prices into the USD display price.
var DefaultUSDRate = decimal.RequireFromString("0.25")

// Pricing derives secondary currency prices from the PLN list price.
type Pricing struct {
	usdRate decimal.Decimal
}

// NewPricing parses the configured PLN->USD rate; an empty value uses the default.
func NewPricing(rate string) (Pricing, error) {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return Pricing{usdRate: DefaultUSDRate}, nil
	}
	parsed, err := decimal.NewFromString(rate)
	if err != nil {
		return Pricing{}, fmt.Errorf("parse usd rate %q: %w", rate, err)
	}
	if !parsed.IsPositive() {
		return Pricing{}, fmt.Errorf("usd rate must be positive, got %s", rate)
	}
	return Pricing{usdRate: parsed}, nil
}

// USD returns the USD price rounded to cents.
func (p Pricing) USD(pln decimal.Decimal) decimal.Decimal {
	rate := p.usdRate
	if rate.IsZero() {
		rate = DefaultUSDRate
	}
	return pln.Mul(rate).Round(2)
}
