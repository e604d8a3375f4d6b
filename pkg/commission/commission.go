// Package commission defines the single source of truth for the platform's
// cut of each sub-order. Every payable-amount computation (sub-order
// creation, payout summaries, settlement) must go through a Policy so the
// rate can never drift between call sites.
package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultRate is the platform commission applied to every sub-order subtotal.
var DefaultRate = decimal.NewFromFloat(0.05)

// Policy derives payable amounts from sub-order subtotals.
type Policy struct {
	rate decimal.Decimal
}

// NewPolicy builds a policy with the given rate. Rate must be in [0, 1).
func NewPolicy(rate decimal.Decimal) (Policy, error) {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Policy{}, fmt.Errorf("commission rate %s out of range [0, 1)", rate)
	}
	return Policy{rate: rate}, nil
}

// Default returns the policy with the platform's standard rate.
func Default() Policy {
	policy, _ := NewPolicy(DefaultRate)
	return policy
}

// Rate returns the configured commission rate.
func (p Policy) Rate() decimal.Decimal {
	return p.rate
}

// Commission returns the platform's share of the subtotal.
func (p Policy) Commission(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.rate)
}

// PayableAmount returns what the platform owes the seller for the subtotal.
func (p Policy) PayableAmount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(p.Commission(subtotal))
}
