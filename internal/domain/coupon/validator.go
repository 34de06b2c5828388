package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// Validate checks whether the coupon can be applied to the cart at the given
// instant. Checks run in a fixed order and short-circuit on the first
// failure. On success the computed discount is returned so callers can avoid
// recomputing it.
func Validate(c *Coupon, cart *Cart, now time.Time) (decimal.Decimal, error) {
	if !c.Active {
		return zero, ErrInactive
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return zero, ErrNotYetValid
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return zero, ErrExpired
	}
	if c.MaxUsage > 0 && c.CurrentUsage >= c.MaxUsage {
		return zero, ErrUsageLimitExceeded
	}

	cartTotal := itemsTotal(cart.Items)
	if c.MinimumCartValue.IsPositive() && cartTotal.LessThan(c.MinimumCartValue) {
		return zero, ErrBelowMinimumCartValue
	}

	discount := ComputeDiscount(c, cart.Items)
	if !discount.IsPositive() {
		return zero, ErrNotApplicable
	}
	return discount, nil
}
