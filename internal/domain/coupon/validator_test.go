package coupon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	base := func() Coupon {
		return Coupon{
			Code:          "SAVE10",
			Type:          TypeCartWise,
			DiscountType:  DiscountPercentage,
			DiscountValue: dec("10"),
			Active:        true,
		}
	}

	cart := NewCart([]CartItem{item("1", 2, "60")})

	tests := []struct {
		name     string
		mutate   func(*Coupon)
		wantErr  error
		wantDisc string
	}{
		{
			name:     "valid coupon returns discount",
			mutate:   func(*Coupon) {},
			wantDisc: "12.00",
		},
		{
			name:    "inactive",
			mutate:  func(c *Coupon) { c.Active = false },
			wantErr: ErrInactive,
		},
		{
			name:    "not yet valid",
			mutate:  func(c *Coupon) { c.ValidFrom = &futureTime },
			wantErr: ErrNotYetValid,
		},
		{
			name:    "expired",
			mutate:  func(c *Coupon) { c.ValidUntil = &pastTime },
			wantErr: ErrExpired,
		},
		{
			name: "within window succeeds",
			mutate: func(c *Coupon) {
				c.ValidFrom = &pastTime
				c.ValidUntil = &futureTime
			},
			wantDisc: "12.00",
		},
		{
			name: "usage limit exceeded",
			mutate: func(c *Coupon) {
				c.MaxUsage = 1
				c.CurrentUsage = 1
			},
			wantErr: ErrUsageLimitExceeded,
		},
		{
			name: "usage under limit succeeds",
			mutate: func(c *Coupon) {
				c.MaxUsage = 100
				c.CurrentUsage = 50
			},
			wantDisc: "12.00",
		},
		{
			name:     "zero max usage means unlimited",
			mutate:   func(c *Coupon) { c.CurrentUsage = 9999 },
			wantDisc: "12.00",
		},
		{
			name:    "below minimum cart value",
			mutate:  func(c *Coupon) { c.MinimumCartValue = dec("500") },
			wantErr: ErrBelowMinimumCartValue,
		},
		{
			name: "zero discount is not applicable",
			mutate: func(c *Coupon) {
				c.Type = TypeProductWise
				c.ApplicableProductIDs = []string{"does-not-match"}
			},
			wantErr: ErrNotApplicable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)

			got, err := Validate(&c, cart, fixedNow)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.wantDisc).Equal(got), "expected %s, got %s", tt.wantDisc, got)
		})
	}
}

func TestValidate_CheckOrder(t *testing.T) {
	// An inactive coupon fails on the active check even when later checks
	// would also fail.
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-time.Hour)

	c := Coupon{
		Code:          "DEAD",
		Type:          TypeCartWise,
		DiscountType:  DiscountPercentage,
		DiscountValue: dec("10"),
		Active:        false,
		ValidUntil:    &pastTime,
		MaxUsage:      1,
		CurrentUsage:  5,
	}
	cart := NewCart([]CartItem{item("1", 1, "100")})

	_, err := Validate(&c, cart, fixedNow)
	require.ErrorIs(t, err, ErrInactive)
}

func TestValidate_BelowMinimumBeatsNotApplicable(t *testing.T) {
	// The cart-wise strategy would also return zero below the minimum, but
	// the validator reports the more specific minimum-cart-value error.
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	c := Coupon{
		Code:             "MIN100",
		Type:             TypeCartWise,
		DiscountType:     DiscountPercentage,
		DiscountValue:    dec("10"),
		Active:           true,
		MinimumCartValue: dec("100"),
	}
	cart := NewCart([]CartItem{item("1", 1, "90")})

	_, err := Validate(&c, cart, fixedNow)
	require.ErrorIs(t, err, ErrBelowMinimumCartValue)
}
