package coupon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var applyNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestApplyToCart_CartWise(t *testing.T) {
	c := Coupon{
		Code:          "TENOFF",
		Type:          TypeCartWise,
		DiscountType:  DiscountPercentage,
		DiscountValue: dec("10"),
		Active:        true,
	}
	cart := NewCart([]CartItem{
		item("1", 2, "50"),
		item("2", 1, "20"),
	})

	require.NoError(t, ApplyToCart(&c, cart, applyNow))

	assert.True(t, dec("120").Equal(cart.TotalPrice), "total price %s", cart.TotalPrice)
	assert.True(t, dec("12.00").Equal(cart.TotalDiscount), "total discount %s", cart.TotalDiscount)
	assert.True(t, dec("108.00").Equal(cart.FinalPrice), "final price %s", cart.FinalPrice)
	assert.Same(t, &c, cart.AppliedCoupon)

	// Cart-wise coupons never touch line items.
	for _, it := range cart.Items {
		assert.True(t, it.Discount.IsZero())
		assert.True(t, it.TotalDiscount.IsZero())
	}
}

func TestApplyToCart_ProductWise(t *testing.T) {
	c := Coupon{
		Code:                 "PROD20",
		Type:                 TypeProductWise,
		DiscountType:         DiscountPercentage,
		DiscountValue:        dec("20"),
		Active:               true,
		ApplicableProductIDs: []string{"1", "2", "3"},
	}
	cart := NewCart([]CartItem{
		item("1", 2, "50"),
		item("9", 1, "30"),
	})

	require.NoError(t, ApplyToCart(&c, cart, applyNow))

	assert.True(t, dec("20.00").Equal(cart.TotalDiscount), "total discount %s", cart.TotalDiscount)
	assert.True(t, dec("110.00").Equal(cart.FinalPrice), "final price %s", cart.FinalPrice)

	matched := cart.Items[0]
	assert.True(t, dec("10.00").Equal(matched.Discount), "per-unit discount %s", matched.Discount)
	assert.True(t, dec("20.00").Equal(matched.TotalDiscount), "line discount %s", matched.TotalDiscount)
	assert.True(t, dec("80.00").Equal(matched.FinalPrice), "line final %s", matched.FinalPrice)

	unmatched := cart.Items[1]
	assert.True(t, unmatched.Discount.IsZero())
	assert.True(t, unmatched.TotalDiscount.IsZero())
	assert.True(t, dec("30").Equal(unmatched.FinalPrice))
}

func TestApplyToCart_ProductWise_FixedPerUnit(t *testing.T) {
	c := Coupon{
		Code:                 "FIVEOFF",
		Type:                 TypeProductWise,
		DiscountType:         DiscountFixedAmount,
		DiscountValue:        dec("5"),
		Active:               true,
		ApplicableProductIDs: []string{"2"},
	}
	cart := NewCart([]CartItem{item("2", 3, "40")})

	require.NoError(t, ApplyToCart(&c, cart, applyNow))

	assert.True(t, dec("5").Equal(cart.Items[0].Discount))
	assert.True(t, dec("15").Equal(cart.Items[0].TotalDiscount))
	assert.True(t, dec("15").Equal(cart.TotalDiscount))
	assert.True(t, dec("105").Equal(cart.FinalPrice))
}

func TestApplyToCart_ProductWise_CapNotRedistributed(t *testing.T) {
	// When the cap reduces the aggregate discount, per-item discounts keep
	// their uncapped values; only the cart-level total reflects the cap.
	c := Coupon{
		Code:                 "CAPPED",
		Type:                 TypeProductWise,
		DiscountType:         DiscountPercentage,
		DiscountValue:        dec("50"),
		Active:               true,
		ApplicableProductIDs: []string{"1", "2"},
		MaxDiscountAmount:    dec("40"),
	}
	cart := NewCart([]CartItem{
		item("1", 1, "100"),
		item("2", 1, "100"),
	})

	require.NoError(t, ApplyToCart(&c, cart, applyNow))

	assert.True(t, dec("40").Equal(cart.TotalDiscount), "capped total %s", cart.TotalDiscount)
	assert.True(t, dec("160").Equal(cart.FinalPrice))

	lineSum := cart.Items[0].TotalDiscount.Add(cart.Items[1].TotalDiscount)
	assert.True(t, dec("100.00").Equal(lineSum), "line discounts stay uncapped, got %s", lineSum)
}

func TestApplyToCart_BxGy(t *testing.T) {
	c := Coupon{
		Code:            "B2G1",
		Type:            TypeBxGy,
		Active:          true,
		RepetitionLimit: 3,
		BxGyRules: []BxGyRule{
			{BuyQuantity: 2, BuyProductIDs: []string{"1"}, GetQuantity: 1, GetProductIDs: []string{"4", "5"}, Priority: 1},
		},
	}
	cart := NewCart([]CartItem{
		item("1", 4, "10"),
		item("4", 1, "8"),
		item("5", 1, "12"),
	})

	require.NoError(t, ApplyToCart(&c, cart, applyNow))

	assert.True(t, dec("20.00").Equal(cart.TotalDiscount), "total discount %s", cart.TotalDiscount)
	assert.True(t, dec("40.00").Equal(cart.FinalPrice), "final price %s", cart.FinalPrice)

	// BxGy does not assign per-item discounts.
	for _, it := range cart.Items {
		assert.True(t, it.Discount.IsZero())
		assert.True(t, it.TotalDiscount.IsZero())
	}
}

func TestApplyToCart_ValidationFailureLeavesCartUntouched(t *testing.T) {
	c := Coupon{
		Code:          "OFF",
		Type:          TypeCartWise,
		DiscountType:  DiscountPercentage,
		DiscountValue: dec("10"),
		Active:        false,
	}
	cart := NewCart([]CartItem{item("1", 1, "100")})

	err := ApplyToCart(&c, cart, applyNow)
	require.ErrorIs(t, err, ErrInactive)

	assert.Nil(t, cart.AppliedCoupon)
	assert.True(t, cart.TotalDiscount.IsZero())
	assert.True(t, dec("100").Equal(cart.FinalPrice))
}

func TestApplyToCart_TotalsInvariant(t *testing.T) {
	// totalPrice = sum(unitPrice*qty) and finalPrice = totalPrice - totalDiscount
	// hold after every successful application.
	coupons := []Coupon{
		{Code: "A", Type: TypeCartWise, DiscountType: DiscountFixedAmount, DiscountValue: dec("7"), Active: true},
		{Code: "B", Type: TypeProductWise, DiscountType: DiscountPercentage, DiscountValue: dec("25"), Active: true, ApplicableProductIDs: []string{"2"}},
		{Code: "C", Type: TypeBxGy, Active: true, RepetitionLimit: 1, BxGyRules: []BxGyRule{
			{BuyQuantity: 1, BuyProductIDs: []string{"1"}, GetQuantity: 1, GetProductIDs: []string{"3"}, Priority: 1},
		}},
	}

	for i := range coupons {
		c := &coupons[i]
		t.Run(c.Code, func(t *testing.T) {
			cart := NewCart([]CartItem{
				item("1", 2, "19.99"),
				item("2", 1, "45.50"),
				item("3", 3, "5.25"),
			})
			require.NoError(t, ApplyToCart(c, cart, applyNow))

			want := dec("19.99").Mul(dec("2")).Add(dec("45.50")).Add(dec("5.25").Mul(dec("3")))
			assert.True(t, want.Equal(cart.TotalPrice), "total price %s", cart.TotalPrice)
			assert.True(t, cart.TotalPrice.Sub(cart.TotalDiscount).Equal(cart.FinalPrice),
				"final price %s != %s - %s", cart.FinalPrice, cart.TotalPrice, cart.TotalDiscount)
		})
	}
}
