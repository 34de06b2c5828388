package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplyToCart validates the coupon against the cart and, on success, mutates
// the cart: item-scoped variants assign per-unit discounts to matching lines,
// the total discount is set, the coupon is attached, and derived totals are
// recomputed. Validation errors are returned unchanged and leave the cart
// untouched.
func ApplyToCart(c *Coupon, cart *Cart, now time.Time) error {
	if _, err := Validate(c, cart, now); err != nil {
		return err
	}

	var totalDiscount decimal.Decimal
	switch c.Type {
	case TypeCartWise:
		totalDiscount = cartWiseDiscount(c, cart.Items)
	case TypeProductWise:
		totalDiscount = applyProductWise(c, cart)
	case TypeBxGy:
		totalDiscount = bxgyDiscount(c, cart.Items)
	}

	cart.TotalDiscount = totalDiscount
	cart.AppliedCoupon = c
	cart.Recalculate()
	return nil
}

// applyProductWise assigns per-unit discounts to matching items and returns
// the accumulated cart-level discount. The MaxDiscountAmount cap applies to
// the accumulated sum only; already-assigned per-item discounts are not
// re-proportioned when the cap reduces the total, so the sum of line
// discounts can exceed the reported cart-level discount.
func applyProductWise(c *Coupon, cart *Cart) decimal.Decimal {
	if len(c.ApplicableProductIDs) == 0 {
		return zero
	}
	applicable := productIDSet(c.ApplicableProductIDs)

	total := zero
	for i := range cart.Items {
		item := &cart.Items[i]
		if !applicable[item.ProductID] {
			continue
		}

		var perUnit decimal.Decimal
		if c.DiscountType == DiscountPercentage {
			perUnit = item.UnitPrice.Mul(c.DiscountValue).DivRound(hundred, 2)
		} else {
			perUnit = c.DiscountValue
		}

		item.Discount = perUnit
		item.recalc()
		total = total.Add(perUnit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return floorAtZero(capDiscount(c, total))
}
