package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a single cart line. Discount is the per-unit discount assigned
// by an item-scoped coupon; TotalDiscount and FinalPrice are derived from it
// by recalc and must not be set independently.
type CartItem struct {
	ProductID     string
	ProductName   string
	Quantity      int
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal
	TotalDiscount decimal.Decimal
	FinalPrice    decimal.Decimal
}

// LineTotal returns the undiscounted price of the line.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// recalc derives the line discount and final price from the per-unit discount.
func (i *CartItem) recalc() {
	i.TotalDiscount = i.Discount.Mul(decimal.NewFromInt(int64(i.Quantity)))
	i.FinalPrice = i.LineTotal().Sub(i.TotalDiscount)
}

// Cart is an in-memory cart being priced. TotalPrice and FinalPrice are
// derived values, recomputed by Recalculate whenever items or TotalDiscount
// change.
type Cart struct {
	ID            string
	Items         []CartItem
	TotalPrice    decimal.Decimal
	TotalDiscount decimal.Decimal
	FinalPrice    decimal.Decimal
	AppliedCoupon *Coupon
	CreatedAt     time.Time
}

// NewCart builds a cart from the given line items with all discounts zeroed
// and totals computed.
func NewCart(items []CartItem) *Cart {
	c := &Cart{Items: items}
	for i := range c.Items {
		c.Items[i].Discount = decimal.Zero
		c.Items[i].recalc()
	}
	c.TotalDiscount = decimal.Zero
	c.Recalculate()
	return c
}

// Recalculate recomputes the derived cart totals from the current items and
// total discount.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	c.TotalPrice = total
	c.FinalPrice = total.Sub(c.TotalDiscount)
}

// itemsTotal returns the sum of unit price times quantity over items.
func itemsTotal(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for i := range items {
		sum = sum.Add(items[i].LineTotal())
	}
	return sum
}
