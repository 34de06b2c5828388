package coupon

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// ComputeDiscount calculates the discount the coupon yields for the given
// items without mutating anything. It is a pure function of its inputs:
// unknown coupon types yield zero.
func ComputeDiscount(c *Coupon, items []CartItem) decimal.Decimal {
	switch c.Type {
	case TypeCartWise:
		return cartWiseDiscount(c, items)
	case TypeProductWise:
		return productWiseDiscount(c, items)
	case TypeBxGy:
		return bxgyDiscount(c, items)
	default:
		return zero
	}
}

func cartWiseDiscount(c *Coupon, items []CartItem) decimal.Decimal {
	cartTotal := itemsTotal(items)

	if c.MinimumCartValue.IsPositive() && cartTotal.LessThan(c.MinimumCartValue) {
		return zero
	}

	var discount decimal.Decimal
	if c.DiscountType == DiscountPercentage {
		discount = cartTotal.Mul(c.DiscountValue).DivRound(hundred, 2)
	} else {
		discount = c.DiscountValue
	}

	return floorAtZero(capDiscount(c, discount))
}

func productWiseDiscount(c *Coupon, items []CartItem) decimal.Decimal {
	if len(c.ApplicableProductIDs) == 0 {
		return zero
	}
	applicable := productIDSet(c.ApplicableProductIDs)

	total := zero
	for i := range items {
		item := &items[i]
		if !applicable[item.ProductID] {
			continue
		}

		var itemDiscount decimal.Decimal
		if c.DiscountType == DiscountPercentage {
			itemDiscount = item.LineTotal().Mul(c.DiscountValue).DivRound(hundred, 2)
		} else {
			itemDiscount = c.DiscountValue.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		total = total.Add(itemDiscount)
	}

	return floorAtZero(capDiscount(c, total))
}

// bxgyDiscount evaluates the coupon's rules in ascending priority order until
// the repetition limit is reached. A rule that yields no discount does not
// consume a repetition slot. MaxDiscountAmount does not apply to this variant.
func bxgyDiscount(c *Coupon, items []CartItem) decimal.Decimal {
	if len(c.BxGyRules) == 0 {
		return zero
	}

	rules := make([]BxGyRule, len(c.BxGyRules))
	copy(rules, c.BxGyRules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	total := zero
	applied := 0
	for _, rule := range rules {
		if applied >= c.RepetitionLimit {
			break
		}

		ruleDiscount := bxgyRuleDiscount(rule, items)
		if ruleDiscount.IsPositive() {
			total = total.Add(ruleDiscount)
			applied++
		}
	}
	return total
}

func bxgyRuleDiscount(rule BxGyRule, items []CartItem) decimal.Decimal {
	buyIDs := productIDSet(rule.BuyProductIDs)
	getIDs := productIDSet(rule.GetProductIDs)

	buyCount := 0
	for i := range items {
		if buyIDs[items[i].ProductID] {
			buyCount += items[i].Quantity
		}
	}

	applicableTimes := buyCount / rule.BuyQuantity
	if applicableTimes == 0 {
		return zero
	}

	getValue := zero
	for i := range items {
		if getIDs[items[i].ProductID] {
			getValue = getValue.Add(items[i].LineTotal())
		}
	}

	// Average over the count of distinct get-product ids, not the matched
	// quantity. GetProductIDs is non-empty by construction.
	avgGetPrice := getValue.DivRound(decimal.NewFromInt(int64(len(rule.GetProductIDs))), 2)
	totalGetQuantity := applicableTimes * rule.GetQuantity

	return avgGetPrice.Mul(decimal.NewFromInt(int64(totalGetQuantity)))
}

// DiscountDescription renders a short human-readable summary of the coupon's
// discount for API responses.
func DiscountDescription(c *Coupon) string {
	switch c.Type {
	case TypeBxGy:
		return "Buy X Get Y discount applied"
	default:
		if c.DiscountType == DiscountPercentage {
			return fmt.Sprintf("%s%% off", c.DiscountValue)
		}
		return fmt.Sprintf("$%s off", c.DiscountValue)
	}
}

// capDiscount applies the coupon's maximum discount amount, when set.
func capDiscount(c *Coupon, discount decimal.Decimal) decimal.Decimal {
	if c.MaxDiscountAmount.IsPositive() {
		return decimal.Min(discount, c.MaxDiscountAmount)
	}
	return discount
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}

func productIDSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
