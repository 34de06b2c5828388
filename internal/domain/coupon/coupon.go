package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported coupon variants.
type Type string

const (
	// TypeCartWise discounts the aggregate cart value.
	TypeCartWise Type = "cart_wise"
	// TypeProductWise discounts a fixed set of products in the cart.
	TypeProductWise Type = "product_wise"
	// TypeBxGy grants "get" products for free based on purchased "buy" quantities.
	TypeBxGy Type = "bxgy"
)

// DiscountType enumerates how a coupon's discount value is interpreted.
type DiscountType string

const (
	// DiscountPercentage treats the value as a percentage of the discounted base.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixedAmount treats the value as a fixed monetary amount.
	DiscountFixedAmount DiscountType = "fixed_amount"
)

var (
	// ErrNotFound is returned when no coupon exists for the requested id.
	ErrNotFound = errors.New("coupon not found")
	// ErrCodeExists is returned when creating or updating a coupon with a
	// code already taken by another coupon.
	ErrCodeExists = errors.New("coupon code already exists")
	// ErrInvalidDefinition is returned when a coupon definition is not
	// internally consistent for its variant.
	ErrInvalidDefinition = errors.New("invalid coupon definition")

	// ErrInactive is returned when applying a deactivated coupon.
	ErrInactive = errors.New("coupon is not active")
	// ErrNotYetValid is returned when the coupon's validity window has not opened.
	ErrNotYetValid = errors.New("coupon is not yet valid")
	// ErrExpired is returned when the coupon's validity window has closed.
	ErrExpired = errors.New("coupon has expired")
	// ErrUsageLimitExceeded is returned when the coupon has exhausted its allowed uses.
	ErrUsageLimitExceeded = errors.New("coupon usage limit exceeded")
	// ErrBelowMinimumCartValue is returned when the cart total does not meet
	// the coupon's minimum cart value requirement.
	ErrBelowMinimumCartValue = errors.New("cart total below minimum cart value")
	// ErrNotApplicable is returned when the coupon yields no discount for the cart.
	ErrNotApplicable = errors.New("coupon cannot be applied to this cart")
)

// BxGyRule is a single buy-X-get-Y rule. Rules are evaluated in ascending
// Priority order; ties keep their original order.
type BxGyRule struct {
	BuyQuantity   int      `json:"buyQuantity"`
	BuyProductIDs []string `json:"buyProductIds"`
	GetQuantity   int      `json:"getQuantity"`
	GetProductIDs []string `json:"getProductIds"`
	Priority      int      `json:"priority"`
}

// Coupon is a discount rule definition. The Type field selects the variant;
// ApplicableProductIDs is only meaningful for product_wise coupons and
// BxGyRules only for bxgy coupons.
//
// MinimumCartValue, MaxUsage, and MaxDiscountAmount use their zero values to
// mean "no constraint".
type Coupon struct {
	ID                   string
	Code                 string
	Name                 string
	Description          string
	Type                 Type
	DiscountType         DiscountType
	DiscountValue        decimal.Decimal
	Active               bool
	ValidFrom            *time.Time
	ValidUntil           *time.Time
	MinimumCartValue     decimal.Decimal
	MaxUsage             int
	CurrentUsage         int
	MaxDiscountAmount    decimal.Decimal
	RepetitionLimit      int
	ApplicableProductIDs []string
	BxGyRules            []BxGyRule
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ValidateDefinition checks the structural consistency of the coupon for its
// variant. It is called on create and update, before the coupon is persisted.
func (c *Coupon) ValidateDefinition() error {
	if c.Code == "" {
		return errors.Wrap(ErrInvalidDefinition, "code is required")
	}
	if c.DiscountValue.IsNegative() {
		return errors.Wrap(ErrInvalidDefinition, "discount value must be non-negative")
	}
	if c.RepetitionLimit < 1 {
		return errors.Wrap(ErrInvalidDefinition, "repetition limit must be at least 1")
	}

	switch c.Type {
	case TypeCartWise:
		// No variant payload.
	case TypeProductWise:
		if len(c.ApplicableProductIDs) == 0 {
			return errors.Wrap(ErrInvalidDefinition, "product_wise coupon requires applicable product ids")
		}
	case TypeBxGy:
		if len(c.BxGyRules) == 0 {
			return errors.Wrap(ErrInvalidDefinition, "bxgy coupon requires at least one rule")
		}
		for i, r := range c.BxGyRules {
			if r.BuyQuantity < 1 {
				return errors.Wrapf(ErrInvalidDefinition, "rule %d: buy quantity must be at least 1", i)
			}
			if r.GetQuantity < 1 {
				return errors.Wrapf(ErrInvalidDefinition, "rule %d: get quantity must be at least 1", i)
			}
			if len(r.BuyProductIDs) == 0 {
				return errors.Wrapf(ErrInvalidDefinition, "rule %d: buy product ids required", i)
			}
			if len(r.GetProductIDs) == 0 {
				return errors.Wrapf(ErrInvalidDefinition, "rule %d: get product ids required", i)
			}
		}
	default:
		return errors.Wrapf(ErrInvalidDefinition, "unsupported coupon type %q", c.Type)
	}

	// BxGy coupons grant whole items for free, so the discount type is ignored
	// for them; the other variants must carry a recognized discount type.
	if c.Type != TypeBxGy {
		switch c.DiscountType {
		case DiscountPercentage, DiscountFixedAmount:
		default:
			return errors.Wrapf(ErrInvalidDefinition, "unsupported discount type %q", c.DiscountType)
		}
	}
	return nil
}

// Repository provides persistence for coupon definitions.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	GetByID(ctx context.Context, id string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error

	// ListActive returns coupons that are active and whose validity window
	// contains the given instant.
	ListActive(ctx context.Context, now time.Time) ([]Coupon, error)
	// ExistsByCode reports whether a coupon with the given code exists,
	// excluding the coupon with excludeID (pass "" to exclude none).
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	// IncrementUsage bumps the usage counter after a successful application.
	IncrementUsage(ctx context.Context, id string) error
}

// CartRepository persists carts that had a coupon applied to them.
type CartRepository interface {
	Create(ctx context.Context, cart *Cart) error
}
