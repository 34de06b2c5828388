package coupon

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Applicable pairs a coupon with the discount it would yield for a cart.
type Applicable struct {
	Coupon      Coupon
	Discount    decimal.Decimal
	Description string
}

// Service orchestrates coupon management and application on top of the pure
// engine functions. It holds no state between calls beyond its dependencies.
type Service struct {
	coupons Repository
	carts   CartRepository
	now     func() time.Time
}

// NewService creates a Service with the required repositories.
func NewService(coupons Repository, carts CartRepository) *Service {
	return &Service{
		coupons: coupons,
		carts:   carts,
		now:     time.Now,
	}
}

// Create validates and persists a new coupon definition. A missing repetition
// limit defaults to 1.
func (s *Service) Create(ctx context.Context, c *Coupon) error {
	if c.RepetitionLimit == 0 {
		c.RepetitionLimit = 1
	}
	if err := c.ValidateDefinition(); err != nil {
		return err
	}

	exists, err := s.coupons.ExistsByCode(ctx, c.Code, "")
	if err != nil {
		return errors.Wrap(err, "check coupon code")
	}
	if exists {
		return ErrCodeExists
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if err := s.coupons.Create(ctx, c); err != nil {
		return errors.Wrap(err, "create coupon")
	}

	zctx.From(ctx).Info("coupon created",
		zap.String("id", c.ID),
		zap.String("code", c.Code),
		zap.String("type", string(c.Type)),
	)
	return nil
}

// Get returns the coupon with the given id.
func (s *Service) Get(ctx context.Context, id string) (*Coupon, error) {
	return s.coupons.GetByID(ctx, id)
}

// List returns all coupon definitions.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.coupons.List(ctx)
}

// Update replaces the definition of an existing coupon. Changing the code to
// one held by another coupon is rejected.
func (s *Service) Update(ctx context.Context, id string, c *Coupon) (*Coupon, error) {
	existing, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.RepetitionLimit == 0 {
		c.RepetitionLimit = 1
	}
	if err := c.ValidateDefinition(); err != nil {
		return nil, err
	}

	if c.Code != existing.Code {
		exists, err := s.coupons.ExistsByCode(ctx, c.Code, id)
		if err != nil {
			return nil, errors.Wrap(err, "check coupon code")
		}
		if exists {
			return nil, ErrCodeExists
		}
	}

	c.ID = existing.ID
	c.CurrentUsage = existing.CurrentUsage
	c.CreatedAt = existing.CreatedAt
	if err := s.coupons.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update coupon")
	}

	zctx.From(ctx).Info("coupon updated", zap.String("id", c.ID), zap.String("code", c.Code))
	return c, nil
}

// Delete removes the coupon with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.coupons.Delete(ctx, id); err != nil {
		return err
	}
	zctx.From(ctx).Info("coupon deleted", zap.String("id", id))
	return nil
}

// ApplicableCoupons evaluates every active, currently valid coupon against
// the cart and returns those yielding a positive discount, sorted by discount
// descending. The scan is best-effort: a coupon whose evaluation fails is
// logged and skipped, never aborting the scan.
func (s *Service) ApplicableCoupons(ctx context.Context, cart *Cart) ([]Applicable, error) {
	now := s.now()

	active, err := s.coupons.ListActive(ctx, now)
	if err != nil {
		return nil, errors.Wrap(err, "list active coupons")
	}

	applicable := make([]Applicable, 0, len(active))
	for i := range active {
		c := &active[i]

		discount := s.evaluate(ctx, c, cart)
		if !discount.IsPositive() {
			continue
		}

		applicable = append(applicable, Applicable{
			Coupon:      *c,
			Discount:    discount,
			Description: DiscountDescription(c),
		})
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Discount.GreaterThan(applicable[j].Discount)
	})
	return applicable, nil
}

// evaluate computes the discount for one coupon, converting any panic on
// malformed per-coupon data into a zero discount so a single bad definition
// cannot take down a bulk scan.
func (s *Service) evaluate(ctx context.Context, c *Coupon, cart *Cart) (discount decimal.Decimal) {
	defer func() {
		if rec := recover(); rec != nil {
			zctx.From(ctx).Warn("coupon evaluation failed",
				zap.String("code", c.Code),
				zap.Any("panic", rec),
			)
			discount = zero
		}
	}()
	return ComputeDiscount(c, cart.Items)
}

// Apply applies the coupon with the given id to the cart. On success the
// mutated cart is persisted, the coupon's usage counter is incremented, and
// the cart is returned. Validation failures are surfaced verbatim.
func (s *Service) Apply(ctx context.Context, couponID string, cart *Cart) (*Cart, error) {
	c, err := s.coupons.GetByID(ctx, couponID)
	if err != nil {
		return nil, err
	}

	if err := ApplyToCart(c, cart, s.now()); err != nil {
		return nil, err
	}

	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}

	if err := s.coupons.IncrementUsage(ctx, c.ID); err != nil {
		return nil, errors.Wrap(err, "increment coupon usage")
	}
	c.CurrentUsage++

	zctx.From(ctx).Info("coupon applied",
		zap.String("id", c.ID),
		zap.String("code", c.Code),
		zap.String("cart_id", cart.ID),
		zap.String("discount", cart.TotalDiscount.String()),
	)
	return cart, nil
}
