package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coupon-service/internal/domain/coupon"
)

const couponColumns = `id, code, name, description, type, discount_type, discount_value,
	active, valid_from, valid_until, minimum_cart_value, max_usage, current_usage,
	max_discount_amount, repetition_limit, applicable_product_ids, bxgy_rules,
	created_at, updated_at`

const (
	insertCouponSQL = `INSERT INTO coupons (id, code, name, description, type, discount_type,
		discount_value, active, valid_from, valid_until, minimum_cart_value, max_usage,
		current_usage, max_discount_amount, repetition_limit, applicable_product_ids, bxgy_rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	getCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at`

	listActiveCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE active = TRUE
		  AND (valid_from IS NULL OR valid_from <= $1)
		  AND (valid_until IS NULL OR valid_until >= $1)
		ORDER BY created_at`

	updateCouponSQL = `UPDATE coupons SET code = $2, name = $3, description = $4, type = $5,
		discount_type = $6, discount_value = $7, active = $8, valid_from = $9,
		valid_until = $10, minimum_cart_value = $11, max_usage = $12,
		max_discount_amount = $13, repetition_limit = $14, applicable_product_ids = $15,
		bxgy_rules = $16, updated_at = now()
		WHERE id = $1`

	upsertCouponSQL = `INSERT INTO coupons (id, code, name, description, type, discount_type,
		discount_value, active, valid_from, valid_until, minimum_cart_value, max_usage,
		current_usage, max_discount_amount, repetition_limit, applicable_product_ids, bxgy_rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT ((UPPER(code))) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, type = EXCLUDED.type,
			discount_type = EXCLUDED.discount_type, discount_value = EXCLUDED.discount_value,
			active = EXCLUDED.active, valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until, minimum_cart_value = EXCLUDED.minimum_cart_value,
			max_usage = EXCLUDED.max_usage, max_discount_amount = EXCLUDED.max_discount_amount,
			repetition_limit = EXCLUDED.repetition_limit,
			applicable_product_ids = EXCLUDED.applicable_product_ids,
			bxgy_rules = EXCLUDED.bxgy_rules, updated_at = now()`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	existsCouponCodeSQL = `SELECT EXISTS (
		SELECT 1 FROM coupons WHERE UPPER(code) = UPPER($1) AND id::text <> $2)`

	incrementCouponUsageSQL = `UPDATE coupons SET current_usage = current_usage + 1,
		updated_at = now() WHERE id = $1`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create persists a new coupon definition. BxGy rules are serialized to JSON
// for storage in the JSONB column.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	rules, err := json.Marshal(c.BxGyRules)
	if err != nil {
		return fmt.Errorf("marshaling bxgy rules: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertCouponSQL,
		c.ID, c.Code, c.Name, c.Description, string(c.Type), string(c.DiscountType),
		c.DiscountValue, c.Active, c.ValidFrom, c.ValidUntil, c.MinimumCartValue,
		c.MaxUsage, c.CurrentUsage, c.MaxDiscountAmount, c.RepetitionLimit,
		c.ApplicableProductIDs, rules,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Upsert inserts a coupon or, when the code already exists, replaces its
// definition while keeping the stored id and usage counter. Used by the seed
// and ingest tools.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	rules, err := json.Marshal(c.BxGyRules)
	if err != nil {
		return fmt.Errorf("marshaling bxgy rules: %w", err)
	}

	_, err = r.pool.Exec(ctx, upsertCouponSQL,
		c.ID, c.Code, c.Name, c.Description, string(c.Type), string(c.DiscountType),
		c.DiscountValue, c.Active, c.ValidFrom, c.ValidUntil, c.MinimumCartValue,
		c.MaxUsage, c.CurrentUsage, c.MaxDiscountAmount, c.RepetitionLimit,
		c.ApplicableProductIDs, rules,
	)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}

// GetByID fetches a coupon by id. Returns coupon.ErrNotFound when absent.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %q: %w", id, err)
	}
	return &c, nil
}

// List returns all coupons ordered by creation time.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}

	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return coupons, nil
}

// ListActive returns coupons that are active and valid at the given instant.
func (r *CouponRepository) ListActive(ctx context.Context, now time.Time) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listActiveCouponsSQL, now)
	if err != nil {
		return nil, fmt.Errorf("listing active coupons: %w", err)
	}

	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing active coupons: %w", err)
	}
	return coupons, nil
}

// Update replaces a stored coupon definition. Returns coupon.ErrNotFound when
// no row matches.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	rules, err := json.Marshal(c.BxGyRules)
	if err != nil {
		return fmt.Errorf("marshaling bxgy rules: %w", err)
	}

	tag, err := r.pool.Exec(ctx, updateCouponSQL,
		c.ID, c.Code, c.Name, c.Description, string(c.Type), string(c.DiscountType),
		c.DiscountValue, c.Active, c.ValidFrom, c.ValidUntil, c.MinimumCartValue,
		c.MaxUsage, c.MaxDiscountAmount, c.RepetitionLimit,
		c.ApplicableProductIDs, rules,
	)
	if err != nil {
		return fmt.Errorf("updating coupon %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Delete removes a coupon. Returns coupon.ErrNotFound when no row matches.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// ExistsByCode reports whether a coupon with the given code exists
// (case-insensitive), ignoring the coupon with excludeID.
func (r *CouponRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, existsCouponCodeSQL, code, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking coupon code %q: %w", code, err)
	}
	return exists, nil
}

// IncrementUsage atomically bumps the usage counter for the given coupon id.
func (r *CouponRepository) IncrementUsage(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, incrementCouponUsageSQL, id)
	if err != nil {
		return fmt.Errorf("incrementing usage for coupon %q: %w", id, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		couponType   string
		discountType string
		rulesJSON    []byte
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &c.Description, &couponType, &discountType,
		&c.DiscountValue, &c.Active, &c.ValidFrom, &c.ValidUntil, &c.MinimumCartValue,
		&c.MaxUsage, &c.CurrentUsage, &c.MaxDiscountAmount, &c.RepetitionLimit,
		&c.ApplicableProductIDs, &rulesJSON, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return coupon.Coupon{}, err
	}

	c.Type = coupon.Type(couponType)
	c.DiscountType = coupon.DiscountType(discountType)
	if len(rulesJSON) > 0 {
		if err := json.Unmarshal(rulesJSON, &c.BxGyRules); err != nil {
			return coupon.Coupon{}, fmt.Errorf("unmarshaling bxgy rules: %w", err)
		}
	}
	return c, nil
}
