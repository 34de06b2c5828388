package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-service/internal/domain/coupon"
)

const insertCartSQL = `INSERT INTO carts (id, items, total_price, total_discount,
	final_price, applied_coupon_id) VALUES ($1, $2, $3, $4, $5, $6)`

var _ coupon.CartRepository = (*CartRepository)(nil)

// CartRepository implements coupon.CartRepository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// cartItemRecord is the JSON shape of a cart line in the JSONB items column.
type cartItemRecord struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Discount      decimal.Decimal `json:"discount"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	FinalPrice    decimal.Decimal `json:"finalPrice"`
}

// Create persists a priced cart. Line items are serialized to JSON for
// storage in the JSONB column.
func (r *CartRepository) Create(ctx context.Context, cart *coupon.Cart) error {
	records := make([]cartItemRecord, len(cart.Items))
	for i, it := range cart.Items {
		records[i] = cartItemRecord{
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			Discount:      it.Discount,
			TotalDiscount: it.TotalDiscount,
			FinalPrice:    it.FinalPrice,
		}
	}
	itemsJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}

	var appliedCouponID *string
	if cart.AppliedCoupon != nil {
		appliedCouponID = &cart.AppliedCoupon.ID
	}

	_, err = r.pool.Exec(ctx, insertCartSQL,
		cart.ID, itemsJSON, cart.TotalPrice, cart.TotalDiscount, cart.FinalPrice,
		appliedCouponID,
	)
	if err != nil {
		return fmt.Errorf("creating cart %q: %w", cart.ID, err)
	}
	return nil
}
