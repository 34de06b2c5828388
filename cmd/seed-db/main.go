package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-service/internal/domain/coupon"
	"github.com/xenking/coupon-service/internal/repository"
)

type bxgyRuleJSON struct {
	BuyQuantity   int      `json:"buyQuantity"`
	BuyProductIDs []string `json:"buyProductIds"`
	GetQuantity   int      `json:"getQuantity"`
	GetProductIDs []string `json:"getProductIds"`
	Priority      int      `json:"priority"`
}

type couponJSON struct {
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	Type                 string          `json:"type"`
	DiscountType         string          `json:"discountType"`
	DiscountValue        decimal.Decimal `json:"discountValue"`
	ValidFrom            *time.Time      `json:"validFrom"`
	ValidUntil           *time.Time      `json:"validUntil"`
	MinimumCartValue     decimal.Decimal `json:"minimumCartValue"`
	MaxUsage             int             `json:"maxUsage"`
	MaxDiscountAmount    decimal.Decimal `json:"maxDiscountAmount"`
	RepetitionLimit      int             `json:"repetitionLimit"`
	ApplicableProductIDs []string        `json:"applicableProductIds"`
	BxGyRules            []bxgyRuleJSON  `json:"bxgyRules"`
}

func main() {
	var (
		databaseURL string
		couponsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&couponsFile, "coupons-file", "db/seed/coupons.json", "path to coupons JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, couponsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, couponsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCoupons(ctx, repository.NewCouponRepository(pool), couponsFile); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository, couponsFile string) error {
	slog.Info("reading coupons file", slog.String("path", couponsFile))

	data, err := os.ReadFile(couponsFile)
	if err != nil {
		return errors.Wrap(err, "read coupons file")
	}

	var defs []couponJSON
	if err := json.Unmarshal(data, &defs); err != nil {
		return errors.Wrap(err, "parse coupons JSON")
	}

	slog.Info("upserting coupons", slog.Int("count", len(defs)))

	for _, d := range defs {
		c := toCoupon(d)
		if err := c.ValidateDefinition(); err != nil {
			return errors.Wrapf(err, "invalid coupon %s", d.Code)
		}

		if err := repo.Upsert(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", d.Code)
		}

		slog.Info("upserted coupon",
			slog.String("code", c.Code),
			slog.String("type", string(c.Type)),
		)
	}

	return nil
}

func toCoupon(d couponJSON) *coupon.Coupon {
	rules := make([]coupon.BxGyRule, len(d.BxGyRules))
	for i, r := range d.BxGyRules {
		rules[i] = coupon.BxGyRule{
			BuyQuantity:   r.BuyQuantity,
			BuyProductIDs: r.BuyProductIDs,
			GetQuantity:   r.GetQuantity,
			GetProductIDs: r.GetProductIDs,
			Priority:      r.Priority,
		}
	}

	repetitionLimit := d.RepetitionLimit
	if repetitionLimit == 0 {
		repetitionLimit = 1
	}

	return &coupon.Coupon{
		ID:                   uuid.New().String(),
		Code:                 d.Code,
		Name:                 d.Name,
		Description:          d.Description,
		Type:                 coupon.Type(d.Type),
		DiscountType:         coupon.DiscountType(d.DiscountType),
		DiscountValue:        d.DiscountValue,
		Active:               true,
		ValidFrom:            d.ValidFrom,
		ValidUntil:           d.ValidUntil,
		MinimumCartValue:     d.MinimumCartValue,
		MaxUsage:             d.MaxUsage,
		MaxDiscountAmount:    d.MaxDiscountAmount,
		RepetitionLimit:      repetitionLimit,
		ApplicableProductIDs: d.ApplicableProductIDs,
		BxGyRules:            rules,
	}
}
