package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-service/internal/domain/coupon"
)

type bxgyRuleRequest struct {
	BuyQuantity   int      `json:"buyQuantity"`
	BuyProductIDs []string `json:"buyProductIds"`
	GetQuantity   int      `json:"getQuantity"`
	GetProductIDs []string `json:"getProductIds"`
	Priority      int      `json:"priority"`
}

type couponRequest struct {
	Code                 string            `json:"code"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	Type                 string            `json:"type"`
	DiscountType         string            `json:"discountType"`
	DiscountValue        decimal.Decimal   `json:"discountValue"`
	Active               *bool             `json:"active"`
	ValidFrom            *time.Time        `json:"validFrom"`
	ValidUntil           *time.Time        `json:"validUntil"`
	MinimumCartValue     decimal.Decimal   `json:"minimumCartValue"`
	MaxUsage             int               `json:"maxUsage"`
	MaxDiscountAmount    decimal.Decimal   `json:"maxDiscountAmount"`
	RepetitionLimit      int               `json:"repetitionLimit"`
	ApplicableProductIDs []string          `json:"applicableProductIds"`
	BxGyRules            []bxgyRuleRequest `json:"bxgyRules"`
}

// toCoupon converts the payload to a domain coupon. Active defaults to true
// when omitted.
func (req *couponRequest) toCoupon() *coupon.Coupon {
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	rules := make([]coupon.BxGyRule, len(req.BxGyRules))
	for i, r := range req.BxGyRules {
		rules[i] = coupon.BxGyRule{
			BuyQuantity:   r.BuyQuantity,
			BuyProductIDs: r.BuyProductIDs,
			GetQuantity:   r.GetQuantity,
			GetProductIDs: r.GetProductIDs,
			Priority:      r.Priority,
		}
	}

	return &coupon.Coupon{
		Code:                 req.Code,
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 coupon.Type(req.Type),
		DiscountType:         coupon.DiscountType(req.DiscountType),
		DiscountValue:        req.DiscountValue,
		Active:               active,
		ValidFrom:            req.ValidFrom,
		ValidUntil:           req.ValidUntil,
		MinimumCartValue:     req.MinimumCartValue,
		MaxUsage:             req.MaxUsage,
		MaxDiscountAmount:    req.MaxDiscountAmount,
		RepetitionLimit:      req.RepetitionLimit,
		ApplicableProductIDs: req.ApplicableProductIDs,
		BxGyRules:            rules,
	}
}

type couponResponse struct {
	ID                   string            `json:"id"`
	Code                 string            `json:"code"`
	Name                 string            `json:"name,omitempty"`
	Description          string            `json:"description,omitempty"`
	Type                 string            `json:"type"`
	DiscountType         string            `json:"discountType,omitempty"`
	DiscountValue        decimal.Decimal   `json:"discountValue"`
	Active               bool              `json:"active"`
	ValidFrom            *time.Time        `json:"validFrom,omitempty"`
	ValidUntil           *time.Time        `json:"validUntil,omitempty"`
	MinimumCartValue     decimal.Decimal   `json:"minimumCartValue"`
	MaxUsage             int               `json:"maxUsage"`
	CurrentUsage         int               `json:"currentUsage"`
	MaxDiscountAmount    decimal.Decimal   `json:"maxDiscountAmount"`
	RepetitionLimit      int               `json:"repetitionLimit"`
	ApplicableProductIDs []string          `json:"applicableProductIds,omitempty"`
	BxGyRules            []bxgyRuleRequest `json:"bxgyRules,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`

	// Populated only in applicable-coupons responses.
	CalculatedDiscount  *decimal.Decimal `json:"calculatedDiscount,omitempty"`
	DiscountDescription string           `json:"discountDescription,omitempty"`
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	rules := make([]bxgyRuleRequest, len(c.BxGyRules))
	for i, r := range c.BxGyRules {
		rules[i] = bxgyRuleRequest{
			BuyQuantity:   r.BuyQuantity,
			BuyProductIDs: r.BuyProductIDs,
			GetQuantity:   r.GetQuantity,
			GetProductIDs: r.GetProductIDs,
			Priority:      r.Priority,
		}
	}
	if len(rules) == 0 {
		rules = nil
	}

	return couponResponse{
		ID:                   c.ID,
		Code:                 c.Code,
		Name:                 c.Name,
		Description:          c.Description,
		Type:                 string(c.Type),
		DiscountType:         string(c.DiscountType),
		DiscountValue:        c.DiscountValue,
		Active:               c.Active,
		ValidFrom:            c.ValidFrom,
		ValidUntil:           c.ValidUntil,
		MinimumCartValue:     c.MinimumCartValue,
		MaxUsage:             c.MaxUsage,
		CurrentUsage:         c.CurrentUsage,
		MaxDiscountAmount:    c.MaxDiscountAmount,
		RepetitionLimit:      c.RepetitionLimit,
		ApplicableProductIDs: c.ApplicableProductIDs,
		BxGyRules:            rules,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// CreateCoupon handles POST /coupons.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c := req.toCoupon()
	if err := h.svc.Create(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCouponResponse(c))
}

// ListCoupons handles GET /coupons.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i := range coupons {
		resp[i] = toCouponResponse(&coupons[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCoupon handles GET /coupons/{id}.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(c))
}

// UpdateCoupon handles PUT /coupons/{id}.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.toCoupon())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(c))
}

// DeleteCoupon handles DELETE /coupons/{id}.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
