package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-service/internal/domain/coupon"
)

type cartItemRequest struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type cartRequest struct {
	Items []cartItemRequest `json:"items"`
}

// toCart validates the request and builds a fresh cart. The engine requires
// positive quantities and prices, so they are rejected here at the boundary.
func (req *cartRequest) toCart() (*coupon.Cart, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("items required")
	}

	items := make([]coupon.CartItem, len(req.Items))
	for i, it := range req.Items {
		if it.ProductID == "" {
			return nil, fmt.Errorf("item %d: productId required", i)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("item %d: quantity must be at least 1", i)
		}
		if !it.Price.IsPositive() {
			return nil, fmt.Errorf("item %d: price must be greater than 0", i)
		}
		items[i] = coupon.CartItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
		}
	}
	return coupon.NewCart(items), nil
}

type cartItemResponse struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Discount      decimal.Decimal `json:"discount"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	FinalPrice    decimal.Decimal `json:"finalPrice"`
}

type cartResponse struct {
	ID            string             `json:"id,omitempty"`
	Items         []cartItemResponse `json:"items"`
	TotalPrice    decimal.Decimal    `json:"totalPrice"`
	TotalDiscount decimal.Decimal    `json:"totalDiscount"`
	FinalPrice    decimal.Decimal    `json:"finalPrice"`
	AppliedCoupon *couponResponse    `json:"appliedCoupon,omitempty"`
}

func toCartResponse(cart *coupon.Cart) cartResponse {
	items := make([]cartItemResponse, len(cart.Items))
	for i, it := range cart.Items {
		items[i] = cartItemResponse{
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			Price:         it.UnitPrice,
			Discount:      it.Discount,
			TotalDiscount: it.TotalDiscount,
			FinalPrice:    it.FinalPrice,
		}
	}

	resp := cartResponse{
		ID:            cart.ID,
		Items:         items,
		TotalPrice:    cart.TotalPrice,
		TotalDiscount: cart.TotalDiscount,
		FinalPrice:    cart.FinalPrice,
	}
	if cart.AppliedCoupon != nil {
		cr := toCouponResponse(cart.AppliedCoupon)
		resp.AppliedCoupon = &cr
	}
	return resp
}

type applicableCouponsResponse struct {
	ApplicableCoupons []couponResponse `json:"applicableCoupons"`
	Count             int              `json:"count"`
}

// ApplicableCoupons handles POST /applicable-coupons. It evaluates the cart
// against every active coupon and returns the ones yielding a discount,
// sorted by discount descending.
func (h *Handler) ApplicableCoupons(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cart, err := req.toCart()
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	applicable, err := h.svc.ApplicableCoupons(r.Context(), cart)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := applicableCouponsResponse{
		ApplicableCoupons: make([]couponResponse, len(applicable)),
		Count:             len(applicable),
	}
	for i := range applicable {
		cr := toCouponResponse(&applicable[i].Coupon)
		discount := applicable[i].Discount
		cr.CalculatedDiscount = &discount
		cr.DiscountDescription = applicable[i].Description
		resp.ApplicableCoupons[i] = cr
	}
	writeJSON(w, http.StatusOK, resp)
}

// ApplyCoupon handles POST /apply-coupon/{id}. On success the response is the
// priced cart with per-item and cart-level discounts filled in.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cart, err := req.toCart()
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	applied, err := h.svc.Apply(r.Context(), chi.URLParam(r, "id"), cart)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(applied))
}
