// Package handler exposes the coupon service over HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/coupon-service/internal/domain/coupon"
)

// Handler implements the HTTP API, delegating business logic to the coupon
// service.
type Handler struct {
	svc *coupon.Service
}

// NewHandler constructs a Handler around the given service.
func NewHandler(svc *coupon.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/coupons", func(r chi.Router) {
		r.Post("/", h.CreateCoupon)
		r.Get("/", h.ListCoupons)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetCoupon)
			r.Put("/", h.UpdateCoupon)
			r.Delete("/", h.DeleteCoupon)
		})
	})
	r.Post("/applicable-coupons", h.ApplicableCoupons)
	r.Post("/apply-coupon/{id}", h.ApplyCoupon)

	return r
}

// errorResponse is the JSON body for all error responses.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

// writeError maps domain errors onto HTTP status codes. Business-rule
// rejections surface as 422 with the sentinel message; unexpected errors are
// logged and masked behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, coupon.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, coupon.ErrCodeExists):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, coupon.ErrInvalidDefinition):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrNotYetValid),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitExceeded),
		errors.Is(err, coupon.ErrBelowMinimumCartValue),
		errors.Is(err, coupon.ErrNotApplicable):
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
