package controllers

import (
	"net/http"

	"github.com/oelhadidy/agrovet-backend/api/responses"
	"github.com/oelhadidy/agrovet-backend/api/validators"
	"github.com/oelhadidy/agrovet-backend/internal/catalog"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

const defaultLowStockThreshold = 5

// AdminLowStockScan runs the low-stock sweep on demand and reports the counts.
func AdminLowStockScan(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold, err := validators.ParseQueryInt(r, "threshold", defaultLowStockThreshold, 0, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.LowStockScan(r.Context(), threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// AdminAutoRefillScan tops up auto-refill products and reports the counts.
func AdminAutoRefillScan(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.AutoRefillScan(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

type setStockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// AdminSetStock overrides a product's stock level.
func AdminSetStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input setStockRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetStock(r.Context(), productID, input.Stock); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_id": productID, "stock": input.Stock})
	}
}
