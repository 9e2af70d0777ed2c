package controllers

import (
	"net/http"

	"github.com/oelhadidy/agrovet-backend/api/responses"
	"github.com/oelhadidy/agrovet-backend/api/validators"
	"github.com/oelhadidy/agrovet-backend/internal/checkout"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// CheckoutBegin validates the cart, creates a provider session, and stages the
// draft the payment callback later commits.
func CheckoutBegin(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input checkout.BeginInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Begin(r.Context(), sess, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentCallback resolves a provider redirect. Providers retry and users
// refresh, so this endpoint is deliberately safe to hit more than once.
func PaymentCallback(svc checkout.Service, provider enums.PaymentProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.HandleCallback(r.Context(), provider, r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
