package controllers

import (
	"net/http"

	"github.com/oelhadidy/agrovet-backend/api/responses"
	"github.com/oelhadidy/agrovet-backend/api/validators"
	"github.com/oelhadidy/agrovet-backend/internal/cart"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// CartView reconciles against live stock and returns the cart.
func CartView(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.View(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type cartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
}

func cartMutation(logg *logger.Logger, mutate func(r *http.Request, sess cart.Session, req cartItemRequest) (cart.DTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input cartItemRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := mutate(r, sess, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartAdd adds one unit of a product, capping at the stock snapshot.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(logg, func(r *http.Request, sess cart.Session, req cartItemRequest) (cart.DTO, error) {
		productID, err := parseUUIDField(req.ProductID)
		if err != nil {
			return cart.DTO{}, err
		}
		return svc.Add(r.Context(), sess, productID)
	})
}

// CartDecrease lowers a line quantity, flooring at one unit.
func CartDecrease(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(logg, func(r *http.Request, sess cart.Session, req cartItemRequest) (cart.DTO, error) {
		productID, err := parseUUIDField(req.ProductID)
		if err != nil {
			return cart.DTO{}, err
		}
		return svc.Decrease(r.Context(), sess, productID)
	})
}

// CartRemove drops a line entirely.
func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(logg, func(r *http.Request, sess cart.Session, req cartItemRequest) (cart.DTO, error) {
		productID, err := parseUUIDField(req.ProductID)
		if err != nil {
			return cart.DTO{}, err
		}
		return svc.Remove(r.Context(), sess, productID)
	})
}

// CartClear empties the cart.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Clear(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
