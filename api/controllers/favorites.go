package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/api/responses"
	"github.com/oelhadidy/agrovet-backend/api/validators"
	"github.com/oelhadidy/agrovet-backend/internal/cart"
	"github.com/oelhadidy/agrovet-backend/internal/favorites"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// FavoritesList returns the session's favorite products in insertion order.
func FavoritesList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := favoritesSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.List(sess))
	}
}

type favoriteToggleRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
}

// FavoriteToggle flips the favorite mark for one product.
func FavoriteToggle(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := favoritesSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input favoriteToggleRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDField(input.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.Toggle(r.Context(), sess, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// FavoritesClear empties the favorites list.
func FavoritesClear(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := favoritesSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.Clear(r.Context(), sess))
	}
}

// StateSync replaces local cart and favorites with the stored remote mirror.
// Called right after login; remote wins.
func StateSync(cartSvc cart.Service, favSvc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := cartSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sess.UserID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to sync state"))
			return
		}

		cartDTO, err := cartSvc.SeedFromRemote(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		favEntries, err := favSvc.SeedFromRemote(r.Context(), favorites.Session{Key: sess.Key, UserID: sess.UserID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"cart":      cartDTO,
			"favorites": favEntries,
		})
	}
}

func parseUUIDField(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return id, nil
}
