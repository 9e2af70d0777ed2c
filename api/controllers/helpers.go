// Package controllers holds the HTTP handlers behind the chi router. Handlers
// decode and validate input, call one service, and write the envelope.
package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/api/middleware"
	"github.com/oelhadidy/agrovet-backend/internal/cart"
	"github.com/oelhadidy/agrovet-backend/internal/favorites"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/pagination"
)

// cartSession builds the session container key from the request context. The
// user ID stays nil for anonymous sessions so persistence remains local-only.
func cartSession(r *http.Request) (cart.Session, error) {
	key := middleware.SessionKeyFromContext(r.Context())
	if key == "" {
		return cart.Session{}, pkgerrors.New(pkgerrors.CodeValidation, "session key required")
	}

	sess := cart.Session{Key: key}
	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return cart.Session{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
		}
		sess.UserID = &userID
	}
	return sess, nil
}

func favoritesSession(r *http.Request) (favorites.Session, error) {
	sess, err := cartSession(r)
	if err != nil {
		return favorites.Session{}, err
	}
	return favorites.Session{Key: sess.Key, UserID: sess.UserID}, nil
}

// requireUserID extracts the authenticated user, failing closed.
func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

// pageParams reads limit and cursor query parameters.
func pageParams(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
		value, err := strconv.Atoi(limitStr)
		if err != nil || value <= 0 {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer")
		}
		params.Limit = value
	}
	return params, nil
}
