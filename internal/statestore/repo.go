// Package statestore persists the durable mirror of a user's cart and
// favorites. The session container is the authority; these rows are opaque
// save/load targets written on a best-effort basis after each mutation.
package statestore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
)

// Repository encapsulates user state persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a state repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Load fetches the stored state for a user. A missing row yields an empty
// state, not an error: new accounts have nothing mirrored yet.
func (r *Repository) Load(ctx context.Context, userID uuid.UUID) (*models.UserState, error) {
	if userID == uuid.Nil {
		return nil, gorm.ErrInvalidValue
	}

	var state models.UserState
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&state).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.UserState{
				UserID:    userID,
				Cart:      []models.CartLine{},
				Favorites: []models.FavoriteEntry{},
			}, nil
		}
		return nil, err
	}
	return &state, nil
}

// SaveCart overwrites the full cart array for a user. Writes are idempotent
// and last-write-wins; callers retry but never order them.
func (r *Repository) SaveCart(ctx context.Context, userID uuid.UUID, lines []models.CartLine) error {
	if userID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if lines == nil {
		lines = []models.CartLine{}
	}

	state := models.UserState{UserID: userID, Cart: lines}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"cart", "updated_at"}),
		}).
		Create(&state).
		Error
}

// SaveFavorites overwrites the full favorites array for a user.
func (r *Repository) SaveFavorites(ctx context.Context, userID uuid.UUID, entries []models.FavoriteEntry) error {
	if userID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if entries == nil {
		entries = []models.FavoriteEntry{}
	}

	state := models.UserState{UserID: userID, Favorites: entries}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"favorites", "updated_at"}),
		}).
		Create(&state).
		Error
}
