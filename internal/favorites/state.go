// Package favorites implements the session favorites list: set semantics per
// product over an ordered container of snapshots, mirrored in the background
// the same way the cart is.
package favorites

import (
	"sync"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
)

// State holds one session's favorites. Safe for concurrent use.
type State struct {
	mu      sync.Mutex
	entries []models.FavoriteEntry
}

// NewState builds an empty favorites list.
func NewState() *State {
	return &State{entries: []models.FavoriteEntry{}}
}

// Entries returns a copy of the current list.
func (s *State) Entries() []models.FavoriteEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Replace overwrites the list wholesale when login seeds from the mirror.
func (s *State) Replace(entries []models.FavoriteEntry) []models.FavoriteEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]models.FavoriteEntry(nil), entries...)
	return s.snapshot()
}

// Toggle removes the product when present, otherwise appends its snapshot at
// the end. Applying it twice restores the membership it started with.
func (s *State) Toggle(product models.Product) []models.FavoriteEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ProductID == product.ID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return s.snapshot()
		}
	}

	s.entries = append(s.entries, models.FavoriteEntry{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		ImageURL:  product.ImageURL,
	})
	return s.snapshot()
}

// Contains reports membership for the product.
func (s *State) Contains(productID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.ProductID == productID {
			return true
		}
	}
	return false
}

// Clear empties the list.
func (s *State) Clear() []models.FavoriteEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []models.FavoriteEntry{}
	return s.snapshot()
}

func (s *State) snapshot() []models.FavoriteEntry {
	out := make([]models.FavoriteEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
