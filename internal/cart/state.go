// Package cart implements the session cart: an in-memory, synchronously
// mutated list of product snapshots mirrored to durable storage in the
// background. Mutations never fail and never wait on persistence.
package cart

import (
	"sync"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
)

// State holds one session's cart lines. All methods are safe for concurrent
// use; mutations operate on the list synchronously and return the resulting
// snapshot so callers can hand it to the sync adapter.
type State struct {
	mu    sync.Mutex
	lines []models.CartLine
}

// NewState builds an empty cart.
func NewState() *State {
	return &State{lines: []models.CartLine{}}
}

// Lines returns a copy of the current cart.
func (s *State) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Replace overwrites the cart wholesale. Used when a login seeds the session
// from the remote mirror: remote wins over local.
func (s *State) Replace(lines []models.CartLine) []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append([]models.CartLine(nil), lines...)
	return s.snapshot()
}

// Add appends the product with quantity 1, or increments its line when the
// quantity is still under the stock snapshot. At the cap the quantity is left
// alone and MaxReached is set so the UI can say why nothing changed.
func (s *State) Add(product models.Product) []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID != product.ID {
			continue
		}
		if s.lines[i].Quantity < s.lines[i].StockSnapshot {
			s.lines[i].Quantity++
		} else {
			s.lines[i].MaxReached = true
		}
		return s.snapshot()
	}

	s.lines = append(s.lines, models.CartLine{
		ProductID:     product.ID,
		Title:         product.Title,
		Quantity:      1,
		PriceSnapshot: product.Price,
		StockSnapshot: product.Stock,
		ImageURL:      product.ImageURL,
	})
	return s.snapshot()
}

// Decrease decrements the line quantity, flooring at 1. Removal is a separate
// explicit action. Dropping below the stock snapshot clears MaxReached.
func (s *State) Decrease(productID uuid.UUID) []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID != productID {
			continue
		}
		if s.lines[i].Quantity > 1 {
			s.lines[i].Quantity--
		}
		if s.lines[i].Quantity < s.lines[i].StockSnapshot {
			s.lines[i].MaxReached = false
		}
		break
	}
	return s.snapshot()
}

// Remove deletes the matching line. Absent IDs are a no-op.
func (s *State) Remove(productID uuid.UUID) []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			break
		}
	}
	return s.snapshot()
}

// Clear empties the cart.
func (s *State) Clear() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = []models.CartLine{}
	return s.snapshot()
}

// Reconcile refreshes each line's stock snapshot from the catalog rows.
// Quantities are never mutated here: a quantity above the new stock stays put
// and is caught by checkout validation. Products missing from the snapshot
// keep their previous figures.
func (s *State) Reconcile(stock map[uuid.UUID]int) []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		current, ok := stock[s.lines[i].ProductID]
		if !ok {
			continue
		}
		s.lines[i].StockSnapshot = current
		s.lines[i].MaxReached = s.lines[i].Quantity >= current
	}
	return s.snapshot()
}

// Problem describes one line blocking checkout.
type Problem struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Quantity  int       `json:"quantity"`
	Stock     int       `json:"stock"`
	Message   string    `json:"message"`
}

// Validate returns the lines whose quantity exceeds the stock snapshot.
// Checkout is blocked while any remain.
func (s *State) Validate() []Problem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var problems []Problem
	for _, line := range s.lines {
		if line.Quantity > line.StockSnapshot {
			problems = append(problems, Problem{
				ProductID: line.ProductID,
				Title:     line.Title,
				Quantity:  line.Quantity,
				Stock:     line.StockSnapshot,
				Message:   "requested quantity exceeds available stock",
			})
		}
	}
	return problems
}

func (s *State) snapshot() []models.CartLine {
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}
