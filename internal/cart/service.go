package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// Session identifies whose cart is being mutated. Key is stable per browser
// session; UserID is nil until login, which keeps persistence local-only.
type Session struct {
	Key    string
	UserID *uuid.UUID
}

// Persister mirrors the full cart in the background.
type Persister interface {
	PersistCart(userID *uuid.UUID, lines []models.CartLine)
}

// Loader reads the stored mirror when a login seeds the session.
type Loader interface {
	Load(ctx context.Context, userID uuid.UUID) (*models.UserState, error)
}

// Catalog is the product lookup surface the cart needs.
type Catalog interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	StockSnapshot(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// DTO is the cart view returned to controllers.
type DTO struct {
	Items    []models.CartLine `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Manager   *Manager
	Persister Persister
	Loader    Loader
	Catalog   Catalog
	Logger    *logger.Logger
}

// Service exposes the cart operations.
type Service interface {
	View(ctx context.Context, sess Session) (DTO, error)
	Add(ctx context.Context, sess Session, productID uuid.UUID) (DTO, error)
	Decrease(ctx context.Context, sess Session, productID uuid.UUID) (DTO, error)
	Remove(ctx context.Context, sess Session, productID uuid.UUID) (DTO, error)
	Clear(ctx context.Context, sess Session) (DTO, error)
	ValidateForCheckout(ctx context.Context, sess Session) ([]models.CartLine, error)
	SeedFromRemote(ctx context.Context, sess Session) (DTO, error)
	DropSession(sess Session)
}

type service struct {
	manager   *Manager
	persister Persister
	loader    Loader
	catalog   Catalog
	logg      *logger.Logger
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Manager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart manager is required")
	}
	if params.Persister == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart persister is required")
	}
	if params.Loader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state loader is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		manager:   params.Manager,
		persister: params.Persister,
		loader:    params.Loader,
		catalog:   params.Catalog,
		logg:      params.Logger,
	}, nil
}

// View reconciles stock snapshots against the catalog and returns the cart.
// A failed catalog read logs and serves the previous snapshots: entering the
// cart must never error out on a flaky lookup.
func (s *service) View(ctx context.Context, sess Session) (DTO, error) {
	state := s.manager.Get(sess.Key)
	lines := state.Lines()
	if len(lines) == 0 {
		return toDTO(lines), nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	stock, err := s.catalog.StockSnapshot(ctx, ids)
	if err != nil {
		s.logg.Error(ctx, "stock reconciliation failed, serving stale snapshots", err)
		return toDTO(lines), nil
	}

	return toDTO(state.Reconcile(stock)), nil
}

// Add captures a product snapshot and adds it to the cart.
func (s *service) Add(ctx context.Context, sess Session, productID uuid.UUID) (DTO, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return DTO{}, err
	}
	if !product.IsAvailable {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	lines := s.manager.Get(sess.Key).Add(*product)
	s.persister.PersistCart(sess.UserID, lines)
	return toDTO(lines), nil
}

// Decrease lowers a line's quantity, flooring at 1.
func (s *service) Decrease(ctx context.Context, sess Session, productID uuid.UUID) (DTO, error) {
	lines := s.manager.Get(sess.Key).Decrease(productID)
	s.persister.PersistCart(sess.UserID, lines)
	return toDTO(lines), nil
}

// Remove deletes a line entirely.
func (s *service) Remove(ctx context.Context, sess Session, productID uuid.UUID) (DTO, error) {
	lines := s.manager.Get(sess.Key).Remove(productID)
	s.persister.PersistCart(sess.UserID, lines)
	return toDTO(lines), nil
}

// Clear empties the cart and mirrors the empty list.
func (s *service) Clear(ctx context.Context, sess Session) (DTO, error) {
	lines := s.manager.Get(sess.Key).Clear()
	s.persister.PersistCart(sess.UserID, lines)
	return toDTO(lines), nil
}

// ValidateForCheckout re-reconciles against live stock and blocks when any
// quantity exceeds it, reporting the offending lines.
func (s *service) ValidateForCheckout(ctx context.Context, sess Session) ([]models.CartLine, error) {
	state := s.manager.Get(sess.Key)
	lines := state.Lines()
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	stock, err := s.catalog.StockSnapshot(ctx, ids)
	if err == nil {
		lines = state.Reconcile(stock)
	} else {
		s.logg.Error(ctx, "checkout stock reconciliation failed, validating against stale snapshots", err)
	}

	if problems := state.Validate(); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "some items exceed available stock").
			WithDetails(map[string]any{"items": problems})
	}
	return lines, nil
}

// SeedFromRemote replaces the session cart with the stored mirror. Called
// after login; the remote copy wins over whatever the anonymous session held.
func (s *service) SeedFromRemote(ctx context.Context, sess Session) (DTO, error) {
	if sess.UserID == nil || *sess.UserID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required to seed from remote")
	}

	stored, err := s.loader.Load(ctx, *sess.UserID)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stored cart")
	}

	lines := s.manager.Get(sess.Key).Replace(stored.Cart)
	return toDTO(lines), nil
}

// DropSession forgets the in-memory cart. Logout keeps the mirror intact.
func (s *service) DropSession(sess Session) {
	s.manager.Drop(sess.Key)
}

func toDTO(lines []models.CartLine) DTO {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.PriceSnapshot.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return DTO{Items: lines, Subtotal: subtotal}
}
