package favorites

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
)

// Session identifies whose favorites are being mutated.
type Session struct {
	Key    string
	UserID *uuid.UUID
}

// Persister mirrors the full favorites list in the background.
type Persister interface {
	PersistFavorites(userID *uuid.UUID, entries []models.FavoriteEntry)
}

// Loader reads the stored mirror when a login seeds the session.
type Loader interface {
	Load(ctx context.Context, userID uuid.UUID) (*models.UserState, error)
}

// Catalog is the product lookup surface favorites need.
type Catalog interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

// Manager tracks one State per session key.
type Manager struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewManager builds an empty session registry.
func NewManager() *Manager {
	return &Manager{states: map[string]*State{}}
}

// Get returns the session's favorites, creating an empty list on first access.
func (m *Manager) Get(sessionKey string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[sessionKey]
	if !ok {
		state = NewState()
		m.states[sessionKey] = state
	}
	return state
}

// Drop forgets a session's favorites.
func (m *Manager) Drop(sessionKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sessionKey)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Manager   *Manager
	Persister Persister
	Loader    Loader
	Catalog   Catalog
}

// Service exposes the favorites operations.
type Service interface {
	List(sess Session) []models.FavoriteEntry
	Toggle(ctx context.Context, sess Session, productID uuid.UUID) ([]models.FavoriteEntry, error)
	Clear(ctx context.Context, sess Session) []models.FavoriteEntry
	SeedFromRemote(ctx context.Context, sess Session) ([]models.FavoriteEntry, error)
	DropSession(sess Session)
}

type service struct {
	manager   *Manager
	persister Persister
	loader    Loader
	catalog   Catalog
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Manager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites manager is required")
	}
	if params.Persister == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites persister is required")
	}
	if params.Loader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state loader is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog is required")
	}
	return &service{
		manager:   params.Manager,
		persister: params.Persister,
		loader:    params.Loader,
		catalog:   params.Catalog,
	}, nil
}

// List returns the session's current favorites.
func (s *service) List(sess Session) []models.FavoriteEntry {
	return s.manager.Get(sess.Key).Entries()
}

// Toggle flips the product's membership and mirrors the result.
func (s *service) Toggle(ctx context.Context, sess Session, productID uuid.UUID) ([]models.FavoriteEntry, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	entries := s.manager.Get(sess.Key).Toggle(*product)
	s.persister.PersistFavorites(sess.UserID, entries)
	return entries, nil
}

// Clear empties the list and mirrors the empty list.
func (s *service) Clear(ctx context.Context, sess Session) []models.FavoriteEntry {
	entries := s.manager.Get(sess.Key).Clear()
	s.persister.PersistFavorites(sess.UserID, entries)
	return entries
}

// SeedFromRemote replaces the session list with the stored mirror.
func (s *service) SeedFromRemote(ctx context.Context, sess Session) ([]models.FavoriteEntry, error) {
	if sess.UserID == nil || *sess.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required to seed from remote")
	}

	stored, err := s.loader.Load(ctx, *sess.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stored favorites")
	}

	return s.manager.Get(sess.Key).Replace(stored.Favorites), nil
}

// DropSession forgets the in-memory list.
func (s *service) DropSession(sess Session) {
	s.manager.Drop(sess.Key)
}
