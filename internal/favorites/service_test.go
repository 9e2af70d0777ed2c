package favorites

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
)

type stubPersister struct {
	mu    sync.Mutex
	calls [][]models.FavoriteEntry
}

func (p *stubPersister) PersistFavorites(userID *uuid.UUID, entries []models.FavoriteEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, entries)
}

type stubLoader struct {
	state *models.UserState
}

func (l *stubLoader) Load(ctx context.Context, userID uuid.UUID) (*models.UserState, error) {
	if l.state != nil {
		return l.state, nil
	}
	return &models.UserState{UserID: userID, Favorites: []models.FavoriteEntry{}}, nil
}

type stubCatalog struct {
	products map[uuid.UUID]models.Product
}

func (c *stubCatalog) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, ok := c.products[productID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &product, nil
}

func newTestService(t *testing.T, products ...models.Product) (Service, *stubPersister, *stubLoader) {
	t.Helper()
	catalog := &stubCatalog{products: map[uuid.UUID]models.Product{}}
	for _, p := range products {
		catalog.products[p.ID] = p
	}
	persister := &stubPersister{}
	loader := &stubLoader{}
	svc, err := NewService(ServiceParams{
		Manager:   NewManager(),
		Persister: persister,
		Loader:    loader,
		Catalog:   catalog,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc, persister, loader
}

func TestToggleTwiceRestoresAndPersistsEachStep(t *testing.T) {
	t.Parallel()

	product := testProduct("Fly spray")
	svc, persister, _ := newTestService(t, product)
	userID := uuid.New()
	sess := Session{Key: "s1", UserID: &userID}

	entries, err := svc.Toggle(context.Background(), sess, product.ID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected add: entries=%v err=%v", entries, err)
	}
	entries, err = svc.Toggle(context.Background(), sess, product.ID)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected remove: entries=%v err=%v", entries, err)
	}

	if len(persister.calls) != 2 {
		t.Fatalf("expected a persist per toggle, got %d", len(persister.calls))
	}
	if len(persister.calls[1]) != 0 {
		t.Fatal("expected second persist to carry the empty list")
	}
}

func TestToggleUnknownProductFails(t *testing.T) {
	t.Parallel()

	svc, persister, _ := newTestService(t)
	if _, err := svc.Toggle(context.Background(), Session{Key: "s1"}, uuid.New()); err == nil {
		t.Fatal("expected not-found error")
	}
	if len(persister.calls) != 0 {
		t.Fatal("failed toggle must not persist")
	}
}

func TestSeedFromRemoteRoundTrip(t *testing.T) {
	t.Parallel()

	product := testProduct("Mineral block")
	svc, _, loader := newTestService(t, product)
	userID := uuid.New()
	sess := Session{Key: "s1", UserID: &userID}

	saved, err := svc.Toggle(context.Background(), sess, product.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loader.state = &models.UserState{UserID: userID, Favorites: saved}

	fresh := Session{Key: "s2", UserID: &userID}
	entries, err := svc.SeedFromRemote(context.Background(), fresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].ProductID != product.ID {
		t.Fatalf("round trip lost data: %+v", entries)
	}
}
