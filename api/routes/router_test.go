package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oelhadidy/agrovet-backend/internal/cart"
	"github.com/oelhadidy/agrovet-backend/pkg/auth"
	"github.com/oelhadidy/agrovet-backend/pkg/config"
	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "agrovet-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.Disabled, Output: io.Discard})

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Manager:   cart.NewManager(),
		Persister: stubPersister{},
		Loader:    stubLoader{},
		Catalog:   stubCatalog{},
		Logger:    logg,
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}

	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DBPinger: stubPinger{},
		Cart:     cartSvc,
	})
}

type stubPersister struct{}

func (stubPersister) PersistCart(userID *uuid.UUID, lines []models.CartLine) {}

type stubLoader struct{}

func (stubLoader) Load(ctx context.Context, userID uuid.UUID) (*models.UserState, error) {
	return &models.UserState{}, nil
}

type stubCatalog struct{}

func (stubCatalog) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: productID, Stock: 10, IsAvailable: true}, nil
}

func (stubCatalog) StockSnapshot(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	snapshot := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		snapshot[id] = 10
	}
	return snapshot, nil
}

func TestRouterHealthLive(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Agrovet-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestRouterProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testConfig())
	paths := []string{"/api/v1/orders", "/api/v1/me", "/api/v1/notifications"}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestRouterAdminRoutesRejectCustomers(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	router := newTestRouter(t, cfg)

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouterCartRequiresSessionKey(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session key, got %d", rec.Code)
	}
}

func TestRouterCartViewWithSessionKey(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Key", "sess-"+uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "items") {
		t.Fatalf("expected cart payload, got %s", rec.Body.String())
	}
}
