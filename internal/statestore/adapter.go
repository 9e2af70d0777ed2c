package statestore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/oelhadidy/agrovet-backend/pkg/config"
	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// Store is the persistence surface the adapter mirrors into.
type Store interface {
	SaveCart(ctx context.Context, userID uuid.UUID, lines []models.CartLine) error
	SaveFavorites(ctx context.Context, userID uuid.UUID, entries []models.FavoriteEntry) error
	Load(ctx context.Context, userID uuid.UUID) (*models.UserState, error)
}

// Adapter mirrors session state to the store in the background. Mutations
// never wait on it and never observe its failures: a failed write is logged
// and dropped, leaving the session state authoritative.
type Adapter struct {
	store Store
	cfg   config.StateSyncConfig
	logg  *logger.Logger
	wg    sync.WaitGroup
}

// NewAdapter builds the sync adapter. store and logg are required.
func NewAdapter(store Store, cfg config.StateSyncConfig, logg *logger.Logger) (*Adapter, error) {
	if store == nil {
		return nil, errStoreRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &Adapter{store: store, cfg: cfg, logg: logg}, nil
}

// PersistCart schedules a background write of the full cart array. A nil
// userID means an anonymous session: state stays local-only.
func (a *Adapter) PersistCart(userID *uuid.UUID, lines []models.CartLine) {
	if userID == nil || *userID == uuid.Nil {
		return
	}
	id := *userID
	snapshot := append([]models.CartLine(nil), lines...)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.write(id, "cart", func(ctx context.Context) error {
			return a.store.SaveCart(ctx, id, snapshot)
		})
	}()
}

// PersistFavorites schedules a background write of the full favorites array.
func (a *Adapter) PersistFavorites(userID *uuid.UUID, entries []models.FavoriteEntry) {
	if userID == nil || *userID == uuid.Nil {
		return
	}
	id := *userID
	snapshot := append([]models.FavoriteEntry(nil), entries...)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.write(id, "favorites", func(ctx context.Context) error {
			return a.store.SaveFavorites(ctx, id, snapshot)
		})
	}()
}

// Load reads the stored state so a fresh session can seed itself. Unlike the
// persists this is synchronous: login replaces local state with the mirror.
func (a *Adapter) Load(ctx context.Context, userID uuid.UUID) (*models.UserState, error) {
	return a.store.Load(ctx, userID)
}

// Wait blocks until all scheduled writes finish. Used on shutdown and in tests.
func (a *Adapter) Wait() {
	a.wg.Wait()
}

func (a *Adapter) write(userID uuid.UUID, kind string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.WriteTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(uint64(a.cfg.MaxRetries), retry.NewConstant(a.cfg.RetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		lctx := a.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "state_kind": kind})
		a.logg.Error(lctx, "state mirror write failed", err)
	}
}
