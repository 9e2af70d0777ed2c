package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal_amount TEXT NOT NULL DEFAULT '0',
  shipping_amount TEXT NOT NULL DEFAULT '0',
  total_amount TEXT NOT NULL DEFAULT '0',
  payment_provider TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  provider_order_id TEXT,
  capture_id TEXT,
  shipping_address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  title TEXT NOT NULL,
  unit_price TEXT NOT NULL DEFAULT '0',
  quantity INTEGER NOT NULL,
  line_total TEXT NOT NULL DEFAULT '0',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	return db
}

func newOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()

	providerOrderID := uuid.NewString()
	order := &models.Order{
		ID:              uuid.New(),
		Reference:       uuid.NewString(),
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		SubtotalAmount:  decimal.NewFromInt(150),
		TotalAmount:     decimal.NewFromInt(150),
		PaymentProvider: enums.PaymentProviderPayPal,
		PaymentStatus:   enums.PaymentStatusCompleted,
		ProviderOrderID: &providerOrderID,
		CreatedAt:       createdAt,
		Items: []models.OrderLineItem{
			{
				ID:        uuid.New(),
				ProductID: uuid.New(),
				Title:     "Ivermectin 50ml",
				UnitPrice: decimal.NewFromInt(75),
				Quantity:  2,
				LineTotal: decimal.NewFromInt(150),
			},
		},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestCreateAndGetWithLineItems(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newOrder(t, db, uuid.New(), time.Now().UTC())

	loaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, created.Reference, loaded.Reference)
	assert.Equal(t, "Ivermectin 50ml", loaded.Items[0].Title)
	assert.True(t, loaded.TotalAmount.Equal(decimal.NewFromInt(150)))
}

func TestGetByReference(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newOrder(t, db, uuid.New(), time.Now().UTC())

	loaded, err := repo.GetByReference(ctx, created.Reference)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)

	_, err = repo.GetByReference(ctx, uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetByProviderOrderID(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newOrder(t, db, uuid.New(), time.Now().UTC())

	loaded, err := repo.GetByProviderOrderID(ctx, *created.ProviderOrderID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
}

func TestListByUserPagesNewestFirst(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		newOrder(t, db, userID, base.Add(time.Duration(i)*time.Minute))
	}
	newOrder(t, db, uuid.New(), base) // another buyer

	first, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Items[0].CreatedAt.After(first.Items[1].CreatedAt))

	second, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	err := repo.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
