package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  category_id TEXT,
  price TEXT NOT NULL DEFAULT '0',
  stock INTEGER NOT NULL DEFAULT 0,
  is_available INTEGER NOT NULL DEFAULT 1,
  image_url TEXT,
  keywords TEXT,
  auto_refill INTEGER NOT NULL DEFAULT 0,
  refill_target INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(products).Error)
	return db
}

func newProduct(t *testing.T, db *gorm.DB, title string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:    uuid.New(),
		Title: title,
		Price: decimal.NewFromInt(100),
		Stock: stock,
	}
	product.IsAvailable = true
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestStockSnapshotReturnsRequestedRows(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	a := newProduct(t, db, "Cattle wormer", 7)
	b := newProduct(t, db, "Chick starter feed", 0)

	snapshot, err := repo.StockSnapshot(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)

	assert.Equal(t, 7, snapshot[a.ID])
	assert.Equal(t, 0, snapshot[b.ID])
	assert.Len(t, snapshot, 2, "missing products must be absent, not zeroed")
}

func TestStockSnapshotEmptyInput(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupCatalogTestDB(t))
	snapshot, err := repo.StockSnapshot(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupCatalogTestDB(t))
	_, err := repo.GetProduct(context.Background(), uuid.New())
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListLowStockHonorsThreshold(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	low := newProduct(t, db, "Teat dip", 2)
	newProduct(t, db, "Ear tags", 50)
	hidden := newProduct(t, db, "Discontinued syrup", 1)
	require.NoError(t, db.Model(hidden).Update("is_available", false).Error)

	rows, err := repo.ListLowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, low.ID, rows[0].ID)
}

func TestListRefillableOnlyUnderTarget(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	under := newProduct(t, db, "Salt lick", 3)
	require.NoError(t, db.Model(under).Updates(map[string]any{"auto_refill": true, "refill_target": 20}).Error)

	full := newProduct(t, db, "Hay net", 20)
	require.NoError(t, db.Model(full).Updates(map[string]any{"auto_refill": true, "refill_target": 20}).Error)

	newProduct(t, db, "Manual-only item", 1)

	rows, err := repo.ListRefillable(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, under.ID, rows[0].ID)
}

func TestDecrementStockRefusesOverdraw(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := newProduct(t, db, "Sprayer", 2)

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 2))

	err := repo.DecrementStock(ctx, product.ID, 1)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestDeleteProductNotFound(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupCatalogTestDB(t))
	err := repo.DeleteProduct(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestCategoriesRoundTrip(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateCategory(ctx, &models.Category{ID: uuid.New(), Name: "Vaccines"}))
	require.NoError(t, repo.CreateCategory(ctx, &models.Category{ID: uuid.New(), Name: "Feed"}))

	rows, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Feed", rows[0].Name, "categories sort by name")
}

func TestUpdateCategoryRenames(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := &models.Category{ID: uuid.New(), Name: "Vacines"}
	require.NoError(t, repo.CreateCategory(ctx, category))

	category.Name = "Vaccines"
	require.NoError(t, repo.UpdateCategory(ctx, category))

	rows, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Vaccines", rows[0].Name)
}

func TestUpdateCategoryMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	err := repo.UpdateCategory(context.Background(), &models.Category{ID: uuid.New(), Name: "Feed"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
