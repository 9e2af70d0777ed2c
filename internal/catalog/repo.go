// Package catalog owns the product and category records and the stock
// figures that cart reconciliation and the background scans read.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/pagination"
)

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListParams filter and page the product listing.
type ListParams struct {
	Cursor     string
	Limit      int
	CategoryID *uuid.UUID
	Search     string
}

// ProductPage is one cursor page of products.
type ProductPage struct {
	Items      []models.Product `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ListProducts returns available products newest-first with cursor pagination.
func (r *Repository) ListProducts(ctx context.Context, params ListParams) (ProductPage, error) {
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return ProductPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_available = ?", true)
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Product
	err = query.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).
		Error
	if err != nil {
		return ProductPage{}, err
	}

	items, hasNext := pagination.TrimPage(rows, params.Limit)
	page := ProductPage{Items: items}
	if hasNext {
		last := items[len(items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// GetProduct fetches one product by ID.
func (r *Repository) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a catalog listing.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateProduct persists the provided product fields.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// DeleteProduct removes a listing.
func (r *Repository) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", productID).Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// StockSnapshot returns current stock per requested product ID. Products that
// no longer exist are simply absent from the map.
func (r *Repository) StockSnapshot(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(productIDs) == 0 {
		return map[uuid.UUID]int{}, nil
	}

	type row struct {
		ID    uuid.UUID
		Stock int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("id", "stock").
		Where("id IN ?", productIDs).
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]int, len(rows))
	for _, record := range rows {
		out[record.ID] = record.Stock
	}
	return out, nil
}

// ListLowStock returns available products at or under the threshold.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_available = ? AND stock <= ?", true, threshold).
		Order("stock ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListRefillable returns auto-refill products sitting under their target.
func (r *Repository) ListRefillable(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("auto_refill = ? AND stock < refill_target", true).
		Find(&rows).
		Error
	return rows, err
}

// SetStock overwrites a product's stock figure.
func (r *Repository) SetStock(ctx context.Context, productID uuid.UUID, stock int) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", stock)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// DecrementStock subtracts sold quantity, refusing to go negative.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// UpdateCategory replaces the mutable category fields.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) error {
	result := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", category.ID).
		Updates(category)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

// DeleteCategory removes a category; products keep a dangling NULL reference.
func (r *Repository) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", categoryID).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}
