// Package orders stores committed purchases and drives status transitions.
package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/pagination"
)

// Repository encapsulates order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create stores the order with its line items in one transaction.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return nil
}

// GetByID loads one order with its line items.
func (r *Repository) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get order")
	}
	return &order, nil
}

// GetByReference loads the order created for a checkout reference.
func (r *Repository) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}

	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "reference = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get order by reference")
	}
	return &order, nil
}

// GetByProviderOrderID resolves the order a payment callback refers to.
func (r *Repository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Order, error) {
	if providerOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider order id required")
	}

	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "provider_order_id = ?", providerOrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get order by provider order id")
	}
	return &order, nil
}

// OrderPage is one cursor page of orders.
type OrderPage struct {
	Items      []models.Order `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ListByUser pages a buyer's orders newest-first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (OrderPage, error) {
	if userID == uuid.Nil {
		return OrderPage{}, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return OrderPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if decodedCursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID,
		)
	}

	var rows []models.Order
	err = query.
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return OrderPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	trimmed, hasMore := pagination.TrimPage(rows, params.Limit)
	page := OrderPage{Items: trimmed}
	if hasMore && len(trimmed) > 0 {
		last := trimmed[len(trimmed)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// UpdateStatus persists a new lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "update order status")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}
