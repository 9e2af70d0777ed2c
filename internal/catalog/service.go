package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// Notifier is the slice of the notifications service the scans use.
type Notifier interface {
	NotifyAdmins(ctx context.Context, notifType, title, message string, link *string) error
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo     *Repository
	Notifier Notifier
	Logger   *logger.Logger
}

// Service exposes catalog reads, admin writes, and the stock scans.
type Service interface {
	ListProducts(ctx context.Context, params ListParams) (ProductPage, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, productID uuid.UUID) error

	StockSnapshot(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error)
	SetStock(ctx context.Context, productID uuid.UUID, stock int) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	LowStockScan(ctx context.Context, threshold int) (ScanReport, error)
	AutoRefillScan(ctx context.Context) (ScanReport, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error
}

type service struct {
	repo     *Repository
	notifier Notifier
	logg     *logger.Logger
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notifier is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:     params.Repo,
		notifier: params.Notifier,
		logg:     params.Logger,
	}, nil
}

func (s *service) ListProducts(ctx context.Context, params ListParams) (ProductPage, error) {
	return s.repo.ListProducts(ctx, params)
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.repo.GetProduct(ctx, productID)
}

func (s *service) CreateProduct(ctx context.Context, product *models.Product) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if product.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product title is required")
	}
	if product.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	return s.repo.CreateProduct(ctx, product)
}

func (s *service) UpdateProduct(ctx context.Context, product *models.Product) error {
	if product == nil || product.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.repo.UpdateProduct(ctx, product)
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.repo.DeleteProduct(ctx, productID)
}

func (s *service) StockSnapshot(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return s.repo.StockSnapshot(ctx, productIDs)
}

func (s *service) SetStock(ctx context.Context, productID uuid.UUID, stock int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return s.repo.SetStock(ctx, productID, stock)
}

func (s *service) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return s.repo.DecrementStock(ctx, productID, quantity)
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) CreateCategory(ctx context.Context, category *models.Category) error {
	if category == nil || category.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	return s.repo.CreateCategory(ctx, category)
}

func (s *service) UpdateCategory(ctx context.Context, category *models.Category) error {
	if category == nil || category.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if category.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	return s.repo.UpdateCategory(ctx, category)
}

func (s *service) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	if categoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	return s.repo.DeleteCategory(ctx, categoryID)
}
