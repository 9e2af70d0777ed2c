package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/oelhadidy/agrovet-backend/api/responses"
	"github.com/oelhadidy/agrovet-backend/api/validators"
	"github.com/oelhadidy/agrovet-backend/internal/catalog"
	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// ProductsList returns available products with cursor pagination.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := catalog.ListParams{
			Cursor: page.Cursor,
			Limit:  page.Limit,
			Search: validators.SanitizeQuery(r.URL.Query().Get("search"), 120),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			categoryID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id"))
				return
			}
			params.CategoryID = &categoryID
		}

		result, err := svc.ListProducts(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductGet returns one product.
func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type productWriteRequest struct {
	Title        string   `json:"title" validate:"required,min=2,max=200"`
	Description  *string  `json:"description,omitempty"`
	CategoryID   *string  `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	Price        string   `json:"price" validate:"required"`
	Stock        int      `json:"stock" validate:"gte=0"`
	IsAvailable  bool     `json:"is_available"`
	ImageURL     *string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Keywords     []string `json:"keywords,omitempty" validate:"max=20,dive,min=1,max=60"`
	AutoRefill   bool     `json:"auto_refill"`
	RefillTarget int      `json:"refill_target" validate:"gte=0"`
}

func (req productWriteRequest) toModel() (*models.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}

	product := &models.Product{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Price:        price,
		Stock:        req.Stock,
		IsAvailable:  req.IsAvailable,
		ImageURL:     req.ImageURL,
		Keywords:     pq.StringArray(req.Keywords),
		AutoRefill:   req.AutoRefill,
		RefillTarget: req.RefillTarget,
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		product.CategoryID = &categoryID
	}
	return product, nil
}

// AdminProductCreate stores a new product.
func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input productWriteRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := input.toModel()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product.ID = uuid.New()

		if err := svc.CreateProduct(r.Context(), product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminProductUpdate replaces the mutable product fields.
func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input productWriteRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := input.toModel()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product.ID = productID

		if err := svc.UpdateProduct(r.Context(), product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminProductDelete removes a product.
func AdminProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// CategoriesList returns all categories sorted by name.
func CategoriesList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

type categoryWriteRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	ImageURL *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// AdminCategoryCreate stores a new category.
func AdminCategoryCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input categoryWriteRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category := &models.Category{
			ID:       uuid.New(),
			Name:     strings.TrimSpace(input.Name),
			ImageURL: input.ImageURL,
		}
		if err := svc.CreateCategory(r.Context(), category); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// AdminCategoryUpdate replaces a category's name and image.
func AdminCategoryUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseURLUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input categoryWriteRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category := &models.Category{
			ID:       categoryID,
			Name:     strings.TrimSpace(input.Name),
			ImageURL: input.ImageURL,
		}
		if err := svc.UpdateCategory(r.Context(), category); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// AdminCategoryDelete removes a category.
func AdminCategoryDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseURLUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCategory(r.Context(), categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
