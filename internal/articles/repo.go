// Package articles holds the knowledge-base entries and the per-user article
// favorites that accompany the storefront catalog.
package articles

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

// Repository encapsulates article persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an articles repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListParams filter and page the article listing.
type ListParams struct {
	Cursor             string
	Limit              int
	Tag                string
	Search             string
	IncludeUnpublished bool
}

// Page is one cursor page of articles.
type Page struct {
	Items      []models.Article `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// List returns articles newest-first with cursor pagination.
func (r *Repository) List(ctx context.Context, params ListParams) (Page, error) {
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).Model(&models.Article{})
	if !params.IncludeUnpublished {
		query = query.Where("published = ?", true)
	}
	if tag := strings.TrimSpace(params.Tag); tag != "" {
		query = query.Where("? = ANY(tags)", tag)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}
	if decodedCursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID,
		)
	}

	var rows []models.Article
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list articles")
	}

	trimmed, hasMore := pagination.TrimPage(rows, params.Limit)
	page := Page{Items: trimmed}
	if hasMore && len(trimmed) > 0 {
		last := trimmed[len(trimmed)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// Get returns a single article by ID.
func (r *Repository) Get(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	if articleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}

	var article models.Article
	err := r.db.WithContext(ctx).First(&article, "id = ?", articleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get article")
	}
	return &article, nil
}

// Create stores a new article.
func (r *Repository) Create(ctx context.Context, article *models.Article) error {
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create article")
	}
	return nil
}

// Update persists edits to an existing article.
func (r *Repository) Update(ctx context.Context, article *models.Article) error {
	result := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("id = ?", article.ID).
		Updates(map[string]any{
			"title":     article.Title,
			"body":      article.Body,
			"tags":      article.Tags,
			"image_url": article.ImageURL,
			"published": article.Published,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "update article")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}
	return nil
}

// Delete removes an article and its favorites.
func (r *Repository) Delete(ctx context.Context, articleID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", articleID).Delete(&models.ArticleFavorite{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete article favorites")
		}
		result := tx.Where("id = ?", articleID).Delete(&models.Article{})
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "delete article")
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return nil
	})
}

// ToggleFavorite flips the favorite mark for a user and reports the new state.
func (r *Repository) ToggleFavorite(ctx context.Context, userID, articleID uuid.UUID) (bool, error) {
	favored := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND article_id = ?", userID, articleID).Delete(&models.ArticleFavorite{})
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "remove article favorite")
		}
		if result.RowsAffected > 0 {
			return nil
		}
		favorite := models.ArticleFavorite{ID: uuid.New(), UserID: userID, ArticleID: articleID}
		if err := tx.Create(&favorite).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add article favorite")
		}
		favored = true
		return nil
	})
	return favored, err
}

// ListFavorites pages the articles a user marked, most recently marked first.
func (r *Repository) ListFavorites(ctx context.Context, userID uuid.UUID, params pagination.Params) (Page, error) {
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).Model(&models.ArticleFavorite{}).Where("user_id = ?", userID)
	if decodedCursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID,
		)
	}

	var marks []models.ArticleFavorite
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&marks).Error
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list article favorites")
	}

	trimmedMarks, hasMore := pagination.TrimPage(marks, params.Limit)
	if len(trimmedMarks) == 0 {
		return Page{Items: []models.Article{}}, nil
	}

	ids := make([]uuid.UUID, 0, len(trimmedMarks))
	for _, mark := range trimmedMarks {
		ids = append(ids, mark.ArticleID)
	}

	var rows []models.Article
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favorite articles")
	}

	byID := make(map[uuid.UUID]models.Article, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	// Favorites may outlive the article if cleanup raced; skip the gaps.
	items := make([]models.Article, 0, len(trimmedMarks))
	for _, mark := range trimmedMarks {
		if article, ok := byID[mark.ArticleID]; ok {
			items = append(items, article)
		}
	}

	page := Page{Items: items}
	if hasMore {
		last := trimmedMarks[len(trimmedMarks)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// IsFavorite reports whether a user marked an article.
func (r *Repository) IsFavorite(ctx context.Context, userID, articleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ArticleFavorite{}).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check article favorite")
	}
	return count > 0, nil
}
