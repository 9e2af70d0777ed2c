package articles

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
	"github.com/oelhadidy/agrovet-backend/pkg/pagination"
)

// Service defines the knowledge-base operations.
type Service interface {
	List(ctx context.Context, params ListParams) (Page, error)
	Get(ctx context.Context, articleID uuid.UUID, includeUnpublished bool) (*models.Article, error)
	Create(ctx context.Context, input WriteInput) (*models.Article, error)
	Update(ctx context.Context, articleID uuid.UUID, input WriteInput) (*models.Article, error)
	Delete(ctx context.Context, articleID uuid.UUID) error
	ToggleFavorite(ctx context.Context, userID, articleID uuid.UUID) (bool, error)
	ListFavorites(ctx context.Context, userID uuid.UUID, params pagination.Params) (Page, error)
}

// WriteInput carries article fields for create and update.
type WriteInput struct {
	Title     string   `json:"title" validate:"required,min=3,max=200"`
	Body      string   `json:"body" validate:"required,min=10"`
	Tags      []string `json:"tags,omitempty" validate:"max=10,dive,min=1,max=40"`
	ImageURL  *string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Published bool     `json:"published"`
}

// ServiceParams wires articles dependencies.
type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService validates dependencies and builds the service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "articles repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "articles logger required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (Page, error) {
	return s.repo.List(ctx, params)
}

func (s *service) Get(ctx context.Context, articleID uuid.UUID, includeUnpublished bool) (*models.Article, error) {
	article, err := s.repo.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !article.Published && !includeUnpublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}
	return article, nil
}

func (s *service) Create(ctx context.Context, input WriteInput) (*models.Article, error) {
	if err := validateWrite(input); err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Tags:      pq.StringArray(normalizeTags(input.Tags)),
		ImageURL:  input.ImageURL,
		Published: input.Published,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}

	lctx := s.logg.WithFields(ctx, map[string]any{"article_id": article.ID, "published": article.Published})
	s.logg.Info(lctx, "article created")
	return article, nil
}

func (s *service) Update(ctx context.Context, articleID uuid.UUID, input WriteInput) (*models.Article, error) {
	if articleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}
	if err := validateWrite(input); err != nil {
		return nil, err
	}

	article := &models.Article{
		ID:        articleID,
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Tags:      pq.StringArray(normalizeTags(input.Tags)),
		ImageURL:  input.ImageURL,
		Published: input.Published,
	}
	if err := s.repo.Update(ctx, article); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, articleID)
}

func (s *service) Delete(ctx context.Context, articleID uuid.UUID) error {
	if articleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "article id required")
	}
	if err := s.repo.Delete(ctx, articleID); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "article_id", articleID), "article deleted")
	return nil
}

func (s *service) ToggleFavorite(ctx context.Context, userID, articleID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to favorite articles")
	}
	// Toggling an unpublished or deleted article 404s like reading it would.
	if _, err := s.Get(ctx, articleID, false); err != nil {
		return false, err
	}
	return s.repo.ToggleFavorite(ctx, userID, articleID)
}

func (s *service) ListFavorites(ctx context.Context, userID uuid.UUID, params pagination.Params) (Page, error) {
	if userID == uuid.Nil {
		return Page{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to list favorite articles")
	}
	return s.repo.ListFavorites(ctx, userID, params)
}

func validateWrite(input WriteInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "article title is required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "article body is required")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
