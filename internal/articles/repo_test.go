package articles

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/pagination"
)

func setupArticlesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	articles := `
CREATE TABLE IF NOT EXISTS articles (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  tags TEXT,
  image_url TEXT,
  published INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	favorites := `
CREATE TABLE IF NOT EXISTS article_favorites (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  article_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, article_id)
);`
	require.NoError(t, db.Exec(articles).Error)
	require.NoError(t, db.Exec(favorites).Error)
	return db
}

func newArticle(t *testing.T, db *gorm.DB, title string, published bool, createdAt time.Time) *models.Article {
	t.Helper()

	article := &models.Article{
		ID:        uuid.New(),
		Title:     title,
		Body:      "body of " + title,
		Published: published,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(article).Error)
	return article
}

func TestListReturnsPublishedNewestFirst(t *testing.T) {
	t.Parallel()

	db := setupArticlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	older := newArticle(t, db, "Deworming schedules", true, base.Add(-2*time.Hour))
	newer := newArticle(t, db, "Poultry vaccination basics", true, base.Add(-time.Hour))
	newArticle(t, db, "Unreviewed draft", false, base)

	page, err := repo.List(ctx, ListParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, newer.ID, page.Items[0].ID)
	assert.Equal(t, older.ID, page.Items[1].ID)
	assert.Empty(t, page.NextCursor)
}

func TestListIncludesUnpublishedForAdmins(t *testing.T) {
	t.Parallel()

	db := setupArticlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	newArticle(t, db, "Published", true, base.Add(-time.Hour))
	newArticle(t, db, "Draft", false, base)

	page, err := repo.List(ctx, ListParams{Limit: 10, IncludeUnpublished: true})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestListPagesWithCursor(t *testing.T) {
	t.Parallel()

	db := setupArticlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		newArticle(t, db, "Article", true, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.List(ctx, ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, ListParams{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)
	assert.NotEqual(t, first.Items[1].ID, second.Items[0].ID)
}

func TestGetMissingArticle(t *testing.T) {
	t.Parallel()

	db := setupArticlesTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateMissingArticle(t *testing.T) {
	t.Parallel()

	db := setupArticlesTestDB(t)
	repo := NewRepository(db)

	err := repo.Update(context.Background(), &models.Article{ID: uuid.New(), Title: "x", Body: "y"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestToggleFavoriteFlipsState(t *testing.T) {
	t.Parallel()

	db := setupArticlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	article := newArticle(t, db, "Calf scours", true, time.Now().UTC())
	userID := uuid.New()

	favored, err := repo.ToggleFavorite(ctx, userID, article.ID)
	require.NoError(t, err)
	assert.True(t, favored)

	isFav, err := repo.IsFavorite(ctx, userID, article.ID)
	require.NoError(t, err)
	assert.True(t, isFav)

	favored, err = repo.ToggleFavorite(ctx, userID, article.ID)
	require.NoError(t, err)
	assert.False(t, favored)

	isFav, err = repo.IsFavorite(ctx, userID, article.ID)
	require.NoError(t, err)
	assert.False(t, isFav)
}

func TestListFavoritesMostRecentFirst(t *testing.T) {
	t.Parallel()

	db := setupArticlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	first := newArticle(t, db, "First", true, base.Add(-2*time.Hour))
	second := newArticle(t, db, "Second", true, base.Add(-time.Hour))
	userID := uuid.New()

	require.NoError(t, db.Create(&models.ArticleFavorite{
		ID:        uuid.New(),
		UserID:    userID,
		ArticleID: first.ID,
		CreatedAt: base.Add(-time.Minute),
	}).Error)
	require.NoError(t, db.Create(&models.ArticleFavorite{
		ID:        uuid.New(),
		UserID:    userID,
		ArticleID: second.ID,
		CreatedAt: base,
	}).Error)

	page, err := repo.ListFavorites(ctx, userID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, first.ID, page.Items[1].ID)
}

func TestListFavoritesScopedToUser(t *testing.T) {
	t.Parallel()

	db := setupArticlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	article := newArticle(t, db, "Hoof care", true, time.Now().UTC())
	owner := uuid.New()

	_, err := repo.ToggleFavorite(ctx, owner, article.ID)
	require.NoError(t, err)

	page, err := repo.ListFavorites(ctx, uuid.New(), pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestDeleteRemovesFavorites(t *testing.T) {
	t.Parallel()

	db := setupArticlesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	article := newArticle(t, db, "Tick control", true, time.Now().UTC())
	userID := uuid.New()
	_, err := repo.ToggleFavorite(ctx, userID, article.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, article.ID))

	isFav, err := repo.IsFavorite(ctx, userID, article.ID)
	require.NoError(t, err)
	assert.False(t, isFav)

	_, err = repo.Get(ctx, article.ID)
	require.Error(t, err)
}
