package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Article is a knowledge-base entry (husbandry guides, treatment notes).
type Article struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Body      string         `gorm:"column:body;not null" json:"body"`
	Tags      pq.StringArray `gorm:"column:tags;type:text[]" json:"tags,omitempty"`
	ImageURL  *string        `gorm:"column:image_url" json:"image_url,omitempty"`
	Published bool           `gorm:"column:published;not null;default:true" json:"published"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// ArticleFavorite links a user to a liked article.
type ArticleFavorite struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:article_favorites_user_article_key" json:"user_id"`
	ArticleID uuid.UUID `gorm:"column:article_id;type:uuid;not null;uniqueIndex:article_favorites_user_article_key" json:"article_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
