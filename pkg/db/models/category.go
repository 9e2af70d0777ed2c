package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups catalog products for browsing.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:categories_name_key" json:"name"`
	ImageURL  *string   `gorm:"column:image_url" json:"image_url,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
