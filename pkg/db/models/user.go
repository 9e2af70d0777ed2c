package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/pkg/enums"
)

// User is a storefront account.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string         `gorm:"column:email;not null;uniqueIndex:users_email_key" json:"email"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	Phone        *string        `gorm:"column:phone" json:"phone,omitempty"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'customer'" json:"role"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
