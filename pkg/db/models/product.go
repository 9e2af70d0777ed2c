package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is the canonical catalog listing for an agricultural or veterinary
// item. Stock is the authoritative availability figure reconciliation reads.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string          `gorm:"column:title;not null" json:"title"`
	Description   *string         `gorm:"column:description" json:"description,omitempty"`
	CategoryID    *uuid.UUID      `gorm:"column:category_id;type:uuid" json:"category_id,omitempty"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock         int             `gorm:"column:stock;not null;default:0" json:"stock"`
	IsAvailable   bool            `gorm:"column:is_available;not null;default:true" json:"is_available"`
	ImageURL      *string         `gorm:"column:image_url" json:"image_url,omitempty"`
	Keywords      pq.StringArray  `gorm:"column:keywords;type:text[]" json:"keywords,omitempty"`
	AutoRefill    bool            `gorm:"column:auto_refill;not null;default:false" json:"auto_refill"`
	RefillTarget  int             `gorm:"column:refill_target;not null;default:0" json:"refill_target"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
