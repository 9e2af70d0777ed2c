package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one product entry in the mirrored cart document. PriceSnapshot
// and StockSnapshot are captured at add/reconcile time and may go stale
// between reconciliations.
type CartLine struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Title         string          `json:"title"`
	Quantity      int             `json:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	StockSnapshot int             `json:"stock_snapshot"`
	MaxReached    bool            `json:"max_reached"`
	ImageURL      *string         `json:"image_url,omitempty"`
}

// FavoriteEntry is a stored product snapshot with set semantics per product id.
type FavoriteEntry struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  *string         `json:"image_url,omitempty"`
}

// UserState is the durable mirror of a user's session state. Cart and
// Favorites hold the full arrays as JSON documents; the record is an opaque
// save/load target keyed by user ID, not the session authority.
type UserState struct {
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Cart      []CartLine      `gorm:"column:cart;type:jsonb;serializer:json" json:"cart"`
	Favorites []FavoriteEntry `gorm:"column:favorites;type:jsonb;serializer:json" json:"favorites"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
