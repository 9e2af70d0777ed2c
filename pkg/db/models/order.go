package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oelhadidy/agrovet-backend/pkg/enums"
)

// Order is a committed purchase. Reference is the per-checkout idempotency
// token generated before the buyer is redirected to a payment provider.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Reference       string                `gorm:"column:reference;not null;uniqueIndex:orders_reference_key" json:"reference"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx" json:"user_id"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'pending'" json:"status"`
	SubtotalAmount  decimal.Decimal       `gorm:"column:subtotal_amount;type:numeric(12,2);not null" json:"subtotal_amount"`
	ShippingAmount  decimal.Decimal       `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0" json:"shipping_amount"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	PaymentProvider enums.PaymentProvider `gorm:"column:payment_provider;not null" json:"payment_provider"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;not null;default:'pending'" json:"payment_status"`
	ProviderOrderID *string               `gorm:"column:provider_order_id;index:orders_provider_order_id_idx" json:"provider_order_id,omitempty"`
	CaptureID       *string               `gorm:"column:capture_id" json:"capture_id,omitempty"`
	ShippingAddress *string               `gorm:"column:shipping_address" json:"shipping_address,omitempty"`
	Items           []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// OrderLineItem snapshots one purchased product.
type OrderLineItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_line_items_order_id_idx" json:"order_id"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Title     string          `gorm:"column:title;not null" json:"title"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null" json:"line_total"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
