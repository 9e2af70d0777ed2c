// Package checkout runs the payment flow: staging a pending order draft,
// creating the provider session, and committing the draft to an order when the
// payment callback lands. A claimed guard slot keeps two concurrent callback
// handlers for the same provider order from both committing.
package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
)

// Draft is the staged order written before redirecting to a payment provider.
// It lives in a slot until the callback commits or abandons it.
type Draft struct {
	Reference       string                `json:"reference"`
	UserID          uuid.UUID             `json:"user_id"`
	CartSessionKey  string                `json:"cart_session_key"`
	Items           []models.CartLine     `json:"items"`
	SubtotalAmount  decimal.Decimal       `json:"subtotal_amount"`
	ShippingAmount  decimal.Decimal       `json:"shipping_amount"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	Provider        enums.PaymentProvider `json:"provider"`
	ProviderOrderID string                `json:"provider_order_id"`
	ShippingAddress *string               `json:"shipping_address,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// guardRecord marks an in-flight order commit for one provider order.
type guardRecord struct {
	ProviderOrderID string    `json:"provider_order_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// createdMarker records the committed order so a late duplicate callback can
// resolve to the same order instead of creating a second one. Retained for a
// short window after commit.
type createdMarker struct {
	ProviderOrderID string    `json:"provider_order_id"`
	OrderID         uuid.UUID `json:"order_id"`
	Reference       string    `json:"reference"`
	CreatedAt       time.Time `json:"created_at"`
}

// Outcome classifies how a callback was resolved.
type Outcome string

const (
	// OutcomeCreated: this handler won the guard and committed the order.
	OutcomeCreated Outcome = "created"
	// OutcomeAlreadyCreated: another handler committed first; same order.
	OutcomeAlreadyCreated Outcome = "already_created"
	// OutcomeConfirming: another handler holds the guard and has not
	// committed yet; nothing was done.
	OutcomeConfirming Outcome = "still_confirming"
	// OutcomeDeclined: the provider reported the payment as failed.
	OutcomeDeclined Outcome = "declined"
)
