package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oelhadidy/agrovet-backend/internal/cart"
	"github.com/oelhadidy/agrovet-backend/pkg/config"
	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
	"github.com/oelhadidy/agrovet-backend/pkg/paymob"
	"github.com/oelhadidy/agrovet-backend/pkg/paypal"
	"github.com/oelhadidy/agrovet-backend/pkg/slots"
)

// Cart is the slice of the cart service checkout drives.
type Cart interface {
	ValidateForCheckout(ctx context.Context, sess cart.Session) ([]models.CartLine, error)
	Clear(ctx context.Context, sess cart.Session) (cart.DTO, error)
}

// Orders is the slice of the orders service checkout commits into.
type Orders interface {
	Create(ctx context.Context, order *models.Order) error
}

// Stock decrements sold quantities after commit.
type Stock interface {
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

// PayPalGateway creates and captures PayPal provider orders.
type PayPalGateway interface {
	CreateOrder(ctx context.Context, reference string, amount decimal.Decimal) (*paypal.OrderResult, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (*paypal.CaptureResult, error)
}

// PaymobGateway creates Paymob sessions and verifies callback signatures.
type PaymobGateway interface {
	CreateSession(ctx context.Context, method paymob.Method, reference string, amount decimal.Decimal, billing paymob.BillingDetails) (*paymob.Session, error)
	VerifyHMAC(fields map[string]string, signature string) bool
}

// BeginInput selects the provider for a checkout attempt.
type BeginInput struct {
	Provider        enums.PaymentProvider `json:"provider" validate:"required"`
	ShippingAddress *string               `json:"shipping_address,omitempty"`
	BillingName     string                `json:"billing_name,omitempty"`
	BillingEmail    string                `json:"billing_email,omitempty"`
	BillingPhone    string                `json:"billing_phone,omitempty"`
}

// BeginResult is the staged checkout the client redirects from.
type BeginResult struct {
	Reference       string                `json:"reference"`
	Provider        enums.PaymentProvider `json:"provider"`
	ProviderOrderID string                `json:"provider_order_id"`
	ApproveURL      string                `json:"approve_url,omitempty"`
	IframeURL       string                `json:"iframe_url,omitempty"`
	WalletRedirect  string                `json:"wallet_redirect,omitempty"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
}

// CallbackResult reports how the payment callback resolved.
type CallbackResult struct {
	Outcome   Outcome    `json:"outcome"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Reference string     `json:"reference,omitempty"`
}

// Service is the checkout flow surface.
type Service interface {
	Begin(ctx context.Context, sess cart.Session, input BeginInput) (*BeginResult, error)
	HandleCallback(ctx context.Context, provider enums.PaymentProvider, query url.Values) (*CallbackResult, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Cart   Cart
	Orders Orders
	Stock  Stock
	Slots  slots.Store
	PayPal PayPalGateway
	Paymob PaymobGateway
	Config config.CheckoutConfig
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	cart   Cart
	orders Orders
	stock  Stock
	slots  slots.Store
	paypal PayPalGateway
	paymob PaymobGateway
	cfg    config.CheckoutConfig
	logg   *logger.Logger
	now    func() time.Time
}

// NewService validates dependencies and builds the checkout service. The
// gateway for an unconfigured provider may be nil; attempts to use it fail
// with a payment error.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout cart dependency required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout orders dependency required")
	}
	if params.Stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout stock dependency required")
	}
	if params.Slots == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout slot store required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	cfg := params.Config
	if cfg.GuardTTL <= 0 {
		cfg.GuardTTL = 90 * time.Second
	}
	if cfg.CreatedMarkerRetention <= 0 {
		cfg.CreatedMarkerRetention = 5 * time.Minute
	}
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = time.Hour
	}
	return &service{
		cart:   params.Cart,
		orders: params.Orders,
		stock:  params.Stock,
		slots:  params.Slots,
		paypal: params.PayPal,
		paymob: params.Paymob,
		cfg:    cfg,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// Begin validates the cart against live stock, stages a draft under a fresh
// reference, creates the provider order, and returns the redirect data.
func (s *service) Begin(ctx context.Context, sess cart.Session, input BeginInput) (*BeginResult, error) {
	if sess.UserID == nil || *sess.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}
	if !input.Provider.IsValid() || input.Provider == enums.PaymentProviderCashOnDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment provider %q", input.Provider))
	}

	lines, err := s.cart.ValidateForCheckout(ctx, sess)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.PriceSnapshot.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	reference := uuid.NewString()
	draft := Draft{
		Reference:       reference,
		UserID:          *sess.UserID,
		CartSessionKey:  sess.Key,
		Items:           lines,
		SubtotalAmount:  subtotal,
		ShippingAmount:  decimal.Zero,
		TotalAmount:     subtotal,
		Provider:        input.Provider,
		ShippingAddress: input.ShippingAddress,
		CreatedAt:       s.now(),
	}

	result := &BeginResult{
		Reference:   reference,
		Provider:    input.Provider,
		TotalAmount: draft.TotalAmount,
	}

	switch input.Provider {
	case enums.PaymentProviderPayPal:
		if s.paypal == nil {
			return nil, pkgerrors.New(pkgerrors.CodePayment, "paypal is not configured")
		}
		order, err := s.paypal.CreateOrder(ctx, reference, draft.TotalAmount)
		if err != nil {
			return nil, err
		}
		draft.ProviderOrderID = order.ProviderOrderID
		result.ProviderOrderID = order.ProviderOrderID
		result.ApproveURL = order.ApproveURL
	case enums.PaymentProviderPaymobCard, enums.PaymentProviderPaymobWallet:
		if s.paymob == nil {
			return nil, pkgerrors.New(pkgerrors.CodePayment, "paymob is not configured")
		}
		method := paymob.MethodCard
		if input.Provider == enums.PaymentProviderPaymobWallet {
			method = paymob.MethodWallet
		}
		session, err := s.paymob.CreateSession(ctx, method, reference, draft.TotalAmount, paymob.BillingDetails{
			FirstName: input.BillingName,
			Email:     input.BillingEmail,
			Phone:     input.BillingPhone,
		})
		if err != nil {
			return nil, err
		}
		draft.ProviderOrderID = session.ProviderOrderID
		result.ProviderOrderID = session.ProviderOrderID
		result.IframeURL = session.IframeURL
		result.WalletRedirect = session.WalletRedirect
	}

	// The draft is keyed by the provider order ID because that is the only
	// handle the callback carries.
	if err := slots.PutJSON(ctx, s.slots, draft.ProviderOrderID, slots.SlotPendingDraft, draft, s.cfg.DraftTTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stage pending order draft")
	}
	if err := slots.PutJSON(ctx, s.slots, draft.UserID.String(), slots.SlotPaymentMethod, string(input.Provider), s.cfg.DraftTTL); err != nil {
		s.logg.Warn(s.logg.WithOrderReference(ctx, reference), "stage payment method slot failed")
	}
	if err := slots.PutJSON(ctx, s.slots, draft.UserID.String(), slots.SlotLastSession, result, s.cfg.DraftTTL); err != nil {
		s.logg.Warn(s.logg.WithOrderReference(ctx, reference), "stage payment session slot failed")
	}

	lctx := s.logg.WithFields(ctx, map[string]any{
		"order_reference":   reference,
		"provider":          string(input.Provider),
		"provider_order_id": draft.ProviderOrderID,
	})
	s.logg.Info(lctx, "checkout staged")
	return result, nil
}

// HandleCallback resolves a provider redirect. Exactly one of two concurrent
// callbacks for the same provider order commits; the other resolves to the
// committed order or reports that confirmation is still in flight.
func (s *service) HandleCallback(ctx context.Context, provider enums.PaymentProvider, query url.Values) (*CallbackResult, error) {
	switch provider {
	case enums.PaymentProviderPayPal:
		return s.handlePayPalCallback(ctx, query)
	case enums.PaymentProviderPaymobCard, enums.PaymentProviderPaymobWallet:
		return s.handlePaymobCallback(ctx, query)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported callback provider %q", provider))
	}
}

func (s *service) handlePayPalCallback(ctx context.Context, query url.Values) (*CallbackResult, error) {
	if s.paypal == nil {
		return nil, pkgerrors.New(pkgerrors.CodePayment, "paypal is not configured")
	}
	ret, err := paypal.ParseReturn(query)
	if err != nil {
		return nil, err
	}
	if ret.PayerID == "" {
		// Buyer cancelled on the approval page.
		s.abandon(ctx, ret.ProviderOrderID)
		return &CallbackResult{Outcome: OutcomeDeclined}, nil
	}

	return s.commit(ctx, ret.ProviderOrderID, func(ctx context.Context, draft *Draft) (captureID *string, err error) {
		capture, err := s.paypal.CaptureOrder(ctx, ret.ProviderOrderID)
		if err != nil {
			return nil, err
		}
		return &capture.CaptureID, nil
	})
}

func (s *service) handlePaymobCallback(ctx context.Context, query url.Values) (*CallbackResult, error) {
	if s.paymob == nil {
		return nil, pkgerrors.New(pkgerrors.CodePayment, "paymob is not configured")
	}
	cb, err := paymob.ParseCallback(query)
	if err != nil {
		return nil, err
	}
	if cb.HMAC != "" && !s.paymob.VerifyHMAC(cb.Fields(), cb.HMAC) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "paymob callback signature mismatch")
	}
	if !cb.Approved() {
		s.abandon(ctx, cb.ProviderOrderID)
		return &CallbackResult{Outcome: OutcomeDeclined}, nil
	}

	transactionID := cb.TransactionID
	return s.commit(ctx, cb.ProviderOrderID, func(ctx context.Context, draft *Draft) (*string, error) {
		if transactionID == "" {
			return nil, nil
		}
		return &transactionID, nil
	})
}

// commit runs the dedup guard state machine around the order-creation step.
// capture is invoked only by the guard winner.
func (s *service) commit(ctx context.Context, providerOrderID string, capture func(context.Context, *Draft) (*string, error)) (*CallbackResult, error) {
	if providerOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider order id required")
	}

	claimed, err := s.claimGuard(ctx, providerOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim callback guard")
	}
	if !claimed {
		return s.resolveHeldGuard(ctx, providerOrderID)
	}

	// The guard is cleared on every exit so a failed commit can be retried.
	defer func() {
		if err := s.slots.Delete(context.WithoutCancel(ctx), providerOrderID, slots.SlotInflightGuard); err != nil {
			s.logg.Error(ctx, "clear callback guard failed", err)
		}
	}()

	var draft Draft
	err = slots.GetJSON(ctx, s.slots, providerOrderID, slots.SlotPendingDraft, &draft)
	if errors.Is(err, slots.ErrNotFound) {
		// A missing draft usually means an earlier callback already
		// committed it; answer with the recorded order while the marker
		// is still retained.
		var marker createdMarker
		markerErr := slots.GetJSON(ctx, s.slots, providerOrderID, slots.SlotCreatedMarker, &marker)
		if markerErr == nil {
			orderID := marker.OrderID
			return &CallbackResult{Outcome: OutcomeAlreadyCreated, OrderID: &orderID, Reference: marker.Reference}, nil
		}
		if !errors.Is(markerErr, slots.ErrNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, markerErr, "read created marker")
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending checkout for this payment")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending order draft")
	}

	captureID, err := capture(ctx, &draft)
	if err != nil {
		// Declined capture: drop the draft so the buyer can start over.
		if pkgerrors.As(err).Code() == pkgerrors.CodePayment {
			s.abandon(ctx, providerOrderID)
		}
		return nil, err
	}

	order, err := s.createOrder(ctx, &draft, providerOrderID, captureID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderMissing, err, "payment approved but order creation failed")
	}

	marker := createdMarker{
		ProviderOrderID: providerOrderID,
		OrderID:         order.ID,
		Reference:       draft.Reference,
		CreatedAt:       s.now(),
	}
	if err := slots.PutJSON(ctx, s.slots, providerOrderID, slots.SlotCreatedMarker, marker, s.cfg.CreatedMarkerRetention); err != nil {
		s.logg.Error(ctx, "write created marker failed", err)
	}

	s.cleanupAfterCommit(ctx, &draft, providerOrderID)

	lctx := s.logg.WithFields(ctx, map[string]any{
		"order_id":          order.ID,
		"order_reference":   draft.Reference,
		"provider_order_id": providerOrderID,
	})
	s.logg.Info(lctx, "order committed from payment callback")

	orderID := order.ID
	return &CallbackResult{Outcome: OutcomeCreated, OrderID: &orderID, Reference: draft.Reference}, nil
}

// claimGuard atomically claims the in-flight slot. A held guard older than
// the TTL is treated as abandoned and reclaimed.
func (s *service) claimGuard(ctx context.Context, providerOrderID string) (bool, error) {
	guard := guardRecord{ProviderOrderID: providerOrderID, Timestamp: s.now()}
	claimed, err := slots.ClaimJSON(ctx, s.slots, providerOrderID, slots.SlotInflightGuard, guard, s.cfg.GuardTTL)
	if err != nil || claimed {
		return claimed, err
	}

	var held guardRecord
	if err := slots.GetJSON(ctx, s.slots, providerOrderID, slots.SlotInflightGuard, &held); err != nil {
		if errors.Is(err, slots.ErrNotFound) {
			// Guard expired between the claim and the read; try once more.
			return slots.ClaimJSON(ctx, s.slots, providerOrderID, slots.SlotInflightGuard, guard, s.cfg.GuardTTL)
		}
		return false, err
	}
	if s.now().Sub(held.Timestamp) > s.cfg.GuardTTL {
		if err := s.slots.Delete(ctx, providerOrderID, slots.SlotInflightGuard); err != nil {
			return false, err
		}
		return slots.ClaimJSON(ctx, s.slots, providerOrderID, slots.SlotInflightGuard, guard, s.cfg.GuardTTL)
	}
	return false, nil
}

// resolveHeldGuard answers the losing handler: the committed order when the
// marker exists, otherwise "still confirming".
func (s *service) resolveHeldGuard(ctx context.Context, providerOrderID string) (*CallbackResult, error) {
	var marker createdMarker
	err := slots.GetJSON(ctx, s.slots, providerOrderID, slots.SlotCreatedMarker, &marker)
	if errors.Is(err, slots.ErrNotFound) {
		return &CallbackResult{Outcome: OutcomeConfirming}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read created marker")
	}
	orderID := marker.OrderID
	return &CallbackResult{Outcome: OutcomeAlreadyCreated, OrderID: &orderID, Reference: marker.Reference}, nil
}

func (s *service) createOrder(ctx context.Context, draft *Draft, providerOrderID string, captureID *string) (*models.Order, error) {
	items := make([]models.OrderLineItem, 0, len(draft.Items))
	for _, line := range draft.Items {
		items = append(items, models.OrderLineItem{
			ID:        uuid.New(),
			ProductID: line.ProductID,
			Title:     line.Title,
			UnitPrice: line.PriceSnapshot,
			Quantity:  line.Quantity,
			LineTotal: line.PriceSnapshot.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	order := &models.Order{
		ID:              uuid.New(),
		Reference:       draft.Reference,
		UserID:          draft.UserID,
		Status:          enums.OrderStatusPending,
		SubtotalAmount:  draft.SubtotalAmount,
		ShippingAmount:  draft.ShippingAmount,
		TotalAmount:     draft.TotalAmount,
		PaymentProvider: draft.Provider,
		PaymentStatus:   enums.PaymentStatusCompleted,
		ProviderOrderID: &providerOrderID,
		CaptureID:       captureID,
		ShippingAddress: draft.ShippingAddress,
		Items:           items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	for _, line := range draft.Items {
		if err := s.stock.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			// Oversold between validation and commit; the order stands, the
			// shortfall shows up in the low-stock scan.
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"product_id": line.ProductID,
				"quantity":   line.Quantity,
			}), "stock decrement failed after commit")
		}
	}
	return order, nil
}

// cleanupAfterCommit drops the staged slots and empties the cart.
func (s *service) cleanupAfterCommit(ctx context.Context, draft *Draft, providerOrderID string) {
	if err := s.slots.Delete(ctx, providerOrderID, slots.SlotPendingDraft); err != nil {
		s.logg.Error(ctx, "drop pending draft failed", err)
	}
	userScope := draft.UserID.String()
	if err := s.slots.Delete(ctx, userScope, slots.SlotPaymentMethod); err != nil {
		s.logg.Error(ctx, "drop payment method slot failed", err)
	}
	if err := s.slots.Delete(ctx, userScope, slots.SlotLastSession); err != nil {
		s.logg.Error(ctx, "drop payment session slot failed", err)
	}

	userID := draft.UserID
	if _, err := s.cart.Clear(ctx, cart.Session{Key: draft.CartSessionKey, UserID: &userID}); err != nil {
		s.logg.Error(ctx, "clear cart after commit failed", err)
	}
}

// abandon clears the draft and guard for a declined or cancelled payment so a
// fresh attempt can start.
func (s *service) abandon(ctx context.Context, providerOrderID string) {
	if providerOrderID == "" {
		return
	}
	if err := s.slots.Delete(ctx, providerOrderID, slots.SlotPendingDraft); err != nil {
		s.logg.Error(ctx, "drop pending draft failed", err)
	}
	if err := s.slots.Delete(ctx, providerOrderID, slots.SlotInflightGuard); err != nil {
		s.logg.Error(ctx, "drop callback guard failed", err)
	}
}
