package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/internal/notifications"
	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
	"github.com/oelhadidy/agrovet-backend/pkg/pagination"
	"github.com/oelhadidy/agrovet-backend/pkg/pubsub"
)

// Notifier is the slice of the notifications service order flows use.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, notifType, title, message string, link *string) error
}

// EventPublisher emits order lifecycle events. Publishing is best effort and
// never fails the operation that triggered it.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event pubsub.OrderEvent) error
}

// Service exposes order reads and the status transition flow.
type Service interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	GetByReference(ctx context.Context, reference string) (*models.Order, error)
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (OrderPage, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	Repo      *Repository
	Notifier  Notifier
	Publisher EventPublisher
	Logger    *logger.Logger
}

type service struct {
	repo      *Repository
	notifier  Notifier
	publisher EventPublisher
	logg      *logger.Logger
}

// NewService validates dependencies and builds the service. Publisher may be
// nil when event delivery is disabled.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders notifier required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders logger required")
	}
	return &service{
		repo:      params.Repo,
		notifier:  params.Notifier,
		publisher: params.Publisher,
		logg:      params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, order *models.Order) error {
	if order == nil || order.Reference == "" || order.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order reference and user are required")
	}
	if len(order.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one line item")
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return err
	}

	s.publishEvent(ctx, "order.created", order)
	return nil
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// GetForUser loads an order and hides other buyers' orders behind a 404.
func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *service) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Order, error) {
	return s.repo.GetByProviderOrderID(ctx, providerOrderID)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (OrderPage, error) {
	return s.repo.ListByUser(ctx, userID, params)
}

// allowedTransitions restricts lifecycle moves to forward steps plus
// cancellation before shipping.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered},
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", status))
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if !transitionAllowed(order.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	order.Status = status

	link := fmt.Sprintf("/orders/%s", order.ID)
	message := fmt.Sprintf("Order %s is now %s.", order.Reference, status)
	if err := s.notifier.NotifyUser(ctx, order.UserID, string(enums.NotificationTypeOrderStatus), "Order update", message, &link); err != nil {
		s.logg.Error(s.logg.WithOrderReference(ctx, order.Reference), "order status notification failed", err)
	}

	s.publishEvent(ctx, "order.status_changed", order)
	return order, nil
}

func (s *service) publishEvent(ctx context.Context, eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := pubsub.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID.String(),
		Reference:  order.Reference,
		Status:     string(order.Status),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logg.Error(s.logg.WithOrderReference(ctx, order.Reference), "order event publish failed", err)
	}
}

var _ Notifier = (notifications.Service)(nil)
