package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/pagination"
)

// Service defines notification create/list/read operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Notification, error)
	NotifyUser(ctx context.Context, userID uuid.UUID, notifType, title, message string, link *string) error
	NotifyAdmins(ctx context.Context, notifType, title, message string, link *string) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipient Recipient, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipient Recipient) (int64, error)
}

type service struct {
	repo Repository
}

// CreateInput describes a notification to store. Exactly one of RecipientID
// and RecipientRole must be set.
type CreateInput struct {
	RecipientID   *uuid.UUID
	RecipientRole enums.NotificationRecipientRole
	Type          enums.NotificationType
	Title         string
	Message       string
	Link          *string
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Recipient  Recipient
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Notification, error) {
	if input.RecipientID == nil && input.RecipientRole == enums.RecipientRoleNone {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a recipient user or role is required")
	}
	if input.RecipientID != nil && input.RecipientRole != enums.RecipientRoleNone {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient user and role are mutually exclusive")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification type")
	}
	if input.Title == "" || input.Message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and message are required")
	}

	notification := &models.Notification{
		RecipientID:   input.RecipientID,
		RecipientRole: input.RecipientRole,
		Type:          input.Type,
		Title:         input.Title,
		Message:       input.Message,
		Link:          input.Link,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return notification, nil
}

// NotifyUser is the convenience used by order status changes.
func (s *service) NotifyUser(ctx context.Context, userID uuid.UUID, notifType, title, message string, link *string) error {
	_, err := s.Create(ctx, CreateInput{
		RecipientID: &userID,
		Type:        enums.NotificationType(notifType),
		Title:       title,
		Message:     message,
		Link:        link,
	})
	return err
}

// NotifyAdmins is the convenience used by the stock scans.
func (s *service) NotifyAdmins(ctx context.Context, notifType, title, message string, link *string) error {
	_, err := s.Create(ctx, CreateInput{
		RecipientRole: enums.RecipientRoleAdmin,
		Type:          enums.NotificationType(notifType),
		Title:         title,
		Message:       message,
		Link:          link,
	})
	return err
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Recipient.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient user id required")
	}

	query := listNotificationsParams{
		Recipient:  params.Recipient,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, recipient Recipient, notificationID uuid.UUID) error {
	if recipient.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipient, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipient Recipient) (int64, error) {
	if recipient.UserID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipient, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all notifications read")
	}
	return count, nil
}
