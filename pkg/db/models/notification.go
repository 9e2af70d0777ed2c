package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oelhadidy/agrovet-backend/pkg/enums"
)

// Notification stores in-app notification payloads addressed to a user or a
// whole role (admins).
type Notification struct {
	ID            uuid.UUID                       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID   *uuid.UUID                      `gorm:"column:recipient_id;type:uuid;index:notifications_recipient_idx" json:"recipient_id,omitempty"`
	RecipientRole enums.NotificationRecipientRole `gorm:"column:recipient_role" json:"recipient_role,omitempty"`
	Type          enums.NotificationType          `gorm:"column:type;not null" json:"type"`
	Title         string                          `gorm:"column:title;not null" json:"title"`
	Message       string                          `gorm:"column:message;not null" json:"message"`
	Link          *string                         `gorm:"column:link" json:"link,omitempty"`
	ReadAt        *time.Time                      `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt     time.Time                       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
