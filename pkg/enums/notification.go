package enums

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationTypeOrderStatus NotificationType = "order_status"
	NotificationTypeLowStock    NotificationType = "low_stock"
	NotificationTypeRefill      NotificationType = "refill"
	NotificationTypeGeneral     NotificationType = "general"
)

// IsValid reports whether the type is known.
func (n NotificationType) IsValid() bool {
	switch n {
	case NotificationTypeOrderStatus, NotificationTypeLowStock, NotificationTypeRefill, NotificationTypeGeneral:
		return true
	}
	return false
}

// NotificationRecipientRole addresses notifications to a whole role instead of
// a single user.
type NotificationRecipientRole string

const (
	RecipientRoleAdmin NotificationRecipientRole = "admin"
	RecipientRoleNone  NotificationRecipientRole = ""
)
