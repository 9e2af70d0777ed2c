package controllers

import (
	"net/http"

	"github.com/oelhadidy/agrovet-backend/api/middleware"
	"github.com/oelhadidy/agrovet-backend/api/responses"
	"github.com/oelhadidy/agrovet-backend/api/validators"
	"github.com/oelhadidy/agrovet-backend/internal/notifications"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// recipientFromRequest resolves who the inbox belongs to. Admin accounts also
// receive the role-addressed back-office feed.
func recipientFromRequest(r *http.Request) (notifications.Recipient, error) {
	userID, err := requireUserID(r)
	if err != nil {
		return notifications.Recipient{}, err
	}
	recipient := notifications.Recipient{UserID: userID}
	if middleware.RoleFromContext(r.Context()) == string(enums.UserRoleAdmin) {
		recipient.Role = enums.UserRoleAdmin
	}
	return recipient, nil
}

// NotificationsList pages the recipient's inbox.
func NotificationsList(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipient, err := recipientFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), notifications.ListParams{
			Recipient:  recipient,
			Limit:      page.Limit,
			Cursor:     page.Cursor,
			UnreadOnly: r.URL.Query().Get("unread_only") == "true",
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// NotificationMarkRead marks one notification as read.
func NotificationMarkRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipient, err := recipientFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := validators.ParseURLUUID(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), recipient, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

// NotificationsMarkAllRead marks the whole inbox as read.
func NotificationsMarkAllRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipient, err := recipientFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.MarkAllRead(r.Context(), recipient)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}
