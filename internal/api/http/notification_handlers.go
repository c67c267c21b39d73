package httpapi

import (
	"net/http"

	"github.com/event-market/event-market/internal/domain/notification"
)

func recipientFrom(u *AuthUser) notification.Recipient {
	return notification.Recipient{UserID: u.UserID, Role: u.RoleName}
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 200)
	filter := notification.Filter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := notification.Status(v)
		if status != notification.StatusUnread && status != notification.StatusRead {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid status")
			return
		}
		filter.Status = &status
	}
	if v := r.URL.Query().Get("type"); v != "" {
		typ := notification.Type(v)
		filter.Type = &typ
	}
	rcpt := recipientFrom(authUserFromContext(r.Context()))
	list, err := s.notificationSvc.List(r.Context(), rcpt, filter, limit, offset)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*notification.Notification{}
	}
	respondData(w, http.StatusOK, list)
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	rcpt := recipientFrom(authUserFromContext(r.Context()))
	count, err := s.notificationSvc.UnreadCount(r.Context(), rcpt)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "notificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid notificationId")
		return
	}
	rcpt := recipientFrom(authUserFromContext(r.Context()))
	if err := s.notificationSvc.MarkRead(r.Context(), rcpt, id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"notificationId": id})
}

func (s *Server) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	rcpt := recipientFrom(authUserFromContext(r.Context()))
	count, err := s.notificationSvc.MarkAllRead(r.Context(), rcpt)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"count": count})
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "notificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid notificationId")
		return
	}
	rcpt := recipientFrom(authUserFromContext(r.Context()))
	if err := s.notificationSvc.Delete(r.Context(), rcpt, id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"notificationId": id})
}
