package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/notification"
)

// AdminRole gates the admin notification channel.
const AdminRole = "admin"

// NotificationActions is the notification store surface reachable from the socket.
type NotificationActions interface {
	MarkRead(ctx context.Context, r notification.Recipient, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, r notification.Recipient) (int64, error)
	Delete(ctx context.Context, r notification.Recipient, notificationID uuid.UUID) error
	UnreadCount(ctx context.Context, r notification.Recipient) (int, error)
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Channel string          `json:"channel"`
}

type notificationRef struct {
	NotificationID uuid.UUID `json:"notificationId"`
}

type inboundHandler struct {
	registry *Registry
	store    NotificationActions
}

func recipientOf(c *Conn) notification.Recipient {
	return notification.Recipient{UserID: c.identity.UserID, Role: c.identity.RoleName}
}

func (h *inboundHandler) handle(ctx context.Context, c *Conn, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.fail(c, "Invalid message format")
		return
	}

	switch msg.Type {
	case "ping":
		h.registry.reply(c, Message{Type: "pong"})
	case "subscribe":
		if !validChannel(msg.Channel) {
			h.fail(c, "Unknown channel")
			return
		}
		c.subscribe(msg.Channel)
		h.registry.reply(c, Message{Type: "subscribed", Payload: map[string]interface{}{"channel": msg.Channel}})
		if msg.Channel == notification.ChannelUnreadCount {
			h.pushUnread(ctx, c)
		}
	case "unsubscribe":
		c.unsubscribe(msg.Channel)
		h.registry.reply(c, Message{Type: "unsubscribed", Payload: map[string]interface{}{"channel": msg.Channel}})
	case "subscribeUnreadCount":
		c.subscribe(notification.ChannelUnreadCount)
		h.registry.reply(c, Message{Type: "subscribed", Payload: map[string]interface{}{"channel": notification.ChannelUnreadCount}})
		h.pushUnread(ctx, c)
	case "subscribeAdminNotifications":
		if !c.identity.HasRole(AdminRole) {
			h.fail(c, "Admin role required")
			return
		}
		c.subscribe(notification.ChannelAdminNotifications)
		h.registry.reply(c, Message{Type: "subscribed", Payload: map[string]interface{}{"channel": notification.ChannelAdminNotifications}})
	case "markAsRead":
		ref, ok := h.ref(c, msg.Payload)
		if !ok {
			return
		}
		if h.store == nil || h.store.MarkRead(ctx, recipientOf(c), ref.NotificationID) != nil {
			h.fail(c, "Failed to mark notification as read")
			return
		}
		h.registry.reply(c, Message{Type: "notification_read", Payload: map[string]interface{}{"notificationId": ref.NotificationID}})
	case "markAllAsRead":
		if h.store == nil {
			h.fail(c, "Failed to mark notifications as read")
			return
		}
		n, err := h.store.MarkAllRead(ctx, recipientOf(c))
		if err != nil {
			h.fail(c, "Failed to mark notifications as read")
			return
		}
		h.registry.reply(c, Message{Type: "all_notifications_read", Payload: map[string]interface{}{"count": n}})
	case "deleteNotification":
		ref, ok := h.ref(c, msg.Payload)
		if !ok {
			return
		}
		if h.store == nil || h.store.Delete(ctx, recipientOf(c), ref.NotificationID) != nil {
			h.fail(c, "Failed to delete notification")
			return
		}
		h.registry.reply(c, Message{Type: "notification_deleted", Payload: map[string]interface{}{"notificationId": ref.NotificationID}})
	default:
		h.fail(c, "Unknown message type: "+msg.Type)
	}
}

func (h *inboundHandler) ref(c *Conn, raw json.RawMessage) (notificationRef, bool) {
	var ref notificationRef
	if err := json.Unmarshal(raw, &ref); err != nil || ref.NotificationID == uuid.Nil {
		h.fail(c, "notificationId is required")
		return ref, false
	}
	return ref, true
}

func (h *inboundHandler) pushUnread(ctx context.Context, c *Conn) {
	if h.store == nil {
		return
	}
	count, err := h.store.UnreadCount(ctx, recipientOf(c))
	if err != nil {
		h.registry.logger.Warn().Err(err).Str("conn_id", c.id).Msg("unread count")
		return
	}
	h.registry.reply(c, Message{Type: "unread_count", Payload: map[string]interface{}{"count": count}})
}

func (h *inboundHandler) fail(c *Conn, message string) {
	h.registry.reply(c, Message{Type: "error", Text: message})
}

func validChannel(channel string) bool {
	switch channel {
	case notification.ChannelNotifications, notification.ChannelUnreadCount:
		return true
	}
	return notification.IsEventRequestChannel(channel)
}
