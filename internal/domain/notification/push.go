package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_pusher.go -package=mocks . Pusher

import (
	"strings"

	"github.com/google/uuid"
)

// Push is a real-time message. The dispatcher wraps it in the outbound
// envelope; Text becomes the envelope's top-level message.
type Push struct {
	Type    string
	Action  string
	Text    string
	Payload map[string]interface{}
}

// Pusher delivers pushes to live connections and reports how many sockets
// took them.
type Pusher interface {
	SendToUser(userID uuid.UUID, p Push) int
	SendToRole(role string, p Push) int
	SendToChannel(channel string, p Push) int
	SendToUserOnChannel(userID uuid.UUID, channel string, p Push) int
}

// Channels a live connection may subscribe to.
const (
	ChannelNotifications      = "notifications"
	ChannelUnreadCount        = "unread_count"
	ChannelAdminNotifications = "admin_notifications"
	channelEventRequestPrefix = "event_request:"
)

// EventRequestChannel names the channel carrying pushes about one event request.
func EventRequestChannel(eventRequestID uuid.UUID) string {
	return channelEventRequestPrefix + eventRequestID.String()
}

// IsEventRequestChannel reports whether channel names a valid event request channel.
func IsEventRequestChannel(channel string) bool {
	id, ok := strings.CutPrefix(channel, channelEventRequestPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
