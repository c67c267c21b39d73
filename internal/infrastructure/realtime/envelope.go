package realtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/notification"
)

// Message is what callers hand to the dispatcher.
type Message = notification.Push

// Envelope is the wire shape of every outbound push.
type Envelope struct {
	Type    string                 `json:"type"`
	Action  string                 `json:"action,omitempty"`
	Message string                 `json:"message,omitempty"`
	Payload map[string]interface{} `json:"payload"`
}

// Wrap copies the caller payload and stamps it with a server timestamp and a
// fresh correlation id. Caller-supplied values for either key are replaced.
func Wrap(msg Message, now time.Time) Envelope {
	payload := make(map[string]interface{}, len(msg.Payload)+2)
	for k, v := range msg.Payload {
		payload[k] = v
	}
	payload["timestamp"] = now.UTC().Format(time.RFC3339Nano)
	payload["correlationId"] = uuid.NewString()
	return Envelope{Type: msg.Type, Action: msg.Action, Message: msg.Text, Payload: payload}
}
