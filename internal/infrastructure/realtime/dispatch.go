package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SendToUser delivers msg to every live connection of userID and returns how
// many sockets accepted it. Offline users receive nothing; there is no queue.
func (r *Registry) SendToUser(userID uuid.UUID, msg Message) int {
	return r.dispatch(msg, func(c *Conn) bool { return c.identity.UserID == userID })
}

// SendToRole delivers msg to every connection whose role matches by name or id.
func (r *Registry) SendToRole(role string, msg Message) int {
	return r.dispatch(msg, func(c *Conn) bool { return c.identity.HasRole(role) })
}

// SendToChannel delivers msg to every connection subscribed to channel.
func (r *Registry) SendToChannel(channel string, msg Message) int {
	return r.dispatch(msg, func(c *Conn) bool { return c.Subscribed(channel) })
}

// SendToUserOnChannel delivers msg to the connections of userID that
// subscribed to channel.
func (r *Registry) SendToUserOnChannel(userID uuid.UUID, channel string, msg Message) int {
	return r.dispatch(msg, func(c *Conn) bool {
		return c.identity.UserID == userID && c.Subscribed(channel)
	})
}

// CountForUser returns how many live sockets userID holds.
func (r *Registry) CountForUser(userID uuid.UUID) int {
	return len(r.snapshot(func(c *Conn) bool { return c.identity.UserID == userID }))
}

func (r *Registry) dispatch(msg Message, match func(*Conn) bool) int {
	data, err := json.Marshal(Wrap(msg, time.Now()))
	if err != nil {
		r.logger.Error().Err(err).Str("type", msg.Type).Msg("encode push")
		return 0
	}
	delivered := 0
	for _, c := range r.snapshot(match) {
		if trySend(c, data) {
			delivered++
			continue
		}
		// Closed sockets and consumers with a full buffer are swept here.
		r.Deregister(c)
	}
	return delivered
}

// reply sends an envelope to a single connection.
func (r *Registry) reply(c *Conn, msg Message) {
	data, err := json.Marshal(Wrap(msg, time.Now()))
	if err != nil {
		return
	}
	if !trySend(c, data) {
		r.Deregister(c)
	}
}
