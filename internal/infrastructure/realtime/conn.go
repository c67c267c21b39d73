package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Identity is who a connection authenticated as.
type Identity struct {
	UserID   uuid.UUID
	RoleID   uuid.UUID
	RoleName string
}

// HasRole matches a role by name or by id.
func (i Identity) HasRole(role string) bool {
	return role != "" && (i.RoleName == role || i.RoleID.String() == role)
}

// Conn is one live, authenticated socket.
type Conn struct {
	id          string
	ws          *websocket.Conn
	identity    Identity
	connectedAt time.Time

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	alive     atomic.Bool

	mu   sync.RWMutex
	subs map[string]struct{}
}

func newConn(ws *websocket.Conn, identity Identity, buffer int) *Conn {
	c := &Conn{
		id:          uuid.NewString()[:8],
		ws:          ws,
		identity:    identity,
		connectedAt: time.Now().UTC(),
		send:        make(chan []byte, buffer),
		done:        make(chan struct{}),
		subs:        make(map[string]struct{}),
	}
	c.alive.Store(true)
	return c
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Identity() Identity {
	return c.identity
}

func (c *Conn) ConnectedAt() time.Time {
	return c.connectedAt
}

func (c *Conn) open() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// shutdown releases the socket; safe to call more than once.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *Conn) subscribe(channel string) {
	c.mu.Lock()
	c.subs[channel] = struct{}{}
	c.mu.Unlock()
}

func (c *Conn) unsubscribe(channel string) {
	c.mu.Lock()
	delete(c.subs, channel)
	c.mu.Unlock()
}

func (c *Conn) Subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subs[channel]
	return ok
}

func trySend(c *Conn, data []byte) bool {
	if !c.open() {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
