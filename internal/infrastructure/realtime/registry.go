// Package realtime keeps the roster of live WebSocket clients and delivers
// enveloped pushes to them by user, role or channel.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Options configures a Registry.
type Options struct {
	HeartbeatInterval time.Duration
	RosterInterval    time.Duration
}

// Registry is the set of live connections. One instance is built at startup
// and injected wherever pushes are sent.
type Registry struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}

	heartbeat time.Duration
	roster    time.Duration
	inbound   *inboundHandler
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRegistry(opts Options, logger zerolog.Logger) *Registry {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 30 * time.Second
	}
	if opts.RosterInterval <= 0 {
		opts.RosterInterval = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		conns:     make(map[*Conn]struct{}),
		heartbeat: opts.HeartbeatInterval,
		roster:    opts.RosterInterval,
		logger:    logger.With().Str("component", "realtime").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
	r.inbound = &inboundHandler{registry: r}
	return r
}

// UseNotifications wires the store used by inbound client messages.
func (r *Registry) UseNotifications(store NotificationActions) {
	r.inbound.store = store
}

// Init starts the periodic roster summary.
func (r *Registry) Init(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.roster)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				r.logRoster()
			}
		}
	}()
}

// Shutdown closes every connection with the going-away code and waits for
// the per-connection goroutines to exit. Sockets registered afterwards are
// closed with the same code.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	for _, c := range r.snapshot(func(*Conn) bool { return true }) {
		closeWith(c.ws, CloseShutdown, "server shutdown")
		r.Deregister(c)
	}
	r.wg.Wait()
}

// Reject closes an unauthenticated socket with a diagnosable code. Nothing
// is registered.
func (r *Registry) Reject(ws *websocket.Conn, code int, reason string) {
	r.logger.Info().Int("close_code", code).Str("reason", reason).Msg("connection rejected")
	closeWith(ws, code, reason)
	_ = ws.Close()
}

// Register adds an authenticated socket and starts its pumps and heartbeat.
// It returns nil once the registry has shut down.
func (r *Registry) Register(ws *websocket.Conn, identity Identity) *Conn {
	c := newConn(ws, identity, sendBuffer)

	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		r.logger.Info().Str("user_id", identity.UserID.String()).Msg("connection refused during shutdown")
		closeWith(ws, CloseShutdown, "server shutdown")
		_ = ws.Close()
		return nil
	}
	r.conns[c] = struct{}{}
	total := len(r.conns)
	r.wg.Add(2)
	r.mu.Unlock()

	r.logger.Info().
		Str("conn_id", c.id).
		Str("user_id", identity.UserID.String()).
		Str("role", identity.RoleName).
		Int("total", total).
		Msg("connected")

	go r.readPump(c)
	go r.writePump(c)
	return c
}

// Deregister removes c and releases its socket. Calling it again is a no-op.
func (r *Registry) Deregister(c *Conn) {
	r.mu.Lock()
	_, ok := r.conns[c]
	delete(r.conns, c)
	total := len(r.conns)
	r.mu.Unlock()

	c.shutdown()
	if ok {
		r.logger.Info().
			Str("conn_id", c.id).
			Str("user_id", c.identity.UserID.String()).
			Dur("lifetime", time.Since(c.connectedAt)).
			Int("total", total).
			Msg("disconnected")
	}
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) snapshot(match func(*Conn) bool) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) logRoster() {
	conns := r.snapshot(func(*Conn) bool { return true })
	byRole := zerolog.Dict()
	counts := map[string]int{}
	users := map[string]struct{}{}
	for _, c := range conns {
		counts[c.identity.RoleName]++
		users[c.identity.UserID.String()] = struct{}{}
	}
	for role, n := range counts {
		byRole.Int(role, n)
	}
	r.logger.Info().
		Int("connections", len(conns)).
		Int("users", len(users)).
		Dict("by_role", byRole).
		Msg("roster")
}

func (r *Registry) readPump(c *Conn) {
	defer func() {
		r.Deregister(c)
		r.wg.Done()
	}()
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return nil
	})
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Debug().Err(err).Str("conn_id", c.id).Msg("read failed")
			}
			return
		}
		r.inbound.handle(r.ctx, c, data)
	}
}

// writePump is the only writer of data frames. It also drives the heartbeat:
// a connection that has not answered the previous ping by the next tick is
// dropped.
func (r *Registry) writePump(c *Conn) {
	ticker := time.NewTicker(r.heartbeat)
	defer func() {
		ticker.Stop()
		r.Deregister(c)
		r.wg.Done()
	}()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				r.logger.Debug().Err(err).Str("conn_id", c.id).Msg("write failed")
				return
			}
		case <-ticker.C:
			if !c.alive.Swap(false) {
				r.logger.Info().Str("conn_id", c.id).Msg("heartbeat missed")
				return
			}
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func closeWith(ws *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
