package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	appAuth "github.com/event-market/event-market/internal/application/auth"
	"github.com/event-market/event-market/internal/infrastructure/realtime"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// serveWS upgrades first and authenticates second, so that a failed
// handshake can still report why through the close code.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	identity, err := s.authSvc.Authenticate(r.Context(), extractToken(r))
	if err != nil {
		s.registry.Reject(ws, closeCodeFor(err), err.Error())
		return
	}
	s.registry.Register(ws, realtime.Identity{
		UserID:   identity.UserID,
		RoleID:   identity.RoleID,
		RoleName: identity.RoleName,
	})
}

// closeCodeFor maps an authentication failure onto the close code a client
// can act on.
func closeCodeFor(err error) int {
	switch {
	case errors.Is(err, appAuth.ErrMissingToken):
		return realtime.CloseNoToken
	case errors.Is(err, appAuth.ErrTokenExpired):
		return realtime.CloseTokenExpired
	case errors.Is(err, appAuth.ErrInvalidToken), errors.Is(err, appAuth.ErrInvalidFormat):
		return realtime.CloseInvalidToken
	case errors.Is(err, appAuth.ErrUserNotFound), errors.Is(err, appAuth.ErrRoleNotFound):
		return realtime.CloseUnknownUser
	default:
		return realtime.CloseAuthError
	}
}
