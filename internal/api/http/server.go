package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAuth "github.com/event-market/event-market/internal/application/auth"
	appEventRequest "github.com/event-market/event-market/internal/application/eventrequest"
	appNegotiation "github.com/event-market/event-market/internal/application/negotiation"
	appNotification "github.com/event-market/event-market/internal/application/notification"
	appUser "github.com/event-market/event-market/internal/application/user"
	"github.com/event-market/event-market/internal/domain/apperr"
	domainUser "github.com/event-market/event-market/internal/domain/user"
	"github.com/event-market/event-market/internal/infrastructure/realtime"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authSvc         *appAuth.Service
	userSvc         *appUser.Service
	eventRequestSvc *appEventRequest.Service
	negotiationSvc  *appNegotiation.Service
	notificationSvc *appNotification.Service
	registry        *realtime.Registry
	validate        *requestValidator
	logger          zerolog.Logger
}

func NewServer(
	authSvc *appAuth.Service,
	userSvc *appUser.Service,
	eventRequestSvc *appEventRequest.Service,
	negotiationSvc *appNegotiation.Service,
	notificationSvc *appNotification.Service,
	registry *realtime.Registry,
	logger zerolog.Logger,
) *Server {
	return &Server{
		authSvc:         authSvc,
		userSvc:         userSvc,
		eventRequestSvc: eventRequestSvc,
		negotiationSvc:  negotiationSvc,
		notificationSvc: notificationSvc,
		registry:        registry,
		validate:        newRequestValidator(),
		logger:          logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// The socket outlives any request timeout, so it is mounted outside it.
	r.Get("/v1/ws", s.serveWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", s.login)
				r.Post("/register", s.register)
				r.Group(func(r chi.Router) {
					r.Use(s.requireAuth)
					r.Get("/me", s.me)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)

				r.With(s.requireRole(domainUser.RoleAdmin)).Post("/users", s.createUser)

				r.Route("/event-requests", func(r chi.Router) {
					r.Post("/", s.createEventRequest)
					r.Get("/", s.listEventRequests)
					r.Get("/{requestId}", s.getEventRequest)
					r.Post("/{requestId}/accept", s.acceptEventRequest)
					r.Post("/{requestId}/reject", s.rejectEventRequest)
					r.Post("/{requestId}/select", s.selectOrganizer)
					r.Get("/{requestId}/negotiations", s.listEventRequestNegotiations)
				})

				r.Route("/negotiations", func(r chi.Router) {
					r.With(s.requireRole(domainUser.RoleOrganizer)).Post("/", s.startNegotiation)
					r.Post("/price-analysis", s.priceAnalysis)
					r.With(s.requireRole(domainUser.RoleAgent, domainUser.RoleAdmin)).Post("/ai-response", s.receiveAIResponse)
					r.Get("/{negotiationId}", s.getNegotiation)
					r.Post("/{negotiationId}/counter", s.counterOffer)
					r.Post("/{negotiationId}/accept", s.acceptOffer)
					r.Post("/{negotiationId}/reject", s.rejectOffer)
					r.Post("/{negotiationId}/cancel", s.cancelNegotiation)
				})

				r.Route("/notifications", func(r chi.Router) {
					r.Get("/", s.listNotifications)
					r.Get("/unread-count", s.unreadCount)
					r.Post("/read-all", s.markAllNotificationsRead)
					r.Post("/{notificationId}/read", s.markNotificationRead)
					r.Delete("/{notificationId}", s.deleteNotification)
				})
			})
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondData wraps a successful result in the {success, data} envelope.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondServiceError maps an application error onto a status by its kind.
// Unclassified errors are logged and reported without detail.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "INVALID_PARAM",
			"message": verr.Error(),
			"fields":  verr.Fields,
		})
		return
	}
	switch apperr.Kind(err) {
	case apperr.ErrNotFound:
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case apperr.ErrUnauthorized:
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case apperr.ErrInvalidState:
		respondError(w, http.StatusConflict, "INVALID_STATE", err.Error())
	case apperr.ErrConflict:
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case apperr.ErrValidation:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	default:
		s.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// bind decodes the body into v and validates it.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeBody(r, v); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.respondServiceError(w, r, err)
		return false
	}
	return true
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
