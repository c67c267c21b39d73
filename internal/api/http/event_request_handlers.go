package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	appEventRequest "github.com/event-market/event-market/internal/application/eventrequest"
	"github.com/event-market/event-market/internal/domain/eventrequest"
)

type eventRequestCreateRequest struct {
	EventType   string    `json:"eventType" validate:"required,max=100"`
	Venue       string    `json:"venue" validate:"max=200"`
	Budget      float64   `json:"budget" validate:"gt=0"`
	EventDate   time.Time `json:"eventDate" validate:"required"`
	Description string    `json:"description" validate:"max=2000"`
}

type organizerRequest struct {
	OrganizerID uuid.UUID `json:"organizerId" validate:"required"`
}

func (s *Server) createEventRequest(w http.ResponseWriter, r *http.Request) {
	var req eventRequestCreateRequest
	if !s.bind(w, r, &req) {
		return
	}
	caller := authUserFromContext(r.Context())
	created, err := s.eventRequestSvc.Create(r.Context(), appEventRequest.CreateInput{
		RequesterID: caller.UserID,
		EventType:   req.EventType,
		Venue:       req.Venue,
		Budget:      req.Budget,
		EventDate:   req.EventDate,
		Description: req.Description,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

func (s *Server) listEventRequests(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 200)
	filter := eventrequest.Filter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := eventrequest.Status(v)
		if status != eventrequest.StatusOpen && status != eventrequest.StatusDealDone {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid status")
			return
		}
		filter.Status = &status
	}
	if r.URL.Query().Get("mine") == "true" {
		caller := authUserFromContext(r.Context())
		filter.RequesterID = &caller.UserID
	}
	list, err := s.eventRequestSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*eventrequest.EventRequest{}
	}
	respondData(w, http.StatusOK, list)
}

func (s *Server) getEventRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requestId")
		return
	}
	req, err := s.eventRequestSvc.Get(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, req)
}

func (s *Server) acceptEventRequest(w http.ResponseWriter, r *http.Request) {
	s.decideEventRequest(w, r, s.eventRequestSvc.AcceptEventRequest)
}

func (s *Server) rejectEventRequest(w http.ResponseWriter, r *http.Request) {
	s.decideEventRequest(w, r, s.eventRequestSvc.RejectEventRequest)
}

func (s *Server) selectOrganizer(w http.ResponseWriter, r *http.Request) {
	s.decideEventRequest(w, r, s.eventRequestSvc.SelectOrganizer)
}

type eventRequestDecision func(ctx context.Context, requestID, organizerID, actingUserID uuid.UUID) (*eventrequest.EventRequest, error)

func (s *Server) decideEventRequest(w http.ResponseWriter, r *http.Request, decide eventRequestDecision) {
	id, err := parseUUIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requestId")
		return
	}
	var req organizerRequest
	if !s.bind(w, r, &req) {
		return
	}
	caller := authUserFromContext(r.Context())
	updated, err := decide(r.Context(), id, req.OrganizerID, caller.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

func (s *Server) listEventRequestNegotiations(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requestId")
		return
	}
	caller := authUserFromContext(r.Context())
	list, err := s.negotiationSvc.GetEventRequestNegotiations(r.Context(), id, caller.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, list)
}
