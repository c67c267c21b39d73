package eventrequest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/apperr"
)

// Status represents the lifecycle of an event request.
type Status string

const (
	StatusOpen     Status = "open"
	StatusDealDone Status = "deal_done"
)

// ResponseStatus represents the state of one organizer's response.
type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseAccepted ResponseStatus = "accepted"
	ResponseRejected ResponseStatus = "rejected"
)

var (
	ErrNotFound          = fmt.Errorf("event request %w", apperr.ErrNotFound)
	ErrClosed            = fmt.Errorf("%w: event request is not open", apperr.ErrInvalidState)
	ErrDuplicateResponse = fmt.Errorf("%w: organizer already responded to this event request", apperr.ErrConflict)
	ErrResponseNotFound  = fmt.Errorf("organizer response %w", apperr.ErrNotFound)
	ErrResponseClosed    = fmt.Errorf("%w: organizer response is no longer pending", apperr.ErrInvalidState)
	ErrNotRequester      = fmt.Errorf("%w: only the requester may act on this event request", apperr.ErrUnauthorized)
	ErrVersionConflict   = fmt.Errorf("%w: event request was modified concurrently", apperr.ErrConflict)
	ErrInvalidBudget     = fmt.Errorf("%w: budget must be positive", apperr.ErrValidation)
)

// OrganizerResponse is an organizer's answer to an event request. It is
// embedded in the request and shares its lifetime.
type OrganizerResponse struct {
	OrganizerID    uuid.UUID      `json:"organizerId"`
	Message        string         `json:"message"`
	Status         ResponseStatus `json:"status"`
	ProposedBudget float64        `json:"proposedBudget"`
	RespondedAt    time.Time      `json:"respondedAt"`
}

// EventRequest is a user's ask for an organizer to run an event.
type EventRequest struct {
	ID                   int64               `json:"id"`
	RequestID            uuid.UUID           `json:"requestId"`
	RequesterID          uuid.UUID           `json:"requesterId"`
	EventType            string              `json:"eventType"`
	Venue                string              `json:"venue"`
	Budget               float64             `json:"budget"`
	EventDate            time.Time           `json:"eventDate"`
	Description          string              `json:"description"`
	Status               Status              `json:"status"`
	SelectedOrganizerID  *uuid.UUID          `json:"selectedOrganizerId,omitempty"`
	InterestedOrganizers []OrganizerResponse `json:"interestedOrganizers"`
	Version              int                 `json:"version"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

// New creates an open event request.
func New(requesterID uuid.UUID, eventType, venue string, budget float64, eventDate time.Time, description string) (*EventRequest, error) {
	if budget <= 0 {
		return nil, ErrInvalidBudget
	}
	if strings.TrimSpace(eventType) == "" {
		return nil, fmt.Errorf("%w: event type is required", apperr.ErrValidation)
	}
	now := time.Now().UTC()
	return &EventRequest{
		RequestID:            uuid.New(),
		RequesterID:          requesterID,
		EventType:            eventType,
		Venue:                venue,
		Budget:               budget,
		EventDate:            eventDate,
		Description:          description,
		Status:               StatusOpen,
		InterestedOrganizers: []OrganizerResponse{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func (r *EventRequest) IsOpen() bool {
	return r.Status == StatusOpen
}

func (r *EventRequest) IsRequester(userID uuid.UUID) bool {
	return r.RequesterID == userID
}

// Response returns the organizer's response, or nil.
func (r *EventRequest) Response(organizerID uuid.UUID) *OrganizerResponse {
	for i := range r.InterestedOrganizers {
		if r.InterestedOrganizers[i].OrganizerID == organizerID {
			return &r.InterestedOrganizers[i]
		}
	}
	return nil
}

// ResponseByBudget locates a response by its proposed budget. Only used for
// negotiations recorded before the organizer id was stored on the log; two
// organizers proposing the same amount make the result ambiguous, in which
// case the first match wins.
func (r *EventRequest) ResponseByBudget(amount float64) *OrganizerResponse {
	for i := range r.InterestedOrganizers {
		if r.InterestedOrganizers[i].ProposedBudget == amount {
			return &r.InterestedOrganizers[i]
		}
	}
	return nil
}

// AddResponse records an organizer's pending response.
func (r *EventRequest) AddResponse(organizerID uuid.UUID, message string, proposedBudget float64, now time.Time) error {
	if !r.IsOpen() {
		return ErrClosed
	}
	if r.Response(organizerID) != nil {
		return ErrDuplicateResponse
	}
	if proposedBudget <= 0 {
		return ErrInvalidBudget
	}
	r.InterestedOrganizers = append(r.InterestedOrganizers, OrganizerResponse{
		OrganizerID:    organizerID,
		Message:        message,
		Status:         ResponsePending,
		ProposedBudget: proposedBudget,
		RespondedAt:    now,
	})
	r.UpdatedAt = now
	return nil
}

// PendingResponse returns the organizer's response if it is still pending.
func (r *EventRequest) PendingResponse(organizerID uuid.UUID) (*OrganizerResponse, error) {
	resp := r.Response(organizerID)
	if resp == nil {
		return nil, ErrResponseNotFound
	}
	if resp.Status != ResponsePending {
		return nil, ErrResponseClosed
	}
	return resp, nil
}

// SetProposedBudget mirrors the latest negotiated amount onto a pending
// response.
func (r *EventRequest) SetProposedBudget(organizerID uuid.UUID, amount float64) error {
	resp, err := r.PendingResponse(organizerID)
	if err != nil {
		return err
	}
	resp.ProposedBudget = amount
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// AcceptResponse closes the deal with one organizer. Only a pending response
// can be accepted. Every other response is rejected so at most one response
// is ever accepted.
func (r *EventRequest) AcceptResponse(organizerID uuid.UUID) error {
	if !r.IsOpen() {
		return ErrClosed
	}
	if _, err := r.PendingResponse(organizerID); err != nil {
		return err
	}
	for i := range r.InterestedOrganizers {
		if r.InterestedOrganizers[i].OrganizerID == organizerID {
			r.InterestedOrganizers[i].Status = ResponseAccepted
		} else {
			r.InterestedOrganizers[i].Status = ResponseRejected
		}
	}
	r.Status = StatusDealDone
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// SelectOrganizer accepts the organizer's response and records the choice.
func (r *EventRequest) SelectOrganizer(organizerID uuid.UUID) error {
	if err := r.AcceptResponse(organizerID); err != nil {
		return err
	}
	id := organizerID
	r.SelectedOrganizerID = &id
	return nil
}

// RejectResponse rejects one organizer's response. When no response is left
// standing the request reopens.
func (r *EventRequest) RejectResponse(organizerID uuid.UUID) error {
	resp := r.Response(organizerID)
	if resp == nil {
		return ErrResponseNotFound
	}
	resp.Status = ResponseRejected
	r.reopenIfAllRejected()
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// AllRejected reports whether every recorded response is rejected.
func (r *EventRequest) AllRejected() bool {
	if len(r.InterestedOrganizers) == 0 {
		return false
	}
	for _, resp := range r.InterestedOrganizers {
		if resp.Status != ResponseRejected {
			return false
		}
	}
	return true
}

func (r *EventRequest) reopenIfAllRejected() {
	if r.AllRejected() {
		r.Status = StatusOpen
		r.SelectedOrganizerID = nil
	}
}

// Clone returns a deep copy so in-process stores never share slices with callers.
func (r *EventRequest) Clone() *EventRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.InterestedOrganizers = append([]OrganizerResponse(nil), r.InterestedOrganizers...)
	if r.SelectedOrganizerID != nil {
		id := *r.SelectedOrganizerID
		c.SelectedOrganizerID = &id
	}
	return &c
}
