package negotiation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/apperr"
)

// Type is what the parties are negotiating about.
type Type string

const (
	TypePrice        Type = "price"
	TypeDates        Type = "dates"
	TypeVenue        Type = "venue"
	TypeTerms        Type = "terms"
	TypeEventRequest Type = "event_request"
)

// Party tags the author of a history entry.
type Party string

const (
	PartyUser      Party = "user"
	PartyOrganizer Party = "organizer"
	PartyAI        Party = "ai"
)

// Status represents negotiation status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCountered Status = "countered"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Metadata keys. The log has no column for the organizer, so its identity
// travels in the metadata bag together with advisory output.
const (
	MetaOrganizerID  = "organizerId"
	MetaAISuggestion = "aiSuggestion"
	MetaAIResponse   = "aiResponse"
	MetaAIAgentID    = "aiAgentId"
	MetaClosedBy     = "closedBy"
)

var (
	ErrNotFound               = fmt.Errorf("negotiation %w", apperr.ErrNotFound)
	ErrOrganizerOfferNotFound = fmt.Errorf("organizer offer %w", apperr.ErrNotFound)
	ErrUnauthorized           = fmt.Errorf("%w: caller is not a party to this negotiation", apperr.ErrUnauthorized)
	ErrTerminal               = fmt.Errorf("%w: negotiation is already closed", apperr.ErrInvalidState)
	ErrInvalidTransition      = fmt.Errorf("%w: invalid negotiation status transition", apperr.ErrInvalidState)
	ErrOwnOffer               = fmt.Errorf("%w: a party cannot accept its own offer", apperr.ErrInvalidState)
	ErrInvalidOffer           = fmt.Errorf("%w: offer must be positive", apperr.ErrValidation)
	ErrVersionConflict        = fmt.Errorf("%w: negotiation was modified concurrently", apperr.ErrConflict)
)

// Round is one entry in the negotiation history.
type Round struct {
	Round     int       `json:"round"`
	Offer     float64   `json:"offer"`
	Party     Party     `json:"party"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Negotiation is the authoritative record of one offer thread.
type Negotiation struct {
	ID               int64                  `json:"id"`
	NegotiationID    uuid.UUID              `json:"negotiationId"`
	EventRequestID   uuid.UUID              `json:"eventRequestId"`
	Type             Type                   `json:"negotiationType"`
	NegotiationRound int                    `json:"negotiationRound"`
	History          []Round                `json:"history"`
	Status           Status                 `json:"status"`
	InitialOffer     float64                `json:"initialOffer"`
	FinalOffer       *float64               `json:"finalOffer,omitempty"`
	Metadata         map[string]interface{} `json:"metadata"`
	Version          int                    `json:"version"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// Start opens a thread with the organizer's first offer as round 1.
func Start(eventRequestID, organizerID uuid.UUID, offer float64, message string, now time.Time) (*Negotiation, error) {
	if offer <= 0 {
		return nil, ErrInvalidOffer
	}
	return &Negotiation{
		NegotiationID:    uuid.New(),
		EventRequestID:   eventRequestID,
		Type:             TypeEventRequest,
		NegotiationRound: 1,
		History: []Round{{
			Round:     1,
			Offer:     offer,
			Party:     PartyOrganizer,
			Message:   message,
			Timestamp: now,
		}},
		Status:       StatusPending,
		InitialOffer: offer,
		Metadata: map[string]interface{}{
			MetaOrganizerID: organizerID.String(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanTransitionTo checks if a transition to the target status is valid.
func (n *Negotiation) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusCountered, StatusAccepted, StatusRejected, StatusCancelled, StatusExpired},
		StatusCountered: {StatusCountered, StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusExpired},
		StatusAccepted:  {},
		StatusRejected:  {},
		StatusCancelled: {},
		StatusExpired:   {},
	}
	allowed, ok := transitions[n.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true once the thread can no longer change.
func (n *Negotiation) IsTerminal() bool {
	switch n.Status {
	case StatusAccepted, StatusRejected, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Latest returns the most recent history entry.
func (n *Negotiation) Latest() Round {
	if len(n.History) == 0 {
		return Round{}
	}
	return n.History[len(n.History)-1]
}

// OrganizerID returns the organizer recorded at creation time.
func (n *Negotiation) OrganizerID() (uuid.UUID, bool) {
	raw, ok := n.Metadata[MetaOrganizerID]
	if !ok {
		return uuid.Nil, false
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetMeta stores a value in the metadata bag.
func (n *Negotiation) SetMeta(key string, value interface{}) {
	if n.Metadata == nil {
		n.Metadata = map[string]interface{}{}
	}
	n.Metadata[key] = value
}

// Counter appends a new offer. The round number always derives from the
// stored history, never from the caller.
func (n *Negotiation) Counter(party Party, offer float64, message string, now time.Time) error {
	if n.IsTerminal() {
		return ErrTerminal
	}
	if offer <= 0 {
		return ErrInvalidOffer
	}
	if !n.CanTransitionTo(StatusCountered) {
		return ErrInvalidTransition
	}
	n.History = append(n.History, Round{
		Round:     len(n.History) + 1,
		Offer:     offer,
		Party:     party,
		Message:   message,
		Timestamp: now,
	})
	n.NegotiationRound = len(n.History)
	n.Status = StatusCountered
	n.UpdatedAt = now
	return nil
}

// Accept closes the thread on the latest offer.
func (n *Negotiation) Accept(party Party, now time.Time) error {
	if n.IsTerminal() {
		return ErrTerminal
	}
	if n.Latest().Party == party {
		return ErrOwnOffer
	}
	if !n.CanTransitionTo(StatusAccepted) || n.FinalOffer != nil {
		return ErrInvalidTransition
	}
	final := n.Latest().Offer
	n.FinalOffer = &final
	n.Status = StatusAccepted
	n.SetMeta(MetaClosedBy, string(party))
	n.UpdatedAt = now
	return nil
}

// Reject closes the thread without a deal.
func (n *Negotiation) Reject(party Party, now time.Time) error {
	return n.close(StatusRejected, string(party), now)
}

// Cancel withdraws the thread.
func (n *Negotiation) Cancel(party Party, now time.Time) error {
	return n.close(StatusCancelled, string(party), now)
}

// Expire closes a thread that went stale.
func (n *Negotiation) Expire(now time.Time) error {
	return n.close(StatusExpired, "system", now)
}

func (n *Negotiation) close(target Status, by string, now time.Time) error {
	if n.IsTerminal() {
		return ErrTerminal
	}
	if !n.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	n.Status = target
	n.SetMeta(MetaClosedBy, by)
	n.UpdatedAt = now
	return nil
}

// Clone returns a copy that shares no slices or maps with n.
func (n *Negotiation) Clone() *Negotiation {
	if n == nil {
		return nil
	}
	c := *n
	c.History = append([]Round(nil), n.History...)
	if n.FinalOffer != nil {
		f := *n.FinalOffer
		c.FinalOffer = &f
	}
	c.Metadata = make(map[string]interface{}, len(n.Metadata))
	for k, v := range n.Metadata {
		c.Metadata[k] = v
	}
	return &c
}
