package negotiation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/eventrequest"
)

// Repository defines persistence for negotiation logs.
//
// Create and Update write the log and, when req is non-nil, its parent event
// request in one atomic step. Both writes are conditional on the Version each
// document was read at; a lost race yields ErrVersionConflict (or
// eventrequest.ErrVersionConflict) and nothing is written.
type Repository interface {
	Create(ctx context.Context, n *Negotiation, req *eventrequest.EventRequest) error
	Update(ctx context.Context, n *Negotiation, req *eventrequest.EventRequest) error
	GetByID(ctx context.Context, negotiationID uuid.UUID) (*Negotiation, error)
	ListByEventRequest(ctx context.Context, eventRequestID uuid.UUID) ([]*Negotiation, error)
	LatestByStatus(ctx context.Context, eventRequestID uuid.UUID, status Status) (*Negotiation, error)
	ListStale(ctx context.Context, updatedBefore time.Time, limit int) ([]*Negotiation, error)
}
