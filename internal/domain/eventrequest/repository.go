package eventrequest

import (
	"context"

	"github.com/google/uuid"
)

// Filter controls event request listing.
type Filter struct {
	Status      *Status
	RequesterID *uuid.UUID
}

// Repository defines persistence for event requests. Update is conditional on
// Version and returns ErrVersionConflict when another writer got there first;
// on success the stored and in-memory versions are both incremented.
type Repository interface {
	Create(ctx context.Context, req *EventRequest) error
	GetByID(ctx context.Context, requestID uuid.UUID) (*EventRequest, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*EventRequest, error)
	Update(ctx context.Context, req *EventRequest) error
}
