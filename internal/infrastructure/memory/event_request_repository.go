package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/eventrequest"
)

// EventRequestRepository implements eventrequest.Repository.
type EventRequestRepository struct {
	s *Store
}

func (r *EventRequestRepository) Create(_ context.Context, req *eventrequest.EventRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.ID = r.s.nextID()
	req.Version = 1
	r.s.requests[req.RequestID] = req.Clone()
	return nil
}

func (r *EventRequestRepository) GetByID(_ context.Context, requestID uuid.UUID) (*eventrequest.EventRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.requests[requestID].Clone(), nil
}

func (r *EventRequestRepository) List(_ context.Context, filter eventrequest.Filter, limit, offset int) ([]*eventrequest.EventRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*eventrequest.EventRequest
	for _, req := range r.s.requests {
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.RequesterID != nil && req.RequesterID != *filter.RequesterID {
			continue
		}
		out = append(out, req.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r *EventRequestRepository) Update(_ context.Context, req *eventrequest.EventRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkRequestVersion(req); err != nil {
		return err
	}
	r.s.putRequest(req)
	return nil
}

// checkRequestVersion must be called with the lock held.
func (s *Store) checkRequestVersion(req *eventrequest.EventRequest) error {
	stored, ok := s.requests[req.RequestID]
	if !ok {
		return eventrequest.ErrNotFound
	}
	if stored.Version != req.Version {
		return eventrequest.ErrVersionConflict
	}
	return nil
}

func (s *Store) putRequest(req *eventrequest.EventRequest) {
	req.Version++
	s.requests[req.RequestID] = req.Clone()
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
