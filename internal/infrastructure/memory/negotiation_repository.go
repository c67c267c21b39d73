package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/eventrequest"
	"github.com/event-market/event-market/internal/domain/negotiation"
)

// NegotiationRepository implements negotiation.Repository.
type NegotiationRepository struct {
	s *Store
}

func (r *NegotiationRepository) Create(_ context.Context, n *negotiation.Negotiation, req *eventrequest.EventRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req != nil {
		if err := r.s.checkRequestVersion(req); err != nil {
			return err
		}
		r.s.putRequest(req)
	}
	n.ID = r.s.nextID()
	n.Version = 1
	r.s.negotiations[n.NegotiationID] = n.Clone()
	return nil
}

func (r *NegotiationRepository) Update(_ context.Context, n *negotiation.Negotiation, req *eventrequest.EventRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.negotiations[n.NegotiationID]
	if !ok {
		return negotiation.ErrNotFound
	}
	if stored.Version != n.Version {
		return negotiation.ErrVersionConflict
	}
	if req != nil {
		if err := r.s.checkRequestVersion(req); err != nil {
			return err
		}
		r.s.putRequest(req)
	}
	n.Version++
	r.s.negotiations[n.NegotiationID] = n.Clone()
	return nil
}

func (r *NegotiationRepository) GetByID(_ context.Context, negotiationID uuid.UUID) (*negotiation.Negotiation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.negotiations[negotiationID].Clone(), nil
}

func (r *NegotiationRepository) ListByEventRequest(_ context.Context, eventRequestID uuid.UUID) ([]*negotiation.Negotiation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*negotiation.Negotiation
	for _, n := range r.s.negotiations {
		if n.EventRequestID == eventRequestID {
			out = append(out, n.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *NegotiationRepository) LatestByStatus(_ context.Context, eventRequestID uuid.UUID, status negotiation.Status) (*negotiation.Negotiation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *negotiation.Negotiation
	for _, n := range r.s.negotiations {
		if n.EventRequestID != eventRequestID || n.Status != status {
			continue
		}
		if latest == nil || n.CreatedAt.After(latest.CreatedAt) || (n.CreatedAt.Equal(latest.CreatedAt) && n.ID > latest.ID) {
			latest = n
		}
	}
	return latest.Clone(), nil
}

func (r *NegotiationRepository) ListStale(_ context.Context, updatedBefore time.Time, limit int) ([]*negotiation.Negotiation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*negotiation.Negotiation
	for _, n := range r.s.negotiations {
		if n.IsTerminal() || !n.UpdatedAt.Before(updatedBefore) {
			continue
		}
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return page(out, limit, 0), nil
}

func sortNewestFirst(items []*negotiation.Negotiation) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
