package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/event-market/event-market/internal/domain/eventrequest"
)

// EventRequestRepository implements eventrequest.Repository.
type EventRequestRepository struct {
	pool *pgxpool.Pool
}

func NewEventRequestRepository(pool *pgxpool.Pool) *EventRequestRepository {
	return &EventRequestRepository{pool: pool}
}

const eventRequestColumns = `id, request_id, requester_id, event_type, venue, budget, event_date, description, status, selected_organizer_id, interested_organizers, version, created_at, updated_at`

func (r *EventRequestRepository) Create(ctx context.Context, req *eventrequest.EventRequest) error {
	organizers, err := json.Marshal(responsesOrEmpty(req.InterestedOrganizers))
	if err != nil {
		return err
	}
	req.Version = 1
	return r.pool.QueryRow(ctx, `
		INSERT INTO event_requests
		(request_id, requester_id, event_type, venue, budget, event_date, description, status, selected_organizer_id, interested_organizers, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id
	`, req.RequestID, req.RequesterID, req.EventType, req.Venue, req.Budget, req.EventDate, req.Description, req.Status, req.SelectedOrganizerID, organizers, req.Version, req.CreatedAt, req.UpdatedAt).Scan(&req.ID)
}

func (r *EventRequestRepository) GetByID(ctx context.Context, requestID uuid.UUID) (*eventrequest.EventRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventRequestColumns+` FROM event_requests WHERE request_id=$1`, requestID)
	return scanEventRequest(row)
}

func (r *EventRequestRepository) List(ctx context.Context, filter eventrequest.Filter, limit, offset int) ([]*eventrequest.EventRequest, error) {
	query := `SELECT ` + eventRequestColumns + ` FROM event_requests`
	args := []interface{}{}
	idx := 1
	if filter.Status != nil {
		query += " WHERE status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.RequesterID != nil {
		query += addWhere(query) + " requester_id=$" + itoa(idx)
		args = append(args, *filter.RequesterID)
		idx++
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT $" + itoa(idx)
		args = append(args, limit)
		idx++
	}
	query += " OFFSET $" + itoa(idx)
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*eventrequest.EventRequest
	for rows.Next() {
		req, err := scanEventRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *EventRequestRepository) Update(ctx context.Context, req *eventrequest.EventRequest) error {
	if err := updateEventRequest(ctx, r.pool, req); err != nil {
		return err
	}
	req.Version++
	return nil
}

// updateEventRequest writes req if the stored version still matches the one
// it was read at. The caller bumps req.Version once the write is durable.
func updateEventRequest(ctx context.Context, db execer, req *eventrequest.EventRequest) error {
	organizers, err := json.Marshal(responsesOrEmpty(req.InterestedOrganizers))
	if err != nil {
		return err
	}
	res, err := db.Exec(ctx, `
		UPDATE event_requests
		SET event_type=$1, venue=$2, budget=$3, event_date=$4, description=$5, status=$6,
		    selected_organizer_id=$7, interested_organizers=$8, updated_at=$9, version=version+1
		WHERE request_id=$10 AND version=$11
	`, req.EventType, req.Venue, req.Budget, req.EventDate, req.Description, req.Status,
		req.SelectedOrganizerID, organizers, req.UpdatedAt, req.RequestID, req.Version)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return eventRequestMissOrConflict(ctx, db, req.RequestID)
	}
	return nil
}

func eventRequestMissOrConflict(ctx context.Context, db execer, requestID uuid.UUID) error {
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM event_requests WHERE request_id=$1)`, requestID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return eventrequest.ErrNotFound
	}
	return eventrequest.ErrVersionConflict
}

func responsesOrEmpty(in []eventrequest.OrganizerResponse) []eventrequest.OrganizerResponse {
	if in == nil {
		return []eventrequest.OrganizerResponse{}
	}
	return in
}

func scanEventRequest(row pgx.Row) (*eventrequest.EventRequest, error) {
	var req eventrequest.EventRequest
	var organizers []byte
	if err := row.Scan(&req.ID, &req.RequestID, &req.RequesterID, &req.EventType, &req.Venue, &req.Budget, &req.EventDate, &req.Description, &req.Status, &req.SelectedOrganizerID, &organizers, &req.Version, &req.CreatedAt, &req.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(organizers) > 0 {
		if err := json.Unmarshal(organizers, &req.InterestedOrganizers); err != nil {
			return nil, fmt.Errorf("decode interested organizers of %s: %w", req.RequestID, err)
		}
	}
	return &req, nil
}
