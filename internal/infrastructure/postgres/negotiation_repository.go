package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/event-market/event-market/internal/domain/eventrequest"
	"github.com/event-market/event-market/internal/domain/negotiation"
)

// NegotiationRepository implements negotiation.Repository. Writes that also
// touch the parent event request run in one transaction.
type NegotiationRepository struct {
	pool *pgxpool.Pool
}

func NewNegotiationRepository(pool *pgxpool.Pool) *NegotiationRepository {
	return &NegotiationRepository{pool: pool}
}

const negotiationColumns = `id, negotiation_id, event_request_id, negotiation_type, negotiation_round, history, status, initial_offer, final_offer, metadata, version, created_at, updated_at`

func (r *NegotiationRepository) Create(ctx context.Context, n *negotiation.Negotiation, req *eventrequest.EventRequest) error {
	history, metadata, err := encodeNegotiation(n)
	if err != nil {
		return err
	}
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		if req != nil {
			if err := updateEventRequest(ctx, tx, req); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `
			INSERT INTO negotiations
			(negotiation_id, event_request_id, negotiation_type, negotiation_round, history, status, initial_offer, final_offer, metadata, version, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,1,$10,$11)
			RETURNING id
		`, n.NegotiationID, n.EventRequestID, n.Type, n.NegotiationRound, history, n.Status, n.InitialOffer, n.FinalOffer, metadata, n.CreatedAt, n.UpdatedAt).Scan(&n.ID)
	})
	if err != nil {
		return translate(err, "negotiation")
	}
	n.Version = 1
	if req != nil {
		req.Version++
	}
	return nil
}

func (r *NegotiationRepository) Update(ctx context.Context, n *negotiation.Negotiation, req *eventrequest.EventRequest) error {
	history, metadata, err := encodeNegotiation(n)
	if err != nil {
		return err
	}
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
			UPDATE negotiations
			SET negotiation_round=$1, history=$2, status=$3, final_offer=$4, metadata=$5, updated_at=$6, version=version+1
			WHERE negotiation_id=$7 AND version=$8
		`, n.NegotiationRound, history, n.Status, n.FinalOffer, metadata, n.UpdatedAt, n.NegotiationID, n.Version)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM negotiations WHERE negotiation_id=$1)`, n.NegotiationID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return negotiation.ErrNotFound
			}
			return negotiation.ErrVersionConflict
		}
		if req != nil {
			return updateEventRequest(ctx, tx, req)
		}
		return nil
	})
	if err != nil {
		return err
	}
	n.Version++
	if req != nil {
		req.Version++
	}
	return nil
}

func (r *NegotiationRepository) GetByID(ctx context.Context, negotiationID uuid.UUID) (*negotiation.Negotiation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+negotiationColumns+` FROM negotiations WHERE negotiation_id=$1`, negotiationID)
	return scanNegotiation(row)
}

func (r *NegotiationRepository) ListByEventRequest(ctx context.Context, eventRequestID uuid.UUID) ([]*negotiation.Negotiation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+negotiationColumns+`
		FROM negotiations WHERE event_request_id=$1
		ORDER BY created_at DESC, id DESC
	`, eventRequestID)
	if err != nil {
		return nil, err
	}
	return collectNegotiations(rows)
}

func (r *NegotiationRepository) LatestByStatus(ctx context.Context, eventRequestID uuid.UUID, status negotiation.Status) (*negotiation.Negotiation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+negotiationColumns+`
		FROM negotiations WHERE event_request_id=$1 AND status=$2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, eventRequestID, status)
	return scanNegotiation(row)
}

func (r *NegotiationRepository) ListStale(ctx context.Context, updatedBefore time.Time, limit int) ([]*negotiation.Negotiation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+negotiationColumns+`
		FROM negotiations
		WHERE status IN ('pending','countered')
		AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`, updatedBefore, limit)
	if err != nil {
		return nil, err
	}
	return collectNegotiations(rows)
}

func (r *NegotiationRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func encodeNegotiation(n *negotiation.Negotiation) (history, metadata []byte, err error) {
	rounds := n.History
	if rounds == nil {
		rounds = []negotiation.Round{}
	}
	if history, err = json.Marshal(rounds); err != nil {
		return nil, nil, err
	}
	meta := n.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	if metadata, err = json.Marshal(meta); err != nil {
		return nil, nil, err
	}
	return history, metadata, nil
}

func collectNegotiations(rows pgx.Rows) ([]*negotiation.Negotiation, error) {
	defer rows.Close()
	var out []*negotiation.Negotiation
	for rows.Next() {
		n, err := scanNegotiation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNegotiation(row pgx.Row) (*negotiation.Negotiation, error) {
	var n negotiation.Negotiation
	var history, metadata []byte
	if err := row.Scan(&n.ID, &n.NegotiationID, &n.EventRequestID, &n.Type, &n.NegotiationRound, &history, &n.Status, &n.InitialOffer, &n.FinalOffer, &metadata, &n.Version, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(history, &n.History); err != nil {
		return nil, fmt.Errorf("decode history of %s: %w", n.NegotiationID, err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", n.NegotiationID, err)
		}
	}
	return &n, nil
}
