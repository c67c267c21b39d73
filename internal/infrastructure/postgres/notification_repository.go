package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/event-market/event-market/internal/domain/notification"
)

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

const notificationColumns = `id, notification_id, type, title, message, status, target_user_id, target_role, metadata, created_at, read_at`

// visibleTo scopes a query to the recipient's own rows and their role group.
// The recipient's user id and role name must be bound to $1 and $2.
const visibleTo = `(target_user_id=$1 OR ($2 <> '' AND target_role=$2))`

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	metadata := n.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO notifications
		(notification_id, type, title, message, status, target_user_id, target_role, metadata, created_at, read_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, n.NotificationID, n.Type, n.Title, n.Message, n.Status, n.TargetUserID, n.TargetRole, metadata, n.CreatedAt, n.ReadAt).Scan(&n.ID)
}

func (r *NotificationRepository) GetByID(ctx context.Context, notificationID uuid.UUID) (*notification.Notification, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE notification_id=$1`, notificationID)
	return scanNotification(row)
}

func (r *NotificationRepository) List(ctx context.Context, rcpt notification.Recipient, filter notification.Filter, limit, offset int) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` + visibleTo
	args := []interface{}{rcpt.UserID, rcpt.Role}
	idx := 3
	if filter.Status != nil {
		query += " AND status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.Type != nil {
		query += " AND type=$" + itoa(idx)
		args = append(args, *filter.Type)
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
	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, rcpt notification.Recipient, notificationID uuid.UUID) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE notifications SET status=$3, read_at=COALESCE(read_at, $4)
		WHERE notification_id=$5 AND `+visibleTo,
		rcpt.UserID, rcpt.Role, notification.StatusRead, time.Now().UTC(), notificationID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, rcpt notification.Recipient) (int64, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE notifications SET status=$3, read_at=$4
		WHERE status=$5 AND `+visibleTo,
		rcpt.UserID, rcpt.Role, notification.StatusRead, time.Now().UTC(), notification.StatusUnread)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *NotificationRepository) Delete(ctx context.Context, rcpt notification.Recipient, notificationID uuid.UUID) (bool, error) {
	res, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE notification_id=$3 AND `+visibleTo,
		rcpt.UserID, rcpt.Role, notificationID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, rcpt notification.Recipient) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE status=$3 AND `+visibleTo,
		rcpt.UserID, rcpt.Role, notification.StatusUnread).Scan(&count)
	return count, err
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var metadata []byte
	if err := row.Scan(&n.ID, &n.NotificationID, &n.Type, &n.Title, &n.Message, &n.Status, &n.TargetUserID, &n.TargetRole, &metadata, &n.CreatedAt, &n.ReadAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	n.Metadata = json.RawMessage(metadata)
	return &n, nil
}
