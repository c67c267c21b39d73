package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/notification"
)

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	s *Store
}

func (r *NotificationRepository) Create(_ context.Context, n *notification.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.nextID()
	c := *n
	r.s.notifications[n.NotificationID] = &c
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, notificationID uuid.UUID) (*notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[notificationID]
	if !ok {
		return nil, nil
	}
	c := *n
	return &c, nil
}

func (r *NotificationRepository) List(_ context.Context, rcpt notification.Recipient, filter notification.Filter, limit, offset int) ([]*notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*notification.Notification
	for _, n := range r.s.notifications {
		if !n.VisibleTo(rcpt) {
			continue
		}
		if filter.Status != nil && n.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, rcpt notification.Recipient, notificationID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[notificationID]
	if !ok || !n.VisibleTo(rcpt) {
		return false, nil
	}
	n.MarkRead(time.Now().UTC())
	return true, nil
}

func (r *NotificationRepository) MarkAllRead(_ context.Context, rcpt notification.Recipient) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	var changed int64
	for _, n := range r.s.notifications {
		if n.Status == notification.StatusUnread && n.VisibleTo(rcpt) {
			n.MarkRead(now)
			changed++
		}
	}
	return changed, nil
}

func (r *NotificationRepository) Delete(_ context.Context, rcpt notification.Recipient, notificationID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[notificationID]
	if !ok || !n.VisibleTo(rcpt) {
		return false, nil
	}
	delete(r.s.notifications, notificationID)
	return true, nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, rcpt notification.Recipient) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, n := range r.s.notifications {
		if n.Status == notification.StatusUnread && n.VisibleTo(rcpt) {
			count++
		}
	}
	return count, nil
}
