package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Filter represents filters for listing notifications
type Filter struct {
	Status *Status
	Type   *Type
}

// Repository defines the interface for notification persistence. Every read
// and mutation is scoped to the recipient's own notifications or their role
// group; mutations report whether anything matched so callers stay idempotent.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, notificationID uuid.UUID) (*Notification, error)
	List(ctx context.Context, r Recipient, filter Filter, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, r Recipient, notificationID uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, r Recipient) (int64, error)
	Delete(ctx context.Context, r Recipient, notificationID uuid.UUID) (bool, error)
	CountUnread(ctx context.Context, r Recipient) (int, error)
}
