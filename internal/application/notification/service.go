package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/event-market/event-market/internal/domain/notification"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service handles notification operations
type Service struct {
	repo   notification.Repository
	pusher notification.Pusher
	logger zerolog.Logger
}

// NewService creates a new notification service
func NewService(repo notification.Repository, pusher notification.Pusher, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		pusher: pusher,
		logger: logger.With().Str("service", "notification").Logger(),
	}
}

// CreateInput describes a notification to a user or to a role group.
type CreateInput struct {
	Type         notification.Type
	Title        string
	Message      string
	TargetUserID *uuid.UUID
	TargetRole   *string
	Metadata     map[string]interface{}
}

// Create persists a notification and pushes it to whoever is online.
func (s *Service) Create(ctx context.Context, input CreateInput) (*notification.Notification, error) {
	var meta json.RawMessage
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			s.logger.Warn().Err(err).Str("type", string(input.Type)).Msg("failed to marshal notification metadata, using empty")
		} else {
			meta = raw
		}
	}

	n := notification.NewNotification(input.Type, input.Title, input.Message, meta)
	n.SetTarget(input.TargetUserID, input.TargetRole)
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Info().
		Str("notification_id", n.NotificationID.String()).
		Str("type", string(n.Type)).
		Msg("notification created")

	s.push(ctx, n)
	return n, nil
}

func (s *Service) push(ctx context.Context, n *notification.Notification) {
	if s.pusher == nil {
		return
	}
	msg := notification.Push{
		Type:    "notification",
		Action:  string(n.Type),
		Payload: map[string]interface{}{"notification": n},
	}
	if n.TargetUserID != nil {
		s.pusher.SendToUserOnChannel(*n.TargetUserID, notification.ChannelNotifications, msg)
		s.pushUnreadCount(ctx, notification.Recipient{UserID: *n.TargetUserID})
	}
	if n.TargetRole != nil {
		s.pusher.SendToRole(*n.TargetRole, msg)
	}
	s.pusher.SendToChannel(notification.ChannelAdminNotifications, msg)
}

// pushUnreadCount refreshes the badge of the recipient's subscribed sockets.
// When called after a create the recipient carries no role, so role-group
// notifications are left out of that count until the client next asks.
func (s *Service) pushUnreadCount(ctx context.Context, r notification.Recipient) {
	if s.pusher == nil {
		return
	}
	count, err := s.repo.CountUnread(ctx, r)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", r.UserID.String()).Msg("unread count failed")
		return
	}
	s.pusher.SendToUserOnChannel(r.UserID, notification.ChannelUnreadCount, notification.Push{
		Type:    "unread_count",
		Payload: map[string]interface{}{"count": count},
	})
}

// List returns the recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, r notification.Recipient, filter notification.Filter, limit, offset int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, r, filter, limit, offset)
}

// MarkRead marks one notification read. Repeating it is harmless.
func (s *Service) MarkRead(ctx context.Context, r notification.Recipient, notificationID uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, r, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return notification.ErrNotFound
	}
	s.pushUnreadCount(ctx, r)
	return nil
}

// MarkAllRead marks everything visible to the recipient read.
func (s *Service) MarkAllRead(ctx context.Context, r notification.Recipient) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, r)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.pushUnreadCount(ctx, r)
	}
	return n, nil
}

// Delete removes a notification. Deleting one that is already gone succeeds.
func (s *Service) Delete(ctx context.Context, r notification.Recipient, notificationID uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, r, notificationID)
	if err != nil {
		return err
	}
	if ok {
		s.pushUnreadCount(ctx, r)
	}
	return nil
}

// UnreadCount counts unread notifications visible to the recipient.
func (s *Service) UnreadCount(ctx context.Context, r notification.Recipient) (int, error) {
	return s.repo.CountUnread(ctx, r)
}
