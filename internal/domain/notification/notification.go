package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/apperr"
)

// Status represents the read state of a notification
type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
)

// Type tags what happened
type Type string

const (
	TypeOfferReceived        Type = "offer_received"
	TypeCounterOffer         Type = "counter_offer"
	TypeOfferAccepted        Type = "offer_accepted"
	TypeOfferRejected        Type = "offer_rejected"
	TypeNegotiationCancelled Type = "negotiation_cancelled"
	TypeNegotiationExpired   Type = "negotiation_expired"
	TypeOrganizerSelected    Type = "organizer_selected"
	TypeResponseAccepted     Type = "response_accepted"
	TypeResponseRejected     Type = "response_rejected"
	TypeAIResponse           Type = "ai_response"
)

var (
	ErrNotFound  = fmt.Errorf("notification %w", apperr.ErrNotFound)
	ErrNoTarget  = fmt.Errorf("%w: notification needs a target user or role", apperr.ErrValidation)
	errBadTarget = errors.New("notification target user id is nil")
)

// Notification is a fire-and-forget message addressed to a user or a role.
type Notification struct {
	ID             int64           `json:"id"`
	NotificationID uuid.UUID       `json:"notificationId"`
	Type           Type            `json:"type"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	Status         Status          `json:"status"`
	TargetUserID   *uuid.UUID      `json:"targetUserId,omitempty"`
	TargetRole     *string         `json:"targetRole,omitempty"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedAt      time.Time       `json:"createdAt"`
	ReadAt         *time.Time      `json:"readAt,omitempty"`
}

// NewNotification creates an unread notification
func NewNotification(typ Type, title, message string, metadata json.RawMessage) *Notification {
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	return &Notification{
		NotificationID: uuid.New(),
		Type:           typ,
		Title:          title,
		Message:        message,
		Status:         StatusUnread,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}
}

// SetTarget sets the notification target (user or role)
func (n *Notification) SetTarget(userID *uuid.UUID, role *string) {
	n.TargetUserID = userID
	n.TargetRole = role
}

// Validate checks that the notification is addressable
func (n *Notification) Validate() error {
	if n.TargetUserID == nil && (n.TargetRole == nil || *n.TargetRole == "") {
		return ErrNoTarget
	}
	if n.TargetUserID != nil && *n.TargetUserID == uuid.Nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, errBadTarget)
	}
	return nil
}

// MarkRead marks the notification read. Marking twice keeps the first timestamp.
func (n *Notification) MarkRead(now time.Time) {
	if n.Status == StatusRead {
		return
	}
	n.Status = StatusRead
	n.ReadAt = &now
}

// VisibleTo reports whether the recipient owns the notification directly or
// through their role group.
func (n *Notification) VisibleTo(r Recipient) bool {
	if n.TargetUserID != nil && *n.TargetUserID == r.UserID {
		return true
	}
	return n.TargetRole != nil && r.Role != "" && *n.TargetRole == r.Role
}

// Recipient identifies whose notifications an operation is scoped to.
type Recipient struct {
	UserID uuid.UUID
	Role   string
}
