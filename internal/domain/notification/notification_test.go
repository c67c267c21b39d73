package notification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotification(t *testing.T) {
	metadata := json.RawMessage(`{"amount": 380000}`)

	n := NewNotification(TypeOfferReceived, "New offer", "An organizer sent an offer", metadata)

	require.NotNil(t, n)
	assert.NotEqual(t, uuid.Nil, n.NotificationID)
	assert.Equal(t, TypeOfferReceived, n.Type)
	assert.Equal(t, "New offer", n.Title)
	assert.Equal(t, StatusUnread, n.Status)
	assert.Equal(t, metadata, n.Metadata)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Nil(t, n.ReadAt)
	assert.Nil(t, n.TargetUserID)
	assert.Nil(t, n.TargetRole)
}

func TestNewNotificationDefaultsMetadata(t *testing.T) {
	n := NewNotification(TypeCounterOffer, "t", "m", nil)
	assert.JSONEq(t, `{}`, string(n.Metadata))
}

func TestNotification_SetTargetAndValidate(t *testing.T) {
	t.Run("no target", func(t *testing.T) {
		n := NewNotification(TypeCounterOffer, "t", "m", nil)
		assert.ErrorIs(t, n.Validate(), ErrNoTarget)
	})

	t.Run("empty role", func(t *testing.T) {
		n := NewNotification(TypeCounterOffer, "t", "m", nil)
		role := ""
		n.SetTarget(nil, &role)
		assert.ErrorIs(t, n.Validate(), ErrNoTarget)
	})

	t.Run("nil user id", func(t *testing.T) {
		n := NewNotification(TypeCounterOffer, "t", "m", nil)
		id := uuid.Nil
		n.SetTarget(&id, nil)
		assert.Error(t, n.Validate())
	})

	t.Run("user target", func(t *testing.T) {
		n := NewNotification(TypeCounterOffer, "t", "m", nil)
		id := uuid.New()
		n.SetTarget(&id, nil)
		require.NoError(t, n.Validate())
		assert.Equal(t, id, *n.TargetUserID)
	})

	t.Run("role target", func(t *testing.T) {
		n := NewNotification(TypeCounterOffer, "t", "m", nil)
		role := "user"
		n.SetTarget(nil, &role)
		require.NoError(t, n.Validate())
	})
}

func TestNotification_MarkReadIsIdempotent(t *testing.T) {
	n := NewNotification(TypeOfferAccepted, "t", "m", nil)
	first := time.Now().UTC()

	n.MarkRead(first)
	n.MarkRead(first.Add(time.Hour))

	assert.Equal(t, StatusRead, n.Status)
	require.NotNil(t, n.ReadAt)
	assert.Equal(t, first, *n.ReadAt)
}

func TestNotification_VisibleTo(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	role := "organizer"

	direct := NewNotification(TypeCounterOffer, "t", "m", nil)
	direct.SetTarget(&owner, nil)
	group := NewNotification(TypeOfferReceived, "t", "m", nil)
	group.SetTarget(nil, &role)

	tests := []struct {
		name string
		n    *Notification
		r    Recipient
		want bool
	}{
		{"owner", direct, Recipient{UserID: owner, Role: "user"}, true},
		{"stranger", direct, Recipient{UserID: other, Role: "organizer"}, false},
		{"role member", group, Recipient{UserID: other, Role: "organizer"}, true},
		{"other role", group, Recipient{UserID: other, Role: "user"}, false},
		{"no role", group, Recipient{UserID: other}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.VisibleTo(tt.r))
		})
	}
}
