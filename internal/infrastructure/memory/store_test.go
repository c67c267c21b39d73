package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event-market/event-market/internal/domain/eventrequest"
	"github.com/event-market/event-market/internal/domain/negotiation"
	"github.com/event-market/event-market/internal/domain/notification"
)

func seedRequest(t *testing.T, store *Store) *eventrequest.EventRequest {
	t.Helper()
	req, err := eventrequest.New(uuid.New(), "wedding", "Lagos", 400000, time.Now().Add(24*time.Hour), "")
	require.NoError(t, err)
	require.NoError(t, store.EventRequests().Create(context.Background(), req))
	return req
}

func TestNegotiationRepository_AtomicWrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Negotiations()
	req := seedRequest(t, store)
	organizerID := uuid.New()
	now := time.Now().UTC()

	require.NoError(t, req.AddResponse(organizerID, "hello", 380000, now))
	n, err := negotiation.Start(req.RequestID, organizerID, 380000, "hello", now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, n, req))
	assert.Equal(t, 1, n.Version)
	assert.Equal(t, 2, req.Version)

	stale := req.Clone()
	stale.Version = 1
	require.NoError(t, n.Counter(negotiation.PartyUser, 420000, "", now))
	err = repo.Update(ctx, n, stale)
	assert.ErrorIs(t, err, eventrequest.ErrVersionConflict)

	stored, err := repo.GetByID(ctx, n.NegotiationID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.NegotiationRound, "negotiation must not change when the request write fails")
	assert.Equal(t, 1, stored.Version)

	require.NoError(t, repo.Update(ctx, n, req))
	assert.Equal(t, 2, n.Version)
	assert.ErrorIs(t, repo.Update(ctx, stored, nil), negotiation.ErrVersionConflict)
}

func TestNegotiationRepository_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Negotiations()
	req := seedRequest(t, store)
	n, err := negotiation.Start(req.RequestID, uuid.New(), 380000, "", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, n, nil))

	got, err := repo.GetByID(ctx, n.NegotiationID)
	require.NoError(t, err)
	got.History[0].Offer = 1
	got.SetMeta("tampered", true)

	again, err := repo.GetByID(ctx, n.NegotiationID)
	require.NoError(t, err)
	assert.Equal(t, 380000.0, again.History[0].Offer)
	assert.NotContains(t, again.Metadata, "tampered")

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNegotiationRepository_ListStale(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Negotiations()
	req := seedRequest(t, store)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		n, err := negotiation.Start(req.RequestID, uuid.New(), 380000, "", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, n, nil))
		ids = append(ids, n.NegotiationID)
	}
	closed, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	require.NoError(t, closed.Cancel(negotiation.PartyUser, base))
	require.NoError(t, repo.Update(ctx, closed, nil))

	stale, err := repo.ListStale(ctx, base.Add(90*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, ids[1], stale[0].NegotiationID)

	latest, err := repo.LatestByStatus(ctx, req.RequestID, negotiation.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, ids[2], latest.NegotiationID)

	list, err := repo.ListByEventRequest(ctx, req.RequestID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].NegotiationID)
}

func TestNotificationRepository_RecipientScope(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Notifications()
	userID := uuid.New()
	organizers := "organizer"

	mine := &notification.Notification{NotificationID: uuid.New(), Type: notification.TypeOfferReceived, Status: notification.StatusUnread, TargetUserID: &userID, CreatedAt: time.Now()}
	group := &notification.Notification{NotificationID: uuid.New(), Type: notification.TypeOfferReceived, Status: notification.StatusUnread, TargetRole: &organizers, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, mine))
	require.NoError(t, repo.Create(ctx, group))

	user := notification.Recipient{UserID: userID, Role: "user"}
	organizer := notification.Recipient{UserID: uuid.New(), Role: organizers}

	count, err := repo.CountUnread(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ok, err := repo.MarkRead(ctx, organizer, mine.NotificationID)
	require.NoError(t, err)
	assert.False(t, ok, "another user's notification is invisible")

	n, err := repo.MarkAllRead(ctx, organizer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = repo.Delete(ctx, user, mine.NotificationID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Delete(ctx, user, mine.NotificationID)
	require.NoError(t, err)
	assert.False(t, ok)
}
