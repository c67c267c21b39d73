package eventrequest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event-market/event-market/internal/application/background"
	appNotification "github.com/event-market/event-market/internal/application/notification"
	"github.com/event-market/event-market/internal/domain/apperr"
	domain "github.com/event-market/event-market/internal/domain/eventrequest"
	"github.com/event-market/event-market/internal/domain/notification"
	"github.com/event-market/event-market/internal/infrastructure/memory"
)

type fixture struct {
	store   *memory.Store
	tasks   *background.Runner
	service *Service
}

func newFixture() *fixture {
	store := memory.NewStore()
	tasks := background.NewRunner(time.Second, zerolog.Nop())
	notifier := appNotification.NewService(store.Notifications(), nil, zerolog.Nop())
	return &fixture{
		store:   store,
		tasks:   tasks,
		service: NewService(store.EventRequests(), notifier, nil, tasks, zerolog.Nop()),
	}
}

// withResponses creates an open request and records one pending response per
// organizer.
func (f *fixture) withResponses(t *testing.T, requesterID uuid.UUID, organizers ...uuid.UUID) *domain.EventRequest {
	t.Helper()
	ctx := context.Background()
	req, err := f.service.Create(ctx, CreateInput{
		RequesterID: requesterID,
		EventType:   "wedding",
		Venue:       "Lagos",
		Budget:      400000,
		EventDate:   time.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	for i, org := range organizers {
		require.NoError(t, req.AddResponse(org, "interested", 350000+float64(i)*10000, time.Now().UTC()))
	}
	require.NoError(t, f.store.EventRequests().Update(ctx, req))
	return req
}

func (f *fixture) unread(t *testing.T, userID uuid.UUID) []*notification.Notification {
	t.Helper()
	f.tasks.Wait()
	list, err := f.store.Notifications().List(context.Background(), notification.Recipient{UserID: userID}, notification.Filter{}, 0, 0)
	require.NoError(t, err)
	return list
}

func TestService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.service.Create(ctx, CreateInput{RequesterID: uuid.New(), EventType: "conference", Budget: 1000})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, req.Status)

	got, err := f.service.Get(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, got.RequestID)

	_, err = f.service.Create(ctx, CreateInput{RequesterID: uuid.New(), EventType: "conference", Budget: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.service.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_AcceptEventRequest_Exclusive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	requester := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	req := f.withResponses(t, requester, a, b, c)

	updated, err := f.service.AcceptEventRequest(ctx, req.RequestID, b, requester)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDealDone, updated.Status)
	accepted := 0
	for _, resp := range updated.InterestedOrganizers {
		if resp.OrganizerID == b {
			assert.Equal(t, domain.ResponseAccepted, resp.Status)
			accepted++
		} else {
			assert.Equal(t, domain.ResponseRejected, resp.Status)
		}
	}
	assert.Equal(t, 1, accepted)

	assert.Len(t, f.unread(t, b), 1)
	assert.Len(t, f.unread(t, a), 1)
	assert.Equal(t, notification.TypeResponseRejected, f.unread(t, c)[0].Type)

	_, err = f.service.AcceptEventRequest(ctx, req.RequestID, a, requester)
	assert.ErrorIs(t, err, domain.ErrClosed)
}

func TestService_RejectEventRequest_ReopensWhenAllRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	requester := uuid.New()
	a, b := uuid.New(), uuid.New()
	req := f.withResponses(t, requester, a, b)

	_, err := f.service.AcceptEventRequest(ctx, req.RequestID, a, requester)
	require.NoError(t, err)

	updated, err := f.service.RejectEventRequest(ctx, req.RequestID, a, requester)
	require.NoError(t, err)

	assert.True(t, updated.AllRejected())
	assert.Equal(t, domain.StatusOpen, updated.Status)
	assert.Nil(t, updated.SelectedOrganizerID)
}

func TestService_RejectEventRequest_StaysOpenWhilePending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	requester := uuid.New()
	a, b := uuid.New(), uuid.New()
	req := f.withResponses(t, requester, a, b)

	updated, err := f.service.RejectEventRequest(ctx, req.RequestID, a, requester)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, updated.Status)
	assert.Equal(t, domain.ResponsePending, updated.Response(b).Status)

	_, err = f.service.RejectEventRequest(ctx, req.RequestID, uuid.New(), requester)
	assert.ErrorIs(t, err, domain.ErrResponseNotFound)
}

func TestService_SelectOrganizer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	requester := uuid.New()
	a := uuid.New()
	req := f.withResponses(t, requester, a)

	_, err := f.service.SelectOrganizer(ctx, req.RequestID, a, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	updated, err := f.service.SelectOrganizer(ctx, req.RequestID, a, requester)
	require.NoError(t, err)
	require.NotNil(t, updated.SelectedOrganizerID)
	assert.Equal(t, a, *updated.SelectedOrganizerID)
	assert.Equal(t, domain.StatusDealDone, updated.Status)
	assert.Equal(t, notification.TypeOrganizerSelected, f.unread(t, a)[0].Type)
}

func TestService_ListOpen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	requester := uuid.New()
	org := uuid.New()
	done := f.withResponses(t, requester, org)
	f.withResponses(t, requester)

	_, err := f.service.AcceptEventRequest(ctx, done.RequestID, org, requester)
	require.NoError(t, err)

	open, err := f.service.ListOpen(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.NotEqual(t, done.RequestID, open[0].RequestID)
}
