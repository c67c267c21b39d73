// Package memory provides in-process repositories guarded by a single lock.
// Conditional updates follow the same version rules as the Postgres
// repositories, so services behave identically on either store.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/eventrequest"
	"github.com/event-market/event-market/internal/domain/negotiation"
	"github.com/event-market/event-market/internal/domain/notification"
	"github.com/event-market/event-market/internal/domain/user"
)

// Store holds every collection behind one mutex so multi-document writes
// are atomic.
type Store struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*user.User
	roles         map[uuid.UUID]*user.Role
	requests      map[uuid.UUID]*eventrequest.EventRequest
	negotiations  map[uuid.UUID]*negotiation.Negotiation
	notifications map[uuid.UUID]*notification.Notification
	seq           int64
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*user.User),
		roles:         make(map[uuid.UUID]*user.Role),
		requests:      make(map[uuid.UUID]*eventrequest.EventRequest),
		negotiations:  make(map[uuid.UUID]*negotiation.Negotiation),
		notifications: make(map[uuid.UUID]*notification.Notification),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) EventRequests() *EventRequestRepository {
	return &EventRequestRepository{s: s}
}

func (s *Store) Negotiations() *NegotiationRepository {
	return &NegotiationRepository{s: s}
}

func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{s: s}
}
