package eventrequest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/event-market/event-market/internal/application/background"
	appNotification "github.com/event-market/event-market/internal/application/notification"
	domain "github.com/event-market/event-market/internal/domain/eventrequest"
	"github.com/event-market/event-market/internal/domain/notification"
)

const maxWriteAttempts = 5

// Service handles event requests and the direct accept/reject path that
// settles them without a negotiation thread.
type Service struct {
	repo     domain.Repository
	notifier *appNotification.Service
	pusher   notification.Pusher
	tasks    *background.Runner
	logger   zerolog.Logger
}

// NewService creates an event request service.
func NewService(repo domain.Repository, notifier *appNotification.Service, pusher notification.Pusher, tasks *background.Runner, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		pusher:   pusher,
		tasks:    tasks,
		logger:   logger.With().Str("service", "eventrequest").Logger(),
	}
}

// CreateInput defines event request creation input.
type CreateInput struct {
	RequesterID uuid.UUID
	EventType   string
	Venue       string
	Budget      float64
	EventDate   time.Time
	Description string
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.EventRequest, error) {
	req, err := domain.New(input.RequesterID, input.EventType, input.Venue, input.Budget, input.EventDate, input.Description)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("event_request_id", req.RequestID.String()).
		Str("requester_id", req.RequesterID.String()).
		Str("event_type", req.EventType).
		Msg("event request created")
	return req, nil
}

func (s *Service) Get(ctx context.Context, requestID uuid.UUID) (*domain.EventRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	return req, nil
}

func (s *Service) List(ctx context.Context, filter domain.Filter, limit, offset int) ([]*domain.EventRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// ListOpen lists requests organizers can still respond to.
func (s *Service) ListOpen(ctx context.Context, limit, offset int) ([]*domain.EventRequest, error) {
	open := domain.StatusOpen
	return s.List(ctx, domain.Filter{Status: &open}, limit, offset)
}

// AcceptEventRequest accepts one organizer's response directly. Every other
// response is rejected and the request becomes deal_done.
func (s *Service) AcceptEventRequest(ctx context.Context, requestID, organizerID, actingUserID uuid.UUID) (*domain.EventRequest, error) {
	req, err := s.mutate(ctx, requestID, actingUserID, func(req *domain.EventRequest) error {
		return req.AcceptResponse(organizerID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("event_request_id", requestID.String()).Str("organizer_id", organizerID.String()).Msg("response accepted")
	s.announceDecision(ctx, req, organizerID, notification.TypeResponseAccepted, "Response accepted", "Your response was accepted")
	return req, nil
}

// RejectEventRequest rejects one organizer's response. When no response is
// left standing the request reopens.
func (s *Service) RejectEventRequest(ctx context.Context, requestID, organizerID, actingUserID uuid.UUID) (*domain.EventRequest, error) {
	req, err := s.mutate(ctx, requestID, actingUserID, func(req *domain.EventRequest) error {
		return req.RejectResponse(organizerID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("event_request_id", requestID.String()).
		Str("organizer_id", organizerID.String()).
		Str("status", string(req.Status)).
		Msg("response rejected")
	s.notify(ctx, organizerID, notification.TypeResponseRejected, "Response rejected", "Your response was rejected", decisionPayload(req, organizerID))
	return req, nil
}

// SelectOrganizer accepts an organizer and records them as the selected one.
func (s *Service) SelectOrganizer(ctx context.Context, requestID, organizerID, actingUserID uuid.UUID) (*domain.EventRequest, error) {
	req, err := s.mutate(ctx, requestID, actingUserID, func(req *domain.EventRequest) error {
		return req.SelectOrganizer(organizerID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("event_request_id", requestID.String()).Str("organizer_id", organizerID.String()).Msg("organizer selected")
	s.announceDecision(ctx, req, organizerID, notification.TypeOrganizerSelected, "Organizer selected", "You were selected for the event")
	return req, nil
}

func (s *Service) mutate(ctx context.Context, requestID, actingUserID uuid.UUID, change func(*domain.EventRequest) error) (*domain.EventRequest, error) {
	var (
		req *domain.EventRequest
		err error
	)
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		req, err = s.Get(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if !req.IsRequester(actingUserID) {
			return nil, domain.ErrNotRequester
		}
		if err = change(req); err != nil {
			return nil, err
		}
		err = s.repo.Update(ctx, req)
		if !errors.Is(err, domain.ErrVersionConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// announceDecision tells the chosen organizer and every organizer whose
// response was rejected as a consequence.
func (s *Service) announceDecision(ctx context.Context, req *domain.EventRequest, organizerID uuid.UUID, typ notification.Type, title, message string) {
	s.notify(ctx, organizerID, typ, title, message, decisionPayload(req, organizerID))
	for _, resp := range req.InterestedOrganizers {
		if resp.OrganizerID == organizerID || resp.Status != domain.ResponseRejected {
			continue
		}
		s.notify(ctx, resp.OrganizerID, notification.TypeResponseRejected, "Response rejected", "The requester chose another organizer", decisionPayload(req, resp.OrganizerID))
	}
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, typ notification.Type, title, message string, payload map[string]interface{}) {
	task := func(ctx context.Context) error {
		if s.pusher != nil {
			s.pusher.SendToUser(userID, notification.Push{Type: "event_request", Action: string(typ), Payload: payload})
		}
		if s.notifier == nil {
			return nil
		}
		_, err := s.notifier.Create(ctx, appNotification.CreateInput{
			Type:         typ,
			Title:        title,
			Message:      message,
			TargetUserID: &userID,
			Metadata:     payload,
		})
		return err
	}
	if s.tasks == nil {
		if err := task(ctx); err != nil {
			s.logger.Warn().Err(err).Str("type", string(typ)).Msg("side effect failed")
		}
		return
	}
	s.tasks.Go(ctx, "eventrequest."+string(typ), task)
}

func decisionPayload(req *domain.EventRequest, organizerID uuid.UUID) map[string]interface{} {
	p := map[string]interface{}{
		"eventRequestId": req.RequestID,
		"organizerId":    organizerID,
		"status":         string(req.Status),
	}
	if resp := req.Response(organizerID); resp != nil {
		p["responseStatus"] = string(resp.Status)
		p["proposedBudget"] = resp.ProposedBudget
	}
	return p
}
