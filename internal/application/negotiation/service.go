// Package negotiation runs the offer/counter-offer protocol between a
// requester and the organizers who answered their event request.
package negotiation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/event-market/event-market/internal/application/background"
	appNotification "github.com/event-market/event-market/internal/application/notification"
	"github.com/event-market/event-market/internal/domain/eventrequest"
	domain "github.com/event-market/event-market/internal/domain/negotiation"
	"github.com/event-market/event-market/internal/domain/notification"
	domainUser "github.com/event-market/event-market/internal/domain/user"
)

// maxWriteAttempts bounds the read-modify-write retries after a lost
// optimistic update.
const maxWriteAttempts = 5

// Errors surfaced by the protocol. Each wraps an apperr kind.
var (
	ErrEventRequestNotFound   = eventrequest.ErrNotFound
	ErrEventRequestClosed     = eventrequest.ErrClosed
	ErrResponseClosed         = eventrequest.ErrResponseClosed
	ErrDuplicateResponse      = eventrequest.ErrDuplicateResponse
	ErrNegotiationNotFound    = domain.ErrNotFound
	ErrUnauthorized           = domain.ErrUnauthorized
	ErrOrganizerOfferNotFound = domain.ErrOrganizerOfferNotFound
	ErrInvalidTransition      = domain.ErrInvalidTransition
	ErrTerminal               = domain.ErrTerminal
	ErrOwnOffer               = domain.ErrOwnOffer
)

// Config tunes the protocol.
type Config struct {
	AdvisoryTimeout      time.Duration
	ConvergenceThreshold float64
	NegotiationTTL       time.Duration
	AIAgentID            uuid.UUID
}

// Service handles negotiation operations.
type Service struct {
	repo     domain.Repository
	requests eventrequest.Repository
	users    domainUser.Repository
	notifier *appNotification.Service
	pusher   notification.Pusher
	advisor  domain.Advisor
	tasks    *background.Runner
	cfg      Config
	now      func() time.Time
	logger   zerolog.Logger
}

// NewService creates a negotiation service. advisor may be nil.
func NewService(
	repo domain.Repository,
	requests eventrequest.Repository,
	users domainUser.Repository,
	notifier *appNotification.Service,
	pusher notification.Pusher,
	advisor domain.Advisor,
	tasks *background.Runner,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	if cfg.AdvisoryTimeout <= 0 {
		cfg.AdvisoryTimeout = 3 * time.Second
	}
	if cfg.ConvergenceThreshold <= 0 {
		cfg.ConvergenceThreshold = domain.DefaultConvergenceThreshold
	}
	if cfg.NegotiationTTL <= 0 {
		cfg.NegotiationTTL = 7 * 24 * time.Hour
	}
	return &Service{
		repo:     repo,
		requests: requests,
		users:    users,
		notifier: notifier,
		pusher:   pusher,
		advisor:  advisor,
		tasks:    tasks,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("service", "negotiation").Logger(),
	}
}

// StartInput opens a thread on behalf of an organizer.
type StartInput struct {
	EventRequestID uuid.UUID
	OrganizerID    uuid.UUID
	ProposedBudget float64
	Message        string
}

// StartNegotiation records the organizer's response on the event request and
// opens its negotiation log in one atomic write.
func (s *Service) StartNegotiation(ctx context.Context, input StartInput) (*domain.Negotiation, error) {
	var (
		n   *domain.Negotiation
		req *eventrequest.EventRequest
	)
	err := s.retry(ctx, func() error {
		var err error
		req, err = s.loadRequest(ctx, input.EventRequestID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := req.AddResponse(input.OrganizerID, input.Message, input.ProposedBudget, now); err != nil {
			return err
		}
		n, err = domain.Start(req.RequestID, input.OrganizerID, input.ProposedBudget, input.Message, now)
		if err != nil {
			return err
		}
		return s.repo.Create(ctx, n, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("negotiation_id", n.NegotiationID.String()).
		Str("event_request_id", req.RequestID.String()).
		Str("organizer_id", input.OrganizerID.String()).
		Float64("offer", input.ProposedBudget).
		Msg("negotiation started")

	s.emit(ctx, fanout{
		typ:        notification.TypeOfferReceived,
		title:      "New offer received",
		message:    "An organizer responded to your event request",
		action:     "offer_received",
		payload:    threadPayload(n, input.OrganizerID),
		notifyRole: s.roleName(ctx, req.RequesterID),
		pushUsers:  []uuid.UUID{req.RequesterID},
	})
	return n, nil
}

// CounterInput is a requester's counter-offer.
type CounterInput struct {
	NegotiationID uuid.UUID
	Offer         float64
	Message       string
	ActingUserID  uuid.UUID
}

// CounterResult carries the updated thread and the suggestion computed for
// the next round.
type CounterResult struct {
	Negotiation *domain.Negotiation `json:"negotiation"`
	Suggestion  domain.Suggestion   `json:"suggestion"`
}

// SubmitCounterOffer appends the requester's counter-offer and mirrors the
// amount onto the organizer's response. Advice is best effort: it never fails
// the operation and falls back to the midpoint of the two latest offers.
func (s *Service) SubmitCounterOffer(ctx context.Context, input CounterInput) (*CounterResult, error) {
	var (
		n           *domain.Negotiation
		req         *eventrequest.EventRequest
		organizerID uuid.UUID
	)
	err := s.retry(ctx, func() error {
		var err error
		n, err = s.loadNegotiation(ctx, input.NegotiationID)
		if err != nil {
			return err
		}
		req, err = s.loadRequest(ctx, n.EventRequestID)
		if err != nil {
			return err
		}
		if !req.IsRequester(input.ActingUserID) {
			return ErrUnauthorized
		}
		if n.IsTerminal() {
			return ErrTerminal
		}
		if !req.IsOpen() {
			return ErrEventRequestClosed
		}
		organizerID, err = s.organizerOf(n, req)
		if err != nil {
			return err
		}
		if _, err := req.PendingResponse(organizerID); err != nil {
			return responseError(err)
		}
		if err := n.Counter(domain.PartyUser, input.Offer, input.Message, s.now()); err != nil {
			return err
		}
		if err := req.SetProposedBudget(organizerID, input.Offer); err != nil {
			return responseError(err)
		}
		return s.repo.Update(ctx, n, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("negotiation_id", n.NegotiationID.String()).
		Int("round", n.NegotiationRound).
		Float64("offer", input.Offer).
		Msg("counter offer submitted")

	suggestion := s.suggest(ctx, req, n)
	if err := s.attachSuggestion(ctx, n.NegotiationID, suggestion); err != nil {
		s.logger.Warn().Err(err).Str("negotiation_id", n.NegotiationID.String()).Msg("failed to attach suggestion")
	}
	s.stampSuggestion(n, suggestion)

	payload := threadPayload(n, organizerID)
	payload["suggestion"] = suggestion
	s.emit(ctx, fanout{
		typ:         notification.TypeCounterOffer,
		title:       "Counter offer",
		message:     "The requester made a counter offer",
		action:      "counter_offer",
		payload:     payload,
		notifyUsers: []uuid.UUID{organizerID},
		pushUsers:   []uuid.UUID{organizerID},
	})
	return &CounterResult{Negotiation: n, Suggestion: suggestion}, nil
}

// AcceptOffer closes the thread on its latest offer. The parent request
// becomes deal_done, the organizer's response is accepted and every other
// response is rejected.
func (s *Service) AcceptOffer(ctx context.Context, negotiationID, actingUserID uuid.UUID) (*domain.Negotiation, error) {
	var (
		n           *domain.Negotiation
		req         *eventrequest.EventRequest
		organizerID uuid.UUID
		party       domain.Party
	)
	err := s.retry(ctx, func() error {
		var err error
		n, req, organizerID, party, err = s.loadForParty(ctx, negotiationID, actingUserID)
		if err != nil {
			return err
		}
		if n.IsTerminal() {
			return ErrTerminal
		}
		if !req.IsOpen() {
			return ErrEventRequestClosed
		}
		if _, err := req.PendingResponse(organizerID); err != nil {
			return responseError(err)
		}
		if err := n.Accept(party, s.now()); err != nil {
			return err
		}
		if err := req.AcceptResponse(organizerID); err != nil {
			return err
		}
		return s.repo.Update(ctx, n, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("negotiation_id", n.NegotiationID.String()).
		Str("event_request_id", req.RequestID.String()).
		Str("accepted_by", string(party)).
		Float64("final_offer", *n.FinalOffer).
		Msg("offer accepted")

	payload := threadPayload(n, organizerID)
	payload["finalOffer"] = *n.FinalOffer
	payload["acceptedBy"] = string(party)
	both := []uuid.UUID{req.RequesterID, organizerID}
	s.emit(ctx, fanout{
		typ:         notification.TypeOfferAccepted,
		title:       "Offer accepted",
		message:     "The negotiation closed with a deal",
		action:      "accepted",
		payload:     payload,
		notifyUsers: both,
		pushUsers:   both,
	})
	return n, nil
}

// RejectOffer closes the thread without a deal. When the requester rejects,
// the organizer's response is rejected as well and the request reopens if no
// response is left standing.
func (s *Service) RejectOffer(ctx context.Context, negotiationID, actingUserID uuid.UUID) (*domain.Negotiation, error) {
	var (
		n           *domain.Negotiation
		req         *eventrequest.EventRequest
		organizerID uuid.UUID
		party       domain.Party
	)
	err := s.retry(ctx, func() error {
		var err error
		n, req, organizerID, party, err = s.loadForParty(ctx, negotiationID, actingUserID)
		if err != nil {
			return err
		}
		if err := n.Reject(party, s.now()); err != nil {
			return err
		}
		var parent *eventrequest.EventRequest
		if party == domain.PartyUser && req.IsOpen() {
			if err := req.RejectResponse(organizerID); err != nil {
				return ErrOrganizerOfferNotFound
			}
			parent = req
		}
		return s.repo.Update(ctx, n, parent)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("negotiation_id", n.NegotiationID.String()).
		Str("rejected_by", string(party)).
		Str("event_request_status", string(req.Status)).
		Msg("offer rejected")

	payload := threadPayload(n, organizerID)
	payload["rejectedBy"] = string(party)
	payload["eventRequestStatus"] = string(req.Status)
	other := s.counterpart(party, req.RequesterID, organizerID)
	s.emit(ctx, fanout{
		typ:         notification.TypeOfferRejected,
		title:       "Offer rejected",
		message:     "The other party rejected the offer",
		action:      "rejected",
		payload:     payload,
		notifyUsers: []uuid.UUID{other},
		pushUsers:   []uuid.UUID{other},
	})
	return n, nil
}

// CancelNegotiation withdraws a thread. Either party may cancel.
func (s *Service) CancelNegotiation(ctx context.Context, negotiationID, actingUserID uuid.UUID) (*domain.Negotiation, error) {
	var (
		n           *domain.Negotiation
		req         *eventrequest.EventRequest
		organizerID uuid.UUID
		party       domain.Party
	)
	err := s.retry(ctx, func() error {
		var err error
		n, req, organizerID, party, err = s.loadForParty(ctx, negotiationID, actingUserID)
		if err != nil {
			return err
		}
		if err := n.Cancel(party, s.now()); err != nil {
			return err
		}
		return s.repo.Update(ctx, n, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("negotiation_id", n.NegotiationID.String()).Str("cancelled_by", string(party)).Msg("negotiation cancelled")

	other := s.counterpart(party, req.RequesterID, organizerID)
	s.emit(ctx, fanout{
		typ:         notification.TypeNegotiationCancelled,
		title:       "Negotiation cancelled",
		message:     "The other party cancelled the negotiation",
		action:      "cancelled",
		payload:     threadPayload(n, organizerID),
		notifyUsers: []uuid.UUID{other},
		pushUsers:   []uuid.UUID{other},
	})
	return n, nil
}

// GetNegotiation returns a thread to one of its two parties.
func (s *Service) GetNegotiation(ctx context.Context, negotiationID, actingUserID uuid.UUID) (*domain.Negotiation, error) {
	n, _, _, _, err := s.loadForParty(ctx, negotiationID, actingUserID)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetEventRequestNegotiations lists threads on a request, newest first. The
// requester sees every thread; an organizer sees only their own.
func (s *Service) GetEventRequestNegotiations(ctx context.Context, eventRequestID, actingUserID uuid.UUID) ([]*domain.Negotiation, error) {
	req, err := s.loadRequest(ctx, eventRequestID)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByEventRequest(ctx, eventRequestID)
	if err != nil {
		return nil, err
	}
	if req.IsRequester(actingUserID) {
		return list, nil
	}
	own := make([]*domain.Negotiation, 0, len(list))
	for _, n := range list {
		if id, err := s.organizerOf(n, req); err == nil && id == actingUserID {
			own = append(own, n)
		}
	}
	if len(own) == 0 {
		return nil, ErrUnauthorized
	}
	return own, nil
}

// ReceiveAIResponse attaches an externally computed advisory result to the
// newest pending thread of the request and pushes it to the request's
// channel subscribers. Nothing else waits on this path.
func (s *Service) ReceiveAIResponse(ctx context.Context, eventRequestID uuid.UUID, advice domain.Advice) (*domain.Negotiation, error) {
	var n *domain.Negotiation
	err := s.retry(ctx, func() error {
		var err error
		n, err = s.repo.LatestByStatus(ctx, eventRequestID, domain.StatusPending)
		if err != nil {
			return err
		}
		if n == nil {
			return ErrNegotiationNotFound
		}
		n.SetMeta(domain.MetaAIResponse, advice)
		if s.cfg.AIAgentID != uuid.Nil {
			n.SetMeta(domain.MetaAIAgentID, s.cfg.AIAgentID.String())
		}
		n.UpdatedAt = s.now()
		return s.repo.Update(ctx, n, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("negotiation_id", n.NegotiationID.String()).
		Str("event_request_id", eventRequestID.String()).
		Float64("ai_offer", advice.AIOffer).
		Msg("ai response attached")

	if s.pusher != nil {
		s.pusher.SendToChannel(notification.EventRequestChannel(eventRequestID), notification.Push{
			Type: "ai_response",
			Payload: map[string]interface{}{
				"eventRequestId": eventRequestID,
				"negotiationId":  n.NegotiationID,
				"response":       advice,
			},
		})
	}
	return n, nil
}

// PriceAnalysisInput is a stateless comparison request.
type PriceAnalysisInput struct {
	UserOffer      float64
	OrganizerOffer float64
	Budget         float64
}

// PriceAnalysis compares two offers without touching storage.
func (s *Service) PriceAnalysis(input PriceAnalysisInput) (domain.Analysis, error) {
	if input.UserOffer <= 0 || input.OrganizerOffer <= 0 || input.Budget < 0 {
		return domain.Analysis{}, domain.ErrInvalidOffer
	}
	return domain.Analyze(input.UserOffer, input.OrganizerOffer, input.Budget, s.cfg.ConvergenceThreshold), nil
}

// ExpireStale closes open threads that have not moved within the
// configured TTL and returns how many were expired.
func (s *Service) ExpireStale(ctx context.Context, limit int) (int, error) {
	cutoff := s.now().Add(-s.cfg.NegotiationTTL)
	stale, err := s.repo.ListStale(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, candidate := range stale {
		n, err := s.expireOne(ctx, candidate.NegotiationID, cutoff)
		if err != nil {
			s.logger.Warn().Err(err).Str("negotiation_id", candidate.NegotiationID.String()).Msg("failed to expire negotiation")
			continue
		}
		if n == nil {
			continue
		}
		expired++
		s.announceExpiry(ctx, n)
	}
	if expired > 0 {
		s.logger.Info().Int("count", expired).Msg("stale negotiations expired")
	}
	return expired, nil
}

func (s *Service) expireOne(ctx context.Context, negotiationID uuid.UUID, cutoff time.Time) (*domain.Negotiation, error) {
	var n *domain.Negotiation
	err := s.retry(ctx, func() error {
		var err error
		n, err = s.loadNegotiation(ctx, negotiationID)
		if err != nil {
			return err
		}
		if n.IsTerminal() || !n.UpdatedAt.Before(cutoff) {
			n = nil
			return nil
		}
		if err := n.Expire(s.now()); err != nil {
			return err
		}
		return s.repo.Update(ctx, n, nil)
	})
	return n, err
}

func (s *Service) announceExpiry(ctx context.Context, n *domain.Negotiation) {
	req, err := s.requests.GetByID(ctx, n.EventRequestID)
	if err != nil || req == nil {
		return
	}
	recipients := []uuid.UUID{req.RequesterID}
	organizerID, err := s.organizerOf(n, req)
	if err == nil {
		recipients = append(recipients, organizerID)
	}
	s.emit(ctx, fanout{
		typ:         notification.TypeNegotiationExpired,
		title:       "Negotiation expired",
		message:     "The negotiation closed after a period of inactivity",
		action:      "expired",
		payload:     threadPayload(n, organizerID),
		notifyUsers: recipients,
		pushUsers:   recipients,
	})
}

// retry reruns op while it loses optimistic-concurrency races.
func (s *Service) retry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = op()
		if !errors.Is(err, domain.ErrVersionConflict) && !errors.Is(err, eventrequest.ErrVersionConflict) {
			return err
		}
		s.logger.Debug().Int("attempt", attempt).Msg("write conflict, retrying")
	}
	return err
}

func (s *Service) loadNegotiation(ctx context.Context, id uuid.UUID) (*domain.Negotiation, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNegotiationNotFound
	}
	return n, nil
}

func (s *Service) loadRequest(ctx context.Context, id uuid.UUID) (*eventrequest.EventRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrEventRequestNotFound
	}
	return req, nil
}

// loadForParty loads a thread and its request and works out which side the
// caller is on.
func (s *Service) loadForParty(ctx context.Context, negotiationID, actingUserID uuid.UUID) (*domain.Negotiation, *eventrequest.EventRequest, uuid.UUID, domain.Party, error) {
	n, err := s.loadNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, nil, uuid.Nil, "", err
	}
	req, err := s.loadRequest(ctx, n.EventRequestID)
	if err != nil {
		return nil, nil, uuid.Nil, "", err
	}
	organizerID, orgErr := s.organizerOf(n, req)
	switch {
	case req.IsRequester(actingUserID):
		if orgErr != nil {
			return nil, nil, uuid.Nil, "", orgErr
		}
		return n, req, organizerID, domain.PartyUser, nil
	case orgErr == nil && organizerID == actingUserID:
		return n, req, organizerID, domain.PartyOrganizer, nil
	default:
		return nil, nil, uuid.Nil, "", ErrUnauthorized
	}
}

// organizerOf resolves the organizer a thread belongs to. Threads store the
// organizer id in metadata; older threads without it are matched by their
// initial offer against the proposed budgets on the request.
func (s *Service) organizerOf(n *domain.Negotiation, req *eventrequest.EventRequest) (uuid.UUID, error) {
	if id, ok := n.OrganizerID(); ok {
		if req.Response(id) == nil {
			return uuid.Nil, ErrOrganizerOfferNotFound
		}
		return id, nil
	}
	if resp := req.ResponseByBudget(n.InitialOffer); resp != nil {
		return resp.OrganizerID, nil
	}
	return uuid.Nil, ErrOrganizerOfferNotFound
}

// responseError maps an organizer response lookup failure onto the
// negotiation's errors.
func responseError(err error) error {
	if errors.Is(err, eventrequest.ErrResponseNotFound) {
		return ErrOrganizerOfferNotFound
	}
	return err
}

func (s *Service) counterpart(party domain.Party, requesterID, organizerID uuid.UUID) uuid.UUID {
	if party == domain.PartyUser {
		return organizerID
	}
	return requesterID
}

func (s *Service) roleName(ctx context.Context, userID uuid.UUID) string {
	if s.users != nil {
		if u, err := s.users.GetByID(ctx, userID); err == nil && u != nil {
			if role, err := s.users.GetRole(ctx, u.RoleID); err == nil && role != nil {
				return role.Name
			}
		}
	}
	return domainUser.RoleUser
}

func threadPayload(n *domain.Negotiation, organizerID uuid.UUID) map[string]interface{} {
	latest := n.Latest()
	return map[string]interface{}{
		"negotiationId":  n.NegotiationID,
		"eventRequestId": n.EventRequestID,
		"organizerId":    organizerID,
		"status":         string(n.Status),
		"round":          n.NegotiationRound,
		"offer":          latest.Offer,
		"party":          string(latest.Party),
		"message":        latest.Message,
	}
}
