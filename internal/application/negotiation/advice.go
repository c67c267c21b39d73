package negotiation

import (
	"context"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/eventrequest"
	domain "github.com/event-market/event-market/internal/domain/negotiation"
)

type adviceResult struct {
	advice *domain.Advice
	err    error
}

// suggest asks the advisor for a middle-ground offer and waits at most the
// configured timeout. A slow call is abandoned, not cancelled and retried;
// its result is dropped when it eventually arrives.
func (s *Service) suggest(ctx context.Context, req *eventrequest.EventRequest, n *domain.Negotiation) domain.Suggestion {
	userOffer, organizerOffer := latestOffers(n)
	fallback := domain.FallbackSuggestion(userOffer, organizerOffer, s.cfg.ConvergenceThreshold)
	if s.advisor == nil {
		return fallback
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AdvisoryTimeout)
	defer cancel()

	done := make(chan adviceResult, 1)
	go func() {
		advice, err := s.advisor.Suggest(callCtx, domain.AdviceRequest{
			EventRequestID: req.RequestID,
			UserOffer:      userOffer,
			OrganizerOffer: organizerOffer,
			EventType:      req.EventType,
			Location:       req.Venue,
			CurrentRound:   n.NegotiationRound,
		})
		done <- adviceResult{advice: advice, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil || res.advice == nil || res.advice.AIOffer <= 0 {
			s.logger.Warn().Err(res.err).Str("negotiation_id", n.NegotiationID.String()).Msg("advisory unavailable, using midpoint")
			return fallback
		}
		return domain.Suggestion{
			Offer:       res.advice.AIOffer,
			Message:     res.advice.Message,
			Source:      domain.SuggestionFromAdvisor,
			LikelyFinal: res.advice.Accepted || fallback.LikelyFinal,
			Accepted:    res.advice.Accepted,
		}
	case <-callCtx.Done():
		s.logger.Warn().Str("negotiation_id", n.NegotiationID.String()).Dur("timeout", s.cfg.AdvisoryTimeout).Msg("advisory timed out, using midpoint")
		return fallback
	}
}

// latestOffers returns the newest requester offer and the newest offer from
// the other side. Only the two most recent entries are considered.
func latestOffers(n *domain.Negotiation) (userOffer, otherOffer float64) {
	if len(n.History) == 0 {
		return 0, 0
	}
	latest := n.History[len(n.History)-1]
	if len(n.History) == 1 {
		return latest.Offer, latest.Offer
	}
	prev := n.History[len(n.History)-2]
	if latest.Party == domain.PartyUser {
		return latest.Offer, prev.Offer
	}
	return prev.Offer, latest.Offer
}

// attachSuggestion stores the suggestion in the thread's metadata. It runs
// as its own optimistic write so advice never holds up the counter-offer.
func (s *Service) attachSuggestion(ctx context.Context, negotiationID uuid.UUID, suggestion domain.Suggestion) error {
	return s.retry(ctx, func() error {
		n, err := s.loadNegotiation(ctx, negotiationID)
		if err != nil {
			return err
		}
		s.stampSuggestion(n, suggestion)
		return s.repo.Update(ctx, n, nil)
	})
}

func (s *Service) stampSuggestion(n *domain.Negotiation, suggestion domain.Suggestion) {
	n.SetMeta(domain.MetaAISuggestion, suggestion)
	if suggestion.Source == domain.SuggestionFromAdvisor && s.cfg.AIAgentID != uuid.Nil {
		n.SetMeta(domain.MetaAIAgentID, s.cfg.AIAgentID.String())
	}
}
