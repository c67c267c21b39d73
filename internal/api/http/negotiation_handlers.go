package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	appNegotiation "github.com/event-market/event-market/internal/application/negotiation"
	"github.com/event-market/event-market/internal/domain/negotiation"
)

type startNegotiationRequest struct {
	EventRequestID uuid.UUID `json:"eventRequestId" validate:"required"`
	ProposedBudget float64   `json:"proposedBudget" validate:"gt=0"`
	Message        string    `json:"message" validate:"max=2000"`
}

type counterOfferRequest struct {
	Offer   float64 `json:"offer" validate:"gt=0"`
	Message string  `json:"message" validate:"max=2000"`
}

type priceAnalysisRequest struct {
	UserOffer      float64 `json:"userOffer" validate:"gt=0"`
	OrganizerOffer float64 `json:"organizerOffer" validate:"gt=0"`
	Budget         float64 `json:"budget" validate:"gte=0"`
}

type aiResponseRequest struct {
	EventRequestID uuid.UUID `json:"eventRequestId" validate:"required"`
	AIOffer        float64   `json:"aiOffer" validate:"gt=0"`
	Message        string    `json:"message" validate:"max=2000"`
	Accepted       bool      `json:"accepted"`
	FinalOffer     *float64  `json:"finalOffer,omitempty" validate:"omitempty,gt=0"`
}

func (s *Server) startNegotiation(w http.ResponseWriter, r *http.Request) {
	var req startNegotiationRequest
	if !s.bind(w, r, &req) {
		return
	}
	caller := authUserFromContext(r.Context())
	n, err := s.negotiationSvc.StartNegotiation(r.Context(), appNegotiation.StartInput{
		EventRequestID: req.EventRequestID,
		OrganizerID:    caller.UserID,
		ProposedBudget: req.ProposedBudget,
		Message:        req.Message,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, n)
}

func (s *Server) getNegotiation(w http.ResponseWriter, r *http.Request) {
	s.onNegotiation(w, r, s.negotiationSvc.GetNegotiation)
}

func (s *Server) counterOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "negotiationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid negotiationId")
		return
	}
	var req counterOfferRequest
	if !s.bind(w, r, &req) {
		return
	}
	caller := authUserFromContext(r.Context())
	res, err := s.negotiationSvc.SubmitCounterOffer(r.Context(), appNegotiation.CounterInput{
		NegotiationID: id,
		Offer:         req.Offer,
		Message:       req.Message,
		ActingUserID:  caller.UserID,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, res)
}

func (s *Server) acceptOffer(w http.ResponseWriter, r *http.Request) {
	s.onNegotiation(w, r, s.negotiationSvc.AcceptOffer)
}

func (s *Server) rejectOffer(w http.ResponseWriter, r *http.Request) {
	s.onNegotiation(w, r, s.negotiationSvc.RejectOffer)
}

func (s *Server) cancelNegotiation(w http.ResponseWriter, r *http.Request) {
	s.onNegotiation(w, r, s.negotiationSvc.CancelNegotiation)
}

type negotiationAction func(ctx context.Context, negotiationID, actingUserID uuid.UUID) (*negotiation.Negotiation, error)

// onNegotiation runs a body-less operation on the negotiation in the path
// on behalf of the caller.
func (s *Server) onNegotiation(w http.ResponseWriter, r *http.Request, act negotiationAction) {
	id, err := parseUUIDParam(r, "negotiationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid negotiationId")
		return
	}
	caller := authUserFromContext(r.Context())
	n, err := act(r.Context(), id, caller.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, n)
}

func (s *Server) priceAnalysis(w http.ResponseWriter, r *http.Request) {
	var req priceAnalysisRequest
	if !s.bind(w, r, &req) {
		return
	}
	analysis, err := s.negotiationSvc.PriceAnalysis(appNegotiation.PriceAnalysisInput{
		UserOffer:      req.UserOffer,
		OrganizerOffer: req.OrganizerOffer,
		Budget:         req.Budget,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, analysis)
}

// receiveAIResponse is the callback the advisory agent uses to deliver a
// result computed outside the counter-offer path.
func (s *Server) receiveAIResponse(w http.ResponseWriter, r *http.Request) {
	var req aiResponseRequest
	if !s.bind(w, r, &req) {
		return
	}
	n, err := s.negotiationSvc.ReceiveAIResponse(r.Context(), req.EventRequestID, negotiation.Advice{
		AIOffer:    req.AIOffer,
		Message:    req.Message,
		Accepted:   req.Accepted,
		FinalOffer: req.FinalOffer,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, n)
}
