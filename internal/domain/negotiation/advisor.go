package negotiation

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_advisor.go -package=mocks . Advisor

import (
	"context"

	"github.com/google/uuid"
)

// AdviceRequest carries the two sides' latest offers to the advisory service.
type AdviceRequest struct {
	EventRequestID uuid.UUID `json:"eventRequestId"`
	UserOffer      float64   `json:"userOffer"`
	OrganizerOffer float64   `json:"organizerOffer"`
	EventType      string    `json:"eventType"`
	Location       string    `json:"location"`
	CurrentRound   int       `json:"currentRound"`
}

// Advice is a suggestion from the advisory service. It never drives a
// status transition.
type Advice struct {
	AIOffer    float64  `json:"aiOffer"`
	Message    string   `json:"message"`
	Accepted   bool     `json:"accepted"`
	FinalOffer *float64 `json:"finalOffer,omitempty"`
}

// Advisor suggests a middle-ground offer.
type Advisor interface {
	Suggest(ctx context.Context, req AdviceRequest) (*Advice, error)
}

// Suggestion is what gets attached to a thread after a counter-offer, from
// the advisor when it answered in time and from the midpoint otherwise.
type Suggestion struct {
	Offer       float64 `json:"offer"`
	Message     string  `json:"message,omitempty"`
	Source      string  `json:"source"`
	LikelyFinal bool    `json:"likelyFinal"`
	Accepted    bool    `json:"accepted,omitempty"`
}

const (
	SuggestionFromAdvisor  = "ai"
	SuggestionFromFallback = "midpoint"
)

// FallbackSuggestion is the deterministic suggestion used whenever advice is
// unavailable.
func FallbackSuggestion(userOffer, organizerOffer, threshold float64) Suggestion {
	return Suggestion{
		Offer:       Midpoint(userOffer, organizerOffer),
		Source:      SuggestionFromFallback,
		LikelyFinal: IsConverging(userOffer, organizerOffer, threshold),
	}
}
