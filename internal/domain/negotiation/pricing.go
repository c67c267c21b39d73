package negotiation

import "math"

// DefaultConvergenceThreshold is the absolute gap under which two offers are
// treated as a likely final round.
const DefaultConvergenceThreshold = 5000

// Recommendation is the outcome of a price analysis.
type Recommendation string

const (
	RecommendAccept  Recommendation = "accept"
	RecommendCounter Recommendation = "counter"
	RecommendHold    Recommendation = "hold"
)

// Midpoint returns the rounded arithmetic midpoint of two offers.
func Midpoint(a, b float64) float64 {
	return math.Round((a + b) / 2)
}

// IsConverging reports whether two offers are within threshold of each other.
func IsConverging(a, b, threshold float64) bool {
	return math.Abs(a-b) <= threshold
}

// Analysis is a stateless comparison of the two sides' offers.
type Analysis struct {
	UserOffer      float64        `json:"userOffer"`
	OrganizerOffer float64        `json:"organizerOffer"`
	Budget         float64        `json:"budget,omitempty"`
	Midpoint       float64        `json:"midpoint"`
	Gap            float64        `json:"gap"`
	GapPercent     float64        `json:"gapPercent"`
	LikelyFinal    bool           `json:"likelyFinal"`
	Recommendation Recommendation `json:"recommendation"`
}

// Analyze compares two offers. GapPercent is relative to the budget when one
// is given and to the organizer offer otherwise.
func Analyze(userOffer, organizerOffer, budget, threshold float64) Analysis {
	gap := math.Abs(userOffer - organizerOffer)
	base := budget
	if base <= 0 {
		base = organizerOffer
	}
	pct := 0.0
	if base > 0 {
		pct = math.Round(gap/base*10000) / 100
	}
	a := Analysis{
		UserOffer:      userOffer,
		OrganizerOffer: organizerOffer,
		Budget:         budget,
		Midpoint:       Midpoint(userOffer, organizerOffer),
		Gap:            gap,
		GapPercent:     pct,
		LikelyFinal:    gap <= threshold,
	}
	switch {
	case a.LikelyFinal:
		a.Recommendation = RecommendAccept
	case budget <= 0 || a.Midpoint <= budget:
		a.Recommendation = RecommendCounter
	default:
		a.Recommendation = RecommendHold
	}
	return a
}
