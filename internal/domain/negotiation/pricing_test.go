package negotiation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMidpoint(t *testing.T) {
	assert.Equal(t, 400000.0, Midpoint(380000, 420000))
	assert.Equal(t, 2.0, Midpoint(1, 2))
	assert.Equal(t, 100.0, Midpoint(100, 100))
}

func TestIsConverging(t *testing.T) {
	assert.True(t, IsConverging(400000, 404000, DefaultConvergenceThreshold))
	assert.True(t, IsConverging(404000, 400000, DefaultConvergenceThreshold))
	assert.False(t, IsConverging(380000, 420000, DefaultConvergenceThreshold))
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name         string
		user, org    float64
		budget       float64
		wantRec      Recommendation
		wantFinal    bool
		wantMidpoint float64
		wantPercent  float64
	}{
		{"close offers", 400000, 403000, 400000, RecommendAccept, true, 401500, 0.75},
		{"midpoint within budget", 380000, 420000, 400000, RecommendCounter, false, 400000, 10},
		{"midpoint over budget", 400000, 500000, 400000, RecommendHold, false, 450000, 25},
		{"no budget", 100000, 200000, 0, RecommendCounter, false, 150000, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(tt.user, tt.org, tt.budget, DefaultConvergenceThreshold)
			assert.Equal(t, tt.wantRec, a.Recommendation)
			assert.Equal(t, tt.wantFinal, a.LikelyFinal)
			assert.Equal(t, tt.wantMidpoint, a.Midpoint)
			assert.InDelta(t, tt.wantPercent, a.GapPercent, 0.001)
		})
	}
}
