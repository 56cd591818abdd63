package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adlytic/addecision/internal/models"
)

func TestBehaviorsNeutral(t *testing.T) {
	signals := []models.BehaviorSignal{{Type: "purchase", Value: "shoes", Frequency: 2}}

	result := Behaviors(nil, signals)
	assert.True(t, result.Matches)
	assert.Equal(t, 0.5, result.Score)

	result = Behaviors(signals, nil)
	assert.Equal(t, 0.5, result.Score)
}

func TestBehaviorsFrequencyRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b int
		want float64
	}{
		{"equal", 4, 4, 1.0},
		{"half", 2, 4, 0.5},
		{"symmetric", 4, 2, 0.5},
		{"missing left", 0, 4, 0.5},
		{"missing right", 4, 0, 0.5},
		{"both missing", 0, 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, frequencyRatio(tt.a, tt.b))
		})
	}
}

func TestBehaviorsScoring(t *testing.T) {
	target := []models.BehaviorSignal{
		{Type: "purchase", Value: "shoes", Frequency: 4},
		{Type: "page_view", Value: "electronics", Frequency: 10},
	}
	user := []models.BehaviorSignal{
		{Type: "purchase", Value: "shoes", Frequency: 2},
		{Type: "page_view", Value: "electronics", Frequency: 10},
	}

	// (2/4 + 10/10) / 2
	result := Behaviors(target, user)
	assert.InDelta(t, 0.75, result.Score, 1e-9)
	assert.True(t, result.Matches)
}

func TestBehaviorsUnmatchedTargetsExcluded(t *testing.T) {
	target := []models.BehaviorSignal{
		{Type: "purchase", Value: "shoes", Frequency: 3},
		{Type: "purchase", Value: "hats", Frequency: 5},
		{Type: "page_view", Value: "sports", Frequency: 7},
	}
	user := []models.BehaviorSignal{
		{Type: "purchase", Value: "shoes", Frequency: 3},
	}

	// Only the shared signal counts; the two the user lacks don't dilute it.
	result := Behaviors(target, user)
	assert.Equal(t, 1.0, result.Score)
	assert.True(t, result.Matches)
	assert.Equal(t, "1", result.Details["matched_behaviors"])
}

func TestBehaviorsNoOverlap(t *testing.T) {
	target := []models.BehaviorSignal{{Type: "purchase", Value: "shoes", Frequency: 2}}
	user := []models.BehaviorSignal{{Type: "page_view", Value: "sports", Frequency: 9}}

	result := Behaviors(target, user)
	assert.False(t, result.Matches)
	assert.Equal(t, 0.0, result.Score)
}

func TestBehaviorsKeyCaseInsensitive(t *testing.T) {
	target := []models.BehaviorSignal{{Type: "Purchase", Value: "Shoes", Frequency: 2}}
	user := []models.BehaviorSignal{{Type: "purchase", Value: "shoes", Frequency: 2}}

	result := Behaviors(target, user)
	assert.Equal(t, 1.0, result.Score)
}
