package match

import (
	"fmt"
	"strings"

	"github.com/adlytic/addecision/internal/models"
)

// Behaviors scores behavioral-signal frequency similarity. For each targeted
// (type, value) pair that the user also exhibits, the frequency ratio
// min/max contributes to the average; the ratio is symmetric in its two
// arguments and falls back to 0.5 when either frequency is missing.
//
// Targeted behaviors the user does not exhibit at all are excluded from both
// numerator and denominator, so an ad targeting five behaviors scores purely
// on the single one the user shares. This rewards narrow overlap instead of
// penalizing missing signals; kept deliberately, see DESIGN.md.
func Behaviors(target, user []models.BehaviorSignal) models.DimensionResult {
	if len(target) == 0 || len(user) == 0 {
		return neutral("no behavior targeting or no user behaviors")
	}

	userByKey := make(map[string]models.BehaviorSignal, len(user))
	for _, b := range user {
		userByKey[behaviorKey(b)] = b
	}

	var sum float64
	matched := 0
	for _, b := range target {
		ub, ok := userByKey[behaviorKey(b)]
		if !ok {
			continue
		}
		matched++
		sum += frequencyRatio(b.Frequency, ub.Frequency)
	}

	if matched == 0 {
		return models.DimensionResult{
			Matches: false,
			Score:   0,
			Details: map[string]string{"matched_behaviors": "0"},
		}
	}

	score := sum / float64(matched)
	return models.DimensionResult{
		Matches: score >= behaviorThreshold,
		Score:   score,
		Details: map[string]string{
			"matched_behaviors":  fmt.Sprintf("%d", matched),
			"targeted_behaviors": fmt.Sprintf("%d", len(target)),
		},
	}
}

// frequencyRatio is min(a,b)/max(a,b), or 0.5 when either side is zero.
func frequencyRatio(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0.5
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

func behaviorKey(b models.BehaviorSignal) string {
	return strings.ToLower(b.Type) + "\x00" + strings.ToLower(b.Value)
}
