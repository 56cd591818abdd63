package match

import (
	"fmt"
	"strings"

	"github.com/adlytic/addecision/internal/models"
)

// Interests scores interest-set overlap as Jaccard similarity:
// |intersection| / |union|, case-insensitive. The function is symmetric in
// its arguments. Empty sets on either side yield the neutral result.
func Interests(target, user []string) models.DimensionResult {
	if len(target) == 0 || len(user) == 0 {
		return neutral("no interest targeting or no user interests")
	}

	targetSet := toSet(target)
	userSet := toSet(user)

	intersection := 0
	for interest := range targetSet {
		if _, ok := userSet[interest]; ok {
			intersection++
		}
	}
	union := len(targetSet) + len(userSet) - intersection

	score := float64(intersection) / float64(union)
	return models.DimensionResult{
		Matches: score >= interestThreshold,
		Score:   score,
		Details: map[string]string{
			"intersection": fmt.Sprintf("%d", intersection),
			"union":        fmt.Sprintf("%d", union),
		},
	}
}

func toSet(interests []string) map[string]struct{} {
	set := make(map[string]struct{}, len(interests))
	for _, interest := range interests {
		key := strings.ToLower(strings.TrimSpace(interest))
		if key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}
