// Package match scores how well an ad's targeting criteria fit a user
// context, one dimension at a time.
//
// Every matcher is total: given well-typed inputs it always produces a
// DimensionResult and never returns an error. When either side of a dimension
// is absent the matcher yields the neutral result {matches: true, score: 0.5}:
// missing targeting data widens the audience, it never auto-rejects.
// Malformed sub-fields (screen sizes, age ranges) degrade that single
// sub-check to "no match" instead of failing the evaluation.
package match

import "github.com/adlytic/addecision/internal/models"

// Match thresholds per dimension. Interests use a deliberately lower bar
// because interest sets are sparse and partial overlap is still a meaningful
// signal; behaviors sit between the two.
const (
	defaultThreshold  = 0.7
	interestThreshold = 0.3
	behaviorThreshold = 0.6
)

// neutralScore is used when a dimension cannot be evaluated on either side.
const neutralScore = 0.5

func neutral(reason string) models.DimensionResult {
	return models.DimensionResult{
		Matches: true,
		Score:   neutralScore,
		Details: map[string]string{"neutral": reason},
	}
}
