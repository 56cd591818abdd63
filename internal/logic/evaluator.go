package logic

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/logic/match"
	"github.com/adlytic/addecision/internal/models"
)

// Overall match threshold and the reason buckets reported to advertisers.
const (
	overallThreshold = 0.5

	bucketExcellent = 0.8
	bucketGood      = 0.6
	bucketModerate  = 0.4
)

// TargetingEvaluator turns an ad plus a user context into a scored targeting
// decision. Evaluation is pure CPU work over the in-memory catalog snapshot;
// it performs no I/O and needs no synchronization.
type TargetingEvaluator struct {
	store  models.AdDataStore
	logger *zap.Logger
}

// NewTargetingEvaluator constructs an evaluator over the given catalog store.
func NewTargetingEvaluator(store models.AdDataStore, logger *zap.Logger) *TargetingEvaluator {
	if logger == nil {
		logger = zap.L()
	}
	return &TargetingEvaluator{store: store, logger: logger}
}

// Evaluate resolves the ad, merges ad-level criteria over campaign-level
// criteria and scores all five dimensions. ErrAdNotFound is returned when the
// ad identifier does not resolve, ErrAdInactive when the ad or its campaign
// is paused.
func (e *TargetingEvaluator) Evaluate(adID string, user models.UserContext) (models.TargetingDecision, error) {
	decision, _, err := e.evaluateTraced(adID, user, nil)
	return decision, err
}

// evaluateTraced also returns the resolved ad so callers keep working with
// the same catalog snapshot; a second GetAd could miss after a concurrent
// reload dropped the ad.
func (e *TargetingEvaluator) evaluateTraced(adID string, user models.UserContext, trace *models.DecisionTrace) (models.TargetingDecision, *models.Ad, error) {
	ad := e.store.GetAd(adID)
	if ad == nil {
		return models.TargetingDecision{}, nil, fmt.Errorf("evaluate ad %s: %w", adID, ErrAdNotFound)
	}
	if !ad.Active {
		return models.TargetingDecision{}, nil, fmt.Errorf("evaluate ad %s: %w", adID, ErrAdInactive)
	}

	var campaignTargeting *models.TargetingCriteria
	if campaign := e.store.GetCampaign(ad.CampaignID); campaign != nil {
		if !campaign.Active {
			return models.TargetingDecision{}, nil, fmt.Errorf("evaluate ad %s: campaign %s: %w", adID, ad.CampaignID, ErrAdInactive)
		}
		campaignTargeting = campaign.Targeting
	}
	merged := models.MergeTargeting(campaignTargeting, ad.Targeting)
	trace.AddStep("merge", map[string]string{
		"ad_id":       ad.ID,
		"campaign_id": ad.CampaignID,
	})

	decision := e.EvaluateCriteria(merged, user, trace)

	e.logger.Debug("targeting evaluated",
		zap.String("ad_id", adID),
		zap.Float64("score", decision.Score),
		zap.Bool("matches", decision.Matches),
	)
	return decision, ad, nil
}

// EvaluateCriteria scores already-merged criteria against a user context.
// The overall score is the unweighted arithmetic mean of the five dimension
// scores; all dimensions carry equal importance.
func (e *TargetingEvaluator) EvaluateCriteria(criteria models.TargetingCriteria, user models.UserContext, trace *models.DecisionTrace) models.TargetingDecision {
	breakdown := map[string]models.DimensionResult{
		models.DimensionGeo:         match.Geo(criteria.Geo, user.Geo),
		models.DimensionDevice:      match.Device(criteria.Device, user.Device),
		models.DimensionInterest:    match.Interests(criteria.Interests, user.Interests),
		models.DimensionDemographic: match.Demographics(criteria.Demographics, user.Demographics),
		models.DimensionBehavior:    match.Behaviors(criteria.Behaviors, user.Behaviors),
	}

	var sum float64
	for _, dim := range dimensionOrder {
		result := breakdown[dim]
		sum += result.Score
		trace.AddStep(dim, map[string]string{
			"score":   fmt.Sprintf("%.3f", result.Score),
			"matches": fmt.Sprintf("%t", result.Matches),
		})
	}
	score := sum / float64(len(dimensionOrder))

	return models.TargetingDecision{
		Matches:   score >= overallThreshold,
		Score:     score,
		Breakdown: breakdown,
		Reasons:   buildReasons(score, breakdown),
	}
}

// dimensionOrder fixes iteration order so reasons and traces are stable.
var dimensionOrder = []string{
	models.DimensionGeo,
	models.DimensionDevice,
	models.DimensionInterest,
	models.DimensionDemographic,
	models.DimensionBehavior,
}

func buildReasons(score float64, breakdown map[string]models.DimensionResult) []string {
	var bucket string
	switch {
	case score >= bucketExcellent:
		bucket = "excellent targeting match"
	case score >= bucketGood:
		bucket = "good targeting match"
	case score >= bucketModerate:
		bucket = "moderate targeting match"
	default:
		bucket = "poor targeting match"
	}
	reasons := []string{fmt.Sprintf("%s (score %.2f)", bucket, score)}

	for _, dim := range dimensionOrder {
		if result := breakdown[dim]; result.Score < overallThreshold {
			reasons = append(reasons, fmt.Sprintf("low %s score (%.2f)", dim, result.Score))
		}
	}
	return reasons
}
