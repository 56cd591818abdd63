// Package logic contains the runtime decision making of the ad decision
// engine: targeting evaluation across five dimensions and the frequency
// capping built on the counter store.
package logic

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/logic/frequency"
	"github.com/adlytic/addecision/internal/models"
	"github.com/adlytic/addecision/internal/observability"
)

// DecisionEngine is the façade the serving layer calls once per ad request.
// It combines the targeting evaluator with the frequency cap service and
// owns the fail-open/fail-closed policy for counter store outages.
//
// Decide never records events. Recording an actual impression or click is the
// serving layer's job, after the ad was truly delivered.
type DecisionEngine struct {
	evaluator  *TargetingEvaluator
	caps       *frequency.CapService
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
	failOpen   bool
	debugTrace bool
}

// EngineOptions configures a DecisionEngine.
type EngineOptions struct {
	// FailOpen admits users when the frequency store is unreachable. The
	// default (closed) denies instead, trading missed impressions for
	// over-delivery protection.
	FailOpen   bool
	DebugTrace bool
}

// NewDecisionEngine wires the engine façade.
func NewDecisionEngine(evaluator *TargetingEvaluator, caps *frequency.CapService, metrics observability.MetricsRegistry, opts EngineOptions, logger *zap.Logger) *DecisionEngine {
	if logger == nil {
		logger = zap.L()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &DecisionEngine{
		evaluator:  evaluator,
		caps:       caps,
		logger:     logger,
		metrics:    metrics,
		failOpen:   opts.FailOpen,
		debugTrace: opts.DebugTrace,
	}
}

// Decide runs targeting first and consults the frequency store only for ads
// that matched; non-matching ads short-circuit without any counter I/O.
func (e *DecisionEngine) Decide(ctx context.Context, adID string, user models.UserContext, orgID string) (models.DecisionResult, error) {
	var trace *models.DecisionTrace
	if e.debugTrace {
		trace = &models.DecisionTrace{}
	}

	// The evaluator hands back the ad it resolved; re-fetching here could
	// hit a newer catalog snapshot that no longer holds the ad.
	targeting, ad, err := e.evaluator.evaluateTraced(adID, user, trace)
	if err != nil {
		return models.DecisionResult{}, err
	}

	result := models.DecisionResult{Targeting: targeting, Trace: trace}
	if !targeting.Matches {
		e.metrics.IncrementDecisions("targeting_rejected")
		trace.AddStep("decision", map[string]string{"eligible": "false", "cause": "targeting"})
		return result, nil
	}

	check, err := e.caps.CheckFrequencyCap(ctx, user.UserID, adID, ad.CampaignID, orgID, models.EventImpression)
	if err != nil {
		check = e.applyFailPolicy(adID, user.UserID, err)
	}
	result.Frequency = &check
	result.Eligible = targeting.Matches && check.Allowed

	if result.Eligible {
		e.metrics.IncrementDecisions("eligible")
	} else {
		e.metrics.IncrementDecisions("frequency_capped")
	}
	trace.AddStep("decision", map[string]string{
		"eligible": boolString(result.Eligible),
		"allowed":  boolString(check.Allowed),
	})
	return result, nil
}

// applyFailPolicy converts a frequency store failure into an explicit
// allow/deny result rather than an opaque error. The outage is always
// surfaced through the reason, logs and metrics.
func (e *DecisionEngine) applyFailPolicy(adID, userID string, err error) models.FrequencyCheckResult {
	e.metrics.IncrementDecisions("store_error")
	e.logger.Warn("frequency check failed",
		zap.String("ad_id", adID),
		zap.String("user_id", userID),
		zap.Bool("fail_open", e.failOpen),
		zap.Error(err),
	)
	if e.failOpen {
		return models.FrequencyCheckResult{
			Allowed: true,
			Reason:  "frequency cap unknown, failing open",
		}
	}
	return models.FrequencyCheckResult{
		Reason: "frequency cap unknown, failing closed",
	}
}

// Evaluate exposes targeting evaluation without a frequency check.
func (e *DecisionEngine) Evaluate(adID string, user models.UserContext) (models.TargetingDecision, error) {
	return e.evaluator.Evaluate(adID, user)
}

// CheckFrequencyCap delegates to the cap service.
func (e *DecisionEngine) CheckFrequencyCap(ctx context.Context, userID, adID, campaignID, orgID, eventType string) (models.FrequencyCheckResult, error) {
	return e.caps.CheckFrequencyCap(ctx, userID, adID, campaignID, orgID, eventType)
}

// RecordFrequencyEvent delegates to the cap service.
func (e *DecisionEngine) RecordFrequencyEvent(ctx context.Context, userID, adID, campaignID, orgID, eventType string) error {
	return e.caps.RecordFrequencyEvent(ctx, userID, adID, campaignID, orgID, eventType)
}

// CheckAndRecord delegates to the cap service's atomic variant.
func (e *DecisionEngine) CheckAndRecord(ctx context.Context, userID, adID, campaignID, orgID, eventType string) (models.FrequencyCheckResult, error) {
	return e.caps.CheckAndRecord(ctx, userID, adID, campaignID, orgID, eventType)
}

// GetFrequencyAnalytics delegates to the cap service.
func (e *DecisionEngine) GetFrequencyAnalytics(ctx context.Context, campaignID, orgID string, start, end time.Time) (models.AnalyticsSummary, error) {
	return e.caps.GetFrequencyAnalytics(ctx, campaignID, orgID, start, end)
}

// ResetFrequencyCaps delegates to the cap service.
func (e *DecisionEngine) ResetFrequencyCaps(ctx context.Context, userID, campaignID, orgID string) error {
	return e.caps.ResetFrequencyCaps(ctx, userID, campaignID, orgID)
}

// GetRecommendedFrequencyCaps delegates to the cap service.
func (e *DecisionEngine) GetRecommendedFrequencyCaps(campaignID, orgID string) models.RecommendedCaps {
	return e.caps.GetRecommendedFrequencyCaps(campaignID, orgID)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
