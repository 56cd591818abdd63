package models

import "time"

// Targeting dimensions evaluated for every decision. Used as keys in
// TargetingDecision.Breakdown and as labels in metrics and reasons.
const (
	DimensionGeo         = "geo"
	DimensionDevice      = "device"
	DimensionInterest    = "interest"
	DimensionDemographic = "demographic"
	DimensionBehavior    = "behavior"
)

// DimensionResult is the outcome of a single matcher. Score is always within
// [0,1]. Details carries human-readable sub-check values for debugging and is
// never consulted by decision logic. Results are immutable once returned.
type DimensionResult struct {
	Matches bool              `json:"matches"`
	Score   float64           `json:"score"`
	Details map[string]string `json:"details,omitempty"`
}

// TargetingDecision aggregates the five dimension results into one verdict.
// Score is the unweighted mean of the dimension scores. Reasons are
// advisory text for campaign debugging, not machine-parsed.
type TargetingDecision struct {
	Matches   bool                       `json:"matches"`
	Score     float64                    `json:"score"`
	Breakdown map[string]DimensionResult `json:"breakdown"`
	Reasons   []string                   `json:"reasons"`
}

// FrequencyCheckResult reports whether a user is still under cap for an ad.
type FrequencyCheckResult struct {
	Allowed       bool          `json:"allowed"`
	Reason        string        `json:"reason,omitempty"`
	CurrentCount  int64         `json:"current_count"`
	Limit         int           `json:"limit"`
	TimeRemaining time.Duration `json:"time_remaining"`
}

// DecisionResult is the combined output of one Decide call. Frequency is nil
// when targeting did not match and the frequency store was never consulted.
type DecisionResult struct {
	Eligible  bool                  `json:"eligible"`
	Targeting TargetingDecision     `json:"targeting"`
	Frequency *FrequencyCheckResult `json:"frequency,omitempty"`
	Trace     *DecisionTrace        `json:"trace,omitempty"`
}

// RecommendedCaps is the default policy suggestion surfaced to campaign
// managers when no explicit frequency policy is configured.
type RecommendedCaps struct {
	Impression CapSetting `json:"impression"`
	Click      CapSetting `json:"click"`
	Reasoning  string     `json:"reasoning"`
}

// CapSetting is one limit/window pair inside RecommendedCaps.
type CapSetting struct {
	Limit  int           `json:"limit"`
	Window time.Duration `json:"window"`
}

// AnalyticsSummary aggregates the durable event history for a campaign.
type AnalyticsSummary struct {
	CampaignID       string           `json:"campaign_id"`
	OrgID            string           `json:"org_id"`
	TotalEvents      int64            `json:"total_events"`
	UniqueUsers      int64            `json:"unique_users"`
	AvgEventsPerUser float64          `json:"avg_events_per_user"`
	EventsByType     map[string]int64 `json:"events_by_type"`
	WindowStart      time.Time        `json:"window_start,omitempty"`
	WindowEnd        time.Time        `json:"window_end,omitempty"`
}
