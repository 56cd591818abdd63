package models

import "time"

// Event types counted against frequency caps.
const (
	EventImpression = "impression"
	EventClick      = "click"
)

// ValidEventType reports whether t is a cappable event type.
func ValidEventType(t string) bool {
	return t == EventImpression || t == EventClick
}

// Campaign groups ads under one organization and carries campaign-level
// targeting criteria that individual ads inherit and may override.
type Campaign struct {
	ID        string             `json:"id"`
	OrgID     string             `json:"org_id"`
	Name      string             `json:"name"`
	Targeting *TargetingCriteria `json:"targeting,omitempty"`
	Active    bool               `json:"active"`
}

// Ad is a single creative eligible for decisioning. Ad-level targeting
// overrides campaign-level targeting field by field at evaluation time.
type Ad struct {
	ID         string             `json:"id"`
	CampaignID string             `json:"campaign_id"`
	OrgID      string             `json:"org_id"`
	Name       string             `json:"name"`
	Targeting  *TargetingCriteria `json:"targeting,omitempty"`
	Active     bool               `json:"active"`
}

// FrequencyCapPolicy limits how many events of one type a user may accumulate
// for a campaign within a rolling window. One policy exists per
// (organization, campaign, event type); campaigns without a configured policy
// fall back to engine defaults.
type FrequencyCapPolicy struct {
	OrgID      string        `json:"org_id"`
	CampaignID string        `json:"campaign_id"`
	EventType  string        `json:"event_type"`
	Limit      int           `json:"limit"`
	Window     time.Duration `json:"window"`
}

// FrequencyEvent is one row of the durable event history used for analytics.
// The hot-path counters in the frequency store are separate from this log.
type FrequencyEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	OrgID      string    `json:"org_id"`
	UserID     string    `json:"user_id"`
	AdID       string    `json:"ad_id"`
	CampaignID string    `json:"campaign_id"`
	EventType  string    `json:"event_type"`
}
