package logic

import "errors"

// Error kinds surfaced by the decision engine. Callers in the serving hot
// path branch on these with errors.Is; matcher-level absence of data is never
// an error.
var (
	// ErrAdNotFound is returned when an ad identifier does not resolve.
	ErrAdNotFound = errors.New("ad not found")
	// ErrCampaignNotFound is returned when an ad references an unknown campaign.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrAdInactive is returned when the ad or its campaign is paused.
	ErrAdInactive = errors.New("ad inactive")
)
