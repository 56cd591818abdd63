package frequency

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/models"
	"github.com/adlytic/addecision/internal/observability"
)

// Default cap policies applied when a campaign has none configured.
const (
	DefaultImpressionLimit  = 10
	DefaultImpressionWindow = 24 * time.Hour
	DefaultClickLimit       = 3
	DefaultClickWindow      = 24 * time.Hour
)

// EventLog is the durable event history consumed by analytics. It is distinct
// from the hot-path counter store: the log keeps every event forever, the
// counters only hold the current window.
type EventLog interface {
	AppendEvent(ctx context.Context, event models.FrequencyEvent) error
	QueryEvents(ctx context.Context, campaignID, orgID string, start, end time.Time) ([]models.FrequencyEvent, error)
}

// CapService enforces frequency cap policies on top of a Store.
//
// CheckFrequencyCap and RecordFrequencyEvent are deliberately separate calls:
// the serving layer checks before the auction and records only after an ad
// was actually delivered. Two concurrent requests can therefore both pass the
// check before either records, so a counter may exceed its limit by at most
// the number of in-flight checks. Callers that want an exact cap must use
// CheckAndRecord, which folds both into one atomic increment.
type CapService struct {
	store   Store
	catalog models.AdDataStore
	events  EventLog
	logger  *zap.Logger
	metrics observability.MetricsRegistry
	timeout time.Duration
}

// NewCapService wires a cap service. The catalog's policy snapshot acts as
// the policy cache; events may be nil when no durable log is configured.
func NewCapService(store Store, catalog models.AdDataStore, events EventLog, metrics observability.MetricsRegistry, timeout time.Duration, logger *zap.Logger) *CapService {
	if logger == nil {
		logger = zap.L()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &CapService{
		store:   store,
		catalog: catalog,
		events:  events,
		logger:  logger,
		metrics: metrics,
		timeout: timeout,
	}
}

// PolicyFor returns the configured policy for (org, campaign, event type),
// falling back to the engine defaults.
func (s *CapService) PolicyFor(orgID, campaignID, eventType string) models.FrequencyCapPolicy {
	if p := s.catalog.GetFrequencyPolicy(orgID, campaignID, eventType); p != nil && p.Limit > 0 && p.Window > 0 {
		return *p
	}
	policy := models.FrequencyCapPolicy{
		OrgID:      orgID,
		CampaignID: campaignID,
		EventType:  eventType,
	}
	if eventType == models.EventClick {
		policy.Limit = DefaultClickLimit
		policy.Window = DefaultClickWindow
	} else {
		policy.Limit = DefaultImpressionLimit
		policy.Window = DefaultImpressionWindow
	}
	return policy
}

// CheckFrequencyCap reports whether the user is still under cap for the ad.
// It only peeks at the counter and never mutates it.
func (s *CapService) CheckFrequencyCap(ctx context.Context, userID, adID, campaignID, orgID, eventType string) (models.FrequencyCheckResult, error) {
	if !models.ValidEventType(eventType) {
		return models.FrequencyCheckResult{}, fmt.Errorf("check frequency cap: %w: %q", ErrInvalidEventType, eventType)
	}
	policy := s.PolicyFor(orgID, campaignID, eventType)
	key := Key{OrgID: orgID, UserID: userID, CampaignID: campaignID, AdID: adID, EventType: eventType}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	count, expiresAt, err := s.store.Peek(ctx, key)
	if err != nil {
		s.metrics.IncrementStoreErrors()
		return models.FrequencyCheckResult{}, wrapStoreErr("peek frequency counter", err)
	}

	result := models.FrequencyCheckResult{
		CurrentCount: count,
		Limit:        policy.Limit,
	}
	if !expiresAt.IsZero() {
		if remaining := expiresAt.Sub(nowFn()); remaining > 0 {
			result.TimeRemaining = remaining
		}
	}
	if count < int64(policy.Limit) {
		result.Allowed = true
		result.Reason = "under frequency cap"
		s.metrics.IncrementFrequencyChecks("allowed")
	} else {
		result.Reason = fmt.Sprintf("%s cap of %d reached for window", eventType, policy.Limit)
		s.metrics.IncrementFrequencyChecks("denied")
	}
	return result, nil
}

// RecordFrequencyEvent increments the counter for an event that was actually
// served and appends it to the durable event log. It does not re-check the
// cap: callers must have called CheckFrequencyCap first.
func (s *CapService) RecordFrequencyEvent(ctx context.Context, userID, adID, campaignID, orgID, eventType string) error {
	if !models.ValidEventType(eventType) {
		return fmt.Errorf("record frequency event: %w: %q", ErrInvalidEventType, eventType)
	}
	policy := s.PolicyFor(orgID, campaignID, eventType)
	key := Key{OrgID: orgID, UserID: userID, CampaignID: campaignID, AdID: adID, EventType: eventType}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	count, _, err := s.store.IncrementAndGet(ctx, key, policy.Window)
	if err != nil {
		s.metrics.IncrementStoreErrors()
		return wrapStoreErr("increment frequency counter", err)
	}
	s.metrics.IncrementFrequencyEvents(eventType)
	if count > int64(policy.Limit) {
		s.logger.Warn("frequency counter over limit",
			zap.String("user_id", userID),
			zap.String("ad_id", adID),
			zap.Int64("count", count),
			zap.Int("limit", policy.Limit),
		)
	}

	s.appendEvent(ctx, userID, adID, campaignID, orgID, eventType)
	return nil
}

// CheckAndRecord atomically counts the event and reports whether it landed
// within the cap. Unlike the check/record pair there is no race window here:
// the increment itself is the check.
func (s *CapService) CheckAndRecord(ctx context.Context, userID, adID, campaignID, orgID, eventType string) (models.FrequencyCheckResult, error) {
	if !models.ValidEventType(eventType) {
		return models.FrequencyCheckResult{}, fmt.Errorf("check and record: %w: %q", ErrInvalidEventType, eventType)
	}
	policy := s.PolicyFor(orgID, campaignID, eventType)
	key := Key{OrgID: orgID, UserID: userID, CampaignID: campaignID, AdID: adID, EventType: eventType}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	count, windowStart, err := s.store.IncrementAndGet(ctx, key, policy.Window)
	if err != nil {
		s.metrics.IncrementStoreErrors()
		return models.FrequencyCheckResult{}, wrapStoreErr("increment frequency counter", err)
	}

	result := models.FrequencyCheckResult{
		CurrentCount: count,
		Limit:        policy.Limit,
	}
	if remaining := windowStart.Add(policy.Window).Sub(nowFn()); remaining > 0 {
		result.TimeRemaining = remaining
	}
	if count <= int64(policy.Limit) {
		result.Allowed = true
		result.Reason = "recorded within frequency cap"
		s.metrics.IncrementFrequencyChecks("allowed")
		s.metrics.IncrementFrequencyEvents(eventType)
		s.appendEvent(ctx, userID, adID, campaignID, orgID, eventType)
	} else {
		result.Reason = fmt.Sprintf("%s cap of %d reached for window", eventType, policy.Limit)
		s.metrics.IncrementFrequencyChecks("denied")
	}
	return result, nil
}

// ResetFrequencyCaps clears all counters for the (user, campaign, org) triple
// across ads and event types.
func (s *CapService) ResetFrequencyCaps(ctx context.Context, userID, campaignID, orgID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.store.ResetAll(ctx, orgID, userID, campaignID); err != nil {
		s.metrics.IncrementStoreErrors()
		return wrapStoreErr("reset frequency counters", err)
	}
	s.logger.Info("frequency caps reset",
		zap.String("user_id", userID),
		zap.String("campaign_id", campaignID),
		zap.String("org_id", orgID),
	)
	return nil
}

// GetFrequencyAnalytics aggregates the durable event history for a campaign.
// A zero start/end leaves that bound open.
func (s *CapService) GetFrequencyAnalytics(ctx context.Context, campaignID, orgID string, start, end time.Time) (models.AnalyticsSummary, error) {
	summary := models.AnalyticsSummary{
		CampaignID:   campaignID,
		OrgID:        orgID,
		EventsByType: make(map[string]int64),
		WindowStart:  start,
		WindowEnd:    end,
	}
	if s.events == nil {
		return summary, fmt.Errorf("frequency analytics: %w", ErrNoEventLog)
	}

	events, err := s.events.QueryEvents(ctx, campaignID, orgID, start, end)
	if err != nil {
		return summary, fmt.Errorf("query frequency events: %w", err)
	}

	users := make(map[string]struct{})
	for _, event := range events {
		summary.TotalEvents++
		summary.EventsByType[event.EventType]++
		users[event.UserID] = struct{}{}
	}
	summary.UniqueUsers = int64(len(users))
	if summary.UniqueUsers > 0 {
		summary.AvgEventsPerUser = float64(summary.TotalEvents) / float64(summary.UniqueUsers)
	}
	return summary, nil
}

// GetRecommendedFrequencyCaps returns the effective limit/window pairs for a
// campaign, surfacing configured policies where present and the engine
// defaults otherwise.
func (s *CapService) GetRecommendedFrequencyCaps(campaignID, orgID string) models.RecommendedCaps {
	imp := s.PolicyFor(orgID, campaignID, models.EventImpression)
	click := s.PolicyFor(orgID, campaignID, models.EventClick)
	return models.RecommendedCaps{
		Impression: models.CapSetting{Limit: imp.Limit, Window: imp.Window},
		Click:      models.CapSetting{Limit: click.Limit, Window: click.Window},
		Reasoning: fmt.Sprintf(
			"defaults of %d impressions and %d clicks per day balance reach against ad fatigue; configured campaign policies override them",
			DefaultImpressionLimit, DefaultClickLimit),
	}
}

func (s *CapService) appendEvent(ctx context.Context, userID, adID, campaignID, orgID, eventType string) {
	if s.events == nil {
		return
	}
	event := models.FrequencyEvent{
		Timestamp:  nowFn(),
		OrgID:      orgID,
		UserID:     userID,
		AdID:       adID,
		CampaignID: campaignID,
		EventType:  eventType,
	}
	// The event log is analytics-only: a failed append must not fail the
	// serving path.
	if err := s.events.AppendEvent(ctx, event); err != nil {
		s.logger.Error("append frequency event", zap.Error(err))
	}
}

func (s *CapService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// wrapStoreErr folds backend and timeout failures into ErrStoreUnavailable;
// the two are handled identically by the fail policy.
func wrapStoreErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
