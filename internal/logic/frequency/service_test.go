package frequency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/analytics"
	"github.com/adlytic/addecision/internal/models"
)

func testCatalog(t *testing.T, policies ...models.FrequencyCapPolicy) models.AdDataStore {
	t.Helper()
	store := models.NewTestAdDataStore()
	require.NoError(t, store.ReloadAll(nil, nil, policies))
	return store
}

func newTestService(t *testing.T, catalog models.AdDataStore, events EventLog) *CapService {
	t.Helper()
	return NewCapService(NewMemoryStore(), catalog, events, nil, 0, zap.NewNop())
}

func TestPolicyForDefaults(t *testing.T) {
	svc := newTestService(t, testCatalog(t), nil)

	imp := svc.PolicyFor("org-1", "camp-1", models.EventImpression)
	assert.Equal(t, DefaultImpressionLimit, imp.Limit)
	assert.Equal(t, DefaultImpressionWindow, imp.Window)

	click := svc.PolicyFor("org-1", "camp-1", models.EventClick)
	assert.Equal(t, DefaultClickLimit, click.Limit)
	assert.Equal(t, DefaultClickWindow, click.Window)
}

func TestPolicyForConfigured(t *testing.T) {
	policy := models.FrequencyCapPolicy{
		OrgID:      "org-1",
		CampaignID: "camp-1",
		EventType:  models.EventImpression,
		Limit:      3,
		Window:     time.Hour,
	}
	svc := newTestService(t, testCatalog(t, policy), nil)

	got := svc.PolicyFor("org-1", "camp-1", models.EventImpression)
	assert.Equal(t, 3, got.Limit)
	assert.Equal(t, time.Hour, got.Window)

	// Other campaigns still get defaults.
	other := svc.PolicyFor("org-1", "camp-2", models.EventImpression)
	assert.Equal(t, DefaultImpressionLimit, other.Limit)
}

func TestCheckFrequencyCapUnderAndOverLimit(t *testing.T) {
	policy := models.FrequencyCapPolicy{
		OrgID:      "org-1",
		CampaignID: "camp-1",
		EventType:  models.EventImpression,
		Limit:      3,
		Window:     time.Hour,
	}
	svc := newTestService(t, testCatalog(t, policy), nil)
	ctx := context.Background()

	result, err := svc.CheckFrequencyCap(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(0), result.CurrentCount)
	assert.Equal(t, 3, result.Limit)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RecordFrequencyEvent(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression))
	}

	result, err = svc.CheckFrequencyCap(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, int64(3), result.CurrentCount)
	assert.Greater(t, result.TimeRemaining, time.Duration(0))
}

func TestCheckFrequencyCapInvalidEventType(t *testing.T) {
	svc := newTestService(t, testCatalog(t), nil)

	_, err := svc.CheckFrequencyCap(context.Background(), "user-1", "ad-1", "camp-1", "org-1", "conversion")
	assert.ErrorIs(t, err, ErrInvalidEventType)

	err = svc.RecordFrequencyEvent(context.Background(), "user-1", "ad-1", "camp-1", "org-1", "")
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

func TestCheckFrequencyCapScopesUsersAndEventTypes(t *testing.T) {
	svc := newTestService(t, testCatalog(t), nil)
	ctx := context.Background()

	require.NoError(t, svc.RecordFrequencyEvent(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression))

	// Another user and another event type have independent counters.
	result, err := svc.CheckFrequencyCap(ctx, "user-2", "ad-1", "camp-1", "org-1", models.EventImpression)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.CurrentCount)

	result, err = svc.CheckFrequencyCap(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventClick)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.CurrentCount)
}

func TestCheckAndRecord(t *testing.T) {
	policy := models.FrequencyCapPolicy{
		OrgID:      "org-1",
		CampaignID: "camp-1",
		EventType:  models.EventImpression,
		Limit:      2,
		Window:     time.Hour,
	}
	events := analytics.NewMockEventLog()
	svc := newTestService(t, testCatalog(t, policy), events)
	ctx := context.Background()

	for i := int64(1); i <= 2; i++ {
		result, err := svc.CheckAndRecord(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, i, result.CurrentCount)
	}

	// The third attempt lands over the cap and is not logged as delivered.
	result, err := svc.CheckAndRecord(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, int64(3), result.CurrentCount)
	assert.Len(t, events.Events, 2)
}

func TestResetFrequencyCaps(t *testing.T) {
	svc := newTestService(t, testCatalog(t), nil)
	ctx := context.Background()

	require.NoError(t, svc.RecordFrequencyEvent(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression))
	require.NoError(t, svc.ResetFrequencyCaps(ctx, "user-1", "camp-1", "org-1"))

	result, err := svc.CheckFrequencyCap(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(0), result.CurrentCount)
}

func TestGetFrequencyAnalytics(t *testing.T) {
	events := analytics.NewMockEventLog()
	svc := newTestService(t, testCatalog(t), events)
	ctx := context.Background()

	require.NoError(t, svc.RecordFrequencyEvent(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression))
	require.NoError(t, svc.RecordFrequencyEvent(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventClick))
	require.NoError(t, svc.RecordFrequencyEvent(ctx, "user-2", "ad-1", "camp-1", "org-1", models.EventImpression))
	require.NoError(t, svc.RecordFrequencyEvent(ctx, "user-3", "ad-2", "camp-2", "org-1", models.EventImpression))

	summary, err := svc.GetFrequencyAnalytics(ctx, "camp-1", "org-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalEvents)
	assert.Equal(t, int64(2), summary.UniqueUsers)
	assert.InDelta(t, 1.5, summary.AvgEventsPerUser, 1e-9)
	assert.Equal(t, int64(2), summary.EventsByType[models.EventImpression])
	assert.Equal(t, int64(1), summary.EventsByType[models.EventClick])
}

func TestGetFrequencyAnalyticsNoEventLog(t *testing.T) {
	svc := newTestService(t, testCatalog(t), nil)

	_, err := svc.GetFrequencyAnalytics(context.Background(), "camp-1", "org-1", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNoEventLog)
}

func TestGetRecommendedFrequencyCaps(t *testing.T) {
	policy := models.FrequencyCapPolicy{
		OrgID:      "org-1",
		CampaignID: "camp-1",
		EventType:  models.EventImpression,
		Limit:      5,
		Window:     12 * time.Hour,
	}
	svc := newTestService(t, testCatalog(t, policy), nil)

	caps := svc.GetRecommendedFrequencyCaps("camp-1", "org-1")
	assert.Equal(t, 5, caps.Impression.Limit)
	assert.Equal(t, 12*time.Hour, caps.Impression.Window)
	// No click policy configured, so the default shows through.
	assert.Equal(t, DefaultClickLimit, caps.Click.Limit)
	assert.NotEmpty(t, caps.Reasoning)
}

// failingStore simulates an unreachable backend.
type failingStore struct{}

var errBackend = errors.New("connection refused")

func (failingStore) IncrementAndGet(context.Context, Key, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errBackend
}
func (failingStore) Peek(context.Context, Key) (int64, time.Time, error) {
	return 0, time.Time{}, errBackend
}
func (failingStore) Reset(context.Context, Key) error { return errBackend }
func (failingStore) ResetAll(context.Context, string, string, string) error {
	return errBackend
}

func TestStoreFailuresSurfaceAsUnavailable(t *testing.T) {
	svc := NewCapService(failingStore{}, testCatalog(t), nil, nil, 0, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CheckFrequencyCap(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = svc.RecordFrequencyEvent(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = svc.CheckAndRecord(ctx, "user-1", "ad-1", "camp-1", "org-1", models.EventImpression)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
