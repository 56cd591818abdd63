package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/adlytic/addecision/internal/models"
)

// MockEventLog is an in-memory event log for testing.
type MockEventLog struct {
	mu     sync.Mutex
	Events []models.FrequencyEvent
}

// NewMockEventLog creates a new in-memory event log.
func NewMockEventLog() *MockEventLog {
	return &MockEventLog{}
}

// AppendEvent stores the event in memory.
func (m *MockEventLog) AppendEvent(ctx context.Context, event models.FrequencyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

// QueryEvents filters the stored events like the ClickHouse query would.
func (m *MockEventLog) QueryEvents(ctx context.Context, campaignID, orgID string, start, end time.Time) ([]models.FrequencyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.FrequencyEvent
	for _, e := range m.Events {
		if e.OrgID != orgID || e.CampaignID != campaignID {
			continue
		}
		if !start.IsZero() && e.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && e.Timestamp.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
