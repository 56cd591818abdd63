// Package analytics persists the durable frequency event history in
// ClickHouse. The decision engine's hot path never reads this store; it only
// appends, and the analytics endpoints aggregate over it.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/adlytic/addecision/internal/models"
)

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// EventStore wraps a ClickHouse connection holding the frequency event log.
type EventStore struct {
	DB *sql.DB
}

// InitClickHouse connects to ClickHouse and ensures the events table exists.
func InitClickHouse(dsn string) (*EventStore, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(25)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	create := `CREATE TABLE IF NOT EXISTS frequency_events (
       timestamp   DateTime,
       org_id      String,
       user_id     String,
       ad_id       String,
       campaign_id String,
       event_type  String
   ) ENGINE=MergeTree() ORDER BY (org_id, campaign_id, timestamp)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &EventStore{DB: db}, nil
}

// AppendEvent inserts a single frequency event row.
func (s *EventStore) AppendEvent(ctx context.Context, event models.FrequencyEvent) error {
	if s == nil || s.DB == nil {
		return ErrUnavailable
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO frequency_events (timestamp, org_id, user_id, ad_id, campaign_id, event_type) VALUES (?, ?, ?, ?, ?, ?)`,
		event.Timestamp, event.OrgID, event.UserID, event.AdID, event.CampaignID, event.EventType,
	)
	if err != nil {
		return fmt.Errorf("insert frequency event: %w", err)
	}
	return nil
}

// QueryEvents returns all events for a campaign within [start, end]. A zero
// start or end leaves that bound open.
func (s *EventStore) QueryEvents(ctx context.Context, campaignID, orgID string, start, end time.Time) ([]models.FrequencyEvent, error) {
	if s == nil || s.DB == nil {
		return nil, ErrUnavailable
	}

	query := `SELECT timestamp, org_id, user_id, ad_id, campaign_id, event_type
       FROM frequency_events WHERE org_id = ? AND campaign_id = ?`
	args := []any{orgID, campaignID}
	if !start.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, end)
	}
	query += ` ORDER BY timestamp`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query frequency events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []models.FrequencyEvent
	for rows.Next() {
		var e models.FrequencyEvent
		if err := rows.Scan(&e.Timestamp, &e.OrgID, &e.UserID, &e.AdID, &e.CampaignID, &e.EventType); err != nil {
			return nil, fmt.Errorf("scan frequency event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close shuts down the ClickHouse connection.
func (s *EventStore) Close() {
	if s != nil && s.DB != nil {
		if err := s.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}
