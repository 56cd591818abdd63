package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/models"
)

// Postgres wraps the campaign catalog database. The dashboard CRUD layer
// owns these tables; the decision engine only reads them into its in-memory
// snapshot on startup and periodic reload.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the catalog tables if they don't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS campaigns (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    name TEXT NOT NULL,
    targeting JSONB,
    active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS ads (
    id TEXT PRIMARY KEY,
    campaign_id TEXT REFERENCES campaigns(id),
    org_id TEXT NOT NULL,
    name TEXT NOT NULL,
    targeting JSONB,
    active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS frequency_cap_policies (
    org_id TEXT NOT NULL,
    campaign_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    cap_limit INT NOT NULL,
    window_seconds BIGINT NOT NULL,
    PRIMARY KEY (org_id, campaign_id, event_type)
);`

// InitPostgres connects to Postgres, applies the schema and configures the
// connection pool.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*Postgres, error) {
	db, err := otelsql.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")))
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		return nil, fmt.Errorf("postgres schema: %w", err)
	}

	zap.L().Info("Connected to Postgres")
	return &Postgres{DB: db}, nil
}

// LoadCampaigns reads all campaigns with their targeting criteria.
func (p *Postgres) LoadCampaigns() ([]models.Campaign, error) {
	rows, err := p.DB.Query(`SELECT id, org_id, name, targeting, active FROM campaigns`)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		var targeting []byte
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &targeting, &c.Active); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if c.Targeting, err = decodeTargeting(targeting); err != nil {
			zap.L().Warn("invalid campaign targeting, treating as untargeted",
				zap.String("campaign_id", c.ID), zap.Error(err))
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// LoadAds reads all ads with their targeting criteria.
func (p *Postgres) LoadAds() ([]models.Ad, error) {
	rows, err := p.DB.Query(`SELECT id, campaign_id, org_id, name, targeting, active FROM ads`)
	if err != nil {
		return nil, fmt.Errorf("load ads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ads []models.Ad
	for rows.Next() {
		var a models.Ad
		var targeting []byte
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.OrgID, &a.Name, &targeting, &a.Active); err != nil {
			return nil, fmt.Errorf("scan ad: %w", err)
		}
		if a.Targeting, err = decodeTargeting(targeting); err != nil {
			zap.L().Warn("invalid ad targeting, treating as untargeted",
				zap.String("ad_id", a.ID), zap.Error(err))
		}
		ads = append(ads, a)
	}
	return ads, rows.Err()
}

// LoadPolicies reads all configured frequency cap policies.
func (p *Postgres) LoadPolicies() ([]models.FrequencyCapPolicy, error) {
	rows, err := p.DB.Query(`SELECT org_id, campaign_id, event_type, cap_limit, window_seconds FROM frequency_cap_policies`)
	if err != nil {
		return nil, fmt.Errorf("load frequency policies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var policies []models.FrequencyCapPolicy
	for rows.Next() {
		var pol models.FrequencyCapPolicy
		var windowSeconds int64
		if err := rows.Scan(&pol.OrgID, &pol.CampaignID, &pol.EventType, &pol.Limit, &windowSeconds); err != nil {
			return nil, fmt.Errorf("scan frequency policy: %w", err)
		}
		pol.Window = time.Duration(windowSeconds) * time.Second
		policies = append(policies, pol)
	}
	return policies, rows.Err()
}

func decodeTargeting(raw []byte) (*models.TargetingCriteria, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var t models.TargetingCriteria
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Close shuts down the database connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}
