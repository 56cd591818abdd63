package ratelimit

import (
	"fmt"
	"sync"

	"github.com/adlytic/addecision/internal/observability"
)

// OrgLimiter rate limits decision requests per organization.
//
// Each organization gets its own token bucket, created lazily on first
// access, so a single noisy tenant cannot starve the others.
type OrgLimiter struct {
	buckets map[string]*TokenBucket
	mu      sync.RWMutex
	config  Config
	metrics observability.MetricsRegistry
}

// Config holds the rate limiting configuration.
type Config struct {
	Capacity   int  // token bucket capacity (burst allowance)
	RefillRate int  // tokens added per second (sustained rate)
	Enabled    bool // whether rate limiting is active
}

// NewOrgLimiter creates a per-organization rate limiter. A nil metrics
// registry falls back to the no-op implementation.
func NewOrgLimiter(config Config, metrics observability.MetricsRegistry) *OrgLimiter {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &OrgLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		metrics: metrics,
	}
}

// Allow reports whether a request for the given organization should proceed.
// When rate limiting is disabled via config it always returns true.
func (ol *OrgLimiter) Allow(orgID string) bool {
	if !ol.config.Enabled {
		return true
	}

	ol.metrics.IncrementRateLimitRequests(orgID)

	ol.mu.RLock()
	bucket, exists := ol.buckets[orgID]
	ol.mu.RUnlock()

	if !exists {
		// Double-checked locking so concurrent first requests for the same
		// org share one bucket.
		ol.mu.Lock()
		bucket, exists = ol.buckets[orgID]
		if !exists {
			bucket = NewTokenBucket(ol.config.Capacity, ol.config.RefillRate)
			ol.buckets[orgID] = bucket
		}
		ol.mu.Unlock()
	}

	allowed := bucket.Allow()
	if !allowed {
		ol.metrics.IncrementRateLimitHits(orgID)
	}

	return allowed
}

// GetStats returns a snapshot of rate limiting statistics per organization.
func (ol *OrgLimiter) GetStats() map[string]Stats {
	ol.mu.RLock()
	defer ol.mu.RUnlock()

	stats := make(map[string]Stats, len(ol.buckets))
	for orgID, bucket := range ol.buckets {
		hits, total := bucket.Stats()
		hitRate := 0.0
		if total > 0 {
			hitRate = float64(hits) / float64(total)
		}
		stats[orgID] = Stats{
			OrgID:   orgID,
			Hits:    hits,
			Total:   total,
			HitRate: hitRate,
		}
	}

	return stats
}

// Stats contains rate limiting statistics for a single organization.
type Stats struct {
	OrgID   string  `json:"OrgID"`
	Hits    int64   `json:"Hits"`
	Total   int64   `json:"Total"`
	HitRate float64 `json:"HitRate"` // fraction of requests rejected, 0.0-1.0
}

// String returns a human-readable representation of the statistics.
func (s Stats) String() string {
	return fmt.Sprintf("Org %s: %d/%d hits (%.2f%%)",
		s.OrgID, s.Hits, s.Total, s.HitRate*100)
}
