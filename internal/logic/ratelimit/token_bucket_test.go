package ratelimit

import (
	"testing"
	"time"

	"github.com/adlytic/addecision/internal/observability"
)

func TestTokenBucket_Allow(t *testing.T) {
	bucket := NewTokenBucket(5, 1) // 5 tokens, refill 1 per second

	// Should allow 5 requests initially
	for i := 0; i < 5; i++ {
		if !bucket.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	// 6th request should be blocked
	if bucket.Allow() {
		t.Error("Expected 6th request to be blocked")
	}

	hits, total := bucket.Stats()
	if hits != 1 {
		t.Errorf("Expected 1 hit, got %d", hits)
	}
	if total != 6 {
		t.Errorf("Expected 6 total requests, got %d", total)
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := NewTokenBucket(2, 10) // 2 tokens, refill 10 per second

	bucket.Allow()
	bucket.Allow()

	if bucket.Allow() {
		t.Error("Expected request to be blocked")
	}

	// 200ms at 10 tokens/sec refills 2 tokens
	time.Sleep(200 * time.Millisecond)

	if !bucket.Allow() {
		t.Error("Expected request to be allowed after refill")
	}
}

func TestOrgLimiter_PerOrgIsolation(t *testing.T) {
	limiter := NewOrgLimiter(Config{Capacity: 1, RefillRate: 1, Enabled: true}, observability.NewNoOpRegistry())

	if !limiter.Allow("org-1") {
		t.Error("Expected org-1 first request to be allowed")
	}
	if limiter.Allow("org-1") {
		t.Error("Expected org-1 second request to be blocked")
	}

	// A different organization has its own bucket.
	if !limiter.Allow("org-2") {
		t.Error("Expected org-2 first request to be allowed")
	}
}

func TestOrgLimiter_NilMetrics(t *testing.T) {
	limiter := NewOrgLimiter(Config{Capacity: 1, RefillRate: 1, Enabled: true}, nil)

	if !limiter.Allow("org-1") {
		t.Error("Expected first request to be allowed")
	}
	// Second request is blocked and records a hit; neither call may panic
	// without a metrics registry.
	if limiter.Allow("org-1") {
		t.Error("Expected second request to be blocked")
	}
}

func TestOrgLimiter_Disabled(t *testing.T) {
	limiter := NewOrgLimiter(Config{Capacity: 1, RefillRate: 1, Enabled: false}, observability.NewNoOpRegistry())

	for i := 0; i < 10; i++ {
		if !limiter.Allow("org-1") {
			t.Errorf("Expected request %d to be allowed with limiter disabled", i+1)
		}
	}
}

func TestOrgLimiter_Stats(t *testing.T) {
	limiter := NewOrgLimiter(Config{Capacity: 2, RefillRate: 1, Enabled: true}, observability.NewNoOpRegistry())

	limiter.Allow("org-1")
	limiter.Allow("org-1")
	limiter.Allow("org-1") // blocked

	stats := limiter.GetStats()
	s, ok := stats["org-1"]
	if !ok {
		t.Fatal("Expected stats for org-1")
	}
	if s.Total != 3 {
		t.Errorf("Expected 3 total requests, got %d", s.Total)
	}
	if s.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", s.Hits)
	}
}
