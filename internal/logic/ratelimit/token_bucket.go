// Package ratelimit implements token bucket rate limiting for decision
// requests, keyed by organization.
//
// The token bucket algorithm allows burst traffic up to the bucket capacity
// while holding a sustained rate over time, which suits decision traffic
// that arrives in spikes.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a thread-safe token bucket rate limiter.
//
// The bucket has a fixed capacity and refills at a constant rate. Each
// request consumes one token; when the bucket is empty, requests are
// rejected until tokens refill.
type TokenBucket struct {
	capacity   int       // maximum tokens the bucket can hold
	tokens     int       // current tokens
	refillRate int       // tokens added per second
	lastRefill time.Time // last refill timestamp
	mu         sync.Mutex
	hitCount   int64 // requests that were rate limited
	totalCount int64 // all requests processed
}

// NewTokenBucket creates a bucket with the given capacity (burst allowance)
// and refill rate in tokens per second. The bucket starts full.
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow attempts to consume one token. It returns false when the bucket is
// empty and the request should be rejected.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.totalCount++

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	tokensToAdd := int(elapsed.Seconds() * float64(tb.refillRate))
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	tb.hitCount++
	return false
}

// Stats returns the number of rate limited requests and the total requests
// processed by this bucket.
func (tb *TokenBucket) Stats() (hits, total int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.hitCount, tb.totalCount
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
