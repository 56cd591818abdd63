// Package frequency implements rolling-window event counters and the cap
// policy service built on them.
//
// The Store is the only shared mutable state in the decision engine. Its
// single mutating primitive, IncrementAndGet, performs read-or-create,
// window rollover and increment inside one per-key critical section, so N
// concurrent callers for the same key always observe N distinct,
// monotonically increasing counts with no lost updates.
package frequency

import (
	"context"
	"sync"
	"time"
)

// Key identifies one counter. Counters are scoped per organization, user,
// campaign, ad and event type.
type Key struct {
	OrgID      string
	UserID     string
	CampaignID string
	AdID       string
	EventType  string
}

// Store is the counter backend. The memory implementation is the in-process
// default; the Redis implementation is used when multiple engine instances
// must share counters.
type Store interface {
	// IncrementAndGet atomically increments the counter, rolling the window
	// over to (1, now) first when it has elapsed, and returns the new count
	// together with the start of the current window.
	IncrementAndGet(ctx context.Context, key Key, window time.Duration) (count int64, windowStart time.Time, err error)
	// Peek returns the current count without mutating it, along with the
	// instant the window expires. A zero count means no active counter.
	Peek(ctx context.Context, key Key) (count int64, expiresAt time.Time, err error)
	// Reset deletes the counter entirely.
	Reset(ctx context.Context, key Key) error
	// ResetAll deletes every counter for the (org, user, campaign) triple
	// across ads and event types.
	ResetAll(ctx context.Context, orgID, userID, campaignID string) error
}

// nowFn is used to get the current time. In production it's time.Now, but
// tests replace it to drive window rollover deterministically.
var nowFn = time.Now

type counter struct {
	mu          sync.Mutex
	count       int64
	windowStart time.Time
	windowEnd   time.Time
	// gone marks a counter removed from the map while a concurrent
	// increment held a stale pointer; such callers retry against the map.
	gone bool
}

// MemoryStore is the in-process Store. Counters are created lazily and
// synchronized per key; the map mutex only guards membership.
type MemoryStore struct {
	mu       sync.RWMutex
	counters map[Key]*counter
}

// NewMemoryStore creates an empty in-process counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[Key]*counter)}
}

// IncrementAndGet implements Store.
func (s *MemoryStore) IncrementAndGet(_ context.Context, key Key, window time.Duration) (int64, time.Time, error) {
	for {
		s.mu.RLock()
		c, ok := s.counters[key]
		s.mu.RUnlock()

		if !ok {
			s.mu.Lock()
			c, ok = s.counters[key]
			if !ok {
				c = &counter{}
				s.counters[key] = c
			}
			s.mu.Unlock()
		}

		c.mu.Lock()
		if c.gone {
			// Lost a race with Reset; the map entry is fresh or absent now.
			c.mu.Unlock()
			continue
		}
		now := nowFn()
		if c.count == 0 || now.Sub(c.windowStart) >= window {
			c.count = 1
			c.windowStart = now
		} else {
			c.count++
		}
		c.windowEnd = c.windowStart.Add(window)
		count, start := c.count, c.windowStart
		c.mu.Unlock()
		return count, start, nil
	}
}

// Peek implements Store. An elapsed window reads as zero.
func (s *MemoryStore) Peek(_ context.Context, key Key) (int64, time.Time, error) {
	s.mu.RLock()
	c, ok := s.counters[key]
	s.mu.RUnlock()
	if !ok {
		return 0, time.Time{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gone || c.count == 0 || !nowFn().Before(c.windowEnd) {
		return 0, time.Time{}, nil
	}
	return c.count, c.windowEnd, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, key Key) error {
	s.mu.Lock()
	c, ok := s.counters[key]
	if ok {
		delete(s.counters, key)
	}
	s.mu.Unlock()
	if ok {
		c.mu.Lock()
		c.gone = true
		c.mu.Unlock()
	}
	return nil
}

// ResetAll implements Store.
func (s *MemoryStore) ResetAll(_ context.Context, orgID, userID, campaignID string) error {
	s.mu.Lock()
	var removed []*counter
	for key, c := range s.counters {
		if key.OrgID == orgID && key.UserID == userID && key.CampaignID == campaignID {
			delete(s.counters, key)
			removed = append(removed, c)
		}
	}
	s.mu.Unlock()
	for _, c := range removed {
		c.mu.Lock()
		c.gone = true
		c.mu.Unlock()
	}
	return nil
}
