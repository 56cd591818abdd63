package frequency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/db"
)

// RedisStore implements Store on a shared Redis so multiple engine instances
// see the same counters. Atomicity comes from Redis itself: INCR is a single
// server-side operation and the window TTL is attached only on first set, the
// same counter idiom used for impression caps elsewhere in the platform.
// Window rollover is TTL expiry: Redis deletes the key when the window
// elapses and the next INCR starts a fresh window at 1.
type RedisStore struct {
	store *db.RedisStore
}

// NewRedisStore wraps an initialized Redis connection.
func NewRedisStore(store *db.RedisStore) *RedisStore {
	return &RedisStore{store: store}
}

func redisKey(key Key) string {
	return fmt.Sprintf("freqcap:%s:%s:%s:%s:%s",
		key.OrgID, key.UserID, key.CampaignID, key.AdID, key.EventType)
}

// IncrementAndGet implements Store.
func (r *RedisStore) IncrementAndGet(ctx context.Context, key Key, window time.Duration) (int64, time.Time, error) {
	if r == nil || r.store == nil || r.store.Client == nil {
		return 0, time.Time{}, db.ErrNilRedis
	}
	k := redisKey(key)
	val, err := r.store.Client.Incr(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("freqcap incr: %w", err)
	}
	now := nowFn()
	if val == 1 {
		if err := r.store.Client.Expire(ctx, k, window).Err(); err != nil {
			zap.L().Error("freqcap expire", zap.Error(err))
		}
		return val, now, nil
	}

	// Window start is derived from the remaining TTL.
	ttl, err := r.store.Client.PTTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		return val, now, nil
	}
	return val, now.Add(ttl - window), nil
}

// Peek implements Store.
func (r *RedisStore) Peek(ctx context.Context, key Key) (int64, time.Time, error) {
	if r == nil || r.store == nil || r.store.Client == nil {
		return 0, time.Time{}, db.ErrNilRedis
	}
	k := redisKey(key)
	val, err := r.store.Client.Get(ctx, k).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, time.Time{}, nil
		}
		return 0, time.Time{}, fmt.Errorf("freqcap get: %w", err)
	}
	ttl, err := r.store.Client.PTTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		return val, time.Time{}, nil
	}
	return val, nowFn().Add(ttl), nil
}

// Reset implements Store.
func (r *RedisStore) Reset(ctx context.Context, key Key) error {
	if r == nil || r.store == nil || r.store.Client == nil {
		return db.ErrNilRedis
	}
	if err := r.store.Client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("freqcap del: %w", err)
	}
	return nil
}

// ResetAll implements Store. The (org, user, campaign) triple is a key
// prefix, so one SCAN covers all ads and event types.
func (r *RedisStore) ResetAll(ctx context.Context, orgID, userID, campaignID string) error {
	if r == nil || r.store == nil || r.store.Client == nil {
		return db.ErrNilRedis
	}
	pattern := fmt.Sprintf("freqcap:%s:%s:%s:*", orgID, userID, campaignID)
	iter := r.store.Client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := r.store.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("freqcap reset del: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("freqcap reset scan: %w", err)
	}
	return nil
}
