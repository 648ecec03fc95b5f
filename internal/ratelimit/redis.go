package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCounter keeps the event log in a sorted set per key, scored by event
// time in milliseconds. Expired members are trimmed before counting, so the
// window stays exact without a background sweeper.
type RedisCounter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisCounter{client: client, prefix: prefix, now: time.Now}
}

func (c *RedisCounter) AdmitAndRecord(ctx context.Context, key string, window time.Duration, limit int) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := c.now().UTC()
	nowMS := now.UnixMilli()
	windowStart := nowMS - window.Milliseconds()
	setKey := c.prefix + ":" + key

	// Exclusive bound: an event stamped exactly now-window is still inside
	// the trailing window and must keep counting.
	if err := c.client.ZRemRangeByScore(ctx, setKey, "-inf", "("+strconv.FormatInt(windowStart, 10)).Err(); err != nil {
		return Decision{}, err
	}

	count, err := c.client.ZCard(ctx, setKey).Result()
	if err != nil {
		return Decision{}, err
	}

	resetAt := now.Add(window)
	if oldest, err := c.client.ZRangeWithScores(ctx, setKey, 0, 0).Result(); err == nil && len(oldest) > 0 {
		resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(window)
	}

	if int(count) >= limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	member := strconv.FormatInt(nowMS, 10) + "-" + uuid.NewString()
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, setKey, redis.Z{Score: float64(nowMS), Member: member})
	pipe.PExpire(ctx, setKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	return Decision{Allowed: true, Remaining: limit - int(count) - 1, ResetAt: resetAt}, nil
}
