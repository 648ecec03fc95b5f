package ratelimit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCounter keeps an append-only event log per key and recomputes the
// window count on every check. Mathematically exact at the cost of a scan;
// fine at the low caps configured. Two concurrent checks can both read under
// the cap and both record, overshooting by at most the number of concurrent
// requests minus one. That race is accepted; do not wrap this in a lock.
type PostgresCounter struct {
	pool *pgxpool.Pool
}

func NewPostgresCounter(pool *pgxpool.Pool) *PostgresCounter {
	return &PostgresCounter{pool: pool}
}

func (c *PostgresCounter) AdmitAndRecord(ctx context.Context, key string, window time.Duration, limit int) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := time.Now().UTC()
	windowStart := now.Add(-window)

	const countQ = `SELECT count(*), min(occurred_at) FROM rate_limit_events
  WHERE key=$1 AND occurred_at >= $2`

	var count int
	var oldest *time.Time
	if err := c.pool.QueryRow(ctx, countQ, key, windowStart).Scan(&count, &oldest); err != nil {
		return Decision{}, err
	}

	if count >= limit {
		resetAt := now.Add(window)
		if oldest != nil {
			resetAt = oldest.Add(window)
		}
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	const insertQ = `INSERT INTO rate_limit_events (key, occurred_at) VALUES ($1, $2)`
	if _, err := c.pool.Exec(ctx, insertQ, key, now); err != nil {
		return Decision{}, err
	}

	resetAt := now.Add(window)
	if oldest != nil {
		resetAt = oldest.Add(window)
	}
	return Decision{Allowed: true, Remaining: limit - count - 1, ResetAt: resetAt}, nil
}

// Prune deletes events older than the given horizon. Run periodically; the
// longest window in use (24h) bounds how far back counts ever look.
func (c *PostgresCounter) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	ct, err := c.pool.Exec(ctx, `DELETE FROM rate_limit_events WHERE occurred_at < $1`, olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
