// Package ratelimit limits match requests per client with counters kept in
// Postgres, so every API replica shares the same window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

// DB interface for database operations
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RateLimiter counts requests per key in a fixed window that restarts once
// the previous one has expired.
type RateLimiter struct {
	db     DB
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRateLimiter(db DB, window time.Duration) *RateLimiter {
	return &RateLimiter{
		db:     db,
		window: window,
		prefix: "match_rate",
		now:    time.Now,
	}
}

func (r *RateLimiter) key(client string) string {
	return fmt.Sprintf("%s:%s", r.prefix, client)
}

// Allow records one request for client and fails with
// domain.ErrRateLimitExceeded when the count in the current window exceeds
// limit. A limit <= 0 disables the check.
func (r *RateLimiter) Allow(ctx context.Context, client string, limit int) error {
	if limit <= 0 {
		return nil
	}

	now := r.now()
	windowEnd := now.Add(r.window)

	// ON CONFLICT increments atomically; an expired row restarts at 1
	query := `
		INSERT INTO rate_limit_counters (key, count, window_start, window_end)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET
			count = CASE
				WHEN rate_limit_counters.window_end < $2 THEN 1
				ELSE rate_limit_counters.count + 1
			END,
			window_start = CASE
				WHEN rate_limit_counters.window_end < $2 THEN $2
				ELSE rate_limit_counters.window_start
			END,
			window_end = CASE
				WHEN rate_limit_counters.window_end < $2 THEN $3
				ELSE rate_limit_counters.window_end
			END
		RETURNING count
	`

	var count int
	if err := r.db.QueryRow(ctx, query, r.key(client), now, windowEnd).Scan(&count); err != nil {
		return fmt.Errorf("check rate limit: %w", err)
	}

	if count > limit {
		return domain.ErrRateLimitExceeded.WithError(fmt.Errorf("%d/%d requests in window", count, limit))
	}

	return nil
}

// CleanupExpired removes counters whose window ended over an hour ago.
func (r *RateLimiter) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM rate_limit_counters WHERE window_end < NOW() - INTERVAL '1 hour'`
	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("cleanup rate limits: %w", err)
	}
	return result.RowsAffected(), nil
}

// CurrentCount returns the count in client's live window, 0 if none.
func (r *RateLimiter) CurrentCount(ctx context.Context, client string) (int, error) {
	query := `
		SELECT count
		FROM rate_limit_counters
		WHERE key = $1 AND window_end >= $2
	`

	var count int
	err := r.db.QueryRow(ctx, query, r.key(client), r.now()).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get rate limit count: %w", err)
	}

	return count, nil
}

func (r *RateLimiter) Reset(ctx context.Context, client string) error {
	query := `DELETE FROM rate_limit_counters WHERE key = $1`
	if _, err := r.db.Exec(ctx, query, r.key(client)); err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	return nil
}
