// Package ratelimit implements a fixed-window request counter stored in Postgres,
// shared by every API replica.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

// DB interface for database operations
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// LimitError reports a request rejected by the limiter
type LimitError struct {
	Key   string
	Count int
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d/%d requests in window", e.Count, e.Limit)
}

// Unwrap lets callers match domain.ErrRateLimitExceeded
func (e *LimitError) Unwrap() error {
	return domain.ErrRateLimitExceeded
}

// RateLimiter counts requests per key in fixed windows
type RateLimiter struct {
	db     DB
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter. *pgxpool.Pool and pgxmock pools satisfy DB.
func NewRateLimiter(db DB, window time.Duration) *RateLimiter {
	return &RateLimiter{
		db:     db,
		window: window,
		now:    time.Now,
	}
}

// Window returns the counting window
func (r *RateLimiter) Window() time.Duration {
	return r.window
}

// Check records one request for key and returns a *LimitError when the
// window already holds more than limit requests. A non-positive limit
// disables the check.
func (r *RateLimiter) Check(ctx context.Context, key string, limit int) error {
	if limit <= 0 {
		return nil // No limit configured
	}

	now := r.now()
	windowEnd := now.Add(r.window)

	// ON CONFLICT atomically increments or restarts the counter
	query := `
		WITH current_count AS (
			INSERT INTO rate_limit_counters (key, count, window_start, window_end)
			VALUES ($1, 1, $2, $3)
			ON CONFLICT (key)
			DO UPDATE SET
				count = CASE
					WHEN rate_limit_counters.window_end <= $2 THEN 1
					ELSE rate_limit_counters.count + 1
				END,
				window_start = CASE
					WHEN rate_limit_counters.window_end <= $2 THEN $2
					ELSE rate_limit_counters.window_start
				END,
				window_end = CASE
					WHEN rate_limit_counters.window_end <= $2 THEN $3
					ELSE rate_limit_counters.window_end
				END
			RETURNING count
		)
		SELECT count FROM current_count
	`

	var count int
	err := r.db.QueryRow(ctx, query, key, now, windowEnd).Scan(&count)
	if err != nil {
		return fmt.Errorf("check rate limit: %w", err)
	}

	if count > limit {
		return &LimitError{Key: key, Count: count, Limit: limit}
	}

	return nil
}

// CleanupExpired removes expired rate limit counters
func (r *RateLimiter) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM rate_limit_counters WHERE window_end < $1`
	result, err := r.db.Exec(ctx, query, r.now().Add(-time.Hour))
	if err != nil {
		return 0, fmt.Errorf("cleanup rate limit counters: %w", err)
	}
	return result.RowsAffected(), nil
}

// GetCurrentCount returns the count of the open window for key
func (r *RateLimiter) GetCurrentCount(ctx context.Context, key string) (int, error) {
	query := `
		SELECT count
		FROM rate_limit_counters
		WHERE key = $1 AND window_end > $2
	`

	var count int
	err := r.db.QueryRow(ctx, query, key, r.now()).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get rate limit count: %w", err)
	}

	return count, nil
}

// ResetLimit clears the counter for key
func (r *RateLimiter) ResetLimit(ctx context.Context, key string) error {
	query := `DELETE FROM rate_limit_counters WHERE key = $1`
	if _, err := r.db.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	return nil
}

// ExchangeKey is the counter key for token exchanges from one client address
func ExchangeKey(ip string) string {
	return "exchange:" + ip
}

// ValidateKey is the counter key for credential checks of one application
func ValidateKey(appID string) string {
	return "validate:" + appID
}
