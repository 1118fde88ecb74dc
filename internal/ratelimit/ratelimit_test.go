package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

func TestRateLimiter_Check(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		limit     int
		mockCount int
		wantErr   bool
		errMsg    string
	}{
		{
			name:      "within limit",
			key:       ExchangeKey("10.0.0.1"),
			limit:     60,
			mockCount: 10,
			wantErr:   false,
		},
		{
			name:      "at limit boundary",
			key:       ExchangeKey("10.0.0.1"),
			limit:     60,
			mockCount: 60,
			wantErr:   false,
		},
		{
			name:      "exceeds limit",
			key:       ValidateKey("app"),
			limit:     20,
			mockCount: 21,
			wantErr:   true,
			errMsg:    "rate limit exceeded: 21/20 requests in window",
		},
		{
			name:      "no limit configured",
			key:       "k",
			limit:     0,
			mockCount: 1000,
			wantErr:   false,
		},
		{
			name:      "negative limit",
			key:       "k",
			limit:     -1,
			mockCount: 1000,
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			rl := NewRateLimiter(mock, time.Minute)
			rl.now = func() time.Time { return now }

			ctx := context.Background()

			// If limit is configured, expect query
			if tt.limit > 0 {
				rows := pgxmock.NewRows([]string{"count"}).AddRow(tt.mockCount)
				mock.ExpectQuery("WITH current_count AS").
					WithArgs(tt.key, now, now.Add(time.Minute)).
					WillReturnRows(rows)
			}

			err = rl.Check(ctx, tt.key, tt.limit)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.ErrorIs(t, err, domain.ErrRateLimitExceeded)

				var limitErr *LimitError
				require.True(t, errors.As(err, &limitErr))
				assert.Equal(t, tt.key, limitErr.Key)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRateLimiter_CheckDatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rl := NewRateLimiter(mock, time.Minute)
	mock.ExpectQuery("WITH current_count AS").WillReturnError(errors.New("connection refused"))

	err = rl.Check(context.Background(), "k", 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRateLimitExceeded)
	assert.Contains(t, err.Error(), "check rate limit")
}

func TestRateLimiter_CleanupExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rl := NewRateLimiter(mock, time.Minute)

	ctx := context.Background()

	// Expect cleanup query to delete 5 expired entries
	mock.ExpectExec("DELETE FROM rate_limit_counters").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	deleted, err := rl.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_GetCurrentCount(t *testing.T) {
	tests := []struct {
		name      string
		mockCount int
		mockErr   error
		wantCount int
		wantErr   bool
	}{
		{
			name:      "existing counter",
			mockCount: 15,
			wantCount: 15,
		},
		{
			name:      "no counter exists",
			mockErr:   pgx.ErrNoRows,
			wantCount: 0,
		},
		{
			name:    "database error",
			mockErr: errors.New("boom"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			rl := NewRateLimiter(mock, time.Minute)

			ctx := context.Background()

			if tt.mockErr != nil {
				mock.ExpectQuery("SELECT count").
					WithArgs("k", pgxmock.AnyArg()).
					WillReturnError(tt.mockErr)
			} else {
				rows := pgxmock.NewRows([]string{"count"}).AddRow(tt.mockCount)
				mock.ExpectQuery("SELECT count").
					WithArgs("k", pgxmock.AnyArg()).
					WillReturnRows(rows)
			}

			count, err := rl.GetCurrentCount(ctx, "k")

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCount, count)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRateLimiter_ResetLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rl := NewRateLimiter(mock, time.Minute)

	mock.ExpectExec("DELETE FROM rate_limit_counters").
		WithArgs("validate:app").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, rl.ResetLimit(context.Background(), ValidateKey("app")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
