package database

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 500 * time.Millisecond
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = 10 * time.Second
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	if delay > float64(r.MaxDelay) {
		return r.MaxDelay
	}
	return time.Duration(delay)
}

// pingWithRetry waits for the store to accept connections. Postgres in
// particular may still be starting when the server boots.
func pingWithRetry(ctx context.Context, conn *sql.DB, policy RetryPolicy, logger *zerolog.Logger) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = conn.PingContext(ctx); err == nil {
			return nil
		}
		if attempt > policy.MaxRetries {
			return err
		}

		delay := policy.NextDelay(attempt)
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("database not reachable yet")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
