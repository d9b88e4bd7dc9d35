package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 200 * time.Millisecond
)

// withRetry runs fn with bounded exponential backoff. The delay doubles
// after each failed attempt. Context cancellation stops the retries early.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	delay := defaultRetryBase

	for attempt := 1; attempt <= defaultRetryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == defaultRetryAttempts {
			break
		}

		zap.L().Warn("Datastore call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
