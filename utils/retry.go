package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPermanent marks an error that must not be retried
var ErrPermanent = errors.New("permanent failure")

// RetryWithBackoff retries fn up to maxRetries times with quadratic backoff
// (1s, 4s, 9s...). Errors wrapping ErrPermanent stop the loop immediately.
func RetryWithBackoff(ctx context.Context, maxRetries int, fn func() error, logger *Logger) error {
	return retry(ctx, maxRetries, time.Second, fn, logger)
}

func retry(ctx context.Context, maxRetries int, unit time.Duration, fn func() error, logger *Logger) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error
	attempts := 0
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * unit
			logger.Warn("Retrying (attempt %d/%d) after %v...", attempt+1, maxRetries, backoff)
			if err := SleepContext(ctx, backoff); err != nil {
				return err
			}
		}
		attempts++
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Error("Attempt %d failed: %v", attempt+1, err)
		if errors.Is(err, ErrPermanent) || ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("%d/%d attempts failed, last error: %w", attempts, maxRetries, lastErr)
}
