package utils

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter spaces out outgoing requests by a random whole number of
// seconds in [minSeconds, maxSeconds]. Every call waits; callers skip it
// before their first request.
type RateLimiter struct {
	mu         sync.Mutex
	minSeconds int
	maxSeconds int
	rng        *rand.Rand
	sleep      SleepFunc
}

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// NewRateLimiter creates a RateLimiter with the given delay range in seconds
func NewRateLimiter(minSeconds, maxSeconds int) *RateLimiter {
	return NewRateLimiterWithSleep(minSeconds, maxSeconds, SleepContext)
}

// NewRateLimiterWithSleep is NewRateLimiter with a custom sleep, for callers
// that need to observe or skip the actual pause
func NewRateLimiterWithSleep(minSeconds, maxSeconds int, sleep SleepFunc) *RateLimiter {
	if minSeconds < 0 {
		minSeconds = 0
	}
	if maxSeconds < minSeconds {
		maxSeconds = minSeconds
	}
	if sleep == nil {
		sleep = SleepContext
	}
	return &RateLimiter{
		minSeconds: minSeconds,
		maxSeconds: maxSeconds,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      sleep,
	}
}

// Wait blocks for the next random delay and returns how long it waited.
// It returns early with ctx.Err() when the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	r.mu.Lock()
	delay := time.Duration(r.minSeconds+r.rng.Intn(r.maxSeconds-r.minSeconds+1)) * time.Second
	r.mu.Unlock()

	if delay == 0 {
		return 0, ctx.Err()
	}
	if err := r.sleep(ctx, delay); err != nil {
		return 0, err
	}
	return delay, nil
}

// SleepContext sleeps for d or until ctx is done
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
