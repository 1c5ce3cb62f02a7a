package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/magiconair/properties/assert"
)

func newTestLimiter(minSeconds, maxSeconds int, slept *[]time.Duration) *RateLimiter {
	return NewRateLimiterWithSleep(minSeconds, maxSeconds, func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return ctx.Err()
	})
}

func TestRateLimiterWaitsOnFirstCall(t *testing.T) {
	var slept []time.Duration
	r := newTestLimiter(2, 2, &slept)

	d, err := r.Wait(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, d, 2*time.Second)
	assert.Equal(t, slept, []time.Duration{2 * time.Second})
}

func TestRateLimiterZeroRangeDoesNotSleep(t *testing.T) {
	var slept []time.Duration
	r := newTestLimiter(0, 0, &slept)

	d, err := r.Wait(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, d, time.Duration(0))
	assert.Equal(t, len(slept), 0)
}

func TestRateLimiterDelayWithinRange(t *testing.T) {
	var slept []time.Duration
	r := newTestLimiter(1, 10, &slept)

	for i := 0; i < 50; i++ {
		if _, err := r.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}

	assert.Equal(t, len(slept), 50)
	for _, d := range slept {
		if d < time.Second || d > 10*time.Second {
			t.Errorf("delay %v outside [1s, 10s]", d)
		}
		if d%time.Second != 0 {
			t.Errorf("delay %v is not a whole number of seconds", d)
		}
	}
}

func TestRateLimiterFixedDelay(t *testing.T) {
	var slept []time.Duration
	r := newTestLimiter(3, 3, &slept)

	d, err := r.Wait(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, d, 3*time.Second)
}

func TestRateLimiterNormalizesRange(t *testing.T) {
	r := NewRateLimiter(-2, -5)
	assert.Equal(t, r.minSeconds, 0)
	assert.Equal(t, r.maxSeconds, 0)

	r = NewRateLimiter(5, 2)
	assert.Equal(t, r.maxSeconds, 5)
}

func TestRateLimiterCancelled(t *testing.T) {
	r := NewRateLimiter(5, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("boom %d", calls)
		}
		return nil
	}, NewNopLogger())

	assert.Equal(t, err, nil)
	assert.Equal(t, calls, 3)
}

func TestRetryWithBackoffStopsOnPermanent(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("bad request: %w", ErrPermanent)
	}, NewNopLogger())

	if !errors.Is(err, ErrPermanent) {
		t.Fatalf("expected ErrPermanent, got %v", err)
	}
	assert.Equal(t, calls, 1)
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	calls := 0
	sentinel := errors.New("always")
	err := retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return sentinel
	}, NewNopLogger())

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	assert.Equal(t, calls, 2)
}
