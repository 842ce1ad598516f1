package retry

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff implements exponential backoff with jitter.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64

	// maxAttempts is the maximum number of retry attempts (-1 = unlimited, 0 = no retries)
	maxAttempts int

	// jitter of 0.1 means +/- 10% randomness
	jitter     float64
	jitterFunc func() float64
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the initial delay for the first retry attempt.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

// WithMaxDelay sets the maximum delay between retry attempts.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

// WithMultiplier sets the factor by which delay increases between attempts.
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.multiplier = m }
}

// WithJitter sets the jitter factor (0.0-1.0).
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitter = j }
}

// WithJitterFunc sets the source of random values in [0, 1) used for jitter.
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitterFunc = f }
}

// NewExponentialBackoff creates a backoff strategy. Defaults: 100ms initial
// delay, 30s cap, multiplier 2, 10% jitter.
//
//	backoff := retry.NewExponentialBackoff(3,
//	    retry.WithInitialDelay(200 * time.Millisecond),
//	    retry.WithMaxDelay(1 * time.Minute),
//	)
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		jitterFunc:   rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay returns initialDelay * multiplier^attempt, capped at maxDelay,
// then scaled by a random factor in [1-jitter, 1+jitter).
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}

	if b.jitter > 0 && b.jitterFunc != nil {
		offset := (b.jitterFunc() - 0.5) * 2.0
		delay *= 1.0 + b.jitter*offset
	}

	return time.Duration(delay)
}

// MaxAttempts returns the maximum number of retry attempts.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}
