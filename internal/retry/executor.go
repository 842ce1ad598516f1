package retry

import (
	"context"
	"time"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// Executor orchestrates retry attempts with backoff and error classification.
// It is safe for concurrent use; WithOnRetry returns a copy.
type Executor struct {
	classifier pgload.ErrorClassifier
	strategy   pgload.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier pgload.ErrorClassifier, strategy pgload.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// NewConnectionExecutor returns the executor used for connection establishment:
// PostgreSQL classification and pgload's default backoff. A non-nil logger
// receives one line per retry.
func NewConnectionExecutor(logger pgload.Logger) *Executor {
	e := NewExecutor(
		NewPostgreSQLErrorClassifier(),
		NewExponentialBackoff(pgload.DefaultRetryMaxAttempts,
			WithInitialDelay(pgload.DefaultRetryInitialDelay),
			WithMaxDelay(pgload.DefaultRetryMaxDelay),
		),
	)
	if logger == nil {
		return e
	}
	return e.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("connection attempt failed (%v); retry %d in %v", err, attempt+1, delay.Round(time.Millisecond))
	})
}

// WithOnRetry returns a new Executor with the specified retry callback.
// The receiver is not modified.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation, retrying transient failures until the strategy's
// attempt budget is spent. Returns the last error.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		lastErr = operation(ctx)
		if lastErr == nil || !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
