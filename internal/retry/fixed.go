package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrExhausted = errors.New("attempts exhausted")

// FixedIntervalStrategy repeats an operation at a constant interval up to a
// fixed number of attempts. There is no backoff and no jitter.
type FixedIntervalStrategy struct {
	attempts int
	interval time.Duration
}

// NewFixedIntervalStrategy creates a new FixedIntervalStrategy
func NewFixedIntervalStrategy(attempts int, interval time.Duration) *FixedIntervalStrategy {
	if attempts < 1 {
		attempts = 1
	}
	return &FixedIntervalStrategy{
		attempts: attempts,
		interval: interval,
	}
}

// Attempts returns the configured attempt budget
func (s *FixedIntervalStrategy) Attempts() int {
	return s.attempts
}

// Interval returns the wait between attempts
func (s *FixedIntervalStrategy) Interval() time.Duration {
	return s.interval
}

// Execute runs the operation until it is done, the budget is spent or ctx is cancelled
func (s *FixedIntervalStrategy) Execute(ctx context.Context, operation Operation) error {
	var lastErr error

	for attempt := 1; attempt <= s.attempts; attempt++ {
		done, err := operation(attempt)
		if done {
			if attempt > 1 {
				slog.Debug("Operation finished after polling", "attempt", attempt)
			}
			return err
		}
		if err != nil {
			lastErr = err
		}

		if attempt == s.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during polling: %w", ctx.Err())
		case <-time.After(s.interval):
		}
	}

	return exhausted(s.attempts, lastErr)
}

// Name returns the strategy name
func (s *FixedIntervalStrategy) Name() string {
	return "FixedInterval"
}
