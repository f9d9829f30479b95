package retry

import (
	"context"
	"fmt"
)

// NoRetryStrategy runs the operation exactly once
type NoRetryStrategy struct{}

// NewNoRetryStrategy creates a new NoRetryStrategy
func NewNoRetryStrategy() *NoRetryStrategy {
	return &NoRetryStrategy{}
}

// Execute runs the operation once. An operation that is not done after the
// single attempt yields ErrExhausted.
func (s *NoRetryStrategy) Execute(ctx context.Context, operation Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done, err := operation(1)
	if done {
		return err
	}
	return exhausted(1, err)
}

// Name returns the strategy name
func (s *NoRetryStrategy) Name() string {
	return "NoRetry"
}

func exhausted(attempts int, lastErr error) error {
	if lastErr != nil {
		return fmt.Errorf("%w after %d attempts (last error: %v)", ErrExhausted, attempts, lastErr)
	}
	return fmt.Errorf("%w after %d attempts", ErrExhausted, attempts)
}
