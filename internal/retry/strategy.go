package retry

import (
	"context"
	"log/slog"
)

// Strategy defines how a poll operation is repeated
type Strategy interface {
	// Execute runs the operation until it reports done or the strategy gives up
	Execute(ctx context.Context, operation Operation) error

	// Name returns the name of the strategy for logging
	Name() string
}

// Operation is one attempt, numbered from 1. Returning done=true stops the
// strategy and err becomes the result. With done=false, err is only kept as
// the last observed error.
type Operation func(attempt int) (done bool, err error)

// NewStrategy creates a poll strategy based on configuration
func NewStrategy(config Config) Strategy {
	if !config.Enabled {
		slog.Info("Polling disabled, using NoRetryStrategy")
		return NewNoRetryStrategy()
	}

	slog.Info("Polling enabled, using FixedIntervalStrategy",
		"attempts", config.Attempts,
		"interval", config.Interval,
	)

	return NewFixedIntervalStrategy(config.Attempts, config.Interval)
}
