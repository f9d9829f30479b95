package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFixedIntervalStrategy_DoneFirstAttempt(t *testing.T) {
	strategy := NewFixedIntervalStrategy(3, 10*time.Millisecond)

	attempts := 0
	err := strategy.Execute(context.Background(), func(int) (bool, error) {
		attempts++
		return true, nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestFixedIntervalStrategy_DoneAfterPending(t *testing.T) {
	strategy := NewFixedIntervalStrategy(10, time.Millisecond)

	calls := 0
	err := strategy.Execute(context.Background(), func(attempt int) (bool, error) {
		calls++
		if attempt != calls {
			t.Errorf("Expected attempt %d, got %d", calls, attempt)
		}
		return attempt == 4, nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if calls != 4 {
		t.Errorf("Expected 4 attempts, got: %d", calls)
	}
}

func TestFixedIntervalStrategy_TerminalErrorIsReturned(t *testing.T) {
	strategy := NewFixedIntervalStrategy(10, time.Millisecond)
	terminal := errors.New("execution failed")

	err := strategy.Execute(context.Background(), func(int) (bool, error) {
		return true, terminal
	})

	if !errors.Is(err, terminal) {
		t.Errorf("Expected terminal error, got: %v", err)
	}
}

func TestFixedIntervalStrategy_Exhausted(t *testing.T) {
	strategy := NewFixedIntervalStrategy(5, time.Millisecond)

	calls := 0
	err := strategy.Execute(context.Background(), func(int) (bool, error) {
		calls++
		return false, errors.New("connection refused")
	})

	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Expected ErrExhausted, got: %v", err)
	}
	if calls != 5 {
		t.Errorf("Expected 5 attempts, got: %d", calls)
	}
}

func TestFixedIntervalStrategy_ContextCancellation(t *testing.T) {
	strategy := NewFixedIntervalStrategy(100, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := strategy.Execute(ctx, func(int) (bool, error) {
		calls++
		cancel()
		return false, nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got: %d", calls)
	}
}

func TestNoRetryStrategy(t *testing.T) {
	strategy := NewNoRetryStrategy()

	calls := 0
	err := strategy.Execute(context.Background(), func(int) (bool, error) {
		calls++
		return false, nil
	})

	if !errors.Is(err, ErrExhausted) {
		t.Errorf("Expected ErrExhausted, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected exactly 1 attempt, got: %d", calls)
	}
}

func TestNewStrategy(t *testing.T) {
	if s := NewStrategy(Config{Enabled: false}); s.Name() != "NoRetry" {
		t.Errorf("Expected NoRetry, got: %s", s.Name())
	}

	s := NewStrategy(Config{Enabled: true, Attempts: 7, Interval: time.Second})
	fixed, ok := s.(*FixedIntervalStrategy)
	if !ok {
		t.Fatalf("Expected *FixedIntervalStrategy, got: %T", s)
	}
	if fixed.Attempts() != 7 || fixed.Interval() != time.Second {
		t.Errorf("Unexpected strategy settings: %d %s", fixed.Attempts(), fixed.Interval())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Enabled || cfg.Attempts != 300 || cfg.Interval != time.Second {
		t.Errorf("Unexpected default config: %+v", cfg)
	}
}
