package retry

import "time"

const (
	DefaultAttempts = 300
	DefaultInterval = time.Second
)

// Config holds poll configuration. internal/config fills it from the
// environment.
type Config struct {
	Enabled  bool          // Disable to check status once instead of polling
	Attempts int           // Maximum number of status queries
	Interval time.Duration // Fixed wait between queries
}

// DefaultConfig polls every second up to 300 times
func DefaultConfig() Config {
	return Config{Enabled: true, Attempts: DefaultAttempts, Interval: DefaultInterval}
}
