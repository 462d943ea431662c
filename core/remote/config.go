package remote

import "time"

// Config selects and tunes the system-of-record binding.
type Config struct {
	// Backend is "sql" (the configured database) or "memory".
	Backend string `mapstructure:"backend" default:"sql"`
	// MaxRetries is the number of retries of a transient failure.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// InitialBackoffMs is the first retry delay.
	InitialBackoffMs int `mapstructure:"initial_backoff_ms" default:"250"`
	// MaxBackoffMs caps the retry delay.
	MaxBackoffMs int `mapstructure:"max_backoff_ms" default:"10000"`
}

// Retry converts the retry settings. Zero values fall back to the defaults.
func (c Config) Retry() *RetryConfig {
	rc := DefaultRetryConfig()
	if c.MaxRetries >= 0 {
		rc.MaxRetries = c.MaxRetries
	}
	if c.InitialBackoffMs > 0 {
		rc.InitialBackoff = time.Duration(c.InitialBackoffMs) * time.Millisecond
	}
	if c.MaxBackoffMs > 0 {
		rc.MaxBackoff = time.Duration(c.MaxBackoffMs) * time.Millisecond
	}
	return rc
}
