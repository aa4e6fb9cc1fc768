package utils

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Retry holds the parameters for an exponential back-off retry strategy.
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Log         zerolog.Logger
}

// Do executes fn, doubling the delay after each failed attempt.
func (r *Retry) Do(name string, fn func() error) error {
	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < r.MaxAttempts {
			r.Log.Warn().
				Err(lastErr).
				Str("operation", name).
				Int("attempt", attempt).
				Int("max_attempts", r.MaxAttempts).
				Dur("next_delay", delay).
				Msg("retrying")
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, r.MaxAttempts, lastErr)
}
