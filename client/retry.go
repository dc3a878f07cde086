package client

import (
	"context"
	"strconv"
	"time"

	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/rs/zerolog"
)

// Unbounded as RetryConfig.MaxAttempts retries until the context ends.
const Unbounded = -1

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	BaseDelay     time.Duration `json:"base_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// FixedRetryConfig retries every interval. attempts counts every try,
// including the first; Unbounded never gives up.
func FixedRetryConfig(attempts int, interval time.Duration) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   attempts,
		BaseDelay:     interval,
		MaxDelay:      interval,
		BackoffFactor: 1,
	}
}

// RetryableOperation represents an operation that can be retried
type RetryableOperation func(ctx context.Context) error

// RetryWithBackoff runs operation until it succeeds, the attempts are used up
// or ctx ends. Cancellation returns ctx.Err() unwrapped.
func RetryWithBackoff(ctx context.Context, config *RetryConfig, operation RetryableOperation, logger zerolog.Logger) error {
	var lastErr error
	delay := config.BaseDelay

	for attempt := 1; config.MaxAttempts == Unbounded || attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if attempt == config.MaxAttempts {
			break
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", config.MaxAttempts).
			Dur("delay", delay).
			Msg("Operation failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if config.BackoffFactor > 1 {
			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if config.MaxDelay > 0 && delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
	}

	if lastErr == nil {
		return errors.New(RetryAttemptsExhausted, "no attempts allowed")
	}
	return errors.New(RetryAttemptsExhausted, "operation failed after retry attempts", lastErr).
		AddContext("max_attempts", strconv.Itoa(config.MaxAttempts))
}
