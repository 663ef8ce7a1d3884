// Package retry runs an operation with bounded attempts and backoff between them.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMaxAttemptsExceeded is returned when every attempt failed with a retryable error
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when the context ends while waiting between attempts
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// Config configures retry behavior
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one
	MaxAttempts int
	// InitialDelay is the wait before the second attempt
	InitialDelay time.Duration
	// MaxDelay caps the computed delay; zero means no cap
	MaxDelay time.Duration
	// Multiplier grows the delay per attempt; 1 (the default) keeps it fixed
	Multiplier float64
	// IsRetryable decides whether a failed attempt may be repeated
	IsRetryable func(error) bool
	// OnRetry is called before each wait with the attempt that just failed
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Fixed returns a config that retries matching errors with a constant delay
func Fixed(maxAttempts int, delay time.Duration, isRetryable func(error) bool) Config {
	return Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: delay,
		Multiplier:   1,
		IsRetryable:  isRetryable,
	}
}

// Never reports every error as terminal
func Never(error) bool { return false }

// On returns a predicate matching any of targets via errors.Is
func On(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 1
	}
	if c.IsRetryable == nil {
		c.IsRetryable = Never
	}
	return c
}

// delay returns the wait after the given (1-based) failed attempt
func (c Config) delay(attempt int) time.Duration {
	d := time.Duration(float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1)))
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// Do executes fn until it succeeds, fails with a non-retryable error,
// or MaxAttempts is reached.
func Do(ctx context.Context, config Config, fn func(ctx context.Context) error) error {
	config = config.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !config.IsRetryable(err) {
			return err
		}
		if attempt == config.MaxAttempts {
			break
		}

		wait := config.delay(attempt)
		if config.OnRetry != nil {
			config.OnRetry(attempt, wait, err)
		}
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, config.MaxAttempts, lastErr)
}
