package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("busy")

func TestDoSucceedsAfterRetryableFailures(t *testing.T) {
	calls := 0
	var waits []time.Duration

	cfg := Fixed(3, time.Millisecond, On(errBusy))
	cfg.OnRetry = func(_ int, d time.Duration, _ error) { waits = append(waits, d) }

	err := Do(context.Background(), cfg, func(context.Context) error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, waits)
}

func TestDoStopsOnTerminalError(t *testing.T) {
	terminal := errors.New("bad request")
	calls := 0

	err := Do(context.Background(), Fixed(5, time.Millisecond, On(errBusy)), func(context.Context) error {
		calls++
		return terminal
	})

	assert.ErrorIs(t, err, terminal)
	assert.NotErrorIs(t, err, ErrMaxAttemptsExceeded)
	assert.Equal(t, 1, calls)
}

func TestDoIsBounded(t *testing.T) {
	calls := 0

	err := Do(context.Background(), Fixed(4, 0, On(errBusy)), func(context.Context) error {
		calls++
		return errBusy
	})

	assert.Equal(t, 4, calls)
	assert.ErrorIs(t, err, ErrMaxAttemptsExceeded)
	assert.ErrorIs(t, err, errBusy)
}

func TestDoDefaultsToSingleAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{}, func(context.Context) error {
		calls++
		return errBusy
	})

	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursContextWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	err := Do(ctx, Fixed(3, time.Hour, On(errBusy)), func(context.Context) error {
		cancel()
		return errBusy
	})

	assert.ErrorIs(t, err, ErrContextCancelled)
}

func TestDelayGrowthAndCap(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond}.withDefaults()

	assert.Equal(t, 100*time.Millisecond, cfg.delay(1))
	assert.Equal(t, 200*time.Millisecond, cfg.delay(2))
	assert.Equal(t, 300*time.Millisecond, cfg.delay(3))
}
