package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureWaits replaces the wait hook for the duration of the test and
// records the requested delays without sleeping.
func captureWaits(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := wait
	wait = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { wait = orig })
	return &delays
}

func TestDoExhaustsAttemptsWithDoubledDelays(t *testing.T) {
	delays := captureWaits(t)

	attempts := 0
	_, err := Do(context.Background(), func(context.Context) (string, error) {
		attempts++
		return "", errors.New("boom")
	}, 3, time.Second)

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "boom")
}

func TestDoReturnsFirstSuccessWithoutFurtherAttempts(t *testing.T) {
	delays := captureWaits(t)

	attempts := 0
	result, err := Do(context.Background(), func(context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, 3, time.Second)

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, attempts)
	// Two failures, so exactly two waits and no delay after the success.
	assert.Len(t, *delays, 2)
}

func TestDoNoDelayBeforeFirstAttempt(t *testing.T) {
	delays := captureWaits(t)

	result, err := Do(context.Background(), func(context.Context) (string, error) {
		return "ok", nil
	}, 3, time.Second)

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Empty(t, *delays)
}

func TestDoAppliesDefaults(t *testing.T) {
	delays := captureWaits(t)

	attempts := 0
	_, err := Do(context.Background(), func(context.Context) (string, error) {
		attempts++
		return "", errors.New("boom")
	}, 0, 0)

	require.Error(t, err)
	assert.Equal(t, DefaultMaxRetries, attempts)
	assert.Equal(t, []time.Duration{DefaultInitialDelay, 2 * DefaultInitialDelay}, *delays)
}

func TestDoAbortsWaitOnContextCancel(t *testing.T) {
	orig := wait
	wait = func(ctx context.Context, _ time.Duration) error { return context.Canceled }
	t.Cleanup(func() { wait = orig })

	attempts := 0
	_, err := Do(context.Background(), func(context.Context) (string, error) {
		attempts++
		return "", errors.New("boom")
	}, 3, time.Second)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
