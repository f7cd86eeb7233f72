package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, BackoffExponential, p.Mode)
	assert.Equal(t, 25*time.Millisecond, p.Initial)
	assert.Equal(t, time.Second, p.Max)
	assert.Equal(t, 5, p.MaxRetries)
	require.NoError(t, p.Validate())
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 3)
	assert.Equal(t, 2*time.Second, p.Initial, "initial is clamped to max")
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, BackoffFixed, p.Mode)
	assert.Equal(t, 3, p.MaxRetries)

	assert.Equal(t, BackoffExponential, NewPolicy("bogus", 0, 0, -1).Mode)
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	cases := []struct {
		mode    Backoff
		attempt int
		want    time.Duration
	}{
		{BackoffFixed, 1, 100 * ms},
		{BackoffFixed, 3, 100 * ms},
		{BackoffLinear, 2, 200 * ms},
		{BackoffLinear, 4, 250 * ms},
		{BackoffExponential, 1, 100 * ms},
		{BackoffExponential, 2, 200 * ms},
		{BackoffExponential, 3, 250 * ms},
		{BackoffExponential, 0, 0},
	}
	for _, c := range cases {
		p := NewPolicy(c.mode, 100*ms, 250*ms, 5)
		assert.Equal(t, c.want, p.Delay(c.attempt), "%s attempt %d", c.mode, c.attempt)
	}
}

var errBusy = errors.New("database is locked")

func isBusy(err error) bool { return errors.Is(err, errBusy) }

func TestDoRetriesTransientErrors(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)

	calls := 0
	err := p.Do(t.Context(), isBusy, func() error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = p.Do(t.Context(), isBusy, func() error { calls++; return errBusy })
	require.ErrorIs(t, err, errBusy)
	assert.Equal(t, 4, calls, "first attempt plus three retries")

	calls = 0
	permanent := errors.New("no such table")
	err = p.Do(t.Context(), isBusy, func() error { calls++; return permanent })
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	calls := 0
	err := NewPolicy(BackoffFixed, time.Hour, time.Hour, 3).Do(ctx, isBusy, func() error { calls++; return errBusy })
	require.ErrorIs(t, err, errBusy)
	assert.Equal(t, 1, calls)
}
