package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker("redis", 2, time.Minute)
	b.now = func() time.Time { return now }
	down := errors.New("connection refused")
	fail := func() error { return down }
	calls := 0
	succeed := func() error { calls++; return nil }

	assert.ErrorIs(t, b.Do(fail), down)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Do(fail), down)
	assert.Equal(t, StateOpen, b.State())

	assert.ErrorIs(t, b.Do(succeed), ErrCircuitOpen)
	assert.Equal(t, 0, calls)

	now = now.Add(time.Minute)
	require.NoError(t, b.Do(succeed))
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker("redis", 1, time.Second)
	b.now = func() time.Time { return now }
	down := errors.New("timeout")

	assert.ErrorIs(t, b.Do(func() error { return down }), down)
	now = now.Add(time.Second)
	assert.ErrorIs(t, b.Do(func() error { return down }), down)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrCircuitOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("redis", 2, time.Minute)
	down := errors.New("x")
	b.Do(func() error { return down })
	require.NoError(t, b.Do(func() error { return nil }))
	b.Do(func() error { return down })
	assert.Equal(t, StateClosed, b.State())
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), "publish", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "publish")

	require.NoError(t, WithTimeout(context.Background(), "noop", 0, func(context.Context) error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, WithTimeout(context.Background(), "op", time.Second, func(context.Context) error { return boom }), boom)
}
