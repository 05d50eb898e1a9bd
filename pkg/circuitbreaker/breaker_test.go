package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrichsync/internal/config"
)

func TestFromConfig(t *testing.T) {
	t.Run("zero values keep defaults", func(t *testing.T) {
		assert.Equal(t, DefaultConfig("snov"), FromConfig("snov", config.CircuitBreakerConfig{}))
	})

	t.Run("set values override", func(t *testing.T) {
		c := FromConfig("snov", config.CircuitBreakerConfig{
			MaxRequests:  1,
			Timeout:      time.Minute,
			MinRequests:  2,
			FailureRatio: 0.25,
		})
		assert.EqualValues(t, 1, c.MaxRequests)
		assert.Equal(t, time.Minute, c.Timeout)
		assert.Equal(t, 60*time.Second, c.Interval)
		assert.EqualValues(t, 2, c.MinRequests)
		assert.Equal(t, 0.25, c.FailureRatio)
	})
}

func TestReadyToTrip(t *testing.T) {
	c := DefaultConfig("x")

	assert.False(t, c.readyToTrip(gobreaker.Counts{Requests: 4, TotalFailures: 4}))
	assert.True(t, c.readyToTrip(gobreaker.Counts{Requests: 6, TotalFailures: 3}))
	assert.False(t, c.readyToTrip(gobreaker.Counts{Requests: 6, TotalFailures: 2}))
}

func TestBreakerOpensAndRejects(t *testing.T) {
	cfg := DefaultConfig("breaker-test")
	cfg.MinRequests = 3
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	b := New(cfg)

	failing := func() (interface{}, error) { return nil, errors.New("502 bad gateway") }
	for i := 0; i < 3; i++ {
		_, err := b.Run(context.Background(), failing)
		require.Error(t, err)
		assert.False(t, IsRejection(err))
	}

	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	called := false
	_, err := b.Run(context.Background(), func() (interface{}, error) {
		called = true
		return "ok", nil
	})
	require.Error(t, err)
	assert.True(t, IsRejection(err))
	assert.False(t, called)
}

func TestRunCancelledContext(t *testing.T) {
	b := New(DefaultConfig("ctx-test"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Run(ctx, func() (interface{}, error) {
		t.Fatal("must not run")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
