package routerclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := newBreaker(nil)
	failing := errors.New("boom")

	for i := 0; i < breakerTripThreshold; i++ {
		err := b.call(func() error { return failing })
		require.Error(t, err)
	}

	// The breaker should now be open and short-circuit without invoking fn.
	called := false
	err := b.call(func() error { called = true; return nil })
	assert.Error(t, err)
	assert.False(t, called)
	assert.GreaterOrEqual(t, b.Openings(), int64(1))
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := newBreaker(nil)
	for i := 0; i < breakerTripThreshold-1; i++ {
		_ = b.call(func() error { return errors.New("boom") })
	}
	err := b.call(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, int64(0), b.Openings())
}
