package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterTryAcquire(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.Close()

	assert.True(t, rl.tryAcquire())
	assert.True(t, rl.tryAcquire())
	assert.False(t, rl.tryAcquire(), "bucket should be empty")
}

func TestRateLimiterReset(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()

	require.True(t, rl.tryAcquire())
	require.False(t, rl.tryAcquire())

	rl.reset()
	assert.True(t, rl.tryAcquire())
}

func TestRateLimiterWaitCancel(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()

	require.True(t, rl.tryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.wait(ctx)
	assert.Error(t, err)
}

func TestRateLimiterDefaultCapacity(t *testing.T) {
	rl := newRateLimiter(0)
	defer rl.Close()
	assert.Equal(t, 30, rl.capacity)
}
