package ratelimit

import (
	"testing"
	"time"

	"dongnezip/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageBucketUsesConfiguredRate(t *testing.T) {
	rl := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Check("1", ActionSendMessage))
	}

	err := rl.Check("1", ActionSendMessage)
	assert.True(t, errors.Is(err, errors.CodeTooMany))

	tokens, max := rl.GetStatus("1", ActionSendMessage)
	assert.Equal(t, 0, tokens)
	assert.Equal(t, 3, max)
}

func TestBucketsAreIndependentPerUserAndAction(t *testing.T) {
	rl := NewRateLimiter(1)

	require.NoError(t, rl.Check("1", ActionSendMessage))
	assert.Error(t, rl.Check("1", ActionSendMessage))
	assert.NoError(t, rl.Check("2", ActionSendMessage))
	assert.NoError(t, rl.Check("1", ActionToggleFavorite))
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(1, 1, 20*time.Millisecond)

	ok, _ := tb.Allow()
	require.True(t, ok)

	ok, wait := tb.Allow()
	require.False(t, ok)
	assert.True(t, wait > 0)

	time.Sleep(30 * time.Millisecond)
	ok, _ = tb.Allow()
	assert.True(t, ok)
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(5)
	rl.Allow("1", ActionSendMessage)

	rl.Cleanup(time.Hour)
	_, max := rl.GetStatus("1", ActionSendMessage)
	assert.Equal(t, 5, max)

	time.Sleep(time.Millisecond)
	rl.Cleanup(0)
	_, max = rl.GetStatus("1", ActionSendMessage)
	assert.Equal(t, 0, max)
}

func TestNewRateLimiterDefaultsRate(t *testing.T) {
	rl := NewRateLimiter(0)
	rl.Allow("1", ActionSendMessage)
	_, max := rl.GetStatus("1", ActionSendMessage)
	assert.Equal(t, 20, max)
}
