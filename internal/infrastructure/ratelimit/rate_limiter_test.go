package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(now *time.Time) *RateLimiter {
	rl := NewRateLimiter(Limit{PerMinute: 60}, map[string]Limit{
		"send_message": {PerMinute: 2, Burst: 2},
	})
	rl.now = func() time.Time { return *now }
	return rl
}

func TestAllow_PerActionLimit(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(&now)

	ok, _ := rl.Allow("u1", "send_message")
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", "send_message")
	assert.True(t, ok)

	ok, wait := rl.Allow("u1", "send_message")
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, wait)

	// other users and other actions have their own buckets
	ok, _ = rl.Allow("u2", "send_message")
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", "create_conversation")
	assert.True(t, ok)

	now = now.Add(30 * time.Second)
	ok, _ = rl.Allow("u1", "send_message")
	assert.True(t, ok)
}

func TestAllow_RejectedAttemptDoesNotConsume(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(&now)

	rl.Allow("u1", "send_message")
	rl.Allow("u1", "send_message")
	for i := 0; i < 5; i++ {
		ok, _ := rl.Allow("u1", "send_message")
		assert.False(t, ok)
	}

	now = now.Add(30 * time.Second)
	ok, _ := rl.Allow("u1", "send_message")
	assert.True(t, ok)
}

func TestCleanup(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(&now)

	rl.Allow("u1", "send_message")
	now = now.Add(5 * time.Minute)
	rl.Allow("u2", "send_message")

	assert.Equal(t, 1, rl.Cleanup(time.Minute))
	assert.Len(t, rl.buckets, 1)
	assert.Contains(t, rl.buckets, "send_message:u2")
}
