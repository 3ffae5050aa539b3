package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter() (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter()
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_SendMessageBurst(t *testing.T) {
	rl, clock := newTestLimiter()

	for i := 0; i < 10; i++ {
		ok, _ := rl.Allow("r1", ActionSendMessage)
		assert.True(t, ok, "message %d", i)
	}

	ok, wait := rl.Allow("r1", ActionSendMessage)
	assert.False(t, ok)
	assert.Equal(t, 6*time.Second, wait)

	clock.t = clock.t.Add(6 * time.Second)
	ok, _ = rl.Allow("r1", ActionSendMessage)
	assert.True(t, ok)
}

func TestRateLimiter_KeysAndActionsAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter()

	for i := 0; i < 5; i++ {
		rl.Allow("r1", ActionUploadFile)
	}
	ok, _ := rl.Allow("r1", ActionUploadFile)
	assert.False(t, ok)

	ok, _ = rl.Allow("r2", ActionUploadFile)
	assert.True(t, ok)
	ok, _ = rl.Allow("r1", ActionSendMessage)
	assert.True(t, ok)

	tokens, maxTokens := rl.GetStatus("r1", ActionSendMessage)
	assert.Equal(t, 9, tokens)
	assert.Equal(t, 10, maxTokens)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter()
	rl.Allow("r1", ActionLogin)

	clock.t = clock.t.Add(30 * time.Minute)
	rl.Cleanup()
	_, maxTokens := rl.GetStatus("r1", ActionLogin)
	assert.Equal(t, 5, maxTokens)

	clock.t = clock.t.Add(2 * time.Hour)
	rl.Cleanup()
	_, maxTokens = rl.GetStatus("r1", ActionLogin)
	assert.Equal(t, 0, maxTokens)
}
