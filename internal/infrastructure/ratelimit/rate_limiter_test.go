package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustion(t *testing.T) {
	bucket := NewTokenBucket(3, 1, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := bucket.Allow()
		assert.True(t, allowed)
	}

	allowed, wait := bucket.Allow()
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))
}

func TestRateLimiterIsolatesUsersAndActions(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 10; i++ {
		allowed, _ := rl.Allow("user-1", "send_message")
		assert.True(t, allowed)
	}
	allowed, _ := rl.Allow("user-1", "send_message")
	assert.False(t, allowed)

	// A different user has a fresh budget.
	allowed, _ = rl.Allow("user-2", "send_message")
	assert.True(t, allowed)

	// A different action for the same user does too.
	allowed, _ = rl.Allow("user-1", "start_session")
	assert.True(t, allowed)
}

func TestCleanupConcurrentWithAllow(t *testing.T) {
	rl := NewRateLimiter()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				rl.Allow(fmt.Sprintf("user-%d", n), "send_message")
			}
		}(i)
	}
	for i := 0; i < 50; i++ {
		rl.Cleanup()
	}
	wg.Wait()
}

func TestCleanupDropsStaleBuckets(t *testing.T) {
	rl := NewRateLimiter()

	rl.Allow("user-1", "send_message")
	rl.buckets["user-1:send_message"].lastRefill = time.Now().Add(-2 * time.Hour)

	rl.Cleanup()

	assert.Empty(t, rl.buckets)
}
