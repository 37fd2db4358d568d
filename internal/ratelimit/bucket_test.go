package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *time.Time) {
	t.Helper()
	l := New(Config{MaxTokens: 10, Window: 10 * time.Minute})
	current := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestLimiter_ConsumeUntilEmpty(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 1; i <= 10; i++ {
		assert.True(t, l.Consume("198.51.100.7"), "consume %d should be admitted", i)
	}
	assert.False(t, l.Consume("198.51.100.7"), "11th consume should be denied")
	assert.InDelta(t, 0, l.Remaining("198.51.100.7"), 1e-9)
}

func TestLimiter_FullWindowRefillsToMax(t *testing.T) {
	l, current := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		require.True(t, l.Consume("id"))
	}
	require.False(t, l.Consume("id"))

	*current = current.Add(10 * time.Minute)
	assert.True(t, l.Consume("id"))
	// one token was just spent out of a refilled-full bucket
	assert.InDelta(t, 9, l.Remaining("id"), 1e-6)
}

func TestLimiter_ContinuousRefill(t *testing.T) {
	l, current := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		require.True(t, l.Consume("id"))
	}

	t.Run("half a token after 30s", func(t *testing.T) {
		*current = current.Add(30 * time.Second)
		assert.False(t, l.Consume("id"))
		assert.InDelta(t, 0.5, l.Remaining("id"), 1e-6)
	})

	t.Run("whole token after another 30s", func(t *testing.T) {
		*current = current.Add(30 * time.Second)
		assert.True(t, l.Consume("id"))
	})
}

func TestLimiter_DenialStillPersistsRefill(t *testing.T) {
	l, current := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		require.True(t, l.Consume("id"))
	}

	// a denied consume must still advance the bucket's refill timestamp
	*current = current.Add(45 * time.Second)
	require.False(t, l.Consume("id"))
	*current = current.Add(15 * time.Second)
	assert.True(t, l.Consume("id"), "45s + 15s of refill should yield one token")
}

func TestLimiter_UnknownIdentityStartsFull(t *testing.T) {
	l, _ := newTestLimiter(t)
	assert.InDelta(t, 10, l.Remaining("never-seen"), 1e-9)
}

func TestLimiter_IdentitiesAreIsolated(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		require.True(t, l.Consume("a"))
	}
	require.False(t, l.Consume("a"))
	assert.True(t, l.Consume("b"), "exhausting one identity must not affect another")
}

func TestLimiter_RetryAfter(t *testing.T) {
	l, current := newTestLimiter(t)

	assert.Equal(t, time.Duration(0), l.RetryAfter("id"), "full bucket needs no wait")

	for i := 0; i < 10; i++ {
		require.True(t, l.Consume("id"))
	}
	// 10 tokens / 10 minutes: one token accrues every 60 seconds
	assert.InDelta(t, float64(60*time.Second), float64(l.RetryAfter("id")), float64(10*time.Millisecond))

	*current = current.Add(20 * time.Second)
	assert.InDelta(t, float64(40*time.Second), float64(l.RetryAfter("id")), float64(10*time.Millisecond))
}

func TestLimiter_DefaultsApplied(t *testing.T) {
	l := New(Config{})
	assert.InDelta(t, DefaultMaxTokens, l.Remaining("id"), 1e-9)
}

func TestLimiter_ConcurrentConsume(t *testing.T) {
	l := New(Config{MaxTokens: 100, Window: 10 * time.Minute})

	var wg sync.WaitGroup
	admitted := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted <- l.Consume("shared")
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	// 100 tokens plus at most a sliver of real-time refill
	assert.GreaterOrEqual(t, count, 100)
	assert.LessOrEqual(t, count, 101)
}
