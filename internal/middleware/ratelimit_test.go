package middleware

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/bookstore/internal/config"
)

func newTestLimiter(perMinute, authPerMinute int) *RateLimiter {
	rl := NewRateLimiter(config.RateLimit{
		PerMinute:     perMinute,
		AuthPerMinute: authPerMinute,
		SweepInterval: time.Hour, // keep the sweep out of the way
	})
	return rl
}

func TestRateLimiter_FirstRequestAllowed(t *testing.T) {
	rl := newTestLimiter(5, 2)
	defer rl.Stop()

	decision := rl.Allow("1.2.3.4", "/api/v1/books", time.Now())

	assert.True(t, decision.Allowed)
	assert.Equal(t, 5, decision.Limit)
}

func TestRateLimiter_WindowBoundary(t *testing.T) {
	rl := newTestLimiter(3, 2)
	defer rl.Stop()

	now := time.Now()

	// First N requests within the window are allowed.
	for i := 0; i < 3; i++ {
		decision := rl.Allow("1.2.3.4", "/api/v1/books", now.Add(time.Duration(i)*time.Second))
		assert.True(t, decision.Allowed, "request %d should be allowed", i+1)
	}

	// The (N+1)-th within the same window is rejected.
	decision := rl.Allow("1.2.3.4", "/api/v1/books", now.Add(3*time.Second))
	assert.False(t, decision.Allowed)
	assert.Equal(t, 3, decision.Limit)

	// 61 seconds after the first recorded request the window has slid.
	decision = rl.Allow("1.2.3.4", "/api/v1/books", now.Add(61*time.Second))
	assert.True(t, decision.Allowed)
}

func TestRateLimiter_RejectionNotRecorded(t *testing.T) {
	rl := newTestLimiter(2, 2)
	defer rl.Stop()

	now := time.Now()
	rl.Allow("1.2.3.4", "/api/v1/books", now)
	rl.Allow("1.2.3.4", "/api/v1/books", now.Add(time.Second))

	// Hammer the limiter with rejected requests; they must not extend the
	// window or count toward future checks.
	for i := 0; i < 10; i++ {
		decision := rl.Allow("1.2.3.4", "/api/v1/books", now.Add(2*time.Second))
		assert.False(t, decision.Allowed)
	}

	// Once the two recorded requests age out, the client is allowed again.
	decision := rl.Allow("1.2.3.4", "/api/v1/books", now.Add(61*time.Second))
	assert.True(t, decision.Allowed)
}

func TestRateLimiter_AuthPrefixUsesStricterLimit(t *testing.T) {
	rl := newTestLimiter(100, 2)
	defer rl.Stop()

	now := time.Now()

	assert.True(t, rl.Allow("1.2.3.4", "/auth/login", now).Allowed)
	assert.True(t, rl.Allow("1.2.3.4", "/auth/login", now).Allowed)

	decision := rl.Allow("1.2.3.4", "/auth/login", now)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 2, decision.Limit)

	// The general limit still applies to other routes for the same client.
	assert.True(t, rl.Allow("1.2.3.4", "/api/v1/books", now).Allowed)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newTestLimiter(1, 1)
	defer rl.Stop()

	now := time.Now()

	assert.True(t, rl.Allow("1.2.3.4", "/api/v1/books", now).Allowed)
	assert.False(t, rl.Allow("1.2.3.4", "/api/v1/books", now).Allowed)

	// Different client, same path.
	assert.True(t, rl.Allow("5.6.7.8", "/api/v1/books", now).Allowed)

	// Same client, different path.
	assert.True(t, rl.Allow("1.2.3.4", "/api/v1/authors", now).Allowed)
}

func TestRateLimiter_BackwardClockDoesNotExpireEntries(t *testing.T) {
	rl := newTestLimiter(2, 2)
	defer rl.Stop()

	now := time.Now()
	assert.True(t, rl.Allow("1.2.3.4", "/api/v1/books", now).Allowed)
	assert.True(t, rl.Allow("1.2.3.4", "/api/v1/books", now).Allowed)

	// Clock moved backward: recorded entries have negative age and are kept.
	decision := rl.Allow("1.2.3.4", "/api/v1/books", now.Add(-30*time.Second))
	assert.False(t, decision.Allowed)
}

func TestRateLimiter_SweepEvictsStaleKeys(t *testing.T) {
	rl := newTestLimiter(5, 5)
	defer rl.Stop()

	now := time.Now()
	for i := 0; i < 10; i++ {
		rl.Allow(fmt.Sprintf("10.0.0.%d", i), "/api/v1/books", now)
	}
	rl.Allow("1.2.3.4", "/api/v1/books", now.Add(50*time.Second))
	assert.Equal(t, 11, rl.KeyCount())

	rl.sweep(now.Add(70 * time.Second))

	// Only the key with an entry still inside the window survives.
	assert.Equal(t, 1, rl.KeyCount())
}

func TestRateLimiter_ConcurrentSameKey(t *testing.T) {
	rl := newTestLimiter(100, 100)
	defer rl.Stop()

	now := time.Now()

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- rl.Allow("1.2.3.4", "/api/v1/books", now).Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	// No lost updates: exactly the limit is admitted.
	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, 100, count)
}
