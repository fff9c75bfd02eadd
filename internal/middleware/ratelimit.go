package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/bookstore/internal/config"
)

// rateLimitWindow is the trailing interval over which requests are counted.
const rateLimitWindow = 60 * time.Second

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed bool
	Limit   int // the limit that applied to this request's route
}

// RateLimiter rejects excess requests per (client, route path) using a
// trailing sliding-window count. Auth-prefixed routes get a stricter limit.
//
// The window table is owned by the limiter instance and injected into the
// pipeline, never a package-level singleton. Stale keys are evicted by a
// background sweep so the table does not grow without bound under many
// distinct clients and paths.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	generalLimit  int
	authLimit     int
	authPrefix    string
	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once
}

// NewRateLimiter creates a rate limiter from configuration and starts its
// background sweep. Call Stop during shutdown.
func NewRateLimiter(cfg config.RateLimit) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 60
	}
	if cfg.AuthPerMinute <= 0 {
		cfg.AuthPerMinute = 10
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		windows:       make(map[string][]time.Time),
		generalLimit:  cfg.PerMinute,
		authLimit:     cfg.AuthPerMinute,
		authPrefix:    config.AuthRoutePrefix,
		sweepInterval: cfg.SweepInterval,
		stopSweep:     make(chan struct{}),
	}

	go rl.sweepLoop()

	return rl
}

// Stop stops the background sweep goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopSweep) })
}

// Allow checks and records a request for the (clientID, path) key.
// An allowed request is recorded with timestamp now; a rejected request is
// NOT recorded and does not count toward future checks.
func (rl *RateLimiter) Allow(clientID, path string, now time.Time) Decision {
	limit := rl.generalLimit
	if strings.HasPrefix(path, rl.authPrefix) {
		limit = rl.authLimit
	}

	key := clientID + ":" + path

	rl.mu.Lock()
	defer rl.mu.Unlock()

	kept := rl.windows[key][:0]
	for _, ts := range rl.windows[key] {
		// A negative age means the wall clock moved backward; the entry is
		// kept rather than treated as expired. Accepted imprecision.
		if now.Sub(ts) < rateLimitWindow {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		rl.windows[key] = kept
		return Decision{Allowed: false, Limit: limit}
	}

	rl.windows[key] = append(kept, now)
	return Decision{Allowed: true, Limit: limit}
}

// KeyCount returns the number of tracked window keys.
func (rl *RateLimiter) KeyCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// sweepLoop periodically evicts keys whose every entry has left the window.
func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-rl.stopSweep:
			return
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, timestamps := range rl.windows {
		stale := true
		for _, ts := range timestamps {
			if now.Sub(ts) < rateLimitWindow {
				stale = false
				break
			}
		}
		if stale {
			delete(rl.windows, key)
		}
	}
}
