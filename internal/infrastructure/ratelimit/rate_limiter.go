package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limit configures one action's token bucket.
type Limit struct {
	PerMinute int
	Burst     int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per (user, action).
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limits   map[string]Limit
	fallback Limit
	now      func() time.Time
}

func NewRateLimiter(fallback Limit, limits map[string]Limit) *RateLimiter {
	if fallback.PerMinute <= 0 {
		fallback.PerMinute = 30
	}
	if fallback.Burst <= 0 {
		fallback.Burst = fallback.PerMinute
	}
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		limits:   limits,
		fallback: fallback,
		now:      time.Now,
	}
}

// Allow consumes a token for key/action. When the bucket is empty it reports
// how long the caller should wait.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()
	b := rl.bucketFor(key, action, now)

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) bucketFor(key, action string, now time.Time) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	id := action + ":" + key
	b, ok := rl.buckets[id]
	if !ok {
		limit, found := rl.limits[action]
		if !found || limit.PerMinute <= 0 {
			limit = rl.fallback
		}
		if limit.Burst <= 0 {
			limit.Burst = limit.PerMinute
		}
		every := rate.Every(time.Minute / time.Duration(limit.PerMinute))
		b = &bucket{limiter: rate.NewLimiter(every, limit.Burst)}
		rl.buckets[id] = b
	}
	b.lastSeen = now
	return b
}

// Cleanup drops buckets idle for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for id, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, id)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanupRoutine(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(2 * interval)
			case <-stop:
				return
			}
		}
	}()
}
