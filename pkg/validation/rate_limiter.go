// pkg/validation/rate_limiter.go
package validation

import (
	"sync"
	"time"
)

// RateLimiter holds a token bucket per connection. The server keeps
// one instance for chat and inputs and a stricter one for map votes.
type RateLimiter struct {
	capacity int
	window   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	janitor *time.Ticker
	done    chan struct{}
}

// bucket is one connection's token state. lastSeen doubles as the
// refill anchor and the eviction timestamp.
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter allows capacity requests per window for each
// connection ID. Idle connections are evicted in the background until
// Close is called.
func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		capacity: capacity,
		window:   window,
		buckets:  make(map[string]*bucket),
		janitor:  time.NewTicker(window),
		done:     make(chan struct{}),
	}
	go rl.evictIdle()
	return rl
}

// Allow consumes one token for the connection, reporting false when
// the bucket is empty.
func (rl *RateLimiter) Allow(connID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[connID]
	if !ok {
		b = &bucket{tokens: float64(rl.capacity), lastSeen: now}
		rl.buckets[connID] = b
	} else {
		refill := float64(rl.capacity) * float64(now.Sub(b.lastSeen)) / float64(rl.window)
		b.tokens += refill
		if b.tokens > float64(rl.capacity) {
			b.tokens = float64(rl.capacity)
		}
		b.lastSeen = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictIdle drops buckets for connections silent for two full windows
func (rl *RateLimiter) evictIdle() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.janitor.C:
		}

		cutoff := time.Now().Add(-2 * rl.window)
		rl.mu.Lock()
		for connID, b := range rl.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(rl.buckets, connID)
			}
		}
		rl.mu.Unlock()
	}
}

// Close stops the eviction goroutine
func (rl *RateLimiter) Close() {
	close(rl.done)
	rl.janitor.Stop()
}
