// Package rate limits operations per key, such as the requests of a single
// signer.
package rate

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/code-payments/staking-server/pkg/cache"
)

// Limiter limits operations based on a provided key.
type Limiter interface {
	Allow(key string) bool
}

type localRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters cache.Cache[string, *rate.Limiter]
}

// NewLocalRateLimiter returns an in memory limiter that allows limit
// operations per second for each key, with bursts of up to burst operations.
//
// At most maxKeys keys are tracked. The least recently seen keys are forgotten
// first, and start over with a full bucket when they return.
func NewLocalRateLimiter(limit rate.Limit, burst, maxKeys int) Limiter {
	if burst < 1 {
		burst = 1
	}

	return &localRateLimiter{
		limit:    limit,
		burst:    burst,
		limiters: cache.NewCache[string, *rate.Limiter](maxKeys),
	}
}

// Allow implements Limiter.Allow
func (l *localRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters.Retrieve(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		_ = l.limiters.Insert(key, limiter, 1)
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// NoLimiter never limits operations
type NoLimiter struct {
}

// Allow implements Limiter.Allow
func (n *NoLimiter) Allow(_ string) bool {
	return true
}
