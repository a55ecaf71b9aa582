package host

import (
	"sync"

	"golang.org/x/time/rate"
)

// connLimiter keeps one token bucket per connection. Buckets exist from
// add until forget; a key without a bucket is never allowed.
type connLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newConnLimiter(perSecond float64, burst int) *connLimiter {
	return &connLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *connLimiter) add(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.limiters[key]; !ok {
		l.limiters[key] = rate.NewLimiter(l.rate, l.burst)
	}
}

func (l *connLimiter) allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	l.mu.Unlock()

	return ok && limiter.Allow()
}

func (l *connLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *connLimiter) forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, key)
}
