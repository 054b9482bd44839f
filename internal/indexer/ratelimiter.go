package indexer

import (
	"sync"
	"time"
)

// slidingWindowLimiter caps calls at maxRequests within a fixed window,
// resetting the counter wholesale at each window boundary rather than
// tracking individual call timestamps. It exposes its current count and
// the next reset time so callers can surface rate-limit status.
type slidingWindowLimiter struct {
	window      time.Duration
	maxRequests int

	mu         sync.Mutex
	count      int
	windowEnds time.Time
}

func newSlidingWindowLimiter(window time.Duration, maxRequests int) *slidingWindowLimiter {
	return &slidingWindowLimiter{window: window, maxRequests: maxRequests}
}

// Allow increments the counter and reports whether the call may proceed.
func (l *slidingWindowLimiter) Allow() (allowed bool, count, limit int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.windowEnds) {
		l.count = 0
		l.windowEnds = now.Add(l.window)
	}
	if l.count >= l.maxRequests {
		return false, l.count, l.maxRequests, l.windowEnds
	}
	l.count++
	return true, l.count, l.maxRequests, l.windowEnds
}

// Status reports the current count and reset time without consuming a slot.
func (l *slidingWindowLimiter) Status() (count, limit int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Now().After(l.windowEnds) {
		return 0, l.maxRequests, l.windowEnds
	}
	return l.count, l.maxRequests, l.windowEnds
}
