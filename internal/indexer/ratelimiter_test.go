package indexer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowLimiter_AllowsUpToMax(t *testing.T) {
	l := newSlidingWindowLimiter(time.Minute, 3)

	for i := 1; i <= 3; i++ {
		allowed, count, limit, _ := l.Allow()
		assert.True(t, allowed)
		assert.Equal(t, i, count)
		assert.Equal(t, 3, limit)
	}

	allowed, count, limit, _ := l.Allow()
	assert.False(t, allowed)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, limit)
}

func TestSlidingWindowLimiter_Status(t *testing.T) {
	l := newSlidingWindowLimiter(time.Minute, 5)
	l.Allow()
	l.Allow()

	count, limit, _ := l.Status()
	assert.Equal(t, 2, count)
	assert.Equal(t, 5, limit)
}

func TestSlidingWindowLimiter_ResetsAfterWindow(t *testing.T) {
	l := newSlidingWindowLimiter(time.Millisecond, 1)
	allowed, _, _, _ := l.Allow()
	assert.True(t, allowed)

	time.Sleep(5 * time.Millisecond)

	allowed, count, _, _ := l.Allow()
	assert.True(t, allowed)
	assert.Equal(t, 1, count)
}
