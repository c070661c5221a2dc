// Package testutil holds shared helpers for tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a deterministic time source for tests.
//
// Ordering in this system is wall-clock based (created_at columns), so tests
// need timestamps that are distinct, monotonic and reproducible. Each call
// to Now advances the clock by a fixed step.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock creates a clock starting at start, advancing one second per call.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC(), step: time.Second}
}

// Now returns the current time and advances the clock by one step.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the current time without advancing.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to start for test reuse.
func (c *Clock) Reset(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = start.UTC()
}
