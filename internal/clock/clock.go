// Package clock supplies the current time to the ledger. Production code uses
// System; tests drive time explicitly with Manual.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual is a settable clock, safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a clock frozen at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// NewManualMillis returns a clock frozen at the given Unix milliseconds.
func NewManualMillis(ms int64) *Manual {
	return NewManual(time.UnixMilli(ms))
}

func (c *Manual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Manual) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Manual) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// NowMillis returns c.Now() as Unix milliseconds, the unit of ledger watermarks.
func NowMillis(c Clock) int64 {
	return c.Now().UnixMilli()
}
