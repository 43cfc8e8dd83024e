// Package testing provides deterministic time control for engine
// tests. Scroll velocity, frame budgets and alert pacing all derive
// from wall-clock deltas; tests replace each subsystem's clock with a
// FakeClock and advance it explicitly.
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import vltest "github.com/go-drift/virtuallist/pkg/testing"
package testing

import (
	"sync"
	"time"
)

// FakeClock provides controllable time for deterministic scroll and
// frame tests. All methods are safe for concurrent use.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a FakeClock starting at a fixed epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set sets the clock to an exact time.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// PumpFrames advances the clock n times by interval, calling fn after
// each tick with the zero-based frame number. It models a steady
// display refresh loop.
func PumpFrames(c *FakeClock, n int, interval time.Duration, fn func(frame int)) {
	for i := 0; i < n; i++ {
		c.Advance(interval)
		if fn != nil {
			fn(i)
		}
	}
}
