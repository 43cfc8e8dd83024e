package viewport

import (
	"math"
	"time"
)

const (
	// velocitySmoothing weights the previous velocity against the
	// latest instantaneous sample.
	velocitySmoothing = 0.7
	// staleSampleGap is the inter-update gap beyond which a sample is
	// discarded rather than smoothed in. Gaps this large mean the app
	// was backgrounded or the list idle, not that the user scrolled
	// very slowly.
	staleSampleGap = time.Second
)

// VelocityTracker derives a smoothed scroll velocity, in scroll units
// per second, from successive offset observations.
type VelocityTracker struct {
	lastOffset float64
	lastTime   time.Time
	velocity   float64
	anchored   bool
}

// Observe feeds one scroll sample into the tracker.
func (t *VelocityTracker) Observe(offset float64, now time.Time) {
	if !t.anchored {
		t.anchor(offset, now)
		return
	}
	dt := now.Sub(t.lastTime)
	if dt <= 0 {
		return
	}
	if dt >= staleSampleGap {
		// Re-anchor without polluting the smoothed value.
		t.anchor(offset, now)
		return
	}
	instant := (offset - t.lastOffset) / dt.Seconds()
	if math.IsNaN(instant) || math.IsInf(instant, 0) {
		t.anchor(offset, now)
		return
	}
	t.velocity = velocitySmoothing*t.velocity + (1-velocitySmoothing)*instant
	t.anchor(offset, now)
}

// Velocity returns the current smoothed velocity. Positive values mean
// scrolling toward higher offsets.
func (t *VelocityTracker) Velocity() float64 {
	return t.velocity
}

// Reset clears all tracked state.
func (t *VelocityTracker) Reset() {
	*t = VelocityTracker{}
}

func (t *VelocityTracker) anchor(offset float64, now time.Time) {
	t.lastOffset = offset
	t.lastTime = now
	t.anchored = true
}
