// Package perf observes frame timing, render volume and scroll
// behavior, raising advisory alerts when thresholds are breached.
package perf

import "time"

// DefaultWindowSize covers roughly two seconds of frames at 60fps.
const DefaultWindowSize = 120

// FrameWindow is a ring buffer of recent frame durations.
//
// Not safe for concurrent use on its own; the Monitor serializes
// access.
type FrameWindow struct {
	samples []time.Duration
	index   int
	count   int
}

// NewFrameWindow creates a window. capacity <= 0 falls back to
// DefaultWindowSize.
func NewFrameWindow(capacity int) *FrameWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &FrameWindow{samples: make([]time.Duration, capacity)}
}

// Add records one frame duration, evicting the oldest once full.
func (w *FrameWindow) Add(d time.Duration) {
	w.samples[w.index] = d
	w.index = (w.index + 1) % len(w.samples)
	if w.count < len(w.samples) {
		w.count++
	}
}

// Count returns the number of recorded samples, up to capacity.
func (w *FrameWindow) Count() int {
	return w.count
}

// Average returns the mean frame duration over the window.
func (w *FrameWindow) Average() time.Duration {
	if w.count == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range w.Samples() {
		total += d
	}
	return total / time.Duration(w.count)
}

// Max returns the longest frame in the window.
func (w *FrameWindow) Max() time.Duration {
	var max time.Duration
	for _, d := range w.Samples() {
		if d > max {
			max = d
		}
	}
	return max
}

// FPS derives frames per second from the average frame duration.
func (w *FrameWindow) FPS() float64 {
	avg := w.Average()
	if avg <= 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}

// Samples returns recorded durations in chronological order.
func (w *FrameWindow) Samples() []time.Duration {
	if w.count == 0 {
		return nil
	}
	result := make([]time.Duration, w.count)
	if w.count < len(w.samples) {
		copy(result, w.samples[:w.count])
	} else {
		copy(result, w.samples[w.index:])
		copy(result[len(w.samples)-w.index:], w.samples[:w.index])
	}
	return result
}

// Reset clears all samples.
func (w *FrameWindow) Reset() {
	w.index = 0
	w.count = 0
}
