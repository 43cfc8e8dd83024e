package viewport

import (
	"math"
	"time"
)

// Default tuning, matching the engine's configuration defaults.
const (
	defaultWindowSize         = 21
	defaultInitialNumToRender = 10
	minRenderFloor            = 10
	minRenderBuffer           = 5
	minPreloadBuffer          = 3
)

// Calculator turns scroll offsets into visible, render and buffer index
// ranges.
//
// Visible-range queries run against a prefix-sum position cache that is
// reused until InvalidateCache is called (data or measured extents
// changed). Render and buffer ranges expand the visible window by
// amounts derived from the configured window size and the smoothed
// scroll velocity.
type Calculator struct {
	windowSize         int
	initialNumToRender int

	cache   positionCache
	tracker VelocityTracker
}

// NewCalculator creates a calculator. Non-positive arguments fall back
// to the defaults (window size 21, initial render count 10).
func NewCalculator(windowSize, initialNumToRender int) *Calculator {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	if initialNumToRender <= 0 {
		initialNumToRender = defaultInitialNumToRender
	}
	return &Calculator{
		windowSize:         windowSize,
		initialNumToRender: initialNumToRender,
	}
}

// ObserveScroll feeds a scroll sample into the velocity tracker.
func (c *Calculator) ObserveScroll(offset float64, now time.Time) {
	c.tracker.Observe(offset, now)
}

// Velocity returns the smoothed scroll velocity in units per second.
func (c *Calculator) Velocity() float64 {
	return c.tracker.Velocity()
}

// InvalidateCache discards the position cache. Call when the item set
// or any measured extent changes.
func (c *Calculator) InvalidateCache() {
	c.cache.Invalidate()
}

// TotalExtent returns the cached total content extent, rebuilding from
// sizes if the cache is stale.
func (c *Calculator) TotalExtent(sizes []float64) float64 {
	c.ensureCache(sizes)
	return c.cache.TotalExtent()
}

// Reset clears the cache and velocity state.
func (c *Calculator) Reset() {
	c.cache.Invalidate()
	c.tracker.Reset()
}

// VisibleRange returns the indices whose items intersect the viewport
// window [scrollOffset, scrollOffset+viewportSize).
//
// Empty input or a non-positive viewport yields [0,0). Offsets at or
// before zero pin the start to index 0; offsets beyond the content pin
// the range to the last item.
func (c *Calculator) VisibleRange(scrollOffset, viewportSize float64, sizes []float64) IndexRange {
	n := len(sizes)
	if n == 0 || viewportSize <= 0 {
		return IndexRange{}
	}
	c.ensureCache(sizes)

	if scrollOffset < 0 {
		scrollOffset = 0
	}
	first := c.cache.FirstVisible(scrollOffset)
	last := c.cache.LastVisible(scrollOffset + viewportSize)
	if last < first {
		last = first
	}
	return IndexRange{Start: first, End: last + 1}.Clamp(n)
}

// RenderRange expands the visible range by a buffer sized from the
// window configuration and the current scroll velocity, then widens the
// result to a minimum render count when the list allows.
func (c *Calculator) RenderRange(visible IndexRange, itemCount int) IndexRange {
	if itemCount <= 0 {
		return IndexRange{}
	}
	buffer := c.renderBuffer() + velocityBuffer(math.Abs(c.tracker.Velocity()))
	r := IndexRange{Start: visible.Start - buffer, End: visible.End + buffer}.Clamp(itemCount)

	minRender := c.initialNumToRender
	if minRender < minRenderFloor {
		minRender = minRenderFloor
	}
	return expandToLength(r, minRender, itemCount)
}

// BufferRange expands the render range further for pre-rendering.
// Fast scrolls (|velocity| > 100) weight the expansion toward the
// direction of travel: double ahead, half behind.
func (c *Calculator) BufferRange(render IndexRange, itemCount int) IndexRange {
	if itemCount <= 0 {
		return IndexRange{}
	}
	extra := c.preloadBuffer()
	ahead, behind := extra, extra
	switch v := c.tracker.Velocity(); {
	case v > 100:
		ahead = extra * 2
		behind = extra / 2
	case v < -100:
		ahead = extra / 2
		behind = extra * 2
	}
	return IndexRange{Start: render.Start - behind, End: render.End + ahead}.Clamp(itemCount)
}

func (c *Calculator) ensureCache(sizes []float64) {
	if !c.cache.Valid(len(sizes)) {
		c.cache.Rebuild(sizes)
	}
}

func (c *Calculator) renderBuffer() int {
	buffer := int(math.Round(float64(c.windowSize) / 2))
	if buffer < minRenderBuffer {
		buffer = minRenderBuffer
	}
	return buffer
}

func (c *Calculator) preloadBuffer() int {
	extra := int(math.Round(float64(c.windowSize) / 4))
	if extra < minPreloadBuffer {
		extra = minPreloadBuffer
	}
	return extra
}

// velocityBuffer maps absolute scroll speed to extra render indices.
func velocityBuffer(speed float64) int {
	switch {
	case speed < 50:
		return 0
	case speed < 200:
		return 2
	case speed < 500:
		return 5
	case speed < 1000:
		return 8
	default:
		return 12
	}
}

// expandToLength grows r symmetrically until it spans at least want
// indices, spilling the remainder to the other side when one side hits
// a list boundary.
func expandToLength(r IndexRange, want, itemCount int) IndexRange {
	if want > itemCount {
		want = itemCount
	}
	deficit := want - r.Length()
	if deficit <= 0 {
		return r
	}
	start := r.Start - deficit/2
	end := r.End + (deficit - deficit/2)
	if start < 0 {
		end -= start
		start = 0
	}
	if end > itemCount {
		start -= end - itemCount
		end = itemCount
		if start < 0 {
			start = 0
		}
	}
	return IndexRange{Start: start, End: end}
}
