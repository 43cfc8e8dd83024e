package viewport

import "sort"

// minItemExtent guards against zero-size items degenerating the
// position cache into repeated offsets, which would break the binary
// searches below.
const minItemExtent = 1.0

// positionCache stores prefix sums of item extents along the scroll axis.
//
// offsets has len(sizes)+1 entries; offsets[i] is the leading edge of
// item i and offsets[len(sizes)] is the total content extent. The cache
// is reused across queries within one data epoch and rebuilt lazily
// after Invalidate.
type positionCache struct {
	offsets []float64
	valid   bool
}

// Rebuild recomputes prefix sums from the given extents. Extents below
// minItemExtent (including NaN and negatives) are clamped up.
func (c *positionCache) Rebuild(sizes []float64) {
	if cap(c.offsets) < len(sizes)+1 {
		c.offsets = make([]float64, len(sizes)+1)
	} else {
		c.offsets = c.offsets[:len(sizes)+1]
	}
	c.offsets[0] = 0
	for i, size := range sizes {
		if !(size >= minItemExtent) {
			size = minItemExtent
		}
		c.offsets[i+1] = c.offsets[i] + size
	}
	c.valid = true
}

// Invalidate marks the cache stale. The next query must Rebuild first.
func (c *positionCache) Invalidate() {
	c.valid = false
}

// Valid reports whether the cache can serve queries for n items.
func (c *positionCache) Valid(n int) bool {
	return c.valid && len(c.offsets) == n+1
}

// ItemCount returns the number of items covered by the cache.
func (c *positionCache) ItemCount() int {
	if len(c.offsets) == 0 {
		return 0
	}
	return len(c.offsets) - 1
}

// TotalExtent returns the summed extent of all items.
func (c *positionCache) TotalExtent() float64 {
	if len(c.offsets) == 0 {
		return 0
	}
	return c.offsets[len(c.offsets)-1]
}

// PositionOf returns the leading edge of item i.
func (c *positionCache) PositionOf(i int) float64 {
	if i < 0 || i >= len(c.offsets) {
		return 0
	}
	return c.offsets[i]
}

// FirstVisible returns the first index whose trailing edge lies beyond
// offset, i.e. the first item still (partially) on screen.
func (c *positionCache) FirstVisible(offset float64) int {
	n := c.ItemCount()
	if n == 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool {
		return c.offsets[i+1] > offset
	})
	if i >= n {
		i = n - 1
	}
	return i
}

// LastVisible returns the last index whose leading edge lies strictly
// before limit. The caller guarantees limit > 0.
func (c *positionCache) LastVisible(limit float64) int {
	n := c.ItemCount()
	if n == 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool {
		return c.offsets[i] >= limit
	})
	if i == 0 {
		return 0
	}
	return i - 1
}
