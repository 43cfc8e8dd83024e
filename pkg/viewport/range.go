// Package viewport converts scroll positions and item extents into index
// ranges.
//
// The calculator maintains a prefix-sum cache of item positions so that
// visible-range queries are O(log n) binary searches rather than linear
// scans. A velocity tracker smooths scroll deltas and biases the render
// and buffer windows toward the direction of travel.
package viewport

import "fmt"

// IndexRange is a half-open interval [Start, End) of item indices.
//
// The zero value is the empty range [0, 0). Ranges compare equal by
// bounds, so == works directly.
type IndexRange struct {
	Start int
	End   int
}

// Range constructs an IndexRange, normalizing inverted bounds to empty.
func Range(start, end int) IndexRange {
	if end < start {
		end = start
	}
	return IndexRange{Start: start, End: end}
}

// Contains reports whether index i falls inside the range.
func (r IndexRange) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Length returns the number of indices in the range.
func (r IndexRange) Length() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// IsEmpty reports whether the range covers no indices.
func (r IndexRange) IsEmpty() bool {
	return r.End <= r.Start
}

// ContainsRange reports whether other is fully inside r.
func (r IndexRange) ContainsRange(other IndexRange) bool {
	if other.IsEmpty() {
		return true
	}
	return other.Start >= r.Start && other.End <= r.End
}

// Intersect returns the overlap of two ranges, empty if they are disjoint.
func (r IndexRange) Intersect(other IndexRange) IndexRange {
	start := r.Start
	if other.Start > start {
		start = other.Start
	}
	end := r.End
	if other.End < end {
		end = other.End
	}
	return Range(start, end)
}

// Clamp restricts the range to [0, itemCount).
func (r IndexRange) Clamp(itemCount int) IndexRange {
	start := r.Start
	if start < 0 {
		start = 0
	}
	if start > itemCount {
		start = itemCount
	}
	end := r.End
	if end > itemCount {
		end = itemCount
	}
	if end < start {
		end = start
	}
	return IndexRange{Start: start, End: end}
}

func (r IndexRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}
