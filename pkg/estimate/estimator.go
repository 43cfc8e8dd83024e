// Package estimate learns per-item extents from layout measurements.
//
// The estimator keeps exact extents for measured indices, running
// statistics per item type and globally, and serves the best available
// estimate for unmeasured items. Periodic optimization prunes outliers,
// merges indistinguishable item types and re-blends the global
// estimate.
package estimate

import (
	"math"
	"sort"
	"sync"
)

const (
	// DefaultItemSize is served before any measurement arrives.
	DefaultItemSize = 50.0
	// minMeasuredSize clamps anomalous (non-finite, zero or negative)
	// measurements.
	minMeasuredSize = 1.0

	// confidenceSamples is the sample count at which a type estimate
	// reaches full confidence.
	confidenceSamples = 10
	// outlierMinSamples gates IQR pruning until enough data exists.
	outlierMinSamples = 10
	// outlierMinRemaining is the measurement count pruning must leave.
	outlierMinRemaining = 20
	// typeMergeThreshold is the mean gap below which two item types
	// are indistinguishable for sizing purposes.
	typeMergeThreshold = 5.0
	// estimateBlend weights the previous global estimate when folding
	// in freshly recomputed type estimates.
	estimateBlend = 0.7
)

// SizeEstimate describes the learned extent for one item type.
type SizeEstimate struct {
	Size       float64
	Confidence float64
	SampleSize int
}

// Estimator learns item extents and serves estimates by priority:
// configured fixed size, exact per-index measurement, per-type mean,
// global mean, then DefaultItemSize.
//
// All methods are safe for concurrent use so that Optimize and Cleanup
// may run off the scheduling goroutine.
type Estimator struct {
	mu sync.Mutex

	fixedSize float64 // 0 means unset

	measured map[int]float64
	order    []int // insertion order, oldest first
	typeOf   map[int]string

	typeStats map[string]*runningStats
	global    runningStats

	// globalEstimate is the blended serving value used when no raw
	// samples exist; Optimize refreshes it.
	globalEstimate float64
}

// NewEstimator creates an estimator. fixedSize > 0 short-circuits all
// learning: every item reports exactly that extent.
func NewEstimator(fixedSize float64) *Estimator {
	return &Estimator{
		fixedSize:      fixedSize,
		measured:       make(map[int]float64),
		typeOf:         make(map[int]string),
		typeStats:      make(map[string]*runningStats),
		globalEstimate: DefaultItemSize,
	}
}

// ItemSize returns the best available extent for the item at index.
// itemType may be empty for homogeneous lists.
func (e *Estimator) ItemSize(index int, itemType string) float64 {
	if e.fixedSize > 0 {
		return e.fixedSize
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if size, ok := e.measured[index]; ok {
		return size
	}
	if itemType != "" {
		if stats, ok := e.typeStats[itemType]; ok && stats.count > 0 {
			return stats.Mean()
		}
	}
	if e.global.count > 0 {
		return e.global.Mean()
	}
	return e.globalEstimate
}

// RecordMeasurement stores the measured extent for index and updates
// the global and per-type statistics. Non-finite or non-positive sizes
// are clamped to one unit rather than rejected.
func (e *Estimator) RecordMeasurement(index int, size float64, itemType string) {
	if math.IsNaN(size) || math.IsInf(size, 0) || size < minMeasuredSize {
		size = minMeasuredSize
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if old, ok := e.measured[index]; ok {
		e.global.Remove(old)
		if prevType, ok := e.typeOf[index]; ok {
			if stats, ok := e.typeStats[prevType]; ok {
				stats.Remove(old)
			}
		}
	} else {
		e.order = append(e.order, index)
	}

	e.measured[index] = size
	e.global.Add(size)
	if itemType != "" {
		stats, ok := e.typeStats[itemType]
		if !ok {
			stats = &runningStats{}
			e.typeStats[itemType] = stats
		}
		stats.Add(size)
		e.typeOf[index] = itemType
	} else {
		delete(e.typeOf, index)
	}
}

// TypeEstimate returns the learned estimate for an item type.
func (e *Estimator) TypeEstimate(itemType string) (SizeEstimate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats, ok := e.typeStats[itemType]
	if !ok || stats.count == 0 {
		return SizeEstimate{}, false
	}
	return SizeEstimate{
		Size:       stats.Mean(),
		Confidence: confidenceFor(stats.count),
		SampleSize: stats.count,
	}, true
}

// GlobalEstimate returns the current serving estimate for untyped,
// unmeasured items.
func (e *Estimator) GlobalEstimate() float64 {
	if e.fixedSize > 0 {
		return e.fixedSize
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.global.count > 0 {
		return e.global.Mean()
	}
	return e.globalEstimate
}

// MeasuredCount returns the number of exact measurements held.
func (e *Estimator) MeasuredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.measured)
}

// Optimize performs periodic maintenance: IQR outlier pruning, merging
// of item types with near-identical means, and re-blending the global
// estimate from type estimates. It is not meant to run per frame.
func (e *Estimator) Optimize() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pruneOutliers()
	e.mergeSimilarTypes()
	e.reblendGlobalEstimate()
}

// Cleanup evicts the oldest-inserted measurements until at most
// keepCount remain.
func (e *Estimator) Cleanup(keepCount int) {
	if keepCount < 0 {
		keepCount = 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for len(e.measured) > keepCount && len(e.order) > 0 {
		index := e.order[0]
		e.order = e.order[1:]
		e.dropMeasurement(index)
	}
}

// Reset discards all learned state.
func (e *Estimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.measured = make(map[int]float64)
	e.order = nil
	e.typeOf = make(map[int]string)
	e.typeStats = make(map[string]*runningStats)
	e.global = runningStats{}
	e.globalEstimate = DefaultItemSize
}

// dropMeasurement removes one measurement and its statistical
// contribution. Caller holds e.mu.
func (e *Estimator) dropMeasurement(index int) {
	size, ok := e.measured[index]
	if !ok {
		return
	}
	delete(e.measured, index)
	e.global.Remove(size)
	if itemType, ok := e.typeOf[index]; ok {
		if stats, ok := e.typeStats[itemType]; ok {
			stats.Remove(size)
		}
		delete(e.typeOf, index)
	}
}

// pruneOutliers removes measurements outside the Tukey fences
// [Q1-1.5*IQR, Q3+1.5*IQR]. Pruning is skipped until enough samples
// exist, and skipped entirely if it would cut the set below
// outlierMinRemaining. Caller holds e.mu.
func (e *Estimator) pruneOutliers() {
	if e.global.count < outlierMinSamples {
		return
	}
	values := make([]float64, 0, len(e.measured))
	for _, v := range e.measured {
		values = append(values, v)
	}
	sort.Float64s(values)
	q1 := quantile(values, 0.25)
	q3 := quantile(values, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	var outliers []int
	for index, v := range e.measured {
		if v < lower || v > upper {
			outliers = append(outliers, index)
		}
	}
	if len(outliers) == 0 || len(e.measured)-len(outliers) <= outlierMinRemaining {
		return
	}
	for _, index := range outliers {
		e.dropMeasurement(index)
	}
	e.compactOrder()
}

// mergeSimilarTypes folds together item types whose means differ by
// less than typeMergeThreshold. Caller holds e.mu.
func (e *Estimator) mergeSimilarTypes() {
	names := make([]string, 0, len(e.typeStats))
	for name, stats := range e.typeStats {
		if stats.count > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	merged := make(map[string]string)
	for i := 0; i < len(names); i++ {
		a := names[i]
		if _, gone := merged[a]; gone {
			continue
		}
		for j := i + 1; j < len(names); j++ {
			b := names[j]
			if _, gone := merged[b]; gone {
				continue
			}
			if math.Abs(e.typeStats[a].Mean()-e.typeStats[b].Mean()) < typeMergeThreshold {
				e.typeStats[a].Merge(*e.typeStats[b])
				delete(e.typeStats, b)
				merged[b] = a
			}
		}
	}
	if len(merged) == 0 {
		return
	}
	for index, name := range e.typeOf {
		if target, ok := merged[name]; ok {
			e.typeOf[index] = target
		}
	}
}

// reblendGlobalEstimate recomputes the serving estimate as a
// confidence- and sample-weighted mean of type estimates, blended with
// the previous value to avoid discontinuities. Caller holds e.mu.
func (e *Estimator) reblendGlobalEstimate() {
	var weighted, weight float64
	for _, stats := range e.typeStats {
		if stats.count == 0 {
			continue
		}
		w := confidenceFor(stats.count) * float64(stats.count)
		weighted += stats.Mean() * w
		weight += w
	}
	if weight == 0 {
		return
	}
	fresh := weighted / weight
	e.globalEstimate = estimateBlend*e.globalEstimate + (1-estimateBlend)*fresh
}

// compactOrder drops evicted indices from the insertion-order list.
// Caller holds e.mu.
func (e *Estimator) compactOrder() {
	kept := e.order[:0]
	for _, index := range e.order {
		if _, ok := e.measured[index]; ok {
			kept = append(kept, index)
		}
	}
	e.order = kept
}

func confidenceFor(samples int) float64 {
	c := float64(samples) / confidenceSamples
	if c > 1 {
		return 1
	}
	return c
}

// quantile returns the q-th quantile of sorted values by linear
// interpolation.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
