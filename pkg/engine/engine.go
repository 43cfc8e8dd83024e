// Package engine orchestrates list virtualization: it owns the current
// virtualization state and drives the viewport calculator, layout
// estimator, component recycler, render scheduler and performance
// monitor on behalf of a host list view.
//
// The engine is single-threaded and cooperative. The host pushes
// scroll updates via UpdateScrollPosition, pulls renderable children
// via BuildChildren, feeds back layout measurements via
// RecordItemMeasurement, and calls Step from its frame callback while
// it returns true. Each engine instance is explicitly constructed and
// owned by one list; there is no shared process-wide state.
package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	verrors "github.com/go-drift/virtuallist/pkg/errors"
	"github.com/go-drift/virtuallist/pkg/estimate"
	"github.com/go-drift/virtuallist/pkg/perf"
	"github.com/go-drift/virtuallist/pkg/recycle"
	"github.com/go-drift/virtuallist/pkg/schedule"
	"github.com/go-drift/virtuallist/pkg/viewport"
)

// renderShiftThreshold is how many indices the render range may drift
// before a scroll update with an unchanged visible range is applied.
// Sub-pixel jitter shifts the render window by an index or two without
// changing what the user sees; re-rendering for that would thrash.
const renderShiftThreshold = 2

// maintenanceInterval paces estimator optimization and pool tuning.
const maintenanceInterval = 5 * time.Second

// Adapter supplies the host callbacks that turn items into renderable
// objects. Build is required; everything else is optional.
type Adapter struct {
	// Build constructs the renderable for one item.
	Build func(item any, index int) (recycle.Renderable, error)
	// ItemType classifies items for heterogeneous pooling and size
	// estimation. The engine treats the returned value as opaque.
	ItemType func(item any, index int) string
	// Header builds the leading list element.
	Header func() recycle.Renderable
	// Footer builds the trailing list element.
	Footer func() recycle.Renderable
	// Separator builds the divider shown after the item at index.
	Separator func(index int) recycle.Renderable
	// Empty builds the placeholder shown when the list has no items.
	Empty func() recycle.Renderable
}

// Engine coordinates the virtualization subsystems for one list.
type Engine struct {
	cfg Config
	log zerolog.Logger

	calc  *viewport.Calculator
	est   *estimate.Estimator
	rec   *recycle.Recycler
	sched *schedule.Scheduler
	mon   *perf.Monitor

	adapter    Adapter
	data       []any
	horizontal bool
	viewportW  float64
	viewportH  float64

	state    State
	hasState bool

	sizes      []float64
	sizesDirty bool

	lastUpdateAt    time.Time
	lastMaintainAt  time.Time
	lastRenderCount int

	onEndReached    func()
	endReachedFired bool

	disposed bool

	now func() time.Time
}

// New creates an engine with the given configuration. Call Initialize
// before use.
func New(cfg Config) *Engine {
	cfg = cfg.normalized()
	logger := zerolog.Nop()
	if cfg.Debug {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Str("component", "virtuallist").Logger()
	}
	e := &Engine{
		cfg: cfg,
		log: logger,
		now: time.Now,
	}
	e.calc = viewport.NewCalculator(cfg.WindowSize, cfg.InitialNumToRender)
	e.est = estimate.NewEstimator(cfg.EstimatedItemSize)
	e.rec = recycle.NewRecycler(cfg.MaxPoolSize)
	e.sched = schedule.NewScheduler(cfg.FrameBudget, cfg.MaxToRenderPerBatch, nil)
	e.mon = perf.NewMonitor(cfg.EnablePerformanceMonitoring)
	return e
}

// SetClock replaces the engine's time source across all subsystems.
// Simulations and tests use it to model frame time explicitly; hosts
// never need to call it.
func (e *Engine) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	e.now = now
	e.mon.Now = now
	e.sched.Now = now
}

// Config returns the engine's normalized configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Initialize binds the engine to a data set and viewport and eagerly
// computes the first state, so the initial render range exists before
// any scroll event arrives.
func (e *Engine) Initialize(data []any, adapter Adapter, viewportWidth, viewportHeight float64, horizontal bool) {
	e.disposed = false
	e.adapter = adapter
	e.data = data
	e.viewportW = viewportWidth
	e.viewportH = viewportHeight
	e.horizontal = horizontal

	e.calc.Reset()
	e.est.Reset()
	e.rec.Dispose()
	e.sched.Clear()
	e.mon.Reset()
	e.sizesDirty = true
	e.hasState = false
	e.endReachedFired = false
	e.lastUpdateAt = time.Time{}
	e.lastMaintainAt = e.now()

	if e.cfg.RecyclingEnabled() {
		e.rec.ConfigureItemTypes(len(data), e.classifierFunc())
	}

	e.applyState(e.computeState(0))
	e.log.Debug().
		Int("items", len(data)).
		Float64("viewportWidth", viewportWidth).
		Float64("viewportHeight", viewportHeight).
		Bool("horizontal", horizontal).
		Stringer("render", e.state.Render).
		Msg("initialized")
}

// SetData replaces the item list within the same engine lifetime.
// Active components are returned to their pools (indices no longer
// refer to the same items); learned size statistics are kept.
func (e *Engine) SetData(data []any) {
	if e.disposed {
		return
	}
	e.data = data
	e.sizesDirty = true
	e.calc.InvalidateCache()
	e.endReachedFired = false
	e.rec.ReleaseOutsideRange(viewport.IndexRange{})
	if e.cfg.RecyclingEnabled() {
		e.rec.ConfigureItemTypes(len(data), e.classifierFunc())
	}
	e.applyState(e.computeState(e.state.ScrollOffset))
}

// UpdateScrollPosition feeds one scroll sample into the engine.
// Updates are processed strictly in arrival order; the new state is
// applied only when the visible range changed or the render range
// drifted past the jitter threshold.
func (e *Engine) UpdateScrollPosition(offset float64) {
	if e.disposed {
		return
	}
	now := e.now()
	var gap time.Duration
	if !e.lastUpdateAt.IsZero() {
		gap = now.Sub(e.lastUpdateAt)
	}
	e.lastUpdateAt = now

	e.calc.ObserveScroll(offset, now)
	e.mon.ObserveScroll(e.calc.Velocity(), gap)

	next := e.computeState(offset)
	if e.hasState && !e.shouldApply(next) {
		return
	}
	e.applyState(next)
}

// RecordItemMeasurement feeds an item's measured extent back into the
// layout estimator. A measurement inside the visible range recomputes
// the state immediately: correcting an on-screen extent shifts every
// downstream offset.
func (e *Engine) RecordItemMeasurement(index int, size float64, itemType string) {
	if e.disposed {
		return
	}
	if index < 0 || index >= len(e.data) {
		verrors.Report(&verrors.EngineError{
			Op:   "engine.RecordItemMeasurement",
			Kind: verrors.KindMeasure,
			Err:  fmt.Errorf("measurement index %d outside [0,%d)", index, len(e.data)),
		})
		return
	}
	e.est.RecordMeasurement(index, size, itemType)
	e.sizesDirty = true
	e.calc.InvalidateCache()

	if e.hasState && e.state.Visible.Contains(index) {
		e.applyState(e.computeState(e.state.ScrollOffset))
	}
}

// Step drives one scheduler batch inside a monitored frame bracket and
// reports whether work remains. The host calls Step from its frame
// callback while it returns true, yielding between calls.
func (e *Engine) Step() bool {
	if e.disposed {
		return false
	}
	e.mon.StartFrame()
	more := e.sched.Step()
	e.mon.EndFrame(e.lastRenderCount)
	return more
}

// Maintain runs periodic estimator and pool optimization. The engine
// triggers it automatically at a coarse interval; hosts may also call
// it directly during idle time.
func (e *Engine) Maintain() {
	if e.disposed {
		return
	}
	e.est.Optimize()
	e.est.Cleanup(e.cfg.MeasurementCacheSize)
	if e.cfg.RecyclingEnabled() {
		e.rec.OptimizePools()
	}
	e.sizesDirty = true
	e.calc.InvalidateCache()
	e.lastMaintainAt = e.now()
	e.log.Debug().Msg("maintenance pass")
}

// OnEndReached registers a callback fired once each time the buffered
// range approaches the end of the list.
func (e *Engine) OnEndReached(fn func()) {
	e.onEndReached = fn
}

// CurrentState returns the active state snapshot.
func (e *Engine) CurrentState() State {
	return e.state
}

// Alerts exposes the performance monitor's alert stream. Nil when
// monitoring is disabled.
func (e *Engine) Alerts() <-chan perf.Alert {
	return e.mon.Alerts()
}

// Dispose synchronously releases every pooled and active component and
// drops all queued work. The engine must be re-initialized before
// reuse.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.rec.Dispose()
	e.sched.Clear()
	e.state = State{}
	e.hasState = false
	e.data = nil
	e.sizes = nil
	e.disposed = true
	e.log.Debug().Msg("disposed")
}

// computeState derives the three nested ranges for a scroll offset.
// Degenerate input (no items, non-positive viewport) yields an empty
// state rather than an error.
func (e *Engine) computeState(offset float64) State {
	n := len(e.data)
	now := e.now()
	if n == 0 || e.viewportExtent() <= 0 {
		return State{ItemCount: n, ScrollOffset: offset, Timestamp: now}
	}
	sizes := e.itemSizes()
	visible := e.calc.VisibleRange(offset, e.viewportExtent(), sizes)
	render := e.calc.RenderRange(visible, n)
	buffer := e.calc.BufferRange(render, n)
	return State{
		ItemCount:    n,
		ScrollOffset: offset,
		Visible:      visible,
		Render:       render,
		Buffer:       buffer,
		Timestamp:    now,
	}
}

// shouldApply decides whether a recomputed state is worth applying.
// Visible-range changes always apply. Render-range drift applies only
// past the jitter threshold, and a burst of such drift-only updates is
// batched to at most one re-render per UpdateBatchingPeriod.
func (e *Engine) shouldApply(next State) bool {
	if next.Visible != e.state.Visible {
		return true
	}
	shifted := absInt(next.Render.Start-e.state.Render.Start) > renderShiftThreshold ||
		absInt(next.Render.End-e.state.Render.End) > renderShiftThreshold
	if !shifted {
		return false
	}
	return next.Timestamp.Sub(e.state.Timestamp) >= e.cfg.UpdateBatchingPeriod
}

func (e *Engine) applyState(next State) {
	e.state = next
	e.hasState = true

	if e.cfg.RecyclingEnabled() {
		e.rec.ReleaseOutsideRange(next.Buffer)
	}
	e.sched.ScheduleRanges(schedule.Ranges{
		VisibleStart: next.Visible.Start, VisibleEnd: next.Visible.End,
		RenderStart: next.Render.Start, RenderEnd: next.Render.End,
		BufferStart: next.Buffer.Start, BufferEnd: next.Buffer.End,
	})

	stats := e.rec.Stats()
	e.mon.ObserveComponentCount(stats.Active + stats.Pooled)
	e.maybeFireEndReached(next)
	e.maybeMaintain()

	e.log.Debug().
		Float64("offset", next.ScrollOffset).
		Stringer("visible", next.Visible).
		Stringer("render", next.Render).
		Stringer("buffer", next.Buffer).
		Msg("state applied")
}

func (e *Engine) maybeFireEndReached(next State) {
	n := next.ItemCount
	if n == 0 || e.onEndReached == nil {
		return
	}
	remaining := float64(n - next.Buffer.End)
	near := remaining <= e.cfg.OnEndReachedThreshold*float64(n)
	if near && !e.endReachedFired {
		e.endReachedFired = true
		e.onEndReached()
	} else if !near {
		e.endReachedFired = false
	}
}

func (e *Engine) maybeMaintain() {
	if e.now().Sub(e.lastMaintainAt) >= maintenanceInterval {
		e.Maintain()
	}
}

// itemSizes returns the per-index extent estimates, refreshed lazily
// after measurements or data changes.
func (e *Engine) itemSizes() []float64 {
	if !e.sizesDirty && len(e.sizes) == len(e.data) {
		return e.sizes
	}
	if cap(e.sizes) < len(e.data) {
		e.sizes = make([]float64, len(e.data))
	} else {
		e.sizes = e.sizes[:len(e.data)]
	}
	for i := range e.data {
		e.sizes[i] = e.est.ItemSize(i, e.itemTypeFor(i))
	}
	e.sizesDirty = false
	return e.sizes
}

func (e *Engine) itemTypeFor(index int) string {
	if e.adapter.ItemType == nil {
		return ""
	}
	return e.adapter.ItemType(e.data[index], index)
}

func (e *Engine) classifierFunc() func(int) string {
	if e.adapter.ItemType == nil {
		return nil
	}
	return func(index int) string {
		return e.adapter.ItemType(e.data[index], index)
	}
}

func (e *Engine) viewportExtent() float64 {
	if e.horizontal {
		return e.viewportW
	}
	return e.viewportH
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
