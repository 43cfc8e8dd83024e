package perf

import (
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Severity grades an alert. Alerts are advisory: consumers decide
// whether to act, nothing in the engine treats them as faults.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Alert codes raised by the monitor.
const (
	CodeDroppedFrame     = "dropped_frame"
	CodeExcessiveRenders = "excessive_renders"
	CodeScrollJank       = "scroll_jank"
	CodeLowFPS           = "low_fps"
	CodeMemoryPressure   = "memory_pressure"
)

// Alert is one advisory performance finding.
type Alert struct {
	ID        string
	Severity  Severity
	Code      string
	Message   string
	Value     float64
	Timestamp time.Time
}

// Metrics is a point-in-time snapshot of observed performance.
type Metrics struct {
	FPS              float64
	AverageFrameTime time.Duration
	MaxFrameTime     time.Duration
	FrameCount       int
	LastRenderCount  int
	ActiveAlerts     []Alert
}

// Thresholds at which the monitor raises alerts.
const (
	droppedFrameThreshold   = 20 * time.Millisecond
	excessiveRenderCount    = 50
	jankVelocityThreshold   = 2000.0
	jankGapThreshold        = 50 * time.Millisecond
	lowFPSThreshold         = 50.0
	fpsCheckInterval        = 5 * time.Second
	alertRetention          = 5 * time.Minute
	componentCountThreshold = 100
	alertStreamCapacity     = 64
)

// Monitor brackets frames, tracks render volume and scroll cadence,
// and raises advisory alerts on an observable stream.
//
// A disabled monitor (NewMonitor(false)) accepts every call as a cheap
// no-op so call sites need no guards.
type Monitor struct {
	mu      sync.Mutex
	enabled bool

	frames     *FrameWindow
	frameStart time.Time
	inFrame    bool

	lastRenderCount int
	alerts          []Alert
	stream          chan Alert
	lastFPSCheck    time.Time

	// Now is the monitor's clock, replaceable for deterministic tests.
	Now func() time.Time
}

// NewMonitor creates a monitor. When enabled is false every method
// returns immediately.
func NewMonitor(enabled bool) *Monitor {
	m := &Monitor{
		enabled: enabled,
		Now:     time.Now,
	}
	if enabled {
		m.frames = NewFrameWindow(DefaultWindowSize)
		m.stream = make(chan Alert, alertStreamCapacity)
	}
	return m
}

// Enabled reports whether the monitor is collecting.
func (m *Monitor) Enabled() bool {
	return m.enabled
}

// StartFrame marks the beginning of a frame's virtualization work.
func (m *Monitor) StartFrame() {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	m.frameStart = m.Now()
	m.inFrame = true
	m.mu.Unlock()
}

// EndFrame closes the current frame bracket, recording its duration
// and the number of renders it produced.
func (m *Monitor) EndFrame(renderCount int) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inFrame {
		return
	}
	m.inFrame = false
	now := m.Now()
	d := now.Sub(m.frameStart)
	m.frames.Add(d)
	m.lastRenderCount = renderCount

	if d > droppedFrameThreshold {
		m.raise(SeverityWarning, CodeDroppedFrame,
			"frame exceeded drop threshold", float64(d.Milliseconds()), now)
	}
	if renderCount > excessiveRenderCount {
		m.raise(SeverityWarning, CodeExcessiveRenders,
			"excessive renders in one frame", float64(renderCount), now)
	}
	m.checkFPS(now)
	m.prune(now)
}

// ObserveScroll checks one scroll update for jank: a fast scroll with
// a long gap since the previous update means frames are being missed.
func (m *Monitor) ObserveScroll(velocity float64, gap time.Duration) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if math.Abs(velocity) > jankVelocityThreshold && gap > jankGapThreshold {
		m.raise(SeverityWarning, CodeScrollJank,
			"scroll updates lagging at high velocity", math.Abs(velocity), m.Now())
	}
}

// ObserveComponentCount checks the live component population for
// memory pressure.
func (m *Monitor) ObserveComponentCount(n int) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > componentCountThreshold {
		m.raise(SeverityWarning, CodeMemoryPressure,
			"component count above memory pressure threshold", float64(n), m.Now())
	}
}

// Alerts returns the alert stream. Sends never block: when no consumer
// keeps up, alerts are dropped from the stream but remain visible in
// Snapshot until retention expires. Returns nil when disabled.
func (m *Monitor) Alerts() <-chan Alert {
	return m.stream
}

// Snapshot returns current metrics and retained alerts.
func (m *Monitor) Snapshot() Metrics {
	if !m.enabled {
		return Metrics{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune(m.Now())
	alerts := make([]Alert, len(m.alerts))
	copy(alerts, m.alerts)
	return Metrics{
		FPS:              m.frames.FPS(),
		AverageFrameTime: m.frames.Average(),
		MaxFrameTime:     m.frames.Max(),
		FrameCount:       m.frames.Count(),
		LastRenderCount:  m.lastRenderCount,
		ActiveAlerts:     alerts,
	}
}

// Reset clears collected samples and alerts.
func (m *Monitor) Reset() {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames.Reset()
	m.alerts = nil
	m.inFrame = false
	m.lastFPSCheck = time.Time{}
}

// checkFPS runs the periodic sustained-FPS check. Caller holds m.mu.
func (m *Monitor) checkFPS(now time.Time) {
	if m.lastFPSCheck.IsZero() {
		m.lastFPSCheck = now
		return
	}
	if now.Sub(m.lastFPSCheck) < fpsCheckInterval {
		return
	}
	m.lastFPSCheck = now
	if m.frames.Count() < m.frames.countFloorForFPS() {
		return
	}
	if fps := m.frames.FPS(); fps < lowFPSThreshold {
		m.raise(SeverityError, CodeLowFPS, "sustained low frame rate", fps, now)
	}
}

// countFloorForFPS is the minimum sample count before the FPS check is
// meaningful.
func (w *FrameWindow) countFloorForFPS() int {
	return len(w.samples) / 2
}

// raise records an alert and offers it to the stream. Caller holds
// m.mu.
func (m *Monitor) raise(severity Severity, code, message string, value float64, now time.Time) {
	alert := Alert{
		ID:        ulid.Make().String(),
		Severity:  severity,
		Code:      code,
		Message:   message,
		Value:     value,
		Timestamp: now,
	}
	m.alerts = append(m.alerts, alert)
	select {
	case m.stream <- alert:
	default:
	}
}

// prune drops alerts past retention. Caller holds m.mu.
func (m *Monitor) prune(now time.Time) {
	cutoff := now.Add(-alertRetention)
	kept := m.alerts[:0]
	for _, a := range m.alerts {
		if a.Timestamp.After(cutoff) {
			kept = append(kept, a)
		}
	}
	m.alerts = kept
}
