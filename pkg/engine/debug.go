package engine

import (
	"github.com/go-drift/virtuallist/pkg/perf"
	"github.com/go-drift/virtuallist/pkg/recycle"
)

// DebugInfo is a point-in-time snapshot of the engine's internals for
// diagnostics and tooling. It carries no live references; mutating it
// has no effect on the engine.
type DebugInfo struct {
	State State

	PendingTasks   int
	BatchSize      int
	SchedulerPhase string

	Recycler     recycle.Stats
	RecycleRatio float64

	MeasuredItems  int
	GlobalEstimate float64

	Velocity float64
}

// DebugInfo assembles a diagnostic snapshot across all subsystems.
func (e *Engine) DebugInfo() DebugInfo {
	stats := e.rec.Stats()
	return DebugInfo{
		State:          e.state,
		PendingTasks:   e.sched.Pending(),
		BatchSize:      e.sched.BatchSize(),
		SchedulerPhase: e.sched.Phase().String(),
		Recycler:       stats,
		RecycleRatio:   stats.RecycleRatio(),
		MeasuredItems:  e.est.MeasuredCount(),
		GlobalEstimate: e.est.GlobalEstimate(),
		Velocity:       e.calc.Velocity(),
	}
}

// Metrics returns the performance monitor's current snapshot. Zero
// valued when monitoring is disabled.
func (e *Engine) Metrics() perf.Metrics {
	return e.mon.Snapshot()
}
