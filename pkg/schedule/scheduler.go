// Package schedule paces virtualization work against a per-frame time
// budget.
//
// The scheduler holds priority queues of render tasks and exposes a
// single drive function, Step, that processes one adaptive batch and
// reports whether work remains. It never owns a timer: the host's
// frame or event loop decides when to call Step again, which keeps the
// design cooperative and lets the host composite between passes.
package schedule

import (
	"math"
	"time"
)

// Priority orders tasks within a frame.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// TaskType records which range produced a task.
type TaskType int

const (
	TaskVisible TaskType = iota
	TaskBuffer
	TaskPreload
)

func (t TaskType) String() string {
	switch t {
	case TaskVisible:
		return "visible"
	case TaskBuffer:
		return "buffer"
	case TaskPreload:
		return "preload"
	default:
		return "unknown"
	}
}

// Task is one unit of render work for a single item index.
type Task struct {
	Index       int
	Priority    Priority
	Type        TaskType
	ScheduledAt time.Time
	CompletedAt time.Time
}

// Phase is the scheduler's processing state.
type Phase int

const (
	// PhaseIdle means no tasks are queued.
	PhaseIdle Phase = iota
	// PhaseScheduled means tasks await the next Step call.
	PhaseScheduled
	// PhaseProcessing means a Step call is draining the queues.
	PhaseProcessing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseScheduled:
		return "scheduled"
	case PhaseProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

const (
	// DefaultFrameBudget is the wall-clock allowance per Step.
	DefaultFrameBudget = 16 * time.Millisecond
	// DefaultMaxBatch is the configured batch size ceiling baseline.
	DefaultMaxBatch = 10

	batchShrinkFactor = 0.9
	batchGrowFactor   = 1.1
	// growHeadroom is the budget fraction under which a fully
	// consumed batch is considered cheap enough to grow.
	growHeadroom = 0.7
)

// Ranges carries the three nested index windows a scroll update
// produced. Start/End pairs are half-open.
type Ranges struct {
	VisibleStart, VisibleEnd int
	RenderStart, RenderEnd   int
	BufferStart, BufferEnd   int
}

// Scheduler batches render tasks within a frame budget, adapting the
// batch size to observed processing cost.
type Scheduler struct {
	frameBudget time.Duration
	maxBatch    int
	batchSize   float64

	high  []Task // visible and render-range tasks, in priority order
	low   []Task // preload tasks
	phase Phase

	onTask func(Task)

	// Now is the scheduler's clock, replaceable for deterministic
	// tests.
	Now func() time.Time
}

// NewScheduler creates a scheduler. Non-positive arguments fall back
// to DefaultFrameBudget and DefaultMaxBatch. onTask is invoked for
// every processed task and may be nil.
func NewScheduler(frameBudget time.Duration, maxBatch int, onTask func(Task)) *Scheduler {
	if frameBudget <= 0 {
		frameBudget = DefaultFrameBudget
	}
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &Scheduler{
		frameBudget: frameBudget,
		maxBatch:    maxBatch,
		batchSize:   float64(maxBatch),
		onTask:      onTask,
		Now:         time.Now,
	}
}

// ScheduleRanges replaces all queued work with tasks derived from a
// new set of ranges: visible indices at high priority, render-range
// remainder at medium (kept in the high queue so it drains before any
// preload work), and buffer-range remainder at low priority.
func (s *Scheduler) ScheduleRanges(r Ranges) {
	now := s.Now()
	s.high = s.high[:0]
	s.low = s.low[:0]

	for i := r.VisibleStart; i < r.VisibleEnd; i++ {
		s.high = append(s.high, Task{Index: i, Priority: PriorityHigh, Type: TaskVisible, ScheduledAt: now})
	}
	for i := r.RenderStart; i < r.RenderEnd; i++ {
		if i >= r.VisibleStart && i < r.VisibleEnd {
			continue
		}
		s.high = append(s.high, Task{Index: i, Priority: PriorityMedium, Type: TaskBuffer, ScheduledAt: now})
	}
	for i := r.BufferStart; i < r.BufferEnd; i++ {
		if i >= r.RenderStart && i < r.RenderEnd {
			continue
		}
		s.low = append(s.low, Task{Index: i, Priority: PriorityLow, Type: TaskPreload, ScheduledAt: now})
	}

	if len(s.high)+len(s.low) > 0 {
		s.phase = PhaseScheduled
	} else {
		s.phase = PhaseIdle
	}
}

// Step processes one batch of tasks within the frame budget and
// returns whether work remains. The host should call Step once per
// frame callback while it returns true.
//
// Batch sizing adapts: overrunning the budget shrinks the batch 10%
// (floor one task); finishing a full batch under 70% of the budget
// grows it 10% (ceiling twice the configured maximum).
func (s *Scheduler) Step() bool {
	if s.phase == PhaseIdle || s.pending() == 0 {
		s.phase = PhaseIdle
		return false
	}
	s.phase = PhaseProcessing
	start := s.Now()
	batch := int(s.batchSize)
	if batch < 1 {
		batch = 1
	}

	processed := 0
	budgetExhausted := false
	for processed < batch {
		task, ok := s.next()
		if !ok {
			break
		}
		task.CompletedAt = s.Now()
		if s.onTask != nil {
			s.onTask(task)
		}
		processed++
		if s.Now().Sub(start) >= s.frameBudget {
			budgetExhausted = true
			break
		}
	}

	elapsed := s.Now().Sub(start)
	switch {
	case budgetExhausted || elapsed > s.frameBudget:
		s.batchSize = math.Max(1, s.batchSize*batchShrinkFactor)
	case processed == batch && elapsed < time.Duration(growHeadroom*float64(s.frameBudget)):
		s.batchSize = math.Min(float64(2*s.maxBatch), s.batchSize*batchGrowFactor)
	}

	if s.pending() > 0 {
		s.phase = PhaseScheduled
		return true
	}
	s.phase = PhaseIdle
	return false
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	return s.pending()
}

// Phase returns the current processing phase.
func (s *Scheduler) Phase() Phase {
	return s.phase
}

// BatchSize returns the current adaptive batch size.
func (s *Scheduler) BatchSize() int {
	batch := int(s.batchSize)
	if batch < 1 {
		return 1
	}
	return batch
}

// Clear drops all queued work and returns to idle.
func (s *Scheduler) Clear() {
	s.high = nil
	s.low = nil
	s.phase = PhaseIdle
}

func (s *Scheduler) pending() int {
	return len(s.high) + len(s.low)
}

// next pops the highest-priority queued task.
func (s *Scheduler) next() (Task, bool) {
	if len(s.high) > 0 {
		task := s.high[0]
		s.high = s.high[1:]
		return task, true
	}
	if len(s.low) > 0 {
		task := s.low[0]
		s.low = s.low[1:]
		return task, true
	}
	return Task{}, false
}
