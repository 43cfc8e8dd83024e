package schedule

import (
	"testing"
	"time"

	vltest "github.com/go-drift/virtuallist/pkg/testing"
)

func testRanges() Ranges {
	return Ranges{
		VisibleStart: 10, VisibleEnd: 20,
		RenderStart: 5, RenderEnd: 25,
		BufferStart: 0, BufferEnd: 30,
	}
}

func TestScheduleRangesQueuesByPriority(t *testing.T) {
	s := NewScheduler(16*time.Millisecond, 10, nil)
	s.ScheduleRanges(testRanges())

	if got := s.Pending(); got != 30 {
		t.Fatalf("Pending = %d, want 30", got)
	}
	if got := s.Phase(); got != PhaseScheduled {
		t.Errorf("Phase = %v, want PhaseScheduled", got)
	}

	// Visible tasks drain first, then render remainder, then preload.
	var order []Task
	for {
		task, ok := s.next()
		if !ok {
			break
		}
		order = append(order, task)
	}
	for i, task := range order {
		switch {
		case i < 10:
			if task.Type != TaskVisible || task.Priority != PriorityHigh {
				t.Fatalf("task %d = %v/%v, want visible/high", i, task.Type, task.Priority)
			}
		case i < 20:
			if task.Type != TaskBuffer || task.Priority != PriorityMedium {
				t.Fatalf("task %d = %v/%v, want buffer/medium", i, task.Type, task.Priority)
			}
		default:
			if task.Type != TaskPreload || task.Priority != PriorityLow {
				t.Fatalf("task %d = %v/%v, want preload/low", i, task.Type, task.Priority)
			}
		}
	}
}

func TestScheduleRangesReplacesQueuedWork(t *testing.T) {
	s := NewScheduler(16*time.Millisecond, 10, nil)
	s.ScheduleRanges(testRanges())
	s.ScheduleRanges(Ranges{VisibleStart: 0, VisibleEnd: 3, RenderStart: 0, RenderEnd: 3, BufferStart: 0, BufferEnd: 3})
	if got := s.Pending(); got != 3 {
		t.Errorf("Pending after reschedule = %d, want 3", got)
	}
}

func TestStepDrainsWithinBudget(t *testing.T) {
	clock := vltest.NewFakeClock()
	var processed []int
	s := NewScheduler(16*time.Millisecond, 10, func(task Task) {
		processed = append(processed, task.Index)
	})
	s.Now = clock.Now

	s.ScheduleRanges(Ranges{VisibleStart: 0, VisibleEnd: 5, RenderStart: 0, RenderEnd: 5, BufferStart: 0, BufferEnd: 5})
	more := s.Step()
	if more {
		t.Error("Step should report no remaining work after draining 5 tasks")
	}
	if len(processed) != 5 {
		t.Errorf("processed %d tasks, want 5", len(processed))
	}
	if got := s.Phase(); got != PhaseIdle {
		t.Errorf("Phase = %v, want PhaseIdle", got)
	}
}

func TestStepDefersBeyondBatch(t *testing.T) {
	s := NewScheduler(16*time.Millisecond, 10, nil)
	s.ScheduleRanges(testRanges())

	if more := s.Step(); !more {
		t.Fatal("Step should report remaining work")
	}
	if got := s.Phase(); got != PhaseScheduled {
		t.Errorf("Phase = %v, want PhaseScheduled while work remains", got)
	}

	steps := 1
	for s.Step() {
		steps++
		if steps > 100 {
			t.Fatal("scheduler never drained")
		}
	}
	if got := s.Pending(); got != 0 {
		t.Errorf("Pending after drain = %d, want 0", got)
	}
}

func TestBatchShrinksOnOverrun(t *testing.T) {
	clock := vltest.NewFakeClock()
	s := NewScheduler(16*time.Millisecond, 10, func(Task) {
		// Every task costs 25ms, blowing the 16ms budget.
		clock.Advance(25 * time.Millisecond)
	})
	s.Now = clock.Now

	prev := s.BatchSize()
	reachedFloor := false
	for frame := 0; frame < 30; frame++ {
		s.ScheduleRanges(Ranges{VisibleStart: 0, VisibleEnd: 50, RenderStart: 0, RenderEnd: 50, BufferStart: 0, BufferEnd: 50})
		s.Step()
		got := s.BatchSize()
		if got > prev {
			t.Fatalf("frame %d: batch size grew %d -> %d under sustained overrun", frame, prev, got)
		}
		if got == 1 {
			reachedFloor = true
		}
		prev = got
	}
	if !reachedFloor {
		t.Errorf("batch size never reached floor, ended at %d", prev)
	}
}

func TestBatchGrowsWhenCheap(t *testing.T) {
	clock := vltest.NewFakeClock()
	s := NewScheduler(16*time.Millisecond, 10, nil)
	s.Now = clock.Now

	for frame := 0; frame < 50; frame++ {
		s.ScheduleRanges(Ranges{VisibleStart: 0, VisibleEnd: 100, RenderStart: 0, RenderEnd: 100, BufferStart: 0, BufferEnd: 100})
		s.Step()
	}
	if got := s.BatchSize(); got != 20 {
		t.Errorf("batch size under cheap load = %d, want ceiling 20", got)
	}
}

func TestStepIdleIsNoOp(t *testing.T) {
	s := NewScheduler(16*time.Millisecond, 10, nil)
	if s.Step() {
		t.Error("Step with no work should return false")
	}
	if got := s.Phase(); got != PhaseIdle {
		t.Errorf("Phase = %v, want PhaseIdle", got)
	}
}

func TestClear(t *testing.T) {
	s := NewScheduler(16*time.Millisecond, 10, nil)
	s.ScheduleRanges(testRanges())
	s.Clear()
	if got := s.Pending(); got != 0 {
		t.Errorf("Pending after Clear = %d, want 0", got)
	}
	if s.Step() {
		t.Error("Step after Clear should report no work")
	}
}
