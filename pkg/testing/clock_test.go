package testing

import (
	"testing"
	"time"
)

func TestFakeClock_Advance(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	clk.Advance(100 * time.Millisecond)
	elapsed := clk.Now().Sub(start)

	if elapsed != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", elapsed)
	}
}

func TestFakeClock_Set(t *testing.T) {
	clk := NewFakeClock()
	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	clk.Set(target)
	if !clk.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, clk.Now())
	}
}

func TestPumpFrames(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	var frames []int
	PumpFrames(clk, 3, 16*time.Millisecond, func(frame int) {
		frames = append(frames, frame)
	})

	if elapsed := clk.Now().Sub(start); elapsed != 48*time.Millisecond {
		t.Errorf("expected 48ms elapsed, got %v", elapsed)
	}
	if len(frames) != 3 || frames[0] != 0 || frames[2] != 2 {
		t.Errorf("unexpected frame sequence %v", frames)
	}
}
