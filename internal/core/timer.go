package core

import "time"

// FixedStep paces generation requests at a steady interval independent of
// the frame rate.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
}

// NewFixedStep constructs a FixedStep that fires every interval. The first
// call to ShouldStep fires immediately.
func NewFixedStep(interval time.Duration) *FixedStep {
	fs := &FixedStep{}
	fs.SetInterval(interval)
	fs.accumulator = fs.step
	return fs
}

// SetInterval changes the tick length. Non-positive values fall back to 100ms.
func (f *FixedStep) SetInterval(d time.Duration) {
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	f.step = d
}

// Interval returns the current tick length.
func (f *FixedStep) Interval() time.Duration { return f.step }

// ShouldStep reports whether a tick is due.
func (f *FixedStep) ShouldStep() bool { return f.ShouldStepAt(time.Now()) }

// ShouldStepAt is ShouldStep with an explicit clock. At most one tick is
// reported per call; backlog beyond one interval is dropped so a stalled
// worker does not cause a burst afterwards.
func (f *FixedStep) ShouldStepAt(now time.Time) bool {
	if f.last.IsZero() {
		f.last = now
	}
	f.accumulator += now.Sub(f.last)
	f.last = now
	if f.accumulator < f.step {
		return false
	}
	f.accumulator -= f.step
	if f.accumulator > f.step {
		f.accumulator = f.step
	}
	return true
}
