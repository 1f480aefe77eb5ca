package pomodoro

import (
	"context"
	"time"
)

// Timer pairs the state machine with a countdown. It is not safe for
// concurrent use; the owner serializes access.
type Timer struct {
	state     State
	remaining time.Duration
}

// NewTimer returns an inactive timer at the start of a work interval
func NewTimer(d Durations) *Timer {
	s := NewState(d)
	return &Timer{state: s, remaining: d.For(s.Mode)}
}

// State returns the current state
func (t *Timer) State() State {
	return t.state
}

// Remaining returns the time left in the current interval
func (t *Timer) Remaining() time.Duration {
	return t.remaining
}

// Apply feeds ev to the state machine. Entering a mode reads its length from
// the current durations.
func (t *Timer) Apply(ev Event) State {
	prev := t.state
	t.state = t.state.Apply(ev)
	if t.state.Mode != prev.Mode || ev == EventReset || ev == EventSwitch {
		t.remaining = t.state.Durations.For(t.state.Mode)
	}
	return t.state
}

// SetDurations replaces the interval lengths. An inactive timer is re-based
// at once; a running one picks them up when it next enters a mode.
func (t *Timer) SetDurations(d Durations) {
	t.state.Durations = d
	if !t.state.IsActive {
		t.remaining = d.For(t.state.Mode)
	}
}

// Tick advances a running countdown by elapsed. When the interval runs out the
// timer switches mode and reports the mode that just completed.
func (t *Timer) Tick(elapsed time.Duration) (completed Mode, done bool) {
	if !t.state.IsActive {
		return "", false
	}
	t.remaining -= elapsed
	if t.remaining > 0 {
		return "", false
	}
	completed = t.state.Mode
	t.Apply(EventSwitch)
	return completed, true
}

// Ticker is driven by Run once per interval
type Ticker interface {
	TickPomodoro(elapsed time.Duration)
}

// Run calls target.TickPomodoro every interval until ctx is cancelled
func Run(ctx context.Context, interval time.Duration, target Ticker) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			target.TickPomodoro(now.Sub(last))
			last = now
		}
	}
}
