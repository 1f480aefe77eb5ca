package pomodoro

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestState_Apply(t *testing.T) {
	t.Parallel()

	d := DefaultDurations()

	tests := []struct {
		name  string
		start State
		event Event
		want  State
	}{
		{
			name:  "first work session earns short break",
			start: State{Durations: d, Mode: ModeWork, Cycles: 0, IsActive: true},
			event: EventSwitch,
			want:  State{Durations: d, Mode: ModeShortBreak, Cycles: 1},
		},
		{
			name:  "fourth work session earns long break",
			start: State{Durations: d, Mode: ModeWork, Cycles: 3},
			event: EventSwitch,
			want:  State{Durations: d, Mode: ModeLongBreak, Cycles: 4},
		},
		{
			name:  "fifth work session is short again",
			start: State{Durations: d, Mode: ModeWork, Cycles: 4},
			event: EventSwitch,
			want:  State{Durations: d, Mode: ModeShortBreak, Cycles: 5},
		},
		{
			name:  "short break returns to work without counting",
			start: State{Durations: d, Mode: ModeShortBreak, Cycles: 2, IsActive: true},
			event: EventSwitch,
			want:  State{Durations: d, Mode: ModeWork, Cycles: 2},
		},
		{
			name:  "long break returns to work without counting",
			start: State{Durations: d, Mode: ModeLongBreak, Cycles: 4},
			event: EventSwitch,
			want:  State{Durations: d, Mode: ModeWork, Cycles: 4},
		},
		{
			name:  "reset from a break",
			start: State{Durations: d, Mode: ModeLongBreak, Cycles: 8, IsActive: true},
			event: EventReset,
			want:  State{Durations: d, Mode: ModeWork, Cycles: 0},
		},
		{
			name:  "start only toggles activity",
			start: State{Durations: d, Mode: ModeShortBreak, Cycles: 3},
			event: EventStart,
			want:  State{Durations: d, Mode: ModeShortBreak, Cycles: 3, IsActive: true},
		},
		{
			name:  "pause only toggles activity",
			start: State{Durations: d, Mode: ModeWork, Cycles: 1, IsActive: true},
			event: EventPause,
			want:  State{Durations: d, Mode: ModeWork, Cycles: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.start.Apply(tt.event)
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestState_CyclesOnlyCountWork(t *testing.T) {
	t.Parallel()

	s := NewState(DefaultDurations())
	for i := 0; i < 16; i++ {
		s = s.Apply(EventSwitch)
	}
	if s.Cycles != 8 {
		t.Errorf("Expected 8 cycles after 16 switches, got %d", s.Cycles)
	}
	if s.Mode != ModeWork {
		t.Errorf("Expected work mode after an even number of switches, got %s", s.Mode)
	}
}

func TestDurations_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultDurations().Validate(); err != nil {
		t.Errorf("Expected defaults to be valid, got %v", err)
	}
	if err := (Durations{Work: 0, Short: 5, Long: 15}).Validate(); err == nil {
		t.Error("Expected zero work duration to be rejected")
	}
	if err := (Durations{Work: 25, Short: -1, Long: 15}).Validate(); err == nil {
		t.Error("Expected negative short duration to be rejected")
	}
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	if ev, err := ParseEvent("switch"); err != nil || ev != EventSwitch {
		t.Errorf("Expected switch event, got %s (%v)", ev, err)
	}
	if _, err := ParseEvent("skip"); err == nil {
		t.Error("Expected unknown event to be rejected")
	}
}

func TestTimer_Tick(t *testing.T) {
	t.Parallel()

	timer := NewTimer(Durations{Work: 1, Short: 2, Long: 3})

	if _, done := timer.Tick(2 * time.Minute); done {
		t.Error("Expected inactive timer not to count down")
	}

	timer.Apply(EventStart)
	if _, done := timer.Tick(30 * time.Second); done {
		t.Error("Expected timer to still be running after 30s")
	}
	if timer.Remaining() != 30*time.Second {
		t.Errorf("Expected 30s remaining, got %s", timer.Remaining())
	}

	completed, done := timer.Tick(30 * time.Second)
	if !done || completed != ModeWork {
		t.Fatalf("Expected work interval to complete, got %s/%v", completed, done)
	}
	st := timer.State()
	if st.Mode != ModeShortBreak || st.Cycles != 1 || st.IsActive {
		t.Errorf("Expected inactive short break with 1 cycle, got %+v", st)
	}
	if timer.Remaining() != 2*time.Minute {
		t.Errorf("Expected short break length 2m, got %s", timer.Remaining())
	}
}

func TestTimer_SetDurations(t *testing.T) {
	t.Parallel()

	timer := NewTimer(DefaultDurations())
	timer.SetDurations(Durations{Work: 50, Short: 10, Long: 20})
	if timer.Remaining() != 50*time.Minute {
		t.Errorf("Expected inactive timer to re-base to 50m, got %s", timer.Remaining())
	}

	timer.Apply(EventStart)
	timer.Tick(time.Minute)
	timer.SetDurations(Durations{Work: 5, Short: 1, Long: 2})
	if timer.Remaining() != 49*time.Minute {
		t.Errorf("Expected running timer to keep its countdown, got %s", timer.Remaining())
	}

	timer.Apply(EventSwitch)
	if timer.Remaining() != time.Minute {
		t.Errorf("Expected next interval to use new short length, got %s", timer.Remaining())
	}
}

type countingTicker struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTicker) TickPomodoro(time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

func TestRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	target := &countingTicker{}
	Run(ctx, 10*time.Millisecond, target)

	target.mu.Lock()
	defer target.mu.Unlock()
	if target.calls == 0 {
		t.Error("Expected at least one tick")
	}
}
