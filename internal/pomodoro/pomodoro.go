// Package pomodoro implements the focus timer: a work/break state machine and
// the countdown that drives it.
package pomodoro

import (
	"fmt"
	"time"

	"github.com/benvon/itsdone/internal/validation"
)

// Mode is the current interval kind
type Mode string

const (
	ModeWork       Mode = "work"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

// Name returns the display name of the mode
func (m Mode) Name() string {
	switch m {
	case ModeWork:
		return "Work"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return string(m)
	}
}

// Event is an input to the state machine
type Event string

const (
	EventStart  Event = "start"
	EventPause  Event = "pause"
	EventReset  Event = "reset"
	EventSwitch Event = "switch"
)

// ParseEvent validates an event name
func ParseEvent(s string) (Event, error) {
	switch Event(s) {
	case EventStart, EventPause, EventReset, EventSwitch:
		return Event(s), nil
	default:
		return "", fmt.Errorf("unknown pomodoro event: %q", s)
	}
}

// CyclesPerLongBreak is how many completed work sessions earn a long break
const CyclesPerLongBreak = 4

// Durations are interval lengths in minutes
type Durations struct {
	Work  int `json:"work" validate:"min=1,max=240"`
	Short int `json:"short" validate:"min=1,max=240"`
	Long  int `json:"long" validate:"min=1,max=240"`
}

// DefaultDurations returns 25/5/15
func DefaultDurations() Durations {
	return Durations{Work: 25, Short: 5, Long: 15}
}

// Validate checks that every duration is a positive number of minutes
func (d Durations) Validate() error {
	if err := validation.Struct(d); err != nil {
		return fmt.Errorf("invalid pomodoro durations: %w", err)
	}
	return nil
}

// For returns the length of an interval in the given mode
func (d Durations) For(mode Mode) time.Duration {
	switch mode {
	case ModeShortBreak:
		return time.Duration(d.Short) * time.Minute
	case ModeLongBreak:
		return time.Duration(d.Long) * time.Minute
	default:
		return time.Duration(d.Work) * time.Minute
	}
}

// State is the timer state. Only Durations is persisted.
type State struct {
	Durations Durations `json:"durations"`
	Mode      Mode      `json:"mode"`
	IsActive  bool      `json:"isActive"`
	Cycles    int       `json:"cycles"`
}

// NewState returns an inactive work state with the given durations
func NewState(d Durations) State {
	return State{Durations: d, Mode: ModeWork}
}

// Apply returns the state after ev
func (s State) Apply(ev Event) State {
	switch ev {
	case EventStart:
		s.IsActive = true
	case EventPause:
		s.IsActive = false
	case EventReset:
		s.IsActive = false
		s.Mode = ModeWork
		s.Cycles = 0
	case EventSwitch:
		s = s.next()
	}
	return s
}

// next leaves the current interval. Completing work counts a cycle and every
// fourth cycle earns a long break; any break returns to work.
func (s State) next() State {
	s.IsActive = false
	if s.Mode != ModeWork {
		s.Mode = ModeWork
		return s
	}
	s.Cycles++
	if s.Cycles%CyclesPerLongBreak == 0 && s.Cycles > 0 {
		s.Mode = ModeLongBreak
	} else {
		s.Mode = ModeShortBreak
	}
	return s
}
