package store

import (
	"context"
	"time"

	"github.com/benvon/itsdone/internal/pomodoro"
	"go.uber.org/zap"
)

// Pomodoro feeds an event to the timer and returns the new state
func (s *Store) Pomodoro(ctx context.Context, ev pomodoro.Event) pomodoro.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.timer.Apply(ev)
	s.logger.Debug("pomodoro_event",
		zap.String("event", string(ev)),
		zap.String("mode", string(st.Mode)),
		zap.Int("cycles", st.Cycles),
	)
	return st
}

// PomodoroStatus returns the timer state and the time left in the interval
func (s *Store) PomodoroStatus() (pomodoro.State, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timer.State(), s.timer.Remaining()
}

// UpdatePomodoroSettings validates and stores new interval lengths
func (s *Store) UpdatePomodoroSettings(ctx context.Context, d pomodoro.Durations) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer.SetDurations(d)
	s.persistJSON(ctx, KeyPomodoroSettings, d)
	return nil
}

// TickPomodoro advances a running countdown. It satisfies pomodoro.Ticker.
func (s *Store) TickPomodoro(elapsed time.Duration) {
	s.mu.Lock()
	completed, done := s.timer.Tick(elapsed)
	st := s.timer.State()
	s.mu.Unlock()

	if done {
		s.logger.Info("pomodoro_session_complete",
			zap.String("mode", string(completed)),
			zap.Int("cycles", st.Cycles),
		)
		s.notifyPomodoro(completed, st)
	}
}

var _ pomodoro.Ticker = (*Store)(nil)
