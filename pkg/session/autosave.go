package session

import (
	"time"

	"go.uber.org/zap"
)

// Timer is a pending scheduled call
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Callbacks may run on another goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// EnableAutosave starts periodic persistence of the current frame. A
// non-positive interval uses the configured one.
func (s *Session) EnableAutosave(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if interval <= 0 {
		interval = s.settings.AutosaveInterval
	}
	s.stopAutosaveLocked()
	s.autosave = true
	s.autosaveInterval = interval
	s.scheduleLocked()
	s.logger.Info("autosave enabled", zap.Duration("interval", interval))
}

// DisableAutosave cancels the pending tick. No tick runs after it returns.
func (s *Session) DisableAutosave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.autosave {
		s.logger.Info("autosave disabled")
	}
	s.stopAutosaveLocked()
}

// AutosaveEnabled reports whether ticks are scheduled
func (s *Session) AutosaveEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autosave
}

func (s *Session) stopAutosaveLocked() {
	s.autosave = false
	s.autosaveGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) scheduleLocked() {
	gen := s.autosaveGen
	s.timer = s.scheduler.AfterFunc(s.autosaveInterval, func() { s.autosaveTick(gen) })
}

// autosaveTick persists silently; failures are only logged. A tick from a
// cancelled generation does nothing.
func (s *Session) autosaveTick(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.autosave || s.closed || gen != s.autosaveGen {
		return
	}
	if s.state == StateFrameLoaded && s.dirty {
		if err := s.persistLocked(false); err != nil {
			s.logger.Error("autosave failed", zap.Int("frame", s.index), zap.Error(err))
		} else {
			s.logger.Debug("autosaved", zap.Int("frame", s.index))
		}
	}
	s.scheduleLocked()
}
