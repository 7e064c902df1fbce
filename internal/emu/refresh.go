package emu

import "github.com/FabianRolfMatthiasNoll/arduboyemu/internal/mcu"

// refresh is the frame-boundary scheduler: a cycle timer that ticks every
// RefreshPeriod of virtual time and ends the current Step.
type refresh struct {
	timer  mcu.TimerID
	period uint64 // cycles
	frame  bool   // boundary reached during this Step

	// postpone holds a tick that lands mid-pass until the display latch
	// completes the pass, or until the following tick.
	postpone bool
	held     bool
}

func (s *Session) startRefresh(m *mcu.MCU, postpone bool) {
	s.refresh = refresh{period: m.UsecToCycles(RefreshPeriod), postpone: postpone}
	s.timer = m.RegisterTimer(s.period, s.tick)
}

func (s *Session) tick(m *mcu.MCU, when uint64) uint64 {
	if s.postpone && !s.held && s.ctrl.Dirty() {
		s.held = true
	} else {
		s.held = false
		s.frame = true
	}
	return when + s.period
}

func (s *Session) passComplete() {
	if s.held {
		s.held = false
		s.frame = true
	}
}

// SetRefreshTiming switches postponed refresh on or off. Turning it off
// releases a held tick immediately.
func (s *Session) SetRefreshTiming(postpone bool) error {
	if s.state != Running {
		return ErrNotInitialized
	}
	s.postpone = postpone
	if !postpone && s.held {
		s.held = false
		s.frame = true
	}
	return nil
}

// RefreshPostponed reports whether postponed refresh is on.
func (s *Session) RefreshPostponed() bool { return s.postpone }
