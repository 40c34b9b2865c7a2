package control

import (
	"sync"
	"time"
)

const (
	switchPollInterval    = time.Millisecond
	switchDebounceWindow  = 10 * time.Millisecond
	switchMinPressForRelease = 30 * time.Millisecond
)

// MomentarySwitch polls a single pin, idle HIGH / pressed LOW, and emits
// debounced press/release events per spec.md §4.5. A candidate level must
// hold steady for switchDebounceWindow before it is accepted, and a press
// must have lasted switchMinPressForRelease before its matching release is
// emitted, rejecting the short bounces a mechanical switch produces.
type MomentarySwitch struct {
	gpio      GPIO
	pin       int
	onPress   func()
	onRelease func()

	stable        Level
	candidate     Level
	candidateSince time.Time
	pressedAt     time.Time

	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewMomentarySwitch(gpio GPIO, pin int, onPress, onRelease func()) *MomentarySwitch {
	init := gpio.Read(pin)
	return &MomentarySwitch{
		gpio:      gpio,
		pin:       pin,
		onPress:   onPress,
		onRelease: onRelease,
		stable:    init,
		candidate: init,
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

func (s *MomentarySwitch) Run() {
	defer close(s.stopped)
	ticker := time.NewTicker(switchPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.poll(now)
		}
	}
}

func (s *MomentarySwitch) poll(now time.Time) {
	raw := s.gpio.Read(s.pin)
	if raw != s.candidate {
		s.candidate = raw
		s.candidateSince = now
		return
	}
	if raw == s.stable {
		return
	}
	if now.Sub(s.candidateSince) < switchDebounceWindow {
		return
	}

	s.stable = raw
	if s.stable == Low {
		s.pressedAt = now
		if s.onPress != nil {
			s.onPress()
		}
		return
	}

	// transition back to High: only emit release if the press held long
	// enough to be a deliberate press rather than a bounce.
	if now.Sub(s.pressedAt) >= switchMinPressForRelease {
		if s.onRelease != nil {
			s.onRelease()
		}
	}
}

func (s *MomentarySwitch) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.stopped
}
