package control

import (
	"testing"

	"github.com/mrdg/dubsiren/audio"
	"github.com/mrdg/dubsiren/dsp"
)

func newTestSurface() (*Surface, *audio.Engine, *audio.Driver) {
	engine := audio.NewEngine(48000, 256)
	sink := audio.NewSimulatedSink()
	sink.Open("", 48000, 2, 256)
	driver := audio.NewDriver(sink, 48000, 256, engine)
	gpio := NewSimulatedGPIO()
	s := NewSurface(gpio, engine, driver, nil, nil)
	return s, engine, driver
}

func TestBankSwitchingIdempotentWhileShiftHeld(t *testing.T) {
	s, _, _ := newTestSurface()
	if s.Bank() != BankA {
		t.Fatalf("expected default Bank A, got %v", s.Bank())
	}
	s.onShiftPress()
	for i := 0; i < 3; i++ {
		if s.Bank() != BankB {
			t.Fatalf("expected Bank B while shift held, got %v", s.Bank())
		}
		s.onShiftPress() // pressing again while already held must not change anything
	}
	s.onShiftRelease()
	if s.Bank() != BankA {
		t.Fatalf("expected Bank A restored after shift release, got %v", s.Bank())
	}
}

func TestEncoderMutatesBankASharedAcrossShift(t *testing.T) {
	s, engine, _ := newTestSurface()
	engine.SetVolume(0.7)
	engine.SetReleaseTime(0.5)

	s.onShiftPress()
	s.onEncoderTick(0, 1) // bank B: release += 0.1
	if got := engine.ReleaseTime(); got < 0.599 || got > 0.601 {
		t.Fatalf("expected releaseTime ~0.6, got %v", got)
	}

	s.onShiftRelease()
	s.onEncoderTick(0, 1) // bank A: volume += 0.02
	if got := engine.Volume(); got < 0.719 || got > 0.721 {
		t.Fatalf("expected volume ~0.72, got %v", got)
	}
	if got := engine.ReleaseTime(); got < 0.599 || got > 0.601 {
		t.Fatalf("expected releaseTime unchanged at ~0.6, got %v", got)
	}
}

func TestEncoderClampsAtBoundary(t *testing.T) {
	s, engine, _ := newTestSurface()
	for i := 0; i < 1000; i++ {
		s.onEncoderTick(0, 1)
	}
	if got := engine.Volume(); got != 1.0 {
		t.Fatalf("expected volume clamped to 1.0, got %v", got)
	}
}

func TestTriggerAndReleaseDispatchToEngine(t *testing.T) {
	s, engine, _ := newTestSurface()
	s.onTriggerPress()
	if !engine.IsActive() {
		t.Fatal("expected engine active after trigger press")
	}
	s.onTriggerRelease()
	if engine.Stats().EnvelopeStage != dsp.Release {
		t.Fatalf("expected envelope in Release stage, got %v", engine.Stats().EnvelopeStage)
	}
}

func TestSecretModeGestureActivatesSampleMode(t *testing.T) {
	s, engine, driver := newTestSurface()
	_ = engine
	for i := 0; i < 5; i++ {
		s.onPitchEnvPress()
	}
	if !s.sampleMode.Load() {
		t.Fatal("expected sample mode active after 5 presses")
	}
	// with no sample wired in (nil) the driver keeps the engine as its
	// source; the driver's source is not readable from this package, so
	// only the mode flag above and the idle driver are checked.
	if driver.Stats().BlocksServed != 0 {
		t.Fatal("sanity: driver should not have run yet")
	}
}
