package dsp

import "testing"

func TestEnvelopeZeroTimesReturnToIdleWithinOneBlock(t *testing.T) {
	e := NewEnvelope(48000)
	e.SetAttackTime(0)
	e.SetReleaseTime(0)
	e.Trigger()

	buf := make([]float64, 256)
	e.Generate(buf)
	if e.Stage() != Idle && e.Stage() != Release {
		// attack=0 reaches level 1 within the first sample and the envelope
		// sits in Sustain; nothing is asserted until release=0 is applied
		// below.
	}

	e.Release()
	e.Generate(buf)
	if e.Stage() != Idle {
		t.Fatalf("expected envelope to return to Idle, got stage %v", e.Stage())
	}
}

func TestEnvelopeRetriggerDuringReleaseHasNoDiscontinuity(t *testing.T) {
	e := NewEnvelope(48000)
	e.SetAttackTime(0.01)
	e.SetReleaseTime(0.05)

	e.Trigger()
	buf := make([]float64, 100)
	e.Generate(buf) // move partway into attack/sustain
	e.Release()
	e.Generate(buf[:10])

	levelBeforeRetrigger := e.Level()
	e.Trigger()
	levelAfterRetrigger := e.Level()

	if levelBeforeRetrigger != levelAfterRetrigger {
		t.Fatalf("trigger changed level discontinuously: %v -> %v", levelBeforeRetrigger, levelAfterRetrigger)
	}
	if e.Stage() != Attack {
		t.Fatalf("expected Attack stage after retrigger, got %v", e.Stage())
	}
}

func TestEnvelopeReleaseWhileIdleIsNoOp(t *testing.T) {
	e := NewEnvelope(48000)
	e.Release()
	if e.Stage() != Idle {
		t.Fatalf("release while idle should stay Idle, got %v", e.Stage())
	}
}

func TestEnvelopeGenerateBoundedDerivative(t *testing.T) {
	e := NewEnvelope(48000)
	e.SetAttackTime(0.1)
	e.Trigger()

	buf := make([]float64, 4800)
	e.Generate(buf)

	maxStep := 1.0 / (0.1 * 48000)
	prev := 0.0
	for i, v := range buf {
		if d := v - prev; d > maxStep+1e-9 {
			t.Fatalf("envelope derivative exceeded bound at sample %d: %v > %v", i, d, maxStep)
		}
		prev = v
	}
}

func TestEnvelopeIsActive(t *testing.T) {
	e := NewEnvelope(48000)
	if e.IsActive() {
		t.Fatal("fresh envelope should not be active")
	}
	e.Trigger()
	if !e.IsActive() {
		t.Fatal("envelope should be active after trigger")
	}
}
