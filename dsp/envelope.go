package dsp

// EnvelopeStage is the current phase of an AR (attack/release) envelope.
type EnvelopeStage int

const (
	Idle EnvelopeStage = iota
	Attack
	Sustain
	Release
)

// Envelope is a two-stage attack/release envelope generator. Level is
// continuous across every stage transition: Trigger and Release always jump
// from whatever level the envelope currently holds, never from 0 or 1, so
// re-triggering mid-release or releasing mid-attack never clicks.
type Envelope struct {
	sampleRate float64
	stage      EnvelopeStage
	level      float64

	attackTime  float64
	releaseTime float64

	attackRate  float64
	releaseRate float64
}

func NewEnvelope(sampleRate float64) *Envelope {
	return &Envelope{sampleRate: sampleRate, attackTime: 0.01, releaseTime: 0.1}
}

// SetAttackTime and SetReleaseTime take seconds. Non-positive values are
// treated as instantaneous (one-sample) transitions instead of dividing by
// zero.
func (e *Envelope) SetAttackTime(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	e.attackTime = seconds
}

func (e *Envelope) SetReleaseTime(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	e.releaseTime = seconds
}

func (e *Envelope) Stage() EnvelopeStage { return e.stage }
func (e *Envelope) Level() float64       { return e.level }

// IsActive reports whether the envelope is still producing meaningful
// output: anywhere but Idle, or Idle with residual level above epsilon.
func (e *Envelope) IsActive() bool {
	const eps = 1e-6
	return e.stage != Idle || e.level > eps
}

// Trigger jumps to Attack from the current level, whatever stage the
// envelope was previously in.
func (e *Envelope) Trigger() {
	e.stage = Attack
	e.attackRate = e.perSampleRate(e.attackTime)
}

// Release jumps to Release from the current level. A Release while already
// Idle is a no-op.
func (e *Envelope) Release() {
	if e.stage == Idle {
		return
	}
	e.stage = Release
	e.releaseRate = e.perSampleRate(e.releaseTime)
}

func (e *Envelope) perSampleRate(seconds float64) float64 {
	if seconds <= 0 {
		return 1
	}
	return 1.0 / (seconds * e.sampleRate)
}

// next advances the envelope by one sample and returns the new level.
func (e *Envelope) next() float64 {
	switch e.stage {
	case Idle:
		e.level = 0
	case Attack:
		e.level += e.attackRate
		if e.level >= 1 {
			e.level = 1
			e.stage = Sustain
		}
	case Sustain:
		e.level = 1
	case Release:
		e.level -= e.releaseRate
		if e.level <= 0 {
			e.level = 0
			e.stage = Idle
		}
	}
	return e.level
}

// Generate fills buf with N envelope samples, advancing the state machine
// once per sample.
func (e *Envelope) Generate(buf []float64) {
	for i := range buf {
		buf[i] = e.next()
	}
}
