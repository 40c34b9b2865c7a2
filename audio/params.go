package audio

import (
	"math"
	"sync/atomic"
)

// Param is a lock-free, one-writer-many-reader carrier for a single engine
// parameter. Control threads call Set; the audio thread calls Load. This
// generalizes the teacher's Props/atomic.Value registration
// (audio/props.go) with a compile-time-checked type instead of the
// interface{} boxing every Props.Get/Set call site pays for.
type Param[T any] struct {
	v atomic.Value
}

// NewParam constructs a carrier pre-loaded with init, matching the
// lifecycle rule that all state exists before the audio thread ever reads
// it.
func NewParam[T any](init T) *Param[T] {
	p := &Param[T]{}
	p.v.Store(boxed[T]{val: init})
	return p
}

// boxed lets Param[T] store any T, including interface types and structs
// containing interfaces, in an atomic.Value without requiring every stored
// type to be identical across calls (atomic.Value normally panics if you
// ever store two different concrete types).
type boxed[T any] struct {
	val T
}

func (p *Param[T]) Load() T {
	return p.v.Load().(boxed[T]).val
}

func (p *Param[T]) Store(v T) {
	p.v.Store(boxed[T]{val: v})
}

// clampFloat64 clamps a float parameter write to [min, max], the shape
// spec.md §7 requires for every numeric parameter: silent clamp, never an
// error.
func clampFloat64(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// smoother is a one-pole ramp advanced once per step from the audio thread
// only (once per sample for volume and filter cutoff, once per block for
// base frequency), used for parameters where a sudden jump causes zipper
// noise. Delay time is smoothed inside dsp.DelayLine instead. target is the
// lock-free crossing surface: control threads call SetTarget, the audio
// thread calls getNext, matching spec.md §4.3's "lock-free atomic on
// machine-word types" requirement the same way Param[T] does. current and
// coefficient are otherwise touched only from the audio thread; the one
// exception is SnapToTarget, called from Engine.Trigger under triggerMu,
// mirroring the direct-write treatment Trigger already gives oscillator
// phase and pitch-envelope state.
type smoother struct {
	target      atomic.Uint64 // float64 bits, via math.Float64bits/frombits
	current     float64
	coefficient float64
}

// newSmoother builds a smoother with a one-pole time constant tau (seconds)
// for a smoother stepped sampleRate times per second.
func newSmoother(initial, tau, sampleRate float64) *smoother {
	s := &smoother{current: initial}
	s.target.Store(math.Float64bits(initial))
	s.setTimeConstant(tau, sampleRate)
	return s
}

func (s *smoother) setTimeConstant(tau, sampleRate float64) {
	if tau <= 0 {
		s.coefficient = 1
		return
	}
	// standard one-pole coefficient for a tau-second exponential approach
	s.coefficient = 1 - math.Exp(-1/(tau*sampleRate))
}

// SetTarget is safe to call from a control thread; it stores through an
// atomic word, so there is no data race with the audio thread's getNext.
func (s *smoother) SetTarget(v float64) {
	s.target.Store(math.Float64bits(v))
}

// getNext advances current toward target by one step and returns it. Once
// within 1e-9 of target it lands on target exactly, so a volume of 0 ends
// in bit-exact silence. Audio thread only.
func (s *smoother) getNext() float64 {
	target := math.Float64frombits(s.target.Load())
	s.current += s.coefficient * (target - s.current)
	if math.Abs(target-s.current) < 1e-9 {
		s.current = target
	}
	return s.current
}

// SnapToTarget jumps current straight to the latest target, skipping the
// ramp. Called from Engine.Trigger alongside the direct osc.ResetPhase()/
// pitchEnvElapsed reset already done there, under triggerMu, so a
// retrigger's frequency is correct from the very first sample instead of
// ramping in from whatever was previously smoothed.
func (s *smoother) SnapToTarget() {
	s.current = math.Float64frombits(s.target.Load())
}

func (s *smoother) Current() float64 {
	return s.current
}
