// Package audio implements the real-time DSP graph, the lock-free
// parameter plane that feeds it, and the sink driver that ships its output
// to an external audio device.
package audio

import (
	"math"
	"sync"

	"github.com/mrdg/dubsiren/dsp"
)

// PitchEnvMode selects whether triggering a note also sweeps its pitch
// during Attack.
type PitchEnvMode int

const (
	PitchEnvNone PitchEnvMode = iota
	PitchEnvUp
	PitchEnvDown
)

// Cycle advances None -> Up -> Down -> None.
func (m PitchEnvMode) Cycle() PitchEnvMode {
	return (m + 1) % 3
}

func (m PitchEnvMode) String() string {
	switch m {
	case PitchEnvUp:
		return "up"
	case PitchEnvDown:
		return "down"
	default:
		return "none"
	}
}

// Parameter ranges from spec.md §3/§4.6.
const (
	minVolume, maxVolume               = 0.0, 1.0
	minFilterFreq, maxFilterFreq       = 20.0, 20000.0
	minFilterRes, maxFilterRes         = 0.0, 0.95
	minDelayFeedback, maxDelayFeedback = 0.0, 0.95
	minReverbMix, maxReverbMix         = 0.0, 1.0
	minRelease, maxRelease             = 0.01, 5.0
	minDelayTime, maxDelayTime         = 0.001, 2.0
	minReverbSize, maxReverbSize       = 0.0, 1.0
	minAttack, maxAttack               = 0.0, 5.0
	minFrequency                       = 20.0

	modulatedCutoffMin, modulatedCutoffMax = 100.0, 8000.0

	gateThreshold = 1e-3
)

// EngineStats is a snapshot of engine state for diagnostics; it is never
// consumed by the audio path itself.
type EngineStats struct {
	EnvelopeStage dsp.EnvelopeStage
	EnvelopeLevel float64
	PitchEnvMode  PitchEnvMode
	PeakSample    float64
}

// Engine owns the full DSP graph (oscillator, LFO, envelope, filter, delay,
// reverb, DC blocker) and the atomic parameter carriers that a control
// thread writes and the audio thread reads. All DSP state is allocated at
// construction time; Process never allocates, locks a blocking mutex, or
// performs a syscall, matching spec.md §5's T_audio constraints.
type Engine struct {
	sampleRate float64
	blockSize  int

	osc       *dsp.Oscillator
	lfo       *dsp.LFO
	env       *dsp.Envelope
	filter    *dsp.LowPassFilter
	delay     *dsp.DelayLine
	reverb    *dsp.ReverbEffect
	dcBlocker *dsp.DCBlocker

	// block-local scratch buffers, sized once at construction.
	oscBuf      []float64
	lfoBuf      []float64
	envBuf      []float64

	// parameter plane: control-thread writers, audio-thread readers.
	frequency      *Param[float64]
	volume         *Param[float64]
	filterFreq     *Param[float64]
	filterRes      *Param[float64]
	delayFeedback  *Param[float64]
	delayTime      *Param[float64]
	reverbMix      *Param[float64]
	reverbSize     *Param[float64]
	attackTime     *Param[float64]
	releaseTime    *Param[float64]
	oscWaveform    *Param[int]
	lfoWaveform    *Param[int]
	pitchEnvMode   *Param[PitchEnvMode]

	// audio-thread-owned smoothers for zipper-prone parameters.
	freqSmoother   *smoother
	volSmoother    *smoother
	cutoffSmoother *smoother

	// audio-thread-only pitch envelope tracking.
	pitchEnvElapsed int

	// trigger/release are serialized against each other only; the audio
	// loop never takes this lock.
	triggerMu sync.Mutex

	peak float64

	// Props exposes the same parameters by string key for the interactive
	// diagnostic console (SPEC_FULL.md §6), reusing the teacher's
	// registration idiom (audio/props.go) alongside the typed Param[T]
	// fields the engine and control surface use internally.
	Props *Props
}

// NewEngine allocates the full DSP graph and parameter plane for a fixed
// sample rate and block size. No further allocation happens after this
// call.
func NewEngine(sampleRate float64, blockSize int) *Engine {
	e := &Engine{
		sampleRate: sampleRate,
		blockSize:  blockSize,

		osc:       dsp.NewOscillator(sampleRate),
		lfo:       dsp.NewLFO(sampleRate),
		env:       dsp.NewEnvelope(sampleRate),
		filter:    dsp.NewLowPassFilter(sampleRate),
		delay:     dsp.NewDelayLine(sampleRate),
		reverb:    dsp.NewReverbEffect(sampleRate),
		dcBlocker: dsp.NewDCBlocker(),

		oscBuf: make([]float64, blockSize),
		lfoBuf: make([]float64, blockSize),
		envBuf: make([]float64, blockSize),

		frequency:     NewParam(440.0),
		volume:        NewParam(0.7),
		filterFreq:    NewParam(2000.0),
		filterRes:     NewParam(0.2),
		delayFeedback: NewParam(0.3),
		delayTime:     NewParam(0.3),
		reverbMix:     NewParam(0.25),
		reverbSize:    NewParam(0.5),
		attackTime:    NewParam(0.01),
		releaseTime:   NewParam(0.5),
		oscWaveform:   NewParam(int(dsp.Saw)),
		lfoWaveform:   NewParam(int(dsp.Triangle)),
		pitchEnvMode:  NewParam(PitchEnvNone),
	}

	// the frequency smoother is stepped once per block, not once per sample.
	e.freqSmoother = newSmoother(440.0, 0.02, sampleRate/float64(blockSize))
	e.volSmoother = newSmoother(0.7, 0.02, sampleRate)
	e.cutoffSmoother = newSmoother(2000.0, 0.02, sampleRate)

	e.lfo.SetFrequency(4.0)
	e.lfo.SetDepth(1.0)
	e.lfo.SetWaveform(dsp.Triangle)

	e.registerDiagnostics()
	return e
}

// registerDiagnostics mirrors every typed parameter into the string-keyed
// Props registry, following the teacher's Props.MustRegister idiom, so the
// interactive console (interactive.go) can get/set them by name.
func (e *Engine) registerDiagnostics() {
	e.Props = NewProps()
	reg := e.Props.MustRegister

	reg("frequency", setFloat64(minFrequency, 20000), e.frequency.Load())
	reg("volume", setFloat64(minVolume, maxVolume), e.volume.Load())
	reg("filter.freq", setFloat64(minFilterFreq, maxFilterFreq), e.filterFreq.Load())
	reg("filter.res", setFloat64(minFilterRes, maxFilterRes), e.filterRes.Load())
	reg("delay.feedback", setFloat64(minDelayFeedback, maxDelayFeedback), e.delayFeedback.Load())
	reg("delay.time", setFloat64(minDelayTime, maxDelayTime), e.delayTime.Load())
	reg("reverb.mix", setFloat64(minReverbMix, maxReverbMix), e.reverbMix.Load())
	reg("reverb.size", setFloat64(minReverbSize, maxReverbSize), e.reverbSize.Load())
	reg("env.attack", setFloat64(minAttack, maxAttack), e.attackTime.Load())
	reg("env.release", setFloat64(minRelease, maxRelease), e.releaseTime.Load())
	reg("osc.waveform", setInt, e.oscWaveform.Load())
	reg("lfo.waveform", setInt, e.lfoWaveform.Load())
}

// Set forwards a diagnostic-console write to both the string-keyed Props
// registry and the matching typed Param, so a value poked through the
// console is visible to Process on the very next block.
func (e *Engine) Set(key string, value interface{}) error {
	if err := e.Props.Set(key, value); err != nil {
		return err
	}
	v, _ := e.Props.Get(key)
	switch key {
	case "osc.waveform":
		e.SetOscWaveform(v.(int))
		return nil
	case "lfo.waveform":
		e.SetLFOWaveform(v.(int))
		return nil
	}
	f, _ := v.(float64)
	switch key {
	case "frequency":
		e.SetFrequency(f)
	case "volume":
		e.SetVolume(f)
	case "filter.freq":
		e.SetFilterCutoff(f)
	case "filter.res":
		e.SetFilterResonance(f)
	case "delay.feedback":
		e.SetDelayFeedback(f)
	case "delay.time":
		e.SetDelayTime(f)
	case "reverb.mix":
		e.SetReverbMix(f)
	case "reverb.size":
		e.SetReverbSize(f)
	case "env.attack":
		e.SetAttackTime(f)
	case "env.release":
		e.SetReleaseTime(f)
	}
	return nil
}

func (e *Engine) Get(key string) (interface{}, error) {
	return e.Props.Get(key)
}

// --- control-thread setters: silently clamp, never return an error, per
// spec.md §7 "parameter-invalid" policy. ---

func (e *Engine) SetFrequency(hz float64) {
	hz = clampFloat64(hz, minFrequency, 20000)
	e.frequency.Store(hz)
	e.freqSmoother.SetTarget(hz)
}

// --- control-thread getters: read back the last-written value of a
// parameter, used by control.Surface to compute the next tick's target
// without duplicating engine state. ---

func (e *Engine) Volume() float64          { return e.volume.Load() }
func (e *Engine) FilterCutoff() float64    { return e.filterFreq.Load() }
func (e *Engine) FilterResonance() float64 { return e.filterRes.Load() }
func (e *Engine) DelayFeedback() float64   { return e.delayFeedback.Load() }
func (e *Engine) DelayTime() float64       { return e.delayTime.Load() }
func (e *Engine) ReverbMix() float64       { return e.reverbMix.Load() }
func (e *Engine) ReverbSize() float64      { return e.reverbSize.Load() }
func (e *Engine) AttackTime() float64      { return e.attackTime.Load() }
func (e *Engine) ReleaseTime() float64     { return e.releaseTime.Load() }

func (e *Engine) SetVolume(v float64) {
	v = clampFloat64(v, minVolume, maxVolume)
	e.volume.Store(v)
	e.volSmoother.SetTarget(v)
}

func (e *Engine) SetFilterCutoff(hz float64) {
	hz = clampFloat64(hz, minFilterFreq, maxFilterFreq)
	e.filterFreq.Store(hz)
	e.cutoffSmoother.SetTarget(hz)
}

func (e *Engine) SetFilterResonance(q float64) {
	e.filterRes.Store(clampFloat64(q, minFilterRes, maxFilterRes))
}

func (e *Engine) SetDelayFeedback(g float64) {
	e.delayFeedback.Store(clampFloat64(g, minDelayFeedback, maxDelayFeedback))
}

func (e *Engine) SetDelayTime(t float64) {
	e.delayTime.Store(clampFloat64(t, minDelayTime, maxDelayTime))
}

func (e *Engine) SetReverbMix(m float64) {
	e.reverbMix.Store(clampFloat64(m, minReverbMix, maxReverbMix))
}

func (e *Engine) SetReverbSize(s float64) {
	e.reverbSize.Store(clampFloat64(s, minReverbSize, maxReverbSize))
}

func (e *Engine) SetAttackTime(seconds float64) {
	e.attackTime.Store(clampFloat64(seconds, minAttack, maxAttack))
}

func (e *Engine) SetReleaseTime(seconds float64) {
	e.releaseTime.Store(clampFloat64(seconds, minRelease, maxRelease))
}

// SetOscWaveform takes any int; an invalid index is folded mod 4 rather
// than rejected, per spec.md §4.2's failure semantics.
func (e *Engine) SetOscWaveform(idx int) {
	e.oscWaveform.Store(int(dsp.Waveform(idx).Norm()))
}

func (e *Engine) OscWaveform() dsp.Waveform {
	return dsp.Waveform(e.oscWaveform.Load()).Norm()
}

func (e *Engine) SetLFOWaveform(idx int) {
	e.lfoWaveform.Store(int(dsp.Waveform(idx).Norm()))
}

func (e *Engine) LFOWaveform() dsp.Waveform {
	return dsp.Waveform(e.lfoWaveform.Load()).Norm()
}

// SetPitchEnvelopeMode is exposed directly; CyclePitchEnvelope is the one
// the control surface's button handler actually calls.
func (e *Engine) SetPitchEnvelopeMode(m PitchEnvMode) {
	e.pitchEnvMode.Store(m)
}

func (e *Engine) PitchEnvelopeMode() PitchEnvMode {
	return e.pitchEnvMode.Load()
}

// CyclePitchEnvelope advances None -> Up -> Down -> None and returns the
// new mode, so the caller (control.Surface) can log it.
func (e *Engine) CyclePitchEnvelope() PitchEnvMode {
	next := e.pitchEnvMode.Load().Cycle()
	e.pitchEnvMode.Store(next)
	return next
}

// Trigger starts (or restarts) a note: jump the envelope to Attack from
// wherever it currently is, and reset the oscillator phase and pitch
// envelope ramp. Serialized against Release by triggerMu; the audio loop
// itself never takes this lock.
func (e *Engine) Trigger() {
	e.triggerMu.Lock()
	defer e.triggerMu.Unlock()
	e.env.Trigger()
	e.osc.ResetPhase()
	e.freqSmoother.SnapToTarget()
	e.pitchEnvElapsed = 0
}

// Release ends the current note. A release while already idle is a no-op,
// per spec.md §4.2.
func (e *Engine) Release() {
	e.triggerMu.Lock()
	defer e.triggerMu.Unlock()
	e.env.Release()
}

// IsActive reports whether the envelope is still producing sound.
func (e *Engine) IsActive() bool {
	return e.env.IsActive()
}

// CurrentFrequency returns the oscillator's instantaneous frequency,
// including any pitch-envelope offset applied during Attack. Diagnostic
// use only.
func (e *Engine) CurrentFrequency() float64 {
	return e.osc.Frequency()
}

// Stats returns a snapshot for diagnostics; safe to call from any thread.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		EnvelopeStage: e.env.Stage(),
		EnvelopeLevel: e.env.Level(),
		PitchEnvMode:  e.pitchEnvMode.Load(),
		PeakSample:    e.peak,
	}
}

// Process fills out (an interleaved stereo float64 buffer of 2*n samples)
// with n frames of synthesized audio, implementing the graph from
// spec.md §4.2: oscillator -> envelope gate -> resonant filter -> delay ->
// reverb -> DC blocker -> gain -> stereo interleave. It never allocates,
// never blocks, and never returns an error: bounds violations are clamped
// in place.
func (e *Engine) Process(out []float64, n int) {
	if n > e.blockSize {
		n = e.blockSize
	}
	osc, lfo, env := e.oscBuf[:n], e.lfoBuf[:n], e.envBuf[:n]

	// step 1: pull the smoothed base frequency target for this block.
	baseFreq := e.freqSmoother.getNext()
	e.freqSmoother.SetTarget(e.frequency.Load())

	e.osc.SetWaveform(dsp.Waveform(e.oscWaveform.Load()))
	e.lfo.SetWaveform(dsp.Waveform(e.lfoWaveform.Load()))

	e.filter.SetResonance(e.filterRes.Load())
	e.delay.SetFeedback(e.delayFeedback.Load())
	e.delay.SetDelayTime(e.delayTime.Load())
	// fixed dry/wet mix: full wet would leave the output silent until the
	// delay buffer fills, since there's no other dry path to the output.
	e.delay.SetDryWet(0.3)
	e.reverb.SetSize(e.reverbSize.Load())
	e.reverb.SetDryWet(e.reverbMix.Load())
	e.env.SetAttackTime(e.attackTime.Load())
	e.env.SetReleaseTime(e.releaseTime.Load())

	pitchMode := e.pitchEnvMode.Load()
	attackSamples := e.attackTime.Load() * e.sampleRate

	// step 2/3/4: fill the oscillator, LFO, and envelope blocks.
	for i := 0; i < n; i++ {
		freq := baseFreq
		if pitchMode != PitchEnvNone && e.env.Stage() == dsp.Attack {
			t := 1.0
			if attackSamples > 0 {
				t = float64(e.pitchEnvElapsed) / attackSamples
				if t > 1 {
					t = 1
				}
			}
			var semitones float64
			if pitchMode == PitchEnvUp {
				semitones = -(1 - t) * 12
			} else {
				semitones = (1 - t) * 12
			}
			freq = baseFreq * math.Pow(2, semitones/12)
			if freq < minFrequency {
				freq = minFrequency
			}
			e.pitchEnvElapsed++
		}
		e.osc.SetFrequency(freq)
		osc[i] = e.osc.GenerateSample()
	}
	e.lfo.Generate(lfo)
	e.env.Generate(env)

	var peak float64
	for i := 0; i < n; i++ {
		// step 5: modulate filter cutoff with the LFO and this block's
		// smoothed cutoff target, then filter.
		cutoffTarget := e.cutoffSmoother.getNext()
		modulated := cutoffTarget * math.Pow(2, lfo[i]*2)
		modulated = clampFloat64(modulated, modulatedCutoffMin, modulatedCutoffMax)
		e.filter.SetCutoff(modulated)
		filtered := e.filter.Process(osc[i])

		// step 6: gate. Below threshold, hard-zero to keep silence from
		// bleeding into the delay/reverb tail.
		if env[i] < gateThreshold {
			filtered = 0
		} else {
			filtered *= env[i]
		}

		// step 7-9: delay, reverb, DC blocker.
		delayed := e.delay.Process(filtered)
		reverbed := e.reverb.Process(delayed)
		dcBlocked := e.dcBlocker.Process(reverbed)

		// step 10: gain and stereo interleave.
		vol := e.volSmoother.getNext()
		sample := clampFloat64(dcBlocked*vol, -1, 1)
		out[2*i] = sample
		out[2*i+1] = sample

		if math.Abs(sample) > peak {
			peak = math.Abs(sample)
		}
	}
	e.cutoffSmoother.SetTarget(e.filterFreq.Load())
	e.volSmoother.SetTarget(e.volume.Load())
	e.peak = peak
}
