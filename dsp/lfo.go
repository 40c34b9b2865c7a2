package dsp

// LFO generates a low-frequency modulation signal, typically 0-20 Hz. It
// reuses Oscillator's bandlimited generation and adds block-fill and depth
// scaling on top, following the teacher's per-block fill loop
// (osc.process(buf) in the original synth voice).
type LFO struct {
	osc   *Oscillator
	depth float64
}

func NewLFO(sampleRate float64) *LFO {
	return &LFO{osc: NewOscillator(sampleRate)}
}

func (l *LFO) SetFrequency(hz float64) { l.osc.SetFrequency(hz) }
func (l *LFO) SetWaveform(w Waveform)  { l.osc.SetWaveform(w) }

// SetDepth scales the LFO's [-1, 1] output. Depth 0 yields a zero block.
func (l *LFO) SetDepth(d float64) { l.depth = d }

func (l *LFO) Waveform() Waveform { return l.osc.Waveform() }

// Generate fills buf with N samples of modulation, each in [-depth, depth].
func (l *LFO) Generate(buf []float64) {
	if l.depth == 0 {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	for i := range buf {
		buf[i] = l.Tick()
	}
}

// Tick advances the LFO by a single sample and returns one scaled value,
// for callers (e.g. the delay's read-position wobble) that need per-sample
// modulation outside of a block-fill loop.
func (l *LFO) Tick() float64 {
	return l.osc.GenerateSample() * l.depth
}
