package dsp

import "math"

// Oscillator generates a single band-limited tone. Square, saw, and triangle
// waveforms apply a PolyBLEP (and, for triangle, an integrated BLAMP)
// correction at each phase discontinuity so aliasing stays below roughly
// -60 dB up to SR/4.
type Oscillator struct {
	sampleRate float64
	phase      float64
	freq       float64
	waveform   Waveform

	triState float64 // leaky-integrated triangle state
}

// NewOscillator constructs an oscillator for a fixed sample rate. All state
// is allocated up front; generateSample never allocates.
func NewOscillator(sampleRate float64) *Oscillator {
	return &Oscillator{sampleRate: sampleRate}
}

func (o *Oscillator) SetFrequency(hz float64) {
	if hz < 0 {
		hz = 0
	}
	o.freq = hz
}

func (o *Oscillator) SetWaveform(w Waveform) {
	w = w.Norm()
	if w == Triangle && o.waveform != Triangle {
		o.triState = triangleAt(o.phase)
	}
	o.waveform = w
}

func (o *Oscillator) Waveform() Waveform {
	return o.waveform
}

// Frequency returns the oscillator's current frequency in Hz, useful for
// diagnostics and tests; the audio path never reads it back.
func (o *Oscillator) Frequency() float64 {
	return o.freq
}

func (o *Oscillator) ResetPhase() {
	o.phase = 0
	o.triState = triangleAt(0)
}

// GenerateSample advances the oscillator by one sample and returns a value
// in [-1, 1].
func (o *Oscillator) GenerateSample() float64 {
	dt := o.freq / o.sampleRate

	var out float64
	switch o.waveform {
	case Sine:
		out = math.Sin(2 * math.Pi * o.phase)
	case Square:
		out = o.square(dt)
	case Saw:
		out = o.saw(dt)
	case Triangle:
		out = o.triangle(dt)
	default:
		out = math.Sin(2 * math.Pi * o.phase)
	}

	o.phase += dt
	if o.phase >= 1 {
		o.phase -= 1
	}
	return out
}

func (o *Oscillator) saw(dt float64) float64 {
	v := 2*o.phase - 1
	v -= polyBlep(o.phase, dt)
	return v
}

func (o *Oscillator) square(dt float64) float64 {
	var v float64
	if o.phase < 0.5 {
		v = 1
	} else {
		v = -1
	}
	v += polyBlep(o.phase, dt)
	v -= polyBlep(math.Mod(o.phase+0.5, 1), dt)
	return v
}

// triangle integrates a band-limited square wave with a leaky integrator so
// the running sum doesn't drift. The leak is scaled by dt, so it removes the
// same small fraction per period and the amplitude stays close to 1 at any
// frequency, LFO rates included.
func (o *Oscillator) triangle(dt float64) float64 {
	sq := o.square(dt)
	leak := 1 - 0.05*dt
	o.triState = leak*o.triState + 4*dt*sq
	return o.triState
}

// triangleAt is the ideal triangle value at phase p (-1 at p=0, +1 at
// p=0.5), used to seed the integrator so it starts centred on zero.
func triangleAt(p float64) float64 {
	if p < 0.5 {
		return 4*p - 1
	}
	return 3 - 4*p
}

// polyBlep returns the polynomial band-limited step correction for a
// discontinuity crossed at phase t, with the oscillator advancing dt per
// sample.
func polyBlep(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	default:
		return 0
	}
}
