package dsp

import "math"

const (
	maxDelaySeconds = 2.0
	minDelaySeconds = 0.001
	maxDelayFeedback = 0.95
)

// DelayLine is a tape-style delay: a circular buffer read at a fractionally
// interpolated position, with a slow LFO wobble on the read position and a
// tanh soft-saturation stage in the feedback path for analogue character.
// Writes are always clamped to [-1, 1] so a runaway feedback setting can
// never grow the buffer without bound.
type DelayLine struct {
	sampleRate float64
	buf        []float64
	writePos   int

	delayTarget  float64
	delayCurrent float64 // smoothed, in seconds
	smoothCoeff  float64

	feedback float64
	dryWet   float64

	wobble *LFO
}

func NewDelayLine(sampleRate float64) *DelayLine {
	size := int(math.Ceil(maxDelaySeconds * sampleRate))
	d := &DelayLine{
		sampleRate:   sampleRate,
		buf:          make([]float64, size),
		delayTarget:  0.25,
		delayCurrent: 0.25,
		wobble:       NewLFO(sampleRate),
	}
	// time constant for zipper-free sweeps, ~15 ms
	d.smoothCoeff = 1 - math.Exp(-1/(0.015*sampleRate))
	d.wobble.SetFrequency(0.35)
	d.wobble.SetWaveform(Sine)
	d.wobble.SetDepth(0.3)
	return d
}

func (d *DelayLine) SetDelayTime(seconds float64) {
	if seconds < minDelaySeconds {
		seconds = minDelaySeconds
	} else if seconds > maxDelaySeconds {
		seconds = maxDelaySeconds
	}
	d.delayTarget = seconds
}

func (d *DelayLine) SetFeedback(g float64) {
	if g < 0 {
		g = 0
	} else if g > maxDelayFeedback {
		g = maxDelayFeedback
	}
	d.feedback = g
}

func (d *DelayLine) SetDryWet(m float64) {
	if m < 0 {
		m = 0
	} else if m > 1 {
		m = 1
	}
	d.dryWet = m
}

// Process runs one sample through the delay and returns the mixed output.
func (d *DelayLine) Process(in float64) float64 {
	d.delayCurrent += d.smoothCoeff * (d.delayTarget - d.delayCurrent)

	wobbleSamples := d.wobble.Tick()
	delaySamples := d.delayCurrent*d.sampleRate + wobbleSamples

	read := d.readInterpolated(delaySamples)
	sat := math.Tanh(read * d.feedback)
	write := in + sat
	if write > 1 {
		write = 1
	} else if write < -1 {
		write = -1
	}
	d.buf[d.writePos] = write

	d.writePos++
	if d.writePos >= len(d.buf) {
		d.writePos = 0
	}

	return in*(1-d.dryWet) + read*d.dryWet
}

func (d *DelayLine) readInterpolated(delaySamples float64) float64 {
	n := len(d.buf)
	pos := float64(d.writePos) - delaySamples
	for pos < 0 {
		pos += float64(n)
	}
	i0 := int(pos)
	frac := pos - float64(i0)
	i1 := (i0 + 1) % n
	i0 %= n
	return d.buf[i0]*(1-frac) + d.buf[i1]*frac
}

// Reset zeroes the buffer and rewinds the write position. NewDelayLine
// already starts with a zeroed buffer; the engine does not call Reset.
func (d *DelayLine) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.writePos = 0
}
