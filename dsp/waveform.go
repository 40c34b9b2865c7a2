package dsp

// Waveform selects the shape generated by an Oscillator or LFO.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Saw
	Triangle
)

const numWaveforms = 4

// Norm folds an out-of-range waveform index into a valid one instead of
// rejecting it, matching the engine's "never throw from process" policy.
func (w Waveform) Norm() Waveform {
	w %= numWaveforms
	if w < 0 {
		w += numWaveforms
	}
	return w
}

func (w Waveform) String() string {
	switch w.Norm() {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Saw:
		return "saw"
	case Triangle:
		return "triangle"
	default:
		return "sine"
	}
}
