package dsp

import "testing"

func TestDCBlockerRemovesDC(t *testing.T) {
	b := NewDCBlocker()
	var last float64
	for i := 0; i < 48000; i++ {
		last = b.Process(1.0)
	}
	if last > 0.01 {
		t.Errorf("expected DC to settle near 0, got %v", last)
	}
}

func TestDCBlockerPassesAC(t *testing.T) {
	b := NewDCBlocker()
	osc := NewOscillator(48000)
	osc.SetWaveform(Sine)
	osc.SetFrequency(1000)

	var maxOut float64
	for i := 0; i < 4800; i++ {
		y := b.Process(osc.GenerateSample())
		if y > maxOut {
			maxOut = y
		}
	}
	if maxOut < 0.5 {
		t.Errorf("expected AC signal to pass mostly unattenuated, got peak %v", maxOut)
	}
}
