package audio

import (
	"math"
	"testing"

	"github.com/mrdg/dubsiren/dsp"
)

func TestEngineSilentStartProducesZero(t *testing.T) {
	const sr, n = 48000.0, 256
	e := NewEngine(sr, n)

	out := make([]float64, 2*n)
	for block := 0; block < 10; block++ {
		e.Process(out, n)
		for i, v := range out {
			if v != 0 {
				t.Fatalf("expected silence before any trigger, got non-zero sample %v at block %d index %d", v, block, i)
			}
		}
	}
}

func TestEngineBasicBeep(t *testing.T) {
	const sr = 48000.0
	const n = 256
	e := NewEngine(sr, n)
	e.SetVolume(0.5)
	e.SetFrequency(440)
	e.SetAttackTime(0.01)
	e.SetReleaseTime(0.05)
	e.SetDelayFeedback(0)
	e.SetReverbMix(0)
	e.SetFilterCutoff(20000)
	e.SetFilterResonance(0)

	e.Trigger()

	activeSamples := int(0.1 * sr)
	rms := processRMS(e, activeSamples, n)
	if rms < 0.2 || rms > 0.5 {
		t.Errorf("expected active RMS in [0.2, 0.5], got %v", rms)
	}

	e.Release()
	// run through the 0.05s release ramp, then measure the tail starting
	// 0.1s after release, before the 0.3s delay echo of the note returns.
	releaseSamples := int(0.1 * sr)
	processRMS(e, releaseSamples, n)
	tailRMS := processRMS(e, int(0.05*sr), n)
	if tailRMS >= 1e-3 {
		t.Errorf("expected RMS < 1e-3 from 0.1s after release, got %v", tailRMS)
	}
}

// processRMS runs the engine for `total` frames in blocks of `blockSize`
// and returns the RMS over the whole window, using only the left channel
// since left and right are identical mono duplicates.
func processRMS(e *Engine, total, blockSize int) float64 {
	out := make([]float64, 2*blockSize)
	var sumSquares float64
	var count int
	for done := 0; done < total; done += blockSize {
		n := blockSize
		if total-done < n {
			n = total - done
		}
		e.Process(out, n)
		for i := 0; i < n; i++ {
			v := out[2*i]
			sumSquares += v * v
			count++
		}
	}
	return math.Sqrt(sumSquares / float64(count))
}

func TestEngineVolumeZeroIsExactSilence(t *testing.T) {
	const sr, n = 48000.0, 256
	e := NewEngine(sr, n)
	e.SetVolume(0)
	e.SetFrequency(440)
	e.Trigger()

	out := make([]float64, 2*n)
	for block := 0; block < 20; block++ {
		e.Process(out, n)
	}
	// Let the volume smoother fully settle to 0 before asserting exactness.
	for block := 0; block < 2000; block++ {
		e.Process(out, n)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected bit-exact zero at volume=0, got %v at index %d", v, i)
		}
	}
}

func TestEngineOutputAlwaysBounded(t *testing.T) {
	const sr, n = 48000.0, 256
	e := NewEngine(sr, n)
	e.SetVolume(1.0)
	e.SetFrequency(220)
	e.SetDelayFeedback(0.95)
	e.SetReverbSize(1.0)
	e.SetReverbMix(1.0)
	e.SetFilterResonance(0.95)
	e.Trigger()

	out := make([]float64, 2*n)
	for block := 0; block < 500; block++ {
		e.Process(out, n)
		for _, v := range out {
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1.0000001 {
				t.Fatalf("engine output out of bounds: %v", v)
			}
		}
	}
}

func TestPitchEnvelopeCycleReturnsToNone(t *testing.T) {
	e := NewEngine(48000, 256)
	start := e.PitchEnvelopeMode()
	if start != PitchEnvNone {
		t.Fatalf("expected default mode None, got %v", start)
	}
	m1 := e.CyclePitchEnvelope()
	m2 := e.CyclePitchEnvelope()
	m3 := e.CyclePitchEnvelope()
	if m1 != PitchEnvUp || m2 != PitchEnvDown || m3 != PitchEnvNone {
		t.Fatalf("expected Up, Down, None; got %v, %v, %v", m1, m2, m3)
	}
}

func TestPitchEnvelopeSweep(t *testing.T) {
	const sr = 48000.0
	e := NewEngine(sr, 1)
	e.SetPitchEnvelopeMode(PitchEnvUp)
	e.SetFrequency(200)
	e.SetAttackTime(0.1)
	e.Trigger()

	out := make([]float64, 2)
	e.Process(out, 1) // single sample at t=0

	if got := e.CurrentFrequency(); math.Abs(got-100) > 1 {
		t.Errorf("expected ~100Hz at t=0, got %v", got)
	}

	attackSamples := int(0.1 * sr)
	for i := 1; i < attackSamples; i++ {
		e.Process(out, 1)
	}
	if got := e.CurrentFrequency(); math.Abs(got-200) > 1 {
		t.Errorf("expected ~200Hz at t=0.1s, got %v", got)
	}
}

func TestSetOscWaveformWrapsModFour(t *testing.T) {
	e := NewEngine(48000, 256)
	e.SetOscWaveform(4)
	if e.OscWaveform() != dsp.Sine {
		t.Errorf("expected wraparound to Sine, got %v", e.OscWaveform())
	}
	e.SetOscWaveform(-1)
	if e.OscWaveform() != dsp.Triangle {
		t.Errorf("expected wraparound to Triangle, got %v", e.OscWaveform())
	}
}

func TestClampingReadsBackBoundaryValue(t *testing.T) {
	e := NewEngine(48000, 256)
	e.SetVolume(5)
	if v := e.volume.Load(); v != maxVolume {
		t.Errorf("expected clamp to %v, got %v", maxVolume, v)
	}
	e.SetFilterResonance(-5)
	if v := e.filterRes.Load(); v != minFilterRes {
		t.Errorf("expected clamp to %v, got %v", minFilterRes, v)
	}
}

func TestReleaseWhileIdleIsNoOp(t *testing.T) {
	e := NewEngine(48000, 256)
	e.Release()
	if e.IsActive() {
		t.Fatal("release while idle should not activate the engine")
	}
}
