package sampler

import "testing"

// loadFixture injects a small stereo buffer directly, bypassing MP3
// decoding, so playback behavior can be tested without a real audio file.
func loadFixture(p *Player, frames int) {
	buf := make([]float64, 2*frames)
	for i := 0; i < frames; i++ {
		buf[2*i] = 1.0
		buf[2*i+1] = -1.0
	}
	p.samples.Store(buf)
	p.loaded.Store(true)
}

func TestProcessFillsSilenceWhenUnloaded(t *testing.T) {
	p := NewPlayer(48000)
	p.Play()
	out := make([]float64, 20)
	p.Process(out, 10)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence at index %d, got %v", i, v)
		}
	}
}

func TestProcessFillsSilenceWhenNotPlaying(t *testing.T) {
	p := NewPlayer(48000)
	loadFixture(p, 100)
	out := make([]float64, 20)
	p.Process(out, 10)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence before Play, got %v at %d", v, i)
		}
	}
}

func TestPlayCopiesSamplesWithGain(t *testing.T) {
	p := NewPlayer(48000)
	loadFixture(p, 100)
	p.SetGain(0.5)
	p.Play()

	out := make([]float64, 8)
	p.Process(out, 4)
	for i := 0; i < 4; i++ {
		if out[2*i] != 0.5 {
			t.Errorf("frame %d: expected left 0.5, got %v", i, out[2*i])
		}
		if out[2*i+1] != -0.5 {
			t.Errorf("frame %d: expected right -0.5, got %v", i, out[2*i+1])
		}
	}
}

func TestProcessAutoStopsAtEndOfBuffer(t *testing.T) {
	p := NewPlayer(48000)
	loadFixture(p, 5)
	p.Play()

	out := make([]float64, 20)
	p.Process(out, 10) // more frames than the buffer holds

	for i := 0; i < 5; i++ {
		if out[2*i] != 1.0 {
			t.Errorf("frame %d: expected 1.0 before end of buffer, got %v", i, out[2*i])
		}
	}
	for i := 5; i < 10; i++ {
		if out[2*i] != 0 || out[2*i+1] != 0 {
			t.Errorf("frame %d: expected silence past end of buffer, got %v/%v", i, out[2*i], out[2*i+1])
		}
	}
	if p.IsPlaying() {
		t.Fatal("expected player to auto-stop at end of buffer")
	}
}

func TestProcessLoopsWhenEnabled(t *testing.T) {
	p := NewPlayer(48000)
	loadFixture(p, 5)
	p.SetLoop(true)
	p.Play()

	out := make([]float64, 20)
	p.Process(out, 10)

	if !p.IsPlaying() {
		t.Fatal("expected player to still be playing after wrapping")
	}
	for i := 0; i < 10; i++ {
		if out[2*i] != 1.0 || out[2*i+1] != -1.0 {
			t.Errorf("frame %d: expected loop content, got %v/%v", i, out[2*i], out[2*i+1])
		}
	}
}

func TestStopSilencesSubsequentProcess(t *testing.T) {
	p := NewPlayer(48000)
	loadFixture(p, 100)
	p.Play()
	out := make([]float64, 4)
	p.Process(out, 2)
	p.Stop()
	p.Process(out, 2)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence after Stop, got %v at %d", v, i)
		}
	}
}
