// Package sampler implements the optional MP3 sample-playback path that
// replaces synth output while the control surface's secret mode is
// active, per spec.md §4.7.
package sampler

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"

	"github.com/mrdg/dubsiren/audio"
)

const resampleQuality = 4

// Player decodes an MP3 once at Load time into an in-memory stereo float
// buffer at the engine's sample rate, then serves blocks from it exactly
// like audio.Engine.Process, implementing the audio.Source interface so
// the sink driver can pull frames from either interchangeably (spec.md §2,
// "G is a sibling of B"). Playhead and playing state are plain atomic
// scalars rather than a swapped struct pointer: Process runs on T_audio
// (audio/driver.go) and must not allocate, matching the discipline
// audio.Engine.Process already holds to.
type Player struct {
	sampleRate float64
	gain       float64

	samples *audio.Param[[]float64] // interleaved stereo, empty until Load
	pos     atomic.Int64
	playing atomic.Bool
	loaded  *audio.Param[bool]
	loop    *audio.Param[bool]
}

// NewPlayer constructs an unloaded player. Process fills silence until
// Load succeeds, per spec.md §6 "absence is non-fatal".
func NewPlayer(sampleRate float64) *Player {
	return &Player{
		sampleRate: sampleRate,
		gain:       1.0,
		samples:    audio.NewParam[[]float64](nil),
		loaded:     audio.NewParam(false),
		loop:       audio.NewParam(false),
	}
}

// Load reads path fully, decodes it as MP3, duplicates a mono stream to
// stereo (beep's mp3 decoder already yields [2]float64 stereo pairs
// regardless of source channel count), resamples to the player's sample
// rate if they differ, and stores the whole thing once, per spec.md §4.7.
// This is an init-time or diagnostic-console operation only; it never runs
// on the audio thread.
func (p *Player) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sampler: open %q: %w", path, err)
	}
	defer f.Close()

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		return fmt.Errorf("sampler: decode %q: %w", path, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != beep.SampleRate(p.sampleRate) {
		src = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(p.sampleRate), streamer)
	}

	var buf []float64
	chunk := make([][2]float64, 4096)
	for {
		n, ok := src.Stream(chunk)
		for i := 0; i < n; i++ {
			buf = append(buf, chunk[i][0], chunk[i][1])
		}
		if !ok {
			break
		}
	}

	p.samples.Store(buf)
	p.loaded.Store(true)
	return nil
}

// SetGain sets the playback gain applied when copying samples out.
func (p *Player) SetGain(g float64) {
	p.gain = g
}

// SetLoop controls whether Process wraps to the start at end-of-buffer
// instead of auto-stopping.
func (p *Player) SetLoop(loop bool) {
	p.loop.Store(loop)
}

// Play resets the playhead to the start and marks the player active,
// called from the control surface's trigger handler.
func (p *Player) Play() {
	p.pos.Store(0)
	p.playing.Store(true)
}

// Stop halts playback; Process will fill silence until Play is called
// again.
func (p *Player) Stop() {
	p.playing.Store(false)
}

// IsPlaying reports whether the player is currently emitting audio.
func (p *Player) IsPlaying() bool {
	return p.playing.Load()
}

// Process implements audio.Source: fill out (2*n interleaved stereo
// float64 samples) from the loaded buffer at the current playhead,
// applying gain, advancing the playhead, and auto-stopping (or looping) at
// end of buffer, per spec.md §4.7. Never allocates, never blocks.
func (p *Player) Process(out []float64, n int) {
	if !p.playing.Load() || !p.loaded.Load() {
		for i := range out[:2*n] {
			out[i] = 0
		}
		return
	}

	samples := p.samples.Load()
	frames := len(samples) / 2
	pos := int(p.pos.Load())
	loop := p.loop.Load()

	for i := 0; i < n; i++ {
		if pos >= frames {
			if loop {
				pos = 0
			} else {
				out[2*i] = 0
				out[2*i+1] = 0
				for j := i + 1; j < n; j++ {
					out[2*j] = 0
					out[2*j+1] = 0
				}
				p.pos.Store(int64(pos))
				p.playing.Store(false)
				return
			}
		}
		out[2*i] = samples[2*pos] * p.gain
		out[2*i+1] = samples[2*pos+1] * p.gain
		pos++
	}

	p.pos.Store(int64(pos))
}
