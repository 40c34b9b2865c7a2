package control

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/mrdg/dubsiren/audio"
)

// Pin map (BCM), spec.md §4.6. Illustrative pin numbers avoiding the
// I²S-reserved pins.
const (
	pinEnc1CLK, pinEnc1DT = 17, 2
	pinEnc2CLK, pinEnc2DT = 27, 22
	pinEnc3CLK, pinEnc3DT = 23, 24
	pinEnc4CLK, pinEnc4DT = 20, 26
	pinEnc5CLK, pinEnc5DT = 14, 13

	pinTrigger  = 4
	pinPitchEnv = 10
	pinShift    = 15
	pinShutdown = 3
)

// Bank is which overlay of parameters the five encoders currently mutate.
type Bank int

const (
	BankA Bank = iota
	BankB
)

func (b Bank) String() string {
	if b == BankB {
		return "B"
	}
	return "A"
}

// encoderMapping describes what one encoder does in one bank: which
// engine field it mutates, by how much per tick, and within what bounds.
// Waveform encoders leave step, min and max unset: each tick moves the
// index by one and relies on the engine's own mod-4 wrap.
type encoderMapping struct {
	name        string
	step        float64
	min, max    float64
	isWaveform  bool
	applyFloat  func(e *audio.Engine, v float64)
	readFloat   func(e *audio.Engine) float64
	applyWaveIdx func(e *audio.Engine, idx int)
	readWaveIdx func(e *audio.Engine) int
}

// bankTable is spec.md §4.6's encoder/bank table, verbatim.
var bankTable = [5][2]encoderMapping{
	{
		{name: "volume", step: 0.02, min: 0, max: 1,
			applyFloat: (*audio.Engine).SetVolume, readFloat: (*audio.Engine).Volume},
		{name: "release", step: 0.1, min: 0.01, max: 5.0,
			applyFloat: (*audio.Engine).SetReleaseTime, readFloat: (*audio.Engine).ReleaseTime},
	},
	{
		{name: "filterFreq", step: 50, min: 20, max: 20000,
			applyFloat: (*audio.Engine).SetFilterCutoff, readFloat: (*audio.Engine).FilterCutoff},
		{name: "delayTime", step: 0.05, min: 0.001, max: 2.0,
			applyFloat: (*audio.Engine).SetDelayTime, readFloat: (*audio.Engine).DelayTime},
	},
	{
		{name: "filterRes", step: 0.02, min: 0, max: 0.95,
			applyFloat: (*audio.Engine).SetFilterResonance, readFloat: (*audio.Engine).FilterResonance},
		{name: "reverbSize", step: 0.02, min: 0, max: 1,
			applyFloat: (*audio.Engine).SetReverbSize, readFloat: (*audio.Engine).ReverbSize},
	},
	{
		{name: "delayFeedback", step: 0.02, min: 0, max: 0.95,
			applyFloat: (*audio.Engine).SetDelayFeedback, readFloat: (*audio.Engine).DelayFeedback},
		{name: "oscWaveform", isWaveform: true,
			applyWaveIdx: (*audio.Engine).SetOscWaveform, readWaveIdx: func(e *audio.Engine) int { return int(e.OscWaveform()) }},
	},
	{
		{name: "reverbMix", step: 0.02, min: 0, max: 1,
			applyFloat: (*audio.Engine).SetReverbMix, readFloat: (*audio.Engine).ReverbMix},
		{name: "lfoWaveform", isWaveform: true,
			applyWaveIdx: (*audio.Engine).SetLFOWaveform, readWaveIdx: func(e *audio.Engine) int { return int(e.LFOWaveform()) }},
	},
}

// Surface owns the physical control surface: five encoders multiplexed
// across two banks via a shift button, trigger/pitch-env/shutdown
// buttons, and the secret sample-playback gesture. Grounded on the
// teacher's Sink as the thing that owns and drives external hardware
// resources for the whole process lifetime.
type Surface struct {
	gpio     GPIO
	engine   *audio.Engine
	driver   *audio.Driver
	sample   audio.Source // nil if no sampler.Player was wired in
	onShutdown func()

	shiftHeld  atomic.Bool
	sampleMode atomic.Bool

	encoders [5]*RotaryEncoder
	switches [4]*MomentarySwitch

	secret *secretModeDetector
}

// NewSurface wires a control surface to an engine and driver. sample may
// be nil; the secret-mode gesture then still toggles sample mode, but the
// driver keeps pulling from the engine and the trigger button keeps playing
// the synth. A sampler.Player with no MP3 loaded produces silence instead.
func NewSurface(gpio GPIO, engine *audio.Engine, driver *audio.Driver, sample audio.Source, onShutdown func()) *Surface {
	s := &Surface{
		gpio:       gpio,
		engine:     engine,
		driver:     driver,
		sample:     sample,
		onShutdown: onShutdown,
		secret:     newSecretModeDetector(),
	}

	encPins := [5][2]int{
		{pinEnc1CLK, pinEnc1DT},
		{pinEnc2CLK, pinEnc2DT},
		{pinEnc3CLK, pinEnc3DT},
		{pinEnc4CLK, pinEnc4DT},
		{pinEnc5CLK, pinEnc5DT},
	}
	for i, pins := range encPins {
		idx := i
		s.encoders[idx] = NewRotaryEncoder(gpio, pins[0], pins[1], func(dir int) {
			s.onEncoderTick(idx, dir)
		})
	}

	s.switches[0] = NewMomentarySwitch(gpio, pinTrigger, s.onTriggerPress, s.onTriggerRelease)
	s.switches[1] = NewMomentarySwitch(gpio, pinPitchEnv, s.onPitchEnvPress, nil)
	s.switches[2] = NewMomentarySwitch(gpio, pinShift, s.onShiftPress, s.onShiftRelease)
	s.switches[3] = NewMomentarySwitch(gpio, pinShutdown, s.onShutdownPress, nil)

	return s
}

// Run starts every encoder and switch polling goroutine (T_ctrl_i) and
// returns at once; Stop joins them.
func (s *Surface) Run() {
	for _, e := range s.encoders {
		go e.Run()
	}
	for _, sw := range s.switches {
		go sw.Run()
	}
}

// Stop joins every control thread, per spec.md §5 "all threads joined
// before GPIO/sink resources are released".
func (s *Surface) Stop() {
	for _, e := range s.encoders {
		e.Stop()
	}
	for _, sw := range s.switches {
		sw.Stop()
	}
}

func (s *Surface) Bank() Bank {
	if s.shiftHeld.Load() {
		return BankB
	}
	return BankA
}

func (s *Surface) onEncoderTick(idx, dir int) {
	bank := s.Bank()
	m := bankTable[idx][bank]

	if m.isWaveform {
		next := m.readWaveIdx(s.engine) + dir
		m.applyWaveIdx(s.engine, next)
		log.Printf("[Bank %s] %s: %d", bank, m.name, m.readWaveIdx(s.engine))
		return
	}

	v := m.readFloat(s.engine) + m.step*float64(dir)
	if v < m.min {
		v = m.min
	} else if v > m.max {
		v = m.max
	}
	m.applyFloat(s.engine, v)
	log.Printf("[Bank %s] %s: %v", bank, m.name, v)
}

func (s *Surface) onTriggerPress() {
	if s.sampleMode.Load() && s.sample != nil {
		if p, ok := s.sample.(interface{ Play() }); ok {
			p.Play()
		}
		return
	}
	s.engine.Trigger()
}

func (s *Surface) onTriggerRelease() {
	if s.sampleMode.Load() && s.sample != nil {
		return
	}
	s.engine.Release()
}

func (s *Surface) onPitchEnvPress() {
	if s.secret.Press(time.Now()) {
		active := s.secret.Active()
		s.sampleMode.Store(active)
		if s.driver != nil {
			if active && s.sample != nil {
				s.driver.SetSource(s.sample)
			} else {
				s.driver.SetSource(s.engine)
			}
		}
		log.Printf("secret mode: %v", active)
		return
	}
	mode := s.engine.CyclePitchEnvelope()
	log.Printf("pitch env: %s", mode)
}

func (s *Surface) onShiftPress() {
	s.shiftHeld.Store(true)
}

func (s *Surface) onShiftRelease() {
	s.shiftHeld.Store(false)
}

// onShutdownPress runs the teardown sequence on its own goroutine: it is
// invoked synchronously from the shutdown switch's own polling loop, and
// Stop joins that same loop, so stopping it inline here would deadlock the
// switch waiting on itself.
func (s *Surface) onShutdownPress() {
	go func() {
		log.Printf("shutdown requested")
		s.Stop()
		if err := s.gpio.Close(); err != nil {
			log.Printf("gpio close: %v", err)
		}
		if s.onShutdown != nil {
			s.onShutdown()
		}
	}()
}
