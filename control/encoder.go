package control

import (
	"sync"
	"time"
)

const encoderPollInterval = time.Millisecond

// RotaryEncoder polls a CLK/DT pin pair and emits +1/-1 ticks on
// quadrature edges, per spec.md §4.5: on a CLK edge, if DT != CLK the
// rotation is +1, else -1. It owns its own polling goroutine, grounded on
// the sink driver's owned-goroutine-with-stop-channel shape (audio/driver.go),
// generalized here since portaudio has no GPIO-polling concept of its own.
type RotaryEncoder struct {
	gpio   GPIO
	clk    int
	dt     int
	onTick func(dir int)

	lastCLK Level

	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewRotaryEncoder constructs an encoder bound to clk/dt pins. onTick is
// invoked from the encoder's own polling goroutine, never concurrently
// with itself.
func NewRotaryEncoder(gpio GPIO, clk, dt int, onTick func(dir int)) *RotaryEncoder {
	return &RotaryEncoder{
		gpio:    gpio,
		clk:     clk,
		dt:      dt,
		onTick:  onTick,
		lastCLK: gpio.Read(clk),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run polls at ~1ms until Stop is called. State is re-derived from the
// current pin levels each iteration, so missed edges never desync the
// encoder (spec.md §4.5's "safe against missed events").
func (e *RotaryEncoder) Run() {
	defer close(e.stopped)
	ticker := time.NewTicker(encoderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.poll()
		}
	}
}

func (e *RotaryEncoder) poll() {
	clk := e.gpio.Read(e.clk)
	if clk == e.lastCLK {
		return
	}
	e.lastCLK = clk
	if clk != High {
		// only trigger on the rising edge of CLK, halving the tick rate
		// so a full detent produces exactly one tick.
		return
	}
	dt := e.gpio.Read(e.dt)
	if dt != clk {
		e.onTick(1)
	} else {
		e.onTick(-1)
	}
}

func (e *RotaryEncoder) Stop() {
	e.once.Do(func() { close(e.stop) })
	<-e.stopped
}
