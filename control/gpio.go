// Package control implements the physical control surface: rotary
// encoders and momentary switches polling GPIO pin levels, mapped onto
// engine parameter mutations through a bank/shift state machine.
package control

// Level is a GPIO pin level.
type Level int

const (
	Low Level = iota
	High
)

// GPIO is the narrow contract control primitives poll against. spec.md §6
// specifies it as non-blocking, idempotent, and BCM-numbered; pull-ups are
// assumed configured once at init (or by the platform) so callers never
// see a floating pin. No repo in the retrieved corpus imports a GPIO
// library, so this stays a plain interface with a simulated implementation
// rather than binding to any one board's sysfs/periph.io idiom.
type GPIO interface {
	Read(pin int) Level
	Close() error
}

// simulatedGPIO backs every pin with High (idle) unless a test drives it
// low, letting the control surface run headless per spec.md §7 "control
// missing -> controls disabled, engine still runs with defaults".
type simulatedGPIO struct {
	levels map[int]Level
}

// NewSimulatedGPIO returns a GPIO where every pin reads High until Set is
// called, matching idle-HIGH encoders and switches.
func NewSimulatedGPIO() *simulatedGPIO {
	return &simulatedGPIO{levels: make(map[int]Level)}
}

func (g *simulatedGPIO) Read(pin int) Level {
	if lvl, ok := g.levels[pin]; ok {
		return lvl
	}
	return High
}

// Set drives a pin to a given level, used by tests to simulate physical
// activity on a pin.
func (g *simulatedGPIO) Set(pin int, lvl Level) {
	g.levels[pin] = lvl
}

func (g *simulatedGPIO) Close() error { return nil }

// Reserved I²S pins (BCM) that no control primitive may bind to, per
// spec.md §6.
const (
	ReservedPinI2SBCLK = 18
	ReservedPinI2SLRCK = 19
	ReservedPinI2SDIN  = 21
)
