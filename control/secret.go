package control

import "time"

const (
	secretModePressCount = 5
	secretModeWindow     = 2 * time.Second
)

// secretModeDetector counts presses of a designated button within a
// rolling window and toggles on the Nth press inside the window, per
// spec.md §4.6 "N presses of a designated button within T seconds". Sized
// like the teacher's small single-purpose state structs (dsp.Envelope,
// dsp.LowPassFilter): a handful of fields advanced by one call per event.
type secretModeDetector struct {
	presses   []time.Time
	active    bool
}

func newSecretModeDetector() *secretModeDetector {
	return &secretModeDetector{}
}

// Press records a press at t and reports whether the gesture just fired.
// The gesture is idempotent within a single trigger: it fires once per
// completed run of secretModePressCount presses, then resets its window so
// the same gesture toggles the mode back off later.
func (d *secretModeDetector) Press(t time.Time) bool {
	cutoff := t.Add(-secretModeWindow)
	kept := d.presses[:0]
	for _, p := range d.presses {
		if p.After(cutoff) {
			kept = append(kept, p)
		}
	}
	d.presses = append(kept, t)

	if len(d.presses) >= secretModePressCount {
		d.presses = d.presses[:0]
		d.active = !d.active
		return true
	}
	return false
}

// Active reports the last-toggled state, safe to leave unused per
// spec.md §4.6.
func (d *secretModeDetector) Active() bool {
	return d.active
}
