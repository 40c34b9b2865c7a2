package control

import "testing"

// TestPinMapAvoidsI2SReservedPins checks the claim documented alongside
// the pin map in surface.go: none of the control surface's pins collide
// with the I²S pins reserved in gpio.go, per spec.md §6.
func TestPinMapAvoidsI2SReservedPins(t *testing.T) {
	reserved := map[int]bool{
		ReservedPinI2SBCLK: true,
		ReservedPinI2SLRCK: true,
		ReservedPinI2SDIN:  true,
	}
	pins := map[string]int{
		"enc1CLK": pinEnc1CLK, "enc1DT": pinEnc1DT,
		"enc2CLK": pinEnc2CLK, "enc2DT": pinEnc2DT,
		"enc3CLK": pinEnc3CLK, "enc3DT": pinEnc3DT,
		"enc4CLK": pinEnc4CLK, "enc4DT": pinEnc4DT,
		"enc5CLK": pinEnc5CLK, "enc5DT": pinEnc5DT,
		"trigger":  pinTrigger,
		"pitchEnv": pinPitchEnv,
		"shift":    pinShift,
		"shutdown": pinShutdown,
	}
	for name, pin := range pins {
		if reserved[pin] {
			t.Errorf("pin map assigns %s to reserved I2S pin %d", name, pin)
		}
	}
}
