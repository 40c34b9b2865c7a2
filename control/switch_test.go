package control

import (
	"testing"
	"time"
)

func TestMomentarySwitchPressAndRelease(t *testing.T) {
	gpio := NewSimulatedGPIO()
	var presses, releases int
	sw := NewMomentarySwitch(gpio, 4, func() { presses++ }, func() { releases++ })
	go sw.Run()
	defer sw.Stop()

	gpio.Set(4, Low)
	time.Sleep(20 * time.Millisecond)
	if presses != 1 {
		t.Fatalf("expected 1 press after debounce, got %d", presses)
	}

	// hold long enough to clear the minimum press duration before releasing.
	time.Sleep(40 * time.Millisecond)
	gpio.Set(4, High)
	time.Sleep(20 * time.Millisecond)
	if releases != 1 {
		t.Fatalf("expected 1 release, got %d", releases)
	}
}

func TestMomentarySwitchRejectsShortBounce(t *testing.T) {
	gpio := NewSimulatedGPIO()
	var presses, releases int
	sw := NewMomentarySwitch(gpio, 4, func() { presses++ }, func() { releases++ })
	go sw.Run()
	defer sw.Stop()

	gpio.Set(4, Low)
	time.Sleep(15 * time.Millisecond)
	// release almost immediately: shorter than the 30ms minimum press
	// duration, so no release event should fire.
	gpio.Set(4, High)
	time.Sleep(15 * time.Millisecond)

	if presses != 1 {
		t.Fatalf("expected the debounced press to still register, got %d", presses)
	}
	if releases != 0 {
		t.Fatalf("expected the short bounce to be rejected, got %d releases", releases)
	}
}
