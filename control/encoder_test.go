package control

import (
	"testing"
	"time"
)

func TestRotaryEncoderTicksOnQuadratureEdge(t *testing.T) {
	gpio := NewSimulatedGPIO() // CLK, DT both idle High
	var dirs []int
	enc := NewRotaryEncoder(gpio, 17, 2, func(dir int) { dirs = append(dirs, dir) })
	go enc.Run()
	defer enc.Stop()

	// DT low while CLK rises -> DT != CLK -> +1
	gpio.Set(17, Low)
	time.Sleep(5 * time.Millisecond)
	gpio.Set(2, Low)
	gpio.Set(17, High)
	time.Sleep(5 * time.Millisecond)

	// DT high while CLK rises -> DT == CLK -> -1
	gpio.Set(17, Low)
	time.Sleep(5 * time.Millisecond)
	gpio.Set(2, High)
	gpio.Set(17, High)
	time.Sleep(5 * time.Millisecond)

	if len(dirs) != 2 {
		t.Fatalf("expected 2 ticks, got %d: %v", len(dirs), dirs)
	}
	if dirs[0] != 1 {
		t.Errorf("expected first tick +1, got %d", dirs[0])
	}
	if dirs[1] != -1 {
		t.Errorf("expected second tick -1, got %d", dirs[1])
	}
}

func TestRotaryEncoderIgnoresFallingEdge(t *testing.T) {
	gpio := NewSimulatedGPIO()
	var dirs []int
	enc := NewRotaryEncoder(gpio, 17, 2, func(dir int) { dirs = append(dirs, dir) })
	go enc.Run()
	defer enc.Stop()

	gpio.Set(17, Low)
	time.Sleep(5 * time.Millisecond)

	if len(dirs) != 0 {
		t.Fatalf("expected no tick on a falling edge alone, got %v", dirs)
	}
}
