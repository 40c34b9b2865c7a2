package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mrdg/dubsiren/audio"
	"github.com/mrdg/dubsiren/control"
	"github.com/mrdg/dubsiren/sampler"
)

const defaultSamplePath = "assets/audio/custom.mp3"

func main() {
	var (
		sampleRate      = flag.Float64("sample-rate", 48000, "audio sample rate in Hz")
		bufferSize      = flag.Int("buffer-size", 256, "frames per audio block")
		device          = flag.String("device", "", "output device name (empty selects the platform default)")
		simulate        = flag.Bool("simulate", false, "run without a real audio device (headless testing)")
		interactiveFlag = flag.Bool("interactive", false, "start the diagnostic get/set console")
	)
	flag.Parse()

	engine := audio.NewEngine(*sampleRate, *bufferSize)

	var sink audio.AudioSink
	if *simulate {
		sink = audio.NewSimulatedSink()
	} else {
		sink = audio.NewPortAudioSink()
	}
	if err := sink.Open(*device, *sampleRate, 2, *bufferSize); err != nil {
		log.Printf("dubsiren: sink open: %v", err)
		os.Exit(1)
	}

	driver := audio.NewDriver(sink, *sampleRate, *bufferSize, engine)
	go driver.Run()

	player := sampler.NewPlayer(*sampleRate)
	if err := player.Load(defaultSamplePath); err != nil {
		log.Printf("dubsiren: no sample loaded at %s: %v", defaultSamplePath, err)
	}

	// No physical GPIO backend ships in this build (spec.md §1 names it an
	// external collaborator, out of scope); the control surface always
	// runs against the simulated implementation, so --simulate only
	// changes the audio sink.
	gpio := control.NewSimulatedGPIO()

	shutdown := make(chan struct{})
	var closeOnce sync.Once
	requestShutdown := func() { closeOnce.Do(func() { close(shutdown) }) }

	surface := control.NewSurface(gpio, engine, driver, player, requestShutdown)
	surface.Run()

	if *interactiveFlag {
		if err := interactive(engine); err != nil {
			log.Printf("dubsiren: interactive console: %v", err)
		}
		requestShutdown()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
	case <-shutdown:
	}

	surface.Stop()
	driver.Stop()
	if err := sink.Close(); err != nil {
		log.Printf("dubsiren: sink close: %v", err)
	}
	if err := gpio.Close(); err != nil {
		log.Printf("dubsiren: gpio close: %v", err)
	}
}
