package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// AudioSink is the narrow contract the sink driver consumes: open a device
// by name, negotiate rate/channels/format/period, write interleaved int16
// frames, and recover from an underrun. spec.md §6 describes this as the
// only external surface the core depends on for output.
type AudioSink interface {
	// Open negotiates a device by name for the given sample rate, channel
	// count, and period size in frames. An empty name selects the
	// platform default device.
	Open(name string, sampleRate float64, channels, periodFrames int) error
	// Write ships one period of interleaved int16 frames. A negative
	// return indicates an underrun; Recover must be callable afterward.
	Write(frames []int16) (int, error)
	// Recover re-prepares the device after a write failure so the driver
	// loop can continue.
	Recover(err error) error
	Close() error
}

// portaudioSink implements AudioSink on top of github.com/gordonklaus/portaudio,
// following the teacher's Sink (audio/sink.go), which already wraps a
// *portaudio.Stream behind a small interface. Where the teacher drives the
// stream via a callback, portaudioSink uses blocking writes so the sink
// driver (driver.go) can own its own thread and loop explicitly, matching
// spec.md §4.4's "pull block, convert, write" contract.
type portaudioSink struct {
	stream  *portaudio.Stream
	outBuf  []int16
	channels int
}

func NewPortAudioSink() *portaudioSink {
	return &portaudioSink{}
}

func (s *portaudioSink) Open(name string, sampleRate float64, channels, periodFrames int) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: initialize: %w", err)
	}

	device, err := resolveDevice(name)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	s.channels = channels
	s.outBuf = make([]int16, periodFrames*channels)

	params := portaudio.LowLatencyParameters(nil, device)
	params.Output.Channels = channels
	params.SampleRate = sampleRate
	params.FramesPerBuffer = periodFrames

	stream, err := portaudio.OpenStream(params, s.outBuf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio: open stream on %q: %w", name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio: start stream: %w", err)
	}
	s.stream = stream
	return nil
}

func resolveDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultOutputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio: enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name && d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("portaudio: no output device named %q", name)
}

func (s *portaudioSink) Write(frames []int16) (int, error) {
	copy(s.outBuf, frames)
	if err := s.stream.Write(); err != nil {
		return -1, err
	}
	return len(frames) / s.channels, nil
}

// Recover re-prepares the stream after a write failure. portaudio streams
// generally continue to accept writes after a transient underflow, so this
// is a best-effort restart used only when the stream itself reports it has
// stopped.
func (s *portaudioSink) Recover(err error) error {
	info := s.stream.Info()
	if info == nil {
		return s.stream.Start()
	}
	return nil
}

func (s *portaudioSink) Close() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		portaudio.Terminate()
		return err
	}
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}

// simulatedSink discards audio instead of opening a device, used by
// --simulate and by tests: spec.md §7's "control missing -> engine still
// runs with defaults" extends naturally to a missing/undesired audio
// device for headless testing. Write paces itself to the negotiated block
// duration so a --simulate run behaves like a real device for anything
// timing-sensitive (the control surface's poll loops, underrun stats)
// instead of spinning the driver loop at full CPU.
type simulatedSink struct {
	channels     int
	blockPeriod  time.Duration
}

func NewSimulatedSink() *simulatedSink {
	return &simulatedSink{}
}

func (s *simulatedSink) Open(name string, sampleRate float64, channels, periodFrames int) error {
	s.channels = channels
	s.blockPeriod = time.Duration(float64(periodFrames) / sampleRate * float64(time.Second))
	return nil
}

func (s *simulatedSink) Write(frames []int16) (int, error) {
	if s.blockPeriod > 0 {
		time.Sleep(s.blockPeriod)
	}
	return len(frames) / s.channels, nil
}

func (s *simulatedSink) Recover(err error) error { return nil }
func (s *simulatedSink) Close() error            { return nil }
