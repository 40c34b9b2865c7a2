package audio

import (
	"sync"
	"sync/atomic"
	"time"
)

// Source is anything the sink driver can pull a block of interleaved
// stereo float64 samples from. Engine and sampler.Player both implement
// it, letting the driver switch between synth and sample-playback output
// (spec.md §2, "G is a sibling of B").
type Source interface {
	Process(out []float64, n int)
}

// DriverStats is a snapshot of the sink driver's runtime health.
type DriverStats struct {
	Underruns    uint64
	CPURatio     float64 // wall-clock fraction spent computing a block
	BlocksServed uint64
}

// Driver owns the dedicated audio thread: pull a block from the active
// Source, convert it to clamped int16 stereo, write it to the sink, and
// recover from underruns without ever stopping. This is T_audio from
// spec.md §5, grounded on the teacher's Sink (audio/sink.go) but
// restructured from a portaudio-owned callback into a driver-owned
// blocking-write loop so the underrun/recovery/stats bookkeeping spec.md
// §4.4 requires has somewhere to live.
type Driver struct {
	sink       AudioSink
	sampleRate float64
	blockSize  int

	source atomic.Value // holds Source

	floatBuf []float64
	pcmBuf   []int16

	underruns    uint64
	blocksServed uint64
	cpuRatio     atomic.Value // float64

	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewDriver constructs a driver around an already-open sink. source is the
// initial audio source (typically the synth Engine).
func NewDriver(sink AudioSink, sampleRate float64, blockSize int, source Source) *Driver {
	d := &Driver{
		sink:       sink,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		floatBuf:   make([]float64, 2*blockSize),
		pcmBuf:     make([]int16, 2*blockSize),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	d.source.Store(source)
	d.cpuRatio.Store(0.0)
	return d
}

// SetSource atomically swaps the active source, used when the control
// surface's secret sample-playback mode is toggled.
func (d *Driver) SetSource(s Source) {
	d.source.Store(s)
}

// Run blocks, pulling and writing blocks until Stop is called. It should be
// launched in its own goroutine (T_audio).
func (d *Driver) Run() {
	defer close(d.stopped)
	for {
		select {
		case <-d.stop:
			d.drain()
			return
		default:
		}

		start := time.Now()
		source := d.source.Load().(Source)
		source.Process(d.floatBuf, d.blockSize)
		floatToPCM(d.floatBuf, d.pcmBuf)
		elapsed := time.Since(start)

		blockDuration := time.Duration(float64(d.blockSize) / d.sampleRate * float64(time.Second))
		if blockDuration > 0 {
			d.cpuRatio.Store(elapsed.Seconds() / blockDuration.Seconds())
		}

		n, err := d.sink.Write(d.pcmBuf)
		if err != nil || n < 0 {
			atomic.AddUint64(&d.underruns, 1)
			d.sink.Recover(err)
			continue
		}
		atomic.AddUint64(&d.blocksServed, 1)
	}
}

// drain writes a few silent blocks so any buffered audio in the sink
// finishes playing out cleanly instead of cutting off mid-block.
func (d *Driver) drain() {
	for i := range d.pcmBuf {
		d.pcmBuf[i] = 0
	}
	const drainBlocks = 2
	for i := 0; i < drainBlocks; i++ {
		d.sink.Write(d.pcmBuf)
	}
}

// Stop signals the loop to drain and exit, and blocks until it has.
func (d *Driver) Stop() {
	d.once.Do(func() { close(d.stop) })
	<-d.stopped
}

func (d *Driver) Stats() DriverStats {
	return DriverStats{
		Underruns:    atomic.LoadUint64(&d.underruns),
		CPURatio:     d.cpuRatio.Load().(float64),
		BlocksServed: atomic.LoadUint64(&d.blocksServed),
	}
}

// floatToPCM converts a clamped [-1, 1] float64 block to interleaved int16,
// matching the wire format spec.md §6 names (S16 LE at the DAC).
func floatToPCM(in []float64, out []int16) {
	const scale = 32767.0
	for i, v := range in {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int16(v * scale)
	}
}
