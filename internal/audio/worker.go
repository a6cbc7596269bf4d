package audio

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/config"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/ring"
)

// Chunk is the number of I/Q sample pairs drained from the audio ring per
// worker iteration.
const Chunk = 16384
const chunkBytes = Chunk * 2
const pollInterval = 10 * time.Millisecond

const fmBandwidthHz = 200_000.0
const amBandwidthHz = 20_000.0

// Snapshot is the mode/sample-rate pair the orchestrator publishes for the
// audio worker to read without taking cfg_mutex.
type Snapshot struct {
	Mode config.Mode
	FsHz float64
}

// Metrics are the most recent FM/AM demodulator metrics, published once per
// processed chunk so the orchestrator can read them without synchronizing
// with the worker's own goroutine.
type Metrics struct {
	ExcursionHz  float64
	DepthPercent float64
}

// Worker runs the independent audio pipeline: drain, demodulate, encode,
// transmit, reconnect on failure.
type Worker struct {
	audioRing *ring.Ring
	snapshot  *atomic.Value // holds Snapshot
	running   atomic.Bool
	metrics   atomic.Value // holds Metrics

	chanCache   *dsp.ChanFilterCache
	cascade     *dsp.Cascade
	fm          *FMDemodulator
	am          *AMDemodulator
	lastMode    config.Mode
	lastFsHz    float64
	frameBuf    []int16
	encoder     *Encoder
	logger      *log.Logger
}

// NewWorker builds an audio worker reading raw interleaved IQ bytes from
// audioRing and publishing encoded frames to the configured transport.
func NewWorker(audioRing *ring.Ring, snapshot *atomic.Value, logger *log.Logger) *Worker {
	return &Worker{
		audioRing: audioRing,
		snapshot:  snapshot,
		chanCache: dsp.NewChanFilterCache(),
		logger:    logger,
		lastMode:  config.ModePSD, // sentinel: forces re-init on first real snapshot
	}
}

// Run executes the worker loop until Stop is called. The engine runs it on
// its own goroutine, started when an FM or AM config is applied.
func (w *Worker) Run() {
	w.running.Store(true)
	defer w.running.Store(false)

	var transport *Transport
	defer func() {
		if transport != nil {
			transport.Close()
		}
	}()

	isRunning := func() bool { return w.running.Load() }

	for w.running.Load() {
		if transport == nil {
			t, err := Connect(isRunning)
			if err != nil || t == nil {
				continue
			}
			transport = t
			w.frameBuf = w.frameBuf[:0]
		}

		if w.audioRing.Available() < chunkBytes {
			time.Sleep(pollInterval)
			continue
		}

		buf := make([]byte, chunkBytes)
		n := w.audioRing.Read(buf)
		if n < chunkBytes {
			continue
		}

		block := dsp.BytesToIQ(buf)

		snap, _ := w.snapshot.Load().(Snapshot)
		if snap.Mode != w.lastMode || snap.FsHz != w.lastFsHz {
			w.reinit(snap)
		}

		if w.cascade != nil {
			w.cascade.ApplyInPlace(block)
		}

		var pcm []int16
		switch w.lastMode {
		case config.ModeFM:
			if w.fm != nil {
				pcm = w.fm.Process(block)
				w.metrics.Store(Metrics{ExcursionHz: w.fm.InstantFreqHz()})
			}
		case config.ModeAM:
			if w.am != nil {
				pcm = w.am.Process(block)
				w.metrics.Store(Metrics{DepthPercent: w.am.ModulationDepth() * 100})
			}
		default:
			continue
		}

		if err := w.encodeAndSend(transport, pcm); err != nil {
			if w.logger != nil {
				w.logger.Warn("audio send failed, reconnecting", "err", err)
			}
			transport.Close()
			transport = nil
			w.encoder = nil
			w.frameBuf = w.frameBuf[:0]
			sleepCancelable(reconnectDelay, isRunning)
		}
	}
}

func (w *Worker) reinit(snap Snapshot) {
	w.lastMode = snap.Mode
	w.lastFsHz = snap.FsHz
	w.frameBuf = w.frameBuf[:0]

	var bw float64
	switch snap.Mode {
	case config.ModeFM:
		bw = fmBandwidthHz
		w.fm = NewFMDemodulator(snap.FsHz)
		w.am = nil
	case config.ModeAM:
		bw = amBandwidthHz
		w.am = NewAMDemodulator(snap.FsHz)
		w.fm = nil
	default:
		w.fm = nil
		w.am = nil
		w.cascade = nil
		return
	}

	order := 8
	w.cascade = dsp.NewCascade(snap.FsHz, bw, order)
}

func (w *Worker) encodeAndSend(t *Transport, pcm []int16) error {
	if len(pcm) == 0 {
		return nil
	}
	w.frameBuf = append(w.frameBuf, pcm...)

	for len(w.frameBuf) >= FrameSamples {
		frame := w.frameBuf[:FrameSamples]
		w.frameBuf = w.frameBuf[FrameSamples:]

		if w.encoder == nil {
			enc, err := NewEncoder()
			if err != nil {
				return err
			}
			w.encoder = enc
		}

		payload, err := w.encoder.Encode(frame)
		if err != nil {
			return err
		}
		if err := t.SendFrame(opusSampleRate, opusChannels, payload); err != nil {
			return err
		}
	}
	return nil
}

// Metrics returns the most recently published FM/AM demodulator metrics.
// Safe to call from the orchestrator goroutine while Run is active.
func (w *Worker) Metrics() Metrics {
	m, _ := w.metrics.Load().(Metrics)
	return m
}

// Stop requests the worker loop exit; Run returns within one poll
// interval plus one send timeout.
func (w *Worker) Stop() {
	w.running.Store(false)
}

