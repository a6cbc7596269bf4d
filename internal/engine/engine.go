// Package engine implements the SDR orchestrator (C3): the single
// goroutine state machine that drives one acquisition cycle at a time,
// owns the RF device handle, both ingestion rings, and the lazy-retune
// predicate.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/antenna"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/audio"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/config"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/control"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/rfhal"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/ring"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/spectral"
)

const pollInterval = 10 * time.Millisecond
const idleTimeout = 15 * time.Second
const settleDelay = 150 * time.Millisecond
const acquisitionTimeout = 500 // polls, ~5s at pollInterval
const recoveryRetryCount = 3
const recoveryRetrySpacing = 1 * time.Second
const recoveryBackoffBase = 1 * time.Second
const recoveryBackoffMax = 10 * time.Second

// Engine owns the full pipeline: hardware handle, both rings, the control
// channel, and the audio worker's lifecycle.
type Engine struct {
	device   rfhal.RFDevice
	antenna  antenna.Selector
	control  *control.Channel
	logger   *log.Logger

	cfgMu       sync.Mutex
	desired     config.DesiredConfig
	derived     config.DerivedConfig
	hwState     config.HardwareState
	lastApplied config.DesiredConfig
	hasDesired  bool

	configReceived atomic.Bool
	lastActivity   time.Time

	mainRing  *ring.Ring
	audioRing *ring.Ring
	fanout    *ring.Fanout

	rxOut   chan []byte
	rxCtx   context.Context
	rxStop  context.CancelFunc
	rxWG    sync.WaitGroup
	streaming bool

	audioWorker    *audio.Worker
	audioSnapshot  atomic.Value
	audioEnabled   atomic.Bool

	chanCache     *dsp.ChanFilterCache
	recoveryFails int
	backoff       time.Duration
}

// New builds an Engine wired to the given hardware device, antenna
// selector, and control channel.
func New(device rfhal.RFDevice, sel antenna.Selector, ch *control.Channel, logger *log.Logger) *Engine {
	e := &Engine{
		device:    device,
		antenna:   sel,
		control:   ch,
		logger:    logger,
		mainRing:  ring.New(ring.DefaultRingSize),
		audioRing: ring.New(ring.DefaultRingSize / ring.DefaultAudioRingChunks),
		chanCache: dsp.NewChanFilterCache(),
		backoff:   recoveryBackoffBase,
	}
	e.fanout = ring.NewFanout(e.mainRing, e.audioRing)
	e.audioSnapshot.Store(audio.Snapshot{Mode: config.ModePSD})
	return e
}

// AttachControl wires a control channel created after New (the channel
// needs the engine's OnControlMessage as its callback, so the two are
// constructed in sequence rather than both up front).
func (e *Engine) AttachControl(ch *control.Channel) {
	e.control = ch
}

// Seed applies a startup DesiredConfig (e.g. loaded from a local defaults
// file) through the same validation path as a control-plane message,
// without requiring a JSON round trip.
func (e *Engine) Seed(cfg config.DesiredConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfgMu.Lock()
	e.desired = cfg
	e.derived = config.Derive(cfg)
	e.hasDesired = true
	e.cfgMu.Unlock()
	e.configReceived.Store(true)
	return nil
}

// OnControlMessage is passed to control.Start as the inbound message
// callback; it parses and snapshots the new DesiredConfig under cfgMu.
func (e *Engine) OnControlMessage(raw []byte) {
	cfg, err := config.ParseDesiredConfig(raw)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("dropping malformed control message", "err", err)
		}
		return
	}
	if err := cfg.Validate(); err != nil {
		if e.logger != nil {
			e.logger.Warn("dropping invalid control message", "err", err)
		}
		return
	}
	if cfg.Scale != "dbm" && e.logger != nil {
		e.logger.Warn("unsupported scale requested, using dbm", "scale", cfg.Scale)
	}

	e.cfgMu.Lock()
	e.desired = cfg
	e.derived = config.Derive(cfg)
	e.hasDesired = true
	e.cfgMu.Unlock()

	e.configReceived.Store(true)
}

// Run drives the state machine until ctx is canceled.
func (e *Engine) Run(ctx context.Context) {
	state := StateIdle
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	e.lastActivity = time.Now()

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return
		case <-ticker.C:
		}

		state = e.step(ctx, state)
	}
}

func (e *Engine) step(ctx context.Context, state State) State {
	switch state {
	case StateIdle:
		return e.stepIdle()
	case StatePreparingHardware:
		return e.stepPreparingHardware(ctx)
	case StateAcquiring:
		return e.stepAcquiring()
	case StateProcessing:
		return e.stepProcessing()
	case StateRecovering:
		return e.stepRecovering(ctx)
	default:
		return StateIdle
	}
}

func (e *Engine) stepIdle() State {
	if time.Since(e.lastActivity) > idleTimeout {
		if e.device != nil && e.hwState.Valid {
			e.device.Close()
			e.hwState = config.HardwareState{}
		}
	}

	if e.configReceived.Load() {
		e.configReceived.Store(false)
		e.lastActivity = time.Now()
		return StatePreparingHardware
	}
	return StateIdle
}

func (e *Engine) stepPreparingHardware(ctx context.Context) State {
	e.cfgMu.Lock()
	cfg := e.desired
	e.cfgMu.Unlock()

	if e.hwState.Valid == false {
		if err := e.device.Open(); err != nil {
			if e.logger != nil {
				e.logger.Error("rf device open failed", "err", err)
			}
			return StateRecovering
		}
	}

	if e.hwState.NeedsRetune(cfg) {
		corrected := config.CorrectedFrequency(cfg.CenterFreqHz, cfg.PPMError)
		req := rfhal.TuneRequest{
			CenterFreqHz: corrected,
			SampleRateHz: cfg.SampleRateHz,
			LNAGain:      cfg.LNAGain,
			VGAGain:      cfg.VGAGain,
			AmpEnabled:   cfg.AmpEnabled,
		}
		if err := e.device.Tune(req); err != nil {
			if e.logger != nil {
				e.logger.Error("rf tune failed", "err", err)
			}
			return StateRecovering
		}

		e.hwState = config.HardwareState{
			Valid:        true,
			CenterFreqHz: cfg.CenterFreqHz,
			SampleRateHz: cfg.SampleRateHz,
			LNAGain:      cfg.LNAGain,
			VGAGain:      cfg.VGAGain,
		}

		time.Sleep(settleDelay)
		e.mainRing.Reset()
		e.audioRing.Reset()
	}

	if e.antenna != nil {
		if err := e.antenna.Select(cfg.AntennaPort); err != nil && e.logger != nil {
			e.logger.Warn("antenna select failed", "err", err)
		}
	}

	e.audioSnapshot.Store(audio.Snapshot{Mode: cfg.Mode, FsHz: cfg.SampleRateHz})
	e.syncAudioWorker(cfg.Mode)

	e.ensureStreaming(ctx)
	e.lastActivity = time.Now()
	return StateAcquiring
}

func (e *Engine) ensureStreaming(ctx context.Context) {
	if e.streaming {
		return
	}
	rxCtx, cancel := context.WithCancel(ctx)
	e.rxCtx = rxCtx
	e.rxStop = cancel
	e.rxOut = make(chan []byte, 64)
	e.streaming = true

	e.rxWG.Add(1)
	go func() {
		defer e.rxWG.Done()
		e.device.StartRX(rxCtx, e.rxOut)
	}()

	e.rxWG.Add(1)
	go func() {
		defer e.rxWG.Done()
		for {
			select {
			case <-rxCtx.Done():
				return
			case chunk, ok := <-e.rxOut:
				if !ok {
					return
				}
				e.fanout.Write(chunk)
			}
		}
	}()
}

func (e *Engine) syncAudioWorker(mode config.Mode) {
	wantAudio := mode == config.ModeFM || mode == config.ModeAM
	e.audioEnabled.Store(wantAudio)
	e.fanout.SetSecondaryEnabled(wantAudio)

	if wantAudio && e.audioWorker == nil {
		e.audioRing.Reset()
		e.audioWorker = audio.NewWorker(e.audioRing, &e.audioSnapshot, e.logger)
		go e.audioWorker.Run()
	}
	if !wantAudio && e.audioWorker != nil {
		e.audioWorker.Stop()
		e.audioWorker = nil
	}
}

func (e *Engine) stepAcquiring() State {
	e.cfgMu.Lock()
	need := uint64(e.derived.AcquisitionBytes)
	e.cfgMu.Unlock()

	if e.mainRing.Available() >= need {
		return StateProcessing
	}

	e.recoveryFails++
	if e.recoveryFails >= acquisitionTimeout {
		e.recoveryFails = 0
		return StateRecovering
	}
	return StateAcquiring
}

func (e *Engine) stepProcessing() State {
	e.recoveryFails = 0

	e.cfgMu.Lock()
	cfg := e.desired
	derived := e.derived
	e.cfgMu.Unlock()

	buf := make([]byte, derived.AcquisitionBytes)
	n := e.mainRing.Read(buf)
	block := dsp.BytesToIQ(buf[:n])

	dsp.CompensateIQ(block)

	if cfg.FilterEnabled {
		e.chanCache.ApplyInPlaceAbs(block, float64(cfg.CenterFreqHz), cfg.SampleRateHz, dsp.ChanFilterRange{
			StartHz: cfg.FilterRange.StartFreqHz,
			EndHz:   cfg.FilterRange.EndFreqHz,
		})
	}

	var estimator spectral.Estimator
	if cfg.PSDMethod == config.MethodPFB {
		estimator = spectral.NewPFB(float64(cfg.CenterFreqHz), cfg.SampleRateHz, derived.Nperseg)
	} else {
		estimator = spectral.NewWelch(float64(cfg.CenterFreqHz), cfg.SampleRateHz, derived.Nperseg, derived.Noverlap, cfg.WindowType)
	}
	result := estimator.Process(block)

	switch cfg.Mode {
	case config.ModeFM:
		var excursionHz float64
		if e.audioWorker != nil {
			excursionHz = e.audioWorker.Metrics().ExcursionHz
		}
		e.publish(control.FromFMMetrics(result, excursionHz))
	case config.ModeAM:
		var depthPercent float64
		if e.audioWorker != nil {
			depthPercent = e.audioWorker.Metrics().DepthPercent
		}
		e.publish(control.FromAMMetrics(result, depthPercent))
	default:
		e.publish(control.FromPsdResult(result))
	}

	e.lastActivity = time.Now()
	return StateIdle
}

func (e *Engine) publish(msg control.ResultMessage) {
	if e.control == nil {
		return
	}
	data, err := control.Marshal(msg)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("marshaling result", "err", err)
		}
		return
	}
	if err := e.control.Send(data); err != nil && e.logger != nil {
		e.logger.Warn("publishing result failed", "err", err)
	}
}

func (e *Engine) stepRecovering(ctx context.Context) State {
	if e.logger != nil {
		e.logger.Warn("entering recovery", "attempt", e.recoveryFails+1)
	}

	e.teardownStreaming()
	if e.device != nil {
		e.device.Close()
	}
	e.hwState = config.HardwareState{}

	for attempt := 0; attempt < recoveryRetryCount; attempt++ {
		if err := e.device.Open(); err == nil {
			e.recoveryFails = 0
			e.backoff = recoveryBackoffBase
			return StateIdle
		}
		time.Sleep(recoveryRetrySpacing)
	}

	time.Sleep(e.backoff)
	e.backoff *= 2
	if e.backoff > recoveryBackoffMax {
		e.backoff = recoveryBackoffMax
	}
	return StateRecovering
}

func (e *Engine) teardownStreaming() {
	if !e.streaming {
		return
	}
	e.rxStop()
	e.rxWG.Wait()
	e.streaming = false
}

func (e *Engine) shutdown() {
	e.teardownStreaming()
	if e.audioWorker != nil {
		e.audioWorker.Stop()
	}
	if e.device != nil {
		e.device.Close()
	}
}

