package audio

import (
	"math"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
)

const amEnvMeanAlpha = 5e-5
const amAudioCutoffHz = 5_000.0
const amAudioQ = 0.707
const amAgcTarget = 0.08
const amAgcAttack = 0.10
const amAgcRelease = 0.005
const amAgcMinGain = 0.2
const amAgcMaxGain = 25.0
const amFinalGain = 20_000.0
const amModDepthAlpha = 0.15
const amAudioRateHz = 48_000

// AMDemodulator implements the envelope detector with CIC decimation,
// carrier tracking and AGC described for PSD mode AM.
type AMDemodulator struct {
	cic         *dsp.CIC2
	envMean     *dsp.EMA
	dcBlocker   *dsp.DCBlocker
	audioFilter *dsp.Biquad
	agc         *dsp.RMSAGC

	modDepth    *dsp.EMA
	windowMin   float64
	windowMax   float64
	windowCount int
	windowSize  int
}

// NewAMDemodulator builds an AM demodulator for sample rate fs. The CIC
// decimation ratio is chosen to land near the 48 kHz audio rate.
func NewAMDemodulator(fs float64) *AMDemodulator {
	ratio := int(fs / amAudioRateHz)
	if ratio < 1 {
		ratio = 1
	}
	decimatedRate := fs / float64(ratio)

	return &AMDemodulator{
		cic:         dsp.NewCIC2(ratio),
		envMean:     dsp.NewEMA(amEnvMeanAlpha),
		dcBlocker:   dsp.NewDCBlocker(0.995),
		audioFilter: dsp.NewLowpass(decimatedRate, amAudioCutoffHz, amAudioQ),
		agc:         dsp.NewRMSAGC(amAgcTarget, amAgcAttack, amAgcRelease, amAgcMinGain, amAgcMaxGain),
		modDepth:    dsp.NewEMA(amModDepthAlpha),
		windowMin:   math.MaxFloat64,
		windowMax:   -math.MaxFloat64,
		windowSize:  int(decimatedRate), // ~1s window in decimated samples
	}
}

// Reset clears all filter and metric state, used on a mode/fs change.
func (a *AMDemodulator) Reset() {
	a.cic.Reset()
	a.envMean.Reset()
	a.dcBlocker.Reset()
	a.audioFilter.Reset()
	a.agc.Reset()
	a.modDepth.Reset()
	a.windowMin = math.MaxFloat64
	a.windowMax = -math.MaxFloat64
	a.windowCount = 0
}

// ModulationDepth reports the most recent EMA-smoothed (max-min)/(max+min)
// metric for the control plane.
func (a *AMDemodulator) ModulationDepth() float64 { return a.modDepth.Value() }

// Process demodulates one compensated, channel-filtered IQ block into
// int16 PCM samples, decimated via the CIC stage.
func (a *AMDemodulator) Process(block []complex128) []int16 {
	out := make([]int16, 0, len(block)/a.cic.Ratio()+1)

	for _, x := range block {
		env := math.Hypot(real(x), imag(x))

		decimated, ok := a.cic.Push(env)
		if !ok {
			continue
		}

		mean := a.envMean.Update(decimated)
		if mean < 1e-6 {
			mean = 1e-6
		}
		mod := (decimated - mean) / mean

		a.trackModDepth(decimated)

		sample := a.dcBlocker.Process(mod)
		sample = a.audioFilter.Process(sample)
		sample = a.agc.Process(sample)

		pcm := sample * amFinalGain
		out = append(out, clipInt16(pcm))
	}
	return out
}

func (a *AMDemodulator) trackModDepth(env float64) {
	if env < a.windowMin {
		a.windowMin = env
	}
	if env > a.windowMax {
		a.windowMax = env
	}
	a.windowCount++
	if a.windowCount >= a.windowSize {
		denom := a.windowMax + a.windowMin
		if denom > 1e-9 {
			depth := (a.windowMax - a.windowMin) / denom
			a.modDepth.Update(depth)
		}
		a.windowMin = math.MaxFloat64
		a.windowMax = -math.MaxFloat64
		a.windowCount = 0
	}
}
