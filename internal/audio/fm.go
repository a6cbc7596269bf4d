package audio

import (
	"math"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
)

const fmAudioRateHz = 48_000
const fmDeemphasisTau = 75e-6
const fmScale = 60_000.0
const fmPeakEmaAlpha = 0.10
const fmAudioCutoffHz = 12_000.0
const fmAudioQ = 0.707

// FMDemodulator implements the phase-difference discriminator with
// de-emphasis, DC blocking and audio low-pass filtering described for PSD
// mode FM.
type FMDemodulator struct {
	fs          float64
	decimate    int
	prev        complex128
	deemph      *dsp.EMA
	dcBlocker   *dsp.DCBlocker
	audioFilter *dsp.Biquad

	// metrics
	peakHz float64
	emaHz  *dsp.EMA
}

// NewFMDemodulator builds an FM demodulator for sample rate fs.
func NewFMDemodulator(fs float64) *FMDemodulator {
	decimate := int(fs / fmAudioRateHz)
	if decimate < 1 {
		decimate = 1
	}
	dt := float64(decimate) / fs
	alpha := dt / (fmDeemphasisTau + dt)
	return &FMDemodulator{
		fs:          fs,
		decimate:    decimate,
		prev:        1,
		deemph:      dsp.NewEMA(alpha),
		dcBlocker:   dsp.NewDCBlocker(0.995),
		audioFilter: dsp.NewLowpass(fmAudioRateHz, fmAudioCutoffHz, fmAudioQ),
		emaHz:       dsp.NewEMA(fmPeakEmaAlpha),
	}
}

// Reset clears all filter and metric state, used on a mode/fs change.
func (f *FMDemodulator) Reset() {
	f.prev = 1
	f.deemph.Reset()
	f.dcBlocker.Reset()
	f.audioFilter.Reset()
	f.peakHz = 0
	f.emaHz.Reset()
}

// InstantFreqHz reports the EMA-smoothed instantaneous frequency and
// PeakFreqHz the largest |f| seen since the last Reset, for the control
// plane.
func (f *FMDemodulator) InstantFreqHz() float64 { return f.emaHz.Value() }
func (f *FMDemodulator) PeakFreqHz() float64    { return f.peakHz }

// Process demodulates one compensated, channel-filtered IQ block into
// int16 PCM samples, decimated to the audio rate.
func (f *FMDemodulator) Process(block []complex128) []int16 {
	out := make([]int16, 0, len(block)/f.decimate+1)

	count := 0
	var acc float64
	for _, x := range block {
		phaseDiff := cmplxPhaseDiff(x, f.prev)
		f.prev = x

		instFreq := phaseDiff * f.fs / (2 * math.Pi)
		if math.Abs(instFreq) > f.peakHz {
			f.peakHz = math.Abs(instFreq)
		}
		f.emaHz.Update(instFreq)

		acc += phaseDiff
		count++
		if count < f.decimate {
			continue
		}
		count = 0

		sample := acc / float64(f.decimate)
		acc = 0

		sample = f.deemph.Update(sample)
		sample = f.dcBlocker.Process(sample)
		sample = f.audioFilter.Process(sample)

		pcm := sample * fmScale
		out = append(out, clipInt16(pcm))
	}
	return out
}

func cmplxPhaseDiff(x, prev complex128) float64 {
	conjPrev := complex(real(prev), -imag(prev))
	prod := x * conjPrev
	return math.Atan2(imag(prod), real(prod))
}

func clipInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
