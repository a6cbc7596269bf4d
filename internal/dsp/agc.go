package dsp

import "math"

// RMSAGC is a soft-knee automatic gain control tracking a running mean
// square of its input and adjusting gain toward a target RMS, with
// asymmetric attack/release time constants.
type RMSAGC struct {
	targetRMS float64
	attack    float64
	release   float64
	minGain   float64
	maxGain   float64

	rms2 float64
	gain float64
}

// NewRMSAGC builds an AGC with the given target RMS, attack/release
// smoothing factors and gain bounds. Gain starts at 1.0.
func NewRMSAGC(targetRMS, attack, release, minGain, maxGain float64) *RMSAGC {
	return &RMSAGC{
		targetRMS: targetRMS,
		attack:    attack,
		release:   release,
		minGain:   minGain,
		maxGain:   maxGain,
		gain:      1.0,
	}
}

// Process applies the current gain to x, then adapts the gain toward the
// target RMS using attack when the signal is louder than target and release
// when quieter.
func (a *RMSAGC) Process(x float64) float64 {
	y := x * a.gain

	a.rms2 = 0.99*a.rms2 + 0.01*(y*y)
	rms := math.Sqrt(a.rms2)

	var alpha float64
	if rms > a.targetRMS {
		alpha = a.attack
	} else {
		alpha = a.release
	}

	if rms > 1e-9 {
		errRatio := a.targetRMS / rms
		a.gain += alpha * (errRatio - 1) * a.gain
	}

	if a.gain < a.minGain {
		a.gain = a.minGain
	}
	if a.gain > a.maxGain {
		a.gain = a.maxGain
	}

	return y
}

// Reset restores the AGC to its initial unity-gain, zero-RMS state.
func (a *RMSAGC) Reset() {
	a.rms2 = 0
	a.gain = 1.0
}
