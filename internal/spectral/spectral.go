// Package spectral implements the Welch and polyphase-filter-bank PSD
// estimators shared by every acquisition cycle, whatever the mode.
package spectral

import (
	"math"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
)

const impedanceOhms = 50.0
const powerFloorWatts = 1e-20

// PsdResult is the spectral product of one acquisition cycle (in FM and AM
// mode it is published alongside the demodulator metric).
type PsdResult struct {
	StartFreqHz float64
	EndFreqHz   float64
	Pxx         []float64 // dBm, one bin per nperseg, DC-centered
}

// Estimator is the small interface C3 dispatches through; Welch and PFB
// are interchangeable implementations selected by config.PSDMethod.
type Estimator interface {
	// Process runs one full estimate over block, which must already have
	// been through C6's IQ compensation (and channel filter, if enabled).
	Process(block []complex128) PsdResult
	// Reset clears any accumulated state ahead of a parameter change.
	Reset()
}

func toDbm(p float64) float64 {
	if p < powerFloorWatts {
		p = powerFloorWatts
	}
	return 10 * math.Log10(p*1000)
}

func frequencyAxis(centerHz, fs float64, nperseg int) (start, end float64) {
	start = centerHz - fs/2
	end = centerHz + fs/2
	return start, end
}
