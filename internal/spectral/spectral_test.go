package spectral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
)

func TestWelchProducesCenteredFrequencyAxis(t *testing.T) {
	const fs = 2_000_000.0
	const nperseg = 256

	w := NewWelch(100_000_000, fs, nperseg, 0, dsp.WindowHamming)
	block := make([]complex128, nperseg*4)
	for i := range block {
		block[i] = complex(1, 0)
	}

	res := w.Process(block)
	if len(res.Pxx) != nperseg {
		t.Fatalf("len(Pxx) = %d, want %d", len(res.Pxx), nperseg)
	}
	wantStart := 100_000_000.0 - fs/2
	if math.Abs(res.StartFreqHz-wantStart) > 1 {
		t.Fatalf("StartFreqHz = %v, want %v", res.StartFreqHz, wantStart)
	}
}

func TestWelchEnergyConservationWhiteNoise(t *testing.T) {
	const fs = 1_000_000.0
	const nperseg = 1024
	const segments = 8

	rng := rand.New(rand.NewSource(1))
	sigma2 := 4.0
	n := nperseg * segments
	block := make([]complex128, n)
	for i := range block {
		block[i] = complex(rng.NormFloat64()*math.Sqrt(sigma2/2), rng.NormFloat64()*math.Sqrt(sigma2/2))
	}

	w := NewWelch(0, fs, nperseg, 0, dsp.WindowRectangular)
	res := w.Process(block)

	var sumWatts float64
	for _, dbm := range res.Pxx {
		watts := math.Pow(10, dbm/10) / 1000
		sumWatts += watts * impedanceOhms
	}
	meanP := sumWatts / float64(len(res.Pxx))
	want := sigma2 / fs

	if math.Abs(meanP-want)/want > 0.5 {
		t.Fatalf("mean(P) = %v, want approx %v (within tolerance)", meanP, want)
	}
}

func TestPFBProducesMChannels(t *testing.T) {
	const fs = 2_000_000.0
	const m = 128

	p := NewPFB(0, fs, m)
	block := make([]complex128, m*pfbTapsPerChannel*3)
	for i := range block {
		block[i] = complex(1, 0)
	}

	res := p.Process(block)
	if len(res.Pxx) != m {
		t.Fatalf("len(Pxx) = %d, want %d", len(res.Pxx), m)
	}
}
