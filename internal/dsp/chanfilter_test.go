package dsp

import (
	"math"
	"testing"
)

func TestLastRegionClassification(t *testing.T) {
	if LastRegion(10, 20) != "positive" {
		t.Fatal("LastRegion() want positive")
	}
	if LastRegion(-20, -10) != "negative" {
		t.Fatal("LastRegion() want negative")
	}
	if LastRegion(-10, 10) != "cross-dc" {
		t.Fatal("LastRegion() want cross-dc")
	}
}

func TestBinFrequencyWrapsAroundNyquist(t *testing.T) {
	n := 8
	fs := 800.0
	if got := binFrequency(0, n, fs); got != 0 {
		t.Fatalf("binFrequency(0) = %v, want 0", got)
	}
	if got := binFrequency(n-1, n, fs); got >= 0 {
		t.Fatalf("binFrequency(n-1) = %v, want negative (upper half wraps to negative freq)", got)
	}
}

func TestApplyInPlaceAbsPassesInBandToneThrough(t *testing.T) {
	n := 256
	fs := 1_000_000.0
	fc := 100_000_000.0
	toneFreq := 1000.0 // well within the passband, relative to fc

	block := make([]complex128, n)
	for i := range block {
		phase := 2 * math.Pi * toneFreq * float64(i) / fs
		block[i] = complex(math.Cos(phase), math.Sin(phase))
	}

	cache := NewChanFilterCache()
	rng := ChanFilterRange{StartHz: fc - 50_000, EndHz: fc + 50_000}
	cache.ApplyInPlaceAbs(block, fc, fs, rng)

	var rms float64
	for _, x := range block {
		rms += real(x)*real(x) + imag(x)*imag(x)
	}
	rms = math.Sqrt(rms / float64(n))
	if rms < 0.3 {
		t.Fatalf("in-band tone heavily attenuated, rms = %v, want > 0.3", rms)
	}
}

func TestApplyInPlaceAbsCachesShapeBySize(t *testing.T) {
	cache := NewChanFilterCache()
	n := 64
	fs := 1_000_000.0
	fc := 0.0
	rng := ChanFilterRange{StartHz: -10_000, EndHz: 10_000}

	block := make([]complex128, n)
	cache.ApplyInPlaceAbs(block, fc, fs, rng)
	if len(cache.shapes) != 1 {
		t.Fatalf("len(shapes) = %d, want 1 after first call", len(cache.shapes))
	}
	cache.ApplyInPlaceAbs(block, fc, fs, rng)
	if len(cache.shapes) != 1 {
		t.Fatalf("len(shapes) = %d, want 1 after repeated identical call", len(cache.shapes))
	}
}
