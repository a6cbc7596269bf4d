package dsp

import (
	"math"
	"testing"
)

func TestLowpassAttenuatesHighFrequencyMoreThanLow(t *testing.T) {
	fs := 48_000.0
	fc := 1_000.0
	lp := NewLowpass(fs, fc, 0.707)

	lowTone := sineResponseRMS(lp, fs, 100)
	lp.Reset()
	highTone := sineResponseRMS(lp, fs, 10_000)

	if highTone >= lowTone {
		t.Fatalf("high-frequency RMS (%v) should be well below low-frequency RMS (%v)", highTone, lowTone)
	}
}

func sineResponseRMS(b *Biquad, fs, freq float64) float64 {
	n := 2000
	var sumSq float64
	settled := n / 2
	for i := 0; i < n; i++ {
		x := math.Sin(2 * math.Pi * freq * float64(i) / fs)
		y := b.Process(x)
		if i >= settled {
			sumSq += y * y
		}
	}
	return math.Sqrt(sumSq / float64(n-settled))
}

func TestButterworthQMonotonicWithinStage(t *testing.T) {
	q1 := ButterworthQ(4, 1)
	q2 := ButterworthQ(4, 2)
	if q2 <= q1 {
		t.Fatalf("ButterworthQ(4, 2) = %v, want greater than ButterworthQ(4, 1) = %v", q2, q1)
	}
}

func TestDCBlockerRemovesConstantOffset(t *testing.T) {
	d := NewDCBlocker(0.995)
	var last float64
	for i := 0; i < 5000; i++ {
		last = d.Process(1.0)
	}
	if math.Abs(last) > 0.01 {
		t.Fatalf("DC blocker output after settling = %v, want near 0", last)
	}
}

func TestCascadeClampsOrderToEvenRange(t *testing.T) {
	c := NewCascade(48_000, 5_000, 1) // odd, below minimum
	if len(c.sectionsI) != 1 {
		t.Fatalf("sections = %d, want 1 (order clamped to 2)", len(c.sectionsI))
	}

	c2 := NewCascade(48_000, 5_000, 20) // above maximum
	if len(c2.sectionsI) != 6 {
		t.Fatalf("sections = %d, want 6 (order clamped to 12)", len(c2.sectionsI))
	}
}

func TestCascadeAppliesToBothChannels(t *testing.T) {
	c := NewCascade(48_000, 1_000, 4)
	block := make([]complex128, 200)
	for i := range block {
		x := math.Sin(2 * math.Pi * 10_000 * float64(i) / 48_000)
		block[i] = complex(x, x)
	}
	c.ApplyInPlace(block)

	var maxMag float64
	for _, x := range block[100:] {
		if m := math.Hypot(real(x), imag(x)); m > maxMag {
			maxMag = m
		}
	}
	if maxMag > 0.5 {
		t.Fatalf("cascade failed to attenuate out-of-band tone, settled max magnitude = %v", maxMag)
	}
}
