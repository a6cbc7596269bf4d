package dsp

import (
	"math"
	"testing"
)

func TestParseWindowCaseInsensitive(t *testing.T) {
	if ParseWindow("HANN") != WindowHann {
		t.Fatal("ParseWindow() did not match case-insensitively")
	}
	if ParseWindow("bogus") != WindowHamming {
		t.Fatalf("ParseWindow() = %v for unknown window, want Hamming default", ParseWindow("bogus"))
	}
}

func TestGenerateHammingEndpoints(t *testing.T) {
	w := Generate(WindowHamming, 16)
	if len(w) != 16 {
		t.Fatalf("len(Generate) = %d, want 16", len(w))
	}
	if math.Abs(w[0]-0.08) > 1e-6 {
		t.Fatalf("w[0] = %v, want approx 0.08", w[0])
	}
}

func TestGenerateRectangularIsAllOnes(t *testing.T) {
	w := Generate(WindowRectangular, 10)
	for i, v := range w {
		if v != 1.0 {
			t.Fatalf("w[%d] = %v, want 1.0 for rectangular window", i, v)
		}
	}
}

func TestNormalizationFactorMatchesManualSum(t *testing.T) {
	w := []float64{1, 1, 1, 1}
	u := NormalizationFactor(w)
	want := 1.0
	if math.Abs(u-want) > 1e-9 {
		t.Fatalf("NormalizationFactor() = %v, want %v", u, want)
	}
}

func TestENBWHannMatchesDocumentedValue(t *testing.T) {
	if math.Abs(ENBW(WindowHann)-1.5) > 1e-6 {
		t.Fatalf("ENBW(Hann) = %v, want 1.5", ENBW(WindowHann))
	}
}
