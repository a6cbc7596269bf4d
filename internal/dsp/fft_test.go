package dsp

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestFFTIFFTRoundTripPowerOfTwo(t *testing.T) {
	n := 64
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(math.Sin(float64(i)), math.Cos(float64(i)))
	}

	spectrum := FFT(x)
	back := IFFT(spectrum)

	for i := range x {
		if cmplx.Abs(back[i]-x[i]) > 1e-9 {
			t.Fatalf("round trip mismatch at %d: got %v, want %v", i, back[i], x[i])
		}
	}
}

func TestFFTIFFTRoundTripArbitraryLength(t *testing.T) {
	n := 100 // not a power of two, exercises Bluestein
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(float64(i%7), float64(i%5))
	}

	spectrum := FFT(x)
	if len(spectrum) != n {
		t.Fatalf("len(FFT) = %d, want %d", len(spectrum), n)
	}
	back := IFFT(spectrum)

	for i := range x {
		if cmplx.Abs(back[i]-x[i]) > 1e-6 {
			t.Fatalf("round trip mismatch at %d: got %v, want %v", i, back[i], x[i])
		}
	}
}

func TestFFTDCBinForConstantInput(t *testing.T) {
	n := 32
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(2, 0)
	}

	spectrum := FFT(x)
	if cmplx.Abs(spectrum[0]-complex(float64(n)*2, 0)) > 1e-9 {
		t.Fatalf("DC bin = %v, want %v", spectrum[0], complex(float64(n)*2, 0))
	}
	for i := 1; i < n; i++ {
		if cmplx.Abs(spectrum[i]) > 1e-9 {
			t.Fatalf("bin %d = %v, want 0 for constant input", i, spectrum[i])
		}
	}
}

func TestFFTShiftIsInvolution(t *testing.T) {
	buf := []float64{1, 2, 3, 4, 5, 6}
	orig := append([]float64(nil), buf...)

	FFTShift(buf)
	if buf[0] == orig[0] {
		t.Fatal("FFTShift() did not move the DC-relative bin")
	}
	FFTShift(buf)
	for i := range buf {
		if buf[i] != orig[i] {
			t.Fatalf("FFTShift applied twice did not restore original at %d: got %v, want %v", i, buf[i], orig[i])
		}
	}
}
