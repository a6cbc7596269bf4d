package dsp

import (
	"math"
	"testing"
)

func TestRMSAGCConvergesTowardTargetRMS(t *testing.T) {
	agc := NewRMSAGC(0.1, 0.2, 0.01, 0.1, 50.0)

	var lastRMS float64
	for cycle := 0; cycle < 500; cycle++ {
		var sumSq float64
		const n = 20
		for i := 0; i < n; i++ {
			x := 0.01 * math.Sin(float64(i))
			y := agc.Process(x)
			sumSq += y * y
		}
		lastRMS = math.Sqrt(sumSq / n)
	}

	if math.Abs(lastRMS-0.1) > 0.05 {
		t.Fatalf("settled RMS = %v, want approx target 0.1", lastRMS)
	}
}

func TestRMSAGCGainStaysWithinBounds(t *testing.T) {
	agc := NewRMSAGC(0.1, 0.5, 0.5, 0.2, 5.0)
	for i := 0; i < 1000; i++ {
		agc.Process(0.0001)
	}
	if agc.gain > 5.0 || agc.gain < 0.2 {
		t.Fatalf("gain = %v, want within [0.2, 5.0]", agc.gain)
	}
}

func TestRMSAGCResetRestoresUnityGain(t *testing.T) {
	agc := NewRMSAGC(0.1, 0.5, 0.01, 0.1, 10.0)
	for i := 0; i < 100; i++ {
		agc.Process(1.0)
	}
	agc.Reset()
	if agc.gain != 1.0 {
		t.Fatalf("gain after Reset() = %v, want 1.0", agc.gain)
	}
}
