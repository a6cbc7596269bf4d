package dsp

import (
	"math"
	"testing"
)

func TestCompensateIQRemovesDCOffset(t *testing.T) {
	n := 1000
	block := make([]complex128, n)
	for i := range block {
		block[i] = complex(5+math.Sin(float64(i)*0.1), -3+math.Cos(float64(i)*0.1))
	}

	CompensateIQ(block)

	var sumI, sumQ float64
	for _, x := range block {
		sumI += real(x)
		sumQ += imag(x)
	}
	meanI, meanQ := sumI/float64(n), sumQ/float64(n)
	if math.Abs(meanI) > 0.1 || math.Abs(meanQ) > 0.1 {
		t.Fatalf("post-compensation means = (%v, %v), want near 0", meanI, meanQ)
	}
}

func TestCompensateIQBalancesGain(t *testing.T) {
	n := 2000
	block := make([]complex128, n)
	for i := range block {
		phase := float64(i) * 0.05
		block[i] = complex(math.Sin(phase), 0.2*math.Cos(phase))
	}

	CompensateIQ(block)

	var sumI2, sumQ2 float64
	for _, x := range block {
		sumI2 += real(x) * real(x)
		sumQ2 += imag(x) * imag(x)
	}
	ratio := sumI2 / sumQ2
	if math.Abs(ratio-1.0) > 0.05 {
		t.Fatalf("power ratio after gain balance = %v, want approx 1.0", ratio)
	}
}

func TestCompensateIQHandlesEmptyBlock(t *testing.T) {
	var block []complex128
	CompensateIQ(block) // must not panic
}
