package dsp

import "math"

// Biquad is an RBJ lowpass section in Direct Form II transposed, the same
// structure used for the FM/AM audio filters and for each section of the
// channel-filter Butterworth cascade.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// NewLowpass designs an RBJ lowpass biquad at cutoff fc (Hz), sample rate fs
// (Hz) and quality factor q. fc is clamped to (0, 0.49*fs] and q to >= 0.05
// to keep the pole radius inside the unit circle.
func NewLowpass(fs, fc, q float64) *Biquad {
	if fc <= 0 {
		fc = 1
	}
	if fc > 0.49*fs {
		fc = 0.49 * fs
	}
	if q < 0.05 {
		q = 0.05
	}

	w0 := 2 * math.Pi * (fc / fs)
	c := math.Cos(w0)
	s := math.Sin(w0)
	alpha := s / (2 * q)

	b0 := (1 - c) * 0.5
	b1 := 1 - c
	b2 := (1 - c) * 0.5
	a0 := 1 + alpha
	a1 := -2 * c
	a2 := 1 - alpha

	return &Biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// Process runs one sample through the section, Direct Form II transposed.
func (b *Biquad) Process(x float64) float64 {
	y := b.b0*x + b.z1
	b.z1 = b.b1*x - b.a1*y + b.z2
	b.z2 = b.b2*x - b.a2*y
	return y
}

// Reset zeroes the filter memory without changing the coefficients.
func (b *Biquad) Reset() {
	b.z1, b.z2 = 0, 0
}

// ButterworthQ returns the quality factor of the k-th (1-indexed) second
// order section of an N-pole Butterworth lowpass cascade, following the
// standard pole-pair placement on the unit circle.
func ButterworthQ(n, k int) float64 {
	theta := math.Pi * (2*float64(k) - 1) / (2 * float64(n))
	return 1 / (2 * math.Cos(theta))
}

// DCBlocker implements the one-pole y[n] = x[n] - x[n-1] + r*y[n-1]
// difference equation used in the FM and AM audio chains.
type DCBlocker struct {
	r      float64
	x1, y1 float64
}

// NewDCBlocker builds a DC blocker with the given pole radius (both audio
// demodulators use 0.995).
func NewDCBlocker(r float64) *DCBlocker {
	return &DCBlocker{r: r}
}

func (d *DCBlocker) Process(x float64) float64 {
	y := x - d.x1 + d.r*d.y1
	d.x1 = x
	d.y1 = y
	return y
}

func (d *DCBlocker) Reset() {
	d.x1, d.y1 = 0, 0
}

// Cascade is an order/2 Butterworth lowpass built from RBJ sections, applied
// independently to the I and Q rails of a complex IQ stream (the channel
// filter, C6). Order is clamped to [2, 12] and forced even.
type Cascade struct {
	sectionsI []*Biquad
	sectionsQ []*Biquad
	fs        float64
	fc        float64
	order     int
}

// NewCascade configures a cascade for the given sample rate and -3dB cutoff
// bw/2 (bw is the channel bandwidth), clamping order to an even value in
// [2, 12].
func NewCascade(fs, bw float64, order int) *Cascade {
	if order < 2 {
		order = 2
	}
	if order > 12 {
		order = 12
	}
	if order%2 != 0 {
		order++
	}
	fc := bw / 2
	if fc > 0.49*fs {
		fc = 0.49 * fs
	}

	sections := order / 2
	c := &Cascade{fs: fs, fc: fc, order: order}
	for k := 1; k <= sections; k++ {
		q := ButterworthQ(order, k)
		c.sectionsI = append(c.sectionsI, NewLowpass(fs, fc, q))
		c.sectionsQ = append(c.sectionsQ, NewLowpass(fs, fc, q))
	}
	return c
}

// ApplyInPlace runs the cascade over every sample of block, processing I and
// Q through their own independent section chains.
func (c *Cascade) ApplyInPlace(block []complex128) {
	for i, x := range block {
		re, im := real(x), imag(x)
		for _, sec := range c.sectionsI {
			re = sec.Process(re)
		}
		for _, sec := range c.sectionsQ {
			im = sec.Process(im)
		}
		block[i] = complex(re, im)
	}
}

// Reset clears all section memory without redesigning coefficients.
func (c *Cascade) Reset() {
	for _, sec := range c.sectionsI {
		sec.Reset()
	}
	for _, sec := range c.sectionsQ {
		sec.Reset()
	}
}
