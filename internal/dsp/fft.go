package dsp

import "math"

// FFT computes the forward discrete Fourier transform of x, returning a new
// slice of the same length. Power-of-two lengths use radix-2 Cooley-Tukey
// directly; other lengths fall back to Bluestein's algorithm.
func FFT(x []complex128) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}
	if isPowerOfTwo(n) {
		out := make([]complex128, n)
		copy(out, x)
		fftRadix2(out, false)
		return out
	}
	return bluestein(x, false)
}

// IFFT computes the inverse discrete Fourier transform of x, normalized by
// 1/n, returning a new slice of the same length.
func IFFT(x []complex128) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}
	var out []complex128
	if isPowerOfTwo(n) {
		out = make([]complex128, n)
		copy(out, x)
		fftRadix2(out, true)
	} else {
		out = bluestein(x, true)
	}
	inv := 1 / float64(n)
	for i := range out {
		out[i] *= complex(inv, 0)
	}
	return out
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// fftRadix2 transforms buf in place using iterative Cooley-Tukey. inverse
// selects the sign of the twiddle exponent; normalization is the caller's
// responsibility.
func fftRadix2(buf []complex128, inverse bool) {
	n := len(buf)
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}

	sign := -1.0
	if inverse {
		sign = 1.0
	}

	for length := 2; length <= n; length <<= 1 {
		angle := sign * 2 * math.Pi / float64(length)
		wlen := complex(math.Cos(angle), math.Sin(angle))
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			half := length / 2
			for k := 0; k < half; k++ {
				u := buf[i+k]
				v := buf[i+k+half] * w
				buf[i+k] = u + v
				buf[i+k+half] = u - v
				w *= wlen
			}
		}
	}
}

// bluestein computes the DFT of arbitrary-length x via the chirp-z
// transform: a convolution with a quadratic-phase chirp, evaluated through
// a power-of-two radix-2 FFT.
func bluestein(x []complex128, inverse bool) []complex128 {
	n := len(x)
	sign := -1.0
	if inverse {
		sign = 1.0
	}

	m := 1
	for m < 2*n+1 {
		m <<= 1
	}

	chirp := make([]complex128, n)
	for k := 0; k < n; k++ {
		angle := sign * math.Pi * float64(k) * float64(k) / float64(n)
		chirp[k] = complex(math.Cos(angle), math.Sin(angle))
	}

	a := make([]complex128, m)
	for k := 0; k < n; k++ {
		a[k] = x[k] * chirp[k]
	}
	b := make([]complex128, m)
	b[0] = cmplxConj(chirp[0])
	for k := 1; k < n; k++ {
		c := cmplxConj(chirp[k])
		b[k] = c
		b[m-k] = c
	}

	fa := make([]complex128, m)
	copy(fa, a)
	fftRadix2(fa, false)
	fb := make([]complex128, m)
	copy(fb, b)
	fftRadix2(fb, false)
	for i := range fa {
		fa[i] *= fb[i]
	}
	fftRadix2(fa, true)
	invM := 1 / float64(m)
	for i := range fa {
		fa[i] *= complex(invM, 0)
	}

	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		out[k] = fa[k] * chirp[k]
	}
	return out
}

func cmplxConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

// FFTShift swaps the two halves of buf in place so that index 0 becomes the
// most negative frequency bin, matching the spectral estimator's output
// convention. Applying it twice is the identity.
func FFTShift(buf []float64) {
	n := len(buf)
	half := n / 2
	for i := 0; i < half; i++ {
		j := i + (n - half)
		buf[i], buf[j] = buf[j], buf[i]
	}
}
