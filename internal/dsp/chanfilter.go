package dsp

import (
	"math"
	"sort"
)

const (
	// TransFrac is the fraction of the passband width used for the
	// raised-cosine transition on either edge of the mask.
	TransFrac = 0.30
	// OOBRejectDB is the stop-band floor applied by the mask, expressed in
	// dB below the passband (linear amplitude, not power).
	OOBRejectDB = -15.0
	// oobBloomThreshold is the fraction of out-of-band bins that must be
	// present before stage 1 anti-blooming runs at all.
	oobBloomThreshold = 0.05
	// oobBloomCapDB is how far above the OOB median a bin may rise before
	// stage 1 caps its magnitude.
	oobBloomCapDB = 6.0
)

// ChanFilterRange is an absolute-frequency passband request.
type ChanFilterRange struct {
	StartHz float64
	EndHz   float64
}

// chanFilterShape is the per-size cached mask and bookkeeping for one
// {N, fc, fs, start, end} combination.
type chanFilterShape struct {
	mask []complex128
}

// ChanFilterCache memoizes mask computation keyed by input size and filter
// parameters. It is not safe for concurrent use; each goroutine that needs a
// channel filter (the orchestrator cycle, the audio worker) owns its own
// instance, per the spec's single-threaded-cache design.
type ChanFilterCache struct {
	shapes map[chanFilterKey]*chanFilterShape
}

type chanFilterKey struct {
	n                int
	fc, fs           float64
	startHz, endHz   float64
}

// NewChanFilterCache constructs an empty cache.
func NewChanFilterCache() *ChanFilterCache {
	return &ChanFilterCache{shapes: make(map[chanFilterKey]*chanFilterShape)}
}

// ApplyInPlaceAbs runs the two-stage frequency-domain channel filter over
// block: stage 1 anti-blooming via an out-of-band median cap, then stage 2
// raised-cosine masking, center frequency fc, sample rate fs, and the
// absolute passband rng. The result overwrites block.
func (c *ChanFilterCache) ApplyInPlaceAbs(block []complex128, fc, fs float64, rng ChanFilterRange) {
	n := len(block)
	if n == 0 {
		return
	}

	fi := rng.StartHz - fc
	ff := rng.EndHz - fc
	if fi > ff {
		fi, ff = ff, fi
	}
	if fi < -fs/2 {
		fi = -fs / 2
	}
	if ff > fs/2 {
		ff = fs / 2
	}

	key := chanFilterKey{n: n, fc: fc, fs: fs, startHz: rng.StartHz, endHz: rng.EndHz}
	shape, ok := c.shapes[key]
	if !ok {
		shape = &chanFilterShape{mask: buildRaisedCosineMask(n, fs, fi, ff)}
		c.shapes[key] = shape
	}

	spectrum := FFT(block)
	applyAntiBlooming(spectrum, n, fs, fi, ff)

	for i := range spectrum {
		spectrum[i] *= shape.mask[i]
	}

	result := IFFT(spectrum)
	copy(block, result)
}

// LastRegion classifies the passband relative to DC: "positive" when it
// lies entirely above 0 Hz baseband, "negative" when entirely below, and
// "cross-dc" when it straddles 0 Hz.
func LastRegion(fi, ff float64) string {
	switch {
	case fi >= 0:
		return "positive"
	case ff <= 0:
		return "negative"
	default:
		return "cross-dc"
	}
}

func applyAntiBlooming(spectrum []complex128, n int, fs, fi, ff float64) {
	mags := make([]float64, 0, n)
	oobIdx := make([]int, 0, n)
	for i, v := range spectrum {
		freq := binFrequency(i, n, fs)
		if freq < fi || freq > ff {
			mags = append(mags, cmplxAbs(v))
			oobIdx = append(oobIdx, i)
		}
	}
	if len(oobIdx) == 0 || float64(len(oobIdx))/float64(n) < oobBloomThreshold {
		return
	}

	sorted := append([]float64(nil), mags...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	capMag := median * math.Pow(10, oobBloomCapDB/20)

	for k, i := range oobIdx {
		mag := mags[k]
		if mag > capMag && mag > 0 {
			scale := capMag / mag
			spectrum[i] *= complex(scale, 0)
		}
	}
}

func buildRaisedCosineMask(n int, fs, fi, ff float64) []complex128 {
	mask := make([]complex128, n)
	band := ff - fi
	trans := band * TransFrac
	stop := math.Pow(10, OOBRejectDB/20)

	for i := range mask {
		freq := binFrequency(i, n, fs)
		var gain float64
		switch {
		case freq >= fi && freq <= ff:
			gain = 1.0
		case freq >= fi-trans && freq < fi:
			t := (freq - (fi - trans)) / trans
			gain = stop + (1-stop)*0.5*(1-math.Cos(math.Pi*t))
		case freq > ff && freq <= ff+trans:
			t := (ff + trans - freq) / trans
			gain = stop + (1-stop)*0.5*(1-math.Cos(math.Pi*t))
		default:
			gain = stop
		}
		mask[i] = complex(gain, 0)
	}
	return mask
}

// binFrequency returns the baseband frequency (relative to center) of FFT
// bin i in an unshifted, natural-order transform of length n.
func binFrequency(i, n int, fs float64) float64 {
	if i <= n/2 {
		return float64(i) * fs / float64(n)
	}
	return float64(i-n) * fs / float64(n)
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
