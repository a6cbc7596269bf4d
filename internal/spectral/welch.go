package spectral

import (
	"runtime"
	"sync"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
	"golang.org/x/sync/errgroup"
)

// Welch is the classical segment-averaged periodogram estimator.
type Welch struct {
	centerHz float64
	fs       float64
	nperseg  int
	noverlap int
	window   []float64
	u        float64 // (1/nperseg) * sum(window^2)
}

// NewWelch builds a Welch estimator for the given center frequency, sample
// rate, segment length, overlap and window type. The window is generated
// once and reused for every cycle until the caller constructs a new
// estimator for a changed configuration.
func NewWelch(centerHz, fs float64, nperseg, noverlap int, win dsp.WindowType) *Welch {
	w := dsp.Generate(win, nperseg)
	return &Welch{
		centerHz: centerHz,
		fs:       fs,
		nperseg:  nperseg,
		noverlap: noverlap,
		window:   w,
		u:        dsp.NormalizationFactor(w),
	}
}

// Reset is a no-op for Welch: it carries no accumulated state between
// cycles beyond its fixed window, which Reset does not discard.
func (e *Welch) Reset() {}

// Process runs the full Welch estimate over block.
func (e *Welch) Process(block []complex128) PsdResult {
	n := len(block)
	step := e.nperseg - e.noverlap
	if step <= 0 {
		step = 1
	}

	k := (n-e.nperseg)/step + 1
	if k < 1 {
		k = 1
	}

	pxx := make([]float64, e.nperseg)
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for seg := 0; seg < k; seg++ {
		seg := seg
		g.Go(func() error {
			offset := seg * step
			if offset+e.nperseg > n {
				return nil
			}

			windowed := make([]complex128, e.nperseg)
			for i := 0; i < e.nperseg; i++ {
				x := block[offset+i]
				windowed[i] = complex(real(x)*e.window[i], imag(x)*e.window[i])
			}

			spectrum := dsp.FFT(windowed)

			local := make([]float64, e.nperseg)
			for i, c := range spectrum {
				mag := real(c)*real(c) + imag(c)*imag(c)
				local[i] = mag
			}

			mu.Lock()
			for i, v := range local {
				pxx[i] += v
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	norm := 1.0 / (e.fs * e.u * float64(k) * float64(e.nperseg))
	for i := range pxx {
		pxx[i] *= norm
	}

	dsp.FFTShift(pxx)

	for i := range pxx {
		pxx[i] = toDbm(pxx[i] / impedanceOhms)
	}

	start, end := frequencyAxis(e.centerHz, e.fs, e.nperseg)
	return PsdResult{StartFreqHz: start, EndFreqHz: end, Pxx: pxx}
}
