// Package config defines the wire-level DesiredConfig document, its
// derivation into DerivedConfig, and the defaulting/validation rules the
// control plane applies to every inbound message.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
)

// Mode selects the acquisition/demodulation mode.
type Mode int

const (
	ModePSD Mode = iota
	ModeFM
	ModeAM
)

func (m Mode) String() string {
	switch m {
	case ModeFM:
		return "fm"
	case ModeAM:
		return "am"
	default:
		return "psd"
	}
}

// ParseMode maps a case-insensitive wire string to a Mode, defaulting to PSD
// for anything unrecognized.
func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "fm":
		return ModeFM
	case "am":
		return ModeAM
	case "psd":
		return ModePSD
	default:
		return ModePSD
	}
}

// PSDMethod selects the spectral estimator implementation.
type PSDMethod int

const (
	MethodWelch PSDMethod = iota
	MethodPFB
)

// ParsePSDMethod maps a case-insensitive wire string to a PSDMethod,
// defaulting to Welch.
func ParsePSDMethod(s string) PSDMethod {
	if strings.ToLower(s) == "pfb" {
		return MethodPFB
	}
	return MethodWelch
}

// FilterRange is an absolute-frequency passband request.
type FilterRange struct {
	StartFreqHz float64 `json:"start_freq_hz"`
	EndFreqHz   float64 `json:"end_freq_hz"`
}

// Defaults match the documented fallback values applied to any field
// omitted from an inbound control-plane message.
const (
	DefaultCenterFreqHz = 98_000_000.0
	DefaultSampleRateHz = 8_000_000.0
	DefaultRBWHz        = 100_000.0
	ZeroRBWFallbackHz   = 1_000.0
	DefaultAntennaPort  = 1
	MinNperseg          = 256
)

// wireConfig mirrors the inbound JSON document exactly (field names and
// optionality); DesiredConfig is derived from it after defaulting.
type wireConfig struct {
	RFMode        string       `json:"rf_mode"`
	MethodPSD     string       `json:"method_psd"`
	CenterFreqHz  *uint64      `json:"center_freq_hz"`
	SampleRateHz  *float64     `json:"sample_rate_hz"`
	RBWHz         *int         `json:"rbw_hz"`
	Overlap       *float64     `json:"overlap"`
	Window        string       `json:"window"`
	LNAGain       *int         `json:"lna_gain"`
	VGAGain       *int         `json:"vga_gain"`
	AntennaAmp    *bool        `json:"antenna_amp"`
	AntennaPort   *int         `json:"antenna_port"`
	PPMError      *int         `json:"ppm_error"`
	Scale         string       `json:"scale"`
	FilterEnabled bool         `json:"-"`
	Filter        *FilterRange `json:"filter"`
}

// DesiredConfig is the validated, defaulted acquisition request.
type DesiredConfig struct {
	Mode         Mode
	PSDMethod    PSDMethod
	CenterFreqHz uint64
	SampleRateHz float64
	LNAGain      int
	VGAGain      int
	AmpEnabled   bool
	PPMError     int
	AntennaPort  int
	RBWHz        int
	Overlap      float64
	WindowType   dsp.WindowType
	Scale        string

	FilterEnabled bool
	FilterRange   FilterRange
}

// ParseDesiredConfig decodes and defaults an inbound JSON control message.
// Unknown/omitted fields fall back to the documented defaults; unknown
// enumerated strings fall back per §8's boundary rules (window -> Hamming,
// rf_mode -> PSD).
func ParseDesiredConfig(data []byte) (DesiredConfig, error) {
	var w wireConfig
	if err := json.Unmarshal(data, &w); err != nil {
		return DesiredConfig{}, fmt.Errorf("config: invalid JSON: %w", err)
	}

	cfg := DesiredConfig{
		Mode:         ParseMode(w.RFMode),
		PSDMethod:    ParsePSDMethod(w.MethodPSD),
		CenterFreqHz: DefaultCenterFreqHz,
		SampleRateHz: DefaultSampleRateHz,
		AmpEnabled:   true,
		AntennaPort:  DefaultAntennaPort,
		RBWHz:        int(DefaultRBWHz),
		Overlap:      0,
		WindowType:   dsp.ParseWindow(w.Window),
		Scale:        "dbm",
	}

	if w.CenterFreqHz != nil {
		cfg.CenterFreqHz = *w.CenterFreqHz
	}
	if w.SampleRateHz != nil {
		cfg.SampleRateHz = *w.SampleRateHz
	}
	if w.RBWHz != nil {
		cfg.RBWHz = *w.RBWHz
	}
	if cfg.RBWHz <= 0 {
		cfg.RBWHz = int(ZeroRBWFallbackHz)
	}
	if w.Overlap != nil {
		cfg.Overlap = *w.Overlap
	}
	if w.LNAGain != nil {
		cfg.LNAGain = *w.LNAGain
	}
	if w.VGAGain != nil {
		cfg.VGAGain = *w.VGAGain
	}
	if w.AntennaAmp != nil {
		cfg.AmpEnabled = *w.AntennaAmp
	}
	if w.AntennaPort != nil {
		cfg.AntennaPort = *w.AntennaPort
	}
	if w.PPMError != nil {
		cfg.PPMError = *w.PPMError
	}
	if w.Scale != "" {
		s := strings.ToLower(w.Scale)
		if s != "dbm" {
			// Accepted for forward compatibility; only dBm is wired to
			// behavior (see §9).
			cfg.Scale = s
		}
	}

	if w.Filter != nil {
		cfg.FilterEnabled = true
		cfg.FilterRange = clipFilterRange(*w.Filter, cfg.CenterFreqHz, cfg.SampleRateHz)
	}

	return cfg, nil
}

func clipFilterRange(r FilterRange, centerHz uint64, fs float64) FilterRange {
	lo := float64(centerHz) - fs/2
	hi := float64(centerHz) + fs/2
	if r.StartFreqHz < lo {
		r.StartFreqHz = lo
	}
	if r.EndFreqHz > hi {
		r.EndFreqHz = hi
	}
	if r.StartFreqHz > r.EndFreqHz {
		r.StartFreqHz, r.EndFreqHz = r.EndFreqHz, r.StartFreqHz
	}
	return r
}

// DerivedConfig is computed deterministically from a DesiredConfig.
type DerivedConfig struct {
	Nperseg          int
	Noverlap         int
	AcquisitionBytes int
}

// Derive computes nperseg, noverlap and the per-cycle acquisition size from
// a validated DesiredConfig.
func Derive(cfg DesiredConfig) DerivedConfig {
	enbw := dsp.ENBW(cfg.WindowType)
	target := enbw * cfg.SampleRateHz / float64(cfg.RBWHz)
	exp := math.Ceil(math.Log2(target))
	nperseg := int(math.Pow(2, exp))
	if nperseg < MinNperseg {
		nperseg = MinNperseg
	}

	overlap := cfg.Overlap
	if overlap >= 1 {
		overlap = float64(nperseg-1) / float64(nperseg)
	}
	noverlap := int(float64(nperseg) * overlap)
	if noverlap >= nperseg {
		noverlap = nperseg - 1
	}
	if noverlap < 0 {
		noverlap = 0
	}

	acquisitionBytes := int(cfg.SampleRateHz * 2)

	return DerivedConfig{
		Nperseg:          nperseg,
		Noverlap:         noverlap,
		AcquisitionBytes: acquisitionBytes,
	}
}

// HardwareState is the last successfully applied tuning, used to drive the
// lazy-retune predicate.
type HardwareState struct {
	Valid        bool
	CenterFreqHz uint64
	SampleRateHz float64
	LNAGain      int
	VGAGain      int
}

// NeedsRetune reports whether cfg differs from the last applied hardware
// state in any field that requires a physical retune.
func (h HardwareState) NeedsRetune(cfg DesiredConfig) bool {
	if !h.Valid {
		return true
	}
	return h.CenterFreqHz != cfg.CenterFreqHz ||
		h.SampleRateHz != cfg.SampleRateHz ||
		h.LNAGain != cfg.LNAGain ||
		h.VGAGain != cfg.VGAGain
}

// CorrectedFrequency applies the ppm correction:
// f_corrected = f_target * (1 + ppm/1e6).
func CorrectedFrequency(targetHz uint64, ppm int) uint64 {
	corrected := float64(targetHz) * (1 + float64(ppm)/1e6)
	return uint64(math.Round(corrected))
}
