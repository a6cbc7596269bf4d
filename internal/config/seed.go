package config

import (
	"fmt"
	"os"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
	"gopkg.in/yaml.v3"
)

// seedDocument mirrors the subset of DesiredConfig fields an operator might
// want to pre-populate in a local defaults file, read once at startup before
// the first control-plane message arrives.
type seedDocument struct {
	RFMode       string  `yaml:"rf_mode"`
	MethodPSD    string  `yaml:"method_psd"`
	CenterFreqHz uint64  `yaml:"center_freq_hz"`
	SampleRateHz float64 `yaml:"sample_rate_hz"`
	RBWHz        int     `yaml:"rbw_hz"`
	Overlap      float64 `yaml:"overlap"`
	Window       string  `yaml:"window"`
	LNAGain      int     `yaml:"lna_gain"`
	VGAGain      int     `yaml:"vga_gain"`
	AntennaAmp   *bool   `yaml:"antenna_amp"`
	AntennaPort  int     `yaml:"antenna_port"`
	PPMError     int     `yaml:"ppm_error"`
}

// SeedFromFile loads a YAML defaults document (SDR_ENGINE_DEFAULTS) and
// converts it into a DesiredConfig, filling a missing field with the same
// default a wire message gets (an rbw_hz of 0 counts as missing here).
func SeedFromFile(path string) (DesiredConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DesiredConfig{}, fmt.Errorf("config: reading defaults file: %w", err)
	}

	var doc seedDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return DesiredConfig{}, fmt.Errorf("config: parsing defaults file: %w", err)
	}

	cfg := DesiredConfig{
		Mode:         ParseMode(doc.RFMode),
		PSDMethod:    ParsePSDMethod(doc.MethodPSD),
		CenterFreqHz: DefaultCenterFreqHz,
		SampleRateHz: DefaultSampleRateHz,
		AmpEnabled:   true,
		AntennaPort:  DefaultAntennaPort,
		RBWHz:        int(DefaultRBWHz),
		WindowType:   dsp.ParseWindow(doc.Window),
		Scale:        "dbm",
	}

	if doc.CenterFreqHz != 0 {
		cfg.CenterFreqHz = doc.CenterFreqHz
	}
	if doc.SampleRateHz != 0 {
		cfg.SampleRateHz = doc.SampleRateHz
	}
	if doc.RBWHz != 0 {
		cfg.RBWHz = doc.RBWHz
	}
	cfg.Overlap = doc.Overlap
	cfg.LNAGain = doc.LNAGain
	cfg.VGAGain = doc.VGAGain
	if doc.AntennaAmp != nil {
		cfg.AmpEnabled = *doc.AntennaAmp
	}
	if doc.AntennaPort != 0 {
		cfg.AntennaPort = doc.AntennaPort
	}
	cfg.PPMError = doc.PPMError

	return cfg, nil
}
