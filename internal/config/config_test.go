package config

import (
	"testing"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/dsp"
)

func TestParseDesiredConfigScenario1(t *testing.T) {
	raw := []byte(`{"rf_mode":"psd","center_freq_hz":100000000,"sample_rate_hz":2000000,
		"rbw_hz":10000,"overlap":0.5,"window":"hann","lna_gain":16,"vga_gain":20,
		"antenna_amp":false,"antenna_port":1}`)

	cfg, err := ParseDesiredConfig(raw)
	if err != nil {
		t.Fatalf("ParseDesiredConfig() error = %v", err)
	}
	if cfg.Mode != ModePSD {
		t.Fatalf("Mode = %v, want PSD", cfg.Mode)
	}
	if cfg.CenterFreqHz != 100_000_000 {
		t.Fatalf("CenterFreqHz = %d, want 100000000", cfg.CenterFreqHz)
	}
	if cfg.WindowType != dsp.WindowHann {
		t.Fatalf("WindowType = %v, want Hann", cfg.WindowType)
	}

	derived := Derive(cfg)
	if derived.Nperseg != 512 {
		t.Fatalf("Nperseg = %d, want 512 (Hann ENBW 1.5, fs/rbw 200)", derived.Nperseg)
	}
}

func TestUnknownWindowDefaultsToHamming(t *testing.T) {
	cfg, err := ParseDesiredConfig([]byte(`{"window":"not-a-real-window"}`))
	if err != nil {
		t.Fatalf("ParseDesiredConfig() error = %v", err)
	}
	if cfg.WindowType != dsp.WindowHamming {
		t.Fatalf("WindowType = %v, want Hamming fallback", cfg.WindowType)
	}
}

func TestUnknownModeDefaultsToPSD(t *testing.T) {
	cfg, err := ParseDesiredConfig([]byte(`{"rf_mode":"not-a-real-mode"}`))
	if err != nil {
		t.Fatalf("ParseDesiredConfig() error = %v", err)
	}
	if cfg.Mode != ModePSD {
		t.Fatalf("Mode = %v, want PSD fallback", cfg.Mode)
	}
}

func TestZeroRBWFallsBackTo1000Hz(t *testing.T) {
	cfg, err := ParseDesiredConfig([]byte(`{"rbw_hz":0}`))
	if err != nil {
		t.Fatalf("ParseDesiredConfig() error = %v", err)
	}
	if cfg.RBWHz != 1000 {
		t.Fatalf("RBWHz = %d, want 1000", cfg.RBWHz)
	}
}

func TestOverlapClampedBelowOne(t *testing.T) {
	cfg, _ := ParseDesiredConfig([]byte(`{"sample_rate_hz":2000000,"rbw_hz":10000,"overlap":1.5,"window":"hann"}`))
	derived := Derive(cfg)
	if derived.Noverlap >= derived.Nperseg {
		t.Fatalf("Noverlap = %d, must be < Nperseg = %d", derived.Noverlap, derived.Nperseg)
	}
}

func TestFilterRangeClippedToNyquist(t *testing.T) {
	cfg, err := ParseDesiredConfig([]byte(`{"center_freq_hz":100000000,"sample_rate_hz":2000000,
		"filter":{"start_freq_hz":98500000,"end_freq_hz":101500000}}`))
	if err != nil {
		t.Fatalf("ParseDesiredConfig() error = %v", err)
	}
	if cfg.FilterRange.StartFreqHz != 99_000_000 || cfg.FilterRange.EndFreqHz != 101_000_000 {
		t.Fatalf("FilterRange = %+v, want clipped to {99000000, 101000000}", cfg.FilterRange)
	}
}

func TestHardwareStateNeedsRetune(t *testing.T) {
	var h HardwareState
	cfg := DesiredConfig{CenterFreqHz: 100_000_000, SampleRateHz: 2_000_000}
	if !h.NeedsRetune(cfg) {
		t.Fatal("NeedsRetune() = false for empty HardwareState, want true")
	}

	h = HardwareState{Valid: true, CenterFreqHz: cfg.CenterFreqHz, SampleRateHz: cfg.SampleRateHz}
	if h.NeedsRetune(cfg) {
		t.Fatal("NeedsRetune() = true for identical config, want false")
	}

	cfg.CenterFreqHz = 200_000_000
	if !h.NeedsRetune(cfg) {
		t.Fatal("NeedsRetune() = false after center freq change, want true")
	}
}

func TestCorrectedFrequency(t *testing.T) {
	got := CorrectedFrequency(100_000_000, 10)
	want := uint64(100_001_000)
	if got != want {
		t.Fatalf("CorrectedFrequency() = %d, want %d", got, want)
	}
}
