package control

import (
	"encoding/json"
	"testing"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/spectral"
)

func TestFromPsdResultMarshalsPxx(t *testing.T) {
	r := spectral.PsdResult{StartFreqHz: 97_000_000, EndFreqHz: 99_000_000, Pxx: []float64{-98.3, -97.1}}
	msg := FromPsdResult(r)

	data, err := Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if decoded["start_freq_hz"] != 97_000_000.0 {
		t.Fatalf("start_freq_hz = %v, want 97000000", decoded["start_freq_hz"])
	}
	if _, ok := decoded["excursion_hz"]; ok {
		t.Fatal("excursion_hz present in PSD-mode message, want omitted")
	}
}

func TestFromFMMetricsOmitsDepth(t *testing.T) {
	r := spectral.PsdResult{StartFreqHz: 97_000_000, EndFreqHz: 99_000_000, Pxx: []float64{-90.0, -91.5}}
	msg := FromFMMetrics(r, 38_214.5)
	data, _ := Marshal(msg)

	var decoded map[string]any
	json.Unmarshal(data, &decoded)
	if _, ok := decoded["depth"]; ok {
		t.Fatal("depth present in FM-mode message, want omitted")
	}
	if decoded["excursion_hz"] != 38214.5 {
		t.Fatalf("excursion_hz = %v, want 38214.5", decoded["excursion_hz"])
	}
	pxx, ok := decoded["Pxx"].([]any)
	if !ok || len(pxx) != 2 {
		t.Fatalf("Pxx = %v, want the 2-bin PSD result carried through", decoded["Pxx"])
	}
}

func TestFromAMMetricsCarriesPxx(t *testing.T) {
	r := spectral.PsdResult{StartFreqHz: 97_000_000, EndFreqHz: 99_000_000, Pxx: []float64{-90.0, -91.5}}
	msg := FromAMMetrics(r, 42.7)
	data, _ := Marshal(msg)

	var decoded map[string]any
	json.Unmarshal(data, &decoded)
	if _, ok := decoded["excursion_hz"]; ok {
		t.Fatal("excursion_hz present in AM-mode message, want omitted")
	}
	if decoded["depth"] != 42.7 {
		t.Fatalf("depth = %v, want 42.7", decoded["depth"])
	}
	pxx, ok := decoded["Pxx"].([]any)
	if !ok || len(pxx) != 2 {
		t.Fatalf("Pxx = %v, want the 2-bin PSD result carried through", decoded["Pxx"])
	}
}

func TestParseInboundDefaultsMissingFields(t *testing.T) {
	cfg, err := ParseInbound([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseInbound() error = %v", err)
	}
	if cfg.CenterFreqHz != 98_000_000 {
		t.Fatalf("CenterFreqHz = %d, want default 98000000", cfg.CenterFreqHz)
	}
}
