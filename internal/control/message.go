package control

import (
	"encoding/json"
	"fmt"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/config"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/spectral"
)

// ResultMessage is the outbound wire document. Every cycle populates
// StartFreqHz/EndFreqHz/Pxx; FM/AM cycles additionally populate
// ExcursionHz or DepthPercent alongside Pxx.
type ResultMessage struct {
	StartFreqHz  float64   `json:"start_freq_hz"`
	EndFreqHz    float64   `json:"end_freq_hz"`
	Pxx          []float64 `json:"Pxx"`
	ExcursionHz  *float64  `json:"excursion_hz,omitempty"`
	DepthPercent *float64  `json:"depth,omitempty"`
}

// FromPsdResult builds a PSD-mode ResultMessage.
func FromPsdResult(r spectral.PsdResult) ResultMessage {
	return ResultMessage{
		StartFreqHz: r.StartFreqHz,
		EndFreqHz:   r.EndFreqHz,
		Pxx:         r.Pxx,
	}
}

// FromFMMetrics builds an FM-mode ResultMessage carrying r's Pxx alongside
// the discriminator excursion metric.
func FromFMMetrics(r spectral.PsdResult, excursionHz float64) ResultMessage {
	return ResultMessage{
		StartFreqHz: r.StartFreqHz,
		EndFreqHz:   r.EndFreqHz,
		Pxx:         r.Pxx,
		ExcursionHz: &excursionHz,
	}
}

// FromAMMetrics builds an AM-mode ResultMessage carrying r's Pxx alongside
// the modulation depth metric.
func FromAMMetrics(r spectral.PsdResult, depthPercent float64) ResultMessage {
	return ResultMessage{
		StartFreqHz:  r.StartFreqHz,
		EndFreqHz:    r.EndFreqHz,
		Pxx:          r.Pxx,
		DepthPercent: &depthPercent,
	}
}

// Marshal encodes a ResultMessage as the outbound JSON document.
func Marshal(msg ResultMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("control: marshaling result: %w", err)
	}
	return data, nil
}

// ParseInbound decodes an inbound control message into a DesiredConfig,
// applying the full set of documented defaults and case-insensitive enum
// matching (delegated to internal/config).
func ParseInbound(data []byte) (config.DesiredConfig, error) {
	return config.ParseDesiredConfig(data)
}
