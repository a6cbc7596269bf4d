package config

import "errors"

var (
	// ErrInvalidSampleRate is returned when sample_rate_hz is non-positive.
	ErrInvalidSampleRate = errors.New("config: sample_rate_hz must be positive")
	// ErrInvalidCenterFreq is returned when center_freq_hz is zero.
	ErrInvalidCenterFreq = errors.New("config: center_freq_hz must be non-zero")
)

// Validate checks a DesiredConfig for the minimal set of invariants that
// must hold before it can be derived and applied to hardware.
func (c DesiredConfig) Validate() error {
	if c.SampleRateHz <= 0 {
		return ErrInvalidSampleRate
	}
	if c.CenterFreqHz == 0 {
		return ErrInvalidCenterFreq
	}
	return nil
}
