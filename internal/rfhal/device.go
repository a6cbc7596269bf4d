// Package rfhal abstracts the RF front-end hardware behind a single
// streaming interface so the orchestrator (C3) never talks to gousb
// directly. A real device streams raw interleaved int8 IQ bytes off a bulk
// endpoint; the simulator backend synthesizes the same byte shape so the
// rest of the pipeline runs unchanged without hardware attached.
package rfhal

import (
	"context"
	"fmt"
)

// TuneRequest carries the parameters a retune needs. Fields mirror
// config.DesiredConfig's hardware-facing subset; rfhal does not import
// config to keep the HAL boundary narrow.
type TuneRequest struct {
	CenterFreqHz uint64
	SampleRateHz float64
	LNAGain      int
	VGAGain      int
	AmpEnabled   bool
}

// RFDevice is the hardware abstraction C3 (the orchestrator) drives. A
// single device is tuned once per retune and then streamed from
// continuously; Tune may be called again while streaming to retune in
// place on devices that support it; on other devices streaming is stopped
// first by canceling the context passed to StartRX.
type RFDevice interface {
	// Open claims the device and prepares it for streaming.
	Open() error
	// Tune applies a new center frequency, sample rate and gain stage.
	Tune(req TuneRequest) error
	// StartRX begins streaming raw IQ bytes into out. StartRX blocks until
	// ctx is canceled or an unrecoverable read error occurs.
	StartRX(ctx context.Context, out chan<- []byte) error
	// Close releases the device.
	Close() error
}

// ErrNoDevice is returned by Open implementations when no matching
// hardware is present on the bus.
var ErrNoDevice = fmt.Errorf("rfhal: no matching device found")
