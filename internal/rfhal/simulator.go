package rfhal

import (
	"context"
	"math"
	"time"
)

// SimulatorDevice synthesizes interleaved int8 IQ bytes so the engine can
// run end to end without hardware attached. Selected when RF_DEVICE_SIM is
// set. It emits a single tone offset from center plus a small noise floor,
// shaped at roughly the same cadence a real acquisition cycle would
// deliver bytes.
type SimulatorDevice struct {
	toneOffsetHz float64
	tuned        TuneRequest
	chunkBytes   int
	phase        float64
}

// NewSimulatorDevice constructs a simulator that emits a tone toneOffsetHz
// away from whatever center frequency it is tuned to.
func NewSimulatorDevice(toneOffsetHz float64) *SimulatorDevice {
	return &SimulatorDevice{toneOffsetHz: toneOffsetHz, chunkBytes: 1 << 16}
}

// Open is a no-op; the simulator has no hardware to claim.
func (s *SimulatorDevice) Open() error { return nil }

// Tune records the requested center frequency and sample rate so the tone
// generator can compute the right per-sample phase increment.
func (s *SimulatorDevice) Tune(req TuneRequest) error {
	s.tuned = req
	s.phase = 0
	return nil
}

// StartRX generates IQ chunks at roughly the rate a real device would
// deliver them, computed from the tuned sample rate, until ctx is
// canceled.
func (s *SimulatorDevice) StartRX(ctx context.Context, out chan<- []byte) error {
	fs := s.tuned.SampleRateHz
	if fs <= 0 {
		fs = 8_000_000
	}
	samplesPerChunk := s.chunkBytes / 2
	interval := time.Duration(float64(samplesPerChunk) / fs * float64(time.Second))
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	phaseIncrement := 2 * math.Pi * s.toneOffsetHz / fs

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			chunk := make([]byte, s.chunkBytes)
			for i := 0; i < samplesPerChunk; i++ {
				s.phase += phaseIncrement
				if s.phase > 2*math.Pi {
					s.phase -= 2 * math.Pi
				}
				iv := 80 * math.Cos(s.phase)
				qv := 80 * math.Sin(s.phase)
				chunk[2*i] = byte(int8(iv))
				chunk[2*i+1] = byte(int8(qv))
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Close is a no-op.
func (s *SimulatorDevice) Close() error { return nil }
