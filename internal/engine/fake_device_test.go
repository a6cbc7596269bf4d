package engine

import (
	"context"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/rfhal"
)

// fakeDevice is a minimal rfhal.RFDevice used to drive the orchestrator
// state machine deterministically in tests, without touching hardware.
type fakeDevice struct {
	openCalls int
	openErr   error
	tuned     rfhal.TuneRequest
	tuneErr   error
	rxData    [][]byte
}

func (f *fakeDevice) Open() error {
	f.openCalls++
	return f.openErr
}

func (f *fakeDevice) Tune(req rfhal.TuneRequest) error {
	f.tuned = req
	return f.tuneErr
}

func (f *fakeDevice) StartRX(ctx context.Context, out chan<- []byte) error {
	for _, chunk := range f.rxData {
		select {
		case out <- chunk:
		case <-ctx.Done():
			return nil
		}
	}
	<-ctx.Done()
	return nil
}

func (f *fakeDevice) Close() error { return nil }
