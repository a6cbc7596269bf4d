package rfhal

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

// USB vendor/product identifiers and endpoint numbers for the supported RF
// front end. A single bulk pair (IN for samples, OUT for control/tuning
// commands) covers the streaming dongles this HAL targets.
const (
	VendorID  = 0x1D50
	ProductID = 0x6089

	bulkInEndpoint  = 1
	bulkOutEndpoint = 1

	rxReadSize    = 1 << 16
	rxReadTimeout = 2 * time.Second
	cmdTimeout    = 1 * time.Second
)

// Command bytes sent over the OUT endpoint to apply a retune. A retune is
// three packets: a 9-byte frequency packet (opcode + 8-byte LE center
// frequency), a 9-byte sample-rate packet (opcode + 8-byte LE rate), and a
// separate gain packet.
const (
	opSetFreq  = 0x01
	opSetRate  = 0x02
	opSetGains = 0x03
)

// USBDevice streams IQ samples from a gousb-backed bulk endpoint.
type USBDevice struct {
	mu        sync.Mutex
	ctx       *gousb.Context
	dev       *gousb.Device
	cfg       *gousb.Config
	iface     *gousb.Interface
	epIn      *gousb.InEndpoint
	epOut     *gousb.OutEndpoint
	lastTuned TuneRequest
}

// NewUSBDevice constructs an unopened USBDevice. Call Open before Tune or
// StartRX.
func NewUSBDevice() *USBDevice {
	return &USBDevice{}
}

// Open enumerates the USB bus for the first matching VID/PID, claims its
// bulk interface and clears any stale data left by a previous session.
func (d *USBDevice) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ctx = gousb.NewContext()

	dev, err := d.ctx.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		d.ctx.Close()
		return fmt.Errorf("rfhal: opening device: %w", err)
	}
	if dev == nil {
		d.ctx.Close()
		return ErrNoDevice
	}
	d.dev = dev

	if err := dev.SetAutoDetach(true); err != nil {
		d.closeLocked()
		return fmt.Errorf("rfhal: set auto detach: %w", err)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		d.closeLocked()
		return fmt.Errorf("rfhal: claiming config: %w", err)
	}
	d.cfg = cfg

	iface, err := cfg.Interface(0, 0)
	if err != nil {
		d.closeLocked()
		return fmt.Errorf("rfhal: claiming interface: %w", err)
	}
	d.iface = iface

	epIn, err := iface.InEndpoint(bulkInEndpoint)
	if err != nil {
		d.closeLocked()
		return fmt.Errorf("rfhal: in endpoint: %w", err)
	}
	d.epIn = epIn

	epOut, err := iface.OutEndpoint(bulkOutEndpoint)
	if err != nil {
		d.closeLocked()
		return fmt.Errorf("rfhal: out endpoint: %w", err)
	}
	d.epOut = epOut

	d.drainStale()
	return nil
}

// drainStale discards any samples left buffered from a previous session
// before the first real acquisition begins.
func (d *USBDevice) drainStale() {
	buf := make([]byte, rxReadSize)
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		n, err := d.epIn.ReadContext(ctx, buf)
		cancel()
		if err != nil || n == 0 {
			return
		}
	}
}

// Tune applies center frequency, sample rate and gain stage over the
// control OUT endpoint.
func (d *USBDevice) Tune(req TuneRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	freqPkt := make([]byte, 9)
	freqPkt[0] = opSetFreq
	binary.LittleEndian.PutUint64(freqPkt[1:], req.CenterFreqHz)
	if err := d.writeCommand(freqPkt); err != nil {
		return fmt.Errorf("rfhal: set freq: %w", err)
	}

	ratePkt := make([]byte, 9)
	ratePkt[0] = opSetRate
	binary.LittleEndian.PutUint64(ratePkt[1:], uint64(req.SampleRateHz))
	if err := d.writeCommand(ratePkt); err != nil {
		return fmt.Errorf("rfhal: set rate: %w", err)
	}

	ampByte := byte(0)
	if req.AmpEnabled {
		ampByte = 1
	}
	gainPkt := []byte{opSetGains, byte(req.LNAGain), byte(req.VGAGain), ampByte}
	if err := d.writeCommand(gainPkt); err != nil {
		return fmt.Errorf("rfhal: set gains: %w", err)
	}

	d.lastTuned = req
	return nil
}

func (d *USBDevice) writeCommand(packet []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()
	_, err := d.epOut.WriteContext(ctx, packet)
	return err
}

// StartRX reads bulk-transfer chunks off epIn and forwards them to out
// until ctx is canceled. Reads that merely time out are retried; any other
// error is treated as unrecoverable and returned to the caller, who is
// expected to trigger the engine's recovery path.
func (d *USBDevice) StartRX(ctx context.Context, out chan<- []byte) error {
	d.mu.Lock()
	epIn := d.epIn
	d.mu.Unlock()
	if epIn == nil {
		return fmt.Errorf("rfhal: device not open")
	}

	buf := make([]byte, rxReadSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, rxReadTimeout)
		n, err := epIn.ReadContext(readCtx, buf)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("rfhal: usb read: %w", err)
		}
		if n == 0 {
			continue
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case out <- chunk:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close releases the interface, config and device handle in reverse claim
// order.
func (d *USBDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *USBDevice) closeLocked() error {
	if d.iface != nil {
		d.iface.Close()
		d.iface = nil
	}
	if d.cfg != nil {
		d.cfg.Close()
		d.cfg = nil
	}
	var err error
	if d.dev != nil {
		err = d.dev.Close()
		d.dev = nil
	}
	if d.ctx != nil {
		d.ctx.Close()
		d.ctx = nil
	}
	return err
}
