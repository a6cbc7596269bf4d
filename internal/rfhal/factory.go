package rfhal

import "os"

// New selects a RFDevice implementation based on the RF_DEVICE_SIM
// environment variable: any non-empty value forces the simulator
// backend, otherwise the real USB device is used.
func New() RFDevice {
	if os.Getenv("RF_DEVICE_SIM") != "" {
		return NewSimulatorDevice(250_000)
	}
	return NewUSBDevice()
}
