// sdr-engine is the headless SDR processing engine: it listens for
// DesiredConfig documents on the control plane, drives the RF front end
// through one acquisition cycle at a time, and publishes PSD results or
// streams demodulated audio depending on the active mode.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/antenna"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/config"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/control"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/engine"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/logging"
	"github.com/dramirezbe/SDR-SpectrumMonitoring-Sensor/internal/rfhal"
	"github.com/spf13/pflag"
)

var (
	controlAddr = pflag.StringP("control-addr", "c", "ipc:///tmp/rf_engine", "Control-plane endpoint URI (ipc:// or tcp://)")
	defaultsSeed = pflag.String("defaults", "", "Optional YAML file of startup DesiredConfig defaults (SDR_ENGINE_DEFAULTS)")
	gpioChip    = pflag.String("gpio-chip", "", "gpiochip device for antenna selection (empty disables GPIO)")
	debug       = pflag.BoolP("debug", "v", false, "Enable debug-level logging")
	help        = pflag.BoolP("help", "h", false, "Display help text")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Headless SDR spectrum/audio processing engine.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sdr-engine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	signal.Ignore(syscall.SIGPIPE)

	if os.Getenv("VERBOSE") == "true" {
		*debug = true
	}
	logger := logging.New(*debug)

	if env := os.Getenv("IPC_ADDR"); env != "" && !pflag.CommandLine.Changed("control-addr") {
		*controlAddr = env
	}
	if env := os.Getenv("SDR_ENGINE_DEFAULTS"); env != "" && *defaultsSeed == "" {
		*defaultsSeed = env
	}

	device := rfhal.New()

	var sel antenna.Selector = antenna.NoopSelector{}
	if *gpioChip != "" {
		offsets := map[int]int{1: 17, 2: 27, 3: 22}
		gpioSel, err := antenna.NewGPIOSelector(*gpioChip, offsets)
		if err != nil {
			logger.Warn("gpio antenna selector unavailable, falling back to no-op", "err", err)
		} else {
			sel = gpioSel
		}
	}

	eng := engine.New(device, sel, nil, logging.Component(logger, "rf"))

	if *defaultsSeed != "" {
		seed, err := config.SeedFromFile(*defaultsSeed)
		if err != nil {
			logger.Warn("failed to load startup defaults", "err", err)
		} else if err := eng.Seed(seed); err != nil {
			logger.Warn("startup defaults failed validation", "err", err)
		}
	}

	ch, err := control.Start(*controlAddr, eng.OnControlMessage, logging.Component(logger, "control"))
	if err != nil {
		return fmt.Errorf("starting control plane: %w", err)
	}
	defer ch.Close()
	eng.AttachControl(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown requested")
		cancel()
	}()

	logger.Info("sdr-engine starting", "control_addr", *controlAddr)
	eng.Run(ctx)
	logger.Info("sdr-engine stopped")
	return nil
}
