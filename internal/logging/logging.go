// Package logging configures the process-wide structured logger and hands
// out component-tagged children for the RF, audio and recovery subsystems.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// New builds the root logger, writing to stderr with caller-friendly
// timestamps. debug controls whether debug-level messages are emitted.
func New(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return logger
}

// Component returns a child logger tagged with name, e.g. "rf", "audio",
// "recovery", "control".
func Component(logger *log.Logger, name string) *log.Logger {
	return logger.With("component", name)
}
