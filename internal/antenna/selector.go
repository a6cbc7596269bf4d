// Package antenna drives the antenna-port selector relay bank. Port
// selection is a side effect of C3's retune path: whenever the desired
// antenna_port changes, the orchestrator asks the Selector to switch before
// the next acquisition cycle starts.
package antenna

// Selector switches the active antenna port. Port numbering matches the
// wire-level antenna_port field (1-indexed).
type Selector interface {
	// Select energizes the relay(s) for port and de-energizes all others.
	Select(port int) error
	// Close releases any held GPIO lines.
	Close() error
}

// NoopSelector is used when no GPIO chip is configured; Select always
// succeeds without touching hardware.
type NoopSelector struct{}

// Select is a no-op.
func (NoopSelector) Select(port int) error { return nil }

// Close is a no-op.
func (NoopSelector) Close() error { return nil }
