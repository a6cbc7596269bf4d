package antenna

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSelector drives one output line per antenna port on a gpiod chip.
// Exactly one line is held high at a time; switching ports first drops the
// previously active line, then raises the new one, so no two relays are
// ever energized simultaneously during the transition.
type GPIOSelector struct {
	chip    string
	offsets map[int]int
	lines   map[int]*gpiocdev.Line
	active  int
}

// NewGPIOSelector opens one requested output line per entry in offsets
// (antenna port number -> gpiochip line offset) on chip, all initialized
// low.
func NewGPIOSelector(chip string, offsets map[int]int) (*GPIOSelector, error) {
	s := &GPIOSelector{
		chip:    chip,
		offsets: offsets,
		lines:   make(map[int]*gpiocdev.Line, len(offsets)),
		active:  0,
	}

	for port, offset := range offsets {
		line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("antenna: requesting line %d for port %d: %w", offset, port, err)
		}
		s.lines[port] = line
	}

	return s, nil
}

// Select drops the currently active line (if any) and raises the line for
// port.
func (s *GPIOSelector) Select(port int) error {
	if port == s.active {
		return nil
	}

	if active, ok := s.lines[s.active]; ok && s.active != 0 {
		if err := active.SetValue(0); err != nil {
			return fmt.Errorf("antenna: deactivating port %d: %w", s.active, err)
		}
	}

	line, ok := s.lines[port]
	if !ok {
		return fmt.Errorf("antenna: no gpio line configured for port %d", port)
	}
	if err := line.SetValue(1); err != nil {
		return fmt.Errorf("antenna: activating port %d: %w", port, err)
	}

	s.active = port
	return nil
}

// Close releases every requested line.
func (s *GPIOSelector) Close() error {
	var firstErr error
	for _, line := range s.lines {
		if err := line.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
