package antenna

import "testing"

func TestNoopSelectorAlwaysSucceeds(t *testing.T) {
	var s NoopSelector
	if err := s.Select(3); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
