//go:build linux

package gpio

import "testing"

func TestEdgeSourceDefaults(t *testing.T) {
	s, err := NewEdgeSource("", DefaultPin, testFraming)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.chip != DefaultChip {
		t.Errorf("chip: got %q, want %q", s.chip, DefaultChip)
	}
	if s.Dropped() != 0 {
		t.Errorf("Dropped: got %d, want 0", s.Dropped())
	}
	s.dropped.Add(2)
	if s.Dropped() != 2 {
		t.Errorf("Dropped: got %d, want 2", s.Dropped())
	}
}
