//go:build !linux

package gpio

import (
	"context"
	"errors"

	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// EdgeSource is not available on non-Linux platforms.
type EdgeSource struct{}

// NewEdgeSource returns an error on non-Linux platforms.
func NewEdgeSource(chip string, pin int, cfg FramerConfig) (*EdgeSource, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Run is not implemented on non-Linux platforms.
func (s *EdgeSource) Run(ctx context.Context, out chan<- *pulse.Capture) error {
	return errors.New("gpio: not supported")
}

// Dropped is always zero on non-Linux platforms.
func (s *EdgeSource) Dropped() uint64 {
	return 0
}
