//go:build linux

package gpio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/rf433-sensor/internal/log"
	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// EdgeSource captures transmissions from a receiver using edge events from
// the Linux GPIO character device.
type EdgeSource struct {
	chip string
	pin  int

	mu     sync.Mutex
	framer *Framer

	dropped atomic.Uint64
}

// NewEdgeSource creates a source for the receiver on chip/pin. The line is
// requested when Run starts.
func NewEdgeSource(chip string, pin int, cfg FramerConfig) (*EdgeSource, error) {
	if chip == "" {
		chip = DefaultChip
	}
	return &EdgeSource{chip: chip, pin: pin, framer: NewFramer(cfg)}, nil
}

// Run watches both edges of the data pin until ctx is cancelled. Captures the
// consumer is too slow to take are dropped and counted.
func (s *EdgeSource) Run(ctx context.Context, out chan<- *pulse.Capture) error {
	handler := func(evt gpiocdev.LineEvent) {
		s.mu.Lock()
		c := s.framer.Edge(Edge{
			Time:   evt.Timestamp,
			Rising: evt.Type == gpiocdev.LineEventRisingEdge,
		})
		s.mu.Unlock()
		if c == nil {
			return
		}
		select {
		case out <- c:
		default:
			if s.dropped.Add(1) == 1 {
				log.Warnf("gpio: consumer behind, dropping captures")
			}
		}
	}

	// Pull-down keeps the line quiet while the receiver is unpowered.
	line, err := gpiocdev.RequestLine(s.chip, s.pin,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		return fmt.Errorf("request pin %d on %s: %w", s.pin, s.chip, err)
	}
	log.Infof("gpio: watching pin %d on %s", s.pin, s.chip)

	<-ctx.Done()
	if err := line.Close(); err != nil {
		return fmt.Errorf("close pin %d: %w", s.pin, err)
	}
	return ctx.Err()
}

// Dropped returns the number of captures discarded because the consumer was
// busy.
func (s *EdgeSource) Dropped() uint64 {
	return s.dropped.Load()
}
