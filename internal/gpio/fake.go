package gpio

import (
	"context"
	"time"

	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// FakeSource is a test double that replays scripted edges through a Framer.
type FakeSource struct {
	// Edges is the script fed to the framer, in order.
	Edges []Edge

	// RunError, if set, is returned by Run before any edge is replayed.
	RunError error

	framer *Framer
}

// NewFakeSource creates a FakeSource that frames edges with cfg.
func NewFakeSource(cfg FramerConfig, edges []Edge) *FakeSource {
	return &FakeSource{Edges: edges, framer: NewFramer(cfg)}
}

// Run replays every edge and returns once the script is exhausted.
func (f *FakeSource) Run(ctx context.Context, out chan<- *pulse.Capture) error {
	if f.RunError != nil {
		return f.RunError
	}
	for _, e := range f.Edges {
		c := f.framer.Edge(e)
		if c == nil {
			continue
		}
		select {
		case out <- c:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// EdgesFor scripts the edges that carry the given captures back to back.
// Each capture alternates mark and space durations in microseconds and must
// end with a space long enough to count as a sync gap. The script opens with
// a lead silence so the first capture is framed.
func EdgesFor(lead uint32, captures ...[]uint32) []Edge {
	now := time.Duration(0)
	edges := []Edge{{Time: now}}
	now += time.Duration(lead) * time.Microsecond
	edges = append(edges, Edge{Time: now, Rising: true})

	for _, pulses := range captures {
		for i, d := range pulses {
			now += time.Duration(d) * time.Microsecond
			// A mark ends on a falling edge, a space on a rising one.
			edges = append(edges, Edge{Time: now, Rising: i%2 == 1})
		}
	}
	return edges
}
