// Package gpio captures 433MHz transmissions from a receiver module wired to
// a GPIO pin. The real implementation uses the Linux GPIO character device;
// the fake replays scripted edges for tests.
package gpio

import (
	"math"
	"time"

	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// DefaultPin is the BCM pin the receiver's data output is wired to.
const DefaultPin = 27

// DefaultChip is the GPIO chip on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Edge is one level change on the data pin.
type Edge struct {
	// Time is the kernel timestamp of the change. Only differences between
	// edges matter.
	Time time.Duration
	// Rising is true when the carrier switched on.
	Rising bool
}

// FramerConfig bounds the captures a Framer emits.
type FramerConfig struct {
	// SyncGap is the shortest space treated as the end of a transmission.
	SyncGap   time.Duration
	MinPulses int
	MaxPulses int
}

// Framer turns a stream of edges into captures. A capture starts at the first
// mark after a space of at least SyncGap and ends at the next such space,
// which is kept as its final duration. It is not safe for concurrent use.
type Framer struct {
	cfg        FramerConfig
	primed     bool
	last       time.Duration
	collecting bool
	pulses     []uint32
}

// NewFramer creates a Framer.
func NewFramer(cfg FramerConfig) *Framer {
	return &Framer{cfg: cfg}
}

// Edge feeds one edge and returns a capture when it completes one.
func (f *Framer) Edge(e Edge) *pulse.Capture {
	if !f.primed {
		f.primed = true
		f.last = e.Time
		return nil
	}
	d := e.Time - f.last
	f.last = e.Time

	if !e.Rising {
		// The carrier was on: a mark.
		if !f.collecting {
			return nil
		}
		if d >= f.cfg.SyncGap {
			f.abandon()
			return nil
		}
		return f.add(d)
	}

	// The carrier was off: a space.
	if d < f.cfg.SyncGap {
		if !f.collecting {
			return nil
		}
		return f.add(d)
	}

	var c *pulse.Capture
	if f.collecting && len(f.pulses) > 0 {
		f.pulses = append(f.pulses, micros(d))
		if n := len(f.pulses); n >= f.cfg.MinPulses && n <= f.cfg.MaxPulses {
			c = pulse.NewCapture(f.pulses)
		}
	}
	f.collecting = true
	f.pulses = nil
	return c
}

func (f *Framer) add(d time.Duration) *pulse.Capture {
	f.pulses = append(f.pulses, micros(d))
	if len(f.pulses) > f.cfg.MaxPulses {
		f.abandon()
	}
	return nil
}

// abandon drops the capture in progress and waits for the next sync gap.
func (f *Framer) abandon() {
	f.collecting = false
	f.pulses = nil
}

func micros(d time.Duration) uint32 {
	us := d / time.Microsecond
	if us > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(us)
}
