package protocol

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// ErrUnrecognized is returned when no decoder accepts a capture.
var ErrUnrecognized = errors.New("capture not recognized")

// Decoder turns one capture into a reading. Decode must not modify the
// capture; any failure means the capture is not a frame of this protocol.
type Decoder interface {
	Name() string
	Decode(c *pulse.Capture) (Reading, error)
}

// Result tells how a recognized capture was handled.
type Result int

const (
	// Accepted means the reading was new and has been reported.
	Accepted Result = iota + 1
	// Suppressed means the reading repeats one reported moments ago.
	Suppressed
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "ACCEPTED"
	case Suppressed:
		return "SUPPRESSED"
	}
	return "UNKNOWN"
}

// Handle decodes c with dec and passes the reading through s. New readings go
// to rep and consume the capture; repeats are reported as handled without
// touching rep.
func Handle(dec Decoder, c *pulse.Capture, s *Suppressor, rep Reporter, now time.Time) (Reading, Result, error) {
	r, err := dec.Decode(c)
	if err != nil {
		return Reading{}, 0, err
	}
	if !s.Admit(c.Hash, r.Signature, now) {
		return r, Suppressed, nil
	}
	if rep != nil {
		r.Report(rep)
	}
	c.Consume()
	return r, Accepted, nil
}

// Outcome is the result of dispatching a capture.
type Outcome struct {
	Reading Reading
	Result  Result
}

// Dispatcher offers each capture to its decoders in order until one of them
// recognizes it.
type Dispatcher struct {
	decoders   []Decoder
	suppressor *Suppressor
}

// NewDispatcher creates a Dispatcher. The suppressor is shared by all decoders.
func NewDispatcher(s *Suppressor, decoders ...Decoder) *Dispatcher {
	return &Dispatcher{decoders: decoders, suppressor: s}
}

// Decoders returns the registered decoders in dispatch order.
func (d *Dispatcher) Decoders() []Decoder {
	return d.decoders
}

// Dispatch runs c through the decoders, reporting an accepted reading to
// rep. When no decoder recognizes c the returned error matches
// ErrUnrecognized and carries each decoder's reason.
func (d *Dispatcher) Dispatch(c *pulse.Capture, rep Reporter, now time.Time) (Outcome, error) {
	errs := []error{ErrUnrecognized}
	for _, dec := range d.decoders {
		r, res, err := Handle(dec, c, d.suppressor, rep, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dec.Name(), err))
			continue
		}
		return Outcome{Reading: r, Result: res}, nil
	}
	return Outcome{}, errors.Join(errs...)
}

// Default returns the decoders for every supported sensor in dispatch order.
func Default() []Decoder {
	return []Decoder{DigooR8S{}, DigooEX3{}, AtechWS301E{}}
}

// checkCount rejects captures whose pulse count lies outside [lo, hi].
func checkCount(c *pulse.Capture, lo, hi int) error {
	if c.Number < lo || c.Number > hi || c.Number > len(c.Pulses) {
		return fmt.Errorf("%w: %d pulses", pulse.ErrLengthMismatch, c.Number)
	}
	return nil
}
