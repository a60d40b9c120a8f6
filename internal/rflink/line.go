// Package rflink reads pulse captures from an RFLink-compatible receiver,
// either live over a serial port or replayed from a log of its debug output.
//
// A debug line looks like
//
//	20;XX;DEBUG;Pulses=76;Pulses(uSec)=576,4032,576,1984,...;
//
// and carries the mark/space durations of one capture in microseconds.
package rflink

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/rf433-sensor/internal/pulse"
)

var (
	// ErrNotDebug means the line is not a pulse debug line. Receivers emit
	// other traffic, such as their own decoded readings, on the same port.
	ErrNotDebug = errors.New("not a pulse debug line")

	// ErrMalformed means the line looked like a debug line but could not be
	// parsed.
	ErrMalformed = errors.New("malformed debug line")
)

const (
	keyPulses    = "Pulses="
	keyDurations = "Pulses(uSec)="
)

// DebugLine is one parsed pulse debug line.
type DebugLine struct {
	// Declared is the count from the Pulses= field. Receivers do not always
	// agree with themselves, so Durations is authoritative.
	Declared  int
	Durations []uint32
}

// Capture returns the line as a capture ready for decoding.
func (d DebugLine) Capture() *pulse.Capture {
	return pulse.NewCapture(d.Durations)
}

// ParseDebug parses a pulse debug line.
func ParseDebug(line string) (DebugLine, error) {
	line = strings.TrimSpace(line)
	fields := strings.Split(strings.TrimSuffix(line, ";"), ";")
	if len(fields) < 5 || fields[0] != "20" || !strings.HasPrefix(fields[2], "DEBUG") {
		return DebugLine{}, ErrNotDebug
	}

	var (
		d         DebugLine
		haveCount bool
		haveList  bool
	)
	for _, f := range fields[3:] {
		switch {
		case strings.HasPrefix(f, keyDurations):
			list, err := parseDurations(strings.TrimPrefix(f, keyDurations))
			if err != nil {
				return DebugLine{}, err
			}
			d.Durations = list
			haveList = true
		case strings.HasPrefix(f, keyPulses):
			n, err := strconv.Atoi(strings.TrimPrefix(f, keyPulses))
			if err != nil || n < 0 {
				return DebugLine{}, fmt.Errorf("%w: pulse count %q", ErrMalformed, f)
			}
			d.Declared = n
			haveCount = true
		}
	}
	if !haveCount || !haveList {
		return DebugLine{}, fmt.Errorf("%w: missing pulse fields", ErrMalformed)
	}
	return d, nil
}

func parseDurations(s string) ([]uint32, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty pulse list", ErrMalformed)
	}
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: pulse %d: %q", ErrMalformed, i, p)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}
