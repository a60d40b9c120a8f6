package pulse

import (
	"fmt"
	"math"
)

// Bit is a classified data bit.
type Bit uint8

const (
	Zero Bit = 0
	One  Bit = 1
)

// Window is an inclusive range of durations in microseconds.
type Window struct {
	Min uint32
	Max uint32
}

// Above returns the window of durations strictly longer than d.
func Above(d uint32) Window {
	return Window{Min: d + 1, Max: math.MaxUint32}
}

// Contains reports whether d lies inside the window.
func (w Window) Contains(d uint32) bool {
	return d >= w.Min && d <= w.Max
}

// Coding classifies the unit at the cursor and advances past it.
type Coding interface {
	Next(cur *Cursor) (Bit, error)
}

// DistanceCoding is a fixed two-slot encoding: a short mark followed by a
// space whose length carries the bit.
type DistanceCoding struct {
	// MarkMax is the longest mark that still belongs to a data bit. A longer
	// mark means the receiver lost sync.
	MarkMax uint32
	Zero    Window
	One     Window
}

// Classify judges one mark/space pair. A space between the two windows is
// corrupt data, not a near miss.
func (c DistanceCoding) Classify(mark, space uint32) (Bit, error) {
	if mark > c.MarkMax {
		return Zero, fmt.Errorf("%w: mark %dus", ErrTiming, mark)
	}
	switch {
	case c.One.Contains(space):
		return One, nil
	case c.Zero.Contains(space):
		return Zero, nil
	}
	return Zero, fmt.Errorf("%w: space %dus", ErrTiming, space)
}

// Next implements Coding. It always consumes two slots.
func (c DistanceCoding) Next(cur *Cursor) (Bit, error) {
	mark, space, ok := cur.pair()
	if !ok {
		return Zero, fmt.Errorf("%w: capture ends at slot %d", ErrTiming, cur.pos)
	}
	b, err := c.Classify(mark, space)
	if err != nil {
		return Zero, err
	}
	cur.advance(2)
	return b, nil
}

// CompositeCoding is a variable-width encoding. A zero is one mark and a gap
// inside Zero. A one is a mark followed by short gap, mark, short gap, mark
// whose four durations together fall inside One; the long gap after the
// third mark is skipped without being checked.
type CompositeCoding struct {
	Mark Window
	Zero Window
	One  Window
}

// Slots consumed by each composite pattern.
const (
	compositeZeroSlots = 2
	compositeOneSlots  = 6
)

// Classify judges the unit starting at index at of pulses and returns the bit
// and the number of slots it occupies.
func (c CompositeCoding) Classify(pulses []uint32, at int) (Bit, int, error) {
	if at+1 >= len(pulses) {
		return Zero, 0, fmt.Errorf("%w: capture ends at slot %d", ErrTiming, at)
	}
	if mark := pulses[at]; !c.Mark.Contains(mark) {
		return Zero, 0, fmt.Errorf("%w: mark %dus at slot %d", ErrTiming, mark, at)
	}
	if c.Zero.Contains(pulses[at+1]) {
		return Zero, compositeZeroSlots, nil
	}
	if at+4 >= len(pulses) {
		return Zero, 0, fmt.Errorf("%w: truncated pattern at slot %d", ErrTiming, at)
	}
	var total uint32
	for _, d := range pulses[at+1 : at+5] {
		total += d
	}
	if !c.One.Contains(total) {
		return Zero, 0, fmt.Errorf("%w: pattern %dus at slot %d", ErrTiming, total, at)
	}
	return One, compositeOneSlots, nil
}

// Next implements Coding.
func (c CompositeCoding) Next(cur *Cursor) (Bit, error) {
	b, n, err := c.Classify(cur.pulses, cur.pos)
	if err != nil {
		return Zero, err
	}
	cur.advance(n)
	return b, nil
}
