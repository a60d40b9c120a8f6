package pulse

import "time"

// RepeatFilter sits on the capture side of the decoder. Once a capture has
// been consumed, further captures with the same fingerprint are dropped until
// the window has passed since the last one seen, so a burst of retransmissions
// is decoded once.
type RepeatFilter struct {
	window time.Duration
	active bool
	hash   uint32
	last   time.Time
}

// NewRepeatFilter creates a RepeatFilter. A zero window disables it.
func NewRepeatFilter(window time.Duration) *RepeatFilter {
	return &RepeatFilter{window: window}
}

// Allow reports whether c should be offered to the decoders. Dropped repeats
// extend the quiet period.
func (f *RepeatFilter) Allow(c *Capture, now time.Time) bool {
	if !f.active || c.Hash != f.hash {
		return true
	}
	if now.Sub(f.last) > f.window {
		f.active = false
		return true
	}
	f.last = now
	return false
}

// Done records the outcome of decoding c. Only consumed captures arm the
// filter.
func (f *RepeatFilter) Done(c *Capture, now time.Time) {
	if !c.Repeats || f.window <= 0 {
		return
	}
	f.active = true
	f.hash = c.Hash
	f.last = now
}
