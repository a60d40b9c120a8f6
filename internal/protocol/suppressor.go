package protocol

import "time"

// DefaultSuppressWindow is how long a reported measurement counts as already
// seen. Sensors repeat each frame several times within it.
const DefaultSuppressWindow = 500 * time.Millisecond

// Suppressor gates readings so that the retransmissions of one measurement
// are reported once. It is not safe for concurrent use.
type Suppressor struct {
	window       time.Duration
	seen         bool
	lastHash     uint32
	lastSig      uint32
	lastAccepted time.Time
}

// NewSuppressor creates a Suppressor with the given window.
func NewSuppressor(window time.Duration) *Suppressor {
	return &Suppressor{window: window}
}

// Admit reports whether a reading should be emitted. A reading is a repeat
// only when the capture hash and the reading signature both match the last
// accepted ones and the window has not elapsed. Repeats change nothing.
func (s *Suppressor) Admit(hash, signature uint32, now time.Time) bool {
	if s.seen &&
		hash == s.lastHash &&
		signature == s.lastSig &&
		now.Sub(s.lastAccepted) <= s.window {
		return false
	}

	s.seen = true
	s.lastHash = hash
	s.lastSig = signature
	s.lastAccepted = now
	return true
}
