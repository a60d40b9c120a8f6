// Package pulse turns captured mark/space durations into bits and byte frames.
// It has no knowledge of any particular sensor; protocol packages supply the
// tolerance windows and frame lengths.
package pulse

import (
	"encoding/binary"
	"hash/fnv"
)

// Capture is one captured transmission as a run of durations in microseconds.
// Even indices are marks (carrier on), odd indices are spaces (carrier off).
type Capture struct {
	// Pulses holds the measured durations. Decoders never modify it.
	Pulses []uint32

	// Number is the pulse count reported by the capture source. It is reset to
	// zero once a decoder has accepted the capture.
	Number int

	// Hash identifies the shape of the capture, see Fingerprint.
	Hash uint32

	// Repeats asks the capture source to drop retransmissions of the capture
	// that was just accepted.
	Repeats bool
}

// NewCapture wraps pulses in a Capture and computes its fingerprint.
func NewCapture(pulses []uint32) *Capture {
	return &Capture{
		Pulses: pulses,
		Number: len(pulses),
		Hash:   Fingerprint(pulses),
	}
}

// Consume marks the capture as handled: retransmissions of it should be
// ignored and the source may start filling the next capture.
func (c *Capture) Consume() {
	c.Repeats = true
	c.Number = 0
}

// Fingerprint hashes the coarse shape of a capture. The final duration is
// left out: it is the gap that ended the capture and its length depends on
// what followed. Marks and spaces are each reduced to one bit against the
// midpoint of the shortest and longest duration of their kind, so neither
// timing jitter nor the mix of ones and zeros in the frame moves the
// threshold. A kind whose durations are all alike contributes its mean
// rounded to the nearest millisecond instead.
func Fingerprint(pulses []uint32) uint32 {
	if len(pulses) == 0 {
		return 0
	}
	data := pulses[:len(pulses)-1]

	var lo, hi [2]uint32
	var sum, count [2]uint64
	for i, p := range data {
		k := i % 2
		if count[k] == 0 || p < lo[k] {
			lo[k] = p
		}
		if p > hi[k] {
			hi[k] = p
		}
		sum[k] += uint64(p)
		count[k]++
	}

	h := fnv.New32a()
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(pulses)))
	h.Write(n[:])

	var threshold [2]uint32
	for k := range threshold {
		if hi[k]-lo[k] > lo[k]/2 {
			threshold[k] = lo[k] + (hi[k]-lo[k])/2
			continue
		}
		// Uniform: no duration is above the threshold.
		threshold[k] = hi[k]
		var level uint32
		if count[k] > 0 {
			level = uint32((sum[k]/count[k] + 500) / 1000)
		}
		binary.BigEndian.PutUint32(n[:], level)
		h.Write(n[:])
	}

	var cell byte
	for i, p := range data {
		cell <<= 1
		if p > threshold[i%2] {
			cell |= 1
		}
		if i%8 == 7 {
			h.Write([]byte{cell})
			cell = 0
		}
	}
	h.Write([]byte{cell})
	return h.Sum32()
}
