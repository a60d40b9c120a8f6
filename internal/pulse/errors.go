package pulse

import "errors"

// Decode failures. Every one of them is terminal for the capture being decoded;
// callers compare with errors.Is.
var (
	ErrLengthMismatch = errors.New("pulse count outside expected range")
	ErrTiming         = errors.New("duration outside tolerance windows")
	ErrFrameLength    = errors.New("realized bit count differs from frame length")
	ErrChecksum       = errors.New("checksum mismatch")
	ErrRange          = errors.New("field outside plausible range")
	ErrZeroFrame      = errors.New("all-zero frame")
)
