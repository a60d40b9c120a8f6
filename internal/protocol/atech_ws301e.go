package protocol

import (
	"fmt"

	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// Atech WS301E outdoor sensor. 28 data bits plus a stop bit. Bits are
// separated by ~2080us gaps; a 0 is one ~1550us pulse, a 1 is three such
// pulses joined by ~270us gaps. The stop bit is two pulses and is not decoded.
//
//	AAAA BBBB CCCC EEEEEEEEEEEE FFFF
//
//	A always 0            B channel (1100 ch I, 1000 ch II)
//	C sign, 0010 below 0  E temperature, 3 BCD digits
//	F checksum
const (
	ws301eMinPulses = 60
	ws301eMaxPulses = 172
	ws301eStopSlots = 4
	ws301eBits      = 28
	ws301eNegative  = 0x20
)

var ws301eCoding = pulse.CompositeCoding{
	Mark: pulse.Window{Min: 1400, Max: 1600},
	Zero: pulse.Window{Min: 1701, Max: 2199},
	One:  pulse.Window{Min: 3400, Max: 3700},
}

// AtechWS301E decodes Atech WS301E temperature sensors.
type AtechWS301E struct{}

func (AtechWS301E) Name() string { return "Atech 301E" }

func (a AtechWS301E) Decode(c *pulse.Capture) (Reading, error) {
	if err := checkCount(c, ws301eMinPulses, ws301eMaxPulses); err != nil {
		return Reading{}, err
	}

	cur := pulse.NewCursor(c.Pulses, 0, c.Number-ws301eStopSlots)
	f, err := pulse.AssembleAll(cur, ws301eCoding, ws301eBits)
	if err != nil {
		return Reading{}, err
	}
	b := f.Bytes

	if sum := ws301eChecksum(b); sum != b[3] {
		return Reading{}, fmt.Errorf("%w: got %#x, want %#x", pulse.ErrChecksum, b[3], sum)
	}

	hundreds, tens, units := b[1]&0x0F, b[2]>>4, b[2]&0x0F
	if hundreds > 9 || tens > 9 || units > 9 {
		return Reading{}, fmt.Errorf("%w: temperature %x%02x is not BCD", pulse.ErrRange, hundreds, b[2])
	}
	temp := Temperature(int(hundreds)*100 + int(tens)*10 + int(units))
	if b[1]&ws301eNegative != 0 {
		temp = -temp
	}

	return Reading{
		Protocol:      a.Name(),
		ID:            fmt.Sprintf("%02x", b[0]),
		Temperature:   temp,
		ChecksumValid: true,
		Fields:        FieldTemperature | FieldRawFrame,
		Frame:         f,
		Signature:     uint32(b[0])<<16 + uint32(temp.Word()),
	}, nil
}

// ws301eChecksum folds the XOR of the first three bytes into one nibble.
func ws301eChecksum(b []byte) byte {
	x := b[0] ^ b[1] ^ b[2]
	return (x & 0x0F) ^ (x >> 4)
}
