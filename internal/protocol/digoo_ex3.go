package protocol

import (
	"fmt"

	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// Digoo DG-EX003 outdoor sensor (an InFactory clone). 40 bits, distance coded
// like the R8S with a slightly longer pulse.
//
//	AAAAAAAA BBBB CCCC EEEEEEEEEEEE FFFFFFFF GGGG
//
//	A id, new at each power on
//	B, C unknown (checksum, trend)
//	E temperature, Fahrenheit tenths + 90 degrees
//	F humidity, BCD
//	G unknown
const (
	ex3PulseCount = 82
	ex3Bits       = 40

	// E counts tenths of a degree Fahrenheit offset by 90F, so 0F reads 900
	// and 32F reads 1220.
	ex3TempOffset  = 900
	ex3TempFreezes = 320
	ex3MaxHumidity = 0x99
)

var ex3Coding = pulse.DistanceCoding{
	MarkMax: 700,
	Zero:    pulse.Window{Min: 1500, Max: 2500},
	One:     pulse.Above(3000),
}

// DigooEX3 decodes Digoo DG-EX003 temperature/humidity sensors.
type DigooEX3 struct{}

func (DigooEX3) Name() string { return "Digoo EX3" }

func (d DigooEX3) Decode(c *pulse.Capture) (Reading, error) {
	if err := checkCount(c, ex3PulseCount, ex3PulseCount); err != nil {
		return Reading{}, err
	}

	f, err := pulse.AssembleN(pulse.NewCursor(c.Pulses, 0, c.Number), ex3Coding, ex3Bits)
	if err != nil {
		return Reading{}, err
	}
	b := f.Bytes

	humidity := b[3]<<4 | b[4]>>4
	raw := int(b[2])<<4 | int(b[3]>>4)
	temp := Temperature((raw - ex3TempOffset - ex3TempFreezes) * 5 / 9)

	if humidity == 0 {
		return Reading{}, fmt.Errorf("%w: humidity", pulse.ErrZeroFrame)
	}
	if humidity > ex3MaxHumidity {
		return Reading{}, fmt.Errorf("%w: humidity %#02x", pulse.ErrRange, humidity)
	}
	percent, ok := bcd(humidity)
	if !ok {
		return Reading{}, fmt.Errorf("%w: humidity %#02x is not BCD", pulse.ErrRange, humidity)
	}

	return Reading{
		Protocol:         d.Name(),
		ID:               fmt.Sprintf("%02x", b[0]),
		Temperature:      temp,
		Humidity:         percent,
		HumidityEncoding: HumidityBCD,
		Fields:           FieldTemperature | FieldHumidity,
		Signature:        uint32(temp.Word())<<8 | uint32(humidity),
	}, nil
}

// bcd converts a two-digit BCD byte.
func bcd(v byte) (uint8, bool) {
	hi, lo := v>>4, v&0x0F
	if hi > 9 || lo > 9 {
		return 0, false
	}
	return hi*10 + lo, true
}
