package protocol

import (
	"fmt"

	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// Digoo DG-R8S outdoor sensor. 37 bits, distance coded: a ~570us pulse then a
// ~2000us gap for 0 or a ~4000us gap for 1.
//
//	AAAA BBBBBBBB CDEE FFFFFFFFFFFF GGGGGGGG H
//
//	A type (5 or 9)       B rolling code
//	C battery ok          D test button
//	E channel - 1         F temperature, 12-bit two's complement
//	G humidity, binary    H always 0, not decoded
const (
	r8sPulseCount    = 76
	r8sMainBits      = 28
	r8sHumidityBits  = 8
	r8sMaxMagnitude  = 600 // 60.0 degrees
	r8sMaxHumidity   = 99
	r8sTempWidthMask = 0xFFF
)

var r8sCoding = pulse.DistanceCoding{
	MarkMax: 600,
	Zero:    pulse.Window{Min: 1500, Max: 2500},
	One:     pulse.Above(3000),
}

// DigooR8S decodes Digoo DG-R8S temperature/humidity sensors.
type DigooR8S struct{}

func (DigooR8S) Name() string { return "Digoo R8S" }

func (d DigooR8S) Decode(c *pulse.Capture) (Reading, error) {
	if err := checkCount(c, r8sPulseCount, r8sPulseCount); err != nil {
		return Reading{}, err
	}

	cur := pulse.NewCursor(c.Pulses, 0, c.Number)
	main, err := pulse.AssembleN(cur, r8sCoding, r8sMainBits)
	if err != nil {
		return Reading{}, err
	}
	hum, err := pulse.AssembleN(cur, r8sCoding, r8sHumidityBits)
	if err != nil {
		return Reading{}, err
	}

	bits := main.Uint32()
	humidity := uint8(hum.Uint32())
	if bits == 0 {
		return Reading{}, fmt.Errorf("%w: bitstream", pulse.ErrZeroFrame)
	}
	if humidity == 0 {
		return Reading{}, fmt.Errorf("%w: humidity", pulse.ErrZeroFrame)
	}

	temp, err := twosComplement12(bits&r8sTempWidthMask, r8sMaxMagnitude)
	if err != nil {
		return Reading{}, err
	}
	if humidity > r8sMaxHumidity {
		return Reading{}, fmt.Errorf("%w: humidity %d", pulse.ErrRange, humidity)
	}

	kind := (bits >> 24) & 0x0F
	rolling := (bits >> 16) & 0xFF
	channel := int((bits>>12)&0x03) + 1

	r := Reading{
		Protocol:         d.Name(),
		ID:               fmt.Sprintf("%01x%02x%01x", kind, rolling, channel),
		Channel:          channel,
		Temperature:      temp,
		Humidity:         humidity,
		HumidityEncoding: HumidityBinary,
		BatteryLow:       bits&0x8000 == 0,
		TestButton:       bits&0x4000 != 0,
		Fields:           FieldChannel | FieldTemperature | FieldBattery,
		Signature:        ((bits << 8) & 0xFFF00) | uint32(humidity),
	}
	// 99 is what the sensor sends without a working hygrometer.
	if humidity < r8sMaxHumidity {
		r.Fields |= FieldHumidity
	}
	return r, nil
}

// twosComplement12 recovers a signed 12-bit value and rejects magnitudes
// above limit.
func twosComplement12(raw uint32, limit int) (Temperature, error) {
	if raw&0x800 != 0 {
		mag := 4096 - int(raw)
		if mag > limit {
			return 0, fmt.Errorf("%w: temperature -%d", pulse.ErrRange, mag)
		}
		return Temperature(-mag), nil
	}
	if int(raw) > limit {
		return 0, fmt.Errorf("%w: temperature %d", pulse.ErrRange, raw)
	}
	return Temperature(raw), nil
}
