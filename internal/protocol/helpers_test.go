package protocol

import (
	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// Captures logged by an RFLink receiver in debug mode.
var (
	r8sSample = []uint32{576, 4032, 576, 1984, 576, 1984, 576, 4032, 576, 2016, 576, 4032, 576, 4064, 576, 4064, 576, 4032, 576, 4064, 576, 4064, 576, 1984, 576, 4096, 576, 2016, 576, 2016, 576, 2016, 576, 2016, 576, 2016, 576, 2016, 576, 2016, 576, 4032, 576, 4064, 576, 4064, 576, 2016, 576, 4064, 576, 4064, 576, 2016, 576, 2016, 576, 2016, 576, 2016, 576, 4064, 576, 4128, 576, 1984, 576, 4032, 576, 2016, 576, 2016, 576, 2112, 576, 288}
	ex3Sample = []uint32{512, 1888, 544, 4064, 544, 1856, 544, 4128, 512, 4000, 544, 4064, 544, 4064, 544, 4128, 512, 1792, 544, 1856, 544, 1856, 544, 1952, 512, 1792, 544, 1856, 544, 1856, 544, 1952, 512, 1792, 544, 4064, 544, 4064, 544, 1952, 512, 1792, 544, 1856, 544, 4064, 544, 4128, 512, 4000, 544, 4064, 544, 4064, 544, 1952, 512, 1792, 544, 4064, 544, 1856, 544, 4128, 512, 4096, 544, 1760, 544, 1856, 544, 1952, 512, 1792, 544, 1856, 544, 1856, 544, 4064, 576, 4992}
	ws301eSample = []uint32{1408, 2048, 1568, 2048, 1568, 2048, 1568, 2048, 1568, 224, 1568, 256, 1568, 2080, 1568, 256, 1536, 256, 1536, 2080, 1536, 2080, 1568, 2080, 1568, 2080, 1568, 2080, 1568, 2080, 1568, 2080, 1568, 2080, 1568, 2080, 1568, 224, 1568, 256, 1536, 2080, 1568, 2080, 1568, 2080, 1568, 256, 1568, 256, 1536, 2080, 1568, 2080, 1568, 2080, 1568, 2080, 1568, 224, 1568, 256, 1536, 2080, 1536, 256, 1536, 256, 1536, 2080, 1568, 2080, 1568, 256, 1536, 256, 1536, 2080, 1536, 256, 1536, 256, 1536, 2080, 1536, 2080, 1536, 1824, 1568, 256, 1536}
)

// Nominal timings used to synthesise captures. Gaps sit at the middle of the
// zero window; ones use the nominal long gap since that window is open above.
const (
	distMark   = 570
	distZero   = 2000
	distOne    = 4000
	distSync   = 9000
	compMark   = 1550
	compZero   = 1950
	compShort  = 225
	compFollow = 2080
)

func capture(pulses []uint32) *pulse.Capture {
	return pulse.NewCapture(append([]uint32(nil), pulses...))
}

// distanceBits appends n bits of v, MSB first, as mark/space pairs.
func distanceBits(out []uint32, v uint64, n int) []uint32 {
	for i := n - 1; i >= 0; i-- {
		gap := uint32(distZero)
		if v>>uint(i)&1 == 1 {
			gap = distOne
		}
		out = append(out, distMark, gap)
	}
	return out
}

// r8sPulses builds a 76-pulse R8S capture.
func r8sPulses(bits uint32, humidity uint8) []uint32 {
	out := distanceBits(nil, uint64(bits), 28)
	out = distanceBits(out, uint64(humidity), 8)
	out = distanceBits(out, 0, 1)
	return append(out, distMark, distSync)
}

// r8sBits packs R8S fields into the 28-bit main frame.
func r8sBits(kind, rolling uint32, batteryOK, test bool, channel int, temp12 uint32) uint32 {
	v := kind<<24 | rolling<<16 | uint32(channel-1)<<12 | temp12&0xFFF
	if batteryOK {
		v |= 0x8000
	}
	if test {
		v |= 0x4000
	}
	return v
}

// ex3Pulses builds an 82-pulse EX3 capture.
func ex3Pulses(b [5]byte) []uint32 {
	var out []uint32
	for _, v := range b {
		out = distanceBits(out, uint64(v), 8)
	}
	return append(out, distMark, 16000)
}

// ws301eFrame lays out id, sign and BCD temperature with a valid checksum.
func ws301eFrame(id byte, negative bool, hundreds, tens, units byte) [4]byte {
	b1 := hundreds & 0x0F
	if negative {
		b1 |= ws301eNegative
	}
	f := [4]byte{id, b1, tens<<4 | units&0x0F}
	f[3] = ws301eChecksum(f[:3])
	return f
}

// ws301eBitsPulses encodes bits with the composite scheme and appends the
// two-pulse stop marker.
func ws301eBitsPulses(bits []pulse.Bit) []uint32 {
	var out []uint32
	for _, b := range bits {
		if b == pulse.One {
			out = append(out, compMark, compShort, compMark, compShort, compMark, compFollow)
		} else {
			out = append(out, compMark, compZero)
		}
	}
	return append(out, compMark, compShort, compMark, 7000)
}

// frameBits spreads a 28-bit WS301E frame (three bytes and a nibble) into bits.
func frameBits(f [4]byte) []pulse.Bit {
	var bits []pulse.Bit
	for _, v := range f[:3] {
		for i := 7; i >= 0; i-- {
			bits = append(bits, pulse.Bit(v>>uint(i)&1))
		}
	}
	for i := 3; i >= 0; i-- {
		bits = append(bits, pulse.Bit(f[3]>>uint(i)&1))
	}
	return bits
}

func ws301ePulses(f [4]byte) []uint32 {
	return ws301eBitsPulses(frameBits(f))
}

// recorder is a Reporter that keeps every call.
type recorder struct {
	calls       []string
	name        string
	id          string
	channel     int
	temperature uint16
	humidity    uint8
	encoding    HumidityEncoding
	batteryLow  bool
	frame       []byte
	bits        int
}

func (r *recorder) SetName(name string) {
	r.calls = append(r.calls, "name")
	r.name = name
}

func (r *recorder) SetID(id string) {
	r.calls = append(r.calls, "id")
	r.id = id
}

func (r *recorder) SetChannel(channel int) {
	r.calls = append(r.calls, "channel")
	r.channel = channel
}

func (r *recorder) SetTemperature(word uint16) {
	r.calls = append(r.calls, "temperature")
	r.temperature = word
}

func (r *recorder) SetHumidity(percent uint8, enc HumidityEncoding) {
	r.calls = append(r.calls, "humidity")
	r.humidity = percent
	r.encoding = enc
}

func (r *recorder) SetBattery(low bool) {
	r.calls = append(r.calls, "battery")
	r.batteryLow = low
}

func (r *recorder) SetRawFrame(frame []byte, bits int) {
	r.calls = append(r.calls, "frame")
	r.frame = frame
	r.bits = bits
}
