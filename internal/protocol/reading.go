// Package protocol decodes captures from 433MHz outdoor weather sensors into
// readings. Decoding is pure: no I/O, no logging, and time is always passed in.
package protocol

import (
	"fmt"

	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// Temperature is a temperature in tenths of a degree Celsius.
type Temperature int16

// signMarker flags a negative magnitude in the word handed to reporters.
const signMarker = 0x8000

// Word returns the signed-magnitude form used on the reporter interface: the
// magnitude in tenths with bit 15 set for values below zero.
func (t Temperature) Word() uint16 {
	if t < 0 {
		return uint16(-int32(t)) | signMarker
	}
	return uint16(t)
}

// TemperatureFromWord converts a signed-magnitude word back to a Temperature.
func TemperatureFromWord(w uint16) Temperature {
	mag := Temperature(w &^ signMarker)
	if w&signMarker != 0 {
		return -mag
	}
	return mag
}

// Celsius returns the temperature in degrees.
func (t Temperature) Celsius() float64 {
	return float64(t) / 10
}

func (t Temperature) String() string {
	sign := ""
	mag := int32(t)
	if mag < 0 {
		sign = "-"
		mag = -mag
	}
	return fmt.Sprintf("%s%d.%d", sign, mag/10, mag%10)
}

// HumidityEncoding records how the sensor transmitted humidity.
type HumidityEncoding uint8

const (
	HumidityBinary HumidityEncoding = iota
	HumidityBCD
)

func (e HumidityEncoding) String() string {
	if e == HumidityBCD {
		return "bcd"
	}
	return "binary"
}

// Field is a set of optional reading fields a protocol provides.
type Field uint8

const (
	FieldChannel Field = 1 << iota
	FieldTemperature
	FieldHumidity
	FieldBattery
	FieldRawFrame
)

// Reading is one decoded sensor transmission.
type Reading struct {
	Protocol         string
	ID               string
	Channel          int
	Temperature      Temperature
	Humidity         uint8 // percent
	HumidityEncoding HumidityEncoding
	BatteryLow       bool
	TestButton       bool
	ChecksumValid    bool

	// Fields lists which of the optional fields above were transmitted.
	Fields Field

	// Frame is the assembled frame, kept for protocols that report it raw.
	Frame pulse.Frame

	// Signature summarises the fields that stay constant across the
	// retransmissions of one measurement.
	Signature uint32
}

// Has reports whether f was transmitted.
func (r Reading) Has(f Field) bool {
	return r.Fields&f != 0
}

// Reporter receives a reading field by field.
type Reporter interface {
	SetName(name string)
	SetID(id string)
	SetChannel(channel int)
	// SetTemperature receives tenths of a degree in signed-magnitude form,
	// see Temperature.Word.
	SetTemperature(word uint16)
	SetHumidity(percent uint8, enc HumidityEncoding)
	SetBattery(low bool)
	SetRawFrame(frame []byte, bits int)
}

// Report hands every transmitted field of r to rep.
func (r Reading) Report(rep Reporter) {
	rep.SetName(r.Protocol)
	rep.SetID(r.ID)
	if r.Has(FieldChannel) {
		rep.SetChannel(r.Channel)
	}
	if r.Has(FieldTemperature) {
		rep.SetTemperature(r.Temperature.Word())
	}
	if r.Has(FieldHumidity) {
		rep.SetHumidity(r.Humidity, r.HumidityEncoding)
	}
	if r.Has(FieldBattery) {
		rep.SetBattery(r.BatteryLow)
	}
	if r.Has(FieldRawFrame) {
		rep.SetRawFrame(r.Frame.Bytes, r.Frame.Bits)
	}
}
