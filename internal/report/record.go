// Package report implements the reading sinks of the decoder: a structured
// record for publishing and RFLink-style text lines.
package report

import (
	"encoding/hex"
	"time"

	"github.com/sweeney/rf433-sensor/internal/protocol"
)

// Record collects a reading into a value ready for encoding. Optional fields
// stay nil when the sensor did not transmit them.
type Record struct {
	Timestamp   string   `json:"timestamp" msgpack:"timestamp"`
	Protocol    string   `json:"protocol" msgpack:"protocol"`
	ID          string   `json:"id" msgpack:"id"`
	Channel     *int     `json:"channel,omitempty" msgpack:"channel,omitempty"`
	Temperature *float64 `json:"temperature_c,omitempty" msgpack:"temperature_c,omitempty"`
	Humidity    *uint8   `json:"humidity,omitempty" msgpack:"humidity,omitempty"`
	HumidityEnc string   `json:"humidity_encoding,omitempty" msgpack:"humidity_encoding,omitempty"`
	BatteryLow  *bool    `json:"battery_low,omitempty" msgpack:"battery_low,omitempty"`
	RawFrame    string   `json:"raw_frame,omitempty" msgpack:"raw_frame,omitempty"`
	RawBits     int      `json:"raw_bits,omitempty" msgpack:"raw_bits,omitempty"`
}

var _ protocol.Reporter = (*Record)(nil)

// NewRecord creates an empty record stamped with t.
func NewRecord(t time.Time) *Record {
	return &Record{Timestamp: t.UTC().Format(time.RFC3339)}
}

func (r *Record) SetName(name string) { r.Protocol = name }

func (r *Record) SetID(id string) { r.ID = id }

func (r *Record) SetChannel(channel int) { r.Channel = &channel }

// SetTemperature stores the signed-magnitude word as degrees Celsius.
func (r *Record) SetTemperature(word uint16) {
	c := protocol.TemperatureFromWord(word).Celsius()
	r.Temperature = &c
}

func (r *Record) SetHumidity(percent uint8, enc protocol.HumidityEncoding) {
	r.Humidity = &percent
	r.HumidityEnc = enc.String()
}

func (r *Record) SetBattery(low bool) { r.BatteryLow = &low }

func (r *Record) SetRawFrame(frame []byte, bits int) {
	r.RawFrame = hex.EncodeToString(frame)
	r.RawBits = bits
}
