package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/sweeney/rf433-sensor/internal/protocol"
	"github.com/sweeney/rf433-sensor/internal/pulse"
)

var (
	r8sReading = protocol.Reading{
		Protocol:    "Digoo R8S",
		ID:          "97e1",
		Channel:     1,
		Temperature: 236,
		Humidity:    52,
		Fields:      protocol.FieldChannel | protocol.FieldTemperature | protocol.FieldHumidity | protocol.FieldBattery,
	}
	ex3Reading = protocol.Reading{
		Protocol:         "Digoo EX3",
		ID:               "5f",
		Temperature:      -57,
		Humidity:         58,
		HumidityEncoding: protocol.HumidityBCD,
		Fields:           protocol.FieldTemperature | protocol.FieldHumidity,
	}
	ws301eReading = protocol.Reading{
		Protocol:    "Atech 301E",
		ID:          "0c",
		Temperature: 246,
		Fields:      protocol.FieldTemperature | protocol.FieldRawFrame,
		Frame:       pulse.Frame{Bytes: []byte{0x0c, 0x02, 0x46, 0x0c}, Bits: 28},
	}
)

func TestRecord(t *testing.T) {
	rec := NewRecord(time.Date(2026, 2, 10, 8, 30, 0, 0, time.FixedZone("CET", 3600)))
	r8sReading.Report(rec)

	if rec.Timestamp != "2026-02-10T07:30:00Z" {
		t.Errorf("Timestamp: got %s", rec.Timestamp)
	}
	if rec.Protocol != "Digoo R8S" || rec.ID != "97e1" {
		t.Errorf("got %s/%s", rec.Protocol, rec.ID)
	}
	if rec.Channel == nil || *rec.Channel != 1 {
		t.Errorf("Channel: got %v", rec.Channel)
	}
	if rec.Temperature == nil || *rec.Temperature != 23.6 {
		t.Errorf("Temperature: got %v", rec.Temperature)
	}
	if rec.Humidity == nil || *rec.Humidity != 52 || rec.HumidityEnc != "binary" {
		t.Errorf("Humidity: got %v %s", rec.Humidity, rec.HumidityEnc)
	}
	if rec.BatteryLow == nil || *rec.BatteryLow {
		t.Errorf("BatteryLow: got %v", rec.BatteryLow)
	}
	if rec.RawFrame != "" {
		t.Errorf("RawFrame should be empty, got %s", rec.RawFrame)
	}
}

func TestRecordOmitsUntransmitted(t *testing.T) {
	rec := NewRecord(time.Unix(0, 0))
	ex3Reading.Report(rec)

	if rec.Channel != nil || rec.BatteryLow != nil {
		t.Error("EX3 does not transmit channel or battery")
	}
	if rec.Temperature == nil || *rec.Temperature != -5.7 {
		t.Errorf("Temperature: got %v", rec.Temperature)
	}
	if rec.HumidityEnc != "bcd" {
		t.Errorf("HumidityEnc: got %s", rec.HumidityEnc)
	}
}

func TestRecordRawFrame(t *testing.T) {
	rec := NewRecord(time.Unix(0, 0))
	ws301eReading.Report(rec)

	if rec.RawFrame != "0c02460c" || rec.RawBits != 28 {
		t.Errorf("raw frame: got %s/%d", rec.RawFrame, rec.RawBits)
	}
	if rec.Humidity != nil {
		t.Error("WS301E does not transmit humidity")
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name    string
		reading protocol.Reading
		want    string
	}{
		{"r8s", r8sReading, "20;2D;Digoo R8S;ID=97e1;CHN=0001;TEMP=00ec;HUM=52;BAT=OK;"},
		{"ex3", ex3Reading, "20;2D;Digoo EX3;ID=5f;TEMP=8039;HUM=58;"},
		{"ws301e", ws301eReading, "20;2D;Atech 301E;ID=0c;TEMP=00f6;RAW=0c02460c;BITS=28;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLine(0x2D)
			tt.reading.Report(l)
			if got := l.String(); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestLineBatteryLow(t *testing.T) {
	l := NewLine(0)
	l.SetBattery(true)
	if got := l.String(); got != "20;00;BAT=LOW;" {
		t.Errorf("got %s", got)
	}
}

func TestLineWriterSequence(t *testing.T) {
	var buf bytes.Buffer
	lw := NewLineWriter(&buf)
	for i := 0; i < 2; i++ {
		if err := lw.Write(ex3Reading); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	want := "20;00;Digoo EX3;ID=5f;TEMP=8039;HUM=58;\r\n" +
		"20;01;Digoo EX3;ID=5f;TEMP=8039;HUM=58;\r\n"
	if buf.String() != want {
		t.Errorf("got %q\nwant %q", buf.String(), want)
	}
}
