package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sweeney/rf433-sensor/internal/protocol"
)

// Line formats a reading in the text format RFLink gateways print, e.g.
//
//	20;2D;Digoo R8S;ID=97e1;TEMP=00ec;HUM=52;BAT=OK;
type Line struct {
	b strings.Builder
}

var _ protocol.Reporter = (*Line)(nil)

// NewLine starts a line with the given sequence number.
func NewLine(seq uint8) *Line {
	l := &Line{}
	fmt.Fprintf(&l.b, "20;%02X;", seq)
	return l
}

// String returns the line without a terminator.
func (l *Line) String() string {
	return l.b.String()
}

func (l *Line) SetName(name string) {
	l.b.WriteString(name)
	l.b.WriteByte(';')
}

func (l *Line) SetID(id string) {
	fmt.Fprintf(&l.b, "ID=%s;", id)
}

func (l *Line) SetChannel(channel int) {
	fmt.Fprintf(&l.b, "CHN=%04x;", channel)
}

// SetTemperature prints the word as is: tenths of a degree in hex with bit 15
// marking a negative value.
func (l *Line) SetTemperature(word uint16) {
	fmt.Fprintf(&l.b, "TEMP=%04x;", word)
}

func (l *Line) SetHumidity(percent uint8, _ protocol.HumidityEncoding) {
	fmt.Fprintf(&l.b, "HUM=%02d;", percent)
}

func (l *Line) SetBattery(low bool) {
	if low {
		l.b.WriteString("BAT=LOW;")
		return
	}
	l.b.WriteString("BAT=OK;")
}

func (l *Line) SetRawFrame(frame []byte, bits int) {
	fmt.Fprintf(&l.b, "RAW=%x;BITS=%d;", frame, bits)
}

// LineWriter writes one numbered line per reading.
type LineWriter struct {
	w   io.Writer
	seq uint8
}

// NewLineWriter creates a LineWriter on w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// Write formats r and writes it terminated by CRLF.
func (lw *LineWriter) Write(r protocol.Reading) error {
	l := NewLine(lw.seq)
	lw.seq++
	r.Report(l)
	if _, err := io.WriteString(lw.w, l.String()+"\r\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}
