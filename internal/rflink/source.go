package rflink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	serial "github.com/tarm/goserial"

	"github.com/sweeney/rf433-sensor/internal/log"
	"github.com/sweeney/rf433-sensor/internal/pulse"
)

// enableDebug switches an RFLink receiver into raw pulse reporting.
const enableDebug = "10;RFDEBUG=ON;\r\n"

// maxLine bounds a single line; the longest captures run to a few kB.
const maxLine = 64 * 1024

// ReaderSource emits a capture for every debug line read from r.
type ReaderSource struct {
	r io.Reader
}

// NewReaderSource creates a ReaderSource over r, typically a log file.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// Run scans lines until EOF or until ctx is cancelled. Lines that are not
// debug lines are skipped; malformed ones are logged and skipped.
func (s *ReaderSource) Run(ctx context.Context, out chan<- *pulse.Capture) error {
	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 4096), maxLine)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		d, err := ParseDebug(sc.Text())
		if errors.Is(err, ErrNotDebug) {
			continue
		}
		if err != nil {
			log.Warnf("rflink: line %d: %v", lineNo, err)
			continue
		}
		if d.Declared != len(d.Durations) {
			log.Debugw("rflink: pulse count disagrees with list",
				"line", lineNo, "declared", d.Declared, "listed", len(d.Durations))
		}

		select {
		case out <- d.Capture():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read lines: %w", err)
	}
	return nil
}

// SerialSource reads debug lines from a receiver on a serial port.
type SerialSource struct {
	device string
	baud   int
}

// NewSerialSource creates a SerialSource for the given device.
func NewSerialSource(device string, baud int) *SerialSource {
	return &SerialSource{device: device, baud: baud}
}

// Run opens the port, enables debug output and forwards captures until ctx is
// cancelled or the port fails.
func (s *SerialSource) Run(ctx context.Context, out chan<- *pulse.Capture) error {
	sc := &serial.Config{Name: s.device, Baud: s.baud}
	log.Debugf("opening serial port %s at %d baud", s.device, s.baud)
	rwc, err := serial.OpenPort(sc)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.device, err)
	}

	// Closing the port is the only way to unblock a pending read.
	stop := context.AfterFunc(ctx, func() { rwc.Close() })
	defer func() {
		if stop() {
			rwc.Close()
		}
	}()

	if _, err := io.WriteString(rwc, enableDebug); err != nil {
		return fmt.Errorf("enable receiver debug: %w", err)
	}

	err = NewReaderSource(rwc).Run(ctx, out)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
