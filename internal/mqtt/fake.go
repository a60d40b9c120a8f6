package mqtt

import "github.com/sweeney/rf433-sensor/internal/report"

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Records contains all readings that were published.
	Records []*report.Record

	// Payloads contains the encoded reading payloads.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// Encoding is used for reading payloads.
	Encoding Encoding

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Encoding: JSON}
}

// Publish records the reading.
func (f *FakePublisher) Publish(rec *report.Record) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(rec, f.Encoding)
	if err != nil {
		return err
	}
	f.Records = append(f.Records, rec)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears everything recorded.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{Encoding: f.Encoding}
}
