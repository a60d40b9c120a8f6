// Package mqtt publishes decoded readings and daemon lifecycle events to an
// MQTT broker, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/sweeney/rf433-sensor/internal/report"
)

// Topic is the MQTT topic for sensor readings.
const Topic = "weather/rf433/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "weather/rf433/system"

// Encoding selects the wire format of reading payloads. System events are
// always JSON.
type Encoding string

const (
	JSON    Encoding = "json"
	Msgpack Encoding = "msgpack"
)

// Publisher publishes readings and system events.
type Publisher interface {
	// Publish sends a reading to the broker. A failure should be logged, not
	// stop the daemon.
	Publish(rec *report.Record) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event such as STARTUP, SHUTDOWN,
// HEARTBEAT or RECONNECTED.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // shutdown only, e.g. "SIGTERM"
	RawPayload []byte // pre-formatted payload, returned as is by FormatSystemPayload
	Retained   bool
}

// Payload wraps a reading record.
type Payload struct {
	Reading *report.Record `json:"reading" msgpack:"reading"`
}

// FormatPayload encodes a reading record.
func FormatPayload(rec *report.Record, enc Encoding) ([]byte, error) {
	p := Payload{Reading: rec}
	switch enc {
	case JSON, "":
		return json.Marshal(p)
	case Msgpack:
		return msgpack.Marshal(p)
	}
	return nil, fmt.Errorf("unknown encoding %q", enc)
}

// SystemPayload is the payload of events that carry no status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
