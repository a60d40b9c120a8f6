package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/rf433-sensor/internal/report"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Sensors       int          `json:"sensors"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Held      int    `json:"held"`
	Dropped   uint64 `json:"dropped"`
}

// CountsJSON is the JSON representation of Counts.
type CountsJSON struct {
	Captures      int                           `json:"captures"`
	Filtered      int                           `json:"repeats_filtered"`
	Unrecognized  int                           `json:"unrecognized"`
	PublishErrors int                           `json:"publish_errors"`
	SourceDropped uint64                        `json:"source_dropped"`
	Protocols     map[string]ProtocolCountsJSON `json:"protocols"`
}

// ProtocolCountsJSON is the JSON representation of ProtocolCounts.
type ProtocolCountsJSON struct {
	Accepted   int `json:"accepted"`
	Suppressed int `json:"suppressed"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Source           string   `json:"source"`
	Broker           string   `json:"broker"`
	Encoding         string   `json:"encoding"`
	HTTPAddr         string   `json:"http_addr"`
	HeartbeatMs      int64    `json:"heartbeat_ms"`
	SuppressWindowMs int64    `json:"suppress_window_ms"`
	Protocols        []string `json:"protocols"`
}

// SensorJSON is one entry of the readings document.
type SensorJSON struct {
	report.Record
	LastSeen string `json:"last_seen"`
	Readings int    `json:"readings"`
}

// ReadingsJSON is the top-level JSON envelope for the latest readings.
type ReadingsJSON struct {
	Readings []SensorJSON `json:"readings"`
}

func buildInner(snap Snapshot) StatusInner {
	protocols := make(map[string]ProtocolCountsJSON, len(snap.Counts.Protocols))
	for name, pc := range snap.Counts.Protocols {
		protocols[name] = ProtocolCountsJSON{Accepted: pc.Accepted, Suppressed: pc.Suppressed}
	}

	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Sensors:       len(snap.Sensors),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Held:      snap.MQTTHeld,
			Dropped:   snap.MQTTDropped,
		},
		Counts: CountsJSON{
			Captures:      snap.Counts.Captures,
			Filtered:      snap.Counts.Filtered,
			Unrecognized:  snap.Counts.Unrecognized,
			PublishErrors: snap.Counts.PublishErrors,
			SourceDropped: snap.Counts.SourceDropped,
			Protocols:     protocols,
		},
		Config: ConfigJSON{
			Source:           snap.Config.Source,
			Broker:           snap.Config.Broker,
			Encoding:         snap.Config.Encoding,
			HTTPAddr:         snap.Config.HTTPAddr,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			SuppressWindowMs: snap.Config.SuppressWindowMs,
			Protocols:        snap.Config.Protocols,
		},
	}
	if n := snap.Network; n != nil {
		inner.Network = &NetworkJSON{
			Type:       n.Type,
			IP:         n.IP,
			Status:     n.Status,
			Gateway:    n.Gateway,
			WifiStatus: n.WifiStatus,
			SSID:       n.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatReadingsJSON returns the latest reading of every sensor.
func FormatReadingsJSON(snap Snapshot) []byte {
	out := ReadingsJSON{Readings: make([]SensorJSON, 0, len(snap.Sensors))}
	for _, s := range snap.Sensors {
		out.Readings = append(out.Readings, SensorJSON{
			Record:   s.Record,
			LastSeen: s.LastSeen.UTC().Format(time.RFC3339),
			Readings: s.Readings,
		})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return data
}
