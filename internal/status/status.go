// Package status provides a thread-safe status tracker for the rf433-sensor
// daemon. It is written by the run loop and read by HTTP handlers.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/sweeney/rf433-sensor/internal/protocol"
	"github.com/sweeney/rf433-sensor/internal/report"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Source           string
	Broker           string
	Encoding         string
	HTTPAddr         string
	HeartbeatMs      int64
	SuppressWindowMs int64
	Protocols        []string
}

// ProtocolCounts counts the outcomes for one protocol.
type ProtocolCounts struct {
	Accepted   int
	Suppressed int
}

// Counts aggregates what the daemon has seen since it started.
type Counts struct {
	Captures      int
	Filtered      int // dropped as retransmissions before decoding
	Unrecognized  int
	PublishErrors int
	Protocols     map[string]ProtocolCounts

	// SourceDropped counts captures the source discarded because the loop
	// was busy.
	SourceDropped uint64
}

// Sensor is the latest accepted reading from one transmitter.
type Sensor struct {
	Record   report.Record
	LastSeen time.Time
	Readings int
}

// Snapshot is a point-in-time view of daemon state. It shares no memory with
// the tracker and is safe to use after the lock is released.
type Snapshot struct {
	Counts        Counts
	Sensors       []Sensor // ordered by protocol, then ID
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MQTTHeld      int    // messages waiting for the broker
	MQTTDropped   uint64 // held messages discarded because the outbox was full
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	counts        Counts
	sensors       map[string]*Sensor
	startTime     time.Time
	mqttConnected bool
	mqttHeld      int
	mqttDropped   uint64
	network       *NetworkInfo
	config        Config

	now func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		counts:    Counts{Protocols: make(map[string]ProtocolCounts)},
		sensors:   make(map[string]*Sensor),
		startTime: startTime,
		config:    cfg,
		now:       time.Now,
	}
}

// RecordCapture counts a capture delivered by the source.
func (t *Tracker) RecordCapture() {
	t.mu.Lock()
	t.counts.Captures++
	t.mu.Unlock()
}

// RecordFiltered counts a capture dropped as a retransmission.
func (t *Tracker) RecordFiltered() {
	t.mu.Lock()
	t.counts.Filtered++
	t.mu.Unlock()
}

// RecordUnrecognized counts a capture no decoder accepted.
func (t *Tracker) RecordUnrecognized() {
	t.mu.Lock()
	t.counts.Unrecognized++
	t.mu.Unlock()
}

// RecordPublishError counts a reading that could not be published.
func (t *Tracker) RecordPublishError() {
	t.mu.Lock()
	t.counts.PublishErrors++
	t.mu.Unlock()
}

// RecordOutcome counts a decoded reading and, when accepted, stores it as the
// latest from its sensor.
func (t *Tracker) RecordOutcome(out protocol.Outcome, at time.Time) {
	r := out.Reading
	t.mu.Lock()
	defer t.mu.Unlock()

	pc := t.counts.Protocols[r.Protocol]
	switch out.Result {
	case protocol.Accepted:
		pc.Accepted++
	case protocol.Suppressed:
		pc.Suppressed++
	}
	t.counts.Protocols[r.Protocol] = pc

	if out.Result != protocol.Accepted {
		return
	}
	rec := report.NewRecord(at)
	r.Report(rec)

	key := r.Protocol + "/" + r.ID
	s, ok := t.sensors[key]
	if !ok {
		s = &Sensor{}
		t.sensors[key] = s
	}
	s.Record = *rec
	s.LastSeen = at
	s.Readings++
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqttConnected = connected
	t.mu.Unlock()
}

// SetMQTTOutbox sets the state of the offline outbox.
func (t *Tracker) SetMQTTOutbox(held int, dropped uint64) {
	t.mu.Lock()
	t.mqttHeld = held
	t.mqttDropped = dropped
	t.mu.Unlock()
}

// SetSourceDropped sets the number of captures the source discarded.
func (t *Tracker) SetSourceDropped(n uint64) {
	t.mu.Lock()
	t.counts.SourceDropped = n
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.network = info
	t.mu.Unlock()
}

// Snapshot returns a copy of the daemon state with Now set to the moment of
// the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		Counts:        t.counts,
		StartTime:     t.startTime,
		MQTTConnected: t.mqttConnected,
		MQTTHeld:      t.mqttHeld,
		MQTTDropped:   t.mqttDropped,
		Config:        t.config,
		Now:           t.now(),
	}
	s.Counts.Protocols = make(map[string]ProtocolCounts, len(t.counts.Protocols))
	for k, v := range t.counts.Protocols {
		s.Counts.Protocols[k] = v
	}
	if t.network != nil {
		n := *t.network
		s.Network = &n
	}
	s.Sensors = make([]Sensor, 0, len(t.sensors))
	for _, sensor := range t.sensors {
		s.Sensors = append(s.Sensors, *sensor)
	}
	sort.Slice(s.Sensors, func(i, j int) bool {
		a, b := s.Sensors[i].Record, s.Sensors[j].Record
		if a.Protocol != b.Protocol {
			return a.Protocol < b.Protocol
		}
		return a.ID < b.ID
	})
	return s
}
