package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/rf433-sensor/internal/protocol"
	"github.com/sweeney/rf433-sensor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Source:           "gpio",
		Broker:           "tcp://192.168.1.200:1883",
		Encoding:         "json",
		HTTPAddr:         ":8080",
		HeartbeatMs:      900000,
		SuppressWindowMs: 500,
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, tr
}

func accept(tr *status.Tracker, r protocol.Reading) {
	tr.RecordOutcome(protocol.Outcome{Reading: r, Result: protocol.Accepted}, time.Now())
}

var (
	r8sReading = protocol.Reading{
		Protocol:    "Digoo R8S",
		ID:          "97e1",
		Channel:     1,
		Temperature: 236,
		Humidity:    52,
		BatteryLow:  true,
		Fields:      protocol.FieldChannel | protocol.FieldTemperature | protocol.FieldHumidity | protocol.FieldBattery,
	}
	ws301eReading = protocol.Reading{
		Protocol:    "Atech 301E",
		ID:          "0c",
		Temperature: -12,
		Fields:      protocol.FieldTemperature,
	}
)

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.RecordCapture()
	tr.RecordCapture()
	accept(tr, r8sReading)
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Counts.Captures != 2 {
		t.Errorf("Captures: got %d, want 2", sj.Status.Counts.Captures)
	}
	if sj.Status.Counts.Protocols["Digoo R8S"].Accepted != 1 {
		t.Errorf("protocol counts: %+v", sj.Status.Counts.Protocols)
	}
	if sj.Status.Config.Source != "gpio" {
		t.Errorf("Config.Source: got %q", sj.Status.Config.Source)
	}
}

func TestReadingsEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	accept(tr, r8sReading)
	accept(tr, ws301eReading)

	resp, body := get(t, ts.URL+"/readings.json")
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var rj status.ReadingsJSON
	if err := json.Unmarshal([]byte(body), &rj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if len(rj.Readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(rj.Readings))
	}
	if rj.Readings[0].Protocol != "Atech 301E" || rj.Readings[1].Protocol != "Digoo R8S" {
		t.Errorf("order: %s, %s", rj.Readings[0].Protocol, rj.Readings[1].Protocol)
	}
}

func TestSensorEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	accept(tr, r8sReading)
	accept(tr, ws301eReading)

	resp, body := get(t, ts.URL+"/readings/Digoo-R8S/97e1.json")
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var rj status.ReadingsJSON
	if err := json.Unmarshal([]byte(body), &rj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if len(rj.Readings) != 1 || rj.Readings[0].ID != "97e1" {
		t.Errorf("unexpected readings: %s", body)
	}

	resp, _ = get(t, ts.URL+"/readings/Digoo-R8S/ffff.json")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown sensor: got %d, want 404", resp.StatusCode)
	}
}

func TestIndexHTML(t *testing.T) {
	ts, tr := newTestServer(t)
	accept(tr, r8sReading)
	accept(tr, ws301eReading)
	tr.SetMQTTOutbox(5, 2)
	tr.SetSourceDropped(7)

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q", ct)
	}

	for _, want := range []string{
		"<title>RF433 Sensor</title>",
		"Digoo R8S",
		"23.6°C",
		"-1.2°C",
		"52%",
		`<span class="low">LOW</span>`,
		`href="/readings/Digoo-R8S/97e1.json"`,
		"tcp://192.168.1.200:1883",
		"500ms",
		"5 held, 2 dropped",
		"<th>Dropped by source</th><td>7</td>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestIndexHTMLEmpty(t *testing.T) {
	ts, _ := newTestServer(t)
	_, body := get(t, ts.URL+"/index.html")
	if !strings.Contains(body, "No readings yet.") {
		t.Error("expected empty state message")
	}
}

func TestUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+"/index.json", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestUptimeFormat(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{3*time.Minute + 2*time.Second + 900*time.Millisecond, "3m 2s"},
		{2*time.Hour + 5*time.Minute, "2h 5m 0s"},
		{49*time.Hour + 30*time.Second, "2d 1h 0m 30s"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v): got %q, want %q", tt.d, got, tt.want)
		}
	}
}
