package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/rf433-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": formatUptime,
	"ago": func(now, then time.Time) string {
		return now.Sub(then).Truncate(time.Second).String()
	},
	"slug": slug,
	"celsius": func(c *float64) string {
		if c == nil {
			return ""
		}
		return fmt.Sprintf("%.1f°C", *c)
	},
	"battery": func(low *bool) template.HTML {
		switch {
		case low == nil:
			return ""
		case *low:
			return `<span class="low">LOW</span>`
		}
		return "ok"
	},
}).Parse(indexHTML))

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	days := int(d.Hours()) / 24
	h := int(d.Hours()) % 24
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
	}
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// slug turns a protocol name into a URL path segment.
func slug(name string) string {
	return strings.ReplaceAll(name, " ", "-")
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>RF433 Sensor</title>
<style>
body { font-family: monospace; max-width: 760px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.low { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>RF433 Sensor</h1>

<h2>Sensors</h2>
{{if .Sensors}}<table>
<tr><th>Protocol</th><th>ID</th><th>Ch</th><th>Temp</th><th>Hum</th><th>Battery</th><th>Seen</th><th>Count</th></tr>
{{range .Sensors}}<tr>
<td>{{.Record.Protocol}}</td>
<td><a href="/readings/{{slug .Record.Protocol}}/{{.Record.ID}}.json">{{.Record.ID}}</a></td>
<td>{{with .Record.Channel}}{{.}}{{end}}</td>
<td>{{celsius .Record.Temperature}}</td>
<td>{{with .Record.Humidity}}{{.}}%{{end}}</td>
<td>{{battery .Record.BatteryLow}}</td>
<td>{{ago $.Now .LastSeen}} ago</td>
<td>{{.Readings}}</td>
</tr>
{{end}}</table>{{else}}<p>No readings yet.</p>{{end}}

<h2>Decoding</h2>
<table>
<tr><th>Captures</th><td>{{.Counts.Captures}}</td></tr>
<tr><th>Repeats filtered</th><td>{{.Counts.Filtered}}</td></tr>
<tr><th>Unrecognized</th><td>{{.Counts.Unrecognized}}</td></tr>
{{range $name, $c := .Counts.Protocols}}<tr><th>{{$name}}</th><td>{{$c.Accepted}} accepted, {{$c.Suppressed}} suppressed</td></tr>
{{end}}<tr><th>Publish errors</th><td>{{.Counts.PublishErrors}}</td></tr>
<tr><th>Dropped by source</th><td>{{.Counts.SourceDropped}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Outbox</th><td>{{.MQTTHeld}} held, {{.MQTTDropped}} dropped</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Encoding</th><td>{{.Config.Encoding}}</td></tr>
<tr><th>Suppress window</th><td>{{.Config.SuppressWindowMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">status JSON</a> | <a href="/readings.json">readings JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// The template needs Uptime as a field, not a method.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
