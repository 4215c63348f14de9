package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/climate-controller/internal/report"
	"github.com/sweeney/climate-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
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
	},
	"celsius": func(v float32) string {
		return fmt.Sprintf("%.2f °C", v)
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Climate Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
pre.lcd { background: #9c3; color: #000; padding: 6px 10px; display: inline-block; }
.HEATING { color: #c30; font-weight: bold; }
.COOLING { color: #06c; font-weight: bold; }
.OK { color: green; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Climate Controller</h1>

<pre class="lcd">{{index .Lines 0}}
{{index .Lines 1}}</pre>

<h2>Control</h2>
<table>
<tr><th>Temperature</th><td>{{if .Controller.Ready}}{{celsius .Controller.Temperature}}{{else}}no sample yet{{end}}</td></tr>
<tr><th>Target</th><td>{{celsius .Controller.Target}}</td></tr>
<tr><th>Error</th><td>{{celsius .Controller.Error}}</td></tr>
<tr><th>Regime</th><td class="{{.Regime}}">{{.Regime}}</td></tr>
<tr><th>Mode</th><td>{{.Controller.Mode}}</td></tr>
<tr><th>Heater duty</th><td>{{.Controller.HeaterDuty}}</td></tr>
<tr><th>Fan</th><td>{{onOff .Controller.FanOn}}</td></tr>
<tr><th>Indicators</th><td>A={{onOff .Controller.Indicators.A}} B={{onOff .Controller.Indicators.B}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>Serial</th><td>{{if .Config.SerialPort}}{{.Config.SerialPort}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counters</h2>
<table>
<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
<tr><th>Heating entries</th><td>{{.Counts.HeatingEntries}}</td></tr>
<tr><th>Cooling entries</th><td>{{.Counts.CoolingEntries}}</td></tr>
<tr><th>Idle entries</th><td>{{.Counts.IdleEntries}}</td></tr>
<tr><th>Button steps</th><td>{{.Counts.ButtonSteps}}</td></tr>
<tr><th>Commands accepted</th><td>{{.Counts.CommandsAccepted}}</td></tr>
<tr><th>Commands rejected</th><td>{{.Counts.CommandsRejected}}</td></tr>
<tr><th>Sensor errors</th><td>{{.Counts.SensorErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sensor</th><td>{{.Config.Sensor}}</td></tr>
<tr><th>Sample period</th><td>{{.Config.SamplePeriodMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Setpoint range</th><td>{{.Config.SetpointMin}} to {{.Config.SetpointMax}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	c := snap.Controller
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Regime string
		Lines  [2]string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Regime:   report.RegimeOf(c.Temperature, c.Target).String(),
		Lines:    report.DisplayLines(c.Temperature, c.Target),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("http: render index: %v", err)
	}
}
