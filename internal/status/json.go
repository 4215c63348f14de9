package status

import (
	"encoding/json"
	"time"

	"github.com/chewxy/math32"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Mode          string         `json:"mode"`
	Temperature   float32        `json:"temperature"`
	Target        float32        `json:"target"`
	Error         float32        `json:"error"`
	HeaterDuty    int            `json:"heater_duty"`
	Fan           bool           `json:"fan"`
	Indicators    IndicatorsJSON `json:"indicators"`
	Ready         bool           `json:"ready"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Link          LinkJSON       `json:"link"`
	Counts        CountsJSON     `json:"counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// IndicatorsJSON is the JSON representation of the indicator pair.
type IndicatorsJSON struct {
	A bool `json:"a"`
	B bool `json:"b"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// LinkJSON reports messages lost on the serial and MQTT links.
type LinkJSON struct {
	SerialDropped int `json:"serial_dropped"`
	MQTTBuffered  int `json:"mqtt_buffered"`
	MQTTDropped   int `json:"mqtt_dropped"`
}

// CountsJSON is the JSON representation of controller counters.
type CountsJSON struct {
	Cycles           int `json:"cycles"`
	HeatingEntries   int `json:"heating_entries"`
	CoolingEntries   int `json:"cooling_entries"`
	IdleEntries      int `json:"idle_entries"`
	ButtonSteps      int `json:"button_steps"`
	CommandsAccepted int `json:"commands_accepted"`
	CommandsRejected int `json:"commands_rejected"`
	SensorErrors     int `json:"sensor_errors"`
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

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	SamplePeriodMs int64   `json:"sample_period_ms"`
	DebounceMs     int64   `json:"debounce_ms"`
	HeartbeatMs    int64   `json:"heartbeat_ms"`
	SetpointMin    float32 `json:"setpoint_min"`
	SetpointMax    float32 `json:"setpoint_max"`
	Sensor         string  `json:"sensor"`
	SerialPort     string  `json:"serial_port,omitempty"`
	Broker         string  `json:"broker"`
	HTTPPort       string  `json:"http_port"`
}

// round2 keeps two decimals, matching the telemetry line.
func round2(v float32) float32 {
	return math32.Round(v*100) / 100
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Controller
	mode := string(c.Mode)
	if mode == "" || !c.Ready {
		mode = "UNKNOWN"
	}

	return StatusInner{
		Mode:          mode,
		Temperature:   round2(c.Temperature),
		Target:        round2(c.Target),
		Error:         round2(c.Error),
		HeaterDuty:    c.HeaterDuty,
		Fan:           c.FanOn,
		Indicators:    IndicatorsJSON{A: c.Indicators.A, B: c.Indicators.B},
		Ready:         c.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Link: LinkJSON{
			SerialDropped: snap.Link.SerialDropped,
			MQTTBuffered:  snap.Link.MQTTBuffered,
			MQTTDropped:   snap.Link.MQTTDropped,
		},
		Counts: CountsJSON{
			Cycles:           snap.Counts.Cycles,
			HeatingEntries:   snap.Counts.HeatingEntries,
			CoolingEntries:   snap.Counts.CoolingEntries,
			IdleEntries:      snap.Counts.IdleEntries,
			ButtonSteps:      snap.Counts.ButtonSteps,
			CommandsAccepted: snap.Counts.CommandsAccepted,
			CommandsRejected: snap.Counts.CommandsRejected,
			SensorErrors:     snap.Counts.SensorErrors,
		},
		Config: ConfigJSON{
			SamplePeriodMs: snap.Config.SamplePeriodMs,
			DebounceMs:     snap.Config.DebounceMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			SetpointMin:    snap.Config.SetpointMin,
			SetpointMax:    snap.Config.SetpointMax,
			Sensor:         snap.Config.Sensor,
			SerialPort:     snap.Config.SerialPort,
			Broker:         snap.Config.Broker,
			HTTPPort:       snap.Config.HTTPPort,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
