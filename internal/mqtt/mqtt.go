// Package mqtt provides MQTT publishing and remote setpoint commands with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/chewxy/math32"

	"github.com/sweeney/climate-controller/internal/logic"
)

// Topic names below the configured prefix.
const (
	TopicEvents    = "events"
	TopicTelemetry = "telemetry"
	TopicSystem    = "system"
	TopicCommand   = "set"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "climate"

// Topic joins prefix and name.
func Topic(prefix, name string) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "/" + name
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a mode change event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishTelemetry sends a periodic reading. Readings are dropped while
	// the broker is unreachable.
	PublishTelemetry(t Telemetry) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandSink receives remote setpoint lines.
type CommandSink interface {
	Offer(line string) bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Telemetry is one controller reading.
type Telemetry struct {
	Timestamp   time.Time
	Temperature float32
	Target      float32
	Error       float32
	HeaterDuty  int
	Fan         bool
	Mode        logic.Mode
}

// TelemetryFromState builds a reading from the controller state.
func TelemetryFromState(now time.Time, st logic.State) Telemetry {
	return Telemetry{
		Timestamp:   now,
		Temperature: st.Temperature.Value,
		Target:      st.Target,
		Error:       st.Error,
		HeaterDuty:  st.HeaterDuty,
		Fan:         st.FanOn,
		Mode:        st.Mode,
	}
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Climate ClimatePayload `json:"climate"`
}

// ClimatePayload contains the mode change details.
type ClimatePayload struct {
	Timestamp   string  `json:"timestamp"`
	Event       string  `json:"event"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Temperature float32 `json:"temperature"`
	Target      float32 `json:"target"`
}

// eventName is the event field of a mode change, e.g. "HEATING_ON".
func eventName(to logic.Mode) string {
	return string(to) + "_ON"
}

// FormatPayload creates the JSON payload for a mode change event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Climate: ClimatePayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       eventName(event.To),
			From:        string(event.From),
			To:          string(event.To),
			Temperature: round2(event.Temperature),
			Target:      round2(event.Target),
		},
	}
	return json.Marshal(payload)
}

// TelemetryPayload represents the MQTT payload for a reading.
type TelemetryPayload struct {
	Telemetry TelemetryPayloadInner `json:"telemetry"`
}

// TelemetryPayloadInner contains the reading details.
type TelemetryPayloadInner struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float32 `json:"temperature"`
	Target      float32 `json:"target"`
	Error       float32 `json:"error"`
	HeaterDuty  int     `json:"heater_duty"`
	Fan         bool    `json:"fan"`
	Mode        string  `json:"mode"`
}

// FormatTelemetryPayload creates the JSON payload for a reading.
func FormatTelemetryPayload(t Telemetry) ([]byte, error) {
	payload := TelemetryPayload{
		Telemetry: TelemetryPayloadInner{
			Timestamp:   t.Timestamp.UTC().Format(time.RFC3339),
			Temperature: round2(t.Temperature),
			Target:      round2(t.Target),
			Error:       round2(t.Error),
			HeaterDuty:  t.HeaterDuty,
			Fan:         t.Fan,
			Mode:        string(t.Mode),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

func round2(v float32) float32 {
	return math32.Round(v*100) / 100
}
