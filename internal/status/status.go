// Package status provides a thread-safe status tracker for the climate controller.
// It is written by the control loop and read by HTTP handlers and MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/climate-controller/internal/logic"
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

// Config contains controller configuration for display.
type Config struct {
	SamplePeriodMs int64
	DebounceMs     int64
	HeartbeatMs    int64
	SetpointMin    float32
	SetpointMax    float32
	Sensor         string
	SerialPort     string
	Broker         string
	HTTPPort       string
}

// Controller is the control loop's view of the plant.
type Controller struct {
	Temperature float32
	Target      float32
	Error       float32
	HeaterDuty  int
	FanOn       bool
	Indicators  logic.Indicators
	Mode        logic.Mode
	// Ready is false until the first control cycle has run.
	Ready bool
}

// LinkStats counts messages lost on the remote links.
type LinkStats struct {
	// SerialDropped counts received lines refused because one was pending.
	SerialDropped int
	// MQTTBuffered is the number of messages waiting for a broker connection.
	MQTTBuffered int
	// MQTTDropped counts messages dropped because the publish queue was full.
	MQTTDropped int
}

// Snapshot is a point-in-time view of controller state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Controller    Controller
	Counts        logic.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Link          LinkStats
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable controller state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
	link func() LinkStats
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:  startTime,
			Config:     cfg,
			Controller: Controller{Mode: logic.ModeIdle},
		},
		now: time.Now,
	}
}

// Update copies the controller state and counters.
// Called from runLoop after every control cycle.
func (t *Tracker) Update(st logic.State, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Controller = Controller{
		Temperature: st.Temperature.Value,
		Target:      st.Target,
		Error:       st.Error,
		HeaterDuty:  st.HeaterDuty,
		FanOn:       st.FanOn,
		Indicators:  st.Indicators,
		Mode:        st.Mode,
		Ready:       st.Temperature.Initialized,
	}
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// SetLinkSource installs the function Snapshot reads link counters from.
// The counters live with the links, so they are sampled rather than pushed.
func (t *Tracker) SetLinkSource(fn func() LinkStats) {
	t.mu.Lock()
	t.link = fn
	t.mu.Unlock()
}

// SetClock replaces the time source used for Snapshot.Now.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the controller state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	link := t.link
	t.mu.RUnlock()
	s.Now = now()
	if link != nil {
		s.Link = link()
	}
	return s
}
