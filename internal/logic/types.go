// Package logic contains the pure control logic of the climate controller.
// This package has NO external dependencies (no GPIO, serial, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Mode is the actuation class produced by one control cycle.
type Mode string

const (
	ModeIdle    Mode = "IDLE"
	ModeHeating Mode = "HEATING"
	ModeCooling Mode = "COOLING"
)

// Buttons is one polled sample of the two setpoint buttons (logical pressed state).
type Buttons struct {
	Increase bool
	Decrease bool
}

// State is the controller state. It has a single owner (the scheduler) and is
// only mutated from that owner's goroutine.
type State struct {
	Temperature Estimate
	Target      float32

	// Error is target - filtered, recomputed every control cycle.
	Error float32

	HeaterDuty int
	FanOn      bool
	Indicators Indicators
	Mode       Mode

	LastSampleTick time.Time
	LastButtonTick time.Time
}

// NewState returns the startup state for the given setpoint limits.
func NewState(sp Setpoint) *State {
	return &State{
		Target: sp.Default,
		Mode:   ModeIdle,
	}
}

// Event represents an actuation class change to be published.
type Event struct {
	Timestamp   time.Time
	From        Mode
	To          Mode
	Temperature float32
	Target      float32
}

// Counts tracks controller activity since startup.
type Counts struct {
	Cycles           int
	HeatingEntries   int
	CoolingEntries   int
	IdleEntries      int
	ButtonSteps      int
	CommandsAccepted int
	CommandsRejected int
	SensorErrors     int
}

// CountEvent increments the entry counter for the event's target mode.
func (c *Counts) CountEvent(e Event) {
	switch e.To {
	case ModeHeating:
		c.HeatingEntries++
	case ModeCooling:
		c.CoolingEntries++
	case ModeIdle:
		c.IdleEntries++
	}
}
