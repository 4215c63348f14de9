// Package controller runs the sampling scheduler: it polls the setpoint inputs
// every tick and runs one filter, control, actuation and report cycle per
// sample period.
package controller

import (
	"errors"
	"log"
	"time"

	"github.com/sweeney/climate-controller/internal/link"
	"github.com/sweeney/climate-controller/internal/logic"
	"github.com/sweeney/climate-controller/internal/report"
)

// DefaultSamplePeriod is the interval between control cycles.
const DefaultSamplePeriod = 100 * time.Millisecond

// Sensor returns one raw temperature sample in °C.
type Sensor interface {
	ReadTemperature() (float32, error)
}

// Actuator drives the heater, fan and indicators.
type Actuator interface {
	SetHeaterDuty(duty int) error
	SetFan(on bool) error
	SetIndicatorPair(a, b bool) error
	// Fan reads back the current fan state.
	Fan() (bool, error)
}

// ButtonReader returns the logical pressed state of (increase, decrease).
type ButtonReader interface {
	Read() (bool, bool, error)
}

// CommandSource yields at most one pending command line per poll.
type CommandSource interface {
	Poll() (string, bool)
}

// TelemetrySink accepts one telemetry line.
type TelemetrySink interface {
	Send(line string) error
}

// Config holds the scheduler parameters.
type Config struct {
	SamplePeriod time.Duration
	Filter       logic.Filter
	Policy       logic.Policy
	Setpoint     logic.Setpoint
	Indicators   logic.IndicatorMap
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		SamplePeriod: DefaultSamplePeriod,
		Filter:       logic.Filter{Alpha: logic.DefaultAlpha},
		Policy:       logic.DefaultPolicy(),
		Setpoint:     logic.DefaultSetpoint(),
		Indicators:   logic.DefaultIndicatorMap(),
	}
}

// IO bundles the scheduler's collaborators. Buttons, Display, Commands and
// Telemetry are optional.
type IO struct {
	Sensor    Sensor
	Actuator  Actuator
	Buttons   ButtonReader
	Display   report.Display
	Commands  []CommandSource
	Telemetry []TelemetrySink
}

// Result describes what one tick did.
type Result struct {
	// Sampled is true when a control cycle ran.
	Sampled bool
	State   logic.State
	Events  []logic.Event
	// Telemetry is the line sent this cycle, empty when no cycle ran.
	Telemetry string
}

// Scheduler owns the controller state. It is not safe for concurrent use;
// one goroutine calls Tick.
type Scheduler struct {
	cfg       Config
	io        IO
	state     *logic.State
	counts    logic.Counts
	baselined bool

	sensorFault    fault
	buttonFault    fault
	actuatorFault  fault
	displayFault   fault
	telemetryFault fault
}

// New creates a scheduler with the target at the setpoint default.
func New(cfg Config, io IO) *Scheduler {
	if cfg.SamplePeriod <= 0 {
		cfg.SamplePeriod = DefaultSamplePeriod
	}
	return &Scheduler{
		cfg:            cfg,
		io:             io,
		state:          logic.NewState(cfg.Setpoint),
		sensorFault:    fault{name: "sensor"},
		buttonFault:    fault{name: "buttons"},
		actuatorFault:  fault{name: "actuator"},
		displayFault:   fault{name: "display"},
		telemetryFault: fault{name: "telemetry"},
	}
}

// State returns a copy of the controller state.
func (s *Scheduler) State() logic.State {
	return *s.state
}

// Counts returns the activity counters.
func (s *Scheduler) Counts() logic.Counts {
	return s.counts
}

// Tick processes setpoint inputs and, when the sample period has elapsed
// since the last cycle, runs one control cycle. A late tick runs one cycle.
func (s *Scheduler) Tick(now time.Time) Result {
	s.pollButtons(now)
	s.pollCommands()

	if now.Sub(s.state.LastSampleTick) < s.cfg.SamplePeriod {
		return Result{State: *s.state}
	}
	s.state.LastSampleTick = now

	raw, err := s.io.Sensor.ReadTemperature()
	s.sensorFault.report(err)
	if err != nil {
		s.counts.SensorErrors++
		return Result{State: *s.state}
	}

	events := s.cycle(raw, now)
	line := s.publish()

	return Result{
		Sampled:   true,
		State:     *s.state,
		Events:    events,
		Telemetry: line,
	}
}

func (s *Scheduler) pollButtons(now time.Time) {
	if s.io.Buttons == nil {
		return
	}
	inc, dec, err := s.io.Buttons.Read()
	s.buttonFault.report(err)
	if err != nil {
		return
	}
	if steps := s.cfg.Setpoint.ApplyButtons(s.state, logic.Buttons{Increase: inc, Decrease: dec}, now); steps > 0 {
		s.counts.ButtonSteps += steps
		log.Printf("setpoint: buttons -> %.1f", s.state.Target)
	}
}

func (s *Scheduler) pollCommands() {
	for _, src := range s.io.Commands {
		line, ok := src.Poll()
		if !ok {
			continue
		}
		if s.cfg.Setpoint.ApplyCommand(s.state, line) {
			s.counts.CommandsAccepted++
			log.Printf("setpoint: remote -> %.1f", s.state.Target)
		} else {
			s.counts.CommandsRejected++
		}
	}
}

// cycle runs filter, control law and actuation for one raw sample.
func (s *Scheduler) cycle(raw float32, now time.Time) []logic.Event {
	st := s.state
	s.cfg.Filter.Update(raw, &st.Temperature)

	fanOn, err := s.io.Actuator.Fan()
	if err != nil {
		fanOn = st.FanOn
	}

	cmd := s.cfg.Policy.Step(st, fanOn)
	out := s.cfg.Indicators.Map(cmd)
	s.actuate(out)

	prev := st.Mode
	st.HeaterDuty = out.Duty
	st.FanOn = out.Fan
	st.Indicators = out.Indicators
	st.Mode = cmd.Mode()
	s.counts.Cycles++

	if !s.baselined {
		s.baselined = true
		return nil
	}
	if st.Mode == prev {
		return nil
	}

	e := logic.Event{
		Timestamp:   now,
		From:        prev,
		To:          st.Mode,
		Temperature: st.Temperature.Value,
		Target:      st.Target,
	}
	s.counts.CountEvent(e)
	return []logic.Event{e}
}

func (s *Scheduler) actuate(out logic.Outputs) {
	a := s.io.Actuator
	err := errors.Join(
		a.SetHeaterDuty(out.Duty),
		a.SetFan(out.Fan),
		a.SetIndicatorPair(out.Indicators.A, out.Indicators.B),
	)
	s.actuatorFault.report(err)
}

// publish renders the display and sends telemetry. It returns the telemetry line.
func (s *Scheduler) publish() string {
	filtered, target := s.state.Temperature.Value, s.state.Target

	if s.io.Display != nil {
		s.displayFault.report(report.Render(s.io.Display, report.DisplayLines(filtered, target)))
	}

	line := report.TelemetryLine(filtered, target)
	var errs []error
	for _, sink := range s.io.Telemetry {
		err := sink.Send(line)
		// The transmitter logs its own timeouts.
		if err != nil && !errors.Is(err, link.ErrTransmitTimeout) {
			errs = append(errs, err)
		}
	}
	s.telemetryFault.report(errors.Join(errs...))
	return line
}

// fault logs an error on its first occurrence and again on recovery.
type fault struct {
	name   string
	active bool
}

func (f *fault) report(err error) {
	if err != nil {
		if !f.active {
			log.Printf("%s: %v", f.name, err)
			f.active = true
		}
		return
	}
	if f.active {
		log.Printf("%s: recovered", f.name)
		f.active = false
	}
}
