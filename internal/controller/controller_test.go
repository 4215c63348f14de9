package controller

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/climate-controller/internal/display"
	"github.com/sweeney/climate-controller/internal/gpio"
	"github.com/sweeney/climate-controller/internal/link"
	"github.com/sweeney/climate-controller/internal/logic"
	"github.com/sweeney/climate-controller/internal/sensor"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type recordingSink struct {
	lines []string
	err   error
}

func (r *recordingSink) Send(line string) error {
	r.lines = append(r.lines, line)
	return r.err
}

type harness struct {
	sensor    *sensor.FakeSensor
	actuators *gpio.FakeActuators
	buttons   *gpio.FakeButtons
	display   *display.Buffer
	commands  *link.Mailbox
	sink      *recordingSink
	sched     *Scheduler
}

// newHarness builds a scheduler with an unsmoothed filter so each reading
// becomes the estimate directly.
func newHarness(readings ...float32) *harness {
	cfg := DefaultConfig()
	cfg.Filter.Alpha = 1
	return newHarnessWithConfig(cfg, readings...)
}

func newHarnessWithConfig(cfg Config, readings ...float32) *harness {
	h := &harness{
		sensor:    sensor.NewFakeSensor(readings...),
		actuators: gpio.NewFakeActuators(),
		buttons:   gpio.NewFakeButtons([]gpio.Sample{{}}),
		display:   display.NewBuffer(),
		commands:  link.NewMailbox(),
		sink:      &recordingSink{},
	}
	h.sched = New(cfg, IO{
		Sensor:    h.sensor,
		Actuator:  h.actuators,
		Buttons:   h.buttons,
		Display:   h.display,
		Commands:  []CommandSource{h.commands},
		Telemetry: []TelemetrySink{h.sink},
	})
	return h
}

func TestTick_FirstTickRunsCycle(t *testing.T) {
	h := newHarness(24)

	res := h.sched.Tick(t0)

	require.True(t, res.Sampled)
	assert.Empty(t, res.Events, "first cycle only establishes the baseline")
	assert.Equal(t, float32(24), res.State.Temperature.Value)
	assert.Equal(t, float32(1), res.State.Error)
	assert.Equal(t, 500, res.State.HeaterDuty)
	assert.Equal(t, logic.ModeHeating, res.State.Mode)
	assert.Equal(t, t0, res.State.LastSampleTick)

	assert.Equal(t, 500, h.actuators.Duty)
	assert.False(t, h.actuators.FanOn)
	assert.True(t, h.actuators.IndicatorA)
	assert.False(t, h.actuators.IndicatorB)

	assert.Equal(t, "24.00;25.00\n", res.Telemetry)
	assert.Equal(t, []string{"24.00;25.00\n"}, h.sink.lines)
	assert.Equal(t, [2]string{"Akt: 24.0 C     ", "Zad: 25.0 C *   "}, h.display.Lines())
}

func TestTick_WaitsForSamplePeriod(t *testing.T) {
	h := newHarness(24)

	h.sched.Tick(t0)
	res := h.sched.Tick(t0.Add(50 * time.Millisecond))
	assert.False(t, res.Sampled)
	assert.Empty(t, res.Telemetry)
	assert.Equal(t, 1, h.sensor.Reads)

	res = h.sched.Tick(t0.Add(100 * time.Millisecond))
	assert.True(t, res.Sampled)
	assert.Equal(t, 2, h.sensor.Reads)
}

func TestTick_LateTickRunsOneCycle(t *testing.T) {
	h := newHarness(24)

	h.sched.Tick(t0)
	res := h.sched.Tick(t0.Add(550 * time.Millisecond))
	assert.True(t, res.Sampled)
	assert.Equal(t, 2, h.sensor.Reads)
	assert.Equal(t, t0.Add(550*time.Millisecond), res.State.LastSampleTick)

	res = h.sched.Tick(t0.Add(600 * time.Millisecond))
	assert.False(t, res.Sampled, "no catch-up cycles")
}

func TestTick_FilterSmoothsReadings(t *testing.T) {
	h := newHarnessWithConfig(DefaultConfig(), 20, 30)

	h.sched.Tick(t0)
	res := h.sched.Tick(t0.Add(100 * time.Millisecond))

	assert.InDelta(t, 21.0, res.State.Temperature.Value, 1e-5)
}

func TestTick_EmitsModeChangeEvents(t *testing.T) {
	h := newHarness(24, 26, 25)

	h.sched.Tick(t0)
	res := h.sched.Tick(t0.Add(100 * time.Millisecond))

	require.Len(t, res.Events, 1)
	e := res.Events[0]
	assert.Equal(t, logic.ModeHeating, e.From)
	assert.Equal(t, logic.ModeCooling, e.To)
	assert.Equal(t, float32(26), e.Temperature)
	assert.Equal(t, float32(25), e.Target)
	assert.Equal(t, t0.Add(100*time.Millisecond), e.Timestamp)
	assert.True(t, h.actuators.FanOn)
	assert.False(t, h.actuators.IndicatorA)
	assert.True(t, h.actuators.IndicatorB)

	res = h.sched.Tick(t0.Add(200 * time.Millisecond))
	require.Len(t, res.Events, 1)
	assert.Equal(t, logic.ModeIdle, res.Events[0].To)

	counts := h.sched.Counts()
	assert.Equal(t, 3, counts.Cycles)
	assert.Equal(t, 1, counts.CoolingEntries)
	assert.Equal(t, 1, counts.IdleEntries)
	assert.Equal(t, 0, counts.HeatingEntries)
}

func TestTick_NoEventWithoutModeChange(t *testing.T) {
	h := newHarness(24, 23)

	h.sched.Tick(t0)
	res := h.sched.Tick(t0.Add(100 * time.Millisecond))

	assert.Empty(t, res.Events)
	assert.Equal(t, 1000, res.State.HeaterDuty)
}

func TestTick_DeadBandHoldsFan(t *testing.T) {
	h := newHarness(26, 25.3, 25.05)

	h.sched.Tick(t0)
	require.True(t, h.actuators.FanOn)

	res := h.sched.Tick(t0.Add(100 * time.Millisecond))
	assert.True(t, res.State.FanOn, "fan holds inside the dead band")
	assert.Equal(t, logic.ModeCooling, res.State.Mode)

	res = h.sched.Tick(t0.Add(200 * time.Millisecond))
	assert.False(t, res.State.FanOn)
	assert.Equal(t, logic.ModeIdle, res.State.Mode)
}

func TestTick_DeadBandStaysOffWhenFanOff(t *testing.T) {
	h := newHarness(25.3)

	res := h.sched.Tick(t0)
	assert.False(t, res.State.FanOn)
	assert.Equal(t, logic.ModeIdle, res.State.Mode)
}

func TestTick_FanReadbackErrorUsesLastCommand(t *testing.T) {
	h := newHarness(26, 25.3)
	h.actuators.FanReadError = errors.New("readback unavailable")

	h.sched.Tick(t0)
	res := h.sched.Tick(t0.Add(100 * time.Millisecond))

	assert.True(t, res.State.FanOn)
}

func TestTick_SensorErrorSkipsCycle(t *testing.T) {
	h := newHarness(24)
	h.sensor.ReadError = errors.New("i2c nack")

	res := h.sched.Tick(t0)

	assert.False(t, res.Sampled)
	assert.Empty(t, h.actuators.DutyHistory)
	assert.Empty(t, h.sink.lines)
	assert.Equal(t, 1, h.sched.Counts().SensorErrors)
	assert.Equal(t, 0, h.sched.Counts().Cycles)

	// The next attempt waits for the next period.
	h.sched.Tick(t0.Add(50 * time.Millisecond))
	assert.Equal(t, 1, h.sensor.Reads)

	h.sensor.ReadError = nil
	res = h.sched.Tick(t0.Add(100 * time.Millisecond))
	assert.True(t, res.Sampled)
}

func TestTick_ButtonsPolledEveryTick(t *testing.T) {
	h := newHarness(24)
	h.buttons.Samples = []gpio.Sample{{Increase: true}}

	h.sched.Tick(t0)
	assert.Equal(t, float32(25.5), h.sched.State().Target)

	// Between samples and inside the debounce window.
	h.sched.Tick(t0.Add(50 * time.Millisecond))
	assert.Equal(t, float32(25.5), h.sched.State().Target)

	h.sched.Tick(t0.Add(250 * time.Millisecond))
	assert.Equal(t, float32(26.0), h.sched.State().Target)
	assert.Equal(t, 2, h.sched.Counts().ButtonSteps)
}

func TestTick_ButtonChangeAppliesBeforeCycle(t *testing.T) {
	h := newHarness(25)
	h.buttons.Samples = []gpio.Sample{{Increase: true}}

	res := h.sched.Tick(t0)

	assert.Equal(t, float32(25.5), res.State.Target)
	assert.Equal(t, float32(0.5), res.State.Error)
	assert.Equal(t, 250, res.State.HeaterDuty)
}

func TestTick_ButtonReadErrorIgnored(t *testing.T) {
	h := newHarness(24)
	h.buttons.ReadError = errors.New("line busy")

	res := h.sched.Tick(t0)

	assert.True(t, res.Sampled)
	assert.Equal(t, float32(25), res.State.Target)
}

func TestTick_RemoteCommands(t *testing.T) {
	h := newHarness(24)

	require.True(t, h.commands.Offer("SET:30.5\r"))
	res := h.sched.Tick(t0)
	assert.Equal(t, float32(30.5), res.State.Target)
	assert.Equal(t, "24.00;30.50\n", res.Telemetry)

	require.True(t, h.commands.Offer("SET:150"))
	h.sched.Tick(t0.Add(10 * time.Millisecond))
	assert.Equal(t, float32(30.5), h.sched.State().Target)

	require.True(t, h.commands.Offer("HELLO"))
	h.sched.Tick(t0.Add(20 * time.Millisecond))

	// Remote values are not clamped to the button range.
	require.True(t, h.commands.Offer("SET:5"))
	h.sched.Tick(t0.Add(30 * time.Millisecond))
	assert.Equal(t, float32(5), h.sched.State().Target)

	counts := h.sched.Counts()
	assert.Equal(t, 2, counts.CommandsAccepted)
	assert.Equal(t, 2, counts.CommandsRejected)
}

func TestTick_TelemetryTimeoutDoesNotStall(t *testing.T) {
	h := newHarness(24, 24)
	h.sink.err = link.ErrTransmitTimeout

	res := h.sched.Tick(t0)
	assert.True(t, res.Sampled)

	res = h.sched.Tick(t0.Add(100 * time.Millisecond))
	assert.True(t, res.Sampled)
	assert.Len(t, h.sink.lines, 2)
}

func TestTick_ActuatorErrorStillUpdatesState(t *testing.T) {
	h := newHarness(24)
	h.actuators.WriteError = errors.New("bus fault")

	res := h.sched.Tick(t0)

	assert.True(t, res.Sampled)
	assert.Equal(t, 500, res.State.HeaterDuty)
	assert.Equal(t, logic.ModeHeating, res.State.Mode)
}

func TestTick_OptionalCollaborators(t *testing.T) {
	s := New(DefaultConfig(), IO{
		Sensor:   sensor.NewFakeSensor(22),
		Actuator: gpio.NewFakeActuators(),
	})

	res := s.Tick(t0)
	assert.True(t, res.Sampled)
	assert.Equal(t, "22.00;25.00\n", res.Telemetry)
}

func TestNew_DefaultsSamplePeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SamplePeriod = 0
	h := newHarnessWithConfig(cfg, 24)

	h.sched.Tick(t0)
	assert.False(t, h.sched.Tick(t0.Add(99*time.Millisecond)).Sampled)
	assert.True(t, h.sched.Tick(t0.Add(100*time.Millisecond)).Sampled)
}
