package gpio

import "errors"

// FakeButtons is a test double that returns scripted button samples.
type FakeButtons struct {
	// Samples contains scripted (increase, decrease) values to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample represents a single button reading (already in logical form).
type Sample struct {
	Increase bool // true = pressed
	Decrease bool
}

// NewFakeButtons creates FakeButtons with the given samples.
func NewFakeButtons(samples []Sample) *FakeButtons {
	return &FakeButtons{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButtons) Read() (bool, bool, error) {
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.Increase, sample.Decrease, nil
}

// Close marks the buttons as closed.
func (f *FakeButtons) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeButtons) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeActuators records actuator calls and latches the last values.
type FakeActuators struct {
	Duty       int
	FanOn      bool
	IndicatorA bool
	IndicatorB bool

	// DutyHistory holds every duty written, in order.
	DutyHistory []int

	// FanReadError, if set, will be returned by Fan().
	FanReadError error

	// WriteError, if set, will be returned by every setter.
	WriteError error

	Closed bool
}

// NewFakeActuators creates FakeActuators with everything off.
func NewFakeActuators() *FakeActuators {
	return &FakeActuators{}
}

// SetHeaterDuty records the heater duty.
func (f *FakeActuators) SetHeaterDuty(duty int) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Duty = duty
	f.DutyHistory = append(f.DutyHistory, duty)
	return nil
}

// SetFan records the fan state.
func (f *FakeActuators) SetFan(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.FanOn = on
	return nil
}

// SetIndicatorPair records the indicator states.
func (f *FakeActuators) SetIndicatorPair(a, b bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.IndicatorA, f.IndicatorB = a, b
	return nil
}

// Fan reads back the latched fan state.
func (f *FakeActuators) Fan() (bool, error) {
	if f.FanReadError != nil {
		return false, f.FanReadError
	}
	return f.FanOn, nil
}

// SetDuty lets FakeActuators stand in as a Heater.
func (f *FakeActuators) SetDuty(duty int) error {
	return f.SetHeaterDuty(duty)
}

// Close marks the actuators as closed.
func (f *FakeActuators) Close() error {
	f.Closed = true
	return nil
}
