package sensor

import "errors"

// FakeSensor is a test double that returns scripted readings.
type FakeSensor struct {
	// Readings are returned in order; the last one repeats once exhausted.
	Readings []float32

	index int

	// ReadError, if set, will be returned by ReadTemperature.
	ReadError error

	// Reads counts ReadTemperature calls.
	Reads int
}

// NewFakeSensor creates a FakeSensor with the given readings.
func NewFakeSensor(readings ...float32) *FakeSensor {
	return &FakeSensor{Readings: readings}
}

// ReadTemperature returns the next scripted reading.
func (f *FakeSensor) ReadTemperature() (float32, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Readings) == 0 {
		return 0, errors.New("no readings configured")
	}

	v := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return v, nil
}
