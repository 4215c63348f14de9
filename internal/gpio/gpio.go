// Package gpio provides button input and actuator output with hardware abstraction.
// The real implementation uses the Linux GPIO character device for digital lines
// and the BCM2835 PWM peripheral for the heater.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
)

// Pin definitions (BCM numbering)
const (
	DefaultPinIncrease   = 17
	DefaultPinDecrease   = 27
	DefaultPinFan        = 22
	DefaultPinIndicatorA = 23
	DefaultPinIndicatorB = 24
	DefaultPinHeater     = 18 // PWM0
)

// DefaultPWMFrequency is the heater PWM frequency in Hz.
const DefaultPWMFrequency = 1000

// ErrNotSupported is returned by hardware constructors on non-Linux platforms.
var ErrNotSupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Heater drives the heater power stage.
type Heater interface {
	SetDuty(duty int) error
	Close() error
}

// Outputs drives the fan relay and the indicator pair.
type Outputs interface {
	SetFan(on bool) error
	SetIndicatorPair(a, b bool) error
	// Fan reads back the latched fan output.
	Fan() (bool, error)
	Close() error
}

// Board combines the heater and the digital outputs into one actuator.
type Board struct {
	heater  Heater
	outputs Outputs
	dutyMax int
}

// NewBoard creates a board. Duty values are clamped to [0, dutyMax].
func NewBoard(heater Heater, outputs Outputs, dutyMax int) *Board {
	return &Board{heater: heater, outputs: outputs, dutyMax: dutyMax}
}

// SetHeaterDuty sets the heater compare value.
func (b *Board) SetHeaterDuty(duty int) error {
	if duty < 0 {
		duty = 0
	} else if duty > b.dutyMax {
		duty = b.dutyMax
	}
	return b.heater.SetDuty(duty)
}

// SetFan switches the fan relay.
func (b *Board) SetFan(on bool) error {
	return b.outputs.SetFan(on)
}

// SetIndicatorPair sets both status indicators.
func (b *Board) SetIndicatorPair(a, bOn bool) error {
	return b.outputs.SetIndicatorPair(a, bOn)
}

// Fan reads back the fan relay state.
func (b *Board) Fan() (bool, error) {
	return b.outputs.Fan()
}

// Close switches everything off and releases both drivers.
func (b *Board) Close() error {
	var errs []error

	if err := b.heater.SetDuty(0); err != nil {
		errs = append(errs, fmt.Errorf("heater off: %w", err))
	}
	if err := b.outputs.SetFan(false); err != nil {
		errs = append(errs, fmt.Errorf("fan off: %w", err))
	}
	if err := b.outputs.SetIndicatorPair(false, false); err != nil {
		errs = append(errs, fmt.Errorf("indicators off: %w", err))
	}
	if err := b.heater.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close heater: %w", err))
	}
	if err := b.outputs.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close outputs: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
