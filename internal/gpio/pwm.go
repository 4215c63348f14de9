//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// PWMHeater drives the heater from the hardware PWM channel.
type PWMHeater struct {
	mu      sync.Mutex
	pin     rpio.Pin
	dutyMax uint32
	duty    int
}

// NewPWMHeater maps the GPIO registers and configures pin for PWM at freq Hz
// with dutyMax steps per period.
func NewPWMHeater(pin, dutyMax, freq int) (*PWMHeater, error) {
	if dutyMax <= 0 {
		return nil, fmt.Errorf("invalid duty range %d", dutyMax)
	}
	if freq <= 0 {
		freq = DefaultPWMFrequency
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio memory: %w", err)
	}

	p := rpio.Pin(pin)
	p.Mode(rpio.Pwm)
	// The PWM clock ticks once per duty step.
	p.Freq(freq * dutyMax)
	p.DutyCycle(0, uint32(dutyMax))

	return &PWMHeater{pin: p, dutyMax: uint32(dutyMax)}, nil
}

// SetDuty sets the compare value, 0 switches the heater off.
func (h *PWMHeater) SetDuty(duty int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if duty == h.duty {
		return nil
	}
	h.pin.DutyCycle(uint32(duty), h.dutyMax)
	h.duty = duty
	return nil
}

// Close stops the heater and unmaps the registers.
func (h *PWMHeater) Close() error {
	h.mu.Lock()
	h.pin.DutyCycle(0, h.dutyMax)
	h.pin.Output()
	h.pin.Low()
	h.mu.Unlock()

	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close gpio memory: %w", err)
	}
	return nil
}
