//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealButtons reads the setpoint buttons using the Linux GPIO character device.
type RealButtons struct {
	chip     *gpiocdev.Chip
	increase *gpiocdev.Line
	decrease *gpiocdev.Line
}

// NewRealButtons requests both button lines as inputs with pull-up.
// The buttons short the line to ground when pressed.
func NewRealButtons(chipName string, pinIncrease, pinDecrease int) (*RealButtons, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	inc, err := chip.RequestLine(pinIncrease, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request increase pin %d: %w", pinIncrease, err)
	}

	dec, err := chip.RequestLine(pinDecrease, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		inc.Close()
		chip.Close()
		return nil, fmt.Errorf("request decrease pin %d: %w", pinDecrease, err)
	}

	return &RealButtons{
		chip:     chip,
		increase: inc,
		decrease: dec,
	}, nil
}

// Read returns the logical pressed states of (increase, decrease).
// Inverts raw GPIO: raw low (0) = pressed.
func (r *RealButtons) Read() (bool, bool, error) {
	incRaw, err := r.increase.Value()
	if err != nil {
		return false, false, fmt.Errorf("read increase pin: %w", err)
	}

	decRaw, err := r.decrease.Value()
	if err != nil {
		return false, false, fmt.Errorf("read decrease pin: %w", err)
	}

	return incRaw == 0, decRaw == 0, nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (r *RealButtons) Close() error {
	var errs []error

	for name, line := range map[string]*gpiocdev.Line{"increase": r.increase, "decrease": r.decrease} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutputs drives the fan relay and the indicator pair.
type RealOutputs struct {
	chip       *gpiocdev.Chip
	fan        *gpiocdev.Line
	indicatorA *gpiocdev.Line
	indicatorB *gpiocdev.Line
}

// NewRealOutputs requests the output lines, all initially low.
func NewRealOutputs(chipName string, pinFan, pinIndicatorA, pinIndicatorB int) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	o := &RealOutputs{chip: chip}
	lines := []struct {
		pin  int
		name string
		dst  **gpiocdev.Line
	}{
		{pinFan, "fan", &o.fan},
		{pinIndicatorA, "indicator A", &o.indicatorA},
		{pinIndicatorB, "indicator B", &o.indicatorB},
	}
	for _, l := range lines {
		line, err := chip.RequestLine(l.pin, gpiocdev.AsOutput(0))
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", l.name, l.pin, err)
		}
		*l.dst = line
	}
	return o, nil
}

// SetFan switches the fan relay.
func (o *RealOutputs) SetFan(on bool) error {
	if err := o.fan.SetValue(boolToValue(on)); err != nil {
		return fmt.Errorf("set fan pin: %w", err)
	}
	return nil
}

// SetIndicatorPair sets both indicator lines.
func (o *RealOutputs) SetIndicatorPair(a, b bool) error {
	if err := o.indicatorA.SetValue(boolToValue(a)); err != nil {
		return fmt.Errorf("set indicator A pin: %w", err)
	}
	if err := o.indicatorB.SetValue(boolToValue(b)); err != nil {
		return fmt.Errorf("set indicator B pin: %w", err)
	}
	return nil
}

// Fan reads back the fan output line.
func (o *RealOutputs) Fan() (bool, error) {
	v, err := o.fan.Value()
	if err != nil {
		return false, fmt.Errorf("read fan pin: %w", err)
	}
	return v == 1, nil
}

// Close drives all outputs low and releases the lines.
func (o *RealOutputs) Close() error {
	var errs []error

	for _, line := range []*gpiocdev.Line{o.fan, o.indicatorA, o.indicatorB} {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive pin low: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func boolToValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
