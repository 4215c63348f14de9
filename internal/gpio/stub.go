//go:build !linux

package gpio

// RealButtons is not available on non-Linux platforms.
type RealButtons struct{}

// NewRealButtons returns an error on non-Linux platforms.
func NewRealButtons(chipName string, pinIncrease, pinDecrease int) (*RealButtons, error) {
	return nil, ErrNotSupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealButtons) Read() (bool, bool, error) {
	return false, false, ErrNotSupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealButtons) Close() error {
	return nil
}

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// NewRealOutputs returns an error on non-Linux platforms.
func NewRealOutputs(chipName string, pinFan, pinIndicatorA, pinIndicatorB int) (*RealOutputs, error) {
	return nil, ErrNotSupported
}

func (o *RealOutputs) SetFan(on bool) error             { return ErrNotSupported }
func (o *RealOutputs) SetIndicatorPair(a, b bool) error { return ErrNotSupported }
func (o *RealOutputs) Fan() (bool, error)               { return false, ErrNotSupported }
func (o *RealOutputs) Close() error                     { return nil }

// PWMHeater is not available on non-Linux platforms.
type PWMHeater struct{}

// NewPWMHeater returns an error on non-Linux platforms.
func NewPWMHeater(pin, dutyMax, freq int) (*PWMHeater, error) {
	return nil, ErrNotSupported
}

func (h *PWMHeater) SetDuty(duty int) error { return ErrNotSupported }
func (h *PWMHeater) Close() error           { return nil }
