package logic

import "fmt"

// Indicators is the two-bit status LED pair.
type Indicators struct {
	A bool
	B bool
}

// IndicatorMap assigns an indicator pattern to each actuation class.
type IndicatorMap struct {
	Heating Indicators
	Cooling Indicators
	Idle    Indicators
}

// DefaultIndicatorMap lights A while heating and B while cooling.
func DefaultIndicatorMap() IndicatorMap {
	return IndicatorMap{
		Heating: Indicators{A: true},
		Cooling: Indicators{B: true},
		Idle:    Indicators{},
	}
}

// Validate checks that no pattern lights both indicators and that the three
// classes are distinguishable.
func (m IndicatorMap) Validate() error {
	for name, ind := range map[string]Indicators{"heating": m.Heating, "cooling": m.Cooling, "idle": m.Idle} {
		if ind.A && ind.B {
			return fmt.Errorf("indicator pattern for %s sets both indicators", name)
		}
	}
	if m.Heating == m.Cooling || m.Heating == m.Idle || m.Cooling == m.Idle {
		return fmt.Errorf("indicator patterns must differ per mode")
	}
	return nil
}

// Outputs are the concrete actuator values for one cycle.
type Outputs struct {
	Duty       int
	Fan        bool
	Indicators Indicators
}

// Map translates a command into actuator outputs.
func (m IndicatorMap) Map(cmd Command) Outputs {
	out := Outputs{Duty: cmd.Duty, Fan: cmd.Fan}
	switch cmd.Mode() {
	case ModeHeating:
		out.Indicators = m.Heating
	case ModeCooling:
		out.Indicators = m.Cooling
	default:
		out.Indicators = m.Idle
	}
	return out
}
