package logic

// DefaultDutyMax is the heater PWM compare value for full power.
const DefaultDutyMax = 1000

// Policy is the hysteretic bang-bang control law with a proportional heating ramp.
type Policy struct {
	DutyMax int

	// FullHeatError is the error at and above which the heater runs at DutyMax.
	// Below it the duty ramps linearly down to zero.
	FullHeatError float32

	// CoolingError is how far above target the fan switches on.
	CoolingError float32

	// IdleError is how far above target the fan is still switched off.
	// Between IdleError and CoolingError the fan holds its current state.
	IdleError float32
}

// DefaultPolicy returns the reference control policy.
func DefaultPolicy() Policy {
	return Policy{
		DutyMax:       DefaultDutyMax,
		FullHeatError: 2.0,
		CoolingError:  0.5,
		IdleError:     0.1,
	}
}

// Command is the abstract actuation command of one cycle.
type Command struct {
	Duty int
	Fan  bool
}

// Mode classifies the command as heating, cooling or idle.
func (c Command) Mode() Mode {
	switch {
	case c.Duty > 0:
		return ModeHeating
	case c.Fan:
		return ModeCooling
	default:
		return ModeIdle
	}
}

// Decide maps err = target - filtered to a command. fanOn is the fan's current
// actuator state, held inside the dead band [-CoolingError, -IdleError].
func (p Policy) Decide(err float32, fanOn bool) Command {
	switch {
	case err >= p.FullHeatError:
		return Command{Duty: p.DutyMax}
	case err > 0:
		return Command{Duty: int(err * float32(p.DutyMax) / p.FullHeatError)}
	case err < -p.CoolingError:
		return Command{Fan: true}
	case err > -p.IdleError:
		return Command{}
	default:
		return Command{Fan: fanOn}
	}
}

// Step recomputes the error from the current estimate and decides the command.
func (p Policy) Step(st *State, fanOn bool) Command {
	st.Error = st.Target - st.Temperature.Value
	return p.Decide(st.Error, fanOn)
}
