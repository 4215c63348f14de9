package logic

import (
	"strconv"
	"strings"
	"time"

	"github.com/chewxy/math32"
)

// CommandPrefix starts every remote setpoint command.
const CommandPrefix = "SET:"

// Setpoint holds the limits of the two setpoint input paths.
//
// The button path is clamped to [Min, Max]. The remote path only accepts values
// in the open interval (RemoteMin, RemoteMax) and is not clamped to [Min, Max].
type Setpoint struct {
	Default  float32
	Min      float32
	Max      float32
	Step     float32
	Debounce time.Duration

	RemoteMin float32
	RemoteMax float32
}

// DefaultSetpoint returns the reference setpoint policy.
func DefaultSetpoint() Setpoint {
	return Setpoint{
		Default:   25.0,
		Min:       15.0,
		Max:       60.0,
		Step:      0.5,
		Debounce:  200 * time.Millisecond,
		RemoteMin: 0,
		RemoteMax: 100,
	}
}

// ApplyButtons adjusts the target from one button sample.
// Increase is evaluated before decrease and both may fire in the same call.
// Returns the number of steps applied (0, 1 or 2).
func (sp Setpoint) ApplyButtons(st *State, b Buttons, now time.Time) int {
	if now.Sub(st.LastButtonTick) < sp.Debounce {
		return 0
	}

	steps := 0
	if b.Increase {
		st.Target = math32.Min(st.Target+sp.Step, sp.Max)
		steps++
	}
	if b.Decrease {
		st.Target = math32.Max(st.Target-sp.Step, sp.Min)
		steps++
	}
	if steps > 0 {
		st.LastButtonTick = now
	}
	return steps
}

// ApplyCommand applies a remote command line to the target.
// Unrecognized, malformed and out-of-range lines are ignored and return false.
func (sp Setpoint) ApplyCommand(st *State, line string) bool {
	v, ok := ParseCommand(line)
	if !ok {
		return false
	}
	if !(v > sp.RemoteMin && v < sp.RemoteMax) {
		return false
	}
	st.Target = v
	return true
}

// ParseCommand extracts the value of a "SET:<number>" line.
// The number uses '.' as decimal separator regardless of locale.
func ParseCommand(line string) (float32, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, CommandPrefix) {
		return 0, false
	}
	num := strings.TrimSpace(line[len(CommandPrefix):])
	if num == "" || !isDecimal(num) {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}

// isDecimal rejects the hex, Inf and NaN forms strconv would otherwise accept.
func isDecimal(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}
