// Package panel is the operator side of the remote link: it follows the
// controller's telemetry, keeps a short history and sends setpoint commands.
package panel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/chewxy/math32"

	"github.com/sweeney/climate-controller/internal/logic"
	"github.com/sweeney/climate-controller/internal/report"
)

const (
	// HistorySize is the number of readings kept for the summary.
	HistorySize = 100

	CoarseStep float32 = 0.5
	FineStep   float32 = 0.1

	// SyncTolerance is how far the controller's reported target may differ
	// from ours before we adopt it.
	SyncTolerance float32 = 0.01
)

// ErrUnknownCommand is returned by Execute for input it does not recognise.
var ErrUnknownCommand = errors.New("unknown command")

// Sender transmits one line to the controller.
type Sender interface {
	Send(line string) error
}

// View is the operator readout.
type View struct {
	Temperature float32
	Target      float32
	Error       float32
	Regime      report.Regime
	// Ready is false until the first reading arrives.
	Ready bool
}

// Session tracks one controller. It is safe for concurrent use.
type Session struct {
	out Sender

	mu          sync.Mutex
	target      float32
	temperature float32
	ready       bool
	history     *History
}

// NewSession creates a session that sends commands through out and starts
// from the given target.
func NewSession(out Sender, target float32) *Session {
	return &Session{
		out:     out,
		target:  target,
		history: NewHistory(HistorySize),
	}
}

// Observe handles one telemetry line. A target differing from ours by more
// than SyncTolerance was changed on the device and is adopted. It reports
// whether the target was adopted.
func (s *Session) Observe(line string) (bool, error) {
	rec, err := report.ParseTelemetry(line)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	adopted := false
	if rec.HasTarget && math32.Abs(s.target-rec.Target) > SyncTolerance {
		s.target = rec.Target
		adopted = true
	}
	s.temperature = rec.Temperature
	s.ready = true
	s.history.Add(Point{Temperature: rec.Temperature, Target: s.target})
	return adopted, nil
}

// View returns the current readout.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{Target: s.target, Ready: s.ready}
	if s.ready {
		v.Temperature = s.temperature
		v.Error = s.target - s.temperature
		v.Regime = report.RegimeOf(s.temperature, s.target)
	}
	return v
}

// Target returns the operator's target.
func (s *Session) Target() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Stats summarises the recorded history.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Stats()
}

// Reset forgets the history and the last reading, as on reconnect.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = NewHistory(HistorySize)
	s.ready = false
	s.temperature = 0
}

// Execute runs one setpoint command:
//
//	+  -     step the target by CoarseStep
//	+. -.    step the target by FineStep
//	set <v>  set the target (',' is accepted as decimal separator)
//
// The new target is sent as a SET command. The target is updated even when
// sending fails, matching what the operator asked for.
func (s *Session) Execute(input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return ErrUnknownCommand
	}

	s.mu.Lock()
	switch fields[0] {
	case "+":
		s.target = round2(s.target + CoarseStep)
	case "-":
		s.target = round2(s.target - CoarseStep)
	case "+.":
		s.target = round2(s.target + FineStep)
	case "-.":
		s.target = round2(s.target - FineStep)
	case "set":
		if len(fields) != 2 {
			s.mu.Unlock()
			return errors.New("usage: set <value>")
		}
		v, err := ParseValue(fields[1])
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.target = v
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	line := CommandLine(s.target)
	s.mu.Unlock()

	if err := s.out.Send(line); err != nil {
		return fmt.Errorf("send %q: %w", strings.TrimSpace(line), err)
	}
	return nil
}

// ParseValue parses an operator-entered temperature.
func ParseValue(text string) (float32, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", "."), 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", text)
	}
	return float32(v), nil
}

// CommandLine formats the remote setpoint command for target.
func CommandLine(target float32) string {
	return fmt.Sprintf("%s%.1f\n", logic.CommandPrefix, target)
}

// FormatView renders v as one line of text.
func FormatView(v View) string {
	if !v.Ready {
		return fmt.Sprintf("temp --.-- C  target %.1f C  waiting for data", v.Target)
	}
	return fmt.Sprintf("temp %.2f C  target %.1f C  error %+.2f  %s", v.Temperature, v.Target, v.Error, v.Regime)
}

func round2(v float32) float32 {
	return math32.Round(v*100) / 100
}
