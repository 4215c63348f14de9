// Package report renders controller state for the character display and the
// remote telemetry channel.
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DisplayWidth is the number of columns of the character display.
const DisplayWidth = 16

// FanMargin is how far above target the display shows the fan glyph.
const FanMargin float32 = 0.5

// Display is a two-line character surface.
type Display interface {
	SetCursor(row, col int) error
	WriteText(text string) error
	Clear() error
}

// Regime is the coarse state shown to operators.
type Regime int

const (
	RegimeOK Regime = iota
	RegimeHeating
	RegimeCooling
)

func (r Regime) String() string {
	switch r {
	case RegimeHeating:
		return "HEATING"
	case RegimeCooling:
		return "COOLING"
	default:
		return "OK"
	}
}

// RegimeOf classifies a reading against its target.
func RegimeOf(filtered, target float32) Regime {
	switch {
	case filtered < target:
		return RegimeHeating
	case filtered > target+FanMargin:
		return RegimeCooling
	default:
		return RegimeOK
	}
}

// Glyph returns the status character shown after the target.
func Glyph(filtered, target float32) byte {
	switch RegimeOf(filtered, target) {
	case RegimeHeating:
		return '*'
	case RegimeCooling:
		return 'F'
	default:
		return ' '
	}
}

// DisplayLines formats the two display rows, each exactly DisplayWidth wide.
func DisplayLines(filtered, target float32) [2]string {
	return [2]string{
		fit(fmt.Sprintf("Akt: %.1f C", filtered)),
		fit(fmt.Sprintf("Zad: %.1f C %c", target, Glyph(filtered, target))),
	}
}

// Render writes both rows to d.
func Render(d Display, lines [2]string) error {
	for row, text := range lines {
		if err := d.SetCursor(row, 0); err != nil {
			return fmt.Errorf("set cursor row %d: %w", row, err)
		}
		if err := d.WriteText(text); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	return nil
}

func fit(s string) string {
	if len(s) > DisplayWidth {
		return s[:DisplayWidth]
	}
	return s + strings.Repeat(" ", DisplayWidth-len(s))
}

// TelemetryLine formats the remote status record "<filtered>;<target>\n".
func TelemetryLine(filtered, target float32) string {
	return fmt.Sprintf("%.2f;%.2f\n", filtered, target)
}

// Telemetry is a parsed remote status record.
type Telemetry struct {
	Temperature float32
	Target      float32
	// HasTarget is false for legacy records that carry only the temperature.
	HasTarget bool
}

// ErrEmptyRecord is returned for blank telemetry lines.
var ErrEmptyRecord = errors.New("empty telemetry record")

// ParseTelemetry parses a record produced by TelemetryLine, or a legacy record
// holding a single temperature.
func ParseTelemetry(line string) (Telemetry, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Telemetry{}, ErrEmptyRecord
	}

	parts := strings.Split(line, ";")
	if len(parts) > 2 {
		return Telemetry{}, fmt.Errorf("invalid record: expected at most 2 fields, got %d", len(parts))
	}

	temp, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 32)
	if err != nil {
		return Telemetry{}, fmt.Errorf("invalid temperature: %w", err)
	}
	rec := Telemetry{Temperature: float32(temp)}

	if len(parts) == 2 {
		target, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 32)
		if err != nil {
			return Telemetry{}, fmt.Errorf("invalid target: %w", err)
		}
		rec.Target = float32(target)
		rec.HasTarget = true
	}
	return rec, nil
}
