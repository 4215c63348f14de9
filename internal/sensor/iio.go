// Package sensor provides temperature sources for the controller: the Linux
// IIO sysfs interface, a simulated thermal plant, and a scripted fake.
package sensor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultIIOPath is where the kernel bmp280 driver exposes temperature.
const DefaultIIOPath = "/sys/bus/iio/devices/iio:device0/in_temp_input"

// IIO reads temperature in milli-degrees Celsius from a sysfs attribute.
type IIO struct {
	path string
}

// NewIIO creates an IIO reader for the given attribute path.
func NewIIO(path string) *IIO {
	if path == "" {
		path = DefaultIIOPath
	}
	return &IIO{path: path}
}

// ReadTemperature returns the current temperature in degrees Celsius.
func (s *IIO) ReadTemperature() (float32, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.path, err)
	}
	milli, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return float32(milli) / 1000, nil
}
