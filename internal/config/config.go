// Package config loads the controller configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/climate-controller/internal/gpio"
	"github.com/sweeney/climate-controller/internal/link"
	"github.com/sweeney/climate-controller/internal/logic"
	"github.com/sweeney/climate-controller/internal/sensor"
)

// Sensor kinds.
const (
	SensorIIO = "iio"
	SensorSim = "sim"
)

// Config represents the application configuration.
type Config struct {
	Control    ControlConfig   `yaml:"control"`
	Setpoint   SetpointConfig  `yaml:"setpoint"`
	Indicators IndicatorConfig `yaml:"indicators"`
	Serial     SerialConfig    `yaml:"serial"`
	GPIO       GPIOConfig      `yaml:"gpio"`
	Sensor     SensorConfig    `yaml:"sensor"`
	MQTT       MQTTConfig      `yaml:"mqtt"`
	HTTP       HTTPConfig      `yaml:"http"`
	Display    DisplayConfig   `yaml:"display"`
}

// ControlConfig contains the sampling and control law parameters.
type ControlConfig struct {
	SamplePeriod  time.Duration `yaml:"sample_period"`
	FilterAlpha   float32       `yaml:"filter_alpha"`
	DutyMax       int           `yaml:"duty_max"`
	FullHeatError float32       `yaml:"full_heat_error"`
	CoolingError  float32       `yaml:"cooling_error"`
	IdleError     float32       `yaml:"idle_error"`
}

// SetpointConfig contains the button and remote setpoint limits.
type SetpointConfig struct {
	Default   float32       `yaml:"default"`
	Min       float32       `yaml:"min"`
	Max       float32       `yaml:"max"`
	Step      float32       `yaml:"step"`
	Debounce  time.Duration `yaml:"debounce"`
	RemoteMin float32       `yaml:"remote_min"`
	RemoteMax float32       `yaml:"remote_max"`
}

// IndicatorConfig maps each mode to an indicator pattern.
type IndicatorConfig struct {
	Heating IndicatorPattern `yaml:"heating"`
	Cooling IndicatorPattern `yaml:"cooling"`
	Idle    IndicatorPattern `yaml:"idle"`
}

// IndicatorPattern is one state of the indicator pair.
type IndicatorPattern struct {
	A bool `yaml:"a"`
	B bool `yaml:"b"`
}

// SerialConfig contains the UART link configuration.
// An empty port disables the link.
type SerialConfig struct {
	Port         string        `yaml:"port"`
	Baud         int           `yaml:"baud"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// GPIOConfig contains pin assignments (BCM numbering).
type GPIOConfig struct {
	Chip          string `yaml:"chip"`
	PinIncrease   int    `yaml:"pin_increase"`
	PinDecrease   int    `yaml:"pin_decrease"`
	PinFan        int    `yaml:"pin_fan"`
	PinIndicatorA int    `yaml:"pin_indicator_a"`
	PinIndicatorB int    `yaml:"pin_indicator_b"`
	PinHeater     int    `yaml:"pin_heater"`
	PWMFrequency  int    `yaml:"pwm_frequency"` // Hz
}

// SensorConfig selects the temperature source.
type SensorConfig struct {
	Kind        string `yaml:"kind"` // iio or sim
	Path        string `yaml:"path"`
	HaltOnError bool   `yaml:"halt_on_error"`
}

// MQTTConfig contains broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker            string        `yaml:"broker"`
	ClientID          string        `yaml:"client_id"`
	TopicPrefix       string        `yaml:"topic_prefix"`
	TelemetryInterval time.Duration `yaml:"telemetry_interval"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// HTTPConfig contains the status server address. Empty disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DisplayConfig controls the console rendering of the character display.
type DisplayConfig struct {
	Console bool `yaml:"console"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	sp := logic.DefaultSetpoint()
	pol := logic.DefaultPolicy()
	ind := logic.DefaultIndicatorMap()

	return &Config{
		Control: ControlConfig{
			SamplePeriod:  100 * time.Millisecond,
			FilterAlpha:   logic.DefaultAlpha,
			DutyMax:       pol.DutyMax,
			FullHeatError: pol.FullHeatError,
			CoolingError:  pol.CoolingError,
			IdleError:     pol.IdleError,
		},
		Setpoint: SetpointConfig{
			Default:   sp.Default,
			Min:       sp.Min,
			Max:       sp.Max,
			Step:      sp.Step,
			Debounce:  sp.Debounce,
			RemoteMin: sp.RemoteMin,
			RemoteMax: sp.RemoteMax,
		},
		Indicators: IndicatorConfig{
			Heating: IndicatorPattern(ind.Heating),
			Cooling: IndicatorPattern(ind.Cooling),
			Idle:    IndicatorPattern(ind.Idle),
		},
		Serial: SerialConfig{
			Port:         "/dev/ttyAMA0",
			Baud:         link.DefaultBaudRate,
			WriteTimeout: link.DefaultTransmitTimeout,
		},
		GPIO: GPIOConfig{
			Chip:          "gpiochip0",
			PinIncrease:   gpio.DefaultPinIncrease,
			PinDecrease:   gpio.DefaultPinDecrease,
			PinFan:        gpio.DefaultPinFan,
			PinIndicatorA: gpio.DefaultPinIndicatorA,
			PinIndicatorB: gpio.DefaultPinIndicatorB,
			PinHeater:     gpio.DefaultPinHeater,
			PWMFrequency:  gpio.DefaultPWMFrequency,
		},
		Sensor: SensorConfig{
			Kind:        SensorIIO,
			Path:        sensor.DefaultIIOPath,
			HaltOnError: true,
		},
		MQTT: MQTTConfig{
			ClientID:          "climate-controller",
			TopicPrefix:       "climate",
			TelemetryInterval: time.Second,
			HeartbeatInterval: 60 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills fields that were explicitly zeroed in the file.
// Port, broker and HTTP address stay empty since empty means disabled.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Control.SamplePeriod == 0 {
		c.Control.SamplePeriod = def.Control.SamplePeriod
	}
	if c.Control.FilterAlpha == 0 {
		c.Control.FilterAlpha = def.Control.FilterAlpha
	}
	if c.Control.DutyMax == 0 {
		c.Control.DutyMax = def.Control.DutyMax
	}
	if c.Control.FullHeatError == 0 {
		c.Control.FullHeatError = def.Control.FullHeatError
	}
	if c.Control.CoolingError == 0 {
		c.Control.CoolingError = def.Control.CoolingError
	}
	if c.Control.IdleError == 0 {
		c.Control.IdleError = def.Control.IdleError
	}

	if c.Setpoint.Step == 0 {
		c.Setpoint.Step = def.Setpoint.Step
	}
	if c.Setpoint.Max == 0 {
		c.Setpoint.Max = def.Setpoint.Max
	}
	if c.Setpoint.RemoteMax == 0 {
		c.Setpoint.RemoteMax = def.Setpoint.RemoteMax
	}

	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
	if c.Serial.WriteTimeout == 0 {
		c.Serial.WriteTimeout = def.Serial.WriteTimeout
	}

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if c.GPIO.PWMFrequency == 0 {
		c.GPIO.PWMFrequency = def.GPIO.PWMFrequency
	}

	if c.Sensor.Kind == "" {
		c.Sensor.Kind = def.Sensor.Kind
	}
	if c.Sensor.Path == "" {
		c.Sensor.Path = def.Sensor.Path
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = def.MQTT.TopicPrefix
	}
	if c.MQTT.TelemetryInterval == 0 {
		c.MQTT.TelemetryInterval = def.MQTT.TelemetryInterval
	}
	if c.MQTT.HeartbeatInterval == 0 {
		c.MQTT.HeartbeatInterval = def.MQTT.HeartbeatInterval
	}
}

// Validate checks the configuration for values the controller cannot run with.
func (c *Config) Validate() error {
	if c.Control.SamplePeriod <= 0 {
		return fmt.Errorf("control.sample_period must be positive, got %s", c.Control.SamplePeriod)
	}
	if c.Control.FilterAlpha <= 0 || c.Control.FilterAlpha > 1 {
		return fmt.Errorf("control.filter_alpha must be in (0, 1], got %g", c.Control.FilterAlpha)
	}
	if c.Control.DutyMax <= 0 {
		return fmt.Errorf("control.duty_max must be positive, got %d", c.Control.DutyMax)
	}
	if c.Control.FullHeatError <= 0 {
		return fmt.Errorf("control.full_heat_error must be positive, got %g", c.Control.FullHeatError)
	}
	if c.Control.IdleError < 0 || c.Control.IdleError > c.Control.CoolingError {
		return fmt.Errorf("control.idle_error (%g) must be between 0 and control.cooling_error (%g)",
			c.Control.IdleError, c.Control.CoolingError)
	}

	sp := c.Setpoint
	if sp.Min > sp.Max {
		return fmt.Errorf("setpoint.min (%g) exceeds setpoint.max (%g)", sp.Min, sp.Max)
	}
	if sp.Default < sp.Min || sp.Default > sp.Max {
		return fmt.Errorf("setpoint.default (%g) outside [%g, %g]", sp.Default, sp.Min, sp.Max)
	}
	if sp.Step <= 0 {
		return fmt.Errorf("setpoint.step must be positive, got %g", sp.Step)
	}
	if sp.Debounce < 0 {
		return fmt.Errorf("setpoint.debounce must not be negative, got %s", sp.Debounce)
	}
	if sp.RemoteMin >= sp.RemoteMax {
		return fmt.Errorf("setpoint.remote_min (%g) must be below setpoint.remote_max (%g)", sp.RemoteMin, sp.RemoteMax)
	}

	if err := c.IndicatorMap().Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}

	switch c.Sensor.Kind {
	case SensorIIO, SensorSim:
	default:
		return fmt.Errorf("sensor.kind must be %q or %q, got %q", SensorIIO, SensorSim, c.Sensor.Kind)
	}

	if c.Serial.Port != "" && c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}

	return nil
}

// SetpointPolicy returns the setpoint limits for the logic layer.
func (c *Config) SetpointPolicy() logic.Setpoint {
	return logic.Setpoint{
		Default:   c.Setpoint.Default,
		Min:       c.Setpoint.Min,
		Max:       c.Setpoint.Max,
		Step:      c.Setpoint.Step,
		Debounce:  c.Setpoint.Debounce,
		RemoteMin: c.Setpoint.RemoteMin,
		RemoteMax: c.Setpoint.RemoteMax,
	}
}

// ControlPolicy returns the control law parameters for the logic layer.
func (c *Config) ControlPolicy() logic.Policy {
	return logic.Policy{
		DutyMax:       c.Control.DutyMax,
		FullHeatError: c.Control.FullHeatError,
		CoolingError:  c.Control.CoolingError,
		IdleError:     c.Control.IdleError,
	}
}

// IndicatorMap returns the indicator patterns for the logic layer.
func (c *Config) IndicatorMap() logic.IndicatorMap {
	return logic.IndicatorMap{
		Heating: logic.Indicators(c.Indicators.Heating),
		Cooling: logic.Indicators(c.Indicators.Cooling),
		Idle:    logic.Indicators(c.Indicators.Idle),
	}
}
