package sensor

import (
	"sync"
	"time"

	"github.com/chewxy/math32"
)

// PlantConfig describes the simulated enclosure.
type PlantConfig struct {
	Ambient      float32       // °C the enclosure settles to with everything off
	HeaterGain   float32       // °C above ambient at full heater duty
	FanGain      float32       // °C pulled toward ambient-FanGain with the fan on
	TimeConstant time.Duration // first-order lag
	Noise        float32       // peak noise amplitude in °C
	DutyMax      int
}

// DefaultPlantConfig returns a slow enclosure that can reach 60 °C.
func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		Ambient:      21,
		HeaterGain:   45,
		FanGain:      6,
		TimeConstant: 30 * time.Second,
		Noise:        0.05,
		DutyMax:      1000,
	}
}

// Plant is a first-order thermal model driven by its own actuator inputs.
// It implements both the sensor and the actuator side of the controller.
type Plant struct {
	cfg PlantConfig
	now func() time.Time

	mu          sync.Mutex
	temperature float32
	last        time.Time
	elapsed     time.Duration

	duty       int
	fan        bool
	indicatorA bool
	indicatorB bool
}

// NewPlant creates a plant at ambient temperature. now supplies the time base.
func NewPlant(cfg PlantConfig, now func() time.Time) *Plant {
	if now == nil {
		now = time.Now
	}
	if cfg.TimeConstant <= 0 {
		cfg.TimeConstant = DefaultPlantConfig().TimeConstant
	}
	if cfg.DutyMax <= 0 {
		cfg.DutyMax = DefaultPlantConfig().DutyMax
	}
	return &Plant{
		cfg:         cfg,
		now:         now,
		temperature: cfg.Ambient,
		last:        now(),
	}
}

// ReadTemperature advances the model to now and returns the noisy reading.
func (p *Plant) ReadTemperature() (float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.now()
	dt := t.Sub(p.last)
	p.last = t
	if dt > 0 {
		p.elapsed += dt
		p.advance(dt)
	}

	// Deterministic noise, like the golpm mock device.
	s := float32(p.elapsed.Seconds())
	noise := (math32.Sin(s*7.3) + math32.Cos(s*3.1)) * 0.5 * p.cfg.Noise
	return p.temperature + noise, nil
}

func (p *Plant) advance(dt time.Duration) {
	steady := p.cfg.Ambient + p.cfg.HeaterGain*float32(p.duty)/float32(p.cfg.DutyMax)
	if p.fan {
		steady -= p.cfg.FanGain
	}
	k := float32(dt.Seconds() / p.cfg.TimeConstant.Seconds())
	k = math32.Min(k, 1)
	p.temperature += k * (steady - p.temperature)
}

// Temperature returns the noiseless model temperature.
func (p *Plant) Temperature() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.temperature
}

// SetHeaterDuty sets the simulated heater input.
func (p *Plant) SetHeaterDuty(duty int) error {
	p.mu.Lock()
	p.duty = duty
	p.mu.Unlock()
	return nil
}

// SetFan sets the simulated fan input.
func (p *Plant) SetFan(on bool) error {
	p.mu.Lock()
	p.fan = on
	p.mu.Unlock()
	return nil
}

// SetIndicatorPair records the indicator outputs.
func (p *Plant) SetIndicatorPair(a, b bool) error {
	p.mu.Lock()
	p.indicatorA, p.indicatorB = a, b
	p.mu.Unlock()
	return nil
}

// Fan reads back the fan state.
func (p *Plant) Fan() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fan, nil
}

// Close is a no-op; the plant holds no resources.
func (p *Plant) Close() error {
	return nil
}
