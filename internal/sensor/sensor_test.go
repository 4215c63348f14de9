package sensor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIIORead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in_temp_input")
	require.NoError(t, os.WriteFile(path, []byte("23456\n"), 0644))

	v, err := NewIIO(path).ReadTemperature()
	require.NoError(t, err)
	assert.InDelta(t, 23.456, v, 1e-4)
}

func TestIIOErrors(t *testing.T) {
	_, err := NewIIO(filepath.Join(t.TempDir(), "missing")).ReadTemperature()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "in_temp_input")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))
	_, err = NewIIO(path).ReadTemperature()
	assert.Error(t, err)
}

func TestFakeSensorSequence(t *testing.T) {
	f := NewFakeSensor(20, 21)

	for _, want := range []float32{20, 21, 21} {
		v, err := f.ReadTemperature()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	assert.Equal(t, 3, f.Reads)

	f.ReadError = errors.New("bus fault")
	_, err := f.ReadTemperature()
	assert.Error(t, err)

	_, err = NewFakeSensor().ReadTemperature()
	assert.Error(t, err)
}

// stepClock advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func TestPlantHeatsAndCools(t *testing.T) {
	cfg := DefaultPlantConfig()
	cfg.Noise = 0
	p := NewPlant(cfg, stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second))

	v, err := p.ReadTemperature()
	require.NoError(t, err)
	assert.InDelta(t, cfg.Ambient, v, 1)

	require.NoError(t, p.SetHeaterDuty(cfg.DutyMax))
	for i := 0; i < 300; i++ {
		_, err = p.ReadTemperature()
		require.NoError(t, err)
	}
	hot := p.Temperature()
	assert.InDelta(t, cfg.Ambient+cfg.HeaterGain, hot, 1)

	require.NoError(t, p.SetHeaterDuty(0))
	require.NoError(t, p.SetFan(true))
	on, err := p.Fan()
	require.NoError(t, err)
	assert.True(t, on)

	for i := 0; i < 300; i++ {
		_, err = p.ReadTemperature()
		require.NoError(t, err)
	}
	assert.InDelta(t, cfg.Ambient-cfg.FanGain, p.Temperature(), 1)
}

func TestPlantNoiseBounded(t *testing.T) {
	cfg := DefaultPlantConfig()
	p := NewPlant(cfg, stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 100*time.Millisecond))

	for i := 0; i < 100; i++ {
		v, err := p.ReadTemperature()
		require.NoError(t, err)
		assert.InDelta(t, p.Temperature(), v, float64(cfg.Noise)+1e-4)
	}
}
