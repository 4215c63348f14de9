package controller

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/climate-controller/internal/display"
	"github.com/sweeney/climate-controller/internal/sensor"
)

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.calls = append(s.calls, d)
}

func TestBringUp_SensorOK(t *testing.T) {
	buf := display.NewBuffer()
	rec := &sleepRecorder{}

	err := BringUp(buf, sensor.NewFakeSensor(21), true, rec.sleep)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{BannerDelay, ProbeDelay}, rec.calls)
	assert.Equal(t, 2, buf.Writes())
	assert.Equal(t, [2]string{"                ", "                "}, buf.Lines(), "display cleared at the end")
}

func TestBringUp_SensorErrorHalts(t *testing.T) {
	buf := display.NewBuffer()
	rec := &sleepRecorder{}
	s := sensor.NewFakeSensor()
	s.ReadError = errors.New("no ack")

	err := BringUp(buf, s, true, rec.sleep)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSensorUnavailable))
	assert.Equal(t, []time.Duration{BannerDelay}, rec.calls)
	assert.Equal(t, "Sensor Error    ", buf.Lines()[0])
}

func TestBringUp_SensorErrorAdvisory(t *testing.T) {
	buf := display.NewBuffer()
	rec := &sleepRecorder{}
	s := sensor.NewFakeSensor()
	s.ReadError = errors.New("no ack")

	err := BringUp(buf, s, false, rec.sleep)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{BannerDelay, ProbeDelay}, rec.calls)
}

func TestBringUp_NilDisplay(t *testing.T) {
	rec := &sleepRecorder{}
	assert.NoError(t, BringUp(nil, sensor.NewFakeSensor(21), true, rec.sleep))
}
