package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/climate-controller/internal/report"
)

// Bring-up screen texts and timing.
const (
	BannerText      = "Start systemu..."
	SensorOKText    = "Sensors OK"
	SensorErrorText = "Sensor Error"

	BannerDelay = 500 * time.Millisecond
	ProbeDelay  = time.Second
)

// ErrSensorUnavailable is returned by BringUp when the sensor probe fails
// and halting is requested.
var ErrSensorUnavailable = errors.New("sensor unavailable")

// BringUp shows the startup banner, probes the sensor once and shows the
// result. With halt set a failed probe returns ErrSensorUnavailable and leaves
// the error text on the display. d may be nil.
func BringUp(d report.Display, s Sensor, halt bool, sleep func(time.Duration)) error {
	show(d, BannerText)
	sleep(BannerDelay)
	clearDisplay(d)

	_, probeErr := s.ReadTemperature()
	if probeErr != nil {
		log.Printf("bring-up: sensor probe failed: %v", probeErr)
		show(d, SensorErrorText)
		if halt {
			return fmt.Errorf("%w: %v", ErrSensorUnavailable, probeErr)
		}
	} else {
		log.Printf("bring-up: sensor ok")
		show(d, SensorOKText)
	}

	sleep(ProbeDelay)
	clearDisplay(d)
	return nil
}

func show(d report.Display, text string) {
	if d == nil {
		return
	}
	if err := d.SetCursor(0, 0); err != nil {
		log.Printf("bring-up: display: %v", err)
		return
	}
	if err := d.WriteText(text); err != nil {
		log.Printf("bring-up: display: %v", err)
	}
}

func clearDisplay(d report.Display) {
	if d == nil {
		return
	}
	if err := d.Clear(); err != nil {
		log.Printf("bring-up: display: %v", err)
	}
}
