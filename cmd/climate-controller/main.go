// Command climate-controller runs the temperature control loop: it samples the
// sensor, drives the heater, fan and indicators, and reports over serial,
// MQTT and HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/climate-controller/internal/config"
	"github.com/sweeney/climate-controller/internal/controller"
	"github.com/sweeney/climate-controller/internal/display"
	"github.com/sweeney/climate-controller/internal/gpio"
	"github.com/sweeney/climate-controller/internal/link"
	"github.com/sweeney/climate-controller/internal/logic"
	"github.com/sweeney/climate-controller/internal/mqtt"
	"github.com/sweeney/climate-controller/internal/report"
	"github.com/sweeney/climate-controller/internal/sensor"
	"github.com/sweeney/climate-controller/internal/status"
	"github.com/sweeney/climate-controller/internal/web"
)

// loopInterval is how often the loop ticks. Buttons are polled every tick;
// control cycles run at the configured sample period.
const loopInterval = 10 * time.Millisecond

func main() {
	configPath := flag.String("config", "/etc/climate-controller.yaml", "Path to YAML config file")
	port := flag.String("port", "", "Serial port for the remote link (overrides config, \"off\" disables)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config, \"off\" disables)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config, \"off\" disables)")
	simulate := flag.Bool("simulate", false, "Use the simulated plant instead of hardware")
	printState := flag.Bool("print-state", false, "Print current sensor and button state and exit")
	writeConfig := flag.String("write-config", "", "Write the effective config to this path and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	applyFlags(cfg, *port, *broker, *httpAddr, *simulate)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		log.Printf("wrote config to %s", *writeConfig)
		return
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyFlags overrides config values with the flags that were given.
// "off" clears an address, which disables that interface.
func applyFlags(cfg *config.Config, port, broker, httpAddr string, simulate bool) {
	override := func(dst *string, v string) {
		switch v {
		case "":
		case "off":
			*dst = ""
		default:
			*dst = v
		}
	}
	override(&cfg.Serial.Port, port)
	override(&cfg.MQTT.Broker, broker)
	override(&cfg.HTTP.Addr, httpAddr)
	if simulate {
		cfg.Sensor.Kind = config.SensorSim
	}
}

func run(cfg *config.Config, printState bool) error {
	hw, err := openHardware(cfg)
	if err != nil {
		return err
	}
	// Deferred first so it runs last: outputs go safe after everything else stops.
	defer hw.Close()

	if printState {
		return printHardwareState(os.Stdout, hw)
	}

	var disp report.Display = display.NewBuffer()
	if cfg.Display.Console {
		disp = display.NewConsole(os.Stdout)
	}

	if err := controller.BringUp(disp, hw.sensor, cfg.Sensor.HaltOnError, time.Sleep); err != nil {
		return err
	}

	sio := controller.IO{
		Sensor:   hw.sensor,
		Actuator: hw.actuator,
		Buttons:  hw.buttons,
		Display:  disp,
	}

	// Serial link
	var serialLink *link.Serial
	if cfg.Serial.Port != "" {
		s, err := link.Open(cfg.Serial.Port, cfg.Serial.Baud, cfg.Serial.WriteTimeout)
		if err != nil {
			log.Printf("serial: disabled: %v", err)
		} else {
			defer s.Close()
			serialLink = s
			sio.Commands = append(sio.Commands, s)
			sio.Telemetry = append(sio.Telemetry, s)
			log.Printf("serial: %s at %d baud", cfg.Serial.Port, cfg.Serial.Baud)
		}
	}

	// MQTT. The control loop only ever queues; the broker is waited on by
	// the async publisher's goroutine.
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	var broker *mqtt.RealPublisher
	var async *mqtt.AsyncPublisher
	if cfg.MQTT.Broker != "" {
		remote := link.NewMailbox()
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Commands:    remote,
		})
		if err != nil {
			log.Printf("mqtt: disabled: %v", err)
		} else {
			broker = p
			async = mqtt.NewAsyncPublisher(p, mqtt.DefaultQueueSize)
			// Closes p after flushing.
			defer async.Close()
			publisher, mqttStatus = async, p
			sio.Commands = append(sio.Commands, remote)
		}
	}

	sched := controller.New(controllerConfig(cfg), sio)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetLinkSource(linkStats(serialLink, broker, async))

	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: sensor=%s period=%v target=%.1f broker=%q heartbeat=%v",
		cfg.Sensor.Kind, cfg.Control.SamplePeriod, cfg.Setpoint.Default, cfg.MQTT.Broker, cfg.MQTT.HeartbeatInterval)

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(sched, publisher, mqttStatus, tracker, cfg.MQTT.TelemetryInterval, cfg.MQTT.HeartbeatInterval, time.Now, ticker.C, sigCh)
}

// runLoop owns the scheduler. Every publish call happens between control
// cycles, so publisher must not wait on the network; run passes an
// AsyncPublisher. publisher and mqttStatus may be nil when MQTT is disabled;
// tracker may be nil in tests.
func runLoop(sched *controller.Scheduler, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, telemetryInterval, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime
	var lastTelemetry time.Time

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			res := sched.Tick(t)
			if !res.Sampled {
				continue
			}

			for _, event := range res.Events {
				log.Printf("event: %s -> %s (temp=%.2f target=%.1f)", event.From, event.To, event.Temperature, event.Target)
				if publisher != nil {
					if err := publisher.Publish(event); err != nil {
						log.Printf("publish error: %v", err)
					}
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(res.State, sched.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if publisher == nil {
				continue
			}

			if telemetryInterval > 0 && t.Sub(lastTelemetry) >= telemetryInterval {
				lastTelemetry = t
				if err := publisher.PublishTelemetry(mqtt.TelemetryFromState(t, res.State)); err != nil {
					log.Printf("telemetry publish error: %v", err)
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				counts := sched.Counts()
				log.Printf("heartbeat: uptime=%v cycles=%d heating=%d cooling=%d idle=%d",
					t.Sub(startTime), counts.Cycles, counts.HeatingEntries, counts.CoolingEntries, counts.IdleEntries)

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// hardware holds the plant-side collaborators and whatever must be closed.
type hardware struct {
	sensor   controller.Sensor
	actuator controller.Actuator
	buttons  controller.ButtonReader
	closers  []io.Closer
}

// Close releases resources in reverse order of acquisition.
func (h *hardware) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

func openHardware(cfg *config.Config) (*hardware, error) {
	hw := &hardware{}

	if cfg.Sensor.Kind == config.SensorSim {
		pc := sensor.DefaultPlantConfig()
		pc.DutyMax = cfg.Control.DutyMax
		plant := sensor.NewPlant(pc, time.Now)
		hw.sensor, hw.actuator = plant, plant
		hw.closers = append(hw.closers, plant)
		log.Printf("sensor: simulated plant (ambient %.1f C)", pc.Ambient)
		return hw, nil
	}

	hw.sensor = sensor.NewIIO(cfg.Sensor.Path)

	buttons, err := gpio.NewRealButtons(cfg.GPIO.Chip, cfg.GPIO.PinIncrease, cfg.GPIO.PinDecrease)
	if err != nil {
		return nil, fmt.Errorf("init buttons: %w", err)
	}
	hw.buttons = buttons
	hw.closers = append(hw.closers, buttons)

	outputs, err := gpio.NewRealOutputs(cfg.GPIO.Chip, cfg.GPIO.PinFan, cfg.GPIO.PinIndicatorA, cfg.GPIO.PinIndicatorB)
	if err != nil {
		hw.Close()
		return nil, fmt.Errorf("init outputs: %w", err)
	}

	heater, err := gpio.NewPWMHeater(cfg.GPIO.PinHeater, cfg.Control.DutyMax, cfg.GPIO.PWMFrequency)
	if err != nil {
		outputs.Close()
		hw.Close()
		return nil, fmt.Errorf("init heater: %w", err)
	}

	board := gpio.NewBoard(heater, outputs, cfg.Control.DutyMax)
	hw.actuator = board
	hw.closers = append(hw.closers, board)
	return hw, nil
}

func printHardwareState(w io.Writer, hw *hardware) error {
	temp, err := hw.sensor.ReadTemperature()
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	fmt.Fprintf(w, "Temperature: %.2f C\n", temp)

	if hw.buttons != nil {
		inc, dec, err := hw.buttons.Read()
		if err != nil {
			return fmt.Errorf("read buttons: %w", err)
		}
		fmt.Fprintf(w, "Increase: %s, Decrease: %s\n", pressedString(inc), pressedString(dec))
	}

	fan, err := hw.actuator.Fan()
	if err != nil {
		return fmt.Errorf("read fan: %w", err)
	}
	fmt.Fprintf(w, "Fan: %s\n", stateString(fan))
	return nil
}

// linkStats samples the drop counters of whichever links are up. Nil
// arguments are links that are disabled.
func linkStats(s *link.Serial, broker *mqtt.RealPublisher, async *mqtt.AsyncPublisher) func() status.LinkStats {
	return func() status.LinkStats {
		var ls status.LinkStats
		if s != nil {
			ls.SerialDropped = s.Dropped()
		}
		if broker != nil {
			ls.MQTTBuffered = broker.Buffered()
		}
		if async != nil {
			ls.MQTTDropped = async.Dropped()
		}
		return ls
	}
}

func controllerConfig(cfg *config.Config) controller.Config {
	return controller.Config{
		SamplePeriod: cfg.Control.SamplePeriod,
		Filter:       logic.Filter{Alpha: cfg.Control.FilterAlpha},
		Policy:       cfg.ControlPolicy(),
		Setpoint:     cfg.SetpointPolicy(),
		Indicators:   cfg.IndicatorMap(),
	}
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		SamplePeriodMs: cfg.Control.SamplePeriod.Milliseconds(),
		DebounceMs:     cfg.Setpoint.Debounce.Milliseconds(),
		HeartbeatMs:    cfg.MQTT.HeartbeatInterval.Milliseconds(),
		SetpointMin:    cfg.Setpoint.Min,
		SetpointMax:    cfg.Setpoint.Max,
		Sensor:         cfg.Sensor.Kind,
		SerialPort:     cfg.Serial.Port,
		Broker:         cfg.MQTT.Broker,
		HTTPPort:       cfg.HTTP.Addr,
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func pressedString(pressed bool) string {
	if pressed {
		return "pressed"
	}
	return "released"
}
