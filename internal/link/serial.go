package link

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the controller UART.
	DefaultBaudRate = 115200

	// readTimeout lets the receive goroutine notice cancellation.
	readTimeout = 100 * time.Millisecond
)

// Serial is a line channel over a serial port: received lines are taken with
// Poll, outgoing lines go through Send.
type Serial struct {
	port     serial.Port
	rx       Slot
	receiver *Receiver
	tx       *Transmitter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open opens the named port for the controller side: received command lines
// are kept first-come, and a line arriving while one is pending is dropped.
func Open(name string, baudRate int, txTimeout time.Duration) (*Serial, error) {
	return open(name, baudRate, txTimeout, NewMailbox())
}

// OpenMonitor opens the named port for the operator side: only the newest
// received report is kept.
func OpenMonitor(name string, baudRate int, txTimeout time.Duration) (*Serial, error) {
	return open(name, baudRate, txTimeout, NewLatest())
}

func open(name string, baudRate int, txTimeout time.Duration, rx Slot) (*Serial, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Serial{
		port:     port,
		rx:       rx,
		receiver: NewReceiver(rx),
		tx:       NewTransmitter(port, txTimeout),
		cancel:   cancel,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.receiver.Run(ctx, port); err != nil {
			log.Printf("serial: receiver stopped: %v", err)
		}
	}()

	return s, nil
}

// Poll returns the pending received line, if any.
func (s *Serial) Poll() (string, bool) {
	return s.rx.Poll()
}

// Dropped counts received lines lost because another was pending.
func (s *Serial) Dropped() int {
	return s.receiver.Dropped()
}

// Send transmits one telemetry line, best effort.
func (s *Serial) Send(line string) error {
	return s.tx.Send(line)
}

// Close stops both directions and closes the port.
func (s *Serial) Close() error {
	s.cancel()
	s.tx.Close()
	err := s.port.Close()
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
