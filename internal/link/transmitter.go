package link

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"
)

// DefaultTransmitTimeout bounds how long Send waits for the writer.
const DefaultTransmitTimeout = 100 * time.Millisecond

// ErrTransmitTimeout is returned when a line could not be handed to the writer
// in time. The line is dropped.
var ErrTransmitTimeout = errors.New("transmit timeout")

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transmitter closed")

// Transmitter writes lines to w from its own goroutine so that a stalled
// port never blocks the caller for longer than the timeout.
type Transmitter struct {
	w       io.Writer
	timeout time.Duration
	queue   chan string

	mu     sync.Mutex
	closed bool
	done   chan struct{}

	timedOut bool // edge-triggered logging
}

// NewTransmitter starts a transmitter writing to w.
func NewTransmitter(w io.Writer, timeout time.Duration) *Transmitter {
	if timeout <= 0 {
		timeout = DefaultTransmitTimeout
	}
	t := &Transmitter{
		w:       w,
		timeout: timeout,
		queue:   make(chan string, 1),
		done:    make(chan struct{}),
	}
	go t.run()
	return t
}

// Send queues line for transmission, waiting at most the timeout.
// It never retries.
func (t *Transmitter) Send(line string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.mu.Unlock()

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case t.queue <- line:
		if t.timedOut {
			log.Printf("serial: transmit recovered")
			t.timedOut = false
		}
		return nil
	case <-timer.C:
		if !t.timedOut {
			log.Printf("serial: transmit timeout after %v, dropping reports", t.timeout)
			t.timedOut = true
		}
		return ErrTransmitTimeout
	}
}

// Close stops the writer goroutine. Pending lines are discarded.
func (t *Transmitter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	return nil
}

func (t *Transmitter) run() {
	for {
		select {
		case <-t.done:
			return
		case line := <-t.queue:
			if _, err := io.WriteString(t.w, line); err != nil {
				log.Printf("serial: write error: %v", err)
			}
		}
	}
}
