package mqtt

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sweeney/climate-controller/internal/logic"
)

// DefaultQueueSize is the number of messages an AsyncPublisher holds for its
// background goroutine.
const DefaultQueueSize = 64

// flushTimeout bounds how long Close waits for queued messages.
const flushTimeout = 2 * time.Second

// ErrQueueFull is returned when a message cannot be queued. The message is dropped.
var ErrQueueFull = errors.New("publish queue full")

// ErrPublisherClosed is returned by publish calls after Close.
var ErrPublisherClosed = errors.New("publisher closed")

type publishJob struct {
	kind string
	send func() error
}

// AsyncPublisher queues messages for a background goroutine that forwards
// them to another Publisher, so callers never wait on the broker. When the
// queue is full new messages are dropped.
type AsyncPublisher struct {
	next  Publisher
	queue chan publishJob
	done  chan struct{}

	mu      sync.Mutex
	closed  bool
	full    bool // edge-triggered logging
	dropped int
}

// NewAsyncPublisher starts forwarding to next. A size below 1 uses DefaultQueueSize.
func NewAsyncPublisher(next Publisher, size int) *AsyncPublisher {
	if size < 1 {
		size = DefaultQueueSize
	}
	a := &AsyncPublisher{
		next:  next,
		queue: make(chan publishJob, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish queues a mode change event.
func (a *AsyncPublisher) Publish(event logic.Event) error {
	return a.enqueue(publishJob{kind: "event", send: func() error { return a.next.Publish(event) }})
}

// PublishTelemetry queues a reading.
func (a *AsyncPublisher) PublishTelemetry(t Telemetry) error {
	return a.enqueue(publishJob{kind: "telemetry", send: func() error { return a.next.PublishTelemetry(t) }})
}

// PublishSystem queues a system lifecycle event.
func (a *AsyncPublisher) PublishSystem(event SystemEvent) error {
	return a.enqueue(publishJob{kind: "system", send: func() error { return a.next.PublishSystem(event) }})
}

func (a *AsyncPublisher) enqueue(job publishJob) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrPublisherClosed
	}

	select {
	case a.queue <- job:
		if a.full {
			log.Printf("mqtt: publish queue drained, %d messages dropped", a.dropped)
			a.full = false
		}
		return nil
	default:
		a.dropped++
		if !a.full {
			log.Printf("mqtt: publish queue full (%d messages), dropping", cap(a.queue))
			a.full = true
		}
		return ErrQueueFull
	}
}

// Dropped returns the number of messages dropped because the queue was full.
func (a *AsyncPublisher) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Close stops accepting messages, waits up to flushTimeout for the queued
// ones, then closes the wrapped publisher.
func (a *AsyncPublisher) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(flushTimeout):
		log.Printf("mqtt: flush timeout after %v, abandoning queued messages", flushTimeout)
	}
	return a.next.Close()
}

func (a *AsyncPublisher) run() {
	defer close(a.done)
	for job := range a.queue {
		if err := job.send(); err != nil {
			log.Printf("mqtt: %s publish error: %v", job.kind, err)
		}
	}
}
