package mqtt

import (
	"sync"

	"github.com/sweeney/climate-controller/internal/logic"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Events contains all mode change events that were published.
	Events []logic.Event

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// Telemetry contains all readings that were published.
	Telemetry []Telemetry

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish and PublishTelemetry.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the mode change event.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Events = append(f.Events, event)

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// PublishTelemetry records the reading.
func (f *FakePublisher) PublishTelemetry(t Telemetry) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Telemetry = append(f.Telemetry, t)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.Events = nil
	f.Payloads = nil
	f.Telemetry = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}

// StalledPublisher stands in for a broker that accepts the connection but
// never acknowledges: every publish call waits until Release. Calls are
// recorded in a FakePublisher. Safe for concurrent use.
type StalledPublisher struct {
	gate    chan struct{}
	release sync.Once

	mu    sync.Mutex
	fake  FakePublisher
	calls int
}

// NewStalledPublisher creates a publisher whose calls block until Release.
func NewStalledPublisher() *StalledPublisher {
	return &StalledPublisher{gate: make(chan struct{})}
}

// Release unblocks pending and future publish calls.
func (s *StalledPublisher) Release() {
	s.release.Do(func() { close(s.gate) })
}

func (s *StalledPublisher) record(fn func(*FakePublisher) error) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	<-s.gate

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.fake)
}

// Publish blocks until Release, then records the event.
func (s *StalledPublisher) Publish(event logic.Event) error {
	return s.record(func(f *FakePublisher) error { return f.Publish(event) })
}

// PublishTelemetry blocks until Release, then records the reading.
func (s *StalledPublisher) PublishTelemetry(t Telemetry) error {
	return s.record(func(f *FakePublisher) error { return f.PublishTelemetry(t) })
}

// PublishSystem blocks until Release, then records the system event.
func (s *StalledPublisher) PublishSystem(event SystemEvent) error {
	return s.record(func(f *FakePublisher) error { return f.PublishSystem(event) })
}

// Close marks the publisher closed without waiting.
func (s *StalledPublisher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fake.Close()
}

// Calls returns how many publish calls have been made, including blocked ones.
func (s *StalledPublisher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Recorded returns a copy of what was published after Release.
func (s *StalledPublisher) Recorded() FakePublisher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fake
}
