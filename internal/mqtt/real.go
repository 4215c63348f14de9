package mqtt

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/climate-controller/internal/logic"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	bufferCapacity = 256
)

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string

	// Commands receives lines from the command topic. Nil disables the subscription.
	Commands CommandSink
}

// RealPublisher publishes to an actual MQTT broker. Events and system
// messages published while disconnected are buffered and replayed on connect.
type RealPublisher struct {
	client   paho.Client
	prefix   string
	commands CommandSink

	mu            sync.Mutex
	buffer        *ringBuffer
	everConnected bool
}

// NewRealPublisher creates a publisher for the given broker. If the broker is
// not reachable within the connect timeout the publisher is returned anyway
// and keeps retrying in the background.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	p := &RealPublisher{
		prefix:   opts.TopicPrefix,
		commands: opts.Commands,
		buffer:   newRingBuffer(bufferCapacity),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(Topic(p.prefix, TopicSystem), will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(clientOpts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("mqtt: broker %s not reachable yet, buffering", opts.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.everConnected
	p.everConnected = true
	pending := p.buffer.drainAll()
	p.mu.Unlock()

	if p.commands != nil {
		topic := Topic(p.prefix, TopicCommand)
		// Handlers run on the client goroutine, so the token is not waited on here.
		c.Subscribe(topic, 1, p.onCommand)
		log.Printf("mqtt: subscribed to %s", topic)
	}

	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}

	if reconnect {
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err == nil {
			c.Publish(Topic(p.prefix, TopicSystem), 1, false, payload)
		}
		log.Printf("mqtt: reconnected, replayed %d messages", len(pending))
		return
	}
	log.Printf("mqtt: connected, replayed %d messages", len(pending))
}

func (p *RealPublisher) onCommand(_ paho.Client, msg paho.Message) {
	line := CommandLine(msg.Payload())
	if !p.commands.Offer(line) {
		log.Printf("mqtt: command %q dropped, previous command still pending", line)
	}
}

// CommandLine turns a command topic payload into a setpoint command line.
// A bare number is accepted as shorthand for "SET:<number>".
func CommandLine(payload []byte) string {
	line := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(line, logic.CommandPrefix) {
		line = logic.CommandPrefix + line
	}
	return line
}

// Publish sends a mode change event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(Topic(p.prefix, TopicEvents), 1, false, payload, true)
}

// PublishTelemetry sends a reading. Stale readings are not worth replaying,
// so they are dropped while disconnected.
func (p *RealPublisher) PublishTelemetry(t Telemetry) error {
	payload, err := FormatTelemetryPayload(t)
	if err != nil {
		return fmt.Errorf("format telemetry payload: %w", err)
	}
	return p.publish(Topic(p.prefix, TopicTelemetry), 0, false, payload, false)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(Topic(p.prefix, TopicSystem), 1, event.Retained, payload, true)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte, buffer bool) error {
	if !p.client.IsConnectionOpen() {
		if buffer {
			p.mu.Lock()
			p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
			p.mu.Unlock()
		}
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
