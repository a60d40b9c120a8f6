package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/rf433-sensor/internal/log"
	"github.com/sweeney/rf433-sensor/internal/report"
)

const (
	publishTimeout = 5 * time.Second
	clientPrefix   = "rf433-sensor-"
)

// Options configures a RealPublisher.
type Options struct {
	Broker string
	// ClientID defaults to a unique generated ID.
	ClientID string
	Encoding Encoding
	// OutboxSize is how many messages are held while disconnected.
	OutboxSize int
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are held and sent after reconnecting.
type RealPublisher struct {
	client paho.Client
	enc    Encoding

	mu        sync.Mutex
	pending   *outbox
	connected bool
	everUp    bool
}

// NewRealPublisher creates a publisher and starts connecting in the
// background. The broker does not need to be reachable yet.
func NewRealPublisher(o Options) *RealPublisher {
	if o.ClientID == "" {
		o.ClientID = clientPrefix + uuid.NewString()[:8]
	}
	p := &RealPublisher{
		enc:     o.Encoding,
		pending: newOutbox(o.OutboxSize),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		log.Warnf("mqtt: format last will: %v", err)
	}
	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	log.Infof("mqtt: connecting to %s as %s", o.Broker, o.ClientID)
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connected = true
	reconnect := p.everUp
	p.everUp = true
	held := p.pending.take()
	p.mu.Unlock()

	if reconnect {
		log.Infof("mqtt: reconnected, sending %d held messages", len(held))
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err != nil {
			log.Warnf("mqtt: format reconnect event: %v", err)
		} else {
			held = append(held, pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: true})
		}
	} else {
		log.Infof("mqtt: connected")
	}
	for _, m := range held {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Warnf("mqtt: connection lost: %v", err)
}

// Publish sends a reading at QoS 0.
func (p *RealPublisher) Publish(rec *report.Record) error {
	payload, err := FormatPayload(rec, p.enc)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(pendingMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) send(m pendingMsg) error {
	p.mu.Lock()
	if !p.connected {
		p.pending.add(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Held returns the number of messages waiting for a connection and the
// number discarded because the outbox was full.
func (p *RealPublisher) Held() (held int, dropped uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.len(), p.pending.dropped
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
