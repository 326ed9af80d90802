// Package mqtt implements the bus contract over MQTT using the Eclipse
// Paho client.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"validator-bench/internal/bus"
)

// Driver is the driver name used in logs and errors.
const Driver = "mqtt"

// AllTopics is the MQTT multi-level wildcard.
const AllTopics = "#"

const disconnectQuiesce = 250 // milliseconds

// ErrTimeout is returned when the broker does not answer in time.
var ErrTimeout = errors.New("timed out waiting for broker")

// Bus dials a fresh MQTT client per connection.
type Bus struct {
	cfg     bus.Config
	onError func(error)
	seq     int
}

// New returns an MQTT bus. onError, if set, is called for connection
// errors after subscribe; they are always logged.
func New(cfg bus.Config, onError func(error)) *Bus {
	return &Bus{cfg: cfg, onError: onError}
}

// Connect opens a new MQTT session.
func (b *Bus) Connect(ctx context.Context) (bus.Conn, error) {
	b.seq++
	clientID := b.cfg.ClientID
	if clientID == "" {
		clientID = "validator-bench"
	}
	clientID = fmt.Sprintf("%s-%d-%d", clientID, os.Getpid(), b.seq)

	c := &Conn{
		queue:   bus.NewQueue(b.cfg.QueueLen()),
		topics:  topicFilters(b.cfg.Topics),
		timeout: connectTimeout(b.cfg),
		onError: b.onError,
		logger: log.With().
			Str("component", "bus").
			Str("driver", Driver).
			Str("clientId", clientID).
			Logger(),
	}

	opts := paho.NewClientOptions().
		AddBroker(b.cfg.BrokerURI).
		SetClientID(clientID).
		SetUsername(b.cfg.Username).
		SetPassword(b.cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetOrderMatters(true).
		SetConnectTimeout(c.timeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.reportError(fmt.Errorf("connection lost: %w", err))
		})

	c.client = paho.NewClient(opts)
	if err := wait(ctx, c.client.Connect(), c.timeout); err != nil {
		return nil, &bus.TransportError{Driver: Driver, Op: "connect", Err: err}
	}

	c.logger.Info().Str("broker", b.cfg.BrokerURI).Msg("MQTT connected")
	return c, nil
}

// Conn is one MQTT session.
type Conn struct {
	client  paho.Client
	queue   *bus.Queue
	topics  map[string]byte
	timeout time.Duration
	onError func(error)
	logger  zerolog.Logger
}

// SubscribeAll subscribes to the configured topic filters, "#" by default.
func (c *Conn) SubscribeAll(ctx context.Context) error {
	tok := c.client.SubscribeMultiple(c.topics, c.handle)
	if err := wait(ctx, tok, c.timeout); err != nil {
		return &bus.TransportError{Driver: Driver, Op: "subscribe", Err: err}
	}
	c.logger.Debug().Int("filters", len(c.topics)).Msg("MQTT subscribed")
	return nil
}

// Messages implements bus.Conn.
func (c *Conn) Messages() <-chan bus.Message {
	return c.queue.C()
}

// Close implements bus.Conn.
func (c *Conn) Close() error {
	c.queue.Shutdown()
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(disconnectQuiesce)
	}
	return nil
}

// handle runs on paho's router goroutine and blocks while the queue is
// full, pushing backpressure to the broker instead of dropping messages.
// Keepalive handling stalls while blocked, so BUS_QUEUE_SIZE must cover
// the expected burst. Close unblocks a pending handle.
func (c *Conn) handle(_ paho.Client, m paho.Message) {
	c.queue.Push(bus.Message{Topic: m.Topic(), Payload: m.Payload()})
}

func (c *Conn) reportError(err error) {
	c.logger.Error().Err(err).Msg("MQTT error")
	if c.onError != nil {
		c.onError(err)
	}
}

func wait(ctx context.Context, tok paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTimeout
	}
}

// Publisher publishes raw payloads over MQTT.
type Publisher struct {
	client  paho.Client
	qos     byte
	timeout time.Duration
}

// NewPublisher connects a publishing client.
func NewPublisher(ctx context.Context, cfg bus.Config) (*Publisher, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "validator-bench-loadgen"
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURI).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(connectTimeout(cfg))

	p := &Publisher{client: paho.NewClient(opts), timeout: connectTimeout(cfg)}
	if err := wait(ctx, p.client.Connect(), p.timeout); err != nil {
		return nil, &bus.TransportError{Driver: Driver, Op: "connect", Err: err}
	}
	return p, nil
}

// Publish implements bus.Publisher.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := wait(ctx, p.client.Publish(topic, p.qos, false, payload), p.timeout); err != nil {
		return &bus.TransportError{Driver: Driver, Op: "publish", Err: err}
	}
	return nil
}

// Close implements bus.Publisher.
func (p *Publisher) Close() error {
	p.client.Disconnect(disconnectQuiesce)
	return nil
}

func topicFilters(topics []string) map[string]byte {
	filters := make(map[string]byte, len(topics))
	for _, t := range topics {
		if t != "" {
			filters[t] = 0
		}
	}
	if len(filters) == 0 {
		filters[AllTopics] = 0
	}
	return filters
}

func connectTimeout(cfg bus.Config) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.ConnectTimeout
	}
	return 10 * time.Second
}
