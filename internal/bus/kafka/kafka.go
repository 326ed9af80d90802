// Package kafka implements the bus contract over Kafka using
// segmentio/kafka-go. Each connection joins a fresh consumer group over
// every topic in the cluster and starts at the newest offsets, so runs
// only see live traffic. Offsets are never committed; the groups are
// discarded when the connection closes.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"validator-bench/internal/bus"
)

// Driver is the driver name used in logs and errors.
const Driver = "kafka"

// ErrNoTopics is returned when the cluster has nothing to subscribe to.
var ErrNoTopics = errors.New("no topics to subscribe to")

// ErrNotAssigned is returned when the consumer group does not receive
// partitions before the join timeout.
var ErrNotAssigned = errors.New("consumer group received no partition assignment")

const (
	defaultJoinTimeout = 30 * time.Second
	joinPollInterval   = 50 * time.Millisecond
)

// Bus opens consumer-group connections.
type Bus struct {
	cfg         bus.Config
	groupPrefix string
	onError     func(error)
	seq         int
}

// New returns a Kafka bus. groupPrefix names the per-connection consumer
// groups.
func New(cfg bus.Config, groupPrefix string, onError func(error)) *Bus {
	if groupPrefix == "" {
		groupPrefix = "validator-bench"
	}
	return &Bus{cfg: cfg, groupPrefix: groupPrefix, onError: onError}
}

// Connect dials the first reachable broker to verify connectivity.
func (b *Bus) Connect(ctx context.Context) (bus.Conn, error) {
	brokers := ParseBrokers(b.cfg.BrokerURI)
	if len(brokers) == 0 {
		return nil, &bus.TransportError{Driver: Driver, Op: "connect", Err: errors.New("no brokers configured")}
	}

	dialer := newDialer(b.cfg)
	conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return nil, &bus.TransportError{Driver: Driver, Op: "connect", Err: err}
	}

	b.seq++
	groupID := fmt.Sprintf("%s-%d-%d-%d", b.groupPrefix, os.Getpid(), time.Now().Unix(), b.seq)
	return &Conn{
		cfg:     b.cfg,
		brokers: brokers,
		dialer:  dialer,
		control: conn,
		groupID: groupID,
		queue:   bus.NewQueue(b.cfg.QueueLen()),
		onError: b.onError,
		logger: log.With().
			Str("component", "bus").
			Str("driver", Driver).
			Str("groupId", groupID).
			Logger(),
	}, nil
}

// Conn is one consumer-group membership.
type Conn struct {
	cfg     bus.Config
	brokers []string
	dialer  *kafka.Dialer
	control *kafka.Conn
	groupID string
	queue   *bus.Queue
	onError func(error)
	logger  zerolog.Logger

	reader *kafka.Reader
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// SubscribeAll joins the consumer group over the configured topics, or
// every non-internal topic when none are configured. It returns once the
// group has been assigned partitions.
func (c *Conn) SubscribeAll(ctx context.Context) error {
	topics := c.cfg.Topics
	if len(topics) == 0 {
		partitions, err := c.control.ReadPartitions()
		if err != nil {
			return &bus.TransportError{Driver: Driver, Op: "subscribe", Err: err}
		}
		topics = topicsOf(partitions)
	}
	if len(topics) == 0 {
		return &bus.TransportError{Driver: Driver, Op: "subscribe", Err: ErrNoTopics}
	}

	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     c.groupID,
		GroupTopics: topics,
		Dialer:      c.dialer,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     100 * time.Millisecond,
		StartOffset: kafka.LastOffset,
	})

	readCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.consume(readCtx)

	timeout := c.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultJoinTimeout
	}
	reader := c.reader
	if err := waitAssigned(ctx, func() int64 { return reader.Stats().Rebalances }, joinPollInterval, timeout); err != nil {
		return &bus.TransportError{Driver: Driver, Op: "subscribe", Err: err}
	}

	c.logger.Info().Strs("topics", topics).Msg("Kafka consumer started")
	return nil
}

// waitAssigned polls rebalances until the reader reports its first
// generation. Reader stats are reset on every read, so any non-zero
// value means a join completed since the previous poll.
func waitAssigned(ctx context.Context, rebalances func() int64, interval, timeout time.Duration) error {
	if rebalances() > 0 {
		return nil
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrNotAssigned
		case <-tick.C:
			if rebalances() > 0 {
				return nil
			}
		}
	}
}

func (c *Conn) consume(ctx context.Context) {
	defer c.wg.Done()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("Kafka read failed")
				if c.onError != nil {
					c.onError(err)
				}
			}
			return
		}
		if !c.queue.Push(bus.Message{Topic: m.Topic, Payload: m.Value}) {
			return
		}
	}
}

// Messages implements bus.Conn.
func (c *Conn) Messages() <-chan bus.Message {
	return c.queue.C()
}

// Close implements bus.Conn.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.queue.Shutdown()
		if c.cancel != nil {
			c.cancel()
		}
		c.wg.Wait()
		if c.reader != nil {
			if e := c.reader.Close(); e != nil {
				c.logger.Error().Err(e).Msg("Error closing Kafka reader")
				err = e
			}
		}
		if c.control != nil {
			if e := c.control.Close(); e != nil && err == nil {
				err = e
			}
		}
	})
	return err
}

// Publisher writes raw payloads with a single Kafka writer; the topic is
// chosen per message.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a writer over the configured brokers.
func NewPublisher(cfg bus.Config) *Publisher {
	return &Publisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(ParseBrokers(cfg.BrokerURI)...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    NewTransport(cfg),
		// Load generator topics are derived from gateway IDs.
		AllowAutoTopicCreation: true,
	}}
}

// Publish implements bus.Publisher.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := p.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Value: payload}); err != nil {
		return &bus.TransportError{Driver: Driver, Op: "publish", Err: err}
	}
	return nil
}

// Close implements bus.Publisher.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// ParseBrokers splits a broker URI such as "kafka://a:9092,b:9092" into
// host:port addresses.
func ParseBrokers(uri string) []string {
	uri = strings.TrimPrefix(uri, "kafka://")
	var out []string
	for _, b := range strings.Split(uri, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewTransport returns a writer transport carrying the configured
// credentials.
func NewTransport(cfg bus.Config) *kafka.Transport {
	t := &kafka.Transport{
		Dial:     newDialer(cfg).DialFunc,
		ClientID: cfg.ClientID,
	}
	if cfg.Username != "" {
		t.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}
	return t
}

func newDialer(cfg bus.Config) *kafka.Dialer {
	d := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
		ClientID:  cfg.ClientID,
	}
	if cfg.ConnectTimeout > 0 {
		d.Timeout = cfg.ConnectTimeout
	}
	if cfg.Username != "" {
		d.SASLMechanism = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}
	return d
}

func topicsOf(partitions []kafka.Partition) []string {
	seen := make(map[string]struct{})
	for _, p := range partitions {
		if strings.HasPrefix(p.Topic, "__") {
			continue
		}
		seen[p.Topic] = struct{}{}
	}
	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
