// Package events publishes benchmark results as Kafka events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"validator-bench/internal/bus"
	buskafka "validator-bench/internal/bus/kafka"
	"validator-bench/internal/observability/metrics"
	"validator-bench/internal/service/bench"
	"validator-bench/internal/service/resource"
)

// Event types.
const (
	EventRunCompleted = "benchmark.run.completed"
	EventRunFailed    = "benchmark.run.failed"
)

// publishTimeout bounds an observer-triggered publish.
const publishTimeout = 10 * time.Second

// ResultEvent is the payload of a completed run.
type ResultEvent struct {
	EventType string       `json:"eventType"`
	Source    string       `json:"source"`
	Runtime   string       `json:"runtime"`
	Result    bench.Result `json:"result"`
	Timestamp int64        `json:"timestamp"`
}

// FailureEvent is the payload of a run that aborted the benchmark.
type FailureEvent struct {
	EventType string `json:"eventType"`
	Source    string `json:"source"`
	Runtime   string `json:"runtime"`
	Library   string `json:"library"`
	Error     string `json:"error"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher publishes run outcomes to a Kafka topic.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	source  string
	enabled bool
	metrics *metrics.Metrics
	now     func() time.Time
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers  []string
	Topic    string
	Source   string // identifies this benchmark host in events
	Username string
	Password string
	Enabled  bool
}

// New creates a result publisher. Without brokers or when disabled it
// only logs events.
func New(cfg *Config) *Publisher {
	return NewWithMetrics(cfg, metrics.DefaultMetrics)
}

// NewWithMetrics is New with an explicit metrics instance.
func NewWithMetrics(cfg *Config, m *metrics.Metrics) *Publisher {
	if cfg == nil {
		log.Info().Msg("Result publishing disabled (nil config), using log-only mode")
		return &Publisher{metrics: m, now: time.Now}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Result publishing disabled, using log-only mode")
		return &Publisher{
			topic:   cfg.Topic,
			source:  cfg.Source,
			metrics: m,
			now:     time.Now,
		}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport: buskafka.NewTransport(bus.Config{
			ClientID: cfg.Source,
			Username: cfg.Username,
			Password: cfg.Password,
		}),
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("source", cfg.Source).
		Msg("Result publisher initialized")

	return &Publisher{
		writer:  writer,
		topic:   cfg.Topic,
		source:  cfg.Source,
		enabled: true,
		metrics: m,
		now:     time.Now,
	}
}

// PublishResult publishes a completed run keyed by library.
func (p *Publisher) PublishResult(ctx context.Context, r bench.Result) error {
	ev := ResultEvent{
		EventType: EventRunCompleted,
		Source:    p.source,
		Runtime:   resource.Runtime(),
		Result:    r,
		Timestamp: p.now().UnixMilli(),
	}
	return p.publish(ctx, EventRunCompleted, r.Library, ev)
}

// PublishFailure publishes a run that aborted the benchmark.
func (p *Publisher) PublishFailure(ctx context.Context, library string, cause error) error {
	ev := FailureEvent{
		EventType: EventRunFailed,
		Source:    p.source,
		Runtime:   resource.Runtime(),
		Library:   library,
		Error:     cause.Error(),
		Timestamp: p.now().UnixMilli(),
	}
	return p.publish(ctx, EventRunFailed, library, ev)
}

func (p *Publisher) publish(ctx context.Context, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", p.topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("topic", p.topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || p.writer == nil {
		p.metrics.RecordResultPublish(p.topic, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "source", Value: []byte(p.source)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordResultPublish(p.topic, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordResultPublish(p.topic, nil, time.Since(start).Seconds())
	return nil
}

// RunStarted implements bench.Observer.
func (p *Publisher) RunStarted(string) {}

// RunFinished implements bench.Observer. Publish failures are logged and
// do not affect the benchmark.
func (p *Publisher) RunFinished(r bench.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = p.PublishResult(ctx, r)
}

// RunFailed implements bench.Observer.
func (p *Publisher) RunFailed(library string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = p.PublishFailure(ctx, library, err)
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing result writer")
		return err
	}
	return nil
}
