package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"validator-bench/internal/observability/metrics"
	"validator-bench/internal/service/bench"
)

func newTestPublisher(t *testing.T, cfg *Config) (*Publisher, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	return NewWithMetrics(cfg, m), m
}

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPublisher(t, tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writer != nil {
				t.Error("expected nil writer when disabled")
			}
		})
	}
}

func TestNew_Enabled(t *testing.T) {
	p, _ := newTestPublisher(t, &Config{
		Enabled: true,
		Brokers: []string{"localhost:9092"},
		Topic:   "bench.results",
		Source:  "bench-host",
	})
	defer p.Close()

	if !p.enabled || p.writer == nil {
		t.Fatal("expected an enabled publisher with a writer")
	}
	if p.writer.Topic != "bench.results" {
		t.Errorf("expected writer topic bench.results, got %s", p.writer.Topic)
	}
}

func TestNew_ConfigValues(t *testing.T) {
	p, _ := newTestPublisher(t, &Config{
		Enabled: false,
		Brokers: []string{"localhost:9092"},
		Topic:   "test.results",
		Source:  "test-host",
	})

	if p.topic != "test.results" {
		t.Errorf("expected topic 'test.results', got %s", p.topic)
	}
	if p.source != "test-host" {
		t.Errorf("expected source 'test-host', got %s", p.source)
	}
}

func TestPublisher_PublishResult_Disabled(t *testing.T) {
	p, m := newTestPublisher(t, &Config{Enabled: false, Topic: "test.results"})

	err := p.PublishResult(context.Background(), bench.Result{Library: "encoding/json"})
	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
	if got := testutil.ToFloat64(m.ResultPublishTotal.WithLabelValues("test.results")); got != 1 {
		t.Errorf("expected 1 publish recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.ResultPublishErrors.WithLabelValues("test.results")); got != 0 {
		t.Errorf("expected no publish errors, got %v", got)
	}
}

func TestPublisher_PublishFailure_Disabled(t *testing.T) {
	p, _ := newTestPublisher(t, &Config{Enabled: false})

	err := p.PublishFailure(context.Background(), "encoding/json", errors.New("connection refused"))
	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Observer(t *testing.T) {
	p, m := newTestPublisher(t, &Config{Enabled: false, Topic: "obs"})
	var obs bench.Observer = p

	obs.RunStarted("a")
	obs.RunFinished(bench.Result{Library: "a"})
	obs.RunFailed("b", errors.New("refused"))

	if got := testutil.ToFloat64(m.ResultPublishTotal.WithLabelValues("obs")); got != 2 {
		t.Errorf("expected 2 publishes, got %v", got)
	}
}

func TestResultEvent_Shape(t *testing.T) {
	ev := ResultEvent{
		EventType: EventRunCompleted,
		Source:    "host-1",
		Runtime:   "go1.24.2 linux/amd64",
		Result: bench.Result{
			Library:           "encoding/json",
			MessagesProcessed: 10,
			MessagesPerSecond: 10,
			ValidationErrors:  5,
		},
		Timestamp: time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC).UnixMilli(),
	}

	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got["eventType"] != EventRunCompleted {
		t.Errorf("unexpected eventType %v", got["eventType"])
	}
	result, ok := got["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested result object, got %T", got["result"])
	}
	for _, key := range []string{"library", "messagesProcessed", "messagesPerSecond", "cpuUserTimeMs", "cpuSystemTimeMs", "memoryUsedBytes", "validationErrors"} {
		if _, ok := result[key]; !ok {
			t.Errorf("result missing %q", key)
		}
	}
}

func TestPublisher_Close_NoWriter(t *testing.T) {
	p := &Publisher{}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher without writer, got %v", err)
	}
}
