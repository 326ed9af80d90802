package observability

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"validator-bench/internal/observability/metrics"
	"validator-bench/internal/service/bench"
)

func TestRunObserver_RecordsOutcomes(t *testing.T) {
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	o := NewRunObserver(m)

	o.RunStarted("encoding/json")
	if got := testutil.ToFloat64(m.RunsActive); got != 1 {
		t.Errorf("expected 1 active run, got %v", got)
	}

	o.RunFinished(bench.Result{
		Library:           "encoding/json",
		ElapsedSeconds:    1,
		MessagesReceived:  15,
		MessagesProcessed: 10,
		RecordsDispatched: 10,
		ValidationErrors:  5,
		MessagesPerSecond: 10,
		CPUUserMs:         250,
	})

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"active", m.RunsActive, 0},
		{"success", m.RunsTotal.WithLabelValues("success"), 1},
		{"received", m.MessagesReceived.WithLabelValues("encoding/json"), 15},
		{"processed", m.MessagesProcessed.WithLabelValues("encoding/json"), 10},
		{"errors", m.ValidationErrors.WithLabelValues("encoding/json"), 5},
		{"throughput", m.Throughput.WithLabelValues("encoding/json"), 10},
		{"cpu user", m.CPUUserSeconds.WithLabelValues("encoding/json"), 0.25},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}

	o.RunStarted("xeipuuv/gojsonschema")
	o.RunFailed("xeipuuv/gojsonschema", errors.New("refused"))
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsActive); got != 0 {
		t.Errorf("expected no active runs, got %v", got)
	}
}

func TestBusErrorHandler(t *testing.T) {
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	h := BusErrorHandler(m, zerolog.Nop(), "mqtt")

	h(errors.New("connection lost"))
	h(errors.New("connection lost"))

	if got := testutil.ToFloat64(m.BusErrors.WithLabelValues("mqtt")); got != 2 {
		t.Errorf("expected 2 bus errors, got %v", got)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", http.NotFoundHandler())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestServer_StartBindFailure(t *testing.T) {
	s := NewServer("256.0.0.1:bad", http.NotFoundHandler())
	if err := s.Start(); err == nil {
		t.Error("expected bind error")
	}
}
