package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInit_LevelAndOutput(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	prev := log.Logger
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}()

	for _, tt := range tests {
		var buf bytes.Buffer
		Init(Config{Level: tt.level, Format: "json", Output: &buf})
		if got := zerolog.GlobalLevel(); got != tt.want {
			t.Errorf("level %q: expected %v, got %v", tt.level, tt.want, got)
		}
	}
}

func TestWithRun_Fields(t *testing.T) {
	prev := log.Logger
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}()

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	l := WithRun("encoding-json-run-1", "encoding/json")
	l.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["runId"] != "encoding-json-run-1" || entry["library"] != "encoding/json" {
		t.Errorf("missing run fields: %v", entry)
	}
}

func TestWithBus_Fields(t *testing.T) {
	prev := log.Logger
	defer func() { log.Logger = prev }()

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	l := WithBus("mqtt", "tcp://localhost:1883")
	l.Warn().Msg("lost")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["driver"] != "mqtt" || entry["component"] != "bus" {
		t.Errorf("missing bus fields: %v", entry)
	}
}
