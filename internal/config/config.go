// Package config loads benchmark configuration from the environment and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"validator-bench/internal/bus"
)

// Bus drivers.
const (
	DriverMQTT   = "mqtt"
	DriverKafka  = "kafka"
	DriverReplay = "replay"
)

// Report formats.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Configuration holds all benchmark settings.
type Configuration struct {
	Bus           BusConfig           `yaml:"bus"`
	Bench         BenchConfig         `yaml:"bench"`
	Report        ReportConfig        `yaml:"report"`
	Results       ResultsConfig       `yaml:"results"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// BusConfig selects and parameterizes the message bus.
type BusConfig struct {
	Driver           string        `yaml:"driver"`
	BrokerURI        string        `yaml:"brokerUri"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	ClientID         string        `yaml:"clientId"`
	Topics           []string      `yaml:"topics"`
	QueueSize        int           `yaml:"queueSize"`
	ConnectTimeout   time.Duration `yaml:"connectTimeout"`
	KafkaGroupPrefix string        `yaml:"kafkaGroupPrefix"`
	ReplayFile       string        `yaml:"replayFile"`
	ReplayInterval   time.Duration `yaml:"replayInterval"`
	ReplayLoop       bool          `yaml:"replayLoop"`
	ReplaySeed       uint64        `yaml:"replaySeed"`
	ReplayGateways   int           `yaml:"replayGateways"`
}

// BenchConfig controls the runs.
type BenchConfig struct {
	Duration    time.Duration `yaml:"duration"`
	Validators  []string      `yaml:"validators"` // empty selects all
	GCBeforeRun bool          `yaml:"gcBeforeRun"`
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Format string `yaml:"format"`
}

// ResultsConfig controls Kafka result publishing.
type ResultsConfig struct {
	KafkaEnabled bool     `yaml:"kafkaEnabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic"`
	Source       string   `yaml:"source"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"logLevel"`
	LogFormat   string `yaml:"logFormat"`
	MetricsAddr string `yaml:"metricsAddr"` // empty disables the HTTP server
}

// Load reads configuration from environment variables. Unparseable
// values fall back to defaults.
func Load() *Configuration {
	host, _ := os.Hostname()
	return &Configuration{
		Bus: BusConfig{
			Driver:           envOrDefault("BUS_DRIVER", DriverMQTT),
			BrokerURI:        envOrDefault("BROKER_URI", "tcp://localhost:1883"),
			Username:         os.Getenv("BROKER_USER"),
			Password:         os.Getenv("BROKER_PASS"),
			ClientID:         envOrDefault("BUS_CLIENT_ID", "validator-bench"),
			Topics:           envOrDefaultList("BUS_TOPICS", nil),
			QueueSize:        envOrDefaultInt("BUS_QUEUE_SIZE", bus.DefaultQueueSize),
			ConnectTimeout:   envOrDefaultDuration("BUS_CONNECT_TIMEOUT", 10*time.Second),
			KafkaGroupPrefix: envOrDefault("KAFKA_GROUP_PREFIX", "validator-bench"),
			ReplayFile:       os.Getenv("REPLAY_FILE"),
			ReplayInterval:   envOrDefaultDuration("REPLAY_INTERVAL", time.Millisecond),
			ReplayLoop:       envOrDefaultBool("REPLAY_LOOP", true),
			ReplaySeed:       envOrDefaultUint("REPLAY_SEED", 1),
			ReplayGateways:   envOrDefaultInt("REPLAY_GATEWAYS", 8),
		},
		Bench: BenchConfig{
			Duration:    envOrDefaultDuration("BENCH_DURATION", 60*time.Second),
			Validators:  envOrDefaultList("BENCH_VALIDATORS", nil),
			GCBeforeRun: envOrDefaultBool("BENCH_GC_BEFORE_RUN", true),
		},
		Report: ReportConfig{
			Format: envOrDefault("REPORT_FORMAT", FormatTable),
		},
		Results: ResultsConfig{
			KafkaEnabled: envOrDefaultBool("RESULTS_KAFKA_ENABLED", false),
			Brokers:      envOrDefaultList("RESULTS_KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:        envOrDefault("RESULTS_KAFKA_TOPIC", "validator-bench.results"),
			Source:       envOrDefault("RESULTS_SOURCE", host),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "console"),
			MetricsAddr: os.Getenv("METRICS_ADDR"),
		},
	}
}

// LoadFile reads the environment, then overlays the YAML file at path.
// Keys absent from the file keep their environment value.
func LoadFile(path string) (*Configuration, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Configuration) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch c.Bus.Driver {
	case DriverMQTT, DriverKafka:
		if c.Bus.BrokerURI == "" {
			bad("bus driver %s needs a broker URI", c.Bus.Driver)
		}
	case DriverReplay:
	default:
		bad("unknown bus driver %q", c.Bus.Driver)
	}
	if c.Bus.QueueSize <= 0 {
		bad("queue size must be positive, got %d", c.Bus.QueueSize)
	}
	if c.Bus.ReplayInterval < 0 {
		bad("replay interval must not be negative, got %v", c.Bus.ReplayInterval)
	}
	if c.Bench.Duration <= 0 {
		bad("benchmark duration must be positive, got %v", c.Bench.Duration)
	}
	switch c.Report.Format {
	case FormatTable, FormatMarkdown, FormatJSON:
	default:
		bad("unknown report format %q", c.Report.Format)
	}
	if c.Results.KafkaEnabled {
		if len(c.Results.Brokers) == 0 {
			bad("result publishing needs at least one broker")
		}
		if c.Results.Topic == "" {
			bad("result publishing needs a topic")
		}
	}
	return errors.Join(errs...)
}

// BusSettings returns the connection settings shared by the bus drivers.
func (c *Configuration) BusSettings() bus.Config {
	return bus.Config{
		BrokerURI:      c.Bus.BrokerURI,
		Username:       c.Bus.Username,
		Password:       c.Bus.Password,
		ClientID:       c.Bus.ClientID,
		Topics:         c.Bus.Topics,
		QueueSize:      c.Bus.QueueSize,
		ConnectTimeout: c.Bus.ConnectTimeout,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultUint(key string, def uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
