// Package app wires configuration, the bus, the validators and the
// result sinks into a runnable benchmark.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"validator-bench/internal/bus"
	"validator-bench/internal/bus/kafka"
	"validator-bench/internal/bus/mqtt"
	"validator-bench/internal/bus/replay"
	"validator-bench/internal/config"
	"validator-bench/internal/events"
	apihttp "validator-bench/internal/http"
	"validator-bench/internal/observability"
	"validator-bench/internal/observability/logging"
	"validator-bench/internal/observability/metrics"
	"validator-bench/internal/report"
	"validator-bench/internal/service/bench"
)

// Application holds process-wide state for a benchmark invocation.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
	Metrics     *metrics.Metrics
	Store       *bench.Store

	publisher *events.Publisher
	server    *observability.Server
	ready     atomic.Bool
}

// New constructs an Application and configures the global logger.
func New(cfg *config.Configuration) *Application {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{
		Cfg:     cfg,
		Logger:  logging.WithComponent("application"),
		Metrics: metrics.DefaultMetrics,
		Store:   bench.NewStore(),
	}
	a.Logger.Debug().Msg("Validator benchmark application created")
	return a
}

// Start validates the configuration and starts the result sinks and the
// HTTP server.
func (a *Application) Start() error {
	if err := a.Cfg.Validate(); err != nil {
		return err
	}
	a.StartupTime = time.Now().UTC()

	a.publisher = events.NewWithMetrics(&events.Config{
		Enabled:  a.Cfg.Results.KafkaEnabled,
		Brokers:  a.Cfg.Results.Brokers,
		Topic:    a.Cfg.Results.Topic,
		Source:   a.Cfg.Results.Source,
		Username: a.Cfg.Bus.Username,
		Password: a.Cfg.Bus.Password,
	}, a.Metrics)

	if addr := a.Cfg.Observability.MetricsAddr; addr != "" {
		a.server = observability.NewServer(addr, apihttp.NewRouter(apihttp.Deps{
			Results: a.Store,
			Ready:   a.ready.Load,
			Metrics: promhttp.Handler(),
		}))
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("start HTTP server: %w", err)
		}
	}

	a.ready.Store(true)
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Str("driver", a.Cfg.Bus.Driver).
		Dur("duration", a.Cfg.Bench.Duration).
		Msg("Validator benchmark starting")
	return nil
}

// NewBus builds the configured message bus.
func (a *Application) NewBus() (bus.Bus, error) {
	c := a.Cfg.Bus
	settings := a.Cfg.BusSettings()
	logger := logging.WithBus(c.Driver, c.BrokerURI)
	onError := observability.BusErrorHandler(a.Metrics, logger, c.Driver)

	switch c.Driver {
	case config.DriverMQTT:
		return mqtt.New(settings, onError), nil
	case config.DriverKafka:
		return kafka.New(settings, c.KafkaGroupPrefix, onError), nil
	case config.DriverReplay:
		return replay.New(a.replaySource, c.ReplayInterval, settings), nil
	default:
		return nil, fmt.Errorf("%w: unknown bus driver %q", config.ErrInvalid, c.Driver)
	}
}

func (a *Application) replaySource() (replay.Source, error) {
	c := a.Cfg.Bus
	if c.ReplayFile == "" {
		return replay.Generated(c.ReplaySeed, c.ReplayGateways), nil
	}
	msgs, err := replay.ReadFile(c.ReplayFile)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("replay file %s holds no payloads", c.ReplayFile)
	}
	return replay.Messages(msgs, c.ReplayLoop), nil
}

// Run executes the benchmark and returns one result per selected
// validator in run order.
func (a *Application) Run(ctx context.Context) ([]bench.Result, error) {
	candidates, err := Candidates(a.Cfg.Bench.Validators)
	if err != nil {
		return nil, err
	}
	b, err := a.NewBus()
	if err != nil {
		return nil, err
	}
	ctrl, err := bench.NewController(b, a.Cfg.Bench.Duration,
		bench.WithGC(a.Cfg.Bench.GCBeforeRun),
		bench.WithTracker(a.Store),
		bench.WithLogger(logging.WithComponent("controller")),
	)
	if err != nil {
		return nil, err
	}

	observers := bench.Observers{observability.NewRunObserver(a.Metrics), a.Store}
	if a.publisher != nil {
		observers = append(observers, a.publisher)
	}
	results, err := bench.NewOrchestrator(ctrl, observers).RunAll(ctx, candidates)
	if err != nil {
		return nil, err
	}
	a.Store.Complete()
	return results, nil
}

// Report renders results in the configured format.
func (a *Application) Report(w io.Writer, results []bench.Result) error {
	return report.Write(w, a.Cfg.Report.Format, results)
}

// Shutdown releases the sinks and stops the HTTP server.
func (a *Application) Shutdown(ctx context.Context) error {
	a.ready.Store(false)
	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	a.Logger.Info().Msg("Validator benchmark shutting down")
	return errors.Join(errs...)
}
