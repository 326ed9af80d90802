// Command loadgen publishes synthetic gateway traffic to an MQTT or
// Kafka broker so validbench has something to measure.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"validator-bench/internal/bus"
	"validator-bench/internal/bus/kafka"
	"validator-bench/internal/bus/mqtt"
	"validator-bench/internal/config"
	"validator-bench/internal/loadgen"
	"validator-bench/internal/observability/logging"
)

type options struct {
	driver    string
	broker    string
	user      string
	pass      string
	gateways  int
	rate      float64
	duration  time.Duration
	seed      uint64
	scenarios []string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "loadgen:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := config.Load()
	o := &options{}
	cmd := &cobra.Command{
		Use:           "loadgen",
		Short:         "Publish synthetic gateway traffic",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(logging.Config{
				Level:  env.Observability.LogLevel,
				Format: env.Observability.LogFormat,
			})
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.driver, "driver", env.Bus.Driver, "broker type: mqtt or kafka")
	f.StringVar(&o.broker, "broker", env.Bus.BrokerURI, "broker URI")
	f.StringVar(&o.user, "user", env.Bus.Username, "broker username")
	f.StringVar(&o.pass, "pass", env.Bus.Password, "broker password")
	f.IntVar(&o.gateways, "gateways", 8, "simulated gateways publishing concurrently")
	f.Float64Var(&o.rate, "rate", 50, "messages per second per gateway")
	f.DurationVar(&o.duration, "duration", time.Minute, "how long to publish; zero runs until interrupted")
	f.Uint64Var(&o.seed, "seed", 1, "random seed")
	f.StringSliceVar(&o.scenarios, "scenarios", nil, "scenario names (default: full mix)")
	return cmd
}

func run(ctx context.Context, o *options) error {
	if o.gateways <= 0 || o.rate <= 0 {
		return fmt.Errorf("gateways and rate must be positive")
	}
	var scenarios []loadgen.Scenario
	if len(o.scenarios) > 0 {
		var err error
		if scenarios, err = loadgen.Only(o.scenarios...); err != nil {
			return err
		}
	}
	gen := loadgen.New(o.seed, o.gateways, scenarios...)

	pub, topicOf, err := newPublisher(ctx, o)
	if err != nil {
		return err
	}
	defer pub.Close()

	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}

	interval := time.Duration(float64(time.Second) / o.rate)
	var sent, failed atomic.Uint64
	start := time.Now()
	log.Info().
		Str("driver", o.driver).
		Str("broker", o.broker).
		Int("gateways", o.gateways).
		Dur("interval", interval).
		Msg("Publishing synthetic traffic")

	g, ctx := errgroup.WithContext(ctx)
	for _, gmac := range gen.Gateways() {
		g.Go(func() error {
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
				}
				topic, payload := gen.NextFor(gmac)
				if err := pub.Publish(ctx, topicOf(topic), payload); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					failed.Add(1)
					log.Warn().Err(err).Str("gmac", gmac).Msg("Publish failed")
					continue
				}
				sent.Add(1)
			}
		})
	}
	err = g.Wait()

	elapsed := time.Since(start)
	log.Info().
		Uint64("sent", sent.Load()).
		Uint64("failed", failed.Load()).
		Dur("elapsed", elapsed).
		Float64("messagesPerSecond", float64(sent.Load())/elapsed.Seconds()).
		Msg("Load generation finished")
	return err
}

func newPublisher(ctx context.Context, o *options) (bus.Publisher, func(string) string, error) {
	cfg := bus.Config{
		BrokerURI: o.broker,
		Username:  o.user,
		Password:  o.pass,
		ClientID:  "validator-bench-loadgen",
	}
	switch o.driver {
	case config.DriverMQTT:
		p, err := mqtt.NewPublisher(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, func(t string) string { return t }, nil
	case config.DriverKafka:
		return kafka.NewPublisher(cfg), kafkaTopic, nil
	default:
		return nil, nil, fmt.Errorf("unsupported driver %q", o.driver)
	}
}

// kafkaTopic maps an MQTT-style topic onto a legal Kafka topic name.
func kafkaTopic(t string) string {
	return strings.ReplaceAll(t, "/", ".")
}
