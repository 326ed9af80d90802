package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"validator-bench/internal/app"
)

type runFlags struct {
	driver      string
	broker      string
	duration    time.Duration
	validators  []string
	format      string
	metricsAddr string
	replayFile  string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every selected validator for one window each and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, root, f)
		},
	}
	cmd.Flags().StringVar(&f.driver, "driver", "", "bus driver: mqtt, kafka or replay")
	cmd.Flags().StringVar(&f.broker, "broker", "", "broker URI")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "measurement window per validator")
	cmd.Flags().StringSliceVar(&f.validators, "validators", nil, "validators to run, in order (see list)")
	cmd.Flags().StringVar(&f.format, "format", "", "report format: table, markdown or json")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve /metrics and /v1/results on this address")
	cmd.Flags().StringVar(&f.replayFile, "replay-file", "", "newline-delimited payloads for the replay driver")
	return cmd
}

func runBenchmark(cmd *cobra.Command, root *rootOptions, f *runFlags) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Bus.Driver = f.driver
	}
	if flags.Changed("broker") {
		cfg.Bus.BrokerURI = f.broker
	}
	if flags.Changed("duration") {
		cfg.Bench.Duration = f.duration
	}
	if flags.Changed("validators") {
		cfg.Bench.Validators = f.validators
	}
	if flags.Changed("format") {
		cfg.Report.Format = f.format
	}
	if flags.Changed("metrics-addr") {
		cfg.Observability.MetricsAddr = f.metricsAddr
	}
	if flags.Changed("replay-file") {
		cfg.Bus.ReplayFile = f.replayFile
	}

	a := app.New(cfg)
	if err := a.Start(); err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := a.Run(ctx)
	if err != nil {
		return err
	}
	return a.Report(cmd.OutOrStdout(), results)
}
