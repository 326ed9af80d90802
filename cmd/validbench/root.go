package main

import (
	"github.com/spf13/cobra"

	"validator-bench/internal/config"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "validbench",
		Short:         "Benchmark JSON validation libraries against live gateway traffic",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file overlaid on the environment")
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newListCmd())
	root.AddCommand(newSchemaCmd())
	return root
}

func (o *rootOptions) load() (*config.Configuration, error) {
	return config.LoadFile(o.configFile)
}
