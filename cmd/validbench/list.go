package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"validator-bench/internal/app"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the validators in default run order",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Validators:")
			for _, e := range app.Catalog {
				fmt.Fprintf(w, "  - %-13s %s (%s)\n", e.Key, e.Name, e.Description)
			}
			return nil
		},
	}
}
