package main

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"

	"validator-bench/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema used by the schema-based validators",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := schema.Document()
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, doc, "", "  "); err != nil {
				return err
			}
			out.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(out.Bytes())
			return err
		},
	}
}
