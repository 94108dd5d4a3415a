package main

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/survey-demand-etl/internal/schema"
)

// schemaCmd prints the effective form schema so it can be edited and passed
// back with --schema.
func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the effective form schema as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("schema")
			if err != nil {
				return err
			}
			s, err := schema.Load(path)
			if err != nil {
				return err
			}
			return s.WriteYAML(cmd.OutOrStdout())
		},
	}
}
