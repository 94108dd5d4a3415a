// Command surveyetl normalizes energy and water demand survey submissions
// into weighted demand records for the load profile simulator.
//
// Usage:
//
//	surveyetl run --input data/mock/mixed.json --output batch.json
//	surveyetl run --category household --dump-dir out   # pulls from KoboToolbox
//	surveyetl serve --interval 1h
//	surveyetl validate --input export.json
//	surveyetl schema > schema.yaml
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:           "surveyetl",
		Short:         "Survey demand ETL: classify, normalize and weight survey submissions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&g.schemaFile, "schema", "", "YAML schema override (default: SCHEMA_FILE or built-in)")
	rootCmd.PersistentFlags().StringVar(&g.profileFile, "profile", "", "TOML run profile")

	rootCmd.AddCommand(runCmd(&g))
	rootCmd.AddCommand(serveCmd(&g))
	rootCmd.AddCommand(validateCmd(&g))
	rootCmd.AddCommand(schemaCmd())
	return rootCmd
}
