package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

// profileFile records the effective run profile next to a debug dump.
const profileFile = "profile.toml"

func runCmd(g *globalFlags) *cobra.Command {
	var (
		b      batchFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process one batch of submissions and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(g, &b)
			if err != nil {
				return err
			}
			p, closeSinks, err := e.buildPipeline(b.input, processMetrics())
			if err != nil {
				return err
			}
			defer closeSinks()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			batch, runErr := p.Run(ctx, e.selector)
			if batch == nil {
				return runErr
			}
			if dir := e.profile.Output.DumpDir; dir != "" {
				if err := e.profile.Save(filepath.Join(dir, batch.RunID, profileFile)); err != nil {
					e.logger.Warn("run profile not saved", "error", err)
				}
			}
			if output != "" {
				if err := writeBatch(output, cmd.OutOrStdout(), batch); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	b.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", `write the batch as JSON to this file ("-" for stdout)`)
	return cmd
}

func writeBatch(path string, stdout io.Writer, batch *domain.Batch) error {
	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
