package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/survey-demand-etl/internal/adapter/httpadapter"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		b        batchFlags
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Process batches on an interval and expose health, metrics and the latest batch over HTTP",
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

			logger := e.logger
			srv := httpadapter.NewServer(e.cfg.HTTPAddr, p, p, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Start HTTP server.
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server error", "error", err)
					stop()
				}
			}()

			// Process batches until shutdown. A zero interval runs once and keeps serving.
			go func() {
				ticker := newTicker(interval)
				defer ticker.Stop()
				for {
					if _, err := p.Run(ctx, e.selector); err != nil && ctx.Err() == nil {
						logger.Error("pipeline error", "error", err)
					}
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
					}
				}
			}()

			<-ctx.Done()
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	b.register(cmd.Flags())
	cmd.Flags().DurationVar(&interval, "interval", time.Hour, "time between batches; 0 processes a single batch")
	return cmd
}

// ticker wraps time.Ticker so a zero interval never fires.
type ticker struct {
	C <-chan time.Time
	t *time.Ticker
}

func newTicker(d time.Duration) *ticker {
	if d <= 0 {
		return &ticker{C: make(chan time.Time)}
	}
	t := time.NewTicker(d)
	return &ticker{C: t.C, t: t}
}

func (t *ticker) Stop() {
	if t.t != nil {
		t.t.Stop()
	}
}
