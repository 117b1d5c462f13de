package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/metrics"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/scheduler"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		metrics.MustRegister(prometheus.DefaultRegisterer)

		srv := server.NewServer(server.Deps{
			Refresher: a.refresher,
			Countries: a.countries,
			Status:    a.status,
			ImagePath: a.summary.Path(),
		})

		var sch *scheduler.Scheduler
		if cfg.RefreshInterval > 0 {
			sch = scheduler.New(a.refresher)
			if err := sch.StartJob(ctx, cfg.RefreshInterval); err != nil {
				return err
			}
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(cfg.HTTPAddr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Info("Received %s. Shutting down gracefully...", sig)
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server exited: %v", err)
			}
		}

		if sch != nil {
			sch.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown: %v", err)
		}
		logger.Info("Shutdown complete.")
		return nil
	},
}
