package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/surveysim/interview-core/internal/interviewd"
	"github.com/surveysim/interview-core/internal/ratelimit"
	"github.com/surveysim/interview-core/pkg/logger"
	"github.com/surveysim/interview-core/pkg/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		registry := ratelimit.NewRegistry(cfg.RateLimits, utils.NewRealClock())
		store := interviewd.NewRunStore()
		executor := interviewd.NewRunExecutor(store, cfg, registry)
		defer executor.Close()

		server := interviewd.NewHTTPServer(cfg.ListenAddr, store, executor)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(server.ListenAndServe)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		logger.Info("daemon started", "addr", cfg.ListenAddr)
		return g.Wait()
	},
}
