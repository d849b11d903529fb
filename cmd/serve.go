package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Marketen/epoch-clock/internal/adapters"
	"github.com/Marketen/epoch-clock/internal/application/ports"
	"github.com/Marketen/epoch-clock/internal/application/services"
	"github.com/Marketen/epoch-clock/internal/config"
	"github.com/Marketen/epoch-clock/internal/logger"
	"github.com/Marketen/epoch-clock/internal/metrics"
	"github.com/Marketen/epoch-clock/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve epoch settings and epoch queries over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, logger.Format(cfg.Log.Format), os.Stderr)

	logger.Info("Starting epoch-clock")
	logger.Info("Listen address: %s", cfg.HTTP.ListenAddress)
	logger.Info("Poll interval: %s", cfg.Watcher.PollInterval)

	router, err := buildRouter(cfg)
	if err != nil {
		return err
	}
	keys := router.Keys()
	logger.Info("Serving %d schedules", len(keys))

	var cache ports.ScheduleCache
	if cfg.Redis.URL != "" {
		redisCache, client, err := adapters.NewRedisCacheAdapter(cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = redisCache
		logger.Info("Caching schedules in Redis for %s", cfg.Redis.TTL)
	}

	m := metrics.New()
	schedules := services.NewScheduleService(router, cache, keys)
	schedules.Recorder = m

	hub := server.NewHub(m)
	watcher := services.NewEpochWatcher(schedules, cfg.Watcher.PollInterval, hub, m)
	srv := server.NewServer(schedules, hub, m, server.Options{
		MaxRangeEpochs: cfg.HTTP.MaxRangeEpochs,
		MaxPageSize:    cfg.HTTP.MaxPageSize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT / SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		watcher.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.HTTP.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Warn("Received signal %s, shutting down...", sig)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
