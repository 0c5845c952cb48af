package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fluxo/internal/backend"
	"fluxo/internal/cache"
	"fluxo/internal/cli"
	apphttp "fluxo/internal/http"
	flog "fluxo/internal/log"
	"fluxo/internal/seed"
	"fluxo/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, flog.ComponentApp)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(flog.ComponentBackend).Logger).Open(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	analytics := services.NewAnalyticsService(result.Store, services.WithEntityCache(cfg.EntityCacheTTL))
	result.Entries.OnWrite(analytics.InvalidateEntities)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweeper := cache.NewSweeper(10*time.Minute, logger.WithComponent(flog.ComponentCache).Logger)
	if c := analytics.EntityCache(); c != nil {
		sweeper.Register("entities", c)
	}
	go sweeper.Run(sweepCtx)

	if cfg.SeedDemoData {
		n, err := seed.Populate(ctx, result.Store, time.Now())
		if err != nil {
			logger.Error("Failed to seed demo data", "error", err, flog.FieldOperation, flog.OpSeed)
		} else if n > 0 {
			logger.Info("Seeded demo data", flog.FieldCount, n, flog.FieldOperation, flog.OpSeed)
		}
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DefaultTrendMonths: cfg.DefaultTrendMonths,
	}, apphttp.Deps{
		Reader:    result.Store,
		Entries:   result.Entries,
		Analytics: analytics,
		Logger:    logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		stopSweep()
		if err := result.Close(); err != nil {
			logger.Error("Backend close error", "error", err)
		}
	})

	logger.Info("Starting fluxo server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		flog.FieldOperation, flog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
