// Package cli provides the initialization steps shared by cmd/fluxo,
// cmd/fluxo-worker and cmd/fluxo-seed.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fluxo/internal/config"
	flog "fluxo/internal/log"
	"fluxo/internal/storage"
)

// EnvFileVar names an extra dotenv file loaded after ./.env.
const EnvFileVar = "FLUXO_ENV_FILE"

// SetupLogger builds the logger from LOG_FORMAT and LOG_LEVEL and makes it the
// slog default.
func SetupLogger(cfg *config.Config, component string) *flog.Logger {
	logger := flog.New(flog.ConfigFor(os.Stdout, cfg.LogFormat, cfg.LogLevel, component))
	flog.SetDefault(logger)
	return logger
}

// LoadEnvFile reads ./.env and the file named by FLUXO_ENV_FILE, when present.
// Variables already set in the environment win; missing files are not an error.
func LoadEnvFile() {
	files := []string{".env"}
	if extra := os.Getenv(EnvFileVar); extra != "" {
		files = append(files, extra)
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			slog.Warn("Ignoring unreadable env file", "file", f, "error", err)
		}
	}
}

// LoadAndValidateConfig exits the process when the environment does not
// produce a valid config.
func LoadAndValidateConfig() *config.Config {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens and migrates the ledger database or exits.
func InitSQLite(logger *flog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Cannot open ledger database", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup then
// runs with a deadline of timeout; the returned channel closes when it is done.
func GracefulShutdown(logger *flog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutting down", flog.FieldOperation, flog.OpShutdown)

		deadline, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if cleanup != nil {
			cleanup(deadline)
		}

		if deadline.Err() != nil {
			logger.Warn("Cleanup did not finish before the deadline", "timeout", timeout)
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until a signal arrived and cleanup has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
