package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/time/rate"

	"fluxo/internal/amqp"
	"fluxo/internal/cli"
	flog "fluxo/internal/log"
	"fluxo/internal/services"
	gsheet "fluxo/internal/sheets/google"
	"fluxo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, flog.ComponentWorker)

	logger.Info("Starting fluxo-worker", flog.FieldOperation, flog.OpStartup)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, nothing to mirror")
		ctx, done := cli.GracefulShutdown(logger, 5*time.Second, nil)
		cli.WaitForShutdown(ctx, done)
		return
	}

	sheetsClient, err := gsheet.Dial(context.Background(), gsheet.Settings{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		EntriesSheet:  cfg.GoogleEntriesSheet,
		SummarySheet:  cfg.GoogleSummarySheet,
	}, cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// One limiter for every Sheets call, mirror and report alike.
	limiter := rate.NewLimiter(rate.Limit(cfg.SheetsRequestsPerSecond), 1)

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, limiter, cfg.SyncBatchSize)
	analytics := services.NewAnalyticsService(repo)
	reporter := worker.NewReporter(analytics, sheetsClient, limiter, cfg.DefaultTrendMonths)
	processor := worker.NewProcessor(syncWorker, reporter, worker.ProcessorConfig{
		PollInterval:   cfg.SyncInterval,
		ReportInterval: cfg.SummaryInterval,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Processor stop error", "error", err)
		}
	})

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start processor", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := amqpClient.ConsumeEntryEvents(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
