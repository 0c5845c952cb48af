package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fluxo/internal/backend"
	"fluxo/internal/cli"
	"fluxo/internal/core"
	flog "fluxo/internal/log"
	"fluxo/internal/seed"
	gsheet "fluxo/internal/sheets/google"
)

func main() {
	fromSheet := flag.Bool("from-sheet", false, "import the entries tab of the configured spreadsheet instead of demo data")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, flog.ComponentSeed)
	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).Open(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err)
		os.Exit(1)
	}
	defer result.Close()

	var n int
	if *fromSheet {
		n, err = importSheet(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleEntriesSheet, cfg.GoogleSummarySheet,
			cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile, result.Store.CreateEntry)
	} else {
		n, err = seed.Populate(ctx, result.Store, time.Now())
	}
	if err != nil {
		logger.Error("Seeding failed", "error", err, flog.FieldOperation, flog.OpSeed)
		os.Exit(1)
	}
	if n == 0 {
		logger.Info("Ledger already has entries, nothing seeded", flog.FieldOperation, flog.OpSeed)
		return
	}
	logger.Info("Seed complete", flog.FieldCount, n, flog.FieldOperation, flog.OpSeed)
}

// importSheet copies every row of the entries tab into the ledger. Rows the
// ledger rejects are skipped and counted in the error.
func importSheet(ctx context.Context, spreadsheetID, entriesSheet, summarySheet, inlineJSON, file string,
	create func(context.Context, core.Entry) (core.Entry, error)) (int, error) {
	client, err := gsheet.Dial(ctx, gsheet.Settings{
		SpreadsheetID: spreadsheetID,
		EntriesSheet:  entriesSheet,
		SummarySheet:  summarySheet,
	}, inlineJSON, file)
	if err != nil {
		return 0, err
	}
	entries, err := client.ListEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("read entries tab: %w", err)
	}

	var imported, rejected int
	for _, e := range entries {
		e.ID = 0
		if _, err := create(ctx, e); err != nil {
			rejected++
			continue
		}
		imported++
	}
	if rejected > 0 {
		return imported, fmt.Errorf("%d of %d rows rejected", rejected, len(entries))
	}
	return imported, nil
}
