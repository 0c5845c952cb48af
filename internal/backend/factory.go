package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fluxo/internal/adapters"
	"fluxo/internal/amqp"
	"fluxo/internal/ledger/memory"
	"fluxo/internal/services"
	"fluxo/internal/storage"
)

// Factory opens memory or SQLite ledgers.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

var _ Opener = (*Factory)(nil)

// Open validates cfg and builds the matching backend.
func (f *Factory) Open(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}

	switch cfg.Kind {
	case KindSQLite:
		return f.openSQLite(ctx, cfg)
	default:
		return f.openMemory(ctx), nil
	}
}

func (f *Factory) openSQLite(ctx context.Context, cfg Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	res := &Result{Repository: repo, closers: []func() error{repo.Close}}

	// Without a broker rows stay pending until the worker's retry sweep picks them up.
	publisher := f.dialEvents(ctx, cfg.Events)

	res.Entries = services.NewEntryService(repo, publisher)
	res.closers = append(res.closers, res.Entries.Close)
	res.Store = adapters.NewLedgerAdapter(repo, res.Entries)

	f.logger.InfoContext(ctx, "Opened SQLite ledger",
		"db_path", cfg.DBPath,
		"events", publisher != nil)
	return res, nil
}

// dialEvents returns nil when events are disabled or the broker is unreachable.
func (f *Factory) dialEvents(ctx context.Context, ev Events) services.EventPublisher {
	if !ev.Enabled() {
		return nil
	}
	client, err := amqp.NewClient(ev.URL, ev.Exchange, ev.Queue)
	if err != nil {
		f.logger.WarnContext(ctx, "AMQP unavailable, entry events disabled", "error", err)
		return nil
	}
	f.logger.InfoContext(ctx, "Publishing entry events", "exchange", ev.Exchange, "queue", ev.Queue)
	return client
}

func (f *Factory) openMemory(ctx context.Context) *Result {
	store := memory.New()
	entries := services.NewEntryService(store, nil)
	f.logger.InfoContext(ctx, "Opened in-memory ledger")
	return &Result{
		Store:   adapters.NewLedgerAdapter(store, entries),
		Entries: entries,
	}
}
