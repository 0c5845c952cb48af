package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	"fluxo/internal/ledger"
	"fluxo/internal/obs"
	"fluxo/internal/sheets"
	"fluxo/internal/storage"
)

// SyncStore is the part of the SQLite repository the worker needs.
type SyncStore interface {
	GetEntry(ctx context.Context, id int64) (core.Entry, error)
	GetVersion(ctx context.Context, id int64) (int64, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	MarkSynced(ctx context.Context, id, version int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker mirrors ledger changes into the spreadsheet.
type SyncWorker struct {
	store     SyncStore
	mirror    sheets.EntryMirror
	limiter   *rate.Limiter
	batchSize int
}

// NewSyncWorker builds a worker. A nil limiter means no throttling.
func NewSyncWorker(store SyncStore, mirror sheets.EntryMirror, limiter *rate.Limiter, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		mirror:    mirror,
		limiter:   limiter,
		batchSize: batchSize,
	}
}

// HandleEvent processes one entry event from AMQP.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.EntryEvent) error {
	slog.InfoContext(ctx, "Processing entry event",
		"message_id", ev.MessageID,
		"action", ev.Action,
		"entry_id", ev.ID,
		"version", ev.Version)

	switch ev.Action {
	case amqp.ActionUpsert:
		return w.syncEntry(ctx, ev.ID, ev.Version)
	case amqp.ActionDelete:
		return w.deleteEntry(ctx, ev.ID)
	default:
		return fmt.Errorf("unknown action %q", ev.Action)
	}
}

// ProcessPending retries entries still pending or in error. It is the
// backstop for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck drains a larger batch of pending entries at startup.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced, "errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.GetPendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending entries: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if err := w.syncEntry(ctx, p.ID, p.Version); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry", "entry_id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// syncEntry pushes the current row of id. version is the version the caller
// saw; 0 means "whatever is stored now".
func (w *SyncWorker) syncEntry(ctx context.Context, id, version int64) error {
	e, err := w.store.GetEntry(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		slog.InfoContext(ctx, "Entry deleted before sync, skipping", "entry_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry %d: %w", id, err)
	}
	if version == 0 {
		if version, err = w.store.GetVersion(ctx, id); err != nil {
			return fmt.Errorf("get version of entry %d: %w", id, err)
		}
	}

	if err := w.wait(ctx); err != nil {
		return err
	}
	err = w.mirror.UpsertEntry(ctx, e)
	obs.ObserveSheetsCall("upsert", err)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "entry_id", id, "error", markErr)
		}
		return fmt.Errorf("mirror entry %d: %w", id, err)
	}

	// A newer version written meanwhile stays pending; MarkSynced only matches this version.
	if err := w.store.MarkSynced(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "entry_id", id, "error", err)
	}
	slog.InfoContext(ctx, "Synced entry", "entry_id", id, "version", version)
	return nil
}

func (w *SyncWorker) deleteEntry(ctx context.Context, id int64) error {
	if err := w.wait(ctx); err != nil {
		return err
	}
	err := w.mirror.DeleteEntry(ctx, id)
	obs.ObserveSheetsCall("delete", err)
	if err != nil {
		return fmt.Errorf("delete mirrored entry %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Deleted mirrored entry", "entry_id", id)
	return nil
}

func (w *SyncWorker) wait(ctx context.Context) error {
	if w.limiter == nil {
		return nil
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sheets rate limit: %w", err)
	}
	return nil
}
