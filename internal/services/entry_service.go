package services

import (
	"context"
	"fmt"
	"log/slog"

	"fluxo/internal/core"
	"fluxo/internal/ledger"
	flog "fluxo/internal/log"
)

// EventPublisher announces ledger changes to the sync worker.
type EventPublisher interface {
	PublishEntryUpsert(ctx context.Context, id, version int64) error
	PublishEntryDelete(ctx context.Context, id int64) error
}

// Versioner is implemented by stores that track a per-row version.
type Versioner interface {
	GetVersion(ctx context.Context, id int64) (int64, error)
}

// WriteListener is told about every successful write.
type WriteListener func()

// EntryService orchestrates ledger writes and change events.
type EntryService struct {
	store     ledger.Store
	publisher EventPublisher
	listeners []WriteListener
}

// NewEntryService wraps store. A nil publisher disables change events.
func NewEntryService(store ledger.Store, publisher EventPublisher) *EntryService {
	return &EntryService{store: store, publisher: publisher}
}

// OnWrite registers fn to run after each successful create, update or delete.
func (s *EntryService) OnWrite(fn WriteListener) {
	s.listeners = append(s.listeners, fn)
}

// CreateEntry validates and stores e, then publishes an upsert event.
func (s *EntryService) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	s.afterUpsert(ctx, flog.OpCreate, created)
	return created, nil
}

// UpdateEntry replaces the entry with the given id.
func (s *EntryService) UpdateEntry(ctx context.Context, id int64, e core.Entry) (core.Entry, error) {
	updated, err := s.store.UpdateEntry(ctx, id, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("update entry %d: %w", id, err)
	}
	s.afterUpsert(ctx, flog.OpUpdate, updated)
	return updated, nil
}

// DeleteEntry removes an entry and publishes a delete event.
func (s *EntryService) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	s.notify()
	flog.NewStructuredLogger(flog.FromContext(ctx)).LogEntryChanged(ctx, flog.OpDelete, core.Entry{ID: id})

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishEntryDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete event", "entry_id", id, "error", err)
	}
	return nil
}

func (s *EntryService) afterUpsert(ctx context.Context, op string, e core.Entry) {
	s.notify()
	flog.NewStructuredLogger(flog.FromContext(ctx)).LogEntryChanged(ctx, op, e)

	if s.publisher == nil {
		return
	}
	version := int64(1)
	if v, ok := s.store.(Versioner); ok {
		got, err := v.GetVersion(ctx, e.ID)
		if err != nil {
			slog.WarnContext(ctx, "Failed to read entry version", "entry_id", e.ID, "error", err)
		} else {
			version = got
		}
	}
	// Don't fail the request: the row stays pending and the worker retries it.
	if err := s.publisher.PublishEntryUpsert(ctx, e.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish upsert event",
			"entry_id", e.ID, "version", version, "error", err)
	}
}

func (s *EntryService) notify() {
	for _, fn := range s.listeners {
		fn()
	}
}

// Close releases the publisher when it holds a connection.
func (s *EntryService) Close() error {
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
