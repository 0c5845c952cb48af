// Package adapters joins a backend's read side with the write service so the
// HTTP layer sees a single ledger.Store.
package adapters

import (
	"context"

	"fluxo/internal/core"
	"fluxo/internal/ledger"
	"fluxo/internal/services"
)

var _ ledger.Store = (*LedgerAdapter)(nil)

// LedgerAdapter reads straight from the backend and routes writes through
// EntryService, so every backend gets change events and cache invalidation.
type LedgerAdapter struct {
	reader  ledger.Reader
	service *services.EntryService
}

func NewLedgerAdapter(reader ledger.Reader, service *services.EntryService) *LedgerAdapter {
	return &LedgerAdapter{reader: reader, service: service}
}

func (a *LedgerAdapter) ListEntries(ctx context.Context, f core.Filter) ([]core.Entry, error) {
	return a.reader.ListEntries(ctx, f)
}

func (a *LedgerAdapter) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	return a.reader.GetEntry(ctx, id)
}

func (a *LedgerAdapter) Entities(ctx context.Context) ([]string, error) {
	return a.reader.Entities(ctx)
}

func (a *LedgerAdapter) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	return a.service.CreateEntry(ctx, e)
}

func (a *LedgerAdapter) UpdateEntry(ctx context.Context, id int64, e core.Entry) (core.Entry, error) {
	return a.service.UpdateEntry(ctx, id, e)
}

func (a *LedgerAdapter) DeleteEntry(ctx context.Context, id int64) error {
	return a.service.DeleteEntry(ctx, id)
}

// Ping reports the health of the underlying backend when it has one.
func (a *LedgerAdapter) Ping(ctx context.Context) error {
	if p, ok := a.reader.(ledger.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
