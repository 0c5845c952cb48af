package backend

import (
	"context"

	"fluxo/internal/ledger"
	"fluxo/internal/services"
	"fluxo/internal/storage"
)

// Opener builds a ledger backend from its config.
type Opener interface {
	Open(ctx context.Context, cfg Config) (*Result, error)
}

// Result bundles an opened ledger with its write path.
type Result struct {
	// Store reads from the backend and writes through Entries.
	Store   ledger.Store
	Entries *services.EntryService
	// Repository is nil unless the ledger lives in SQLite.
	Repository *storage.SQLiteRepository

	closers []func() error
}

// Close releases the backend in reverse order of acquisition and reports the first failure.
func (r *Result) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}
