package sheets

import (
	"context"

	"fluxo/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryMirror keeps a spreadsheet copy of the ledger, one row per entry keyed by id.
	EntryMirror interface {
		UpsertEntry(ctx context.Context, e core.Entry) error
		// DeleteEntry removes the row of id. A missing row is not an error.
		DeleteEntry(ctx context.Context, id int64) error
	}

	// EntrySource reads the mirrored entries back, skipping rows without a numeric id.
	EntrySource interface {
		ListEntries(ctx context.Context) ([]core.Entry, error)
	}

	// ReportWriter replaces the content of the summary tab.
	ReportWriter interface {
		WriteReport(ctx context.Context, rows [][]string) error
	}

	Mirror interface {
		EntryMirror
		EntrySource
		ReportWriter
	}
)
