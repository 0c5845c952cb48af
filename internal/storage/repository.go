package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fluxo/internal/core"
	"fluxo/internal/ledger"

	_ "modernc.org/sqlite"
)

// Sync states of an entry relative to the spreadsheet mirror.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

const entryColumns = "id, date, entity, description, category, kind, amount, notes, created_at, updated_at"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// PendingSync identifies an entry version that still has to reach the mirror.
type PendingSync struct {
	ID      int64
	Version int64
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an already migrated database handle.
func NewWithDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateEntry implements ledger.Writer
func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	n := e.Normalize()
	n.CreatedAt = r.now().UTC()
	n.UpdatedAt = n.CreatedAt

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (date, entity, description, category, kind, amount, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.Date, n.Entity, n.Description, n.Category, n.Kind, n.Amount, n.Notes,
		formatTimestamp(n.CreatedAt), formatTimestamp(n.UpdatedAt))
	if err != nil {
		return core.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	n.ID, err = res.LastInsertId()
	if err != nil {
		return core.Entry{}, fmt.Errorf("read entry id: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", n.ID,
		"entity", n.Entity,
		"kind", n.Kind,
		"amount", n.Amount,
		"date", n.Date)

	return n, nil
}

// UpdateEntry implements ledger.Writer. Each update bumps the version and marks
// the row pending for the mirror.
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, id int64, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	n := e.Normalize()
	n.ID = id
	n.UpdatedAt = r.now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE entries
		 SET date = ?, entity = ?, description = ?, category = ?, kind = ?, amount = ?, notes = ?,
		     updated_at = ?, version = version + 1, sync_status = ?
		 WHERE id = ?`,
		n.Date, n.Entity, n.Description, n.Category, n.Kind, n.Amount, n.Notes,
		formatTimestamp(n.UpdatedAt), SyncPending, id)
	if err != nil {
		return core.Entry{}, fmt.Errorf("update entry %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return core.Entry{}, err
	}
	return r.GetEntry(ctx, id)
}

// DeleteEntry implements ledger.Writer
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	return expectAffected(res)
}

// GetEntry implements ledger.Reader
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, nil
}

// ListEntries implements ledger.Reader. Entity and date bounds are pushed down to
// SQL; the kind filter runs on the normalized kind since stored kinds may carry
// stray casing or whitespace.
func (r *SQLiteRepository) ListEntries(ctx context.Context, f core.Filter) ([]core.Entry, error) {
	query, args := buildListQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if f.Kind != core.KindUnknown && e.NormalizedKind() != f.Kind {
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func buildListQuery(f core.Filter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if f.Entity != "" {
		conditions = append(conditions, "entity = ?")
		args = append(args, f.Entity)
	}
	if from := f.FromBound(); from != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, from)
	}
	if to := f.ToBound(); to != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, to)
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"
	return query, args
}

// Entities implements ledger.Reader
func (r *SQLiteRepository) Entities(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT TRIM(entity) AS name FROM entries WHERE TRIM(entity) <> '' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetPendingSync returns entries that still need to reach the spreadsheet mirror,
// including rows whose last attempt failed.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version FROM entries WHERE sync_status IN (?, ?) ORDER BY id LIMIT ?`,
		SyncPending, SyncError, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var p PendingSync
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending sync entry: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetVersion returns the current version of an entry.
func (r *SQLiteRepository) GetVersion(ctx context.Context, id int64) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM entries WHERE id = ?`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledger.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get entry version %d: %w", id, err)
	}
	return version, nil
}

// MarkSynced records a successful mirror write. A newer version written in the
// meantime keeps the row pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE entries SET sync_status = ? WHERE id = ? AND version = ?`, SyncSynced, id, version)
	if err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}

	slog.InfoContext(ctx, "Entry marked as synced", "id", id, "version", version)
	return nil
}

// MarkSyncError flags an entry whose mirror write failed so the retry sweep picks it up.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE entries SET sync_status = ? WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}

	slog.WarnContext(ctx, "Entry marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (core.Entry, error) {
	var (
		e                    core.Entry
		createdAt, updatedAt string
	)
	if err := s.Scan(&e.ID, &e.Date, &e.Entity, &e.Description, &e.Category,
		&e.Kind, &e.Amount, &e.Notes, &createdAt, &updatedAt); err != nil {
		return core.Entry{}, err
	}
	e.CreatedAt = parseTimestamp(createdAt)
	e.UpdatedAt = parseTimestamp(updatedAt)
	return e, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTimestamp tolerates legacy rows written without a zone.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
