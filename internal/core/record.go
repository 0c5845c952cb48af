package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EntryColumns is the column order used by CSV exports and the spreadsheet mirror.
var EntryColumns = []string{
	"id", "data", "empresa", "descricao", "categoria", "tipo", "valor", "observacoes", "created_at", "updated_at",
}

// Record renders e in EntryColumns order. Stored text is written as is.
func (e Entry) Record() []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Date,
		e.Entity,
		e.Description,
		e.Category,
		e.Kind,
		e.Amount,
		e.Notes,
		formatStamp(e.CreatedAt),
		formatStamp(e.UpdatedAt),
	}
}

// EntryFromRecord is the inverse of Record. Short rows are padded; only the id must parse.
func EntryFromRecord(rec []string) (Entry, error) {
	if len(rec) == 0 {
		return Entry{}, fmt.Errorf("empty record")
	}
	cols := make([]string, len(EntryColumns))
	for i := range cols {
		if i < len(rec) {
			cols[i] = strings.TrimSpace(rec[i])
		}
	}
	id, err := strconv.ParseInt(cols[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parse id %q: %w", cols[0], err)
	}
	return Entry{
		ID:          id,
		Date:        cols[1],
		Entity:      cols[2],
		Description: cols[3],
		Category:    cols[4],
		Kind:        cols[5],
		Amount:      cols[6],
		Notes:       cols[7],
		CreatedAt:   parseStamp(cols[8]),
		UpdatedAt:   parseStamp(cols[9]),
	}, nil
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
