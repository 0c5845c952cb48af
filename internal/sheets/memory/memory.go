package memory

import (
	"context"
	"slices"
	"sync"

	"fluxo/internal/core"
	ports "fluxo/internal/sheets"
)

var _ ports.Mirror = (*Mirror)(nil)

// Mirror is an in-process stand-in for the spreadsheet, used when no
// spreadsheet is configured and in tests.
type Mirror struct {
	mu     sync.Mutex
	rows   []core.Entry
	report [][]string
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) UpsertEntry(_ context.Context, e core.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(e.ID); i >= 0 {
		m.rows[i] = e
		return nil
	}
	m.rows = append(m.rows, e)
	return nil
}

func (m *Mirror) DeleteEntry(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		m.rows = slices.Delete(m.rows, i, i+1)
	}
	return nil
}

func (m *Mirror) ListEntries(_ context.Context) ([]core.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows), nil
}

func (m *Mirror) WriteReport(_ context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report = make([][]string, len(rows))
	for i, r := range rows {
		m.report[i] = slices.Clone(r)
	}
	return nil
}

// Report returns the last report written.
func (m *Mirror) Report() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.report)
}

func (m *Mirror) indexOf(id int64) int {
	return slices.IndexFunc(m.rows, func(e core.Entry) bool { return e.ID == id })
}
