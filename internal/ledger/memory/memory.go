package memory

import (
	"context"
	"sync"
	"time"

	"fluxo/internal/core"
	"fluxo/internal/ledger"
)

// Store keeps entries in process memory. It is safe for concurrent use and every
// read returns a copy, so callers always work on a consistent snapshot.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Entry
	now    func() time.Time
}

func New() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// NewWithEntries preloads entries as stored, without validation. Useful for
// replaying historical data that may hold malformed rows.
func NewWithEntries(entries []core.Entry) *Store {
	s := New()
	for _, e := range entries {
		if e.ID == 0 {
			e.ID = s.nextID
		}
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
		s.items = append(s.items, e)
	}
	return s
}

// CreateEntry validates, normalizes and stores e, assigning an id.
func (s *Store) CreateEntry(_ context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := e.Normalize()
	n.ID = s.nextID
	n.CreatedAt = s.now()
	n.UpdatedAt = n.CreatedAt
	s.nextID++
	s.items = append(s.items, n)
	return n, nil
}

func (s *Store) UpdateEntry(_ context.Context, id int64, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Entry{}, ledger.ErrNotFound
	}
	n := e.Normalize()
	n.ID = id
	n.CreatedAt = s.items[i].CreatedAt
	n.UpdatedAt = s.now()
	s.items[i] = n
	return n, nil
}

func (s *Store) DeleteEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ledger.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) GetEntry(_ context.Context, id int64) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Entry{}, ledger.ErrNotFound
	}
	return s.items[i], nil
}

// ListEntries returns a copy of the entries matching f, newest first.
func (s *Store) ListEntries(_ context.Context, f core.Filter) ([]core.Entry, error) {
	s.mu.Lock()
	out := make([]core.Entry, 0, len(s.items))
	for _, e := range s.items {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()
	ledger.SortNewestFirst(out)
	return out, nil
}

func (s *Store) Entities(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.EntityNames(s.items), nil
}

func (s *Store) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
