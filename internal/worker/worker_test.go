package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	"fluxo/internal/ledger"
	ledgermem "fluxo/internal/ledger/memory"
	"fluxo/internal/services"
	"fluxo/internal/sheets/memory"
	"fluxo/internal/storage"
)

type fakeStore struct {
	mu       sync.Mutex
	entries  map[int64]core.Entry
	versions map[int64]int64
	synced   map[int64]int64
	errored  map[int64]bool
}

func newFakeStore(entries ...core.Entry) *fakeStore {
	s := &fakeStore{
		entries:  map[int64]core.Entry{},
		versions: map[int64]int64{},
		synced:   map[int64]int64{},
		errored:  map[int64]bool{},
	}
	for _, e := range entries {
		s.entries[e.ID] = e
		s.versions[e.ID] = 1
	}
	return s
}

func (s *fakeStore) GetEntry(_ context.Context, id int64) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return core.Entry{}, ledger.ErrNotFound
	}
	return e, nil
}

func (s *fakeStore) GetVersion(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[id], nil
}

func (s *fakeStore) GetPendingSync(_ context.Context, limit int) ([]storage.PendingSync, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.PendingSync
	for id, v := range s.versions {
		if s.synced[id] != v {
			out = append(out, storage.PendingSync{ID: id, Version: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) MarkSynced(_ context.Context, id, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions[id] == version {
		s.synced[id] = version
		delete(s.errored, id)
	}
	return nil
}

func (s *fakeStore) MarkSyncError(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errored[id] = true
	return nil
}

func (s *fakeStore) isSynced(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced[id] == s.versions[id]
}

type failingMirror struct{}

func (failingMirror) UpsertEntry(context.Context, core.Entry) error {
	return errors.New("quota exceeded")
}
func (failingMirror) DeleteEntry(context.Context, int64) error { return errors.New("quota exceeded") }

func entry(id int64) core.Entry {
	return core.Entry{ID: id, Date: "2024-01-05", Entity: "Acme", Kind: "Entrada", Amount: "10.00"}
}

func TestHandleEventUpsertAndDelete(t *testing.T) {
	store := newFakeStore(entry(1))
	mirror := memory.New()
	w := NewSyncWorker(store, mirror, rate.NewLimiter(rate.Inf, 1), 10)
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, amqp.NewUpsertEvent(1, 1)))
	rows, _ := mirror.ListEntries(ctx)
	require.Len(t, rows, 1)
	require.True(t, store.isSynced(1))

	require.NoError(t, w.HandleEvent(ctx, amqp.NewDeleteEvent(1)))
	rows, _ = mirror.ListEntries(ctx)
	require.Empty(t, rows)
}

func TestHandleEventSkipsDeletedEntry(t *testing.T) {
	w := NewSyncWorker(newFakeStore(), memory.New(), nil, 10)
	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewUpsertEvent(42, 1)))
}

func TestStaleVersionStaysPending(t *testing.T) {
	store := newFakeStore(entry(1))
	store.versions[1] = 2
	w := NewSyncWorker(store, memory.New(), nil, 10)

	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewUpsertEvent(1, 1)))
	require.False(t, store.isSynced(1))

	require.NoError(t, w.ProcessPending(context.Background()))
	require.True(t, store.isSynced(1))
}

func TestMirrorFailureMarksError(t *testing.T) {
	store := newFakeStore(entry(1), entry(2))
	w := NewSyncWorker(store, failingMirror{}, nil, 10)

	err := w.HandleEvent(context.Background(), amqp.NewUpsertEvent(1, 1))
	require.ErrorContains(t, err, "quota exceeded")
	require.True(t, store.errored[1])

	require.NoError(t, w.StartupSyncCheck(context.Background()))
	require.True(t, store.errored[2])

	err = w.HandleEvent(context.Background(), amqp.NewDeleteEvent(1))
	require.Error(t, err)
}

func newReporter(t *testing.T) (*Reporter, *memory.Mirror) {
	t.Helper()
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	store := ledgermem.NewWithEntries([]core.Entry{
		{Date: "2024-01-10", Entity: "Acme", Kind: "Entrada", Amount: "1000"},
		{Date: "2024-02-10", Entity: "Acme", Kind: "Entrada", Amount: "1200"},
		{Date: "2024-02-12", Entity: "Acme", Kind: "Saída", Amount: "300"},
	})
	svc := services.NewAnalyticsService(store, services.WithClock(func() time.Time { return now }))
	mirror := memory.New()
	return NewReporter(svc, mirror, nil, 6), mirror
}

func TestReporterPublish(t *testing.T) {
	r, mirror := newReporter(t)

	require.NoError(t, r.Publish(context.Background()))
	report := mirror.Report()
	require.Equal(t, []string{"Relatório", "Todas", "2024"}, report[0])
	require.Contains(t, report, []string{"Total de Entradas", "R$ 2.200,00"})
	require.NotEqual(t, -1, findRow(report, "Entradas Projetadas"))
}

func findRow(rows [][]string, label string) int {
	for i, r := range rows {
		if len(r) > 0 && r[0] == label {
			return i
		}
	}
	return -1
}

func TestProcessorRetriesPending(t *testing.T) {
	store := newFakeStore(entry(1), entry(2))
	mirror := memory.New()
	r, _ := newReporter(t)
	p := NewProcessor(NewSyncWorker(store, mirror, nil, 10), r, ProcessorConfig{
		PollInterval:   5 * time.Millisecond,
		ReportInterval: time.Hour,
	})
	ctx := context.Background()

	require.False(t, p.IsRunning())
	require.NoError(t, p.Start(ctx))
	require.Error(t, p.Start(ctx))

	require.Eventually(t, func() bool {
		return store.isSynced(1) && store.isSynced(2)
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))
	require.False(t, p.IsRunning())
	require.NoError(t, p.Stop(stopCtx))
}
