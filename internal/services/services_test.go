package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fluxo/internal/analytics"
	"fluxo/internal/core"
	"fluxo/internal/ledger"
	"fluxo/internal/ledger/memory"
)

var fixedNow = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func sampleEntries() []core.Entry {
	return []core.Entry{
		{Date: "2023-06-01", Entity: "Acme", Category: "Vendas", Kind: "Entrada", Amount: "300"},
		{Date: "2024-01-10", Entity: "Acme", Category: "Vendas", Kind: "Entrada", Amount: "1000"},
		{Date: "2024-01-15", Entity: "Acme", Category: "Salários", Kind: "Saída", Amount: "400"},
		{Date: "2024-02-10", Entity: "Acme", Category: "Vendas", Kind: "Entrada", Amount: "1200"},
		{Date: "2024-02-20", Entity: "Acme", Category: "Salários", Kind: "Saída", Amount: "500"},
		{Date: "2024-03-05", Entity: "Acme", Category: "Vendas", Kind: "Entrada", Amount: "1500"},
		{Date: "2024-03-10", Entity: "Beta", Category: "Impostos", Kind: "Saída", Amount: "200"},
	}
}

func newAnalytics(t *testing.T, opts ...Option) *AnalyticsService {
	t.Helper()
	store := memory.NewWithEntries(sampleEntries())
	return NewAnalyticsService(store, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestDashboardForEntity(t *testing.T) {
	svc := newAnalytics(t)

	d, err := svc.Dashboard(context.Background(), DashboardQuery{Entity: "Acme", Year: 2024, TrendMonths: 3})
	require.NoError(t, err)

	require.True(t, decimal.NewFromInt(3700).Equal(d.KPIs.Inflow))
	require.True(t, decimal.NewFromInt(900).Equal(d.KPIs.Outflow))
	require.True(t, decimal.NewFromInt(2800).Equal(d.KPIs.Balance))
	require.Equal(t, 5, d.KPIs.EntryCount)
	require.InDelta(t, 22.5, d.Trend.InflowPct, 1e-9)
	require.Len(t, d.Monthly, 3)
	require.True(t, decimal.NewFromInt(2800).Equal(d.Monthly[2].CumulativeBalance))
	require.Len(t, d.Categories, 2)
	require.Nil(t, d.TopEntities)
}

func TestDashboardAllEntitiesRanksTopEntities(t *testing.T) {
	svc := newAnalytics(t)

	d, err := svc.Dashboard(context.Background(), DashboardQuery{TrendMonths: 6})
	require.NoError(t, err)
	require.Equal(t, 2024, d.Year)
	require.Len(t, d.TopEntities, 2)
	require.Equal(t, "Acme", d.TopEntities[0].Name)
	require.True(t, decimal.NewFromInt(4600).Equal(d.TopEntities[0].Total))
}

func TestDashboardRejectsUnknownTrendWindow(t *testing.T) {
	svc := newAnalytics(t)

	_, err := svc.Dashboard(context.Background(), DashboardQuery{Year: 2024, TrendMonths: 5})
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCompareYears(t *testing.T) {
	svc := newAnalytics(t)

	c, err := svc.Compare(context.Background(), CompareQuery{
		A: Selection{Year: 2023, Entity: "Acme"},
		B: Selection{Year: 2024, Entity: "Acme"},
	})
	require.NoError(t, err)

	require.InDelta(t, (3700.0-300.0)/300.0*100, c.Variation.InflowPct, 1e-9)
	require.Equal(t, 100.0, c.Variation.OutflowPct)
	require.Len(t, c.A.Profile, 12)
	require.True(t, decimal.NewFromInt(300).Equal(c.A.Profile[5].Inflow))
	require.Len(t, c.CommonCategories, 1)
	require.Equal(t, "Vendas", c.CommonCategories[0].Category)
}

func TestForecast(t *testing.T) {
	svc := newAnalytics(t)

	f, err := svc.Forecast(context.Background(), ForecastQuery{Entity: "Acme", HistoryMonths: 6, HorizonMonths: 3})
	require.NoError(t, err)
	require.Len(t, f.Projection.History, 3)
	require.Len(t, f.Projection.Points, 3)
	require.Equal(t, "2024-04", f.Projection.Points[0].Month.String())
	require.InDelta(t, 250, f.Projection.InflowLine.Slope, 1e-9)
	require.Equal(t, analytics.DirectionGrowing, f.Summary.InflowDirection)
}

func TestForecastErrors(t *testing.T) {
	svc := newAnalytics(t)
	ctx := context.Background()

	_, err := svc.Forecast(ctx, ForecastQuery{Entity: "Nobody", HistoryMonths: 6, HorizonMonths: 3})
	require.ErrorIs(t, err, analytics.ErrInsufficientData)

	_, err = svc.Forecast(ctx, ForecastQuery{HistoryMonths: 7, HorizonMonths: 3})
	require.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.Forecast(ctx, ForecastQuery{HistoryMonths: 6, HorizonMonths: 24})
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestOverview(t *testing.T) {
	svc := newAnalytics(t)

	o, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, o.TotalEntries)
	require.Equal(t, 2, o.ActiveEntities)
	require.Equal(t, "2023-06-01", o.FirstDate)
	require.Equal(t, "2024-03-10", o.LastDate)
}

type countingReader struct {
	ledger.Reader
	entityCalls int
}

func (r *countingReader) Entities(ctx context.Context) ([]string, error) {
	r.entityCalls++
	return r.Reader.Entities(ctx)
}

func TestEntitiesCachedUntilInvalidated(t *testing.T) {
	store := memory.New()
	reader := &countingReader{Reader: store}
	svc := NewAnalyticsService(reader, WithEntityCache(time.Minute))
	entries := NewEntryService(store, nil)
	entries.OnWrite(svc.InvalidateEntities)
	ctx := context.Background()

	names, err := svc.Entities(ctx)
	require.NoError(t, err)
	require.Equal(t, ledger.DefaultEntities, names)

	_, err = svc.Entities(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, reader.entityCalls)

	_, err = entries.CreateEntry(ctx, core.Entry{Date: "2024-01-01", Entity: "Acme", Kind: "entrada", Amount: "1"})
	require.NoError(t, err)

	names, err = svc.Entities(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Acme"}, names)
	require.Equal(t, 2, reader.entityCalls)
}

type fakePublisher struct {
	upserts map[int64]int64
	deletes []int64
	err     error
}

func (p *fakePublisher) PublishEntryUpsert(_ context.Context, id, version int64) error {
	if p.upserts == nil {
		p.upserts = make(map[int64]int64)
	}
	p.upserts[id] = version
	return p.err
}

func (p *fakePublisher) PublishEntryDelete(_ context.Context, id int64) error {
	p.deletes = append(p.deletes, id)
	return p.err
}

type versionedStore struct {
	*memory.Store
}

func (versionedStore) GetVersion(context.Context, int64) (int64, error) { return 7, nil }

func TestEntryServicePublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewEntryService(versionedStore{memory.New()}, pub)
	ctx := context.Background()

	created, err := svc.CreateEntry(ctx, core.Entry{Date: "2024-01-01", Entity: "Acme", Kind: "Saída", Amount: "10,50"})
	require.NoError(t, err)
	require.Equal(t, "10.50", created.Amount)
	require.Equal(t, int64(7), pub.upserts[created.ID])

	require.NoError(t, svc.DeleteEntry(ctx, created.ID))
	require.Equal(t, []int64{created.ID}, pub.deletes)

	err = svc.DeleteEntry(ctx, created.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestEntryServicePublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewEntryService(memory.New(), pub)

	created, err := svc.CreateEntry(context.Background(), core.Entry{Date: "2024-01-01", Entity: "Acme", Kind: "in", Amount: "1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), pub.upserts[created.ID])
}

func TestEntryServiceRejectsInvalidEntry(t *testing.T) {
	svc := NewEntryService(memory.New(), nil)

	_, err := svc.CreateEntry(context.Background(), core.Entry{Date: "2024-01-01", Entity: "Acme", Kind: "gift", Amount: "1"})
	require.ErrorIs(t, err, core.ErrUnknownKind)
	require.NoError(t, svc.Close())
}
