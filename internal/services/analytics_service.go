package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"fluxo/internal/analytics"
	"fluxo/internal/cache"
	"fluxo/internal/core"
	"fluxo/internal/ledger"
	flog "fluxo/internal/log"
	"fluxo/internal/obs"
)

// ErrInvalidQuery is returned for out-of-range query parameters.
var ErrInvalidQuery = errors.New("invalid query")

const (
	topEntitiesLimit   = 10
	topCategoriesLimit = 10
	entitiesCacheKey   = "entities"
)

var (
	TrendWindows   = []int{3, 6, 12}
	HistoryWindows = []int{6, 12, 24}
	HorizonWindows = []int{3, 6, 12}
)

type (
	DashboardQuery struct {
		Entity      string
		Year        int
		TrendMonths int
	}

	// Dashboard is everything shown for one entity (or all) and year.
	Dashboard struct {
		Entity      string                     `json:"entity"`
		Year        int                        `json:"year"`
		TrendMonths int                        `json:"trend_months"`
		KPIs        analytics.KPISnapshot      `json:"kpis"`
		Trend       analytics.TrendResult      `json:"trend"`
		Monthly     []analytics.MonthDetail    `json:"monthly"`
		Categories  []analytics.CategoryTotals `json:"categories"`
		TopEntities []analytics.NamedTotal     `json:"top_entities,omitempty"`
	}

	// Selection picks one side of a comparison. An empty entity means all.
	Selection struct {
		Year   int    `json:"year"`
		Entity string `json:"entity"`
	}

	CompareQuery struct {
		A, B Selection
	}

	SideResult struct {
		Selection
		KPIs    analytics.KPISnapshot         `json:"kpis"`
		Profile []analytics.MonthOfYearTotals `json:"profile"`
	}

	Comparison struct {
		A                SideResult               `json:"a"`
		B                SideResult               `json:"b"`
		Variation        analytics.Variation      `json:"variation"`
		CommonCategories []analytics.CategoryPair `json:"common_categories"`
	}

	ForecastQuery struct {
		Entity        string
		HistoryMonths int
		HorizonMonths int
	}

	Forecast struct {
		Entity        string                    `json:"entity"`
		HistoryMonths int                       `json:"history_months"`
		HorizonMonths int                       `json:"horizon_months"`
		Projection    analytics.Projection      `json:"projection"`
		Summary       analytics.ForecastSummary `json:"summary"`
	}
)

// AnalyticsService loads entries from a ledger reader and runs the engine on them.
// Every call reads fresh entries; only the entity list is cached.
type AnalyticsService struct {
	reader   ledger.Reader
	now      func() time.Time
	entities *cache.LRU[string, []string]
}

type Option func(*AnalyticsService)

// WithClock overrides the time source used for trend and forecast windows.
func WithClock(now func() time.Time) Option {
	return func(s *AnalyticsService) { s.now = now }
}

// WithEntityCache caches the entity list for ttl.
func WithEntityCache(ttl time.Duration) Option {
	return func(s *AnalyticsService) {
		if ttl > 0 {
			s.entities = cache.NewLRU[string, []string](1, ttl)
		}
	}
}

func NewAnalyticsService(reader ledger.Reader, opts ...Option) *AnalyticsService {
	s := &AnalyticsService{reader: reader, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EntityCache exposes the entity cache for registration with a sweeper; nil when disabled.
func (s *AnalyticsService) EntityCache() *cache.LRU[string, []string] {
	return s.entities
}

// Dashboard computes KPIs, trend, monthly detail and breakdowns.
func (s *AnalyticsService) Dashboard(ctx context.Context, q DashboardQuery) (_ Dashboard, err error) {
	defer observe(flog.OpDashboard, time.Now(), &err)

	now := s.now()
	if q.Year == 0 {
		q.Year = now.Year()
	}
	if !slices.Contains(TrendWindows, q.TrendMonths) {
		return Dashboard{}, fmt.Errorf("%w: trend window must be one of %v", ErrInvalidQuery, TrendWindows)
	}

	var yearEntries, trendEntries []core.Entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		yearEntries, err = s.reader.ListEntries(gctx, core.YearFilter(q.Entity, q.Year))
		return err
	})
	g.Go(func() error {
		var err error
		trendEntries, err = s.reader.ListEntries(gctx, core.Filter{
			Entity: q.Entity,
			From:   analytics.WindowStart(now, q.TrendMonths),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard entries: %w", err)
	}

	d := Dashboard{
		Entity:      q.Entity,
		Year:        q.Year,
		TrendMonths: q.TrendMonths,
		KPIs:        analytics.ComputeKPIs(yearEntries),
		Trend:       analytics.ComputeTrend(trendEntries, q.TrendMonths, now),
		Monthly:     analytics.MonthlyDetail(yearEntries),
		Categories:  analytics.ByCategory(yearEntries),
	}
	if q.Entity == "" {
		d.TopEntities = analytics.TopEntities(yearEntries, topEntitiesLimit)
	}
	return d, nil
}

// Compare loads both selections concurrently and compares them.
func (s *AnalyticsService) Compare(ctx context.Context, q CompareQuery) (_ Comparison, err error) {
	defer observe(flog.OpCompare, time.Now(), &err)

	year := s.now().Year()
	if q.A.Year == 0 {
		q.A.Year = year
	}
	if q.B.Year == 0 {
		q.B.Year = year
	}

	var a, b []core.Entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = s.reader.ListEntries(gctx, core.YearFilter(q.A.Entity, q.A.Year))
		return err
	})
	g.Go(func() error {
		var err error
		b, err = s.reader.ListEntries(gctx, core.YearFilter(q.B.Entity, q.B.Year))
		return err
	})
	if err := g.Wait(); err != nil {
		return Comparison{}, fmt.Errorf("load comparison entries: %w", err)
	}

	ka, kb := analytics.ComputeKPIs(a), analytics.ComputeKPIs(b)
	return Comparison{
		A:                SideResult{Selection: q.A, KPIs: ka, Profile: analytics.YearProfile(a)},
		B:                SideResult{Selection: q.B, KPIs: kb, Profile: analytics.YearProfile(b)},
		Variation:        analytics.Compare(ka, kb),
		CommonCategories: analytics.CommonTopCategories(a, b, topCategoriesLimit),
	}, nil
}

// Forecast projects the trailing history forward. It returns
// analytics.ErrInsufficientData when the window holds no entries.
func (s *AnalyticsService) Forecast(ctx context.Context, q ForecastQuery) (_ Forecast, err error) {
	defer observe(flog.OpForecast, time.Now(), &err)

	if !slices.Contains(HistoryWindows, q.HistoryMonths) {
		return Forecast{}, fmt.Errorf("%w: history must be one of %v", ErrInvalidQuery, HistoryWindows)
	}
	if !slices.Contains(HorizonWindows, q.HorizonMonths) {
		return Forecast{}, fmt.Errorf("%w: horizon must be one of %v", ErrInvalidQuery, HorizonWindows)
	}

	now := s.now()
	entries, err := s.reader.ListEntries(ctx, core.Filter{
		Entity: q.Entity,
		From:   analytics.WindowStart(now, q.HistoryMonths),
	})
	if err != nil {
		return Forecast{}, fmt.Errorf("load forecast entries: %w", err)
	}

	p, err := analytics.Project(entries, q.HistoryMonths, q.HorizonMonths, now)
	if err != nil {
		return Forecast{}, err
	}
	return Forecast{
		Entity:        q.Entity,
		HistoryMonths: q.HistoryMonths,
		HorizonMonths: q.HorizonMonths,
		Projection:    p,
		Summary:       analytics.Summarize(p),
	}, nil
}

// Overview summarizes the whole ledger.
func (s *AnalyticsService) Overview(ctx context.Context) (analytics.Overview, error) {
	entries, err := s.reader.ListEntries(ctx, core.Filter{})
	if err != nil {
		return analytics.Overview{}, fmt.Errorf("load entries: %w", err)
	}
	return analytics.Summary(entries), nil
}

// Entities lists entity names, falling back to the default list on an empty ledger.
func (s *AnalyticsService) Entities(ctx context.Context) ([]string, error) {
	if s.entities != nil {
		if names, ok := s.entities.Get(entitiesCacheKey); ok {
			return slices.Clone(names), nil
		}
	}
	names, err := s.reader.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	names = ledger.EntitiesOrDefault(names)
	if s.entities != nil {
		s.entities.Set(entitiesCacheKey, slices.Clone(names))
	}
	return names, nil
}

// InvalidateEntities drops the cached entity list. Wire it to EntryService.OnWrite.
func (s *AnalyticsService) InvalidateEntities() {
	if s.entities != nil {
		s.entities.Purge()
	}
}

func observe(op string, start time.Time, err *error) {
	obs.ObserveComputation(op, start, *err)
}
