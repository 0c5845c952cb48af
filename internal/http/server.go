// Package http exposes the ledger and the analytics engine as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"fluxo/internal/ledger"
	flog "fluxo/internal/log"
	"fluxo/internal/middleware/ratelimit"
	"fluxo/internal/middleware/security"
	"fluxo/internal/middleware/trace"
	"fluxo/internal/obs"
	"fluxo/internal/services"
)

// Config holds the HTTP surface settings.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	DefaultTrendMonths int
	RequestTimeout     time.Duration
	Development        bool
}

// Deps are the services the handlers call into.
type Deps struct {
	Reader    ledger.Reader
	Entries   *services.EntryService
	Analytics *services.AnalyticsService
	Logger    *flog.Logger
}

type Server struct {
	http.Server
	reader       ledger.Reader
	entries      *services.EntryService
	analytics    *services.AnalyticsService
	logger       *flog.Logger
	validate     *validator.Validate
	defaultTrend int
	started      time.Time

	shutdownOnce sync.Once
}

// NewServer configures the router and middleware, returning a ready-to-run http.Server.
func NewServer(cfg Config, deps Deps) *Server {
	obs.Init()

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.DefaultTrendMonths == 0 {
		cfg.DefaultTrendMonths = 6
	}
	logger := deps.Logger
	if logger == nil {
		logger = flog.New(flog.DefaultConfig())
	}

	s := &Server{
		reader:       deps.Reader,
		entries:      deps.Entries,
		analytics:    deps.Analytics,
		logger:       logger.WithComponent(flog.ComponentHTTP),
		validate:     newValidator(),
		defaultTrend: cfg.DefaultTrendMonths,
		started:      time.Now(),
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		flog.Middleware(s.logger),
		trace.Middleware,
		flog.RequestIDMiddleware(trace.RequestIDFromRequest),
		middleware.Recoverer,
		obs.Instrument,
		security.DetectionMiddleware,
		security.Headers(headersConfig(cfg.Development)),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", obs.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(ratelimit.Middleware(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}))

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleCreateEntry)
			r.Get("/{id}", s.handleGetEntry)
			r.Put("/{id}", s.handleUpdateEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})

		r.Get("/entities", s.handleEntities)
		r.Get("/overview", s.handleOverview)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/compare", s.handleCompare)
		r.Get("/forecast", s.handleForecast)

		r.Route("/export", func(r chi.Router) {
			r.Get("/entries.csv", s.handleExportEntries)
			r.Get("/monthly.csv", s.handleExportMonthly)
			r.Get("/summary.txt", s.handleExportSummary)
			r.Get("/forecast.csv", s.handleExportForecast)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func headersConfig(development bool) security.HeadersConfig {
	c := security.DefaultHeadersConfig()
	c.Development = development
	return c
}

// Shutdown gracefully shuts down the server. Only the first call has effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}
