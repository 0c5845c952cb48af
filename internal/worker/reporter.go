package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"fluxo/internal/analytics"
	"fluxo/internal/export"
	"fluxo/internal/obs"
	"fluxo/internal/services"
	"fluxo/internal/sheets"
)

// Default forecast written with every report.
const (
	reportHistoryMonths = 12
	reportHorizonMonths = 6
)

// Reporter writes the current-year dashboard and the default forecast to the summary tab.
type Reporter struct {
	analytics   *services.AnalyticsService
	writer      sheets.ReportWriter
	limiter     *rate.Limiter
	trendMonths int
}

func NewReporter(a *services.AnalyticsService, writer sheets.ReportWriter, limiter *rate.Limiter, trendMonths int) *Reporter {
	return &Reporter{analytics: a, writer: writer, limiter: limiter, trendMonths: trendMonths}
}

// Publish recomputes the report and replaces the summary tab.
func (r *Reporter) Publish(ctx context.Context) error {
	d, err := r.analytics.Dashboard(ctx, services.DashboardQuery{TrendMonths: r.trendMonths})
	if err != nil {
		return fmt.Errorf("compute dashboard: %w", err)
	}

	var forecast *services.Forecast
	f, err := r.analytics.Forecast(ctx, services.ForecastQuery{
		HistoryMonths: reportHistoryMonths,
		HorizonMonths: reportHorizonMonths,
	})
	switch {
	case err == nil:
		forecast = &f
	case errors.Is(err, analytics.ErrInsufficientData):
		slog.InfoContext(ctx, "Not enough history for the report forecast")
	default:
		return fmt.Errorf("compute forecast: %w", err)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("sheets rate limit: %w", err)
		}
	}
	err = r.writer.WriteReport(ctx, export.ReportRows(d, forecast))
	obs.ObserveSheetsCall("report", err)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	slog.InfoContext(ctx, "Summary report written", "year", d.Year, "with_forecast", forecast != nil)
	return nil
}
