package analytics

import (
	"math"
	"time"

	"fluxo/internal/core"
)

// daysPerMonth approximates a month when sizing trailing windows.
const daysPerMonth = 30

// TrendResult holds the mean month-over-month change, in percent, of each series.
type TrendResult struct {
	InflowPct  float64 `json:"inflow_pct"`
	OutflowPct float64 `json:"outflow_pct"`
	BalancePct float64 `json:"balance_pct"`
}

// TrendCutoff is the instant months×30 days before now. An entry dated on the
// cutoff day falls inside the window only when now is exactly midnight.
func TrendCutoff(now time.Time, months int) time.Time {
	return now.Add(-time.Duration(months*daysPerMonth) * 24 * time.Hour)
}

// WindowStart returns the calendar day holding the trend cutoff. Forecast
// history and store pre-reads include that whole day.
func WindowStart(now time.Time, months int) time.Time {
	y, m, d := TrendCutoff(now, months).In(time.UTC).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InWindow keeps entries dated on or after start. Unparseable dates are dropped.
func InWindow(entries []core.Entry, start time.Time) []core.Entry {
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		day, ok := e.Day()
		if !ok || day.Before(start) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ComputeTrend buckets the entries of the trailing window and averages the
// month-over-month percentage change of inflow, outflow and the per-month balance.
// A series reports 0 when the window has fewer than two buckets or the kind is absent.
func ComputeTrend(entries []core.Entry, trailingMonths int, now time.Time) TrendResult {
	b := Aggregate(InWindow(entries, TrendCutoff(now, trailingMonths)))
	if b.Len() < 2 {
		return TrendResult{}
	}

	var r TrendResult
	if b.Has(core.KindInflow) {
		r.InflowPct = meanPctChange(b.Floats(core.KindInflow))
	}
	if b.Has(core.KindOutflow) {
		r.OutflowPct = meanPctChange(b.Floats(core.KindOutflow))
	}

	balance := make([]float64, b.Len())
	for i := range balance {
		balance[i] = b.Value(i, core.KindInflow).Sub(b.Value(i, core.KindOutflow)).InexactFloat64()
	}
	r.BalancePct = meanPctChange(balance)
	return r
}

// meanPctChange averages (v[i]-v[i-1])/v[i-1] over the finite steps only and
// scales to percent. Steps from a zero base are skipped.
func meanPctChange(series []float64) float64 {
	var sum float64
	var n int
	for i := 1; i < len(series); i++ {
		ratio := (series[i] - series[i-1]) / series[i-1]
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			continue
		}
		sum += ratio
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * 100
}
