// Package analytics turns ledger entries into KPIs, monthly buckets, trends,
// comparisons and linear forecasts.
//
// Every function here is pure: it reads the slice it is given, performs no I/O
// and keeps no state between calls.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

// Buckets holds per-kind totals for every calendar month that has at least one
// entry with a parseable date. Months are in chronological order with no gaps filled.
//
// A kind that never occurs in the input has no series at all; a kind that occurs
// in some month reads as zero in the months where it is missing.
type Buckets struct {
	Months []Month
	series map[core.Kind][]decimal.Decimal
}

// MonthTotals is one bucket flattened for presentation.
type MonthTotals struct {
	Month   Month           `json:"month"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Balance decimal.Decimal `json:"balance"`
}

// Aggregate buckets entries by calendar month and normalized kind. Entries with
// unparseable dates are skipped; entries with an unknown kind still mark their
// month as present but add to no series.
func Aggregate(entries []core.Entry) Buckets {
	sums := make(map[Month]map[core.Kind]decimal.Decimal)
	present := make(map[core.Kind]bool)

	for _, e := range entries {
		day, ok := e.Day()
		if !ok {
			continue
		}
		m := MonthOf(day)
		row, ok := sums[m]
		if !ok {
			row = make(map[core.Kind]decimal.Decimal)
			sums[m] = row
		}
		kind := e.NormalizedKind()
		if kind == core.KindUnknown {
			continue
		}
		present[kind] = true
		row[kind] = row[kind].Add(e.Value())
	}

	months := make([]Month, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	series := make(map[core.Kind][]decimal.Decimal, len(present))
	for kind := range present {
		values := make([]decimal.Decimal, len(months))
		for i, m := range months {
			values[i] = sums[m][kind]
		}
		series[kind] = values
	}

	return Buckets{Months: months, series: series}
}

// Len is the number of monthly buckets.
func (b Buckets) Len() int {
	return len(b.Months)
}

// Has reports whether kind occurs anywhere in the bucketed input.
func (b Buckets) Has(kind core.Kind) bool {
	_, ok := b.series[kind]
	return ok
}

// Value returns the total for kind in bucket i, zero when the kind is absent.
func (b Buckets) Value(i int, kind core.Kind) decimal.Decimal {
	values, ok := b.series[kind]
	if !ok {
		return decimal.Zero
	}
	return values[i]
}

// Total sums the series of kind across all buckets.
func (b Buckets) Total(kind core.Kind) decimal.Decimal {
	total := decimal.Zero
	for _, v := range b.series[kind] {
		total = total.Add(v)
	}
	return total
}

// Floats returns the series of kind as float64, nil when the kind is absent.
func (b Buckets) Floats(kind core.Kind) []float64 {
	values, ok := b.series[kind]
	if !ok {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.InexactFloat64()
	}
	return out
}

// Rows flattens the buckets, treating absent kinds as zero.
func (b Buckets) Rows() []MonthTotals {
	rows := make([]MonthTotals, b.Len())
	for i, m := range b.Months {
		in := b.Value(i, core.KindInflow)
		out := b.Value(i, core.KindOutflow)
		rows[i] = MonthTotals{Month: m, Inflow: in, Outflow: out, Balance: in.Sub(out)}
	}
	return rows
}
