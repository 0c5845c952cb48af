package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

// CategoryTotals is the inflow/outflow split of one category.
type CategoryTotals struct {
	Category string          `json:"category"`
	Inflow   decimal.Decimal `json:"inflow"`
	Outflow  decimal.Decimal `json:"outflow"`
	Balance  decimal.Decimal `json:"balance"`
}

// ByCategory groups entries by category, sorted by name.
func ByCategory(entries []core.Entry) []CategoryTotals {
	idx := make(map[string]*CategoryTotals)
	for _, e := range entries {
		name := strings.TrimSpace(e.Category)
		ct, ok := idx[name]
		if !ok {
			ct = &CategoryTotals{Category: name}
			idx[name] = ct
		}
		switch e.NormalizedKind() {
		case core.KindInflow:
			ct.Inflow = ct.Inflow.Add(e.Value())
		case core.KindOutflow:
			ct.Outflow = ct.Outflow.Add(e.Value())
		}
	}
	out := make([]CategoryTotals, 0, len(idx))
	for _, ct := range idx {
		ct.Balance = ct.Inflow.Sub(ct.Outflow)
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// NamedTotal is the total movement (inflows plus outflows) under a name.
type NamedTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// TopEntities ranks entities by total movement, largest first, keeping at most n.
func TopEntities(entries []core.Entry, n int) []NamedTotal {
	return topBy(entries, n, func(e core.Entry) string { return e.Entity })
}

// TopCategories ranks categories by total movement, largest first, keeping at most n.
func TopCategories(entries []core.Entry, n int) []NamedTotal {
	return topBy(entries, n, func(e core.Entry) string { return strings.TrimSpace(e.Category) })
}

func topBy(entries []core.Entry, n int, key func(core.Entry) string) []NamedTotal {
	sums := make(map[string]decimal.Decimal)
	for _, e := range entries {
		k := key(e)
		sums[k] = sums[k].Add(e.Value())
	}
	out := make([]NamedTotal, 0, len(sums))
	for name, total := range sums {
		out = append(out, NamedTotal{Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryPair holds the totals of a category present in both compared selections.
type CategoryPair struct {
	Category string          `json:"category"`
	TotalA   decimal.Decimal `json:"total_a"`
	TotalB   decimal.Decimal `json:"total_b"`
}

// CommonTopCategories intersects the top n categories of a and b.
func CommonTopCategories(a, b []core.Entry, n int) []CategoryPair {
	topB := make(map[string]decimal.Decimal)
	for _, t := range TopCategories(b, n) {
		topB[t.Name] = t.Total
	}
	var out []CategoryPair
	for _, t := range TopCategories(a, n) {
		if totalB, ok := topB[t.Name]; ok {
			out = append(out, CategoryPair{Category: t.Name, TotalA: t.Total, TotalB: totalB})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// MonthDetail is a monthly row with the running balance since the first bucket.
type MonthDetail struct {
	MonthTotals
	CumulativeBalance decimal.Decimal `json:"cumulative_balance"`
}

// MonthlyDetail lists the buckets of entries with a cumulative balance.
func MonthlyDetail(entries []core.Entry) []MonthDetail {
	rows := Aggregate(entries).Rows()
	out := make([]MonthDetail, len(rows))
	running := decimal.Zero
	for i, row := range rows {
		running = running.Add(row.Balance)
		out[i] = MonthDetail{MonthTotals: row, CumulativeBalance: running}
	}
	return out
}

// MonthOfYearTotals holds totals for a month number regardless of year.
type MonthOfYearTotals struct {
	Month   int             `json:"month"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
}

// YearProfile folds entries onto months 1..12, zero filled.
func YearProfile(entries []core.Entry) []MonthOfYearTotals {
	out := make([]MonthOfYearTotals, 12)
	for i := range out {
		out[i].Month = i + 1
	}
	for _, e := range entries {
		day, ok := e.Day()
		if !ok {
			continue
		}
		row := &out[int(day.Month())-1]
		switch e.NormalizedKind() {
		case core.KindInflow:
			row.Inflow = row.Inflow.Add(e.Value())
		case core.KindOutflow:
			row.Outflow = row.Outflow.Add(e.Value())
		}
	}
	return out
}

// Overview describes the whole ledger.
type Overview struct {
	TotalEntries   int    `json:"total_entries"`
	ActiveEntities int    `json:"active_entities"`
	FirstDate      string `json:"first_date,omitempty"`
	LastDate       string `json:"last_date,omitempty"`
}

// Summary counts entries and distinct entities. First and last dates compare the
// stored text.
func Summary(entries []core.Entry) Overview {
	o := Overview{TotalEntries: len(entries)}
	entities := make(map[string]struct{})
	for i, e := range entries {
		entities[e.Entity] = struct{}{}
		if i == 0 || e.Date < o.FirstDate {
			o.FirstDate = e.Date
		}
		if i == 0 || e.Date > o.LastDate {
			o.LastDate = e.Date
		}
	}
	o.ActiveEntities = len(entities)
	return o
}
