package analytics

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Variation is the percentage change of each KPI from snapshot A to snapshot B.
type Variation struct {
	InflowPct     float64 `json:"inflow_pct"`
	OutflowPct    float64 `json:"outflow_pct"`
	BalancePct    float64 `json:"balance_pct"`
	EntryCountPct float64 `json:"entry_count_pct"`
}

// Compare applies VariationPct to every metric of the two snapshots.
func Compare(a, b KPISnapshot) Variation {
	return Variation{
		InflowPct:     VariationPct(a.Inflow, b.Inflow),
		OutflowPct:    VariationPct(a.Outflow, b.Outflow),
		BalancePct:    VariationPct(a.Balance, b.Balance),
		EntryCountPct: VariationPct(decimal.NewFromInt(int64(a.EntryCount)), decimal.NewFromInt(int64(b.EntryCount))),
	}
}

// VariationPct is (current-base)/base*100. A zero base yields 0 when current is
// also zero and 100 otherwise.
func VariationPct(base, current decimal.Decimal) float64 {
	if base.IsZero() {
		if current.IsZero() {
			return 0
		}
		return 100
	}
	return current.Sub(base).Div(base).Mul(hundred).InexactFloat64()
}
