package analytics

import (
	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

// KPISnapshot summarizes a filtered entry collection.
type KPISnapshot struct {
	Inflow     decimal.Decimal `json:"inflow"`
	Outflow    decimal.Decimal `json:"outflow"`
	Balance    decimal.Decimal `json:"balance"`
	EntryCount int             `json:"entry_count"`
}

// ComputeKPIs sums inflows and outflows. EntryCount counts every entry passed in,
// including rows whose date or amount is malformed.
func ComputeKPIs(entries []core.Entry) KPISnapshot {
	inflow, outflow := decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.NormalizedKind() {
		case core.KindInflow:
			inflow = inflow.Add(e.Value())
		case core.KindOutflow:
			outflow = outflow.Add(e.Value())
		}
	}
	return KPISnapshot{
		Inflow:     inflow,
		Outflow:    outflow,
		Balance:    inflow.Sub(outflow),
		EntryCount: len(entries),
	}
}
