package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"fluxo/internal/analytics"
	"fluxo/internal/core"
	"fluxo/internal/services"
)

const separator = ';'

var periodColumns = []string{"mes", "entradas", "saidas", "saldo", "saldo_acumulado"}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = separator
	return cw
}

// WriteEntries writes entries with the ledger column order.
func WriteEntries(w io.Writer, entries []core.Entry) error {
	cw := newWriter(w)
	if err := cw.Write(core.EntryColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(e.Record()); err != nil {
			return fmt.Errorf("write entry %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMonthly writes the monthly detail of a dashboard.
func WriteMonthly(w io.Writer, rows []analytics.MonthDetail) error {
	cw := newWriter(w)
	if err := cw.Write(periodColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Month.String(),
			r.Inflow.StringFixed(2),
			r.Outflow.StringFixed(2),
			r.Balance.StringFixed(2),
			r.CumulativeBalance.StringFixed(2),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write month %s: %w", r.Month, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteForecast writes the projected months of a forecast.
func WriteForecast(w io.Writer, f services.Forecast) error {
	cw := newWriter(w)
	if err := cw.Write(periodColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range f.Projection.Points {
		rec := []string{
			p.Month.String(),
			formatFloat(p.Inflow),
			formatFloat(p.Outflow),
			formatFloat(p.Balance),
			formatFloat(p.CumulativeBalance),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write month %s: %w", p.Month, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
