package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fluxo/internal/services"
)

const allEntities = "Todas"

func entityLabel(entity string) string {
	if entity == "" {
		return allEntities
	}
	return entity
}

// WriteSummary writes the plain-text financial summary of a dashboard.
func WriteSummary(w io.Writer, d services.Dashboard) error {
	var b strings.Builder
	fmt.Fprintf(&b, "RELATÓRIO FINANCEIRO - %s - %d\n", entityLabel(d.Entity), d.Year)
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Total de Entradas: %s\n", Currency(d.KPIs.Inflow))
	fmt.Fprintf(&b, "Total de Saídas: %s\n", Currency(d.KPIs.Outflow))
	fmt.Fprintf(&b, "Saldo Líquido: %s\n", Currency(d.KPIs.Balance))
	fmt.Fprintf(&b, "Total de Lançamentos: %d\n\n", d.KPIs.EntryCount)
	fmt.Fprintf(&b, "Tendência Entradas (%dm): %s\n", d.TrendMonths, Percentage(d.Trend.InflowPct))
	fmt.Fprintf(&b, "Tendência Saídas (%dm): %s\n", d.TrendMonths, Percentage(d.Trend.OutflowPct))
	fmt.Fprintf(&b, "Tendência Saldo (%dm): %s\n", d.TrendMonths, Percentage(d.Trend.BalancePct))
	_, err := io.WriteString(w, b.String())
	return err
}

// ReportRows lays out a dashboard and an optional forecast as spreadsheet rows.
func ReportRows(d services.Dashboard, f *services.Forecast) [][]string {
	rows := [][]string{
		{"Relatório", entityLabel(d.Entity), strconv.Itoa(d.Year)},
		{"Total de Entradas", Currency(d.KPIs.Inflow)},
		{"Total de Saídas", Currency(d.KPIs.Outflow)},
		{"Saldo Líquido", Currency(d.KPIs.Balance)},
		{"Total de Lançamentos", strconv.Itoa(d.KPIs.EntryCount)},
		{fmt.Sprintf("Tendência Entradas (%dm)", d.TrendMonths), Percentage(d.Trend.InflowPct)},
		{fmt.Sprintf("Tendência Saídas (%dm)", d.TrendMonths), Percentage(d.Trend.OutflowPct)},
		{fmt.Sprintf("Tendência Saldo (%dm)", d.TrendMonths), Percentage(d.Trend.BalancePct)},
		{},
		{"Mês", "Entradas", "Saídas", "Saldo", "Saldo Acumulado"},
	}
	for _, m := range d.Monthly {
		rows = append(rows, []string{
			m.Month.String(), Currency(m.Inflow), Currency(m.Outflow), Currency(m.Balance), Currency(m.CumulativeBalance),
		})
	}
	if f == nil {
		return rows
	}

	s := f.Summary
	rows = append(rows,
		[]string{},
		[]string{fmt.Sprintf("Projeção (%dm de histórico, %dm à frente)", f.HistoryMonths, f.HorizonMonths)},
		[]string{"Entradas Projetadas", CurrencyFloat(s.Inflow)},
		[]string{"Saídas Projetadas", CurrencyFloat(s.Outflow)},
		[]string{"Saldo Projetado", CurrencyFloat(s.Balance)},
		[]string{"ROI", Percentage(s.ROIPct)},
		[]string{"Margem de Segurança", Percentage(s.SafetyMarginPct)},
		[]string{"Crescimento Mensal Entradas", Percentage(s.InflowGrowthPct)},
		[]string{"Crescimento Mensal Saídas", Percentage(s.OutflowGrowthPct)},
		[]string{"Mês", "Entradas", "Saídas", "Saldo", "Saldo Acumulado"},
	)
	for _, p := range f.Projection.Points {
		rows = append(rows, []string{
			p.Month.String(), CurrencyFloat(p.Inflow), CurrencyFloat(p.Outflow), CurrencyFloat(p.Balance), CurrencyFloat(p.CumulativeBalance),
		})
	}
	return rows
}
