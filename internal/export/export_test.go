package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fluxo/internal/analytics"
	"fluxo/internal/core"
	"fluxo/internal/services"
)

func TestCurrency(t *testing.T) {
	cases := map[string]string{
		"1234.56":   "R$ 1.234,56",
		"0":         "R$ 0,00",
		"-10":       "-R$ 10,00",
		"1000000.5": "R$ 1.000.000,50",
		"999.999":   "R$ 1.000,00",
	}
	for in, want := range cases {
		require.Equal(t, want, Currency(decimal.RequireFromString(in)), in)
	}
	require.Equal(t, "R$ 2.500,00", CurrencyFloat(2500))
}

func TestPercentage(t *testing.T) {
	require.Equal(t, "12.3%", Percentage(12.345))
	require.Equal(t, "-100.0%", Percentage(-100))
	require.Equal(t, "0.0%", Percentage(0))
}

func TestWriteEntriesUsesSemicolons(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEntries(&buf, []core.Entry{
		{ID: 1, Date: "2024-01-05", Entity: "Acme", Description: "Venda; balcão", Kind: "Entrada", Amount: "10.00"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "id;data;empresa;descricao;categoria;tipo;valor;observacoes;created_at;updated_at", lines[0])
	require.Equal(t, `1;2024-01-05;Acme;"Venda; balcão";;Entrada;10.00;;;`, lines[1])
}

func sampleDashboard() services.Dashboard {
	return services.Dashboard{
		Entity:      "",
		Year:        2024,
		TrendMonths: 6,
		KPIs: analytics.KPISnapshot{
			Inflow:     decimal.RequireFromString("1234.56"),
			Outflow:    decimal.RequireFromString("234.56"),
			Balance:    decimal.NewFromInt(1000),
			EntryCount: 3,
		},
		Trend: analytics.TrendResult{InflowPct: 12.345, OutflowPct: -5, BalancePct: 0},
		Monthly: []analytics.MonthDetail{{
			MonthTotals: analytics.MonthTotals{
				Month:   analytics.Month{Year: 2024, Month: 1},
				Inflow:  decimal.RequireFromString("1234.56"),
				Outflow: decimal.RequireFromString("234.56"),
				Balance: decimal.NewFromInt(1000),
			},
			CumulativeBalance: decimal.NewFromInt(1000),
		}},
	}
}

func TestWriteMonthly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMonthly(&buf, sampleDashboard().Monthly))
	require.Equal(t, "mes;entradas;saidas;saldo;saldo_acumulado\n2024-01;1234.56;234.56;1000.00;1000.00\n", buf.String())
}

func TestWriteForecast(t *testing.T) {
	f := services.Forecast{Projection: analytics.Projection{Points: []analytics.ForecastPoint{
		{Month: analytics.Month{Year: 2024, Month: 4}, Inflow: 1733.333, Outflow: 500, Balance: 1233.333, CumulativeBalance: 1233.333},
	}}}
	var buf bytes.Buffer
	require.NoError(t, WriteForecast(&buf, f))
	require.Equal(t, "mes;entradas;saidas;saldo;saldo_acumulado\n2024-04;1733.33;500.00;1233.33;1233.33\n", buf.String())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleDashboard()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "RELATÓRIO FINANCEIRO - Todas - 2024\n"))
	require.Contains(t, out, "Total de Entradas: R$ 1.234,56\n")
	require.Contains(t, out, "Saldo Líquido: R$ 1.000,00\n")
	require.Contains(t, out, "Total de Lançamentos: 3\n")
	require.Contains(t, out, "Tendência Entradas (6m): 12.3%\n")
	require.Contains(t, out, "Tendência Saídas (6m): -5.0%\n")
}

func TestReportRows(t *testing.T) {
	d := sampleDashboard()
	rows := ReportRows(d, nil)
	require.Equal(t, []string{"Relatório", "Todas", "2024"}, rows[0])
	require.Equal(t, "2024-01", rows[len(rows)-1][0])

	f := &services.Forecast{HistoryMonths: 6, HorizonMonths: 3, Summary: analytics.ForecastSummary{Inflow: 100}}
	withForecast := ReportRows(d, f)
	require.Greater(t, len(withForecast), len(rows))
	require.Contains(t, withForecast, []string{"Entradas Projetadas", "R$ 100,00"})
}
