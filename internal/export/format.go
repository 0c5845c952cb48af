// Package export renders ledger data and analytics results as CSV files and
// plain-text reports.
package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// Currency formats v as Brazilian reais, e.g. "R$ 1.234,56" or "-R$ 10,00".
func Currency(v decimal.Decimal) string {
	prefix := "R$ "
	if v.IsNegative() {
		prefix = "-R$ "
	}
	return prefix + brl.Sprintf("%.2f", v.Abs().Round(2).InexactFloat64())
}

// CurrencyFloat formats a projected value.
func CurrencyFloat(v float64) string {
	return Currency(decimal.NewFromFloat(v))
}

// Percentage renders one decimal place, e.g. "12.3%".
func Percentage(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
