// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings.
// Amounts are kept as decimals so that totals add up exactly.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a decimal value.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both are
// present the last one is taken as the decimal separator and the other as a thousands
// separator, so "1.234,56" and "1,234.56" both parse to 1234.56.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34, nil
//	ParseAmount("12,34")    -> 12.34, nil
//	ParseAmount("1.234,56") -> 1234.56, nil
//	ParseAmount("abc")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountOrZero parses s and falls back to zero for malformed input.
// Negative amounts count as malformed: writes reject them, so only legacy or
// imported rows carry one. Analytics use it so a bad amount never drops the
// entry from counts.
func AmountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Value is the entry amount, zero when the stored text does not parse or is negative.
func (e Entry) Value() decimal.Decimal {
	return AmountOrZero(e.Amount)
}
