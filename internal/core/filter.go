package core

import "time"

// Filter narrows a ledger read. Zero values mean "no constraint".
type Filter struct {
	Entity string
	From   time.Time // inclusive
	To     time.Time // inclusive
	Kind   Kind
}

// YearFilter covers the calendar year [YYYY-01-01, YYYY-12-31] for entity ("" = all).
func YearFilter(entity string, year int) Filter {
	return Filter{
		Entity: entity,
		From:   NewDate(year, 1, 1),
		To:     NewDate(year, 12, 31),
	}
}

// FromBound returns the inclusive lower bound in storage layout, "" when unset.
func (f Filter) FromBound() string {
	if f.From.IsZero() {
		return ""
	}
	return FormatDate(f.From)
}

// ToBound returns the inclusive upper bound in storage layout, "" when unset.
func (f Filter) ToBound() string {
	if f.To.IsZero() {
		return ""
	}
	return FormatDate(f.To)
}

// Matches applies the filter in memory. Date bounds compare the stored text, the same
// way the SQL store compares its TEXT column.
func (f Filter) Matches(e Entry) bool {
	if f.Entity != "" && e.Entity != f.Entity {
		return false
	}
	if from := f.FromBound(); from != "" && e.Date < from {
		return false
	}
	if to := f.ToBound(); to != "" && e.Date > to {
		return false
	}
	if f.Kind != KindUnknown && e.NormalizedKind() != f.Kind {
		return false
	}
	return true
}
