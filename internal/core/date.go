package core

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// acceptedDateLayouts lists the formats found in manually entered ledger data.
var acceptedDateLayouts = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseDate parses a stored date, returning the calendar day at midnight UTC.
// ok is false when no accepted layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t in the storage layout (YYYY-MM-DD).
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// NewDate creates a calendar date from year, month, day
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
